package trace

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto   Format = iota // pick from the output path
	FormatText                 // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	default:
		return formatText(ev)
	}
}

func formatNDJSON(ev Event) []byte {
	type jsonEvent struct {
		Time   string `json:"time"`
		Seq    uint64 `json:"seq"`
		Kind   string `json:"kind"`
		Scope  string `json:"scope"`
		Name   string `json:"name"`
		Detail string `json:"detail,omitempty"`
	}

	j := jsonEvent{
		Time:   ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:    ev.Seq,
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Name:   ev.Name,
		Detail: ev.Detail,
	}

	data, _ := json.Marshal(j)
	data = append(data, '\n')
	return data
}

func formatText(ev Event) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%06d] %-6s %-5s %s", ev.Seq, ev.Scope, ev.Kind, ev.Name)
	if ev.Detail != "" {
		if strings.Contains(ev.Detail, "\n") {
			sb.WriteByte('\n')
			sb.WriteString(ev.Detail)
			if !strings.HasSuffix(ev.Detail, "\n") {
				sb.WriteByte('\n')
			}
			return []byte(sb.String())
		}
		sb.WriteString(": ")
		sb.WriteString(ev.Detail)
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
