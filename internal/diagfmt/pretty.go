package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"tyco/internal/diag"
	"tyco/internal/source"
)

// Pretty renders a diagnostic bag in a human-readable form. It walks
// bag.Items() in order; call bag.Sort() first for position-ordered output.
// Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a caret underline when opts.Context is
// set, then the notes when opts.ShowNotes is set.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeDiagnostic(w, &d, fs, opts)
	}
}

func writeDiagnostic(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	start, _ := fs.Resolve(d.Primary)
	file := fs.Get(d.Primary.File)

	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
		displayPath(file.Path, opts.PathMode),
		start.Line, start.Col,
		severityText(d.Severity, opts.Color),
		d.Code, d.Message)

	if opts.Context {
		writeContext(w, file, d.Primary, start)
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			nStart, _ := fs.Resolve(n.Span)
			nFile := fs.Get(n.Span.File)
			fmt.Fprintf(w, "%s:%d:%d: note: %s\n",
				displayPath(nFile.Path, opts.PathMode),
				nStart.Line, nStart.Col, n.Msg)
		}
	}
}

// writeContext prints the offending line and a ^~~~ underline below the span.
// Underline geometry is measured in display cells, not bytes.
func writeContext(w io.Writer, file *source.File, sp source.Span, start source.LineCol) {
	line := file.GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	prefixBytes := int(start.Col) - 1
	if prefixBytes > len(line) {
		prefixBytes = len(line)
	}
	spanBytes := int(sp.End - sp.Start)
	if spanBytes < 1 {
		spanBytes = 1
	}
	end := min(prefixBytes+spanBytes, len(line))

	pad := runewidth.StringWidth(line[:prefixBytes])
	width := runewidth.StringWidth(line[prefixBytes:end])
	if width < 1 {
		width = 1
	}
	fmt.Fprintf(w, "  %s^%s\n", strings.Repeat(" ", pad), strings.Repeat("~", width-1))
}

func severityText(sev diag.Severity, colored bool) string {
	if !colored {
		return sev.String()
	}
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold).Sprint(sev.String())
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold).Sprint(sev.String())
	default:
		return color.New(color.FgCyan).Sprint(sev.String())
	}
}

func displayPath(path string, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	case PathModeRelative:
		if wd, err := filepath.Abs("."); err == nil {
			if rel, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(rel, "..") {
				return rel
			}
		}
		return path
	case PathModeBasename:
		return filepath.Base(path)
	default:
		return path
	}
}
