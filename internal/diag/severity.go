package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevRemark is for informational diagnostics that never affect status.
	SevRemark Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevRemark:
		return "REMARK"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
