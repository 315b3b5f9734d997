package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Textual IR parsing.
	SynInfo            Code = 1000
	SynUnexpectedToken Code = 1001
	SynUnknownType     Code = 1002
	SynUndefinedValue  Code = 1003
	SynRedefinedValue  Code = 1004
	SynUnclosedRegion  Code = 1005
	SynExpectType      Code = 1006
	SynDuplicateFunc   Code = 1007

	// Type inference.
	InfInfo                Code = 2000
	InfUnhandledOp         Code = 2001
	InfYieldArityMismatch  Code = 2002
	InfReturnArityMismatch Code = 2003
)

func (c Code) String() string {
	switch {
	case c >= 2000:
		return fmt.Sprintf("INF%04d", uint16(c))
	case c >= 1000:
		return fmt.Sprintf("SYN%04d", uint16(c))
	default:
		return fmt.Sprintf("DIAG%04d", uint16(c))
	}
}
