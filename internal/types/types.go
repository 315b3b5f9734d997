package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUnknown is the distinguished marker for values whose concrete type
	// is resolved dynamically. Values of this kind are the ones type
	// inference allocates variables for.
	KindUnknown
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindStr
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnknown:
		return "unknown"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind  Kind
	Width Width // for numeric primitives
}

// MakeInt describes a signed integer of the given width (WidthAny for "int").
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// String renders the descriptor in IR syntax.
func (t Type) String() string {
	switch t.Kind {
	case KindUnknown:
		return "!unknown"
	case KindInt:
		if t.Width != WidthAny {
			return fmt.Sprintf("i%d", t.Width)
		}
		return "int"
	case KindFloat:
		if t.Width != WidthAny {
			return fmt.Sprintf("f%d", t.Width)
		}
		return "float"
	default:
		return t.Kind.String()
	}
}

// IsUnknown reports whether the descriptor is the dynamic-type marker.
func (t Type) IsUnknown() bool {
	return t.Kind == KindUnknown
}
