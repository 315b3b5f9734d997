package ir

import (
	"tyco/internal/source"
)

// OpID identifies an operation inside a function's arena.
type OpID uint32

// NoOpID marks the absence of an operation (e.g. the parent of a
// function-level op).
const NoOpID OpID = ^OpID(0)

// ValueID identifies a value inside a function's arena.
type ValueID uint32

// NoValueID marks the absence of a value.
const NoValueID ValueID = ^ValueID(0)

// OpKind enumerates operation kinds recognized by the dispatcher.
type OpKind uint8

const (
	OpInvalid OpKind = iota
	// OpConst materializes a literal. Carries TraitConstantLike.
	OpConst
	// OpSelect picks between two values on an i1 condition.
	OpSelect
	// OpToBool coerces a dynamic value to bool.
	OpToBool
	// OpIf is a structured conditional whose regions yield its results.
	OpIf
	// OpYield terminates a structured region with the region's results.
	OpYield
	// OpUnknownCast casts a dynamic value to a static type.
	OpUnknownCast
	// OpBinary is a binary arithmetic expression.
	OpBinary
	// OpCompare is a binary comparison producing bool.
	OpCompare
	// OpReturn ends control flow with result values. Carries TraitReturnLike.
	OpReturn
	// OpGeneric is any operation outside the fixed set above.
	OpGeneric
)

func (k OpKind) String() string {
	switch k {
	case OpConst:
		return "const"
	case OpSelect:
		return "select"
	case OpToBool:
		return "to_bool"
	case OpIf:
		return "if"
	case OpYield:
		return "yield"
	case OpUnknownCast:
		return "cast"
	case OpBinary:
		return "binary"
	case OpCompare:
		return "compare"
	case OpReturn:
		return "return"
	case OpGeneric:
		return "generic"
	default:
		return "invalid"
	}
}

// Traits encodes semantic traits an operation may carry independent of its
// kind. The inference fallback rules dispatch on these.
type Traits uint8

const (
	// TraitConstantLike marks ops that materialize a constant single result.
	TraitConstantLike Traits = 1 << iota
	// TraitReturnLike marks ops that end control flow with operand values
	// treated as the enclosing region's (or function's) results.
	TraitReturnLike
)

// Has reports whether all bits of t are set.
func (tr Traits) Has(t Traits) bool {
	return tr&t == t
}

// Op is a single IR operation. Operands and results are value handles into
// the owning function's arena; Regions holds nested op lists in order.
type Op struct {
	Kind     OpKind
	Opcode   string // textual mnemonic; operator name for binary/compare ops
	Traits   Traits
	Operands []ValueID
	Results  []ValueID
	Parent   OpID     // enclosing region op, NoOpID at function level
	Regions  [][]OpID // nested regions (then/else for if)
	Attr     string   // literal payload for const ops
	Span     source.Span
}

// Mnemonic returns the opcode text used in the textual format.
func (op *Op) Mnemonic() string {
	if op.Opcode != "" {
		return op.Opcode
	}
	return op.Kind.String()
}
