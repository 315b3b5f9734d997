package cpa

import (
	"fmt"

	"tyco/internal/ir"
	"tyco/internal/types"
)

// VarID identifies a type variable within one analysis context.
type VarID uint32

// TermKind distinguishes the two forms of a type term.
type TermKind uint8

const (
	// TermTypeVar is a fresh variable for a value whose type is unresolved.
	TermTypeVar TermKind = iota + 1
	// TermIRType wraps a concrete IR type. Interned per context, immutable.
	TermIRType
)

// Term is the atomic object constraints relate: either a type variable or a
// concrete IR type. Terms are allocated by a Context and never mutated.
type Term struct {
	Kind  TermKind
	Var   VarID        // for TermTypeVar
	Value ir.ValueID   // back-reference to the value that spawned the variable
	Type  types.TypeID // for TermIRType
}

// IsVar reports whether the term is a type variable.
func (t *Term) IsVar() bool {
	return t.Kind == TermTypeVar
}

// Format renders the term for dumps and diagnostics.
func (t *Term) Format(fn *ir.Func, typesIn *types.Interner) string {
	switch t.Kind {
	case TermTypeVar:
		if fn != nil && int(t.Value) < len(fn.Values) {
			return fmt.Sprintf("τ%d(%%%s)", t.Var, fn.Value(t.Value).Name)
		}
		return fmt.Sprintf("τ%d", t.Var)
	case TermIRType:
		if typesIn != nil {
			return typesIn.StringOf(t.Type)
		}
		return fmt.Sprintf("type#%d", t.Type)
	default:
		return "invalid"
	}
}

// Constraint is a directed subtyping relation: Sub must be assignable to
// Super. Origin records the operation that justified the constraint; it is
// diagnostic context only, not solver input.
type Constraint struct {
	Super  *Term
	Sub    *Term
	Origin ir.OpID
}
