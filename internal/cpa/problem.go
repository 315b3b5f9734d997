package cpa

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"tyco/internal/ir"
	"tyco/internal/types"
)

// ProblemSchemaVersion guards the wire format of exported constraint
// problems. Increment on any record layout change.
const ProblemSchemaVersion uint16 = 1

// TermRecord is the flat wire form of a Term. Terms are referenced by index
// into FuncProblem.Terms.
type TermRecord struct {
	Kind  uint8
	Var   uint32 // variable id, for variable terms
	Value string // spawning value name, for variable terms
	Type  string // type text, for concrete terms
}

// ConstraintRecord pairs term indices; Sub must be assignable to Super.
type ConstraintRecord struct {
	Super  uint32
	Sub    uint32
	Origin string // justifying op mnemonic, diagnostics only
}

// FuncProblem is one function's constraint problem.
type FuncProblem struct {
	Name        string
	Terms       []TermRecord
	TypeVars    []uint32 // indices into Terms
	Constraints []ConstraintRecord
}

// Problem is the exported hand-off artifact for the external solver.
type Problem struct {
	Schema uint16
	Funcs  []FuncProblem
}

// BuildFuncProblem flattens one function's sets into wire records. Term
// identity is preserved: every distinct term instance becomes exactly one
// record, referenced by index.
func BuildFuncProblem(name string, cons *ConstraintSet, vars *TypeVarSet, fn *ir.Func, typesIn *types.Interner) FuncProblem {
	fp := FuncProblem{Name: name}
	index := make(map[*Term]uint32)

	internTerm := func(t *Term) uint32 {
		if i, ok := index[t]; ok {
			return i
		}
		i := uint32(len(fp.Terms))
		rec := TermRecord{Kind: uint8(t.Kind)}
		switch t.Kind {
		case TermTypeVar:
			rec.Var = uint32(t.Var)
			if fn != nil && int(t.Value) < len(fn.Values) {
				rec.Value = fn.Value(t.Value).Name
			}
		case TermIRType:
			rec.Type = typesIn.StringOf(t.Type)
		}
		fp.Terms = append(fp.Terms, rec)
		index[t] = i
		return i
	}

	for _, v := range vars.Items() {
		fp.TypeVars = append(fp.TypeVars, internTerm(v))
	}
	for _, c := range cons.Items() {
		rec := ConstraintRecord{
			Super: internTerm(c.Super),
			Sub:   internTerm(c.Sub),
		}
		if fn != nil && c.Origin != ir.NoOpID {
			rec.Origin = fn.Op(c.Origin).Mnemonic()
		}
		fp.Constraints = append(fp.Constraints, rec)
	}
	return fp
}

// Encode serializes the problem with msgpack.
func (p *Problem) Encode(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(p)
}

// DecodeProblem reads a msgpack-encoded problem and validates its schema.
func DecodeProblem(r io.Reader) (*Problem, error) {
	dec := msgpack.NewDecoder(r)
	var p Problem
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if p.Schema != ProblemSchemaVersion {
		return nil, fmt.Errorf("unsupported problem schema %d (expected %d)", p.Schema, ProblemSchemaVersion)
	}
	return &p, nil
}
