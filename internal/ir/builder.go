package ir

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"tyco/internal/source"
	"tyco/internal/types"
)

// Builder constructs a Func op by op. Ops are appended to the innermost open
// region (the function body by default); StartIf opens nested regions.
type Builder struct {
	fn     *Func
	frames []regionFrame
}

// regionFrame addresses the op list currently receiving new operations.
// The function body is the frame with parent == NoOpID.
type regionFrame struct {
	parent OpID
	region int
}

// NewBuilder starts a new function with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		fn:     &Func{Name: name},
		frames: []regionFrame{{parent: NoOpID}},
	}
}

// Func returns the function under construction.
func (b *Builder) Func() *Func {
	return b.fn
}

// Finish checks all regions are closed and returns the function.
func (b *Builder) Finish() (*Func, error) {
	if len(b.frames) != 1 {
		return nil, fmt.Errorf("function %s: %d unclosed regions", b.fn.Name, len(b.frames)-1)
	}
	return b.fn, nil
}

// AddParam registers an entry-block parameter.
func (b *Builder) AddParam(name string, t types.TypeID) ValueID {
	id := b.newValue(name, t, NoOpID)
	b.fn.Params = append(b.fn.Params, id)
	return id
}

func (b *Builder) newValue(name string, t types.TypeID, def OpID) ValueID {
	lenValues, err := safecast.Conv[uint32](len(b.fn.Values))
	if err != nil {
		panic(fmt.Errorf("len(values) overflow: %w", err))
	}
	id := ValueID(lenValues)
	if name == "" {
		name = strconv.Itoa(len(b.fn.Values))
	}
	b.fn.Values = append(b.fn.Values, Value{Name: name, Type: t, Def: def})
	return id
}

// append places the op into the current region and returns its ID.
func (b *Builder) append(op Op) OpID {
	lenOps, err := safecast.Conv[uint32](len(b.fn.Ops))
	if err != nil {
		panic(fmt.Errorf("len(ops) overflow: %w", err))
	}
	id := OpID(lenOps)
	frame := b.frames[len(b.frames)-1]
	op.Parent = frame.parent
	b.fn.Ops = append(b.fn.Ops, op)
	if frame.parent == NoOpID {
		b.fn.Body = append(b.fn.Body, id)
	} else {
		parent := &b.fn.Ops[frame.parent]
		parent.Regions[frame.region] = append(parent.Regions[frame.region], id)
	}
	return id
}

// emitWithResults appends the op and allocates one result per type.
func (b *Builder) emitWithResults(op Op, resultTypes []types.TypeID) (OpID, []ValueID) {
	id := b.append(op)
	results := make([]ValueID, 0, len(resultTypes))
	for _, t := range resultTypes {
		results = append(results, b.newValue("", t, id))
	}
	b.fn.Ops[id].Results = results
	return id, results
}

// Const materializes a literal of the given type.
func (b *Builder) Const(attr string, t types.TypeID, span source.Span) ValueID {
	_, results := b.emitWithResults(Op{
		Kind:   OpConst,
		Traits: TraitConstantLike,
		Attr:   attr,
		Span:   span,
	}, []types.TypeID{t})
	return results[0]
}

// Select picks trueVal or falseVal on cond. The condition is always bool and
// excluded from inference.
func (b *Builder) Select(cond, trueVal, falseVal ValueID, t types.TypeID, span source.Span) ValueID {
	_, results := b.emitWithResults(Op{
		Kind:     OpSelect,
		Operands: []ValueID{cond, trueVal, falseVal},
		Span:     span,
	}, []types.TypeID{t})
	return results[0]
}

// ToBool coerces a dynamic value to bool.
func (b *Builder) ToBool(v ValueID, boolType types.TypeID, span source.Span) ValueID {
	_, results := b.emitWithResults(Op{
		Kind:     OpToBool,
		Operands: []ValueID{v},
		Span:     span,
	}, []types.TypeID{boolType})
	return results[0]
}

// UnknownCast casts a dynamic operand to the static type t.
func (b *Builder) UnknownCast(v ValueID, t types.TypeID, span source.Span) ValueID {
	_, results := b.emitWithResults(Op{
		Kind:     OpUnknownCast,
		Operands: []ValueID{v},
		Span:     span,
	}, []types.TypeID{t})
	return results[0]
}

// Binary emits a binary arithmetic expression (add, sub, mul, div, mod).
func (b *Builder) Binary(opcode string, left, right ValueID, t types.TypeID, span source.Span) ValueID {
	_, results := b.emitWithResults(Op{
		Kind:     OpBinary,
		Opcode:   opcode,
		Operands: []ValueID{left, right},
		Span:     span,
	}, []types.TypeID{t})
	return results[0]
}

// Compare emits a binary comparison; the result is always bool.
func (b *Builder) Compare(opcode string, left, right ValueID, boolType types.TypeID, span source.Span) ValueID {
	_, results := b.emitWithResults(Op{
		Kind:     OpCompare,
		Opcode:   opcode,
		Operands: []ValueID{left, right},
		Span:     span,
	}, []types.TypeID{boolType})
	return results[0]
}

// Return ends control flow of the enclosing region with the given operands.
func (b *Builder) Return(operands []ValueID, span source.Span) OpID {
	return b.append(Op{
		Kind:     OpReturn,
		Traits:   TraitReturnLike,
		Operands: operands,
		Span:     span,
	})
}

// Yield terminates a structured region with the region's results.
func (b *Builder) Yield(operands []ValueID, span source.Span) OpID {
	return b.append(Op{
		Kind:     OpYield,
		Operands: operands,
		Span:     span,
	})
}

// Generic emits an operation outside the recognized set.
func (b *Builder) Generic(opcode string, traits Traits, operands []ValueID, resultTypes []types.TypeID, span source.Span) (OpID, []ValueID) {
	return b.emitWithResults(Op{
		Kind:     OpGeneric,
		Opcode:   opcode,
		Traits:   traits,
		Operands: operands,
		Span:     span,
	}, resultTypes)
}

// Op emits an operation with explicit kind, opcode and traits. Used by the
// text parser; the typed helpers above are preferred for programmatic IR.
func (b *Builder) Op(kind OpKind, opcode string, traits Traits, operands []ValueID, resultTypes []types.TypeID, span source.Span) (OpID, []ValueID) {
	return b.emitWithResults(Op{
		Kind:     kind,
		Opcode:   opcode,
		Traits:   traits,
		Operands: operands,
		Span:     span,
	}, resultTypes)
}

// StartIf opens a structured conditional with two regions and enters the
// then-region. Call ElseRegion to switch and EndIf to close.
func (b *Builder) StartIf(cond ValueID, resultTypes []types.TypeID, span source.Span) (OpID, []ValueID) {
	id, results := b.emitWithResults(Op{
		Kind:     OpIf,
		Operands: []ValueID{cond},
		Regions:  make([][]OpID, 2),
		Span:     span,
	}, resultTypes)
	b.frames = append(b.frames, regionFrame{parent: id, region: 0})
	return id, results
}

// ElseRegion switches the builder from the then-region to the else-region.
func (b *Builder) ElseRegion() {
	frame := &b.frames[len(b.frames)-1]
	frame.region = 1
}

// EndIf closes the conditional opened by the matching StartIf.
func (b *Builder) EndIf() {
	if len(b.frames) > 1 {
		b.frames = b.frames[:len(b.frames)-1]
	}
}
