// Package infer walks a function body once and emits a constraint problem:
// a type variable per unresolved value and a directed subtype constraint per
// operation semantics. It does not solve constraints; the emitted sets are
// consumed by an external solver.
package infer

import (
	"errors"
	"fmt"

	"tyco/internal/cpa"
	"tyco/internal/diag"
	"tyco/internal/ir"
	"tyco/internal/trace"
	"tyco/internal/types"
)

// ErrReturnArity marks the only fatal condition of a walk: function-level
// returns with differing operand counts.
var ErrReturnArity = errors.New("different arity of function returns")

// Result carries what a finished (or interrupted) walk exposes for
// downstream passes.
type Result struct {
	// LastReturn is the last function-level return-like op seen, NoOpID if
	// the function has none.
	LastReturn ir.OpID
	// InnerReturns lists return-like ops whose parent is not the function.
	// They contribute no constraints here; a later transformation must route
	// them into their region's yield path.
	InnerReturns []ir.OpID
}

// Generator emits constraints for exactly one function. It owns the
// value-to-term memo exclusively; the constraint and type-variable sets are
// supplied by the caller and only appended to.
//
// After a failed run the sets hold a partial problem. The caller must not
// hand a failed function's sets to a solver; they remain readable for
// debugging only.
type Generator struct {
	fn     *ir.Func
	types  *types.Interner
	ctx    *cpa.Context
	cons   *cpa.ConstraintSet
	vars   *cpa.TypeVarSet
	rep    diag.Reporter
	tracer trace.Tracer

	// terms memoizes value resolution, indexed by ValueID. Dense slice
	// instead of a map: value IDs are already small arena indices.
	terms []*cpa.Term

	firstReturn  ir.OpID
	lastReturn   ir.OpID
	innerReturns []ir.OpID
	fatal        bool
}

// NewGenerator prepares a walk over fn, appending into cons and vars.
func NewGenerator(fn *ir.Func, typesIn *types.Interner, ctx *cpa.Context, cons *cpa.ConstraintSet, vars *cpa.TypeVarSet, reporter diag.Reporter, tracer trace.Tracer) *Generator {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Generator{
		fn:          fn,
		types:       typesIn,
		ctx:         ctx,
		cons:        cons,
		vars:        vars,
		rep:         reporter,
		tracer:      tracer,
		terms:       make([]*cpa.Term, fn.NumValues()),
		firstReturn: ir.NoOpID,
		lastReturn:  ir.NoOpID,
	}
}

// resolveValue maps a value to its type term, allocating a fresh type
// variable on first sight of an unknown-typed value. Idempotent: the same
// value always yields the identical term instance.
func (g *Generator) resolveValue(id ir.ValueID) *cpa.Term {
	if t := g.terms[id]; t != nil {
		return t
	}
	v := g.fn.Value(id)
	var t *cpa.Term
	if g.types.IsUnknown(v.Type) {
		t = g.ctx.NewTypeVar(id)
		g.vars.Add(t)
	} else {
		t = g.ctx.IRValueType(v.Type)
	}
	g.terms[id] = t
	return t
}

// addSubtypeConstraint resolves both values and records that subValue must
// be assignable to superValue, justified by origin.
func (g *Generator) addSubtypeConstraint(superValue, subValue ir.ValueID, origin ir.OpID) {
	superTerm := g.resolveValue(superValue)
	subTerm := g.resolveValue(subValue)
	g.cons.Add(g.ctx.NewConstraint(superTerm, subTerm, origin))
}

// RunOnFunc performs the single pass: entry parameters first, then every
// contained op in program order. It stops at the first fatal condition and
// reports it as an error; non-fatal conditions are diagnosed and skipped.
func (g *Generator) RunOnFunc() (Result, error) {
	if g.fn.Empty() {
		return g.result(), nil
	}

	// Entry parameters must participate in inference even if unused: an
	// external caller contract may constrain them later.
	for _, p := range g.fn.Params {
		g.resolveValue(p)
	}

	g.fn.Walk(func(id ir.OpID, op *ir.Op) bool {
		if g.tracer.Enabled() {
			trace.Point(g.tracer, trace.ScopeOp, "populate", op.Mnemonic())
		}
		return g.dispatch(id, op)
	})

	if g.fatal {
		return g.result(), fmt.Errorf("function %s: %w", g.fn.Name, ErrReturnArity)
	}
	return g.result(), nil
}

func (g *Generator) result() Result {
	return Result{
		LastReturn:   g.lastReturn,
		InnerReturns: g.innerReturns,
	}
}

// dispatch applies exactly one rule per op: specific kinds first, trait
// fallbacks last, and a safe no-op-with-remark default so the walk never
// aborts on an op kind it does not model.
func (g *Generator) dispatch(id ir.OpID, op *ir.Op) bool {
	switch op.Kind {
	case ir.OpSelect:
		// The condition is always bool and not subject to inference. The
		// result participates even though the select itself constrains only
		// its value operands.
		g.addSubtypeConstraint(op.Operands[1], op.Operands[2], id)
		for _, r := range op.Results {
			g.resolveValue(r)
		}
		return true

	case ir.OpToBool:
		// The result is always bool; the operand only needs a term.
		g.resolveValue(op.Operands[0])
		return true

	case ir.OpIf:
		// The condition is always bool. Constraints on the results come
		// from each region's yield, not from the conditional itself.
		for _, r := range op.Results {
			g.resolveValue(r)
		}
		return true

	case ir.OpYield:
		return g.constrainYield(id, op)

	case ir.OpUnknownCast:
		// A result-less cast is malformed; fall through to the remark.
		if len(op.Results) > 0 {
			g.addSubtypeConstraint(op.Operands[0], op.Results[0], id)
			return true
		}

	case ir.OpBinary:
		// TODO: this should apply arithmetic promotion, not strict
		// equality between operands and result.
		if len(op.Results) > 0 {
			g.addSubtypeConstraint(op.Operands[0], op.Operands[1], id)
			g.addSubtypeConstraint(op.Operands[0], op.Results[0], id)
			return true
		}

	case ir.OpCompare:
		// The result is always bool and not subject to inference.
		g.addSubtypeConstraint(op.Operands[0], op.Operands[1], id)
		return true
	}

	// Fallback trait-based rules.
	if op.Traits.Has(ir.TraitConstantLike) && len(op.Results) > 0 {
		g.resolveValue(op.Results[0])
		return true
	}
	if op.Traits.Has(ir.TraitReturnLike) {
		if op.Parent == ir.NoOpID {
			return g.unifyFuncReturn(id, op)
		}
		g.innerReturns = append(g.innerReturns, id)
		return true
	}

	diag.ReportRemark(g.rep, diag.InfUnhandledOp, op.Span, "unhandled op in type inference")
	return true
}

// constrainYield pairs a region terminator's operands against the enclosing
// op's results. An arity mismatch is non-fatal: the yield is diagnosed and
// contributes nothing.
func (g *Generator) constrainYield(id ir.OpID, op *ir.Op) bool {
	var results []ir.ValueID
	if op.Parent != ir.NoOpID {
		results = g.fn.Op(op.Parent).Results
	}
	if len(results) != len(op.Operands) {
		diag.ReportWarning(g.rep, diag.InfYieldArityMismatch, op.Span,
			"cannot run type inference on yield due to arity mismatch")
		return true
	}
	for i, operand := range op.Operands {
		g.addSubtypeConstraint(operand, results[i], id)
	}
	return true
}

// unifyFuncReturn enforces a single return signature per function. The first
// return seen becomes the reference; later returns of equal arity constrain
// positionally against it, a differing arity interrupts the walk.
func (g *Generator) unifyFuncReturn(id ir.OpID, op *ir.Op) bool {
	if g.firstReturn != ir.NoOpID {
		first := g.fn.Op(g.firstReturn)
		if len(first.Operands) != len(op.Operands) {
			diag.ReportError(g.rep, diag.InfReturnArityMismatch, op.Span,
				"different arity of function returns")
			g.fatal = true
			return false
		}
		for i := range op.Operands {
			g.addSubtypeConstraint(op.Operands[i], first.Operands[i], id)
		}
	} else {
		g.firstReturn = id
	}
	g.lastReturn = id
	return true
}
