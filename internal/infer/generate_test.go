package infer

import (
	"errors"
	"testing"

	"tyco/internal/cpa"
	"tyco/internal/diag"
	"tyco/internal/ir"
	"tyco/internal/source"
	"tyco/internal/types"
)

func runOn(t *testing.T, fn *ir.Func, in *types.Interner) (*cpa.ConstraintSet, *cpa.TypeVarSet, *diag.Bag, Result, error) {
	t.Helper()
	var cons cpa.ConstraintSet
	var vars cpa.TypeVarSet
	bag := diag.NewBag(32)
	g := NewGenerator(fn, in, cpa.NewContext(), &cons, &vars, diag.NewBagReporter(bag), nil)
	res, err := g.RunOnFunc()
	return &cons, &vars, bag, res, err
}

func varFor(t *testing.T, vars *cpa.TypeVarSet, value ir.ValueID) *cpa.Term {
	t.Helper()
	for _, v := range vars.Items() {
		if v.Value == value {
			return v
		}
	}
	t.Fatalf("no type variable allocated for value %d", value)
	return nil
}

func TestResolveIsIdempotent(t *testing.T) {
	in := types.NewInterner()
	b := ir.NewBuilder("f")
	x := b.AddParam("x", in.Builtins().Unknown)
	fn := b.Func()

	var cons cpa.ConstraintSet
	var vars cpa.TypeVarSet
	g := NewGenerator(fn, in, cpa.NewContext(), &cons, &vars, nil, nil)

	first := g.resolveValue(x)
	second := g.resolveValue(x)
	if first != second {
		t.Fatalf("repeated resolution must return the identical term instance")
	}
	if vars.Len() != 1 {
		t.Fatalf("expected exactly 1 variable, got %d", vars.Len())
	}
}

func TestConcreteValuesNeverGetVariables(t *testing.T) {
	in := types.NewInterner()
	b := ir.NewBuilder("f")
	x := b.AddParam("x", in.Builtins().Int)
	fn := b.Func()

	var cons cpa.ConstraintSet
	var vars cpa.TypeVarSet
	g := NewGenerator(fn, in, cpa.NewContext(), &cons, &vars, nil, nil)

	term := g.resolveValue(x)
	if term.IsVar() {
		t.Fatalf("concrete-typed value must resolve to a concrete term")
	}
	if vars.Len() != 0 {
		t.Fatalf("no variables expected, got %d", vars.Len())
	}
	if term != g.resolveValue(x) {
		t.Fatalf("concrete terms must be memoized too")
	}
}

func TestSelectScenario(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("select_xy")
	x := b.AddParam("x", bt.Unknown)
	y := b.AddParam("y", bt.Unknown)
	cond := b.ToBool(x, bt.Bool, source.Span{})
	c := b.Select(cond, x, y, bt.Unknown, source.Span{})
	b.Return([]ir.ValueID{c}, source.Span{})
	fn := b.Func()

	cons, vars, bag, res, err := runOn(t, fn, in)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if vars.Len() != 3 {
		t.Fatalf("expected 3 type variables (x, y, select result), got %d", vars.Len())
	}
	if cons.Len() != 1 {
		t.Fatalf("expected exactly 1 constraint, got %d", cons.Len())
	}
	c0 := cons.Items()[0]
	if c0.Super != varFor(t, vars, x) || c0.Sub != varFor(t, vars, y) {
		t.Fatalf("select constraint must be x as super, y as sub")
	}
	if fn.Op(c0.Origin).Kind != ir.OpSelect {
		t.Fatalf("constraint origin must be the select op")
	}
	if res.LastReturn == ir.NoOpID {
		t.Fatalf("last return must be recorded")
	}
	if bag.Len() != 0 {
		t.Fatalf("no diagnostics expected, got %+v", bag.Items())
	}
}

func TestConditionalYieldScenario(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("cond")
	p := b.AddParam("p", bt.Unknown)
	cond := b.ToBool(p, bt.Bool, source.Span{})
	_, results := b.StartIf(cond, []types.TypeID{bt.Unknown}, source.Span{})
	b.Yield([]ir.ValueID{p}, source.Span{})
	b.ElseRegion()
	k := b.Const("1", bt.Int, source.Span{})
	b.Yield([]ir.ValueID{k}, source.Span{})
	b.EndIf()
	b.Return([]ir.ValueID{results[0]}, source.Span{})
	fn := b.Func()

	cons, vars, bag, _, err := runOn(t, fn, in)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if vars.Len() != 2 {
		t.Fatalf("expected 2 variables (p, if result), got %d", vars.Len())
	}
	if cons.Len() != 2 {
		t.Fatalf("expected 2 constraints (one per yield), got %d", cons.Len())
	}
	resultVar := varFor(t, vars, results[0])
	first, second := cons.Items()[0], cons.Items()[1]
	if first.Sub != resultVar || second.Sub != resultVar {
		t.Fatalf("both yields must constrain the conditional's result as sub")
	}
	if first.Super != varFor(t, vars, p) {
		t.Fatalf("then-yield super must be p's variable")
	}
	if second.Super.IsVar() || second.Super.Type != bt.Int {
		t.Fatalf("else-yield super must be the constant's concrete int term")
	}
	if bag.Len() != 0 {
		t.Fatalf("no diagnostics expected, got %+v", bag.Items())
	}
}

func TestReturnUnification(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("multi")
	x := b.AddParam("x", bt.Unknown)
	y := b.AddParam("y", bt.Unknown)
	b.Return([]ir.ValueID{x, y}, source.Span{})
	b.Return([]ir.ValueID{y, x}, source.Span{})
	b.Return([]ir.ValueID{x, x}, source.Span{})
	fn := b.Func()

	cons, vars, _, res, err := runOn(t, fn, in)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	// (N-1) * arity = 2 * 2 return-induced constraints.
	if cons.Len() != 4 {
		t.Fatalf("expected 4 constraints, got %d", cons.Len())
	}
	xv, yv := varFor(t, vars, x), varFor(t, vars, y)
	// Second return against the first: (y <- x), (x <- y) positionally,
	// later operand as super, first's operand as sub.
	if cons.Items()[0].Super != yv || cons.Items()[0].Sub != xv {
		t.Fatalf("return constraint 0 must pair later operand 0 (super) with first operand 0 (sub)")
	}
	if cons.Items()[1].Super != xv || cons.Items()[1].Sub != yv {
		t.Fatalf("return constraint 1 must pair later operand 1 (super) with first operand 1 (sub)")
	}
	// Third return also unifies against the first, not the second.
	if cons.Items()[2].Super != xv || cons.Items()[2].Sub != xv {
		t.Fatalf("return constraint 2 must pair against the first return")
	}
	if res.LastReturn != fn.Body[2] {
		t.Fatalf("last return must be the final return op")
	}
}

func TestReturnArityMismatchIsFatal(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("broken")
	x := b.AddParam("x", bt.Unknown)
	y := b.AddParam("y", bt.Unknown)
	cond := b.ToBool(x, bt.Bool, source.Span{})
	b.Return([]ir.ValueID{x}, source.Span{})
	b.Return([]ir.ValueID{x, y}, source.Span{})
	// Program order continues past the mismatch; none of this may be visited.
	b.Select(cond, x, y, bt.Unknown, source.Span{})
	fn := b.Func()

	cons, _, bag, _, err := runOn(t, fn, in)
	if !errors.Is(err, ErrReturnArity) {
		t.Fatalf("expected ErrReturnArity, got %v", err)
	}
	if !bag.HasErrors() {
		t.Fatalf("expected an error diagnostic")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.InfReturnArityMismatch && d.Severity == diag.SevError {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected InfReturnArityMismatch, got %+v", bag.Items())
	}
	// The select after the fatal return was never visited.
	if cons.Len() != 0 {
		t.Fatalf("no constraints expected past the interrupt, got %d", cons.Len())
	}
}

func TestFatalKeepsEmittedConstraints(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("partial")
	x := b.AddParam("x", bt.Unknown)
	y := b.AddParam("y", bt.Unknown)
	cond := b.ToBool(x, bt.Bool, source.Span{})
	b.Select(cond, x, y, bt.Unknown, source.Span{})
	b.Return([]ir.ValueID{x}, source.Span{})
	b.Return([]ir.ValueID{x, y}, source.Span{})
	fn := b.Func()

	cons, _, _, _, err := runOn(t, fn, in)
	if !errors.Is(err, ErrReturnArity) {
		t.Fatalf("expected ErrReturnArity, got %v", err)
	}
	// The select constraint emitted before the interrupt is not rolled back.
	if cons.Len() != 1 {
		t.Fatalf("expected the pre-fatal constraint to remain, got %d", cons.Len())
	}
}

func TestYieldArityMismatchIsNonFatal(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("lopsided")
	p := b.AddParam("p", bt.Unknown)
	cond := b.ToBool(p, bt.Bool, source.Span{})
	_, results := b.StartIf(cond, []types.TypeID{bt.Unknown}, source.Span{})
	b.Yield([]ir.ValueID{p, p}, source.Span{}) // arity 2 against 1 result
	b.ElseRegion()
	b.Yield([]ir.ValueID{p}, source.Span{})
	b.EndIf()
	b.Return([]ir.ValueID{results[0]}, source.Span{})
	fn := b.Func()

	cons, _, bag, _, err := runOn(t, fn, in)
	if err != nil {
		t.Fatalf("yield arity mismatch must not fail the walk: %v", err)
	}
	warnings := 0
	for _, d := range bag.Items() {
		if d.Code == diag.InfYieldArityMismatch {
			warnings++
		}
	}
	if warnings != 1 {
		t.Fatalf("expected exactly 1 yield diagnostic, got %d", warnings)
	}
	// Only the well-formed yield contributes.
	if cons.Len() != 1 {
		t.Fatalf("expected 1 constraint from the matching yield, got %d", cons.Len())
	}
}

func TestEmptyFunction(t *testing.T) {
	in := types.NewInterner()
	b := ir.NewBuilder("empty")
	b.AddParam("x", in.Builtins().Unknown)
	fn := b.Func()

	cons, vars, bag, res, err := runOn(t, fn, in)
	if err != nil {
		t.Fatalf("empty function must succeed: %v", err)
	}
	if cons.Len() != 0 || vars.Len() != 0 || bag.Len() != 0 {
		t.Fatalf("empty function must produce empty sets")
	}
	if res.LastReturn != ir.NoOpID {
		t.Fatalf("no return expected")
	}
}

func TestUnhandledOpIsRemarkedAndSkipped(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("exotic")
	x := b.AddParam("x", bt.Int)
	v := b.UnknownCast(x, bt.Unknown, source.Span{})
	b.Generic("py.call", 0, []ir.ValueID{v}, []types.TypeID{bt.Unknown}, source.Span{})
	fn := b.Func()

	cons, vars, bag, _, err := runOn(t, fn, in)
	if err != nil {
		t.Fatalf("unhandled op must not fail the walk: %v", err)
	}
	remarks := 0
	for _, d := range bag.Items() {
		if d.Code == diag.InfUnhandledOp && d.Severity == diag.SevRemark {
			remarks++
		}
	}
	if remarks != 1 {
		t.Fatalf("expected 1 unhandled-op remark, got %d", remarks)
	}
	// The generic op resolves nothing: only the cast touched values, so the
	// only variable is the cast's operand-side allocation.
	if cons.Len() != 1 {
		t.Fatalf("expected only the cast constraint, got %d", cons.Len())
	}
	for _, tv := range vars.Items() {
		if tv.Value == fn.Op(fn.Body[1]).Results[0] {
			t.Fatalf("unhandled op results must not be resolved")
		}
	}
}

func TestCastBinaryCompareRules(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("ops")
	x := b.AddParam("x", bt.Unknown)
	y := b.AddParam("y", bt.Unknown)
	cast := b.UnknownCast(x, bt.Int, source.Span{})
	sum := b.Binary("add", x, y, bt.Unknown, source.Span{})
	b.Compare("cmp.lt", x, y, bt.Bool, source.Span{})
	fn := b.Func()

	cons, vars, _, _, err := runOn(t, fn, in)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if cons.Len() != 4 {
		t.Fatalf("expected 4 constraints (1 cast + 2 binary + 1 compare), got %d", cons.Len())
	}
	xv, yv := varFor(t, vars, x), varFor(t, vars, y)

	castC := cons.Items()[0]
	if castC.Super != xv || castC.Sub.IsVar() || castC.Sub.Type != fn.Value(cast).Type {
		t.Fatalf("cast must constrain operand as super of its concrete result")
	}
	if cons.Items()[1].Super != xv || cons.Items()[1].Sub != yv {
		t.Fatalf("binary must constrain left as super of right")
	}
	if cons.Items()[2].Super != xv || cons.Items()[2].Sub != varFor(t, vars, sum) {
		t.Fatalf("binary must constrain left as super of its result")
	}
	if cons.Items()[3].Super != xv || cons.Items()[3].Sub != yv {
		t.Fatalf("compare must constrain left as super of right only")
	}
}

func TestResultlessCastAndBinaryAreRemarked(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("malformed")
	x := b.AddParam("x", bt.Unknown)
	// Neither op binds a result; the rule table has nothing to constrain and
	// must degrade to the unhandled remark instead of panicking.
	b.Op(ir.OpBinary, "add", 0, []ir.ValueID{x, x}, nil, source.Span{})
	b.Op(ir.OpUnknownCast, "", 0, []ir.ValueID{x}, nil, source.Span{})
	fn := b.Func()

	cons, _, bag, _, err := runOn(t, fn, in)
	if err != nil {
		t.Fatalf("malformed ops must not fail the walk: %v", err)
	}
	if cons.Len() != 0 {
		t.Fatalf("expected no constraints, got %d", cons.Len())
	}
	remarks := 0
	for _, d := range bag.Items() {
		if d.Code == diag.InfUnhandledOp && d.Severity == diag.SevRemark {
			remarks++
		}
	}
	if remarks != 2 {
		t.Fatalf("expected 2 unhandled-op remarks, got %d", remarks)
	}
}

func TestConstantFallbackResolvesResult(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("consts")
	b.Const("42", bt.Int, source.Span{})
	// A constant-like generic op with an unknown result still gets a term.
	b.Generic("py.none", ir.TraitConstantLike, nil, []types.TypeID{bt.Unknown}, source.Span{})
	fn := b.Func()

	cons, vars, bag, _, err := runOn(t, fn, in)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if cons.Len() != 0 {
		t.Fatalf("constants contribute no constraints, got %d", cons.Len())
	}
	if vars.Len() != 1 {
		t.Fatalf("expected 1 variable for the unknown constant-like result, got %d", vars.Len())
	}
	if bag.Len() != 0 {
		t.Fatalf("constant-like ops must not be remarked, got %+v", bag.Items())
	}
}

func TestInnerReturnsAreCollectedNotConstrained(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	b := ir.NewBuilder("early")
	p := b.AddParam("p", bt.Unknown)
	cond := b.ToBool(p, bt.Bool, source.Span{})
	b.StartIf(cond, nil, source.Span{})
	b.Return([]ir.ValueID{p}, source.Span{}) // early exit inside the region
	b.ElseRegion()
	b.Yield(nil, source.Span{})
	b.EndIf()
	b.Return([]ir.ValueID{p}, source.Span{})
	fn := b.Func()

	cons, _, bag, res, err := runOn(t, fn, in)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(res.InnerReturns) != 1 {
		t.Fatalf("expected 1 inner return, got %d", len(res.InnerReturns))
	}
	if fn.Op(res.InnerReturns[0]).Parent == ir.NoOpID {
		t.Fatalf("inner return must be region-nested")
	}
	if res.LastReturn == ir.NoOpID || fn.Op(res.LastReturn).Parent != ir.NoOpID {
		t.Fatalf("last return must be the function-level return")
	}
	// The inner return is deferred, the function-level return is the first of
	// its kind: no constraints from either. The empty yield pairs nothing.
	if cons.Len() != 0 {
		t.Fatalf("expected no constraints, got %d", cons.Len())
	}
	if bag.Len() != 0 {
		t.Fatalf("no diagnostics expected, got %+v", bag.Items())
	}
}
