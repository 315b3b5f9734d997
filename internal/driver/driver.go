// Package driver orchestrates constraint generation over a whole module:
// one generator per function, optionally in parallel, with per-function
// diagnostic isolation.
package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"tyco/internal/cpa"
	"tyco/internal/diag"
	"tyco/internal/infer"
	"tyco/internal/ir"
	"tyco/internal/trace"
	"tyco/internal/types"
)

// DefaultMaxDiagnostics bounds per-function diagnostic bags when the caller
// does not say otherwise.
const DefaultMaxDiagnostics = 100

// Options configures a module analysis run.
type Options struct {
	// Jobs is the number of functions analyzed concurrently.
	// Values <= 1 run serially.
	Jobs int
	// MaxDiagnostics caps each function's diagnostic bag.
	MaxDiagnostics int
	// Tracer receives phase and per-op events. Nil means no tracing.
	Tracer trace.Tracer
}

// FuncResult is the outcome of analyzing one function. Each function owns
// its constraint set, type-variable set and diagnostic bag; nothing is
// shared across functions.
type FuncResult struct {
	Func   *ir.Func
	Cons   *cpa.ConstraintSet
	Vars   *cpa.TypeVarSet
	Bag    *diag.Bag
	Result infer.Result

	// Failed marks a function whose walk was interrupted. Its sets hold a
	// partial problem: readable for debugging, unusable for solving.
	Failed bool
}

// AnalyzeModule runs constraint generation for every function in the module.
// Results are returned in module function order regardless of scheduling.
// The returned error reflects context cancellation only; per-function
// failures are reported through FuncResult.Failed and the bags.
func AnalyzeModule(ctx context.Context, mod *ir.Module, typesIn *types.Interner, opts Options) ([]FuncResult, error) {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = DefaultMaxDiagnostics
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}

	trace.Point(tracer, trace.ScopeDriver, "analyze", fmt.Sprintf("%d functions", len(mod.Funcs)))

	results := make([]FuncResult, len(mod.Funcs))

	if opts.Jobs <= 1 {
		for i, fn := range mod.Funcs {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			default:
			}
			results[i] = analyzeFunc(fn, typesIn, opts.MaxDiagnostics, tracer)
		}
		return results, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(mod.Funcs), 1)))

	for i, fn := range mod.Funcs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// Index i is unique per goroutine, no mutex needed.
			results[i] = analyzeFunc(fn, typesIn, opts.MaxDiagnostics, tracer)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// analyzeFunc builds a fresh context, sets and bag for one function and runs
// the generator over it.
func analyzeFunc(fn *ir.Func, typesIn *types.Interner, maxDiagnostics int, tracer trace.Tracer) FuncResult {
	trace.Point(tracer, trace.ScopeFunc, "infer", fn.Name)

	bag := diag.NewBag(maxDiagnostics)
	reporter := diag.NewDedupReporter(&diag.BagReporter{Bag: bag})

	ctx := cpa.NewContext()
	cons := &cpa.ConstraintSet{}
	vars := &cpa.TypeVarSet{}

	gen := infer.NewGenerator(fn, typesIn, ctx, cons, vars, reporter, tracer)
	res, err := gen.RunOnFunc()

	if tracer.Level() >= trace.LevelDetail {
		trace.Point(tracer, trace.ScopeDump, "constraints", cpa.DumpString(cons, vars, fn, typesIn))
	}

	return FuncResult{
		Func:   fn,
		Cons:   cons,
		Vars:   vars,
		Bag:    bag,
		Result: res,
		Failed: err != nil,
	}
}
