package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"tyco/internal/cpa"
	"tyco/internal/types"
)

// BuildProblem flattens successful function results into the export form.
// Failed functions are excluded: their sets are partial and must not reach a
// solver.
func BuildProblem(results []FuncResult, typesIn *types.Interner) *cpa.Problem {
	p := &cpa.Problem{Schema: cpa.ProblemSchemaVersion}
	for _, r := range results {
		if r.Failed {
			continue
		}
		p.Funcs = append(p.Funcs, cpa.BuildFuncProblem(r.Func.Name, r.Cons, r.Vars, r.Func, typesIn))
	}
	return p
}

// ExportProblem writes the constraint problem for the given results to path.
// The write is atomic: a temp file in the target directory, then rename.
func ExportProblem(path string, results []FuncResult, typesIn *types.Interner) error {
	p := BuildProblem(results, typesIn)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "failed to remove temp file: %v\n", err)
		}
	}()

	if err := p.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
