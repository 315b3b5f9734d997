package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tyco/internal/diag"
	"tyco/internal/diagfmt"
	"tyco/internal/driver"
	"tyco/internal/ir"
	"tyco/internal/project"
	"tyco/internal/source"
	"tyco/internal/trace"
	"tyco/internal/types"
)

var (
	inferJobs   int
	inferExport string
	inferNoDump bool
)

func init() {
	inferCmd.Flags().IntVar(&inferJobs, "jobs", 0, "functions analyzed in parallel (0 = from tyco.toml)")
	inferCmd.Flags().StringVar(&inferExport, "export", "", "write the constraint problem to this msgpack file")
	inferCmd.Flags().BoolVar(&inferNoDump, "no-dump", false, "suppress per-function constraint dumps")
}

var inferCmd = &cobra.Command{
	Use:   "infer <file>",
	Short: "Generate type constraints from a textual IR file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		cfg, err := project.LoadFromDir(".")
		if err != nil {
			return err
		}
		maxDiag, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
		if err != nil {
			return err
		}
		if maxDiag <= 0 {
			maxDiag = cfg.Inference.MaxDiagnostics
		}
		jobs := inferJobs
		if jobs <= 0 {
			jobs = cfg.Inference.Jobs
		}

		prettyOpts := diagfmt.PrettyOpts{
			Color:     useColor(cmd),
			Context:   true,
			ShowNotes: true,
		}

		fs := source.NewFileSet()
		fileID, err := fs.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}

		typesIn := types.NewInterner()
		parseBag := diag.NewBag(maxDiag)
		m, parsedOK := ir.ParseModule(fs, fileID, typesIn, diag.NewDedupReporter(diag.NewBagReporter(parseBag)))

		parseBag.Sort()
		diagfmt.Pretty(cmd.ErrOrStderr(), parseBag, fs, prettyOpts)
		if !parsedOK {
			return fmt.Errorf("%s: syntax errors, no constraints generated", args[0])
		}

		results, err := driver.AnalyzeModule(cmd.Context(), m, typesIn, driver.Options{
			Jobs:           jobs,
			MaxDiagnostics: maxDiag,
			Tracer:         trace.FromContext(cmd.Context()),
		})
		if err != nil {
			return err
		}

		failed := 0
		for _, r := range results {
			r.Bag.Sort()
			diagfmt.Pretty(cmd.ErrOrStderr(), r.Bag, fs, prettyOpts)
			if r.Failed {
				failed++
				continue
			}
			if !inferNoDump {
				fmt.Fprintf(cmd.OutOrStdout(), "func @%s\n", r.Func.Name)
				if err := printConstraints(cmd.OutOrStdout(), r, typesIn); err != nil {
					return err
				}
			}
		}

		fmt.Fprintln(cmd.ErrOrStderr(), renderSummary(results, useColor(cmd)))

		if inferExport != "" {
			if err := driver.ExportProblem(inferExport, results, typesIn); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("inference failed for %d of %d functions", failed, len(results))
		}
		return nil
	},
}
