package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tyco/internal/diag"
	"tyco/internal/diagfmt"
	"tyco/internal/ir"
	"tyco/internal/source"
	"tyco/internal/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a textual IR file and print its canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		maxDiag, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
		if err != nil {
			return err
		}
		if maxDiag <= 0 {
			maxDiag = 100
		}

		fs := source.NewFileSet()
		fileID, err := fs.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}

		typesIn := types.NewInterner()
		bag := diag.NewBag(maxDiag)
		m, ok := ir.ParseModule(fs, fileID, typesIn, diag.NewDedupReporter(diag.NewBagReporter(bag)))

		bag.Sort()
		diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{
			Color:     useColor(cmd),
			Context:   true,
			ShowNotes: true,
		})
		if !ok {
			return fmt.Errorf("%s: syntax errors", args[0])
		}

		return ir.DumpModule(cmd.OutOrStdout(), m, typesIn)
	},
}
