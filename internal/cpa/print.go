package cpa

import (
	"fmt"
	"io"
	"strings"

	"tyco/internal/ir"
	"tyco/internal/types"
)

// Dump writes the constraint problem in the debug format: a CONSTRAINTS
// section followed by a TYPEVARS section. For inspection only; the format is
// not machine-parsed.
func Dump(w io.Writer, cons *ConstraintSet, vars *TypeVarSet, fn *ir.Func, typesIn *types.Interner) error {
	var sb strings.Builder
	sb.WriteString("CONSTRAINTS:\n")
	sb.WriteString("------------\n")
	for _, c := range cons.Items() {
		fmt.Fprintf(&sb, "  %s <: %s", c.Sub.Format(fn, typesIn), c.Super.Format(fn, typesIn))
		if fn != nil && c.Origin != ir.NoOpID {
			fmt.Fprintf(&sb, "  (%s)", fn.Op(c.Origin).Mnemonic())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("TYPEVARS:\n")
	sb.WriteString("---------\n")
	for _, v := range vars.Items() {
		fmt.Fprintf(&sb, "  %s\n", v.Format(fn, typesIn))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// DumpString renders Dump into a string.
func DumpString(cons *ConstraintSet, vars *TypeVarSet, fn *ir.Func, typesIn *types.Interner) string {
	var sb strings.Builder
	_ = Dump(&sb, cons, vars, fn, typesIn)
	return sb.String()
}
