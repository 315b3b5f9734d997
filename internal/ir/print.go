package ir

import (
	"fmt"
	"io"
	"strings"

	"tyco/internal/types"
)

// DumpModule writes a human-readable representation of the module in the
// textual IR format. The output parses back via ParseModule.
func DumpModule(w io.Writer, m *Module, typesIn *types.Interner) error {
	if w == nil || m == nil {
		return nil
	}
	for i, f := range m.Funcs {
		if f == nil {
			continue
		}
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := DumpFunc(w, f, typesIn); err != nil {
			return err
		}
	}
	return nil
}

// DumpFunc writes one function in the textual IR format.
func DumpFunc(w io.Writer, f *Func, typesIn *types.Interner) error {
	var sb strings.Builder
	sb.WriteString("func @")
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		v := f.Value(p)
		fmt.Fprintf(&sb, "%%%s: %s", v.Name, typesIn.StringOf(v.Type))
	}
	sb.WriteString(") {\n")
	dumpList(&sb, f, f.Body, typesIn, 1)
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func dumpList(sb *strings.Builder, f *Func, list []OpID, typesIn *types.Interner, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, id := range list {
		op := &f.Ops[id]
		sb.WriteString(indent)
		dumpOp(sb, f, op, typesIn, depth)
		sb.WriteByte('\n')
	}
}

func dumpOp(sb *strings.Builder, f *Func, op *Op, typesIn *types.Interner, depth int) {
	for i, r := range op.Results {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%%%s", f.Value(r).Name)
	}
	if len(op.Results) > 0 {
		sb.WriteString(" = ")
	}
	sb.WriteString(op.Mnemonic())

	for i, o := range op.Operands {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(sb, " %%%s", f.Value(o).Name)
	}
	if op.Attr != "" {
		sb.WriteByte(' ')
		sb.WriteString(op.Attr)
	}
	if annot := resultAnnotation(f, op, typesIn); annot != "" {
		sb.WriteString(" : ")
		sb.WriteString(annot)
	}

	if op.Kind == OpIf {
		sb.WriteString(" {")
		for ri, region := range op.Regions {
			if ri > 0 {
				sb.WriteString(" else {")
			}
			sb.WriteByte('\n')
			var inner strings.Builder
			dumpList(&inner, f, region, typesIn, depth+1)
			sb.WriteString(inner.String())
			sb.WriteString(strings.Repeat("  ", depth))
			sb.WriteByte('}')
		}
	}
}

// resultAnnotation renders the ": type" suffix for ops whose result types are
// not implied by the opcode.
func resultAnnotation(f *Func, op *Op, typesIn *types.Interner) string {
	switch op.Kind {
	case OpToBool, OpCompare, OpReturn, OpYield:
		return ""
	}
	if len(op.Results) == 0 {
		return ""
	}
	if len(op.Results) == 1 {
		return typesIn.StringOf(f.Value(op.Results[0]).Type)
	}
	parts := make([]string, 0, len(op.Results))
	for _, r := range op.Results {
		parts = append(parts, typesIn.StringOf(f.Value(r).Type))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
