package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"tyco/internal/cpa"
	"tyco/internal/driver"
	"tyco/internal/types"
)

var (
	summaryOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	summaryFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	summaryDimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderSummary produces the one-line run summary shown after analysis.
func renderSummary(results []driver.FuncResult, colored bool) string {
	funcs := len(results)
	failed := 0
	constraints := 0
	vars := 0
	for _, r := range results {
		if r.Failed {
			failed++
			continue
		}
		constraints += r.Cons.Len()
		vars += r.Vars.Len()
	}

	counts := fmt.Sprintf("%d functions, %d constraints, %d type variables", funcs, constraints, vars)
	status := "ok"
	if failed > 0 {
		status = fmt.Sprintf("%d failed", failed)
	}

	if !colored {
		return counts + " (" + status + ")"
	}
	styled := summaryOKStyle.Render(status)
	if failed > 0 {
		styled = summaryFailStyle.Render(status)
	}
	return counts + " " + summaryDimStyle.Render("(") + styled + summaryDimStyle.Render(")")
}

// printConstraints dumps one function's constraint problem.
func printConstraints(w io.Writer, r driver.FuncResult, typesIn *types.Interner) error {
	return cpa.Dump(w, r.Cons, r.Vars, r.Func, typesIn)
}
