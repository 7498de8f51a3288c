package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/sandrolain/gordl/pkg/diag"
)

var (
	styleFile = lipgloss.NewStyle().Bold(true)

	styleOK = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	styleInfo = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	styleWarn = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleErr = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	styleDetail = lipgloss.NewStyle().PaddingLeft(2)
)

func severityStyle(s diag.Severity) lipgloss.Style {
	switch {
	case s >= diag.Degraded:
		return styleErr
	case s >= diag.Recoverable:
		return styleWarn
	default:
		return styleInfo
	}
}

// printResult writes the human readable report of one checked file.
func printResult(w io.Writer, res fileResult) {
	var status string
	switch {
	case res.Error != "":
		status = styleErr.Render("unreadable")
	case res.Rejected:
		status = styleErr.Render(fmt.Sprintf("rejected (max severity %d)", res.MaxSeverity))
	case res.Count == 0:
		status = styleOK.Render("ok")
	default:
		status = severityStyle(res.MaxSeverity).Render(fmt.Sprintf("%d diagnostics (max severity %d)", res.Count, res.MaxSeverity))
	}
	fmt.Fprintf(w, "%s: %s\n", styleFile.Render(res.File), status)

	if res.Error != "" {
		fmt.Fprintln(w, styleDetail.Render(styleErr.Render(res.Error)))
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintln(w, styleDetail.Render(severityStyle(d.Severity).Render(d.Severity.String())+" "+d.String()))
	}
}
