package handlers

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/windguard/edgeprov/internal/pipeline"
	"github.com/windguard/edgeprov/internal/ui/tui"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308"))
)

// printBanner prints a title and the key settings of a run.
func printBanner(title string, rows [][2]string) {
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, bannerStyle.Render("=== "+title+" ==="))
	for _, row := range rows {
		fmt.Fprintf(stdout, "%s %s\n", labelStyle.Render(row[0]+":"), row[1])
	}
	fmt.Fprintln(stdout)
}

func printSummary(s *session, result pipeline.Result, err error) {
	fmt.Fprint(stdout, tui.RenderSummary(tui.Summary{
		Title:   s.command,
		Started: s.started,
		Steps:   result.Records,
		Err:     err,
	}))
}
