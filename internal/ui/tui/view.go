package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)

	if len(m.Steps) > 0 {
		renderSteps(&b, m)
	}

	if len(m.Resources) > 0 {
		renderResources(&b, m)
	}

	if m.Patched {
		renderPatch(&b, m)
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	b.WriteString(titleStyle.Render(fmt.Sprintf("edgeprov: %s", m.Title)))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done:
		status += readyStyle.Render("Done")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + warningStyle.Render("Running")
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderSteps(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Steps"))
	b.WriteString("\n")

	for _, step := range m.Steps {
		icon, style := stepIcon(step, m.SpinnerFrame)
		extra := ""
		switch {
		case step.Err != nil && step.Optional:
			extra = warningStyle.Render("optional: " + step.Err.Error())
		case step.Err != nil:
			extra = failedStyle.Render(step.Err.Error())
		case step.Status != "":
			extra = dimStyle.Render(formatDuration(step.Duration))
		}
		fmt.Fprintf(b, "    %s %-24s %s\n", style(icon), style(step.Name), extra)
	}
}

func renderResources(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Resources"))
	b.WriteString("\n")

	for _, row := range m.Resources {
		icon, style := outcomeIcon(row.State, m.SpinnerFrame)
		detail := fmt.Sprintf("sync=%s health=%s", orUnknown(string(row.Snapshot.Sync)), orUnknown(string(row.Snapshot.Health)))
		if row.Err != nil {
			detail = row.Err.Error()
		}
		fmt.Fprintf(b, "    %s %-32s %-10s %s %s\n",
			style(icon), style(row.Ref.String()), style(string(row.State)),
			dimStyle.Render(fmt.Sprintf("polls=%d", row.Polls)), dimStyle.Render(detail))
	}
}

func renderPatch(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Console plugin"))
	b.WriteString("\n")

	switch {
	case m.PatchErr != nil:
		fmt.Fprintf(b, "    %s %s\n", failedStyle.Render(crossMark), failedStyle.Render(m.PatchErr.Error()))
	case m.Change == patcher.Applied:
		fmt.Fprintf(b, "    %s %s\n", readyStyle.Render(checkMark), readyStyle.Render("enabled"))
	default:
		fmt.Fprintf(b, "    %s %s\n", readyStyle.Render(checkMark), dimStyle.Render("already enabled"))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	footer := fmt.Sprintf("  elapsed: %s", formatDuration(time.Since(m.StartTime)))
	if !m.Done && m.Err == nil {
		footer += "  |  q: quit"
	}
	b.WriteString(footerStyle.Render(footer))
	b.WriteString("\n")
}

// Helper functions

func stepIcon(step StepRow, frame int) (string, styleFunc) {
	switch {
	case step.Active:
		return currentSpinner(frame), sf(activeStyle)
	case step.Status == pipeline.StepSucceeded:
		return checkMark, sf(readyStyle)
	case step.Status == pipeline.StepFailed && step.Optional:
		return warnMark, sf(warningStyle)
	case step.Status == pipeline.StepFailed:
		return crossMark, sf(failedStyle)
	default:
		return pending, sf(dimStyle)
	}
}

func outcomeIcon(state convergence.OutcomeState, frame int) (string, styleFunc) {
	switch state {
	case convergence.Ready:
		return checkMark, sf(readyStyle)
	case convergence.NotFound, convergence.TimedOut:
		return crossMark, sf(failedStyle)
	case convergence.Cancelled:
		return warnMark, sf(warningStyle)
	default:
		return currentSpinner(frame), sf(activeStyle)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
