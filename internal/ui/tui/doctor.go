package tui

import (
	"fmt"
	"strings"

	"github.com/windguard/edgeprov/internal/util/prerequisites"
)

// RenderDoctor renders the tool check as a styled table.
func RenderDoctor(results *prerequisites.CheckResults) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("edgeprov: doctor"))
	if results.HasErrors() {
		b.WriteString(" " + failedStyle.Render("missing required tools"))
	} else {
		b.WriteString(" " + readyStyle.Render("ready"))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("  Tools"))
	b.WriteString("\n")

	for _, r := range results.Results {
		var icon string
		var style styleFunc
		switch {
		case r.Found:
			icon, style = checkMark, sf(readyStyle)
		case r.Tool.Required:
			icon, style = crossMark, sf(failedStyle)
		default:
			icon, style = warnMark, sf(warningStyle)
		}

		detail := r.Version
		if !r.Found {
			detail = fmt.Sprintf("%s (%s)", r.Tool.Description, r.Tool.InstallURL)
		}
		fmt.Fprintf(&b, "    %s %-22s %s\n", style(icon), style(r.Tool.Name), dimStyle.Render(detail))
	}
	return b.String()
}
