package verify

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status marks in the plain rendering.
const (
	markPass = "[OK]"
	markWarn = "[??]"
	markFail = "[!!]"
)

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3b82f6"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

// categoryOrder fixes the section order of the human rendering.
var categoryOrder = []string{
	CategoryControlPlane,
	CategoryNodes,
	CategoryNetwork,
	CategoryStorage,
	CategoryAddons,
	CategoryWorkloads,
	CategoryInfrastructure,
}

// Render produces the grouped human-readable report. With verbose set,
// detail lines appear for passing checks too; otherwise only warns and
// fails carry their detail. styled switches lipgloss colors on for TTY
// output.
func Render(report *Report, verbose, styled bool) string {
	var sb strings.Builder

	grouped := make(map[string][]CheckResult)
	for _, res := range report.Results {
		grouped[res.Category] = append(grouped[res.Category], res)
	}

	for _, category := range categoryOrder {
		results := grouped[category]
		if len(results) == 0 {
			continue
		}

		heading := strings.ToUpper(category[:1]) + category[1:]
		if styled {
			heading = sectionStyle.Render(heading)
		}
		sb.WriteString(heading + "\n")

		for _, res := range results {
			sb.WriteString("  " + renderLine(res, verbose, styled) + "\n")
		}
		sb.WriteString("\n")
	}

	summary := report.Summary()
	if styled {
		switch {
		case report.FailCount > 0:
			summary = failStyle.Render(summary)
		case report.WarnCount > 0:
			summary = warnStyle.Render(summary)
		default:
			summary = passStyle.Render(summary)
		}
	}
	sb.WriteString(summary + "\n")

	return sb.String()
}

func renderLine(res CheckResult, verbose, styled bool) string {
	mark := markFor(res.Status)
	if styled {
		mark = styleFor(res.Status).Render(mark)
	}

	line := fmt.Sprintf("%s %s", mark, res.Name)
	if res.Detail != "" && (verbose || res.Status != StatusPass) {
		detail := res.Detail
		if styled {
			detail = detailStyle.Render(detail)
		}
		line += ": " + detail
	}
	return line
}

func markFor(status Status) string {
	switch status {
	case StatusWarn:
		return markWarn
	case StatusFail:
		return markFail
	default:
		return markPass
	}
}

func styleFor(status Status) lipgloss.Style {
	switch status {
	case StatusWarn:
		return warnStyle
	case StatusFail:
		return failStyle
	default:
		return passStyle
	}
}
