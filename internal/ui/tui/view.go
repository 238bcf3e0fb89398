package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/imamik/kubelift/internal/verify"
)

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Verifying cluster "+m.ClusterName) + "\n")

	lastCategory := ""
	for _, row := range m.Rows {
		if row.Category != lastCategory {
			heading := strings.ToUpper(row.Category[:1]) + row.Category[1:]
			sb.WriteString(sectionStyle.Render(heading) + "\n")
			lastCategory = row.Category
		}
		sb.WriteString("  " + m.renderRow(row) + "\n")
	}

	sb.WriteString(footerStyle.Render(m.footer()) + "\n")
	return sb.String()
}

func (m Model) renderRow(row checkRow) string {
	if row.Running {
		frame := spinnerFrames[m.SpinnerFrame%len(spinnerFrames)]
		return dimStyle.Render(frame) + " " + row.Name
	}

	result := row.Result
	line := mark(result.Status) + " " + row.Name
	if result.Detail != "" && result.Status != verify.StatusPass {
		line += dimStyle.Render(": " + result.Detail)
	}
	return line
}

func (m Model) footer() string {
	if m.Report != nil {
		return m.Report.Summary()
	}

	done := 0
	for _, row := range m.Rows {
		if !row.Running {
			done++
		}
	}
	elapsed := time.Since(m.StartTime).Round(time.Second)
	return fmt.Sprintf("%d/%d checks complete (%s) · q to quit", done, len(m.Rows), elapsed)
}

func mark(status verify.Status) string {
	switch status {
	case verify.StatusFail:
		return failStyle.Render(failMark)
	case verify.StatusWarn:
		return warnStyle.Render(warnMark)
	case verify.StatusPass:
		return passStyle.Render(passMark)
	default:
		return pendingMark
	}
}
