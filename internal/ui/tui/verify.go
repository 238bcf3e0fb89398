package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/imamik/kubelift/internal/verify"
)

// IsInteractive reports whether stdout is a terminal that can host the
// live view.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// RunVerify drives the battery through run while streaming completions into
// the live view. run receives the completion callback and returns the final
// report; it executes on a background goroutine while the view owns the
// terminal.
func RunVerify(ctx context.Context, clusterName string, checks []verify.Check, run func(onResult func(int, verify.CheckResult)) *verify.Report) (*verify.Report, error) {
	p := tea.NewProgram(NewModel(clusterName, checks), tea.WithContext(ctx))

	go func() {
		report := run(func(index int, result verify.CheckResult) {
			p.Send(CheckDoneMsg{Index: index, Result: result})
		})
		p.Send(ReportMsg{Report: report})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("verify view failed: %w", err)
	}

	m := finalModel.(Model)
	if m.Report == nil {
		return nil, fmt.Errorf("verification interrupted")
	}
	return m.Report, nil
}
