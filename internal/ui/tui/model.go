package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/kubelift/internal/verify"
)

// checkRow is one check's display state.
type checkRow struct {
	Name     string
	Category string
	Running  bool
	Result   *verify.CheckResult
}

// Model is the Bubble Tea model for the live verify view.
type Model struct {
	ClusterName string
	Rows        []checkRow
	Report      *verify.Report

	SpinnerFrame int
	StartTime    time.Time
	Quitting     bool
}

// NewModel builds the view for the given battery; every check starts
// pending.
func NewModel(clusterName string, checks []verify.Check) Model {
	rows := make([]checkRow, len(checks))
	for i, c := range checks {
		rows[i] = checkRow{Name: c.Name, Category: c.Category, Running: true}
	}
	return Model{
		ClusterName: clusterName,
		Rows:        rows,
		StartTime:   time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		}

	case CheckDoneMsg:
		if msg.Index >= 0 && msg.Index < len(m.Rows) {
			result := msg.Result
			m.Rows[msg.Index].Running = false
			m.Rows[msg.Index].Result = &result
		}
		return m, nil

	case ReportMsg:
		m.Report = msg.Report
		return m, tea.Quit

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}
