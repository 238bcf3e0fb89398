package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/kubelift/internal/verify"
)

func testChecks() []verify.Check {
	return []verify.Check{
		{Name: "kube-api", Category: verify.CategoryControlPlane},
		{Name: "nodes-ready", Category: verify.CategoryNodes},
		{Name: "cni", Category: verify.CategoryNetwork},
	}
}

func TestNewModel_AllChecksPending(t *testing.T) {
	t.Parallel()

	m := NewModel("test", testChecks())
	require.Len(t, m.Rows, 3)
	for _, row := range m.Rows {
		assert.True(t, row.Running)
		assert.Nil(t, row.Result)
	}
}

func TestUpdate_CheckDone(t *testing.T) {
	t.Parallel()

	m := NewModel("test", testChecks())
	updated, _ := m.Update(CheckDoneMsg{
		Index:  1,
		Result: verify.CheckResult{Name: "nodes-ready", Status: verify.StatusWarn, Detail: "2/3 ready"},
	})

	got := updated.(Model)
	assert.False(t, got.Rows[1].Running)
	require.NotNil(t, got.Rows[1].Result)
	assert.Equal(t, verify.StatusWarn, got.Rows[1].Result.Status)
	assert.True(t, got.Rows[0].Running)
}

func TestUpdate_ReportQuits(t *testing.T) {
	t.Parallel()

	m := NewModel("test", testChecks())
	report := &verify.Report{Cluster: "test"}
	updated, cmd := m.Update(ReportMsg{Report: report})

	got := updated.(Model)
	assert.Equal(t, report, got.Report)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestUpdate_QuitKey(t *testing.T) {
	t.Parallel()

	m := NewModel("test", testChecks())
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	assert.True(t, updated.(Model).Quitting)
	require.NotNil(t, cmd)
}

func TestView_RendersSectionsAndMarks(t *testing.T) {
	t.Parallel()

	m := NewModel("test", testChecks())
	m.Rows[0].Running = false
	m.Rows[0].Result = &verify.CheckResult{Name: "kube-api", Status: verify.StatusPass}
	m.Rows[2].Running = false
	m.Rows[2].Result = &verify.CheckResult{Name: "cni", Status: verify.StatusFail, Detail: "not found"}

	out := m.View()
	assert.Contains(t, out, "Verifying cluster test")
	assert.Contains(t, out, "Control-plane")
	assert.Contains(t, out, "kube-api")
	assert.Contains(t, out, "not found")
	assert.Contains(t, out, "2/3 checks complete")
}
