package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yubzen/maestro/internal/mutation"
	"github.com/yubzen/maestro/internal/timeline"
)

var (
	sbBaseStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("235")).Padding(0, 1)
	sbStateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	sbErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	sbRunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	sbInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	sbDimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// StatusBarModel shows the execution state, session policy, and pipeline
// counters at the bottom of the screen.
type StatusBarModel struct {
	State       mutation.State
	AutoApprove bool
	Debug       bool
	Stats       timeline.Stats
	width       int
}

func NewStatusBarModel() *StatusBarModel {
	return &StatusBarModel{State: mutation.StateIdle}
}

func (m *StatusBarModel) Init() tea.Cmd { return nil }

func (m *StatusBarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

func (m *StatusBarModel) View() string {
	stateStyle := sbStateStyle
	switch m.State {
	case mutation.StateError:
		stateStyle = sbErrorStyle
	case mutation.StateExecuting, mutation.StatePendingConfirmation:
		stateStyle = sbRunningStyle
	}
	stateStr := stateStyle.Render(fmt.Sprintf("[%s]", m.State))

	autoStr := sbInfoStyle.Render("[AUTO: off]")
	if m.AutoApprove {
		autoStr = sbRunningStyle.Render("[AUTO: on]")
	}

	eventsStr := sbDimStyle.Render(fmt.Sprintf("[EVENTS: %d/%d]", m.Stats.EventsAccepted, m.Stats.EventsProcessed))
	rendersStr := sbDimStyle.Render(fmt.Sprintf("[RENDERS: %d]", m.Stats.RenderCount))

	s := fmt.Sprintf("%s | %s | %s | %s", stateStr, autoStr, eventsStr, rendersStr)
	if m.Debug {
		s += " | " + sbDimStyle.Render(fmt.Sprintf("[DUP: %d  Q: %d]", m.Stats.DedupHits, m.Stats.QueueDepth))
	}
	return sbBaseStyle.Width(m.width).Render(s)
}
