package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("75")).
			Background(lipgloss.Color("235")).
			Padding(1, 2)
	confirmTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	confirmRiskStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	confirmHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	confirmBodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// ConfirmAction is the outcome of one modal interaction.
type ConfirmAction struct {
	DecisionMade bool
	Approved     bool
}

// ConfirmModal shows the pending mutation plan and collects an
// approve/reject decision before any item executes.
type ConfirmModal struct {
	Visible       bool
	Prompt        string
	HighRiskCount int
	width         int
	height        int
	viewport      viewport.Model
	body          string
}

func NewConfirmModal() *ConfirmModal {
	vp := viewport.New(70, 14)
	return &ConfirmModal{viewport: vp}
}

func (m *ConfirmModal) SetSize(width, height int) {
	if m == nil || width <= 0 || height <= 0 {
		return
	}
	m.width = width
	m.height = height

	bodyWidth := width - 12
	if bodyWidth < 36 {
		bodyWidth = 36
	}
	bodyHeight := height - 10
	if bodyHeight < 8 {
		bodyHeight = 8
	}
	m.viewport.Width = bodyWidth
	m.viewport.Height = bodyHeight
	m.refresh()
}

// Open shows the modal with the plan summary and the runner's prompt line.
func (m *ConfirmModal) Open(prompt, planSummary string, highRisk int) {
	if m == nil {
		return
	}
	m.Visible = true
	m.Prompt = strings.TrimSpace(prompt)
	m.HighRiskCount = highRisk
	m.body = strings.TrimSpace(planSummary)
	m.viewport.GotoTop()
	m.refresh()
}

func (m *ConfirmModal) Close() {
	if m == nil {
		return
	}
	m.Visible = false
	m.Prompt = ""
	m.HighRiskCount = 0
	m.body = ""
	m.viewport.SetContent("")
}

func (m *ConfirmModal) Update(msg tea.Msg) (ConfirmAction, tea.Cmd) {
	if m == nil || !m.Visible {
		return ConfirmAction{}, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter", "y":
			return ConfirmAction{DecisionMade: true, Approved: true}, nil
		case "esc", "n":
			return ConfirmAction{DecisionMade: true, Approved: false}, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return ConfirmAction{}, cmd
}

func (m *ConfirmModal) View() string {
	if m == nil || !m.Visible {
		return ""
	}

	title := confirmTitleStyle.Render("Review Changes")
	if m.HighRiskCount > 0 {
		title += "  " + confirmRiskStyle.Render(fmt.Sprintf("⚠ %d high-risk", m.HighRiskCount))
	}
	prompt := confirmBodyStyle.Render(m.Prompt)
	body := confirmBodyStyle.Render(m.viewport.View())
	hint := confirmHintStyle.Render("enter/y: apply  esc/n: cancel  up/down: scroll")
	return confirmBoxStyle.Render(fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s", title, prompt, body, hint))
}

func (m *ConfirmModal) refresh() {
	if m == nil {
		return
	}
	width := m.viewport.Width
	if width <= 0 {
		width = 70
	}
	content := m.body
	if content == "" {
		content = "No plan details available."
	}
	m.viewport.SetContent(wrapToWidth(content, width))
}
