package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yubzen/maestro/internal/config"
	"github.com/yubzen/maestro/internal/log"
	"github.com/yubzen/maestro/internal/mutation"
	"github.com/yubzen/maestro/internal/timeline"
)

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, true, false).BorderForeground(lipgloss.Color("238"))
	promptIndicator = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
)

// StateChangedMsg reflects a mutation state machine transition into the UI.
type StateChangedMsg struct {
	State mutation.State
}

// SessionPolicyMsg applies a hot-reloaded session policy.
type SessionPolicyMsg struct {
	AutoApprove bool
	Debug       bool
}

// AppModel is the root Bubble Tea model: a transcript viewport fed by the
// render pipeline, an input line, the status bar, and the plan confirmation
// modal.
type AppModel struct {
	cfg       *config.Config
	pipeline  *timeline.Pipeline
	states    *mutation.StateManager
	confirmer *ModalConfirmer
	surface   *ProgramSurface
	statusbar *StatusBarModel
	confirm   *ConfirmModal
	viewport  viewport.Model
	textInput textinput.Model
	onSubmit  func(string)
	width     int
	height    int
}

type AppOption func(*AppModel)

// WithSubmitHandler routes submitted input lines to the caller, typically
// the agent loop. The handler runs on the UI goroutine and must not block.
func WithSubmitHandler(fn func(string)) AppOption {
	return func(m *AppModel) { m.onSubmit = fn }
}

func NewAppModel(cfg *config.Config, pipeline *timeline.Pipeline, states *mutation.StateManager, confirmer *ModalConfirmer, surface *ProgramSurface, opts ...AppOption) *AppModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 1000
	ti.Width = 50

	vp := viewport.New(0, 0)

	sb := NewStatusBarModel()
	if cfg != nil {
		sb.AutoApprove = cfg.Session.AutoApprove
		sb.Debug = cfg.Session.Debug
	}
	if states != nil {
		sb.State = states.State()
	}

	m := &AppModel{
		cfg:       cfg,
		pipeline:  pipeline,
		states:    states,
		confirmer: confirmer,
		surface:   surface,
		statusbar: sb,
		confirm:   NewConfirmModal(),
		viewport:  vp,
		textInput: ti,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *AppModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case TranscriptMsg:
		m.viewport.SetContent(msg.Content)
		m.viewport.GotoBottom()
		m.refreshStats()
		return m, nil

	case StateChangedMsg:
		m.statusbar.State = msg.State
		m.refreshStats()
		return m, nil

	case SessionPolicyMsg:
		m.statusbar.AutoApprove = msg.AutoApprove
		m.statusbar.Debug = msg.Debug
		if m.states != nil {
			m.states.SetAutoApprove(msg.AutoApprove)
		}
		if m.pipeline != nil {
			m.pipeline.SetDebug(msg.Debug)
		}
		return m, nil

	case ConfirmRequestMsg:
		m.openConfirm(msg)
		return m, nil

	case tea.KeyMsg:
		if m.confirm.Visible {
			action, cmd := m.confirm.Update(msg)
			if action.DecisionMade {
				m.confirm.Close()
				choice := mutation.OptionCancel
				if action.Approved {
					choice = mutation.OptionApply
				}
				if m.confirmer != nil {
					m.confirmer.Resolve(choice)
				}
			}
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			return m, m.submitInput()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *AppModel) View() string {
	if m.confirm.Visible {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	}

	transcript := transcriptStyle.Width(m.width).Render(m.viewport.View())
	input := promptIndicator.Render("> ") + m.textInput.View()
	return transcript + "\n" + input + "\n" + m.statusbar.View()
}

func (m *AppModel) setSize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h - 3
	m.textInput.Width = w - 4
	m.statusbar.SetWidth(w)
	m.confirm.SetSize(w, h)
	if m.surface != nil {
		m.surface.SetWidth(w)
	}
}

func (m *AppModel) submitInput() tea.Cmd {
	text := strings.TrimSpace(m.textInput.Value())
	if text == "" {
		return nil
	}
	m.textInput.SetValue("")

	if m.pipeline != nil {
		m.pipeline.Add(timeline.UserMessage{Content: text})
	}
	if m.onSubmit != nil {
		submit := m.onSubmit
		return func() tea.Msg {
			submit(text)
			return nil
		}
	}
	return nil
}

func (m *AppModel) openConfirm(msg ConfirmRequestMsg) {
	body := ""
	highRisk := 0
	if m.states != nil {
		if plan := m.states.Plan(); plan != nil {
			body = plan.RenderPreview()
			highRisk = len(plan.HighRiskItems())
			if m.pipeline != nil && m.pipeline.Debug() {
				if encoded, err := plan.EncodeSummary(); err == nil {
					log.Debug("pending plan:\n%s", encoded)
				}
			}
		}
	}
	m.confirm.Open(msg.Prompt, body, highRisk)
}

func (m *AppModel) refreshStats() {
	if m.pipeline != nil {
		m.statusbar.Stats = m.pipeline.Stats()
	}
}
