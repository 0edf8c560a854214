package tui

import (
	"strings"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// TranscriptMsg carries a full rendered transcript snapshot to the app.
type TranscriptMsg struct {
	Content string
}

// ConfirmRequestMsg asks the app to open the plan confirmation modal.
type ConfirmRequestMsg struct {
	Prompt  string
	Options []string
}

// ProgramSurface bridges the render pipeline to the Bubble Tea program.
// The pipeline calls Clear/AppendBlock/ScrollToEnd from its flush goroutine;
// the surface batches blocks and publishes one TranscriptMsg per render so
// the UI thread never sees a half-drawn transcript.
type ProgramSurface struct {
	mu     sync.Mutex
	blocks []string
	width  atomic.Int64
	send   func(tea.Msg)
}

func NewProgramSurface() *ProgramSurface {
	s := &ProgramSurface{}
	s.width.Store(80)
	return s
}

// Attach wires the surface to a running program's Send. Renders that happen
// before Attach are dropped silently.
func (s *ProgramSurface) Attach(send func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = send
}

// SetWidth records the terminal width for the renderer's layout decisions.
func (s *ProgramSurface) SetWidth(w int) {
	if w > 0 {
		s.width.Store(int64(w))
	}
}

func (s *ProgramSurface) Width() int {
	return int(s.width.Load())
}

func (s *ProgramSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = s.blocks[:0]
}

func (s *ProgramSurface) AppendBlock(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, text)
}

func (s *ProgramSurface) ScrollToEnd() {
	s.mu.Lock()
	content := strings.Join(s.blocks, "\n")
	send := s.send
	s.mu.Unlock()
	if send != nil {
		send(TranscriptMsg{Content: content})
	}
}
