package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yubzen/maestro/internal/config"
	"github.com/yubzen/maestro/internal/mutation"
)

func newTestApp(t *testing.T) *AppModel {
	t.Helper()
	cfg, err := config.Load(t.TempDir() + "/config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	states := mutation.NewStateManager()
	return NewAppModel(cfg, nil, states, NewModalConfirmer(), NewProgramSurface())
}

func TestAppTranscriptMsgUpdatesViewport(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	app.Update(TranscriptMsg{Content: "┌─ User\n│ hello"})

	view := app.View()
	if !strings.Contains(view, "hello") {
		t.Fatalf("expected transcript content in view:\n%s", view)
	}
}

func TestAppConfirmFlowResolvesChoice(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	resolved := make(chan string, 1)
	app.confirmer.Attach(func(tea.Msg) {})
	go func() {
		choice, err := app.confirmer.Request(context.Background(), "Apply 1 change(s)?", nil)
		if err == nil {
			resolved <- choice
		}
	}()

	// wait for the request to register before resolving through the modal
	for i := 0; i < 100; i++ {
		app.confirmer.mu.Lock()
		pending := app.confirmer.reply != nil
		app.confirmer.mu.Unlock()
		if pending {
			break
		}
		time.Sleep(time.Millisecond)
	}

	app.Update(ConfirmRequestMsg{Prompt: "Apply 1 change(s)?"})
	if !app.confirm.Visible {
		t.Fatal("expected confirm modal to open")
	}

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if app.confirm.Visible {
		t.Fatal("expected confirm modal to close after decision")
	}

	select {
	case choice := <-resolved:
		if choice != mutation.OptionApply {
			t.Fatalf("expected apply, got %q", choice)
		}
	case <-time.After(time.Second):
		t.Fatal("expected pending request to resolve")
	}
}

func TestAppSessionPolicyMsg(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.Update(SessionPolicyMsg{AutoApprove: true, Debug: true})

	if !app.statusbar.AutoApprove {
		t.Fatal("expected auto-approve flag on status bar")
	}
	if !app.states.AutoApprove() {
		t.Fatal("expected auto-approve flag on state manager")
	}
}

func TestAppStateChangedMsgUpdatesStatusBar(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.Update(StateChangedMsg{State: mutation.StateExecuting})

	if app.statusbar.State != mutation.StateExecuting {
		t.Fatalf("expected EXECUTING on status bar, got %s", app.statusbar.State)
	}
	if !strings.Contains(app.statusbar.View(), "EXECUTING") {
		t.Fatal("expected state label in status bar view")
	}
}

func TestAppSubmitForwardsInput(t *testing.T) {
	t.Parallel()

	var submitted string
	app := newTestApp(t)
	app.onSubmit = func(text string) { submitted = text }
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	app.textInput.SetValue("refactor the parser")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	cmd()

	if submitted != "refactor the parser" {
		t.Fatalf("expected submitted input, got %q", submitted)
	}
	if app.textInput.Value() != "" {
		t.Fatal("expected input to clear after submit")
	}
}

func TestWrapToWidth(t *testing.T) {
	t.Parallel()

	wrapped := wrapToWidth("a long line that should wrap somewhere", 10)
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 10 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
	if wrapToWidth("keep\n\nblank", 20) != "keep\n\nblank" {
		t.Fatal("expected blank lines to survive wrapping")
	}
}
