package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestConfirmModalApprove(t *testing.T) {
	t.Parallel()

	modal := NewConfirmModal()
	modal.SetSize(120, 40)
	modal.Open("Apply 2 change(s)?", "items:\n- label: Write a.go", 0)

	action, _ := modal.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !action.DecisionMade || !action.Approved {
		t.Fatalf("expected approve decision, got %#v", action)
	}
}

func TestConfirmModalReject(t *testing.T) {
	t.Parallel()

	modal := NewConfirmModal()
	modal.SetSize(120, 40)
	modal.Open("Apply 1 change(s)?", "items:\n- label: Run: rm -rf build", 1)

	action, _ := modal.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if !action.DecisionMade || action.Approved {
		t.Fatalf("expected reject decision, got %#v", action)
	}
}

func TestConfirmModalShowsHighRiskBadge(t *testing.T) {
	t.Parallel()

	modal := NewConfirmModal()
	modal.SetSize(120, 40)
	modal.Open("Apply 1 change(s)? 1 high-risk", "items: []", 1)

	view := modal.View()
	if !strings.Contains(view, "high-risk") {
		t.Fatalf("expected high-risk badge in view:\n%s", view)
	}
}

func TestConfirmModalIgnoresOtherKeys(t *testing.T) {
	t.Parallel()

	modal := NewConfirmModal()
	modal.SetSize(120, 40)
	modal.Open("Apply?", "items: []", 0)

	action, _ := modal.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if action.DecisionMade {
		t.Fatalf("unexpected decision from unbound key: %#v", action)
	}
	if !modal.Visible {
		t.Fatal("modal should stay open")
	}
}
