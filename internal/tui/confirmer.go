package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

var errConfirmBusy = errors.New("a confirmation is already pending")

// ModalConfirmer satisfies the plan runner's confirmation contract by
// round-tripping through the UI: Request publishes a ConfirmRequestMsg and
// blocks until the app resolves the modal or the context ends. At most one
// request is in flight at a time.
type ModalConfirmer struct {
	mu    sync.Mutex
	send  func(tea.Msg)
	reply chan string
}

func NewModalConfirmer() *ModalConfirmer {
	return &ModalConfirmer{}
}

// Attach wires the confirmer to a running program's Send.
func (c *ModalConfirmer) Attach(send func(tea.Msg)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.send = send
}

func (c *ModalConfirmer) Request(ctx context.Context, prompt string, options []string) (string, error) {
	c.mu.Lock()
	if c.send == nil {
		c.mu.Unlock()
		return "", errors.New("confirmer is not attached to a program")
	}
	if c.reply != nil {
		c.mu.Unlock()
		return "", errConfirmBusy
	}
	reply := make(chan string, 1)
	c.reply = reply
	send := c.send
	c.mu.Unlock()

	send(ConfirmRequestMsg{Prompt: prompt, Options: options})

	select {
	case choice := <-reply:
		return choice, nil
	case <-ctx.Done():
		c.mu.Lock()
		c.reply = nil
		c.mu.Unlock()
		return "", ctx.Err()
	}
}

// Resolve delivers the user's choice to the blocked Request. Calls with no
// pending request are ignored.
func (c *ModalConfirmer) Resolve(choice string) {
	c.mu.Lock()
	reply := c.reply
	c.reply = nil
	c.mu.Unlock()
	if reply != nil {
		reply <- choice
	}
}
