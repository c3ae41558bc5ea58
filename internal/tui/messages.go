// Package tui provides Bubble Tea models for the interactive TUI.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/optimistic"
)

// BoardSelectedMsg is emitted when the user opens a board.
type BoardSelectedMsg struct {
	Ref domain.BoardRef
}

// ErrorMsg is emitted when an error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// mutationSettledMsg reports the outcome of a sent mutation. The store has
// already been reconciled or rolled back when it arrives.
type mutationSettledMsg struct {
	op  string
	err error
}

// storeChangedMsg asks a view to re-read the store.
type storeChangedMsg struct{}

// send returns a command that persists mut off the UI loop. A nil mutation
// yields a nil command.
func send(ctx context.Context, mut *optimistic.Mutation) tea.Cmd {
	if mut == nil {
		return nil
	}
	return func() tea.Msg {
		err := mut.Send(ctx)
		if errors.Is(err, optimistic.ErrStaleResponse) {
			err = nil
		}
		return mutationSettledMsg{op: mut.Op(), err: err}
	}
}

// needsReload reports whether a failed mutation may have left the server
// ahead of the rolled back store.
func needsReload(err error) bool {
	var reqErr *optimistic.RequestError
	return errors.As(err, &reqErr) && reqErr.Reload
}
