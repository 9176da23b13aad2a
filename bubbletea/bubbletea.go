// Package bubbletea provides the Bubble Tea TUI for parley chat sessions.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/parley-sh/parley"
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. When the context is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StateMsg delivers a session state snapshot to the Bubble Tea model.
type StateMsg struct {
	State parley.SessionState
}

// opDoneMsg signals that a controller operation has returned.
type opDoneMsg struct{}

// Observer returns a session change callback that forwards snapshots to ch
// without blocking. When ch is full the oldest snapshot is dropped; each
// snapshot is complete, so only the latest one matters.
func Observer(ch chan parley.SessionState) func(parley.SessionState) {
	return func(st parley.SessionState) {
		for {
			select {
			case ch <- st:
				return
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
	}
}

// waitForState waits for the next snapshot from the observer channel.
func waitForState(ch <-chan parley.SessionState) tea.Cmd {
	return func() tea.Msg {
		return StateMsg{State: <-ch}
	}
}
