package bubbletea_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/parley-sh/parley"
	bt "github.com/parley-sh/parley/bubbletea"
	"github.com/parley-sh/parley/mock"
	"github.com/parley-sh/parley/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newModel builds a controller wired to the given backend and a model
// subscribed to its state changes.
func newModel(backend parley.Backend, opts ...bt.Option) (bt.Model, *session.Controller) {
	ch := make(chan parley.SessionState, 64)
	ctrl := session.New(backend, session.WithOnChange(bt.Observer(ch)))
	return bt.New(ctrl, ch, parley.DefaultTheme(), opts...), ctrl
}

// initModel sends a WindowSizeMsg so the viewport exists.
func initModel(t *testing.T, m bt.Model) bt.Model {
	t.Helper()
	return updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

func stateWith(phase parley.Phase, msgs ...parley.ChatMessage) parley.SessionState {
	return parley.SessionState{Messages: msgs, Phase: phase}
}

func TestModel_InitialView(t *testing.T) {
	t.Parallel()

	m, _ := newModel(&mock.Backend{})
	assert.Equal(t, "Initializing...", m.View())

	m = initModel(t, m)
	view := m.View()
	assert.Contains(t, view, "Enter to send")
	assert.Contains(t, view, "No messages yet.")
}

func TestModel_RendersMessages(t *testing.T) {
	t.Parallel()

	m, _ := newModel(&mock.Backend{})
	m = initModel(t, m)

	m = updateModel(t, m, bt.StateMsg{State: stateWith(parley.PhaseIdle,
		parley.ChatMessage{ID: "1", Role: parley.RoleUser, Text: "hello there"},
		parley.ChatMessage{ID: "2", Role: parley.RoleAssistant, Text: "Hi! How can I help?"},
	)})

	view := m.View()
	assert.Contains(t, view, "hello there")
	assert.Contains(t, view, "Hi! How can I help?")
}

func TestModel_RendersPartialWithCursor(t *testing.T) {
	t.Parallel()

	m, _ := newModel(&mock.Backend{})
	m = initModel(t, m)

	st := stateWith(parley.PhaseStreaming,
		parley.ChatMessage{ID: "1", Role: parley.RoleUser, Text: "question"},
	)
	st.Partial = &parley.ChatMessage{ID: "2", Role: parley.RoleAssistant, Text: "partial answ"}
	m = updateModel(t, m, bt.StateMsg{State: st})

	view := m.View()
	assert.Contains(t, view, "partial answ")
	assert.Contains(t, view, "▌")
	assert.Contains(t, view, "Streaming...")
	assert.True(t, m.Busy())
}

func TestModel_RendersError(t *testing.T) {
	t.Parallel()

	m, _ := newModel(&mock.Backend{})
	m = initModel(t, m)

	st := stateWith(parley.PhaseError,
		parley.ChatMessage{ID: "1", Role: parley.RoleUser, Text: "question"},
	)
	st.LastError = &parley.Error{Kind: parley.KindAuth, Message: "unauthorized"}
	m = updateModel(t, m, bt.StateMsg{State: st})

	view := m.View()
	assert.Contains(t, view, st.LastError.UserMessage())
	assert.False(t, m.Busy())
}

func TestModel_EnterWithEmptyInputIsNoOp(t *testing.T) {
	t.Parallel()

	m, _ := newModel(&mock.Backend{})
	m = initModel(t, m)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, m.View(), updated.(bt.Model).View())
}

func TestModel_EnterWhileBusyIsNoOp(t *testing.T) {
	t.Parallel()

	m, _ := newModel(&mock.Backend{})
	m = initModel(t, m)
	m = updateModel(t, m, bt.StateMsg{State: stateWith(parley.PhaseSending)})
	require.True(t, m.Busy())

	m.Input.SetValue("queued text")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	// The draft is preserved, not submitted.
	assert.Equal(t, "queued text", updated.(bt.Model).Input.Value())
}

func TestModel_TypingIgnoredWhileBusy(t *testing.T) {
	t.Parallel()

	m, _ := newModel(&mock.Backend{})
	m = initModel(t, m)
	m = updateModel(t, m, bt.StateMsg{State: stateWith(parley.PhaseStreaming)})

	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Empty(t, m.Input.Value())
}

func TestModel_CtrlCQuitsWhenIdle(t *testing.T) {
	t.Parallel()

	m, _ := newModel(&mock.Backend{})
	m = initModel(t, m)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_SubmitSendsPrompt(t *testing.T) {
	t.Parallel()

	sent := make(chan string, 1)
	backend := &mock.Backend{
		ChatStreamFn: func(_ context.Context, req parley.ChatRequest) (parley.Stream, error) {
			sent <- req.Prompt
			return mock.ScriptedStream(
				parley.EventContent{Text: "Hi there"},
				parley.EventDone{},
			), nil
		},
	}
	m, _ := newModel(backend)
	m = initModel(t, m)

	m.Input.SetValue("  hi  ")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Empty(t, updated.(bt.Model).Input.Value())

	cmd() // runs the controller operation synchronously
	select {
	case prompt := <-sent:
		assert.Equal(t, "hi", prompt)
	default:
		t.Fatal("backend was not called")
	}
}

func TestModel_NonStreamingOption(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		ChatFn: func(_ context.Context, req parley.ChatRequest) (parley.ChatResponse, error) {
			return parley.ChatResponse{Response: "plain answer"}, nil
		},
	}
	m, ctrl := newModel(backend, bt.WithStreaming(false))
	m = initModel(t, m)

	m.Input.SetValue("hi")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()

	msgs := ctrl.State().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "plain answer", msgs[1].Text)
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	t.Run("full chat cycle", func(t *testing.T) {
		t.Parallel()

		backend := &mock.Backend{
			ChatStreamFn: func(_ context.Context, _ parley.ChatRequest) (parley.Stream, error) {
				return mock.ScriptedStream(
					parley.EventContent{Text: "Hello!"},
					parley.EventDone{},
				), nil
			},
		}
		m, ctrl := newModel(backend)

		tm := teatest.NewTestModel(t, m,
			teatest.WithInitialTermSize(80, 24),
		)

		tm.Type("hi")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Hello!")) &&
				bytes.Contains(out, []byte("Enter to send"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final, ok := fm.(bt.Model)
		require.True(t, ok)
		assert.False(t, final.Busy())

		msgs := ctrl.State().Messages
		require.Len(t, msgs, 2)
		assert.Equal(t, "hi", msgs[0].Text)
		assert.Equal(t, "Hello!", msgs[1].Text)
	})

	t.Run("loaded conversation renders on first snapshot", func(t *testing.T) {
		t.Parallel()

		backend := &mock.Backend{
			ConversationFn: func(_ context.Context, id int) (parley.Conversation, error) {
				return parley.Conversation{ID: id, Messages: []parley.ChatMessage{
					{ID: "1", Role: parley.RoleUser, Text: "hello there"},
					{ID: "2", Role: parley.RoleAssistant, Text: "Hi! How can I help?"},
				}}, nil
			},
		}
		m, ctrl := newModel(backend)

		tm := teatest.NewTestModel(t, m,
			teatest.WithInitialTermSize(80, 24),
		)
		require.NoError(t, ctrl.Load(context.Background(), 1))

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("hello there")) &&
				bytes.Contains(out, []byte("Hi! How can I help?"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	})
}

func TestObserver_DropsOldestWhenFull(t *testing.T) {
	t.Parallel()

	ch := make(chan parley.SessionState, 1)
	obs := bt.Observer(ch)

	obs(stateWith(parley.PhaseSending))
	obs(stateWith(parley.PhaseStreaming))
	obs(stateWith(parley.PhaseIdle))

	// Only the latest snapshot remains.
	st := <-ch
	assert.Equal(t, parley.PhaseIdle, st.Phase)
	select {
	case <-ch:
		t.Fatal("expected channel to be drained")
	default:
	}
}

func TestModel_WindowResize(t *testing.T) {
	t.Parallel()

	m, _ := newModel(&mock.Backend{})
	m = initModel(t, m)
	m = updateModel(t, m, bt.StateMsg{State: stateWith(parley.PhaseIdle,
		parley.ChatMessage{ID: "1", Role: parley.RoleUser, Text: strings.Repeat("word ", 30)},
	)})

	m = updateModel(t, m, tea.WindowSizeMsg{Width: 40, Height: 12})
	assert.Equal(t, 40, m.Viewport.Width)
	assert.NotEmpty(t, m.View())
}
