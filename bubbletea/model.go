package bubbletea

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/parley-sh/parley"
	"github.com/parley-sh/parley/session"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the parley TUI. It renders session
// state snapshots pushed by the controller and never mutates conversation
// state itself.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable conversation area. Exported for test access.
	Viewport viewport.Model

	ctrl      *session.Controller
	states    <-chan parley.SessionState
	theme     parley.Theme
	styles    Styles
	streaming bool

	state parley.SessionState
	// assistant caches rendered markdown per settled message.
	assistant map[string]*AssistantBlock
	ready     bool
}

// Option configures a Model.
type Option func(*Model)

// WithStreaming controls whether submissions use the streaming endpoint.
// Streaming is on by default.
func WithStreaming(streaming bool) Option {
	return func(m *Model) { m.streaming = streaming }
}

// New creates a TUI Model bound to a session controller. The states channel
// must be wired to the controller via Observer.
func New(ctrl *session.Controller, states <-chan parley.SessionState, theme parley.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:     ti,
		ctrl:      ctrl,
		states:    states,
		theme:     theme,
		styles:    NewStyles(theme),
		streaming: true,
		state:     ctrl.State(),
		assistant: make(map[string]*AssistantBlock),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Busy reports whether a request is in flight.
func (m Model) Busy() bool { return m.state.Phase.Busy() }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForState(m.states))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		m.state = msg.State
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		cmds := []tea.Cmd{waitForState(m.states)}
		if !m.Busy() && !m.Input.Focused() {
			cmds = append(cmds, m.Input.Focus())
		}
		return m, tea.Batch(cmds...)

	case opDoneMsg:
		return m, nil
	}

	// Pass remaining messages to sub-components. The viewport always
	// receives messages for scrolling.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.Busy() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusH := 1
	borderH := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusH - borderH
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.Busy() {
			m.ctrl.Cancel()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEsc:
		if m.Busy() {
			m.ctrl.Cancel()
		}
		return m, nil

	case tea.KeyEnter:
		if m.Busy() {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)
	}

	// When idle, pass keys to both the input (for typing) and the viewport
	// (for scrolling). Only non-character keys go to the viewport to avoid
	// conflicts ('j'/'k' are viewport scroll AND text characters).
	if !m.Busy() {
		var cmds []tea.Cmd
		var cmd tea.Cmd
		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

// submit hands the prompt to the controller on a background goroutine.
// State updates arrive through the observer channel.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	ctrl, streaming := m.ctrl, m.streaming
	return m, func() tea.Msg {
		if streaming {
			ctrl.Stream(context.Background(), text)
		} else {
			ctrl.Send(context.Background(), text)
		}
		return opDoneMsg{}
	}
}

func (m Model) renderContent() string {
	blocks := m.buildBlocks()
	if len(blocks) == 0 {
		return m.styles.Muted.Render("No messages yet.")
	}
	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

func (m Model) buildBlocks() []MessageBlock {
	var blocks []MessageBlock
	for _, msg := range m.state.Messages {
		switch msg.Role {
		case parley.RoleUser:
			blocks = append(blocks, NewUserBlock(msg.Text, m.styles))
		case parley.RoleAssistant:
			b, ok := m.assistant[msg.ID]
			if !ok {
				b = NewAssistantBlock(msg.Text, m.theme)
				m.assistant[msg.ID] = b
			}
			blocks = append(blocks, b)
		}
	}
	if m.state.Partial != nil {
		blocks = append(blocks, NewPartialBlock(m.state.Partial.Text, m.theme, m.styles))
	}
	if m.state.LastError != nil {
		blocks = append(blocks, NewErrorBlock(m.state.LastError, m.styles))
	}
	return blocks
}

func (m Model) statusLine() string {
	switch {
	case m.state.LastError != nil:
		return m.styles.Error.Render(m.state.LastError.UserMessage())
	case m.state.Phase == parley.PhaseSending:
		return m.styles.Muted.Render("Sending... (Esc to cancel)")
	case m.state.Phase == parley.PhaseStreaming:
		return m.styles.Muted.Render("Streaming... (Esc to cancel)")
	default:
		return m.styles.Muted.Render("Enter to send, Ctrl+C to quit")
	}
}
