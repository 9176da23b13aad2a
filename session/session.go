// Package session implements the per-conversation state machine between the
// chat backend and a UI. A Controller accepts user input, delegates to the
// backend, and exposes an observable [parley.SessionState] that the UI
// renders. At most one send is active per session: the phase guard rejects a
// second send before any suspension point is reached.
package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parley-sh/parley"
	"go.uber.org/zap"
)

// Controller drives one conversation session. It exclusively owns its
// SessionState; all mutation happens in response to user actions or
// backend callbacks, under the controller's lock.
type Controller struct {
	backend  parley.Backend
	logger   *zap.Logger
	newID    func() string
	now      func() time.Time
	model    string
	provider string
	onChange func(parley.SessionState)

	mu     sync.Mutex
	state  parley.SessionState
	convID *int
	cancel context.CancelFunc

	// gen orphans an in-flight operation: Cancel, Load and Reset bump it,
	// after which the operation's remaining state mutations are dropped.
	gen uint64
}

// Option configures a [Controller].
type Option func(*Controller)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithOnChange sets the state observer. It is invoked with a snapshot after
// every state transition, with the controller's lock held: it must return
// promptly and must not call back into the Controller.
func WithOnChange(fn func(parley.SessionState)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithModel sets the model requested on sends. Empty = backend default.
func WithModel(model string) Option {
	return func(c *Controller) { c.model = model }
}

// WithProvider sets the provider requested on sends. Empty = backend default.
func WithProvider(provider string) Option {
	return func(c *Controller) { c.provider = provider }
}

// WithIDSource injects the message ID generator. Defaults to UUIDs.
func WithIDSource(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithNow injects the time source.
func WithNow(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

// New creates a Controller for a fresh, empty conversation.
func New(backend parley.Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		logger:  zap.NewNop(),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns a snapshot of the session state.
func (c *Controller) State() parley.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ConversationID returns the backend conversation ID, or nil before the
// first completed send of a new conversation.
func (c *Controller) ConversationID() *int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.convID == nil {
		return nil
	}
	id := *c.convID
	return &id
}

// Send performs a non-streaming send. It blocks until the send settles and
// reports the outcome through the observable state. A no-op while a send is
// already active.
func (c *Controller) Send(ctx context.Context, text string) {
	op, ok := c.begin(ctx, text, parley.PhaseSending)
	if !ok {
		return
	}
	defer op.cancel()

	resp, err := c.backend.Chat(op.ctx, op.req)
	if err != nil {
		c.fail(op, err)
		return
	}
	c.finish(op, resp)
}

// Stream performs a streaming send. Content chunks accumulate into the
// observable partial assistant message; Done finalizes it. On a stream-level
// error or transport failure the controller falls back to the non-streaming
// path before surfacing anything to the user. A no-op while a send is
// already active.
func (c *Controller) Stream(ctx context.Context, text string) {
	op, ok := c.begin(ctx, text, parley.PhaseStreaming)
	if !ok {
		return
	}
	defer op.cancel()

	s, err := c.backend.ChatStream(op.ctx, op.req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.aborted(op)
			return
		}
		c.fallback(op, err)
		return
	}
	defer s.Close()

	var acc strings.Builder
	for {
		evt, err := s.Next()
		if err == io.EOF {
			// Decoder already mapped abrupt close to an implicit Done,
			// so plain EOF only follows a terminal event.
			c.finishStream(op, acc.String())
			return
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				c.aborted(op)
				return
			}
			c.fallback(op, err)
			return
		}

		switch e := evt.(type) {
		case parley.EventContent:
			acc.WriteString(e.Text)
			c.progress(op, acc.String())
		case parley.EventDone:
			c.finishStream(op, acc.String())
			return
		case parley.EventError:
			c.fallback(op, &parley.Error{Kind: parley.KindNetwork, Message: e.Message})
			return
		}
	}
}

// Cancel aborts the active send, discards partial state and returns the
// phase to Idle. Messages already appended (including the optimistic user
// message) are kept; no error is surfaced. A no-op when idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Phase.Busy() {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.state.Phase = parley.PhaseIdle
	c.state.Partial = nil
	c.emitLocked()
}

// Load aborts any active send, then replaces the session wholesale with the
// persisted conversation. The backend remains the source of truth for
// hydrated history.
func (c *Controller) Load(ctx context.Context, id int) error {
	c.Cancel()

	conv, err := c.backend.Conversation(ctx, id)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.setErrorLocked(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	cid := conv.ID
	c.convID = &cid
	c.state = parley.SessionState{
		Messages: append([]parley.ChatMessage(nil), conv.Messages...),
		Phase:    parley.PhaseIdle,
	}
	c.emitLocked()
	return nil
}

// Reset aborts any active send and starts a fresh, empty conversation.
func (c *Controller) Reset() {
	c.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.convID = nil
	c.state = parley.SessionState{Phase: parley.PhaseIdle}
	c.emitLocked()
}

// sendOp captures one send operation. Its gen ties mutations back to the
// controller: once the controller moves on, the op's mutations are dropped.
type sendOp struct {
	req       parley.ChatRequest
	ctx       context.Context
	cancel    context.CancelFunc
	gen       uint64
	partialID string
}

// begin applies the phase guard and the optimistic user append, then
// registers the operation. Returns false when a send is already active.
func (c *Controller) begin(ctx context.Context, text string, phase parley.Phase) (*sendOp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase.Busy() {
		return nil, false
	}
	// A previous error is cleared by the next user action, not auto-retried.
	c.state.LastError = nil

	history := append([]parley.ChatMessage(nil), c.state.Messages...)
	c.state.Messages = append(c.state.Messages, parley.ChatMessage{
		ID:        c.newID(),
		Role:      parley.RoleUser,
		Text:      text,
		CreatedAt: c.now(),
	})
	c.state.Phase = phase

	opCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.gen++

	op := &sendOp{
		req: parley.ChatRequest{
			Prompt:         text,
			Model:          c.model,
			Provider:       c.provider,
			ConversationID: c.convID,
			History:        history,
		},
		ctx:       opCtx,
		cancel:    cancel,
		gen:       c.gen,
		partialID: c.newID(),
	}
	c.emitLocked()
	return op, true
}

// progress publishes the accumulated partial assistant text.
func (c *Controller) progress(op *sendOp, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != op.gen {
		return
	}
	c.state.Partial = &parley.ChatMessage{
		ID:        op.partialID,
		Role:      parley.RoleAssistant,
		Text:      text,
		CreatedAt: c.now(),
	}
	c.emitLocked()
}

// finish settles a non-streaming send (including the fallback path).
func (c *Controller) finish(op *sendOp, resp parley.ChatResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != op.gen {
		return
	}
	c.state.Messages = append(c.state.Messages, parley.ChatMessage{
		ID:        c.newID(),
		Role:      parley.RoleAssistant,
		Text:      resp.Response,
		CreatedAt: c.now(),
	})
	if resp.ConversationID != nil {
		c.convID = resp.ConversationID
	}
	c.settleLocked()
}

// finishStream finalizes the accumulated streaming text into a real message.
// A stream that completed with no content settles without appending.
func (c *Controller) finishStream(op *sendOp, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != op.gen {
		return
	}
	if text != "" {
		c.state.Messages = append(c.state.Messages, parley.ChatMessage{
			ID:        op.partialID,
			Role:      parley.RoleAssistant,
			Text:      text,
			CreatedAt: c.now(),
		})
	}
	c.settleLocked()
}

// fallback discards partial streaming state and re-issues the same prompt
// via the non-streaming path. The stream failure is only user-visible if
// the fallback also fails.
func (c *Controller) fallback(op *sendOp, cause error) {
	c.logger.Warn("stream failed, falling back to non-streaming send", zap.Error(cause))

	c.mu.Lock()
	if c.gen != op.gen {
		c.mu.Unlock()
		return
	}
	c.state.Partial = nil
	c.state.Phase = parley.PhaseSending
	c.emitLocked()
	c.mu.Unlock()

	resp, err := c.backend.Chat(op.ctx, op.req)
	if err != nil {
		c.fail(op, err)
		return
	}
	c.finish(op, resp)
}

// fail settles a send with an error. Cancellation is not an error: it
// resets to Idle silently.
func (c *Controller) fail(op *sendOp, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != op.gen {
		return
	}
	if errors.Is(err, context.Canceled) {
		c.state.Phase = parley.PhaseIdle
		c.state.Partial = nil
		c.cancel = nil
		c.emitLocked()
		return
	}
	c.setErrorLocked(err)
}

// aborted settles a send whose context was cancelled externally (rather
// than through Cancel, which orphans the op itself).
func (c *Controller) aborted(op *sendOp) {
	c.fail(op, context.Canceled)
}

func (c *Controller) settleLocked() {
	c.state.Partial = nil
	c.state.Phase = parley.PhaseIdle
	c.cancel = nil
	c.emitLocked()
}

func (c *Controller) setErrorLocked(err error) {
	var pe *parley.Error
	if !errors.As(err, &pe) {
		pe = &parley.Error{Kind: parley.KindNetwork, Message: err.Error()}
	}
	c.logger.Warn("send failed",
		zap.Stringer("kind", pe.Kind),
		zap.String("message", pe.Message))
	c.state.Partial = nil
	c.state.Phase = parley.PhaseError
	c.state.LastError = pe
	c.cancel = nil
	c.emitLocked()
}

func (c *Controller) emitLocked() {
	if c.onChange != nil {
		c.onChange(c.snapshotLocked())
	}
}

func (c *Controller) snapshotLocked() parley.SessionState {
	st := parley.SessionState{
		Messages:  append([]parley.ChatMessage(nil), c.state.Messages...),
		Phase:     c.state.Phase,
		LastError: c.state.LastError,
	}
	if c.state.Partial != nil {
		p := *c.state.Partial
		st.Partial = &p
	}
	return st
}
