package parley

// Phase is the discrete state of a session's request lifecycle.
type Phase int

const (
	PhaseIdle      Phase = iota // no request in flight
	PhaseSending                // non-streaming send in flight
	PhaseStreaming              // streaming send in flight
	PhaseError                  // last send failed; cleared on next user action
)

// String returns the phase's name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseStreaming:
		return "streaming"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Busy reports whether a send is in flight.
func (p Phase) Busy() bool {
	return p == PhaseSending || p == PhaseStreaming
}

// SessionState is an observable snapshot of a conversation session.
// The session controller owns the live state and hands out copies; a
// snapshot is never mutated after delivery.
type SessionState struct {
	Messages []ChatMessage
	Phase    Phase

	// Partial is the in-progress assistant message during streaming.
	// It is not part of Messages until finalized on EventDone.
	Partial *ChatMessage

	// LastError is set when Phase is PhaseError.
	LastError *Error
}
