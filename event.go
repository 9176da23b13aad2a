package parley

// StreamEvent is a sealed interface representing a decoded chat stream event.
// Events are purely semantic. Transport failures come from Next()'s error
// return, not from events. The unexported marker method prevents external
// implementations.
type StreamEvent interface {
	streamEvent()
}

// EventContent carries a chunk of assistant text. The caller accumulates
// chunks; the decoder never buffers across events.
type EventContent struct {
	Text string
}

func (EventContent) streamEvent() {}

// EventDone signals normal end of stream. No further events follow.
type EventDone struct{}

func (EventDone) streamEvent() {}

// EventError signals a server-reported stream failure. It is terminal: no
// further events follow.
type EventError struct {
	Message string
}

func (EventError) streamEvent() {}

// Interface compliance checks.
var (
	_ StreamEvent = EventContent{}
	_ StreamEvent = EventDone{}
	_ StreamEvent = EventError{}
)
