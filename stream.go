package parley

// Stream is a pull-based iterator over decoded chat stream events.
// Cancellation flows through the context passed to Backend.ChatStream.
//
// Next() returns events in arrival order. A stream is finite and not
// restartable: after a terminal event (EventDone or EventError) has been
// returned, subsequent Next() calls return io.EOF. Transport and protocol
// failures are returned as errors, never as events.
//
// Close() releases the underlying connection. Closing mid-stream stops the
// transport; no further events are produced.
type Stream interface {
	Next() (StreamEvent, error)
	Close() error
}
