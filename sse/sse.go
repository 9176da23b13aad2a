// Package sse decodes the backend's line-oriented chat stream into
// [parley.StreamEvent] values.
//
// The protocol is a simplified server-push format: each frame is a single
// line of the form "data: <json>" where the JSON payload has the shape
// {"type": "content"|"done"|"error", "chunk": string, "message": string}.
// Blank lines and lines without the frame prefix are ignored, which keeps
// the decoder forward-compatible with protocol comments and keep-alives.
package sse

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/parley-sh/parley"
	"go.uber.org/zap"
)

const framePrefix = "data:"

// maxFrameSize bounds a single frame line. Chunks are small in practice;
// the bound exists so a misbehaving server cannot grow the buffer unbounded.
const maxFrameSize = 1 << 20

// frame is the JSON payload of a single protocol frame.
type frame struct {
	Type    string `json:"type"`
	Chunk   string `json:"chunk,omitempty"`
	Message string `json:"message,omitempty"`
}

// Decoder incrementally parses a byte stream into events. It owns no
// transport state: one Decoder per stream, reading whatever source it is
// given. bufio handles reassembly of frames split across network packets.
type Decoder struct {
	scanner *bufio.Scanner
	logger  *zap.Logger
	done    bool
}

// NewDecoder creates a Decoder reading from r. A nil logger disables logging.
func NewDecoder(r io.Reader, logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &Decoder{scanner: sc, logger: logger}
}

// Next returns the next event in arrival order. After a terminal event
// (EventDone or EventError) it returns io.EOF. A source that closes without
// a done/error frame yields an implicit EventDone: abrupt close is treated
// as success.
func (d *Decoder) Next() (parley.StreamEvent, error) {
	if d.done {
		return nil, io.EOF
	}

	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" {
			continue
		}
		payload, ok := strings.CutPrefix(line, framePrefix)
		if !ok {
			// Not a frame; comments and keep-alives land here.
			continue
		}
		payload = strings.TrimLeft(payload, " ")

		var f frame
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			// A malformed frame is never fatal to the stream.
			d.logger.Warn("skipping malformed stream frame",
				zap.String("line", line),
				zap.Error(err))
			continue
		}

		switch f.Type {
		case "content":
			if f.Chunk == "" {
				continue
			}
			return parley.EventContent{Text: f.Chunk}, nil
		case "done":
			d.done = true
			return parley.EventDone{}, nil
		case "error":
			d.done = true
			return parley.EventError{Message: f.Message}, nil
		default:
			d.logger.Debug("ignoring unknown frame type", zap.String("type", f.Type))
		}
	}

	if err := d.scanner.Err(); err != nil {
		d.done = true
		return nil, err
	}

	// Source exhausted without a terminal frame.
	d.done = true
	return parley.EventDone{}, nil
}
