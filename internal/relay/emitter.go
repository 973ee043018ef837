package relay

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrClosed is returned by writes after a terminal message.
var ErrClosed = errors.New("relay: emitter closed")

type message struct {
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Emitter writes one JSON object per line to the response and flushes each
// one before returning. Done and Error are terminal: exactly one of them
// may succeed, and nothing is written afterwards.
type Emitter struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	enc    *json.Encoder
	closed bool
}

// NewEmitter prepares w for streaming. Headers are set here, so call it
// before anything else touches w.
func NewEmitter(w http.ResponseWriter) *Emitter {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Accel-Buffering", "no")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Emitter{w: w, rc: http.NewResponseController(w), enc: enc}
}

// Content writes a {"content": ...} message.
func (e *Emitter) Content(text string) error {
	return e.write(message{Content: text}, false)
}

// Done writes {"status":"done"} and closes the emitter.
func (e *Emitter) Done() error {
	return e.write(message{Status: "done"}, true)
}

// Error writes {"error": ...} and closes the emitter.
func (e *Emitter) Error(msg string) error {
	return e.write(message{Error: msg}, true)
}

// Closed reports whether a terminal message was attempted or a write failed.
func (e *Emitter) Closed() bool {
	return e.closed
}

func (e *Emitter) write(m message, terminal bool) error {
	if e.closed {
		return ErrClosed
	}
	if terminal {
		e.closed = true
	}
	if err := e.enc.Encode(m); err != nil {
		e.closed = true
		return err
	}
	if err := e.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		e.closed = true
		return err
	}
	return nil
}
