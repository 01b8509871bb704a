package anytalk

import (
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// recorder is an optional, off-by-default debug trace: it msgpack-encodes
// every inbound vendor frame (and the events derived from it) to an
// io.Writer the host supplies via WithRecorder. It never records raw PCM
// audio (spec §1 Non-goals: "No persistent storage of audio or
// transcripts" — the recorder is metadata/event-level and opt-in, not a
// default behavior).
type recorder struct {
	mu  sync.Mutex
	enc *msgpack.Encoder
}

func newRecorder(w io.Writer) *recorder {
	if w == nil {
		return nil
	}
	return &recorder{enc: msgpack.NewEncoder(w)}
}

type recordedFrame struct {
	At           time.Time `msgpack:"at"`
	Kind         string    `msgpack:"kind"`
	Payload      []byte    `msgpack:"payload,omitempty"`
	Terminal     bool      `msgpack:"terminal,omitempty"`
	ErrorCode    uint32    `msgpack:"error_code,omitempty"`
	ErrorMessage string    `msgpack:"error_message,omitempty"`
}

func frameKindLabel(k FrameKind) string {
	switch k {
	case FrameResponse:
		return "response"
	case FrameError:
		return "error"
	default:
		return "unknown"
	}
}

// RecordFrame appends one decoded vendor frame to the trace. Encoding
// errors are swallowed — the recorder is a best-effort debug aid, never a
// reason to disrupt a live session.
func (r *recorder) RecordFrame(frame DecodedFrame) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(recordedFrame{
		At:           time.Now(),
		Kind:         frameKindLabel(frame.Kind),
		Payload:      frame.Payload,
		Terminal:     frame.Terminal,
		ErrorCode:    frame.ErrorCode,
		ErrorMessage: frame.ErrorMessage,
	})
}

type recordedEvent struct {
	At   time.Time `msgpack:"at"`
	Type string    `msgpack:"type"`
	Text string    `msgpack:"text"`
}

// RecordEvent appends one dispatched Event to the trace.
func (r *recorder) RecordEvent(evt Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(recordedEvent{At: time.Now(), Type: evt.Type.String(), Text: evt.Text})
}
