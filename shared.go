package anytalk

import "time"

// Mode selects the service endpoint path and affects the initial request
// JSON body (see Config and the session's initial-request construction).
type Mode string

const (
	ModeBidi      Mode = "bidi"
	ModeBidiAsync Mode = "bidi_async"
	ModeNoStream  Mode = "nostream"
)

// DefaultResourceID is used when Config.ResourceID is empty.
const DefaultResourceID = "volc.seedasr.sauc.duration"

// DefaultMode is used when Config.Mode is empty.
const DefaultMode = ModeBidiAsync

func (m Mode) path() string {
	switch m {
	case ModeBidi:
		return "/api/v3/sauc/bigmodel"
	case ModeNoStream:
		return "/api/v3/sauc/bigmodel_nostream"
	default:
		return "/api/v3/sauc/bigmodel_async"
	}
}

// EventType identifies the kind of event delivered to the host callback.
type EventType int

const (
	// EventPartial carries a revisable transcription preview.
	EventPartial EventType = iota
	// EventFinal carries a stable transcription segment.
	EventFinal
	// EventStatus carries one of StatusConnecting, StatusRecording, StatusIdle.
	EventStatus
	// EventError carries a short human-readable error message.
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventPartial:
		return "partial"
	case EventFinal:
		return "final"
	case EventStatus:
		return "status"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Status strings delivered via EventStatus events.
const (
	StatusConnecting = "connecting"
	StatusRecording  = "recording"
	StatusIdle       = "idle"
)

// Event is a single transcription/status/error notification delivered to
// the host callback. Text is always valid UTF-8.
type Event struct {
	Type EventType
	Text string
}

// EventCallback is invoked by session and context goroutines to deliver
// Events to the host. Hosts must tolerate invocation from non-host
// goroutines (the session worker, besides whichever goroutine calls
// Start/Stop/Cancel) and must not block for long inside the callback.
type EventCallback func(Event)

// Audio format invariants. The pipeline supports exactly one PCM format:
// 16kHz, mono, signed 16-bit little-endian.
const (
	SampleRateHz  = 16000
	BitsPerSample = 16
	Channels      = 1

	samplesPerChunk = 640
	// ChunkBytes is the fixed size of every audio chunk moving through the
	// capture -> ring -> session pipeline. No partial chunks are ever
	// emitted.
	ChunkBytes = samplesPerChunk * 2

	// chunkDuration is purely informational (~40ms at 16kHz).
	chunkDuration = time.Duration(samplesPerChunk) * time.Second / SampleRateHz
)

// AudioChunk is a fixed-size buffer of raw PCM samples.
type AudioChunk [ChunkBytes]byte
