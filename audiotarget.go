package anytalk

import "sync"

// audioTarget is a mutable slot holding zero or one sink registration
// (spec §3 "AudioTarget"). It is mutated only by Context (Set on session
// start, Clear on stop/cancel) through the session's Start, StopAudio and
// Cancel methods, and read by the capture thread on every chunk. "Active"
// means a sink is registered; the session worker treats the slot going
// inactive as its end-of-input signal.
//
// The session holds no direct pointer cycle back through the target: it
// registers a plain closure (its ring's Push), and the session worker
// clears the slot itself in its terminal transition (spec §9 "Cyclic
// references").
type audioTarget struct {
	mu   sync.Mutex
	sink func(AudioChunk)
}

// Set installs sink as the active sink, replacing any previous one.
func (t *audioTarget) Set(sink func(AudioChunk)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = sink
}

// Clear removes the active sink, if any.
func (t *audioTarget) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = nil
}

// IsActive reports whether a sink is currently registered.
func (t *audioTarget) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sink != nil
}

// Send routes chunk to the active sink, if any. Returns false if there was
// no active sink (the chunk is simply discarded — the capture thread never
// blocks waiting for a consumer).
func (t *audioTarget) Send(chunk AudioChunk) bool {
	t.mu.Lock()
	sink := t.sink
	t.mu.Unlock()
	if sink == nil {
		return false
	}
	sink(chunk)
	return true
}
