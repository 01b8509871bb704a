package anytalk

import "sync/atomic"

// ringCapacity is the fixed number of chunk slots (spec §3, §4.6).
const ringCapacity = 32

// audioRing is a fixed-capacity single-producer/single-consumer ring of
// audio chunks bridging the capture thread to the session worker (spec
// §4.6). Exactly one goroutine may call Push; exactly one (other)
// goroutine may call Pop. Both methods never block: Push drops the newest
// chunk when full, Pop returns ok=false when empty.
//
// Memory ordering: writeIdx is released after the slot payload is fully
// written and acquired before Pop reads the slot; readIdx is released
// after Pop finishes reading the slot and acquired before Push checks for
// a full ring. atomic.Uint32 Load/Store provide the acquire/release
// semantics this SPSC pattern needs; no additional fences are required
// since the slot itself is only touched by one side at a time between
// those loads/stores (spec §9, "Lock-free ring memory ordering").
type audioRing struct {
	slots    [ringCapacity]AudioChunk
	writeIdx atomic.Uint32
	readIdx  atomic.Uint32
}

func newAudioRing() *audioRing {
	return &audioRing{}
}

// Push appends chunk to the ring. If the ring is full, chunk is dropped
// (overflow policy: drop newest, spec §3) and Push returns false.
func (r *audioRing) Push(chunk AudioChunk) bool {
	w := r.writeIdx.Load()
	next := (w + 1) % ringCapacity
	if next == r.readIdx.Load() {
		return false
	}
	r.slots[w] = chunk
	r.writeIdx.Store(next)
	return true
}

// Pop removes and returns the oldest chunk. ok is false when the ring is
// empty (write index equals read index).
func (r *audioRing) Pop() (chunk AudioChunk, ok bool) {
	rd := r.readIdx.Load()
	if rd == r.writeIdx.Load() {
		return AudioChunk{}, false
	}
	chunk = r.slots[rd]
	r.readIdx.Store((rd + 1) % ringCapacity)
	return chunk, true
}

// Len returns a best-effort count of chunks currently buffered. Safe to
// call from either the producer or consumer goroutine, or a third
// observer (e.g. diagnostics), but the value may be stale by the time the
// caller observes it.
func (r *audioRing) Len() int {
	w := int(r.writeIdx.Load())
	rd := int(r.readIdx.Load())
	if w >= rd {
		return w - rd
	}
	return ringCapacity - rd + w
}
