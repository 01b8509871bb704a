package anytalk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func chunkFilledWith(b byte) AudioChunk {
	var c AudioChunk
	for i := range c {
		c[i] = b
	}
	return c
}

func TestAudioRing_PushPop_FIFO(t *testing.T) {
	r := newAudioRing()

	for i := 0; i < 5; i++ {
		if !r.Push(chunkFilledWith(byte(i))) {
			t.Fatalf("Push(%d) = false, want true", i)
		}
	}

	for i := 0; i < 5; i++ {
		got, ok := r.Pop()
		if !ok {
			t.Fatalf("Pop() ok = false at index %d, want true", i)
		}
		if got != chunkFilledWith(byte(i)) {
			t.Errorf("Pop() chunk %d = %v, want filled with %d", i, got[0], i)
		}
	}
}

func TestAudioRing_PopEmpty(t *testing.T) {
	r := newAudioRing()
	if _, ok := r.Pop(); ok {
		t.Error("Pop() on empty ring ok = true, want false")
	}
}

func TestAudioRing_OverflowDropsNewest(t *testing.T) {
	r := newAudioRing()

	// Ring holds ringCapacity-1 usable slots (one slot always kept empty to
	// distinguish full from empty).
	for i := 0; i < ringCapacity-1; i++ {
		if !r.Push(chunkFilledWith(byte(i))) {
			t.Fatalf("Push(%d) = false, want true", i)
		}
	}

	if r.Push(chunkFilledWith(0xFF)) {
		t.Error("Push() on full ring = true, want false (drop-newest policy)")
	}

	got, ok := r.Pop()
	if !ok || got != chunkFilledWith(0) {
		t.Errorf("Pop() after overflow = %v (ok=%v), want the oldest chunk preserved", got[0], ok)
	}
}

func TestAudioRing_Len(t *testing.T) {
	r := newAudioRing()
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}

	for i := 0; i < 10; i++ {
		r.Push(chunkFilledWith(byte(i)))
	}
	if r.Len() != 10 {
		t.Errorf("Len() = %d, want 10", r.Len())
	}

	r.Pop()
	if r.Len() != 9 {
		t.Errorf("Len() after one Pop = %d, want 9", r.Len())
	}
}

func chunkWithSequence(seq uint32) AudioChunk {
	var c AudioChunk
	c[0] = byte(seq >> 24)
	c[1] = byte(seq >> 16)
	c[2] = byte(seq >> 8)
	c[3] = byte(seq)
	return c
}

func sequenceOf(c AudioChunk) uint32 {
	return uint32(c[0])<<24 | uint32(c[1])<<16 | uint32(c[2])<<8 | uint32(c[3])
}

// TestAudioRing_ConcurrentProducerConsumer exercises the SPSC contract with
// one real producer goroutine and one real consumer goroutine racing against
// each other (run with -race). Regardless of how pushes and pops interleave,
// the sequence numbers the consumer observes must be strictly increasing and
// never repeated or reordered — a dropped chunk under overflow is acceptable
// (drop-newest policy), a corrupted or duplicated one is not.
func TestAudioRing_ConcurrentProducerConsumer(t *testing.T) {
	const total = 5000
	r := newAudioRing()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for seq := uint32(0); seq < total; seq++ {
			r.Push(chunkWithSequence(seq))
		}
	}()

	var received []uint32
	deadline := time.After(5 * time.Second)
consume:
	for {
		if chunk, ok := r.Pop(); ok {
			received = append(received, sequenceOf(chunk))
			continue
		}
		select {
		case <-done:
			// Drain whatever the producer finished writing before it exited.
			for chunk, ok := r.Pop(); ok; chunk, ok = r.Pop() {
				received = append(received, sequenceOf(chunk))
			}
			break consume
		case <-deadline:
			t.Fatal("timed out waiting for producer to finish")
		default:
		}
	}

	require.NotEmpty(t, received, "consumer observed no chunks at all")
	for i := 1; i < len(received); i++ {
		require.Greater(t, received[i], received[i-1], "sequence numbers must be strictly increasing, no reordering or duplication")
	}
	require.Less(t, received[len(received)-1], uint32(total), "observed a sequence number the producer never sent")
}
