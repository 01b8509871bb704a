package anytalk

import "testing"

func TestAudioTarget_SetClearIsActive(t *testing.T) {
	target := &audioTarget{}

	if target.IsActive() {
		t.Fatal("IsActive() = true on a fresh target, want false")
	}

	var received AudioChunk
	target.Set(func(c AudioChunk) { received = c })

	if !target.IsActive() {
		t.Fatal("IsActive() = false after Set, want true")
	}

	chunk := chunkFilledWith(7)
	if ok := target.Send(chunk); !ok {
		t.Fatal("Send() = false with an active sink, want true")
	}
	if received != chunk {
		t.Errorf("sink received %v, want %v", received[0], chunk[0])
	}

	target.Clear()
	if target.IsActive() {
		t.Fatal("IsActive() = true after Clear, want false")
	}
	if ok := target.Send(chunk); ok {
		t.Error("Send() = true after Clear, want false (chunk discarded)")
	}
}

func TestAudioTarget_SetReplacesPreviousSink(t *testing.T) {
	target := &audioTarget{}

	var calledA, calledB bool
	target.Set(func(AudioChunk) { calledA = true })
	target.Set(func(AudioChunk) { calledB = true })

	target.Send(AudioChunk{})

	if calledA {
		t.Error("first sink was invoked, want only the replacement sink called")
	}
	if !calledB {
		t.Error("replacement sink was not invoked")
	}
}
