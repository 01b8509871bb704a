package anytalk

import "testing"

func TestMode_Path(t *testing.T) {
	tests := []struct {
		mode     Mode
		expected string
	}{
		{ModeBidi, "/api/v3/sauc/bigmodel"},
		{ModeBidiAsync, "/api/v3/sauc/bigmodel_async"},
		{ModeNoStream, "/api/v3/sauc/bigmodel_nostream"},
		{Mode("unknown"), "/api/v3/sauc/bigmodel_async"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := tt.mode.path(); got != tt.expected {
				t.Errorf("Mode(%q).path() = %q, want %q", tt.mode, got, tt.expected)
			}
		})
	}
}

func TestEventType_String(t *testing.T) {
	tests := []struct {
		typ      EventType
		expected string
	}{
		{EventPartial, "partial"},
		{EventFinal, "final"},
		{EventStatus, "status"},
		{EventError, "error"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.expected {
				t.Errorf("EventType(%d).String() = %q, want %q", tt.typ, got, tt.expected)
			}
		})
	}
}

func TestAudioChunk_Size(t *testing.T) {
	var chunk AudioChunk
	if len(chunk) != ChunkBytes {
		t.Fatalf("AudioChunk length = %d, want %d", len(chunk), ChunkBytes)
	}
	if ChunkBytes != samplesPerChunk*2 {
		t.Errorf("ChunkBytes = %d, want %d", ChunkBytes, samplesPerChunk*2)
	}
}
