package anytalk

import (
	"encoding/json"
	"reflect"
	"testing"
)

func payloadWithUtterances(utterances []vendorUtterance) []byte {
	resp := vendorResponse{Result: &vendorResult{Utterances: &utterances}}
	b, _ := json.Marshal(resp)
	return b
}

func TestInterpreter_Utterances_FinalOrdering(t *testing.T) {
	in := newInterpreter(ModeBidi)

	payload := payloadWithUtterances([]vendorUtterance{
		{Definite: true, Text: "hello", EndTime: 100},
		{Definite: true, Text: "world", EndTime: 200},
		{Definite: false, Text: "how are", EndTime: 250},
	})

	result, err := in.Interpret(payload)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}

	wantFinals := []string{"hello", "world"}
	if !reflect.DeepEqual(result.Finals, wantFinals) {
		t.Errorf("Finals = %v, want %v", result.Finals, wantFinals)
	}
	if !result.HasPartial || result.Partial != "how are" {
		t.Errorf("Partial = %q (HasPartial=%v), want %q", result.Partial, result.HasPartial, "how are")
	}
}

func TestInterpreter_Utterances_MonotonicEndTime(t *testing.T) {
	in := newInterpreter(ModeBidi)

	first := payloadWithUtterances([]vendorUtterance{
		{Definite: true, Text: "hello", EndTime: 200},
	})
	if _, err := in.Interpret(first); err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}

	// A re-delivery with an end_time at or before the last committed one must
	// not be re-emitted as a final (spec §4.4 monotonicity).
	stale := payloadWithUtterances([]vendorUtterance{
		{Definite: true, Text: "hello again", EndTime: 150},
	})
	result, err := in.Interpret(stale)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if len(result.Finals) != 0 {
		t.Errorf("Finals = %v, want none for a stale end_time", result.Finals)
	}
}

func TestInterpreter_TextFallback_BidiAsync_DuplicatesAsPartialAndFinal(t *testing.T) {
	in := newInterpreter(ModeBidiAsync)

	resp := vendorResponse{Result: &vendorResult{Text: "hello there"}}
	payload, _ := json.Marshal(resp)

	result, err := in.Interpret(payload)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if !result.HasPartial || result.Partial != "hello there" {
		t.Errorf("Partial = %q (HasPartial=%v), want %q", result.Partial, result.HasPartial, "hello there")
	}
	if len(result.Finals) != 1 || result.Finals[0] != "hello there" {
		t.Errorf("Finals = %v, want [%q]", result.Finals, "hello there")
	}
}

func TestInterpreter_TextFallback_PrefixDiffing(t *testing.T) {
	in := newInterpreter(ModeBidi)
	in.lastFullText = "hello"

	resp := vendorResponse{Result: &vendorResult{Text: "hello there"}}
	payload, _ := json.Marshal(resp)

	result, err := in.Interpret(payload)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if len(result.Finals) != 1 || result.Finals[0] != "there" {
		t.Errorf("Finals = %v, want [%q] (suffix diff against last_full_text)", result.Finals, "there")
	}
}

func TestInterpreter_TextFallback_NonPrefixReplacesWhole(t *testing.T) {
	in := newInterpreter(ModeBidi)
	in.lastFullText = "goodbye"

	resp := vendorResponse{Result: &vendorResult{Text: "hello there"}}
	payload, _ := json.Marshal(resp)

	result, err := in.Interpret(payload)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if len(result.Finals) != 1 || result.Finals[0] != "hello there" {
		t.Errorf("Finals = %v, want [%q] (whole text when not a prefix extension)", result.Finals, "hello there")
	}
}

func TestInterpreter_MalformedJSON_ReturnsError(t *testing.T) {
	in := newInterpreter(ModeBidi)
	if _, err := in.Interpret([]byte("not json")); err == nil {
		t.Fatal("Interpret() error = nil, want error for malformed payload")
	}
}

func TestInterpreter_NilResult_NoEvents(t *testing.T) {
	in := newInterpreter(ModeBidi)
	result, err := in.Interpret([]byte(`{}`))
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if result.HasPartial || len(result.Finals) != 0 {
		t.Errorf("result = %+v, want zero value", result)
	}
}
