package anytalk

import (
	"encoding/json"
	"strings"
)

// vendorResponse is the JSON shape of a full-server-response payload
// (spec §4.4). Utterances is a pointer-to-slice so nil (field absent) can
// be told apart from an empty array (field present, no elements yet).
type vendorResponse struct {
	Result *vendorResult `json:"result"`
}

type vendorResult struct {
	Utterances *[]vendorUtterance `json:"utterances"`
	Text       string             `json:"text"`
}

type vendorUtterance struct {
	Definite bool   `json:"definite"`
	Text     string `json:"text"`
	EndTime  int64  `json:"end_time"`
}

// interpreter converts vendor JSON payloads into an ordered stream of
// partial/final text events, deduplicating across overlapping and revising
// utterance deliveries (spec §4.4). It is not safe for concurrent use; the
// session worker owns exactly one per session.
type interpreter struct {
	mode               Mode
	lastCommittedEndMs int64
	lastFullText       string
}

func newInterpreter(mode Mode) *interpreter {
	return &interpreter{mode: mode}
}

// Reset clears interpreter state, for tests that want a fresh interpreter
// without constructing a new session.
func (in *interpreter) Reset() {
	in.lastCommittedEndMs = 0
	in.lastFullText = ""
}

// interpretResult is the set of events produced by interpreting one
// response payload. Partial is empty/HasPartial=false when the response
// produced no partial.
type interpretResult struct {
	Partial    string
	HasPartial bool
	Finals     []string
}

// Interpret runs the algorithm of spec §4.4 against one JSON payload.
// Malformed JSON is reported as an error; callers must swallow it and keep
// the session loop running (spec §7: "Malformed-JSON: Swallow the message,
// loop continues").
func (in *interpreter) Interpret(payload []byte) (interpretResult, error) {
	var resp vendorResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return interpretResult{}, newTransportError(KindProtocolDecodeFailure, "Interpret", err)
	}

	if resp.Result == nil {
		return interpretResult{}, nil
	}

	if resp.Result.Utterances != nil {
		return in.interpretUtterances(*resp.Result.Utterances), nil
	}

	return in.interpretTextFallback(resp.Result.Text), nil
}

func (in *interpreter) interpretUtterances(utterances []vendorUtterance) interpretResult {
	var out interpretResult

	for _, u := range utterances {
		if !u.Definite {
			continue
		}
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}
		if u.EndTime > in.lastCommittedEndMs {
			out.Finals = append(out.Finals, text)
			in.lastCommittedEndMs = u.EndTime
		}
	}

	for i := len(utterances) - 1; i >= 0; i-- {
		u := utterances[i]
		if u.Definite {
			continue
		}
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}
		out.Partial = text
		out.HasPartial = true
		break
	}

	return out
}

func (in *interpreter) interpretTextFallback(text string) interpretResult {
	var out interpretResult

	if in.mode == ModeBidiAsync {
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			out.Partial = trimmed
			out.HasPartial = true
			out.Finals = append(out.Finals, trimmed)
		}
		in.lastFullText = text
		return out
	}

	if strings.HasPrefix(text, in.lastFullText) {
		suffix := strings.TrimSpace(strings.TrimPrefix(text, in.lastFullText))
		if suffix != "" {
			out.Finals = append(out.Finals, suffix)
		}
	} else if text != in.lastFullText {
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			out.Finals = append(out.Finals, trimmed)
		}
	}
	in.lastFullText = text

	return out
}
