package anytalk

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// sessionState models the per-session lifecycle (spec §3): Created ->
// Started -> Draining (stop issued, audio closed, awaiting terminal
// frame) -> Terminated. Cancel moves directly to Terminated from any
// state.
type sessionState int32

const (
	sessionCreated sessionState = iota
	sessionStarted
	sessionDraining
	sessionTerminated
)

// SessionStats is a snapshot of counters accumulated over a session's
// lifetime, useful for host status UIs.
type SessionStats struct {
	ChunksSent   int
	BytesSent    int64
	PartialCount int
	FinalCount   int
}

// session is the per-session worker (spec §4.8): it sends the initial
// request, pumps audio from its ring, reads vendor responses, dispatches
// events, and honors stop (terminal audio marker + drain) vs cancel
// (abort). It exclusively owns its WebSocket and ring; it holds a
// non-owning reference to the Context's shared audioTarget so it can
// detach itself on stop/cancel without the target ever reaching back into
// the session (spec §9 "Cyclic references").
type session struct {
	ws     *wsClient
	cfg    Config
	cb     EventCallback
	logger *slog.Logger

	target *audioTarget
	ring   *audioRing
	interp *interpreter

	readTimeout time.Duration

	state   atomic.Int32
	running atomic.Bool

	idleOnce sync.Once
	done     chan struct{}
	stats    SessionStats

	recorder *recorder
}

func newSession(ws *wsClient, cfg Config, cb EventCallback, target *audioTarget, logger *slog.Logger, readTimeout time.Duration, rec *recorder) *session {
	s := &session{
		ws:          ws,
		cfg:         cfg,
		cb:          cb,
		logger:      logger,
		target:      target,
		ring:        newAudioRing(),
		interp:      newInterpreter(cfg.Mode),
		readTimeout: readTimeout,
		done:        make(chan struct{}),
		recorder:    rec,
	}
	s.state.Store(int32(sessionCreated))
	return s
}

// Start registers this session's ring as the active audio sink and spawns
// the worker goroutine.
func (s *session) Start() {
	ring := s.ring
	s.target.Set(func(chunk AudioChunk) {
		ring.Push(chunk)
	})
	s.running.Store(true)
	s.state.Store(int32(sessionStarted))
	go s.run()
}

// StopAudio detaches from the audio sink so capture no longer feeds this
// session's ring, letting the worker's drain phase send the terminal audio
// marker once the ring empties (spec §4.8).
func (s *session) StopAudio() {
	s.target.Clear()
	s.state.CompareAndSwap(int32(sessionStarted), int32(sessionDraining))
}

// Cancel aborts the session: it stops consuming audio and flips running to
// false so the worker breaks out of its read loop at the next iteration.
func (s *session) Cancel() {
	s.target.Clear()
	s.running.Store(false)
}

// Join blocks until the worker goroutine has exited.
func (s *session) Join() SessionStats {
	<-s.done
	return s.stats
}

// State returns the session's current lifecycle state.
func (s *session) State() sessionState {
	return sessionState(s.state.Load())
}

func (s *session) emit(evt Event) {
	if s.cb != nil {
		s.cb(evt)
	}
}

func (s *session) run() {
	defer s.terminate()

	s.ws.SetReadTimeout(s.readTimeout)

	if err := s.sendInitialRequest(); err != nil {
		s.logger.Warn("session: initial request failed", slog.String("error", err.Error()))
		return
	}

	audioDone := false
	var sendFailedAt time.Time

	for s.running.Load() {
		if !audioDone {
			if chunk, ok := s.ring.Pop(); ok {
				if err := s.sendAudio(chunk[:], false); err != nil {
					s.logger.Warn("session: send failed, marking audio done", slog.String("error", err.Error()))
					audioDone = true
					sendFailedAt = time.Now()
				}
			} else if !s.target.IsActive() {
				if err := s.sendAudio(nil, true); err != nil {
					s.logger.Warn("session: terminal audio send failed", slog.String("error", err.Error()))
					sendFailedAt = time.Now()
				}
				audioDone = true
			}
		}

		opcode, payload, err := s.ws.ReadFrame()
		if err != nil {
			if err == ErrWouldBlock {
				if !sendFailedAt.IsZero() && time.Since(sendFailedAt) > sendFailureGrace {
					s.logger.Warn("session: send-failure grace period elapsed, breaking")
					return
				}
				continue
			}
			s.logger.Debug("session: read failed, breaking", slog.String("error", err.Error()))
			return
		}

		switch opcode {
		case OpClose:
			return
		case OpPing:
			// gorilla/websocket's default ping handler already answers pings
			// with a pong inside ReadMessage, and wsClient.ReadFrame never
			// returns OpPing, so this branch is not reached with the current
			// wsClient.
			_ = s.ws.SendPong(payload)
			continue
		case OpBinary:
			if s.handleBinaryFrame(payload) {
				return
			}
		default:
			// text/continuation/unknown payloads are not acted on (spec §4.2).
		}
	}
}

func (s *session) sendInitialRequest() error {
	body := buildInitialRequestJSON(s.cfg.Mode)
	frame := EncodeFullClientRequest(body)
	return s.ws.SendBinary(frame)
}

func (s *session) sendAudio(pcm []byte, last bool) error {
	frame := EncodeAudioOnly(pcm, last)
	if err := s.ws.SendBinary(frame); err != nil {
		return err
	}
	s.stats.ChunksSent++
	s.stats.BytesSent += int64(len(pcm))
	return nil
}

// handleBinaryFrame decodes one vendor frame and dispatches the resulting
// events. It returns true when the worker loop should break (terminal
// response or server error frame).
func (s *session) handleBinaryFrame(payload []byte) bool {
	frame, err := DecodeFrame(payload)
	if err != nil {
		s.logger.Debug("session: malformed frame, ignoring", slog.String("error", err.Error()))
		return false
	}

	if s.recorder != nil {
		s.recorder.RecordFrame(frame)
	}

	switch frame.Kind {
	case FrameError:
		s.logger.Warn("session: server error frame", slog.Uint64("code", uint64(frame.ErrorCode)), slog.String("message", frame.ErrorMessage))
		s.emit(Event{Type: EventError, Text: frame.ErrorMessage})
		return true

	case FrameResponse:
		result, err := s.interp.Interpret(frame.Payload)
		if err != nil {
			s.logger.Debug("session: malformed response JSON, ignoring", slog.String("error", err.Error()))
			return frame.Terminal
		}
		if result.HasPartial {
			s.stats.PartialCount++
			s.emit(Event{Type: EventPartial, Text: result.Partial})
		}
		for _, final := range result.Finals {
			s.stats.FinalCount++
			s.emit(Event{Type: EventFinal, Text: final})
		}
		return frame.Terminal

	default:
		return false
	}
}

func (s *session) terminate() {
	s.state.Store(int32(sessionTerminated))
	s.target.Clear()
	if s.ws != nil {
		_ = s.ws.Close()
	}
	s.idleOnce.Do(func() {
		s.emit(Event{Type: EventStatus, Text: StatusIdle})
	})
	close(s.done)
}

// initialRequest is the JSON body sent once at session start (spec §6).
type initialRequest struct {
	User    initialRequestUser    `json:"user"`
	Audio   initialRequestAudio   `json:"audio"`
	Request initialRequestRequest `json:"request"`
}

type initialRequestUser struct {
	UID string `json:"uid"`
}

type initialRequestAudio struct {
	Format   string `json:"format"`
	Rate     int    `json:"rate"`
	Bits     int    `json:"bits"`
	Channel  int    `json:"channel"`
	Language string `json:"language,omitempty"`
}

type initialRequestRequest struct {
	ModelName  string `json:"model_name"`
	EnableITN  bool   `json:"enable_itn"`
	EnablePunc bool   `json:"enable_punc"`
	EnableDDC  bool   `json:"enable_ddc"`
	EnableWord bool   `json:"enable_word"`
	ResType    string `json:"res_type"`
	NBest      int    `json:"nbest"`
	UseVAD     bool   `json:"use_vad"`
}

func buildInitialRequestJSON(mode Mode) []byte {
	audio := initialRequestAudio{
		Format:  "pcm",
		Rate:    SampleRateHz,
		Bits:    BitsPerSample,
		Channel: Channels,
	}
	if mode == ModeNoStream {
		audio.Language = "zh-CN"
	}

	req := initialRequest{
		User:  initialRequestUser{UID: "anytalk"},
		Audio: audio,
		Request: initialRequestRequest{
			ModelName:  "bigmodel",
			EnableITN:  true,
			EnablePunc: true,
			EnableDDC:  false,
			EnableWord: false,
			ResType:    "full",
			NBest:      1,
			UseVAD:     true,
		},
	}

	// Marshal never fails for this fixed, non-cyclic struct.
	body, _ := json.Marshal(req)
	return body
}
