package anytalk

import (
	"io"
	"log/slog"
	"time"
)

// Config holds the credentials and service-tier selection for a Context.
// It is immutable after Init (spec §3).
type Config struct {
	// AppID, AccessToken, ResourceID are opaque strings sent as request
	// headers to the remote ASR service.
	AppID       string
	AccessToken string
	ResourceID  string
	// Mode selects the service endpoint path and request shape.
	Mode Mode
}

// withDefaults returns a copy of c with ResourceID/Mode defaulted per the
// embedding API contract (spec §6).
func (c Config) withDefaults() Config {
	if c.ResourceID == "" {
		c.ResourceID = DefaultResourceID
	}
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	return c
}

// ContextOption configures a Context at construction time.
type ContextOption func(*contextOptions)

type contextOptions struct {
	logger      *slog.Logger
	host        string
	port        string
	dialTimeout time.Duration
	readTimeout time.Duration
	recorder    io.Writer
	dialer      dialer
	capturer    capturer
}

func defaultContextOptions() *contextOptions {
	return &contextOptions{
		logger:      slog.Default(),
		host:        defaultHost,
		port:        defaultPort,
		dialTimeout: 10 * time.Second,
		readTimeout: 200 * time.Millisecond,
	}
}

// WithLogger sets the structured logger used by every internal goroutine
// (capture thread, pool maintainer, session worker, drain-wait thread).
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) ContextOption {
	return func(o *contextOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEndpoint overrides the remote service host and port. Intended for
// tests that stand up a local fake server; production hosts should not
// need this.
func WithEndpoint(host, port string) ContextOption {
	return func(o *contextOptions) {
		o.host = host
		o.port = port
	}
}

// WithDialTimeout bounds how long an on-demand dial (pool miss) may take
// before it is treated as a dial-failure.
func WithDialTimeout(d time.Duration) ContextOption {
	return func(o *contextOptions) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}

// WithReadTimeout overrides the WebSocket read timeout the session worker
// configures so it can re-check its running flag (default 200ms, spec §4.8).
func WithReadTimeout(d time.Duration) ContextOption {
	return func(o *contextOptions) {
		if d > 0 {
			o.readTimeout = d
		}
	}
}

// WithRecorder enables the optional msgpack debug recorder (see
// recorder.go); every inbound vendor frame and derived event is encoded to
// w. Off by default. Never records raw audio (Non-goals, spec §1).
func WithRecorder(w io.Writer) ContextOption {
	return func(o *contextOptions) {
		o.recorder = w
	}
}

// WithDialer overrides how the pool and on-demand dials obtain a WSClient.
// Exposed for tests; production hosts should not need this.
func WithDialer(d dialer) ContextOption {
	return func(o *contextOptions) {
		if d != nil {
			o.dialer = d
		}
	}
}

// WithCapturer overrides the audio capture backend. Exposed for tests that
// cannot open a real microphone; production hosts should not need this.
func WithCapturer(c capturer) ContextOption {
	return func(o *contextOptions) {
		if c != nil {
			o.capturer = c
		}
	}
}

const (
	defaultHost = "openspeech.bytedance.com"
	defaultPort = "443"
)

// Pool tuning constants (spec §4.7), plus the session's send-failure grace
// window and the WebSocket read limit.
const (
	poolRetryBackoff   = 3 * time.Second
	poolSettleDelay    = 100 * time.Millisecond
	poolConsumedWait   = 30 * time.Second
	sendFailureGrace   = 2 * time.Second
	maxWireFrameLength = 16 << 20 // 16 MiB, spec §4.2
)
