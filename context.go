package anytalk

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Context is the top-level coordinator (spec §4.9): it owns audio
// capture, the connection pool, and at most one active session plus at
// most one draining session, and serializes Start/Stop/Cancel from
// arbitrary host goroutines behind a single mutex.
//
// Invariant: at most one active session at a time; a draining session may
// coexist with a newer active session only after being explicitly aborted
// during a re-start (spec §3, §4.9 step 1).
type Context struct {
	cfg         Config
	cb          EventCallback
	logger      *slog.Logger
	dialer      dialer
	host, port  string
	dialTimeout time.Duration
	readTimeout time.Duration
	recorder    *recorder

	capture capturer
	target  *audioTarget
	pool    *connectionPool

	mu              sync.Mutex // guards activeSession/drainingSession below
	activeSession   *session
	drainingSession *session
}

// NewContext duplicates cfg (defaulting ResourceID/Mode per spec §6),
// starts audio capture best-effort, and starts the connection pool
// maintainer. It never blocks on a real dial.
func NewContext(cfg Config, cb EventCallback, opts ...ContextOption) *Context {
	o := defaultContextOptions()
	for _, opt := range opts {
		opt(o)
	}

	cfg = cfg.withDefaults()

	capt := o.capturer
	if capt == nil {
		capt = newPortAudioCapture(o.logger)
	}

	d := o.dialer
	if d == nil {
		d = tlsDialer{dialTimeout: o.dialTimeout}
	}

	c := &Context{
		cfg:         cfg,
		cb:          cb,
		logger:      o.logger,
		dialer:      d,
		host:        o.host,
		port:        o.port,
		dialTimeout: o.dialTimeout,
		readTimeout: o.readTimeout,
		recorder:    newRecorder(o.recorder),
		capture:     capt,
		target:      &audioTarget{},
	}
	c.pool = newConnectionPool(o.logger, d, cfg, o.host, o.port, o.dialTimeout)

	if err := c.capture.Start(c.target); err != nil {
		c.logger.Warn("context: capture device unavailable at init", slog.String("error", err.Error()))
	}
	c.pool.Start()

	return c
}

func (c *Context) emit(evt Event) {
	if c.recorder != nil {
		c.recorder.RecordEvent(evt)
	}
	if c.cb != nil {
		c.cb(evt)
	}
}

func (c *Context) sessionCallback() EventCallback {
	return c.emit
}

// abortDraining cancels and joins any draining session. Callers must hold
// c.mu; this method releases it around the join to avoid deadlocking with
// the drain-wait goroutine spawned by Stop, which also acquires c.mu on
// completion (spec §9 "Drain-thread / mutex interaction"). c.mu is held
// again on return.
func (c *Context) abortDraining() {
	s := c.drainingSession
	if s == nil {
		return
	}
	s.Cancel()
	c.mu.Unlock()
	s.Join()
	c.mu.Lock()
	if c.drainingSession == s {
		c.drainingSession = nil
	}
}

// drainWait is spawned once per Stop call that found an active session. It
// joins the session's worker and clears the draining slot, racing
// harmlessly with a concurrent Start's abortDraining (whichever gets c.mu
// first clears the slot; the other sees it already nil).
func (c *Context) drainWait(s *session) {
	s.Join()
	c.mu.Lock()
	if c.drainingSession == s {
		c.drainingSession = nil
	}
	c.mu.Unlock()
}

// Start begins a new session (spec §4.9 start_session). dialCtx bounds an
// on-demand dial when the pool has no spare connection; it does not bound
// the session's lifetime.
func (c *Context) Start(dialCtx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.abortDraining()

	if err := c.capture.Start(c.target); err != nil {
		c.logger.Debug("context: capture retry at start failed", slog.String("error", err.Error()))
	}

	if c.activeSession != nil {
		old := c.activeSession
		c.activeSession = nil
		old.Cancel()
		c.mu.Unlock()
		old.Join()
		c.mu.Lock()
	}

	conn, ok := c.pool.Take()
	if !ok {
		c.emit(Event{Type: EventStatus, Text: StatusConnecting})

		dialTimeoutCtx, cancel := context.WithTimeout(dialCtx, c.dialTimeout)
		dialed, err := c.dialer.Dial(dialTimeoutCtx, c.host, c.port, c.cfg.Mode, buildRequestHeaders(c.cfg))
		cancel()
		if err != nil {
			c.logger.Warn("context: on-demand dial failed", slog.String("error", err.Error()))
			c.emit(Event{Type: EventError, Text: "connection failed"})
			return errors.New("anytalk: start_session: connection failed")
		}
		conn = dialed
	}

	sess := newSession(conn, c.cfg, c.sessionCallback(), c.target, c.logger, c.readTimeout, c.recorder)
	c.activeSession = sess
	sess.Start()

	c.emit(Event{Type: EventStatus, Text: StatusRecording})
	return nil
}

// Stop gracefully ends the active session: it detaches the audio sink and
// moves the session to the draining slot, then returns immediately. A
// background goroutine reaps the session once the server finishes
// draining (spec §4.9 stop_session).
func (c *Context) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.abortDraining()

	if c.activeSession == nil {
		c.emit(Event{Type: EventStatus, Text: StatusIdle})
		return
	}

	s := c.activeSession
	c.activeSession = nil
	s.StopAudio()
	c.drainingSession = s
	go c.drainWait(s)
}

// Cancel aborts the active session immediately, aborts any draining
// session, and always emits an idle status (spec §4.9 cancel; the host
// treats multiple idles as idempotent, per §4.9 Status events).
func (c *Context) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeSession != nil {
		s := c.activeSession
		c.activeSession = nil
		s.Cancel()
		c.mu.Unlock()
		s.Join()
		c.mu.Lock()
	}

	c.abortDraining()
	c.emit(Event{Type: EventStatus, Text: StatusIdle})
}

// Destroy cancels any in-flight work and stops the pool and capture
// goroutines concurrently, since neither depends on the other. The Context
// must not be used afterward.
func (c *Context) Destroy() {
	c.Cancel()

	var g errgroup.Group
	g.Go(func() error {
		c.pool.Stop()
		return nil
	})
	g.Go(func() error {
		c.capture.Stop()
		return nil
	})
	_ = g.Wait()
}
