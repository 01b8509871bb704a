package anytalk

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// buildRequestHeaders constructs the headers sent on every dial, per
// spec §6: credentials plus a fresh connect-id UUID v4.
func buildRequestHeaders(cfg Config) http.Header {
	h := http.Header{}
	h.Set("X-Api-App-Key", cfg.AppID)
	h.Set("X-Api-Access-Key", cfg.AccessToken)
	h.Set("X-Api-Resource-Id", cfg.ResourceID)
	h.Set("X-Api-Connect-Id", uuid.New().String())
	return h
}

// connectionPool maintains at most one idle pre-connected WebSocket
// session, replenishing it in a background goroutine with bounded retry
// backoff (spec §4.7). Consumers take the spare non-blockingly; the
// maintainer refills after being signaled plus a short settling delay.
type connectionPool struct {
	logger      *slog.Logger
	dialer      dialer
	cfg         Config
	host, port  string
	dialTimeout time.Duration

	mu    sync.Mutex
	spare *wsClient

	consumed chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
}

func newConnectionPool(logger *slog.Logger, d dialer, cfg Config, host, port string, dialTimeout time.Duration) *connectionPool {
	return &connectionPool{
		logger:      logger,
		dialer:      d,
		cfg:         cfg,
		host:        host,
		port:        port,
		dialTimeout: dialTimeout,
	}
}

// Start spawns the maintainer goroutine. Not idempotent — callers (Context)
// invoke it exactly once per pool instance.
func (p *connectionPool) Start() {
	p.done = make(chan struct{})
	p.consumed = make(chan struct{}, 1)
	p.wg.Add(1)
	go p.maintain()
}

func (p *connectionPool) maintain() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		default:
		}

		p.mu.Lock()
		empty := p.spare == nil
		p.mu.Unlock()

		if empty {
			conn, err := p.dial()
			if err != nil {
				p.logger.Warn("pool: dial failed, backing off", slog.String("error", err.Error()))
				select {
				case <-time.After(poolRetryBackoff):
					continue
				case <-p.done:
					return
				}
			}
			p.mu.Lock()
			p.spare = conn
			p.mu.Unlock()
			p.logger.Debug("pool: spare connection ready")
		}

		select {
		case <-p.done:
			return
		case <-p.consumed:
			select {
			case <-time.After(poolSettleDelay):
			case <-p.done:
				return
			}
		case <-time.After(poolConsumedWait):
			// Periodic health-check window; loop around and re-check the
			// spare slot (no-op if it is still occupied and unconsumed).
		}
	}
}

func (p *connectionPool) dial() (*wsClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.dialTimeout)
	defer cancel()
	return p.dialer.Dial(ctx, p.host, p.port, p.cfg.Mode, buildRequestHeaders(p.cfg))
}

// Take atomically removes and returns the spare connection, if any, and
// signals the maintainer to start refilling. Never blocks.
func (p *connectionPool) Take() (*wsClient, bool) {
	p.mu.Lock()
	conn := p.spare
	p.spare = nil
	p.mu.Unlock()

	if conn == nil {
		return nil, false
	}

	select {
	case p.consumed <- struct{}{}:
	default:
	}
	return conn, true
}

// Stop joins the maintainer goroutine and closes any held spare
// connection. Safe to call once after Start; a zero-value pool (Start
// never called) is a no-op.
func (p *connectionPool) Stop() {
	if p.done == nil {
		return
	}
	select {
	case <-p.done:
		return
	default:
		close(p.done)
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.spare != nil {
		_ = p.spare.Close()
		p.spare = nil
	}
	p.mu.Unlock()
}
