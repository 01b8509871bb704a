package anytalk

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Opcode identifies the kind of WebSocket message a ReadFrame call
// produced (spec §4.2).
type Opcode int

const (
	OpBinary Opcode = iota
	OpText
	OpClose
	OpPing
	OpPong
	OpUnknown
)

// wsClient is an RFC 6455 WebSocket client built on top of tlsStream
// (spec §4.2). Client frames are always masked; server frames are
// expected unmasked. Only one goroutine may own a wsClient at a time (the
// session worker).
type wsClient struct {
	conn *websocket.Conn
}

// dialer abstracts WebSocket dialing so tests can substitute a fake without
// a real TLS handshake. The production implementation is dialWebSocket.
type dialer interface {
	Dial(ctx context.Context, host, port string, mode Mode, headers http.Header) (*wsClient, error)
}

type tlsDialer struct {
	dialTimeout time.Duration
}

func (d tlsDialer) Dial(ctx context.Context, host, port string, mode Mode, headers http.Header) (*wsClient, error) {
	return dialWebSocket(ctx, host, port, mode.path(), headers, d.dialTimeout)
}

// dialWebSocket performs the RFC 6455 upgrade handshake over a connection
// established by our own tlsStream (SNI set to host, hostname verification
// against the platform trust store — spec §4.1), then hands the
// established TLS connection to gorilla/websocket for framing.
func dialWebSocket(ctx context.Context, host, port, path string, headers http.Header, dialTimeout time.Duration) (*wsClient, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	d := websocket.Dialer{
		HandshakeTimeout: dialTimeout,
		NetDialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			stream, err := dialTLSStream(ctx, host, port, dialTimeout)
			if err != nil {
				return nil, err
			}
			return stream.conn, nil
		},
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}

	url := "wss://" + net.JoinHostPort(host, port) + path
	conn, resp, err := d.DialContext(dialCtx, url, headers)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, newTransportError(KindWebSocketHandshake, "DialContext", err)
		}
		if te, ok := err.(*TransportError); ok {
			return nil, te
		}
		return nil, newTransportError(KindWebSocketHandshake, "DialContext", err)
	}

	conn.SetReadLimit(maxWireFrameLength)
	return &wsClient{conn: conn}, nil
}

// SetReadTimeout bounds how long ReadFrame blocks before returning
// ErrWouldBlock, so the session worker can re-check its running flag at a
// bounded cadence (spec §4.8, §5).
func (c *wsClient) SetReadTimeout(d time.Duration) {
	if d > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(d))
	} else {
		_ = c.conn.SetReadDeadline(time.Time{})
	}
}

// ReadFrame returns the next application message. Ping frames are answered
// with a pong carrying the same payload transparently by the underlying
// gorilla/websocket connection (its default ping handler) before
// ReadMessage returns, so ReadFrame never returns OpPing (or OpPong); the
// opcodes are defined for completeness of the Opcode set.
func (c *wsClient) ReadFrame() (Opcode, []byte, error) {
	if c.conn == nil {
		return OpUnknown, nil, ErrConnectionClosed
	}
	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return OpUnknown, nil, ErrWouldBlock
		}
		if websocket.IsCloseError(err,
			websocket.CloseNormalClosure,
			websocket.CloseGoingAway,
			websocket.CloseNoStatusReceived,
			websocket.CloseAbnormalClosure) {
			return OpClose, nil, nil
		}
		return OpUnknown, nil, newTransportError(KindConnectionClosed, "ReadMessage", err)
	}

	switch msgType {
	case websocket.BinaryMessage:
		return OpBinary, data, nil
	case websocket.TextMessage:
		return OpText, data, nil
	default:
		return OpUnknown, data, nil
	}
}

// SendBinary sends payload as a single masked binary message.
func (c *wsClient) SendBinary(payload []byte) error {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		return newTransportError(KindTLSWriteFailure, "WriteMessage", err)
	}
	return nil
}

// SendPong sends a pong control frame carrying payload.
func (c *wsClient) SendPong(payload []byte) error {
	if err := c.conn.WriteControl(websocket.PongMessage, payload, time.Now().Add(5*time.Second)); err != nil {
		return newTransportError(KindTLSWriteFailure, "WriteControl", err)
	}
	return nil
}

// Close is idempotent.
func (c *wsClient) Close() error {
	return c.conn.Close()
}
