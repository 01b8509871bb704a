package anytalk

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"time"
)

// tlsStream is a blocking TCP+TLS client with a configurable read timeout,
// hostname verification, and SNI (spec §4.1). It owns its socket, TLS
// state, and is not safe for concurrent use by more than one goroutine at
// a time — the WebSocket client above it is the sole owner.
type tlsStream struct {
	conn        *tls.Conn
	readTimeout time.Duration
}

// dialTLSStream resolves host (IPv4 or IPv6 via Go's dual-stack dialer),
// opens a TCP socket, and completes a TLS handshake with SNI set to host
// and platform trust-store hostname verification enabled.
func dialTLSStream(ctx context.Context, host, port string, dialTimeout time.Duration) (*tlsStream, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	tlsDialer := &tls.Dialer{
		NetDialer: dialer,
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: false,
			MinVersion:         tls.VersionTLS12,
		},
	}

	rawConn, err := tlsDialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		if isHandshakeErr(err) {
			return nil, newTransportError(KindTLSHandshakeFailure, "tls.DialContext", err)
		}
		return nil, newTransportError(KindTCPFailure, "tls.DialContext", err)
	}

	conn, ok := rawConn.(*tls.Conn)
	if !ok {
		_ = rawConn.Close()
		return nil, newTransportError(KindTLSHandshakeFailure, "tls.DialContext", nil)
	}

	return &tlsStream{conn: conn}, nil
}

// isHandshakeErr distinguishes a TLS handshake failure from a lower-level
// DNS/TCP failure. tls.Dialer returns *net.OpError for connect-phase
// failures (Op == "dial") and various error types for handshake failures
// (Op == "remote" or a *tls.RecordHeaderError); we key off the OpError's Op
// field, which is the only stable signal across Go versions.
func isHandshakeErr(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op != "dial"
	}
	return true
}

// ConnectionInfo exposes the negotiated TLS parameters for diagnostics.
type ConnectionInfo struct {
	Version     uint16
	CipherSuite uint16
	ServerName  string
}

func (s *tlsStream) ConnectionInfo() ConnectionInfo {
	st := s.conn.ConnectionState()
	return ConnectionInfo{Version: st.Version, CipherSuite: st.CipherSuite, ServerName: st.ServerName}
}

// SetReadTimeout configures the socket receive timeout. A subsequent Read
// that does not complete within the timeout returns ErrWouldBlock.
func (s *tlsStream) SetReadTimeout(d time.Duration) {
	s.readTimeout = d
	if d > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(d))
	} else {
		_ = s.conn.SetReadDeadline(time.Time{})
	}
}

// Read fills buf with up to len(buf) bytes, returning 0 < n <= len(buf) on
// success. A deadline timeout surfaces as ErrWouldBlock, distinct from
// ErrConnectionClosed.
func (s *tlsStream) Read(buf []byte) (int, error) {
	if s.readTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}
	n, err := s.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, ErrWouldBlock
		}
		if errors.Is(err, io.EOF) {
			return n, ErrConnectionClosed
		}
		return n, newTransportError(KindTLSReadFailure, "Read", err)
	}
	return n, nil
}

// Write writes the entirety of buf, blocking until done or an error occurs.
func (s *tlsStream) Write(buf []byte) error {
	_, err := s.conn.Write(buf)
	if err != nil {
		return newTransportError(KindTLSWriteFailure, "Write", err)
	}
	return nil
}

// Close is idempotent.
func (s *tlsStream) Close() error {
	return s.conn.Close()
}
