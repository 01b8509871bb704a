package anytalk

import "fmt"

// AnytalkError is the base interface for all errors originating from the
// session engine. It lets hosts type-switch on coarse error kinds without
// string-matching messages.
type AnytalkError interface {
	error
	IsAnytalkError()
	// Kind returns the coarse taxonomy bucket this error belongs to, e.g.
	// "dial-failure", "tls-handshake-failure" (see spec §7).
	Kind() string
}

// TransportError covers every failure below the WebSocket framing layer:
// DNS, TCP, TLS handshake, TLS read/write, and WebSocket handshake
// failures. It is also used for vendor frame and response JSON decode
// failures (kind protocol-decode-failure). The pool logs dial errors as
// they are and retries; it does not rewrap them.
type TransportError struct {
	kind string
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("anytalk: %s: %s", e.kind, e.Op)
	}
	return fmt.Sprintf("anytalk: %s: %s: %v", e.kind, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) IsAnytalkError() {}

func (e *TransportError) Kind() string { return e.kind }

// Transport error kinds, per spec §4.1 and §7.
const (
	KindDNSFailure            = "dns-failure"
	KindTCPFailure            = "tcp-failure"
	KindTLSHandshakeFailure   = "tls-handshake-failure"
	KindTLSReadFailure        = "tls-read-failure"
	KindTLSWriteFailure       = "tls-write-failure"
	KindConnectionClosed      = "connection-closed"
	KindWouldBlock            = "would-block"
	KindWebSocketHandshake    = "websocket-handshake-failure"
	KindDialFailure           = "dial-failure"
	KindDeviceUnavailable     = "device-unavailable"
	KindProtocolDecodeFailure = "protocol-decode-failure"
)

func newTransportError(kind, op string, err error) *TransportError {
	return &TransportError{kind: kind, Op: op, Err: err}
}

// ErrWouldBlock is returned by tlsStream.Read and wsClient.ReadFrame when a
// configured read deadline elapses without data arriving. It is distinct
// from connection-closed so callers (the session worker) can tell "nothing
// yet" from "the peer hung up".
var ErrWouldBlock = newTransportError(KindWouldBlock, "read", nil)

// ErrConnectionClosed is returned when the peer closed the connection.
var ErrConnectionClosed = newTransportError(KindConnectionClosed, "read", nil)

// ServerFrameError is raised when the vendor sends an error-kind frame
// (spec §4.3). The numeric code is the wire-level vendor error code; it is
// logged but never forwarded to the host per spec §6.
type ServerFrameError struct {
	Code    uint32
	Message string
}

func (e *ServerFrameError) Error() string {
	return fmt.Sprintf("anytalk: server error %d: %s", e.Code, e.Message)
}

func (e *ServerFrameError) IsAnytalkError() {}

func (e *ServerFrameError) Kind() string { return "server-error-frame" }

// DeviceUnavailableError is returned by AudioCapture.Start when the system
// capture device cannot be opened. It is non-fatal: init still succeeds and
// a later Start may succeed once the device appears.
type DeviceUnavailableError struct {
	Err error
}

func (e *DeviceUnavailableError) Error() string {
	return fmt.Sprintf("anytalk: capture device unavailable: %v", e.Err)
}

func (e *DeviceUnavailableError) Unwrap() error { return e.Err }

func (e *DeviceUnavailableError) IsAnytalkError() {}

func (e *DeviceUnavailableError) Kind() string { return KindDeviceUnavailable }
