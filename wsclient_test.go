package anytalk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newEchoWSServer starts an httptest server that upgrades to WebSocket and
// echoes every binary message back to the caller. It is used in place of the
// real vendor endpoint for wsClient round-trip tests.
func newEchoWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("server upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	return srv
}

func dialEcho(t *testing.T, srv *httptest.Server) *wsClient {
	t.Helper()
	host, port, _ := strings.Cut(strings.TrimPrefix(srv.URL, "http://"), ":")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	d := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	url := "ws://" + host + ":" + port + "/"
	conn, _, err := d.DialContext(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return &wsClient{conn: conn}
}

func TestWSClient_SendBinaryAndReadFrame(t *testing.T) {
	srv := newEchoWSServer(t)
	defer srv.Close()

	c := dialEcho(t, srv)
	defer c.Close()

	want := []byte{0x11, 0x10, 0x10, 0x00, 0x01, 0x02, 0x03}
	if err := c.SendBinary(want); err != nil {
		t.Fatalf("SendBinary() error = %v", err)
	}

	c.SetReadTimeout(time.Second)
	opcode, data, err := c.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if opcode != OpBinary {
		t.Errorf("opcode = %v, want OpBinary", opcode)
	}
	if string(data) != string(want) {
		t.Errorf("echoed data = %v, want %v", data, want)
	}
}

func TestWSClient_ReadFrame_TimeoutIsWouldBlock(t *testing.T) {
	srv := newEchoWSServer(t)
	defer srv.Close()

	c := dialEcho(t, srv)
	defer c.Close()

	c.SetReadTimeout(50 * time.Millisecond)
	_, _, err := c.ReadFrame()
	if err != ErrWouldBlock {
		t.Errorf("ReadFrame() error = %v, want ErrWouldBlock", err)
	}
}

func TestWSClient_Close_ReadFrameAfterClose(t *testing.T) {
	srv := newEchoWSServer(t)
	defer srv.Close()

	c := dialEcho(t, srv)
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, _, err := c.ReadFrame(); err == nil {
		t.Error("ReadFrame() after Close() error = nil, want error")
	}
}
