package anytalk

import (
	"errors"
	"net"
	"testing"
)

func TestIsHandshakeErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "dial-phase OpError is not a handshake failure",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			want: false,
		},
		{
			name: "remote-phase OpError is a handshake failure",
			err:  &net.OpError{Op: "remote", Net: "tcp", Err: errors.New("tls: bad certificate")},
			want: true,
		},
		{
			name: "non-OpError defaults to handshake failure",
			err:  errors.New("tls: first record does not look like a TLS handshake"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHandshakeErr(tt.err); got != tt.want {
				t.Errorf("isHandshakeErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
