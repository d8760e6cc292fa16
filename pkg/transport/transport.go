// ABOUTME: Message transport abstraction for the control connection
// ABOUTME: Conn carries whole text frames; Dialer opens them
package transport

import (
	"context"
	"errors"
	"net/http"
)

// ErrClosed is returned by Conn methods after Close.
var ErrClosed = errors.New("transport closed")

// Conn is an established message-oriented connection.
//
// ReadMessage must only be called from one goroutine. WriteMessage may be
// called concurrently with ReadMessage but not with itself.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens a Conn to target.
type Dialer interface {
	Dial(ctx context.Context, target string, header http.Header) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, target string, header http.Header) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, target string, header http.Header) (Conn, error) {
	return f(ctx, target, header)
}
