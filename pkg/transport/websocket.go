// ABOUTME: gorilla/websocket implementation of Dialer and Conn
// ABOUTME: Text frames only; binary frames are skipped
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultHandshakeTimeout bounds the opening handshake.
const DefaultHandshakeTimeout = 10 * time.Second

// WebSocketDialer dials ws:// and wss:// targets.
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// NewWebSocketDialer returns a dialer with default timeouts.
func NewWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     5 * time.Second,
	}
}

// Dial opens a websocket connection to target.
func (d *WebSocketDialer) Dial(ctx context.Context, target string, header http.Header) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = DefaultHandshakeTimeout
	}

	conn, resp, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial failed (%s): %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	return NewWebSocketConn(conn, d.WriteTimeout), nil
}

// WebSocketConn wraps a *websocket.Conn as a Conn.
type WebSocketConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewWebSocketConn wraps an established connection.
func NewWebSocketConn(conn *websocket.Conn, writeTimeout time.Duration) *WebSocketConn {
	return &WebSocketConn{conn: conn, writeTimeout: writeTimeout}
}

// ReadMessage returns the next text frame.
func (c *WebSocketConn) ReadMessage() ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return nil, ErrClosed
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrClosed
			}
			if errors.Is(err, websocket.ErrCloseSent) {
				return nil, ErrClosed
			}
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return data, nil
		}
	}
}

// WriteMessage sends data as one text frame.
func (c *WebSocketConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame and tears down the connection. Only the first
// call has any effect.
func (c *WebSocketConn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
