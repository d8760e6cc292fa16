// ABOUTME: Player control client over a persistent JSON-RPC connection
// ABOUTME: Owns the connection lifecycle, the mirror store and outbound commands
package spotlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/spotlink/spotlink/internal/version"
	"github.com/spotlink/spotlink/pkg/mirror"
	"github.com/spotlink/spotlink/pkg/protocol"
	"github.com/spotlink/spotlink/pkg/transport"
)

var (
	// ErrNotConnected is returned by commands issued while the connection is
	// not open.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected is returned by Connect when a connection is already
	// open or being opened.
	ErrAlreadyConnected = errors.New("already connected")
)

// ClientIDHeader carries the per-client session id on the handshake.
const ClientIDHeader = "X-Spotlink-Client"

// ConnState is the connection lifecycle state.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Open
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	}
	return "unknown"
}

// Config holds client configuration
type Config struct {
	// Target is the player address: host, host:port or a ws:// URL.
	Target string

	// Dialer opens the transport (default: websocket)
	Dialer transport.Dialer

	// Logger receives diagnostics (default: logrus standard logger)
	Logger logrus.FieldLogger

	// RequestTTL bounds how long unanswered requests are tracked
	RequestTTL time.Duration

	// MinBackoff and MaxBackoff bound the reconnect delay used by Run
	MinBackoff time.Duration
	MaxBackoff time.Duration

	// UserAgent is sent on the handshake
	UserAgent string

	// OnStateChange is called after every applied event or result
	OnStateChange func(mirror.PlayerState)

	// OnConnectionChange is called on every lifecycle transition
	OnConnectionChange func(ConnState)
}

// Client mirrors the state of one remote player.
type Client struct {
	config Config
	target string
	id     string
	log    *logrus.Entry

	store      *mirror.Store
	tracker    *Tracker
	dispatcher *Dispatcher

	mu    sync.RWMutex
	state ConnState
	conn  transport.Conn
	done  chan struct{}

	// writeMu orders request id allocation with the socket write.
	writeMu sync.Mutex

	obsMu       sync.Mutex
	connObs     map[uint64]func(ConnState)
	nextConnObs uint64
}

// New creates a disconnected client.
func New(config Config) (*Client, error) {
	target, err := NormalizeTarget(config.Target)
	if err != nil {
		return nil, err
	}

	if config.Dialer == nil {
		config.Dialer = transport.NewWebSocketDialer()
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	if config.RequestTTL == 0 {
		config.RequestTTL = DefaultRequestTTL
	}
	if config.MinBackoff == 0 {
		config.MinBackoff = DefaultMinBackoff
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = DefaultMaxBackoff
	}
	if config.UserAgent == "" {
		config.UserAgent = version.UserAgent()
	}

	id := uuid.New().String()
	log := config.Logger.WithFields(logrus.Fields{
		"client": id[:8],
		"target": target,
	})

	store := mirror.NewStore()
	tracker := NewTracker(config.RequestTTL)

	c := &Client{
		config:     config,
		target:     target,
		id:         id,
		log:        log,
		store:      store,
		tracker:    tracker,
		dispatcher: NewDispatcher(store, tracker, log),
		connObs:    make(map[uint64]func(ConnState)),
	}

	if config.OnStateChange != nil {
		store.Subscribe(config.OnStateChange)
	}
	if config.OnConnectionChange != nil {
		c.SubscribeConnection(config.OnConnectionChange)
	}

	return c, nil
}

// Target returns the normalized websocket URL.
func (c *Client) Target() string {
	return c.target
}

// ID returns the session id sent on every handshake.
func (c *Client) ID() string {
	return c.id
}

// Subscribe registers a state observer and returns its unsubscribe function.
func (c *Client) Subscribe(fn func(mirror.PlayerState)) (unsubscribe func()) {
	return c.store.Subscribe(fn)
}

// SubscribeConnection registers a lifecycle observer.
func (c *Client) SubscribeConnection(fn func(ConnState)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	c.obsMu.Lock()
	id := c.nextConnObs
	c.nextConnObs++
	c.connObs[id] = fn
	c.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.obsMu.Lock()
			delete(c.connObs, id)
			c.obsMu.Unlock()
		})
	}
}

// Snapshot returns a copy of the mirrored state.
func (c *Client) Snapshot() mirror.PlayerState {
	return c.store.Snapshot()
}

// State returns the connection state. After a drop it stays Open until the
// pending requests and the mirror have been reset.
func (c *Client) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is open.
func (c *Client) IsConnected() bool {
	return c.State() == Open
}

// Done returns a channel closed when the current connection has ended and the
// mirror has been reset. Without a connection the channel is already closed.
func (c *Client) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// Connect opens the connection and requests a full status before any other
// command can be sent. It returns ErrAlreadyConnected while a previous
// connection is still being torn down.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.connect(ctx)
	return err
}

func (c *Client) connect(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return nil, ErrAlreadyConnected
	}
	c.state = Connecting
	c.mu.Unlock()
	c.notifyConnection(Connecting)

	c.log.Info("Connecting")

	header := http.Header{}
	header.Set("User-Agent", c.config.UserAgent)
	header.Set(ClientIDHeader, c.id)

	conn, err := c.config.Dialer.Dial(ctx, c.target, header)
	if err != nil {
		c.setDisconnected()
		return nil, fmt.Errorf("connect to %s: %w", c.target, err)
	}

	done := make(chan struct{})

	c.writeMu.Lock()
	c.tracker.Reset()
	req := c.tracker.Record(protocol.MethodGetStatus, nil)
	err = c.write(conn, req)
	if err == nil {
		c.mu.Lock()
		c.conn = conn
		c.done = done
		c.state = Open
		c.mu.Unlock()
	}
	c.writeMu.Unlock()

	if err != nil {
		conn.Close()
		c.tracker.Reset()
		c.setDisconnected()
		return nil, fmt.Errorf("initial status request failed: %w", err)
	}

	c.log.Info("Connected")
	c.notifyConnection(Open)

	go c.readMessages(conn, done)

	return done, nil
}

func (c *Client) setDisconnected() {
	c.mu.Lock()
	c.state = Disconnected
	c.mu.Unlock()
	c.notifyConnection(Disconnected)
}

// readMessages is the only goroutine that mutates the mirror while a
// connection is open.
func (c *Client) readMessages(conn transport.Conn, done chan struct{}) {
	defer close(done)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}

		outcome := c.dispatcher.Dispatch(data)
		if c.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
			c.log.WithField("outcome", outcome).Tracef("Inbound %s", data)
		}
	}
}

func (c *Client) handleDisconnect(conn transport.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	// Commands fail from here on; Connect is refused until the reset below.
	c.conn = nil
	c.mu.Unlock()

	conn.Close()

	if errors.Is(cause, transport.ErrClosed) {
		c.log.Info("Connection closed")
	} else {
		c.log.WithError(cause).Warn("Connection lost")
	}

	dropped := c.tracker.Pending()
	c.tracker.Reset()
	if dropped > 0 {
		c.log.WithField("pending", dropped).Debug("Dropped unanswered requests")
	}

	c.store.Reset()
	c.setDisconnected()
}

// Close closes the current connection. The reset and observer notifications
// happen on the reader goroutine; wait on Done to observe them.
func (c *Client) Close() error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Run keeps the client connected until ctx is cancelled, reconnecting with
// exponential backoff.
func (c *Client) Run(ctx context.Context) error {
	b := newBackoff(c.config.MinBackoff, c.config.MaxBackoff)

	for {
		done, err := c.connect(ctx)
		switch {
		case err == nil:
			b.Reset()
			select {
			case <-done:
			case <-ctx.Done():
				c.Close()
				<-done
				return ctx.Err()
			}
		case errors.Is(err, ErrAlreadyConnected):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			c.log.WithError(err).Warn("Connect failed")
		}

		delay := b.Next()
		c.log.WithField("delay", delay).Info("Reconnecting")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Play resumes playback.
func (c *Client) Play() error { return c.send(protocol.MethodSetPlay, nil) }

// Pause pauses playback.
func (c *Client) Pause() error { return c.send(protocol.MethodSetPause, nil) }

// Next skips to the next track.
func (c *Client) Next() error { return c.send(protocol.MethodSetNext, nil) }

// SetVolume sets the device volume in raw units (0-65535).
func (c *Client) SetVolume(volume int) error {
	return c.send(protocol.MethodSetVolume, volume)
}

// ShuffleOn enables shuffle.
func (c *Client) ShuffleOn() error { return c.send(protocol.MethodSetShuffleOn, nil) }

// ShuffleOff disables shuffle.
func (c *Client) ShuffleOff() error { return c.send(protocol.MethodSetShuffleOff, nil) }

// RequestStatus asks for a full snapshot.
func (c *Client) RequestStatus() error { return c.send(protocol.MethodGetStatus, nil) }

// RequestVolume asks for the current volume.
func (c *Client) RequestVolume() error { return c.send(protocol.MethodGetVolume, nil) }

// RequestPlayState asks for the current play state.
func (c *Client) RequestPlayState() error { return c.send(protocol.MethodGetPlayState, nil) }

// send issues a request without waiting for the response; the result is
// merged into the mirror when it arrives.
func (c *Client) send(method protocol.Method, params any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	conn, state := c.conn, c.state
	c.mu.RUnlock()

	if state != Open || conn == nil {
		return ErrNotConnected
	}

	req := c.tracker.Record(method, params)
	if err := c.write(conn, req); err != nil {
		c.tracker.Resolve(req.ID)
		return fmt.Errorf("send %s: %w", method, err)
	}
	return nil
}

func (c *Client) write(conn transport.Conn, req protocol.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"method":     req.Method,
	}).Debug("Sending request")

	return conn.WriteMessage(data)
}

func (c *Client) notifyConnection(state ConnState) {
	c.obsMu.Lock()
	observers := make([]func(ConnState), 0, len(c.connObs))
	for _, id := range slices.Sorted(maps.Keys(c.connObs)) {
		observers = append(observers, c.connObs[id])
	}
	c.obsMu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}
