// ABOUTME: In-process player for tests
// ABOUTME: Serves the JSON-RPC control API over websocket and HTTP POST
package playertest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/spotlink/spotlink/pkg/protocol"
)

const writeDeadline = 5 * time.Second

// ErrBufferFull is returned when a client is not draining its messages.
var ErrBufferFull = errors.New("client send buffer full")

// Received is one request the server accepted.
type Received struct {
	Method protocol.Method
	Params json.RawMessage
	HTTP   bool
}

// Server is a fake player. Commands change its status and are announced to
// every websocket client, as a real player does.
type Server struct {
	http     *httptest.Server
	upgrader websocket.Upgrader
	log      logrus.FieldLogger

	mu       sync.Mutex
	status   protocol.Status
	failures map[protocol.Method]string
	silent   map[protocol.Method]bool
	received []Received

	clientsMu sync.Mutex
	clients   map[*client]struct{}
	joined    chan struct{}

	wg sync.WaitGroup
}

type client struct {
	conn     *websocket.Conn
	sendChan chan []byte
}

// New starts a server with a stopped, trackless status.
func New(log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		log:      log.WithField("component", "playertest"),
		status:   protocol.Status{Playing: protocol.Stopped, Shuffle: lo.ToPtr(false)},
		failures: make(map[protocol.Method]string),
		silent:   make(map[protocol.Method]bool),
		clients:  make(map[*client]struct{}),
		joined:   make(chan struct{}, 16),
	}
	s.http = httptest.NewServer(s)
	return s
}

// URL returns the websocket URL of the server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.http.URL, "http") + "/"
}

// HTTPURL returns the plain HTTP URL of the server.
func (s *Server) HTTPURL() string {
	return s.http.URL + "/"
}

// Close drops every client and stops the server.
func (s *Server) Close() {
	s.DropClients()
	s.http.Close()
	s.wg.Wait()
}

// SetStatus replaces the status served by getStatus.
func (s *Server) SetStatus(st protocol.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Status returns the current status.
func (s *Server) Status() protocol.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Fail makes method answer with the named error code ("NoControl", ...).
func (s *Server) Fail(method protocol.Method, code string) {
	s.mu.Lock()
	s.failures[method] = code
	s.mu.Unlock()
}

// Silence makes method go unanswered.
func (s *Server) Silence(method protocol.Method) {
	s.mu.Lock()
	s.silent[method] = true
	s.mu.Unlock()
}

// Received returns the requests seen so far.
func (s *Server) Received() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Received(nil), s.received...)
}

// Methods returns the methods of the requests seen so far.
func (s *Server) Methods() []protocol.Method {
	return lo.Map(s.Received(), func(r Received, _ int) protocol.Method {
		return r.Method
	})
}

// WaitClient blocks until a websocket client connects or timeout elapses.
func (s *Server) WaitClient(timeout time.Duration) bool {
	select {
	case <-s.joined:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// DropClients closes every websocket connection without a close frame.
func (s *Server) DropClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		c.conn.Close()
	}
}

// Notify sends a notification to every websocket client.
func (s *Server) Notify(event string, params any) error {
	msg := map[string]any{"jsonrpc": "2.0", "method": event}
	if params != nil {
		msg["params"] = params
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	var errs []error
	for c := range s.clients {
		if err := c.send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ServeHTTP upgrades websocket handshakes and answers one-shot POSTs.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case websocket.IsWebSocketUpgrade(r):
		s.handleWebSocket(w, r)
	case r.Method == http.MethodPost:
		s.handlePost(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reply, _ := s.handleRequest(data, true)
	w.Header().Set("Content-Type", "application/json")
	w.Write(reply)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade error")
		return
	}

	c := &client{conn: conn, sendChan: make(chan []byte, 64)}

	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	s.log.WithField("remote", r.RemoteAddr).Debug("Client connected")
	select {
	case s.joined <- struct{}{}:
	default:
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.writer()
	}()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		close(c.sendChan)
		s.clientsMu.Unlock()
		conn.Close()
		s.log.Debug("Client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		reply, ok := s.handleRequest(data, false)
		if !ok {
			continue
		}
		s.clientsMu.Lock()
		err = c.send(reply)
		s.clientsMu.Unlock()
		if err != nil {
			s.log.WithError(err).Warn("Dropping reply")
		}
	}
}

func (c *client) send(data []byte) error {
	select {
	case c.sendChan <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

func (c *client) writer() {
	for data := range c.sendChan {
		c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

type inbound struct {
	ID     json.RawMessage `json:"id"`
	Method protocol.Method `json:"method"`
	Params json.RawMessage `json:"params"`
}

// handleRequest applies one request and returns the reply. ok is false when
// the request must go unanswered.
func (s *Server) handleRequest(data []byte, viaHTTP bool) (reply []byte, ok bool) {
	var req inbound
	if err := json.Unmarshal(data, &req); err != nil {
		return s.errorReply(json.RawMessage("null"), "Parse", err.Error()), true
	}
	if len(req.ID) == 0 {
		req.ID = json.RawMessage("null")
	}

	s.mu.Lock()
	s.received = append(s.received, Received{Method: req.Method, Params: req.Params, HTTP: viaHTTP})
	code, failing := s.failures[req.Method]
	silent := s.silent[req.Method]
	s.mu.Unlock()

	if silent {
		return nil, false
	}
	if failing {
		return s.errorReply(req.ID, code, ""), true
	}
	if !req.Method.Valid() {
		return s.errorReply(req.ID, "MethodNotFound", string(req.Method)), true
	}

	result, event, params, err := s.apply(req)
	if err != nil {
		return s.errorReply(req.ID, "InvalidParam", err.Error()), true
	}

	if event != "" {
		if err := s.Notify(event, params); err != nil {
			s.log.WithError(err).Warn("Notification dropped")
		}
	}

	return s.resultReply(req.ID, result), true
}

// apply changes the status for req and names the notification it causes.
func (s *Server) apply(req inbound) (result any, event string, params any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Method {
	case protocol.MethodGetStatus:
		return s.status, "", nil, nil
	case protocol.MethodGetVolume:
		return protocol.VolumeParams{Volume: lo.ToPtr(s.status.Volume)}, "", nil, nil
	case protocol.MethodGetPlayState:
		return protocol.PlayStateParams{Playing: lo.ToPtr(s.status.Playing)}, "", nil, nil
	case protocol.MethodSetPlay:
		s.status.Playing = protocol.Playing
		return "Ok", protocol.EventPlay, nil, nil
	case protocol.MethodSetPause:
		s.status.Playing = protocol.Paused
		return "Ok", protocol.EventPause, nil, nil
	case protocol.MethodSetNext:
		return "Ok", "", nil, nil
	case protocol.MethodSetVolume:
		var volume int
		if err := json.Unmarshal(req.Params, &volume); err != nil {
			return nil, "", nil, fmt.Errorf("volume: %w", err)
		}
		s.status.Volume = volume
		return "Ok", protocol.EventVolumeChange, protocol.VolumeParams{Volume: lo.ToPtr(volume)}, nil
	case protocol.MethodSetShuffleOn, protocol.MethodSetShuffleOff:
		on := req.Method == protocol.MethodSetShuffleOn
		s.status.Shuffle = lo.ToPtr(on)
		return "Ok", protocol.EventShuffleChange, protocol.ShuffleParams{Shuffle: lo.ToPtr(on)}, nil
	}

	return nil, "", nil, fmt.Errorf("unhandled method %s", req.Method)
}

func (s *Server) resultReply(id json.RawMessage, result any) []byte {
	return lo.Must(json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}))
}

func (s *Server) errorReply(id json.RawMessage, code, data string) []byte {
	rpcErr := map[string]any{"code": code, "message": code}
	if data != "" {
		rpcErr["data"] = data
	}
	return lo.Must(json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   rpcErr,
	}))
}
