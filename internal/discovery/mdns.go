// ABOUTME: mDNS discovery of players on the local network
// ABOUTME: Browses for Spotify Connect services and maps hits to API targets
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"
)

// ServiceType is the service players advertise.
const ServiceType = "_spotify-connect._tcp"

// ErrNotFound is returned by Find when no player answered in time.
var ErrNotFound = errors.New("no player found")

// Config holds discovery configuration
type Config struct {
	// APIPort is the player API port; mDNS only advertises the Connect port.
	APIPort int

	// Timeout bounds each browse round (default: 3s)
	Timeout time.Duration

	// Interval is the pause between browse rounds (default: 1s)
	Interval time.Duration

	Logger logrus.FieldLogger
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
	query   func(*mdns.QueryParam) error

	mu   sync.Mutex
	seen map[string]bool
}

// ServerInfo describes a discovered player
type ServerInfo struct {
	Name    string
	Host    string
	Port    int
	APIPort int
	Info    []string
}

// Target returns the websocket URL of the player's API server.
func (s *ServerInfo) Target() string {
	return fmt.Sprintf("ws://%s/", net.JoinHostPort(s.Host, strconv.Itoa(s.APIPort)))
}

func (s *ServerInfo) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Target())
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	if config.APIPort == 0 {
		config.APIPort = 3030
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
		query:   mdns.Query,
		seen:    make(map[string]bool),
	}
}

// Browse starts searching for players in the background
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop repeatedly queries until the manager is stopped
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		var wg sync.WaitGroup
		wg.Add(1)

		go func() {
			defer wg.Done()
			for entry := range entries {
				server := m.toServerInfo(entry)
				if server == nil || !m.markSeen(server) {
					continue
				}

				m.config.Logger.WithFields(logrus.Fields{
					"name":   server.Name,
					"target": server.Target(),
				}).Info("Discovered player")

				select {
				case m.servers <- server:
				case <-m.ctx.Done():
				}
			}
		}()

		params := &mdns.QueryParam{
			Service:     ServiceType,
			Domain:      "local",
			Timeout:     m.config.Timeout,
			Entries:     entries,
			DisableIPv6: true,
		}

		if err := m.query(params); err != nil {
			m.config.Logger.WithError(err).Debug("mDNS query failed")
		}
		close(entries)
		wg.Wait()

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(m.config.Interval):
		}
	}
}

func (m *Manager) toServerInfo(entry *mdns.ServiceEntry) *ServerInfo {
	if entry == nil {
		return nil
	}

	host := ""
	switch {
	case entry.AddrV4 != nil:
		host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		host = entry.AddrV6.String()
	default:
		host = strings.TrimSuffix(entry.Host, ".")
	}
	if host == "" {
		return nil
	}

	name := strings.TrimSuffix(entry.Name, ".")
	name = strings.TrimSuffix(name, "."+ServiceType+".local")
	name = strings.ReplaceAll(name, `\ `, " ")

	return &ServerInfo{
		Name:    name,
		Host:    host,
		Port:    entry.Port,
		APIPort: m.config.APIPort,
		Info:    entry.InfoFields,
	}
}

func (m *Manager) markSeen(s *ServerInfo) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := s.Target()
	if m.seen[k] {
		return false
	}
	m.seen[k] = true
	return true
}

// Servers returns the channel of discovered players. Each player is reported
// once per manager.
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// Find browses until the first player answers, ctx ends or timeout elapses.
func Find(ctx context.Context, config Config, timeout time.Duration) (*ServerInfo, error) {
	return find(ctx, NewManager(config), timeout)
}

func find(ctx context.Context, m *Manager, timeout time.Duration) (*ServerInfo, error) {
	defer m.Stop()
	m.Browse()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case server := <-m.Servers():
		return server, nil
	case <-timer.C:
		return nil, ErrNotFound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Collect browses for the whole timeout and returns every player found.
func Collect(ctx context.Context, config Config, timeout time.Duration) []*ServerInfo {
	return collect(ctx, NewManager(config), timeout)
}

func collect(ctx context.Context, m *Manager, timeout time.Duration) []*ServerInfo {
	defer m.Stop()
	m.Browse()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var found []*ServerInfo
	for {
		select {
		case server := <-m.Servers():
			found = append(found, server)
		case <-timer.C:
			return found
		case <-ctx.Done():
			return found
		}
	}
}
