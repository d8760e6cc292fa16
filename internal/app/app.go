// ABOUTME: Watch application orchestration
// ABOUTME: Resolves the player, runs the client and feeds the TUI or plain lines
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/spotlink/spotlink/internal/artwork"
	"github.com/spotlink/spotlink/internal/discovery"
	"github.com/spotlink/spotlink/internal/filesystem"
	"github.com/spotlink/spotlink/internal/key"
	"github.com/spotlink/spotlink/internal/prefs"
	"github.com/spotlink/spotlink/internal/ui"
	"github.com/spotlink/spotlink/internal/where"
	"github.com/spotlink/spotlink/pkg/mirror"
	"github.com/spotlink/spotlink/pkg/spotlink"
	"github.com/spotlink/spotlink/pkg/transport"
)

var (
	// ErrNoTarget is returned when no player address is configured,
	// remembered or discoverable.
	ErrNoTarget = errors.New("no player configured; pass --server or enable discovery")

	// ErrDisconnected is returned by Run when reconnecting is disabled and the
	// connection drops.
	ErrDisconnected = errors.New("disconnected from player")
)

// Options holds watch configuration
type Options struct {
	Target string

	UI        bool
	Reconnect bool
	Artwork   bool

	Discovery        bool
	DiscoveryTimeout time.Duration
	APIPort          int

	RequestTTL time.Duration
	MinBackoff time.Duration
	MaxBackoff time.Duration

	// PrefsPath overrides the preferences file (default: where.Prefs)
	PrefsPath string

	Logger *logrus.Logger

	// Out receives plain state lines when the TUI is off (default: stdout)
	Out io.Writer
}

// OptionsFromConfig builds Options from the viper settings.
func OptionsFromConfig() Options {
	return Options{
		Target:           viper.GetString(key.ServerURL),
		UI:               viper.GetBool(key.UIEnabled),
		Reconnect:        viper.GetBool(key.ReconnectEnabled),
		Artwork:          viper.GetBool(key.ArtworkEnabled),
		Discovery:        viper.GetBool(key.DiscoveryEnabled),
		DiscoveryTimeout: viper.GetDuration(key.DiscoveryTimeout),
		APIPort:          viper.GetInt(key.ServerAPIPort),
		RequestTTL:       viper.GetDuration(key.RequestsTTL),
		MinBackoff:       viper.GetDuration(key.ReconnectMinBackoff),
		MaxBackoff:       viper.GetDuration(key.ReconnectMaxBackoff),
	}
}

// App watches one player until cancelled
type App struct {
	opts Options
	log  *logrus.Entry

	dialer transport.Dialer
	find   func(context.Context, discovery.Config, time.Duration) (*discovery.ServerInfo, error)

	ctx context.Context
	tui *ui.Program
	art *artwork.Downloader

	outMu sync.Mutex

	coverMu   sync.Mutex
	lastCover string
}

// New creates the application
func New(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	return &App{
		opts: opts,
		log:  opts.Logger.WithField("component", "app"),
		find: discovery.Find,
		ctx:  context.Background(),
	}
}

// ResolveTarget picks the player address: explicit option first, then the last
// server that accepted a connection, then mDNS discovery.
func (a *App) ResolveTarget(ctx context.Context) (string, error) {
	if target := strings.TrimSpace(a.opts.Target); target != "" {
		return target, nil
	}

	if p, _ := prefs.Load(a.opts.PrefsPath); p.LastServer != "" {
		a.log.WithField("target", p.LastServer).Info("Using last connected player")
		return p.LastServer, nil
	}

	if !a.opts.Discovery {
		return "", ErrNoTarget
	}

	a.log.Info("Browsing for players")
	server, err := a.find(ctx, discovery.Config{
		APIPort: a.opts.APIPort,
		Logger:  a.opts.Logger,
	}, a.opts.DiscoveryTimeout)
	if err != nil {
		if errors.Is(err, discovery.ErrNotFound) {
			return "", fmt.Errorf("%w: %w", ErrNoTarget, err)
		}
		return "", err
	}

	a.log.WithFields(logrus.Fields{
		"name":   server.Name,
		"target": server.Target(),
	}).Info("Discovered player")
	return server.Target(), nil
}

// Run connects to the player and mirrors it until ctx is cancelled or the
// TUI quits.
func (a *App) Run(ctx context.Context) error {
	target, err := a.ResolveTarget(ctx)
	if err != nil {
		return err
	}

	client, err := spotlink.New(spotlink.Config{
		Target:     target,
		Dialer:     a.dialer,
		Logger:     a.opts.Logger,
		RequestTTL: a.opts.RequestTTL,
		MinBackoff: a.opts.MinBackoff,
		MaxBackoff: a.opts.MaxBackoff,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx

	if a.opts.Artwork {
		a.art, err = artwork.NewDownloader(filesystem.API(), where.Artwork(), a.opts.Logger)
		if err != nil {
			a.log.WithError(err).Warn("Artwork cache unavailable")
		}
	}

	if a.opts.UI {
		a.tui = ui.New(client, client.Target())
	}

	client.Subscribe(a.onState)
	client.SubscribeConnection(func(state spotlink.ConnState) {
		a.onConnection(client.Target(), state)
	})

	if a.tui == nil {
		return a.supervise(ctx, client)
	}

	errCh := make(chan error, 1)
	go func() {
		err := a.supervise(ctx, client)
		if err != nil {
			a.tui.Quit()
		}
		errCh <- err
	}()

	if _, err := a.tui.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("TUI failed: %w", err)
	}

	cancel()
	return <-errCh
}

// supervise keeps the client connected, or connects once when reconnecting is
// disabled. Cancellation is a clean exit.
func (a *App) supervise(ctx context.Context, client *spotlink.Client) error {
	if a.opts.Reconnect {
		err := client.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if err := client.Connect(ctx); err != nil {
		return err
	}

	select {
	case <-client.Done():
		if ctx.Err() != nil {
			return nil
		}
		return ErrDisconnected
	case <-ctx.Done():
		client.Close()
		<-client.Done()
		return nil
	}
}

func (a *App) onState(state mirror.PlayerState) {
	if a.tui != nil {
		a.tui.OnState(state)
	} else {
		a.println(ui.Describe(state))
	}

	if a.art == nil {
		return
	}

	url := state.Track.CoverURL()

	a.coverMu.Lock()
	changed := url != a.lastCover
	a.lastCover = url
	a.coverMu.Unlock()

	if changed && url != "" {
		go a.fetchCover(url)
	}
}

func (a *App) fetchCover(url string) {
	path, err := a.art.Download(a.ctx, url)
	if err != nil {
		a.log.WithError(err).Warn("Artwork download failed")
		return
	}

	a.coverMu.Lock()
	current := a.lastCover == url
	a.coverMu.Unlock()
	if !current {
		return
	}

	if a.tui != nil {
		a.tui.OnArtwork(path)
	} else {
		a.log.WithField("path", path).Info("Artwork cached")
	}
}

func (a *App) onConnection(target string, state spotlink.ConnState) {
	if a.tui != nil {
		a.tui.OnConnection(state)
	}
	a.log.WithField("state", state).Debug("Connection state changed")

	if state != spotlink.Open {
		return
	}

	if err := prefs.Save(a.opts.PrefsPath, prefs.Prefs{
		LastServer:    target,
		LastConnected: time.Now(),
	}); err != nil {
		a.log.WithError(err).Warn("Failed to save preferences")
	}
}

func (a *App) println(line string) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.opts.Out, line)
}
