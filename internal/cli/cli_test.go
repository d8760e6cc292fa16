// ABOUTME: Tests for CLI commands
// ABOUTME: Runs the command tree against fake HTTP and websocket players
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"

	"github.com/spotlink/spotlink/internal/app"
	"github.com/spotlink/spotlink/internal/config"
	"github.com/spotlink/spotlink/internal/filesystem"
	"github.com/spotlink/spotlink/internal/key"
	"github.com/spotlink/spotlink/internal/playertest"
	"github.com/spotlink/spotlink/internal/version"
	"github.com/spotlink/spotlink/internal/where"
	"github.com/spotlink/spotlink/pkg/protocol"
)

const statusJSON = `{"track":{"track_id":"spotify:track:1","name":"Song","covers":[{"url":"https://i.scdn.co/image/abc","size":[640,640]}],"album":"Album","artists":["Artist"]},"playing":"Playing","volume":32768,"shuffle":true}`

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newPlayer(t *testing.T) *playertest.Server {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	player := playertest.New(logger)
	t.Cleanup(player.Close)

	var status protocol.Status
	if err := json.Unmarshal([]byte(statusJSON), &status); err != nil {
		t.Fatalf("bad status fixture: %v", err)
	}
	player.SetStatus(status)
	return player
}

func last(player *playertest.Server) playertest.Received {
	got := player.Received()
	if len(got) == 0 {
		return playertest.Received{}
	}
	return got[len(got)-1]
}

func setupCLI(t *testing.T) {
	t.Helper()
	filesystem.SetMemMapFs()
	viper.Reset()
	t.Setenv(where.EnvConfigPath, "/config")
	if err := config.Setup(); err != nil {
		t.Fatalf("config setup failed: %v", err)
	}
	viper.Set(key.DiscoveryEnabled, false)

	stdoutIsTerminal = func() bool { return false }
	t.Cleanup(func() {
		viper.Reset()
		filesystem.SetOsFs()
	})
}

func run(ctx context.Context, args ...string) (string, error) {
	root := NewRootCmd()
	out := &syncBuffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestStatusHTTP(t *testing.T) {
	setupCLI(t)
	player := newPlayer(t)

	out, err := run(context.Background(), "status", "-s", player.HTTPURL())
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}

	if !strings.Contains(out, "playing: Song by Artist | volume 50% | shuffle on") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "cover https://i.scdn.co/image/abc") {
		t.Errorf("expected cover url in output %q", out)
	}
}

func TestStatusJSON(t *testing.T) {
	setupCLI(t)
	player := newPlayer(t)

	out, err := run(context.Background(), "status", "--json", "--server", player.HTTPURL())
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}

	var status protocol.Status
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("output is not a status: %v\n%s", err, out)
	}
	if status.Volume != 32768 || status.Playing != protocol.Playing {
		t.Errorf("unexpected status %+v", status)
	}
	if status.Track == nil || status.Track.Name != "Song" {
		t.Errorf("expected track Song, got %+v", status.Track)
	}
}

func TestStatusWebSocket(t *testing.T) {
	setupCLI(t)
	player := newPlayer(t)

	out, err := run(context.Background(), "status", "--ws", "-s", player.URL())
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "playing: Song by Artist") {
		t.Errorf("unexpected output %q", out)
	}

	got := player.Received()
	if len(got) != 1 || got[0].HTTP {
		t.Errorf("expected one websocket request, got %+v", got)
	}
}

func TestControlCommands(t *testing.T) {
	tests := []struct {
		args   []string
		method string
		params string
		output string
	}{
		{[]string{"play"}, "setPlay", "", "playing"},
		{[]string{"pause"}, "setPause", "", "paused"},
		{[]string{"next"}, "setNext", "", "skipped"},
		{[]string{"volume", "50"}, "setVolume", "32768", "volume 50% (32768)"},
		{[]string{"volume", "100%"}, "setVolume", "65535", "volume 100%"},
		{[]string{"volume", "--raw", "1000"}, "setVolume", "1000", "volume 2% (1000)"},
		{[]string{"shuffle", "on"}, "setShuffleOn", "", "shuffle on"},
		{[]string{"shuffle", "off"}, "setShuffleOff", "", "shuffle off"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			setupCLI(t)
			player := newPlayer(t)

			out, err := run(context.Background(), append(tt.args, "-s", player.HTTPURL())...)
			if err != nil {
				t.Fatalf("command failed: %v", err)
			}

			req := last(player)
			if string(req.Method) != tt.method {
				t.Errorf("expected method %s, got %s", tt.method, req.Method)
			}
			if string(req.Params) != tt.params {
				t.Errorf("expected params %q, got %q", tt.params, req.Params)
			}
			if !strings.Contains(out, tt.output) {
				t.Errorf("expected output to contain %q, got %q", tt.output, out)
			}
		})
	}
}

func TestVolumeQuery(t *testing.T) {
	setupCLI(t)
	player := newPlayer(t)

	out, err := run(context.Background(), "volume", "-s", player.HTTPURL())
	if err != nil {
		t.Fatalf("volume failed: %v", err)
	}
	if last(player).Method != protocol.MethodGetVolume {
		t.Errorf("expected getVolume, got %s", last(player).Method)
	}
	if strings.TrimSpace(out) != "volume 50% (32768)" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestInvalidArgumentsSendNothing(t *testing.T) {
	cases := [][]string{
		{"volume", "150"},
		{"volume", "loud"},
		{"volume", "--raw", "70000"},
		{"shuffle", "maybe"},
		{"shuffle"},
	}

	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			setupCLI(t)
			player := newPlayer(t)

			if _, err := run(context.Background(), append(args, "-s", player.HTTPURL())...); err == nil {
				t.Fatal("expected an error")
			}
			if n := len(player.Received()); n != 0 {
				t.Errorf("expected no request, got %d", n)
			}
		})
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	setupCLI(t)
	player := newPlayer(t)
	player.Fail(protocol.MethodSetPlay, "NoControl")

	_, err := run(context.Background(), "play", "-s", player.HTTPURL())

	var rpcErr *protocol.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPC error, got %v", err)
	}
	if rpcErr.Number() != protocol.CodeNoControl {
		t.Errorf("expected no player code, got %v", rpcErr.Number())
	}
}

func TestNoTarget(t *testing.T) {
	setupCLI(t)

	if _, err := run(context.Background(), "play"); !errors.Is(err, app.ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
}

func TestWatchPlain(t *testing.T) {
	setupCLI(t)
	player := newPlayer(t)

	root := NewRootCmd()
	out := &syncBuffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"-s", player.URL(), "--artwork=false"})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- root.ExecuteContext(ctx) }()

	if !player.WaitClient(2 * time.Second) {
		t.Fatal("watch never connected")
	}
	waitOutput(t, out, "playing: Song by Artist")
	if err := player.Notify(protocol.EventPause, nil); err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	waitOutput(t, out, "paused: Song by Artist")
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func waitOutput(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("expected %q in output, got %q", want, out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConfigInfo(t *testing.T) {
	setupCLI(t)

	out, err := run(context.Background(), "config", "info", "-k", key.ServerURL)
	if err != nil {
		t.Fatalf("config info failed: %v", err)
	}
	if !strings.Contains(out, "SPOTLINK_SERVER_URL") {
		t.Errorf("expected env name in output %q", out)
	}
}

func TestConfigInfoJSON(t *testing.T) {
	setupCLI(t)

	out, err := run(context.Background(), "config", "info", "--json")
	if err != nil {
		t.Fatalf("config info failed: %v", err)
	}

	var fields []map[string]any
	if err := json.Unmarshal([]byte(out), &fields); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(fields) != len(config.Default) {
		t.Errorf("expected %d fields, got %d", len(config.Default), len(fields))
	}
}

func TestConfigInfoUnknownKey(t *testing.T) {
	setupCLI(t)

	if _, err := run(context.Background(), "config", "info", "-k", "server.nope"); err == nil {
		t.Error("expected unknown key error")
	}
}

func TestVersion(t *testing.T) {
	setupCLI(t)

	out, err := run(context.Background(), "version", "--short")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out) != version.Version {
		t.Errorf("unexpected version output %q", out)
	}

	out, err = run(context.Background(), "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, version.UserAgent()) {
		t.Errorf("expected user agent in %q", out)
	}

	out, err = run(context.Background(), "-v")
	if err != nil {
		t.Fatalf("root -v failed: %v", err)
	}
	if strings.TrimSpace(out) != version.Version {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestWhere(t *testing.T) {
	setupCLI(t)

	out, err := run(context.Background(), "where", "--prefs")
	if err != nil {
		t.Fatalf("where failed: %v", err)
	}
	if strings.TrimSpace(out) != "/config/prefs.toml" {
		t.Errorf("unexpected prefs path %q", out)
	}
}
