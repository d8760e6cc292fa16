// ABOUTME: One-shot control commands
// ABOUTME: play, pause, next, volume and shuffle sent as single HTTP requests
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spotlink/spotlink/internal/app"
	"github.com/spotlink/spotlink/internal/httprpc"
	"github.com/spotlink/spotlink/pkg/mirror"
	"github.com/spotlink/spotlink/pkg/protocol"
)

func timeout(cmd *cobra.Command) time.Duration {
	return lo.Must(cmd.Flags().GetDuration("timeout"))
}

func resolveTarget(ctx context.Context) (string, error) {
	return app.New(app.OptionsFromConfig()).ResolveTarget(ctx)
}

func call(ctx context.Context, target string, method protocol.Method, params any) (protocol.Result, error) {
	logrus.WithFields(logrus.Fields{
		"target": target,
		"method": method,
	}).Debug("One-shot request")

	return httprpc.Call(ctx, nil, target, method, params)
}

// send resolves the target, sends one command and prints the acknowledgement.
func send(cmd *cobra.Command, method protocol.Method, params any, done string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout(cmd))
	defer cancel()

	target, err := resolveTarget(ctx)
	if err != nil {
		return err
	}

	res, err := call(ctx, target, method, params)
	if err != nil {
		return err
	}
	if _, ok := res.(protocol.Ack); !ok {
		return fmt.Errorf("unexpected %T for %s", res, method)
	}

	cmd.Println(accentStyle.Render("✓") + " " + done)
	return nil
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Resume playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, protocol.MethodSetPlay, nil, "playing")
		},
	}
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, protocol.MethodSetPause, nil, "paused")
		},
	}
}

func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Skip to the next track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, protocol.MethodSetNext, nil, "skipped")
		},
	}
}

func newVolumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volume [0-100|raw]",
		Short: "Print or set the volume",
		Long:  "Without an argument, print the volume. With one, set it as a percentage, or in device units with --raw.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return printVolume(cmd)
			}

			volume, err := parseVolume(args[0], lo.Must(cmd.Flags().GetBool("raw")))
			if err != nil {
				return err
			}

			return send(cmd, protocol.MethodSetVolume, volume,
				fmt.Sprintf("volume %d%% (%d)", mirror.VolumeToPercent(volume), volume))
		},
	}

	cmd.Flags().Bool("raw", false, fmt.Sprintf("Interpret the value as device units (0-%d)", mirror.MaxVolume))
	return cmd
}

func parseVolume(arg string, raw bool) (int, error) {
	value, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(arg), "%"))
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q", arg)
	}

	if raw {
		if value < 0 || value > mirror.MaxVolume {
			return 0, fmt.Errorf("volume %d out of range 0-%d", value, mirror.MaxVolume)
		}
		return value, nil
	}

	if value < 0 || value > 100 {
		return 0, fmt.Errorf("volume %d%% out of range 0-100", value)
	}
	return mirror.PercentToVolume(value), nil
}

func printVolume(cmd *cobra.Command) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout(cmd))
	defer cancel()

	target, err := resolveTarget(ctx)
	if err != nil {
		return err
	}

	res, err := call(ctx, target, protocol.MethodGetVolume, nil)
	if err != nil {
		return err
	}

	v, ok := res.(protocol.VolumeResult)
	if !ok {
		return fmt.Errorf("unexpected %T for %s", res, protocol.MethodGetVolume)
	}

	cmd.Printf("volume %d%% (%d)\n", mirror.VolumeToPercent(v.Volume), v.Volume)
	return nil
}

func newShuffleCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "shuffle on|off",
		Short:     "Turn shuffle on or off",
		ValidArgs: []string{"on", "off"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "on" {
				return send(cmd, protocol.MethodSetShuffleOn, nil, "shuffle on")
			}
			return send(cmd, protocol.MethodSetShuffleOff, nil, "shuffle off")
		},
	}
}
