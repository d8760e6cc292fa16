// ABOUTME: Status command
// ABOUTME: Fetches one snapshot over HTTP or a short-lived websocket connection
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spotlink/spotlink/internal/key"
	"github.com/spotlink/spotlink/internal/ui"
	"github.com/spotlink/spotlink/pkg/mirror"
	"github.com/spotlink/spotlink/pkg/protocol"
	"github.com/spotlink/spotlink/pkg/spotlink"
)

// errClosedEarly is returned when the socket closes before the first snapshot.
var errClosedEarly = errors.New("connection closed before status arrived")

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current player state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout(cmd))
			defer cancel()

			target, err := resolveTarget(ctx)
			if err != nil {
				return err
			}

			var state mirror.PlayerState
			if lo.Must(cmd.Flags().GetBool("ws")) {
				state, err = socketStatus(ctx, target)
			} else {
				state, err = httpStatus(ctx, target)
			}
			if err != nil {
				return err
			}

			if lo.Must(cmd.Flags().GetBool("json")) {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(state.ToStatus())
			}

			cmd.Println(ui.Describe(state))
			if url := state.Track.CoverURL(); url != "" {
				cmd.Println(faintStyle.Render("cover " + url))
			}
			return nil
		},
	}

	cmd.Flags().Bool("ws", false, "Use a websocket connection instead of HTTP")
	cmd.Flags().BoolP("json", "j", false, "Print the raw status as JSON")
	return cmd
}

func httpStatus(ctx context.Context, target string) (mirror.PlayerState, error) {
	res, err := call(ctx, target, protocol.MethodGetStatus, nil)
	if err != nil {
		return mirror.PlayerState{}, err
	}

	status, ok := res.(protocol.StatusResult)
	if !ok {
		return mirror.PlayerState{}, fmt.Errorf("unexpected %T for %s", res, protocol.MethodGetStatus)
	}
	return mirror.FromStatus(status.Status), nil
}

// socketStatus connects, waits for the first mirrored snapshot and disconnects.
func socketStatus(ctx context.Context, target string) (mirror.PlayerState, error) {
	client, err := spotlink.New(spotlink.Config{
		Target:     target,
		Logger:     logrus.StandardLogger(),
		RequestTTL: viper.GetDuration(key.RequestsTTL),
	})
	if err != nil {
		return mirror.PlayerState{}, err
	}

	states := make(chan mirror.PlayerState, 1)
	unsubscribe := client.Subscribe(func(state mirror.PlayerState) {
		select {
		case states <- state:
		default:
		}
	})
	defer unsubscribe()

	if err := client.Connect(ctx); err != nil {
		return mirror.PlayerState{}, err
	}
	done := client.Done()
	defer func() {
		client.Close()
		<-done
	}()

	select {
	case state := <-states:
		return state, nil
	case <-done:
		return mirror.PlayerState{}, errClosedEarly
	case <-ctx.Done():
		return mirror.PlayerState{}, ctx.Err()
	}
}
