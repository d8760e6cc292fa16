// ABOUTME: Discover command
// ABOUTME: Lists players advertising over mDNS on the local network
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spotlink/spotlink/internal/discovery"
	"github.com/spotlink/spotlink/internal/key"
)

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List players on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wait := viper.GetDuration(key.DiscoveryTimeout)
			if cmd.Flags().Changed("timeout") {
				wait = timeout(cmd)
			}

			servers := discovery.Collect(cmd.Context(), discovery.Config{
				APIPort: viper.GetInt(key.ServerAPIPort),
				Logger:  logrus.StandardLogger(),
			}, wait)
			if len(servers) == 0 {
				return discovery.ErrNotFound
			}

			for _, s := range servers {
				cmd.Printf("%s  %s\n", accentStyle.Render(s.Name), faintStyle.Render(s.Target()))
			}
			return nil
		},
	}
}
