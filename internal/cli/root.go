// ABOUTME: Root command and CLI entry point
// ABOUTME: Watches the player in a TUI or as plain lines and hosts subcommands
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/spotlink/spotlink/internal/app"
	"github.com/spotlink/spotlink/internal/key"
	"github.com/spotlink/spotlink/internal/logging"
	"github.com/spotlink/spotlink/internal/version"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")).Bold(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)

// stdoutIsTerminal is replaced in tests.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var logCloser func()

	root := &cobra.Command{
		Use:           version.Product,
		Short:         "Mirror and control a Spotify Connect player over JSON-RPC",
		Long:          accentStyle.Render(version.Product) + " mirrors the state of a remote player and sends it commands.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mode := logging.Interactive
			if cmd == cmd.Root() && !useTUI() {
				mode = logging.Streaming
			}

			closer, err := logging.Setup(logrus.StandardLogger(), mode)
			if err != nil {
				return fmt.Errorf("logging setup failed: %w", err)
			}
			logCloser = closer
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if lo.Must(cmd.Flags().GetBool("version")) {
				cmd.Println(version.Version)
				return nil
			}

			opts := app.OptionsFromConfig()
			opts.UI = useTUI()
			opts.Out = cmd.OutOrStdout()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.New(opts).Run(ctx)
		},
	}

	root.SetOut(os.Stdout)
	root.Flags().BoolP("version", "v", false, "Print the application version")

	root.PersistentFlags().StringP("server", "s", "", "Player address (host, host:port or ws:// URL)")
	lo.Must0(viper.BindPFlag(key.ServerURL, root.PersistentFlags().Lookup("server")))

	root.PersistentFlags().Duration("timeout", 5*time.Second, "Timeout for one-shot commands")

	root.Flags().Bool("ui", true, "Show the terminal UI when stdout is a terminal")
	lo.Must0(viper.BindPFlag(key.UIEnabled, root.Flags().Lookup("ui")))

	root.Flags().Bool("reconnect", true, "Reconnect with backoff when the connection drops")
	lo.Must0(viper.BindPFlag(key.ReconnectEnabled, root.Flags().Lookup("reconnect")))

	root.Flags().Bool("artwork", true, "Cache cover art of the current track")
	lo.Must0(viper.BindPFlag(key.ArtworkEnabled, root.Flags().Lookup("artwork")))

	root.AddCommand(
		newStatusCmd(),
		newPlayCmd(),
		newPauseCmd(),
		newNextCmd(),
		newVolumeCmd(),
		newShuffleCmd(),
		newDiscoverCmd(),
		newConfigCmd(),
		newWhereCmd(),
		newVersionCmd(),
	)

	return root
}

func useTUI() bool {
	return viper.GetBool(key.UIEnabled) && stdoutIsTerminal()
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	root := NewRootCmd()

	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       root,
			Headings:      cc.HiGreen + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := root.ExecuteContext(context.Background()); err != nil {
		handleErr(err)
	}
}

func handleErr(err error) {
	logrus.Error(err)
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", errStyle.Render("✗"), strings.Trim(err.Error(), " \n"))
	os.Exit(1)
}
