// ABOUTME: Where command
// ABOUTME: Prints the directories and files the application uses
package cli

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/spotlink/spotlink/internal/where"
)

type whereTarget struct {
	name     string
	where    func() string
	argLong  string
	argShort mo.Option[string]
}

var wherePaths = []whereTarget{
	{"Config", where.Config, "config", mo.Some("c")},
	{"Logs", where.Logs, "logs", mo.Some("l")},
	{"Prefs", where.Prefs, "prefs", mo.Some("p")},
	{"Cache", where.Cache, "cache", mo.None[string]()},
	{"Artwork", where.Artwork, "artwork", mo.None[string]()},
}

func newWhereCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "where",
		Short: "Show the paths of application files",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, n := range wherePaths {
				if lo.Must(cmd.Flags().GetBool(n.argLong)) {
					cmd.Println(n.where())
					return
				}
			}

			for _, n := range wherePaths {
				cmd.Printf("%s %s\n", accentStyle.Render(n.name), faintStyle.Render("--"+n.argLong))
				cmd.Println(n.where())
				cmd.Println()
			}
		},
	}

	for _, n := range wherePaths {
		if short, ok := n.argShort.Get(); ok {
			cmd.Flags().BoolP(n.argLong, short, false, n.name+" path")
		} else {
			cmd.Flags().Bool(n.argLong, false, n.name+" path")
		}
	}

	cmd.MarkFlagsMutuallyExclusive(lo.Map(wherePaths, func(t whereTarget, _ int) string {
		return t.argLong
	})...)

	return cmd
}
