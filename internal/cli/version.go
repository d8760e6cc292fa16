// ABOUTME: Version command
// ABOUTME: Prints the application version and platform
package cli

import (
	"runtime"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/spotlink/spotlink/internal/version"
)

var versionTemplate = template.Must(template.New("version").Funcs(template.FuncMap{
	"accent": func(s string) string { return accentStyle.Render(s) },
	"faint":  func(s string) string { return faintStyle.Render(s) },
}).Parse(`{{ accent .App }} {{ .Version }}

  {{ faint "User-Agent" }}  {{ .UserAgent }}
  {{ faint "Platform" }}    {{ .OS }}/{{ .Arch }}
  {{ faint "Go" }}          {{ .Go }}
`))

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lo.Must(cmd.Flags().GetBool("short")) {
				cmd.Println(version.Version)
				return nil
			}

			return versionTemplate.Execute(cmd.OutOrStdout(), struct {
				App       string
				Version   string
				UserAgent string
				OS        string
				Arch      string
				Go        string
			}{
				App:       version.Product,
				Version:   version.Version,
				UserAgent: version.UserAgent(),
				OS:        runtime.GOOS,
				Arch:      runtime.GOARCH,
				Go:        runtime.Version(),
			})
		},
	}

	cmd.Flags().Bool("short", false, "Print only the version string")
	return cmd
}
