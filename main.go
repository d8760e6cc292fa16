// ABOUTME: Entry point for the spotlink client
// ABOUTME: Loads configuration and runs the CLI
package main

import (
	"github.com/samber/lo"

	"github.com/spotlink/spotlink/internal/cli"
	"github.com/spotlink/spotlink/internal/config"
)

func main() {
	lo.Must0(config.Setup())
	cli.Execute()
}
