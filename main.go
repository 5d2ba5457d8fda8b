package main

import (
	"os"

	"github.com/dpshade/pocket-nodes/internal/cli"
	"github.com/dpshade/pocket-nodes/internal/ui"
)

var version = "0.1.0"

func main() {
	c := cli.New(version, cli.WithTUI(func(env *cli.Environment) error {
		return ui.Run(env.Catalog, ui.Options{
			Theme:  env.Config.Theme,
			Policy: env.Config.RenderPolicy(),
			Log:    env.Log,
		})
	}))

	// Execute has already printed the error
	if err := c.Execute(); err != nil {
		os.Exit(1)
	}
}
