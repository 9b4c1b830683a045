package commands

import (
	"fmt"

	"git.home.luguber.info/inful/cottarelease/internal/config"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	return RunInit(g, root.Config, i.Force)
}

func RunInit(g *Global, configPath string, force bool) error {
	out := g.out()
	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return ferrors.ConfigError("initialization failed").WithCause(err).WithContext("path", configPath).Build()
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}
