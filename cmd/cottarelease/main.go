package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/cottarelease/cmd/cottarelease/commands"
	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
	"git.home.luguber.info/inful/cottarelease/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("cottarelease"),
		kong.Description("Release the Cotta library: bump the build, tag it and publish the release files."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Info()},
	)

	global := &commands.Global{Context: ctx, Out: os.Stdout}
	err := parser.Run(global, cli)
	stop()
	ferrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
}
