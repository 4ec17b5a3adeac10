package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/cmd/docsite/commands"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Out: os.Stdout}
	parser := kong.Parse(cli,
		kong.Name("docsite"),
		kong.Description("Build and serve a Markdown documentation site."),
		kong.UsageOnError(),
		kong.Bind(global),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	parser.BindTo(ctx, (*context.Context)(nil))
	err := parser.Run()
	stop()

	code := derrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).Report(err)
	os.Exit(code)
}
