package commands

import (
	"context"

	"git.home.luguber.info/inful/docsite/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Watch bool `short:"w" help:"Rebuild on file changes and reload open browsers"`
	Port  int  `short:"p" help:"Listen port (overrides server.port)"`
}

func (s *ServeCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	rt, err := openRuntime(g, root)
	if err != nil {
		return err
	}
	defer rt.Close()

	opts := []server.Option{
		server.WithLogger(rt.logger),
		server.WithRecorder(rt.recorder),
		server.WithRegistry(rt.registry),
		server.WithNotifier(rt.notifier),
		server.WithWatch(s.Watch),
		server.WithPort(s.Port),
	}
	if rt.store != nil {
		opts = append(opts, server.WithEventStore(rt.store))
	}
	return server.New(rt.cfg, opts...).Run(ctx)
}
