package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docsite/internal/export"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Verify bool `help:"Verify links and asset URLs after exporting"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	rt, err := openRuntime(g, root)
	if err != nil {
		return err
	}
	defer rt.Close()

	opts := []export.Option{
		export.WithLogger(rt.logger),
		export.WithRecorder(rt.recorder),
		export.WithNotifier(rt.notifier),
	}
	if rt.store != nil {
		opts = append(opts, export.WithEventStore(rt.store))
	}
	report, err := export.New(rt.cfg, opts...).Build(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Exported %d pages and %d assets to %s in %s\n",
		report.Pages, report.Assets, rt.cfg.Build.DistDir, report.Duration().Round(time.Millisecond))

	if b.Verify {
		return verifyExport(ctx, g, rt.cfg)
	}
	return nil
}
