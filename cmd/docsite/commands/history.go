package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/export"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit  int  `short:"n" help:"Number of builds to show" default:"10"`
	Report bool `help:"Print the report of the last export build"`
}

func (h *HistoryCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	if h.Report {
		report, err := export.LoadReport(cfg.Storage.StateDir)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.Out, "%s %s\n", report.BuildID, report.Summary())
		return nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	projection := eventstore.NewBuildHistoryProjection(store, h.Limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}
	history := projection.GetHistory()
	if len(history) == 0 {
		_, _ = fmt.Fprintln(g.Out, "No builds recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tOUTPUT\tSTATUS\tPAGES\tDURATION\tERROR")
	for _, b := range history {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			b.BuildID[:min(8, len(b.BuildID))],
			b.StartedAt.Local().Format(time.DateTime),
			b.Output,
			b.Status,
			b.Pages,
			b.Duration.Round(time.Millisecond),
			b.ErrorMessage)
	}
	return tw.Flush()
}
