package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/docsite/internal/config"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/linkverify"
	"git.home.luguber.info/inful/docsite/internal/render"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct{}

func (v *VerifyCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	return verifyExport(ctx, g, cfg)
}

func verifyExport(ctx context.Context, g *Global, cfg *config.Config) error {
	report, err := linkverify.New(cfg.Build.DistDir, render.PolicyFor(cfg.Build), g.Logger).Verify(ctx)
	if err != nil {
		return err
	}
	for _, v := range report.Violations {
		_, _ = fmt.Fprintln(g.Out, v.String())
	}
	if !report.OK() {
		return derrors.ValidationError(fmt.Sprintf("export has %d link violations", len(report.Violations))).
			WithContext("path", cfg.Build.DistDir).Build()
	}
	_, _ = fmt.Fprintf(g.Out, "Verified %d links in %d files\n", report.Links, report.Files)
	return nil
}
