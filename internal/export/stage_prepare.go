package export

import (
	"context"

	"git.home.luguber.info/inful/docsite/internal/config"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func stageValidate(_ context.Context, bs *buildState) error {
	if err := config.ValidateConfig(bs.cfg); err != nil {
		return err
	}
	if !bs.cfg.Build.IsExport() {
		return derrors.ConfigError("static export requires build.output: export (use serve for server output)").
			WithContext("output", string(bs.cfg.Build.Output)).UserAction().Build()
	}
	r, err := NewRenderer(bs.cfg, bs.b.root, bs.logger)
	if err != nil {
		return err
	}
	bs.renderer = r
	return nil
}

func stageDiscover(ctx context.Context, bs *buildState) error {
	site, broken, err := LoadSite(ctx, bs.cfg, bs.logger)
	if err != nil {
		return err
	}
	bs.site = site
	bs.report.BrokenLinks = len(broken)
	return nil
}

func stagePrepareOutput(_ context.Context, bs *buildState) error {
	stage, err := beginStaging(bs.cfg.Build.DistDir)
	if err != nil {
		return err
	}
	bs.stageDir = stage
	return nil
}

func stageFinalize(_ context.Context, bs *buildState) error {
	if err := promoteStaging(bs.stageDir, bs.cfg.Build.DistDir, bs.logger); err != nil {
		return err
	}
	bs.stageDir = ""
	return nil
}
