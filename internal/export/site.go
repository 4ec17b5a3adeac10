package export

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/docsite/internal/app"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/gitinfo"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/theme"
)

// LoadSite discovers the pages of cfg, stamps git timestamps when enabled and logs broken
// page links. It is shared by the export pipeline and the server.
func LoadSite(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*content.Site, []content.BrokenLink, error) {
	site, err := content.Discover(ctx, cfg.Content.PagesDir, content.Options{IncludeDrafts: cfg.Content.IncludeDrafts})
	if err != nil {
		return nil, nil, err
	}
	if cfg.Content.GitTimestamps {
		stampGit(ctx, site, cfg.Content.PagesDir, logger)
	}
	broken := site.BrokenLinks(render.PolicyFor(cfg.Build))
	for _, bl := range broken {
		logger.Warn("Broken page link", logfields.File(bl.Source), slog.String("target", bl.Target))
	}
	logger.Info("Pages discovered", logfields.Pages(len(site.Pages)))
	return site, broken, nil
}

func stampGit(ctx context.Context, site *content.Site, pagesDir string, logger *slog.Logger) {
	repo, err := gitinfo.Open(pagesDir)
	if errors.Is(err, gitinfo.ErrNoRepository) {
		logger.Debug("Pages are not in a git repository; skipping timestamps", logfields.Path(pagesDir))
		return
	}
	if err == nil {
		err = repo.Stamp(ctx, site, pagesDir)
	}
	if err != nil {
		logger.Warn("Failed to read git timestamps", logfields.Path(pagesDir), logfields.Error(err))
	}
}

// NewRenderer loads the theme configuration and the registered theme named by cfg.
func NewRenderer(cfg *config.Config, root app.Root, logger *slog.Logger, opts ...render.Option) (*render.Renderer, error) {
	themeCfg, err := theme.LoadConfig(cfg.Build.Theme.Config)
	if err != nil {
		return nil, err
	}
	th, err := theme.Get(cfg.Build.Theme.Name)
	if err != nil {
		return nil, err
	}
	logger.Debug("Theme loaded", logfields.Theme(th.Name()), logfields.Path(cfg.Build.Theme.Config))
	base := []render.Option{render.WithRoot(root), render.WithLogger(logger)}
	return render.New(cfg, themeCfg, th, append(base, opts...)...), nil
}
