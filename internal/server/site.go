package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsite/internal/analytics"
	"git.home.luguber.info/inful/docsite/internal/app"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/export"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
	"git.home.luguber.info/inful/docsite/internal/paths"
	"git.home.luguber.info/inful/docsite/internal/render"
)

// renderedPage is one page of a snapshot.
type renderedPage struct {
	body []byte
	etag string
}

// snapshot is an immutable fully rendered site. Requests read the current snapshot while
// rebuilds prepare the next one.
type snapshot struct {
	id       string
	builtAt  time.Time
	site     *content.Site
	pages    map[string]renderedPage // route -> page
	notFound []byte
}

func (s *snapshot) page(route string) (renderedPage, bool) {
	p, ok := s.pages[paths.CleanRoute(route)]
	return p, ok
}

// Rebuild renders a new snapshot and swaps it in. A failed rebuild keeps serving the
// previous snapshot.
func (s *Server) Rebuild(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	id := uuid.NewString()
	logger := s.logger.With(logfields.BuildID(id))
	start := s.now()
	s.record(ctx, id, eventstore.TypeBuildStarted, eventstore.BuildStarted{
		Output:   string(s.cfg.Build.Output),
		BasePath: s.cfg.Build.BasePath,
	})

	snap, err := s.renderSnapshot(ctx, id, logger)
	duration := s.now().Sub(start)
	s.recorder.ObserveBuildDuration(duration)

	ev := notify.BuildEvent{
		BuildID:    id,
		Output:     string(s.cfg.Build.Output),
		BasePath:   s.cfg.Build.BasePath,
		DurationMS: duration.Milliseconds(),
		Timestamp:  s.now(),
	}
	if err != nil {
		outcome := metrics.BuildOutcomeFailed
		ev.Status = "failed"
		if ctx.Err() != nil {
			outcome = metrics.BuildOutcomeCanceled
			ev.Status = "canceled"
		}
		s.recorder.IncBuildOutcome(outcome)
		s.record(ctx, id, eventstore.TypeBuildFailed, eventstore.BuildFailed{Error: err.Error()})
		ev.Error = err.Error()
		s.setLastError(err)
		logger.Error("Rebuild failed; serving previous snapshot", logfields.Error(err))
	} else {
		s.current.Store(snap)
		s.setLastError(nil)
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
		s.recorder.SetPagesRendered(len(snap.pages))
		s.record(ctx, id, eventstore.TypeBuildCompleted, eventstore.BuildCompleted{
			Pages: len(snap.pages), DurationMS: duration.Milliseconds(),
		})
		ev.Status = "completed"
		ev.Pages = len(snap.pages)
		logger.Info("Site rebuilt", logfields.Pages(len(snap.pages)), logfields.DurationMS(float64(duration.Milliseconds())))
		if s.hub != nil {
			s.hub.Broadcast(id)
		}
	}

	if nerr := s.notifier.Notify(context.WithoutCancel(ctx), ev); nerr != nil {
		logger.Warn("Failed to publish build notification", logfields.Error(nerr))
	}
	return err
}

func (s *Server) renderSnapshot(ctx context.Context, id string, logger *slog.Logger) (*snapshot, error) {
	site, _, err := export.LoadSite(ctx, s.cfg, logger)
	if err != nil {
		return nil, err
	}
	var opts []render.Option
	if s.optimizer != nil {
		policy := render.PolicyFor(s.cfg.Build)
		opts = append(opts, render.WithImageURL(func(p string) string { return s.optimizer.URL(policy, p) }))
	}
	renderer, err := export.NewRenderer(s.cfg, s.pageRoot(), logger, opts...)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{id: id, builtAt: s.now(), site: site, pages: make(map[string]renderedPage, len(site.Pages))}
	for _, page := range site.Pages {
		body, err := renderer.RenderPage(ctx, site, page)
		if err != nil {
			return nil, err
		}
		snap.pages[page.Route] = renderedPage{body: body, etag: `"` + page.Fingerprint + "-" + id[:8] + `"`}
	}
	if nf, ok := snap.pages[render.NotFoundRoute]; ok {
		snap.notFound = nf.body
	} else if snap.notFound, err = renderer.RenderNotFound(ctx, site); err != nil {
		return nil, err
	}
	return snap, nil
}

// pageRoot is the root used for rendering: the configured one (or the default analytics
// root), followed by the live reload client when watching.
func (s *Server) pageRoot() app.Root {
	root := s.root
	if s.hub == nil {
		return root
	}
	if root == nil {
		a := s.cfg.Analytics
		root = app.NewRoot(analytics.New(a.Enabled, a.Src, a.Attributes), s.logger)
	}
	return withLiveReload(root, s.policy.PublicURL(LiveReloadEndpoint))
}

func (s *Server) record(ctx context.Context, buildID, eventType string, payload any) {
	if s.store == nil {
		return
	}
	ev, err := eventstore.NewEvent(buildID, eventType, payload)
	if err == nil {
		err = eventstore.Record(context.WithoutCancel(ctx), s.store, ev)
	}
	if err != nil {
		s.logger.Warn("Failed to record build event", slog.String("type", eventType), logfields.Error(err))
	}
}
