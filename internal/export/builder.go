// Package export builds the static site: every route is pre-rendered to a file under the
// dist directory together with theme and public assets.
package export

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsite/internal/app"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
	"git.home.luguber.info/inful/docsite/internal/render"
)

// Builder runs export builds for one configuration.
type Builder struct {
	cfg      *config.Config
	root     app.Root
	logger   *slog.Logger
	recorder metrics.Recorder
	store    eventstore.Store
	notifier notify.Notifier
	stages   []StageDef
	now      func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithRoot replaces the default app root used to wrap every page.
func WithRoot(root app.Root) Option {
	return func(b *Builder) { b.root = root }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithRecorder(rec metrics.Recorder) Option {
	return func(b *Builder) {
		if rec != nil {
			b.recorder = rec
		}
	}
}

// WithEventStore records build events to store.
func WithEventStore(store eventstore.Store) Option {
	return func(b *Builder) { b.store = store }
}

// WithNotifier publishes a notification after every build.
func WithNotifier(n notify.Notifier) Option {
	return func(b *Builder) {
		if n != nil {
			b.notifier = n
		}
	}
}

// New creates a builder.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		notifier: notify.Noop{},
		stages:   defaultStages(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// buildState carries data between stages of one build.
type buildState struct {
	b        *Builder
	cfg      *config.Config
	logger   *slog.Logger
	report   *Report
	site     *content.Site
	renderer *render.Renderer
	stageDir string
	written  map[string]string // output file -> producer
}

// Build runs the export pipeline. The returned report is non-nil even when err is set.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	id := uuid.NewString()
	report := newReport(id, b.cfg, b.now())
	bs := &buildState{
		b:       b,
		cfg:     b.cfg,
		logger:  b.logger.With(logfields.BuildID(id)),
		report:  report,
		written: map[string]string{},
	}

	bs.logger.Info("Export build started",
		logfields.OutputMode(string(b.cfg.Build.Output)),
		logfields.BasePath(b.cfg.Build.BasePath),
		logfields.Path(b.cfg.Build.DistDir))
	b.record(ctx, id, eventstore.TypeBuildStarted, eventstore.BuildStarted{
		Output:   string(b.cfg.Build.Output),
		BasePath: b.cfg.Build.BasePath,
		DistDir:  b.cfg.Build.DistDir,
	})

	err := runStages(ctx, bs, b.stages)
	if err != nil && bs.stageDir != "" {
		abortStaging(bs.stageDir, bs.logger)
	}
	report.finish(b.now(), err)
	b.complete(ctx, bs, err)
	return report, err
}

// complete records metrics, events, the persisted report and the notification.
func (b *Builder) complete(ctx context.Context, bs *buildState, err error) {
	r := bs.report
	b.recorder.ObserveBuildDuration(r.Duration())
	switch r.Outcome {
	case OutcomeSuccess:
		b.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
		b.recorder.SetPagesRendered(r.Pages)
		b.record(ctx, r.BuildID, eventstore.TypeBuildCompleted, eventstore.BuildCompleted{
			Pages: r.Pages, Assets: r.Assets, DurationMS: r.Duration().Milliseconds(),
		})
		bs.logger.Info("Export build complete", slog.String("summary", r.Summary()))
	default:
		outcome := metrics.BuildOutcomeFailed
		if r.Outcome == OutcomeCanceled {
			outcome = metrics.BuildOutcomeCanceled
		}
		b.recorder.IncBuildOutcome(outcome)
		b.record(ctx, r.BuildID, eventstore.TypeBuildFailed, eventstore.BuildFailed{
			Stage: string(r.FailedStage), Error: r.Error,
		})
		bs.logger.Error("Export build failed", stageField(r.FailedStage), logfields.Error(err))
	}

	if b.cfg.Storage.StateDir != "" {
		if perr := r.Persist(b.cfg.Storage.StateDir); perr != nil {
			bs.logger.Warn("Failed to persist build report", logfields.Error(perr))
		}
	}

	nctx := context.WithoutCancel(ctx)
	if nerr := b.notifier.Notify(nctx, r.Notification()); nerr != nil {
		bs.logger.Warn("Failed to publish build notification", logfields.Error(nerr))
	}
}

// record appends an event when an event store is configured. Failures are logged only.
func (b *Builder) record(ctx context.Context, buildID, eventType string, payload any) {
	if b.store == nil {
		return
	}
	ev, err := eventstore.NewEvent(buildID, eventType, payload)
	if err == nil {
		err = eventstore.Record(context.WithoutCancel(ctx), b.store, ev)
	}
	if err != nil {
		b.logger.Warn("Failed to record build event", slog.String("type", eventType), logfields.Error(err))
	}
}

func stageField(name StageName) slog.Attr { return logfields.Stage(string(name)) }

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
