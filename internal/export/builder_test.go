package export

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/app"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
	"git.home.luguber.info/inful/docsite/internal/theme"
	_ "git.home.luguber.info/inful/docsite/internal/theme/docs"
)

var logoPNG = []byte("\x89PNG\r\n\x1a\nnot-really-a-png")

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

// newSite lays out a small NextNative-style project and returns its configuration.
func newSite(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pages", "index.md"), "# Welcome\n\nSee [setup](guide/setup.md).\n")
	writeFile(t, filepath.Join(dir, "pages", "guide", "setup.md"),
		"---\ntitle: Setup\n---\n# Setup\n\n![logo](/logo.png)\n\n## Install\n")
	writeFile(t, filepath.Join(dir, "public", "logo.png"), string(logoPNG))
	require.NoError(t, theme.WriteExample(filepath.Join(dir, "theme.yaml"), false))

	cfg := config.Example()
	cfg.Content.PagesDir = filepath.Join(dir, "pages")
	cfg.Content.PublicDir = filepath.Join(dir, "public")
	cfg.Build.DistDir = filepath.Join(dir, "out")
	cfg.Build.Theme.Config = filepath.Join(dir, "theme.yaml")
	cfg.Storage.StateDir = filepath.Join(dir, ".docsite")
	require.NoError(t, config.ApplyDefaults(&cfg))
	return &cfg
}

type capturingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	outcomes []metrics.BuildOutcomeLabel
	pages    int
}

func newCapturingRecorder() *capturingRecorder {
	return &capturingRecorder{stages: map[string]metrics.ResultLabel{}}
}

func (c *capturingRecorder) IncStageResult(stage string, r metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages[stage] = r
}

func (c *capturingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func (c *capturingRecorder) SetPagesRendered(n int) { c.pages = n }

type capturingNotifier struct {
	events []notify.BuildEvent
}

func (c *capturingNotifier) Notify(_ context.Context, ev notify.BuildEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func (c *capturingNotifier) Close() error { return nil }

func readOut(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Build.DistDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestBuildExportsSite(t *testing.T) {
	cfg := newSite(t)
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	rec := newCapturingRecorder()
	notifier := &capturingNotifier{}

	report, err := New(cfg, WithEventStore(store), WithRecorder(rec), WithNotifier(notifier)).Build(t.Context())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 3, report.Assets) // docs.css, docs.js, logo.png
	assert.Zero(t, report.BrokenLinks)
	assert.Len(t, report.StageDurations, len(defaultStages()))

	index := readOut(t, cfg, "index.html")
	assert.Contains(t, index, `href="/docs/guide/setup"`)
	assert.Contains(t, index, `href="https://nextnative.dev/docs/_docsite/static/docs.css"`)
	assert.Contains(t, index, "<title>Welcome – NextNative Docs</title>")

	setup := readOut(t, cfg, "guide/setup.html")
	assert.Contains(t, setup, `src="https://nextnative.dev/docs/logo.png"`)
	assert.Contains(t, setup, `id="install"`)

	assert.Equal(t, string(logoPNG), readOut(t, cfg, "logo.png"), "public files are copied byte-for-byte")
	assert.NotEmpty(t, readOut(t, cfg, "_docsite/static/docs.js"))
	assert.Contains(t, readOut(t, cfg, "404.html"), "This page could not be found")

	_, err = os.Stat(cfg.Build.DistDir + "_stage")
	assert.True(t, os.IsNotExist(err), "staging directory removed")

	persisted, err := LoadReport(cfg.Storage.StateDir)
	require.NoError(t, err)
	assert.Equal(t, report.BuildID, persisted.BuildID)

	events, err := store.GetByBuildID(t.Context(), report.BuildID)
	require.NoError(t, err)
	require.Len(t, events, len(defaultStages())+2)
	assert.Equal(t, eventstore.TypeBuildStarted, events[0].Type())
	assert.Equal(t, eventstore.TypeBuildCompleted, events[len(events)-1].Type())

	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	assert.Equal(t, metrics.ResultSuccess, rec.stages[string(StageRenderPages)])
	assert.Equal(t, 2, rec.pages)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "completed", notifier.events[0].Status)
	assert.Equal(t, report.BuildID, notifier.events[0].BuildID)
}

func TestBuildTrailingSlashLayout(t *testing.T) {
	cfg := newSite(t)
	cfg.Build.TrailingSlash = true

	_, err := New(cfg).Build(t.Context())
	require.NoError(t, err)

	setup := readOut(t, cfg, "guide/setup/index.html")
	assert.Contains(t, setup, `href="/docs/"`)
	assert.Contains(t, readOut(t, cfg, "index.html"), `href="/docs/guide/setup/"`)
}

func TestBuildCustomNotFoundPage(t *testing.T) {
	for _, slash := range []bool{false, true} {
		cfg := newSite(t)
		cfg.Build.TrailingSlash = slash
		writeFile(t, filepath.Join(cfg.Content.PagesDir, "404.md"), "# Lost in the docs\n")

		_, err := New(cfg).Build(t.Context())
		require.NoError(t, err)

		notFound := readOut(t, cfg, "404.html")
		assert.Contains(t, notFound, "Lost in the docs", "trailing slash %v", slash)
		assert.NotContains(t, notFound, "This page could not be found")
		assert.NoFileExists(t, filepath.Join(cfg.Build.DistDir, "404", "index.html"))
	}
}

func TestBuildUsesCustomRoot(t *testing.T) {
	cfg := newSite(t)
	root := app.RootFunc(func(w io.Writer, page app.Component, props app.Props) error {
		if err := page.Render(w, props); err != nil {
			return err
		}
		_, err := io.WriteString(w, "<!-- root:"+props.Route+" -->")
		return err
	})

	_, err := New(cfg, WithRoot(root)).Build(t.Context())
	require.NoError(t, err)
	assert.Contains(t, readOut(t, cfg, "guide/setup.html"), "<!-- root:/guide/setup -->")
}

func TestBuildRejectsServerOutput(t *testing.T) {
	cfg := newSite(t)
	cfg.Build.Output = config.OutputServer
	cfg.Build.Images.Unoptimized = false
	notifier := &capturingNotifier{}

	report, err := New(cfg, WithNotifier(notifier)).Build(t.Context())
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryConfig))
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, StageValidate, report.FailedStage)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, "failed", notifier.events[0].Status)
}

func TestFailedBuildKeepsPreviousOutput(t *testing.T) {
	cfg := newSite(t)
	_, err := New(cfg).Build(t.Context())
	require.NoError(t, err)
	before := readOut(t, cfg, "index.html")

	// a public file that collides with a rendered page
	writeFile(t, filepath.Join(cfg.Content.PublicDir, "index.html"), "<p>shadow</p>")

	report, err := New(cfg).Build(t.Context())
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryContent))
	assert.Equal(t, StagePublicAssets, report.FailedStage)
	assert.Equal(t, before, readOut(t, cfg, "index.html"))

	_, err = os.Stat(cfg.Build.DistDir + "_stage")
	assert.True(t, os.IsNotExist(err))
}

func TestBuildCanceled(t *testing.T) {
	cfg := newSite(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report, err := New(cfg).Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestReportSummary(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &Report{Start: start, End: start.Add(1500 * time.Millisecond), Pages: 3, Assets: 2, Outcome: OutcomeSuccess,
		StageDurations: map[StageName]time.Duration{StageValidate: time.Millisecond}}
	s := r.Summary()
	assert.True(t, strings.HasPrefix(s, "pages=3 assets=2"), s)
	assert.Contains(t, s, "duration=1.5s")
	assert.Contains(t, s, "outcome=success")
}
