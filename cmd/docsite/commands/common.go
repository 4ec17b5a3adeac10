// Package commands implements the docsite command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"

	_ "git.home.luguber.info/inful/docsite/internal/theme/docs" // registers the "docs" theme
)

// EventsDB is the event store file inside the state directory.
const EventsDB = "events.db"

// Global is shared state bound into every command.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docsite.yaml" type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build   BuildCmd   `cmd:"" help:"Export the site to static files"`
	Serve   ServeCmd   `cmd:"" help:"Serve the site from a running process (build.output: server)"`
	Init    InitCmd    `cmd:"" help:"Create a configuration, theme configuration and starter page"`
	Verify  VerifyCmd  `cmd:"" help:"Check links and asset URLs of the exported site"`
	History HistoryCmd `cmd:"" help:"Show recent builds"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// AfterApply installs a bootstrap logger until the configuration is loaded.
// nolint:unparam // kong hook signature.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// loadConfig reads the configuration and switches to the configured logger.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = cfg.Logging.NewLogger(os.Stderr, root.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// runtime holds the optional collaborators of build and serve.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	recorder metrics.Recorder
	store    eventstore.Store
	notifier notify.Notifier
}

// openRuntime loads the configuration and wires metrics, the event store and notifications.
// The event store and notifier are optional: failures are logged and the command goes on.
func openRuntime(g *Global, root *CLI) (*runtime, error) {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	rt := &runtime{
		cfg:      cfg,
		logger:   g.Logger,
		registry: reg,
		recorder: metrics.NewPrometheusRecorder(reg),
		notifier: notify.Noop{},
	}

	if store, err := openStore(cfg); err != nil {
		rt.logger.Warn("Build history disabled", logfields.Error(err))
	} else {
		rt.store = store
	}

	if cfg.Notify.NATSURL != "" {
		n, err := notify.Connect(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			rt.logger.Warn("Build notifications disabled", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			rt.notifier = n
		}
	}
	return rt, nil
}

func openStore(cfg *config.Config) (*eventstore.SQLiteStore, error) {
	if err := os.MkdirAll(cfg.Storage.StateDir, 0o755); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "create state directory").
			WithContext("path", cfg.Storage.StateDir).Build()
	}
	return eventstore.NewSQLiteStore(cfg.StatePath(EventsDB))
}

func (rt *runtime) Close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.logger.Warn("Failed to close event store", logfields.Error(err))
		}
	}
	if err := rt.notifier.Close(); err != nil {
		rt.logger.Warn("Failed to close notifier", logfields.Error(err))
	}
}
