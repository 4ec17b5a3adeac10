// Package server serves the site from a running process (build.output: server). Pages are
// rendered into in-memory snapshots; rebuilds are triggered by file changes, a schedule or
// the initial start.
package server

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/app"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/imageopt"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
	"git.home.luguber.info/inful/docsite/internal/paths"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/server/handlers"
	"git.home.luguber.info/inful/docsite/internal/server/middleware"
	"git.home.luguber.info/inful/docsite/internal/server/responses"
	"git.home.luguber.info/inful/docsite/internal/theme"
)

const shutdownTimeout = 5 * time.Second

// Server renders and serves one site configuration.
type Server struct {
	cfg       *config.Config
	policy    paths.Policy
	root      app.Root
	logger    *slog.Logger
	recorder  metrics.Recorder
	registry  *prometheus.Registry
	store     eventstore.Store
	notifier  notify.Notifier
	watch     bool
	port      int
	now       func() time.Time
	startTime time.Time

	errs      *derrors.HTTPErrorAdapter
	optimizer *imageopt.Optimizer
	hub       *LiveReloadHub
	public    fs.FS

	rebuildMu sync.Mutex
	current   atomic.Pointer[snapshot]
	statusMu  sync.RWMutex
	lastError error
}

// Option configures a Server.
type Option func(*Server)

// WithRoot replaces the default app root used to wrap every page.
func WithRoot(root app.Root) Option {
	return func(s *Server) { s.root = root }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRecorder(rec metrics.Recorder) Option {
	return func(s *Server) {
		if rec != nil {
			s.recorder = rec
		}
	}
}

// WithRegistry exposes reg on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithEventStore records rebuild events to store.
func WithEventStore(store eventstore.Store) Option {
	return func(s *Server) { s.store = store }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Server) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithWatch enables file watching and browser live reload.
func WithWatch(watch bool) Option {
	return func(s *Server) { s.watch = watch }
}

// WithPort overrides server.port.
func WithPort(port int) Option {
	return func(s *Server) {
		if port > 0 {
			s.port = port
		}
	}
}

// New creates a server. It does not render anything until Rebuild or Run is called.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		policy:   render.PolicyFor(cfg.Build),
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		notifier: notify.Noop{},
		port:     cfg.Server.Port,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startTime = s.now()
	s.errs = derrors.NewHTTPErrorAdapter(s.logger)
	if dir := cfg.Content.PublicDir; dir != "" {
		s.public = os.DirFS(dir)
	}
	if !cfg.Build.Images.Unoptimized && s.public != nil {
		s.optimizer = imageopt.New(s.public, cfg.Build.Images.Widths, cfg.Build.Images.Quality).WithRecorder(s.recorder)
	}
	if s.watch {
		s.hub = NewLiveReloadHub(s.logger)
	}
	return s
}

// GetStartTime reports when the server was created.
func (s *Server) GetStartTime() time.Time { return s.startTime }

// BuildStatus describes the snapshot being served.
func (s *Server) BuildStatus() responses.BuildStatus {
	st := responses.BuildStatus{}
	if snap := s.current.Load(); snap != nil {
		builtAt := snap.builtAt
		st.Ready = true
		st.BuildID = snap.id
		st.BuiltAt = &builtAt
		st.Pages = len(snap.pages)
	}
	s.statusMu.RLock()
	if s.lastError != nil {
		st.LastError = s.lastError.Error()
	}
	s.statusMu.RUnlock()
	return st
}

func (s *Server) setLastError(err error) {
	s.statusMu.Lock()
	s.lastError = err
	s.statusMu.Unlock()
}

// Handler returns the complete HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	monitoring := handlers.NewMonitoringHandlers(s, s.logger)
	mux.HandleFunc("/healthz", monitoring.HandleHealthCheck)
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}

	static := s.policy.PublicURL(theme.StaticPrefix) + "/"
	mux.Handle(static, http.StripPrefix(static, http.HandlerFunc(s.serveThemeAsset)))
	if s.optimizer != nil {
		mux.Handle(s.policy.PublicURL(imageopt.Endpoint), s.optimizer.Handler(s.errs))
	}
	if s.hub != nil {
		mux.Handle(s.policy.PublicURL(LiveReloadEndpoint), s.hub)
	}
	mux.HandleFunc("/", s.servePage)
	return middleware.Chain(s.logger, s.errs)(mux)
}

func (s *Server) serveThemeAsset(w http.ResponseWriter, r *http.Request) {
	th, err := theme.Get(s.cfg.Build.Theme.Name)
	if err != nil {
		s.errs.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.FileServerFS(th.Assets()).ServeHTTP(w, r)
}

// servePage serves pages from the current snapshot and files from the public directory.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		s.errs.WriteErrorResponse(w, r, derrors.ValidationError("method not allowed").
			WithContext("method", r.Method).Build())
		return
	}
	snap := s.current.Load()
	if snap == nil {
		s.errs.WriteErrorResponse(w, r, derrors.RuntimeError("site is not built yet").Retryable().Build())
		return
	}

	route, ok := s.policy.StripBase(r.URL.Path)
	if !ok {
		s.writeNotFound(w, r, snap)
		return
	}
	page, isPage := snap.page(route)
	if !isPage && path.Ext(route) != "" {
		s.servePublic(w, r, snap, route)
		return
	}
	canonical, redirect := s.policy.Canonical(r.URL.Path)
	if isPage {
		// dotted page routes such as /guide/v1.2 are not covered by Canonical
		canonical = s.policy.PageHref(route)
		redirect = canonical != r.URL.Path
	}
	if redirect {
		if r.URL.RawQuery != "" {
			canonical += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, canonical, http.StatusPermanentRedirect)
		return
	}
	if !isPage {
		s.writeNotFound(w, r, snap)
		return
	}
	w.Header().Set("ETag", page.etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == page.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeHTML(w, r, http.StatusOK, page.body)
}

func (s *Server) servePublic(w http.ResponseWriter, r *http.Request, snap *snapshot, route string) {
	if s.public == nil {
		s.writeNotFound(w, r, snap)
		return
	}
	name := route[1:]
	info, err := fs.Stat(s.public, name)
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to stat public file", logfields.Path(name), logfields.Error(err))
		}
		s.writeNotFound(w, r, snap)
		return
	}
	http.ServeFileFS(w, r, s.public, name)
}

func (s *Server) writeNotFound(w http.ResponseWriter, r *http.Request, snap *snapshot) {
	w.Header().Set("Cache-Control", "no-store")
	writeHTML(w, r, http.StatusNotFound, snap.notFound)
}

func writeHTML(w http.ResponseWriter, r *http.Request, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

// Run renders the site, starts the watcher and scheduler when configured and serves HTTP
// until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Build.IsExport() {
		return derrors.ConfigError("serve requires build.output: server (use build for static export)").
			UserAction().Build()
	}
	if err := s.Rebuild(ctx); err != nil {
		return err
	}

	var w *watcher
	if s.watch {
		var err error
		if w, err = s.startWatcher(ctx); err != nil {
			return err
		}
		defer w.Close()
	}
	sched, err := s.startScheduler(ctx)
	if err != nil {
		return err
	}
	if sched != nil {
		defer func() {
			if err := sched.Shutdown(); err != nil {
				s.logger.Warn("Scheduler shutdown error", logfields.Error(err))
			}
		}()
	}
	if s.hub != nil {
		defer s.hub.Shutdown()
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort("", strconv.Itoa(s.port)))
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "listen").
			WithContext("port", s.port).UserAction().Build()
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("Serving site",
		slog.String("addr", ln.Addr().String()),
		logfields.BasePath(s.cfg.Build.BasePath),
		slog.Bool("watch", s.watch))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return derrors.WrapError(err, derrors.CategoryNetwork, "serve").Build()
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if s.hub != nil {
		s.hub.Shutdown()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}
