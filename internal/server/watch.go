package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

const debounceWindow = 300 * time.Millisecond

// watcher rebuilds the site when pages, public files or the theme configuration change.
type watcher struct {
	s         *Server
	fsw       *fsnotify.Watcher
	themeFile string
	requests  chan struct{}

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

func (s *Server) startWatcher(ctx context.Context) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "create file watcher").Build()
	}
	w := &watcher{s: s, fsw: fsw, requests: make(chan struct{}, 1), done: make(chan struct{})}

	for _, dir := range []string{s.cfg.Content.PagesDir, s.cfg.Content.PublicDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err == nil {
			w.addRecursive(dir)
		}
	}
	if tf := s.cfg.Build.Theme.Config; tf != "" {
		w.themeFile = filepath.Clean(tf)
		if err := fsw.Add(filepath.Dir(w.themeFile)); err != nil {
			s.logger.Warn("Failed to watch theme configuration", logfields.Path(tf), logfields.Error(err))
		}
	}

	go w.loop(ctx)
	go w.worker(ctx)
	s.logger.Info("Watching for changes", logfields.Path(s.cfg.Content.PagesDir))
	return w, nil
}

// Close stops watching. It is safe to call more than once.
func (w *watcher) Close() {
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		_ = w.fsw.Close()
	})
}

func (w *watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.s.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addRecursive(ev.Name)
		}
	}
	if !w.relevant(ev.Name) {
		return
	}
	w.s.logger.Debug("File change detected", logfields.Path(ev.Name))
	w.trigger()
}

// relevant filters events from the theme configuration directory down to the file itself.
func (w *watcher) relevant(name string) bool {
	if w.themeFile == "" || filepath.Dir(filepath.Clean(name)) != filepath.Dir(w.themeFile) {
		return true
	}
	for _, dir := range []string{w.s.cfg.Content.PagesDir, w.s.cfg.Content.PublicDir} {
		if dir != "" && filepath.Clean(dir) == filepath.Dir(w.themeFile) {
			return true
		}
	}
	return filepath.Clean(name) == w.themeFile
}

// trigger debounces bursts of changes into one rebuild request.
func (w *watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceWindow, func() {
		select {
		case w.requests <- struct{}{}:
		default:
		}
	})
}

// worker serializes rebuilds; requests arriving during a rebuild coalesce into one follow-up.
func (w *watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.requests:
			w.s.logger.Info("Change detected; rebuilding site")
			_ = w.s.Rebuild(ctx)
		}
	}
}

func (w *watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				w.s.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports editor swap files, hidden files and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
