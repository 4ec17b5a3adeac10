// Package app defines the page component contract and the root wrapper every page is
// rendered through.
package app

import (
	"bytes"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/docsite/internal/analytics"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Props are the per-page properties handed to a component.
type Props struct {
	Route string
	Title string
	// Data carries component-specific values.
	Data map[string]any
}

// Component renders one page.
type Component interface {
	Render(w io.Writer, props Props) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(w io.Writer, props Props) error

func (f ComponentFunc) Render(w io.Writer, props Props) error { return f(w, props) }

// Root wraps every page. Hosts register their own Root to replace the default.
type Root interface {
	Render(w io.Writer, page Component, props Props) error
}

// RootFunc adapts a function to Root.
type RootFunc func(w io.Writer, page Component, props Props) error

func (f RootFunc) Render(w io.Writer, page Component, props Props) error { return f(w, page, props) }

type defaultRoot struct {
	widget analytics.Widget
	logger *slog.Logger
}

// NewRoot returns the default root: the page followed by the analytics widget.
// A nil widget behaves like analytics.Noop.
func NewRoot(widget analytics.Widget, logger *slog.Logger) Root {
	if widget == nil {
		widget = analytics.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &defaultRoot{widget: widget, logger: logger}
}

// Render writes the page, then the widget. A widget failure is logged and its partial
// output discarded; page output is never affected.
func (r *defaultRoot) Render(w io.Writer, page Component, props Props) error {
	if err := page.Render(w, props); err != nil {
		return err
	}

	var widget bytes.Buffer
	if err := r.widget.Render(&widget); err != nil {
		r.logger.Warn("Analytics widget failed; page rendered without it",
			logfields.Route(props.Route),
			logfields.Error(err))
		return nil
	}
	_, err := w.Write(widget.Bytes())
	return err
}
