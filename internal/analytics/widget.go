// Package analytics renders the client-side analytics loader mounted after every page.
package analytics

import (
	"html/template"
	"io"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Widget renders the analytics fragment placed after page content.
type Widget interface {
	Render(w io.Writer) error
}

// Noop renders nothing.
type Noop struct{}

func (Noop) Render(io.Writer) error { return nil }

// Script is a deferred loader for a third-party analytics script. Nothing is fetched
// until the browser load event fires; load failures are swallowed in the browser so the
// page keeps working.
type Script struct {
	Src        string
	Attributes map[string]string
}

var loaderTmpl = template.Must(template.New("analytics").Parse(
	`<script data-docsite-analytics>` +
		`window.addEventListener("load",function(){` +
		`try{` +
		`var s=document.createElement("script");` +
		`s.src={{.Src}};s.async=true;s.defer=true;` +
		`s.onerror=function(){};` +
		`var a={{.Attrs}};` +
		`for(var k in a){s.setAttribute(k,a[k]);}` +
		`document.body.appendChild(s);` +
		`}catch(e){}` +
		`});` +
		`</script>`))

// Render writes the loader script.
func (s Script) Render(w io.Writer) error {
	if s.Src == "" {
		return derrors.ConfigError("analytics script source is empty").Build()
	}
	attrs := s.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	if err := loaderTmpl.Execute(w, struct {
		Src   string
		Attrs map[string]string
	}{Src: s.Src, Attrs: attrs}); err != nil {
		return derrors.WrapError(err, derrors.CategoryRender, "render analytics loader").Build()
	}
	return nil
}

// New returns the widget for the analytics configuration.
func New(enabled bool, src string, attrs map[string]string) Widget {
	if !enabled || src == "" {
		return Noop{}
	}
	return Script{Src: src, Attributes: attrs}
}
