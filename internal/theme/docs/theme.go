// Package docs is the built-in documentation theme: navbar, sidebar, table of contents,
// pagination, banner and footer around the rendered page.
package docs

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/theme"
)

// Name is the registry name of this theme.
const Name = "docs"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Theme implements theme.Theme.
type Theme struct {
	tmpl *template.Template
}

var _ theme.Theme = (*Theme)(nil)

func init() { theme.Register(New()) }

// New parses the embedded templates.
func New() *Theme {
	tmpl := template.Must(template.New(Name).Funcs(template.FuncMap{
		"headTag": headTag,
		"icon":    icon,
	}).ParseFS(templateFS, "templates/*.html"))
	return &Theme{tmpl: tmpl}
}

func (t *Theme) Name() string { return Name }

func (t *Theme) Assets() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded directory always exists
	}
	return sub
}

func (t *Theme) Stylesheets() []string { return []string{"docs.css"} }

func (t *Theme) Scripts() []string { return []string{"docs.js"} }

func (t *Theme) RenderPage(w io.Writer, data *theme.PageData) error {
	if err := t.tmpl.ExecuteTemplate(w, "page.html", data); err != nil {
		return derrors.WrapError(err, derrors.CategoryTheme, "render page template").
			WithContext("route", data.Route).Build()
	}
	return nil
}

func (t *Theme) RenderDocument(w io.Writer, doc *theme.Document) error {
	if err := t.tmpl.ExecuteTemplate(w, "document.html", doc); err != nil {
		return derrors.WrapError(err, derrors.CategoryTheme, "render document template").Build()
	}
	return nil
}

// headTag renders a configured meta or link element with sorted attributes.
func headTag(h theme.HeadTag) template.HTML {
	if h.Tag != "meta" && h.Tag != "link" {
		return ""
	}
	keys := make([]string, 0, len(h.Attrs))
	for k := range h.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("<" + h.Tag)
	for _, k := range keys {
		sb.WriteString(" " + template.HTMLEscapeString(k) + `="` + template.HTMLEscapeString(h.Attrs[k]) + `"`)
	}
	sb.WriteString(">")
	return template.HTML(sb.String()) //nolint:gosec // attribute names and values are escaped above
}

var icons = map[string]template.HTML{
	"github": `<svg width="24" height="24" viewBox="3 3 18 18" fill="currentColor" aria-hidden="true"><path d="M12 3C7.0275 3 3 7.12937 3 12.2276C3 16.3109 5.57625 19.7597 9.15374 20.9824C9.60374 21.0631 9.77249 20.7863 9.77249 20.5441C9.77249 20.3249 9.76125 19.5982 9.76125 18.8254C7.5 19.2522 6.915 18.2602 6.735 17.7412C6.63375 17.4759 6.195 16.6569 5.8125 16.4378C5.4975 16.2647 5.0475 15.838 5.80124 15.8264C6.51 15.8149 7.01625 16.4954 7.18499 16.7723C7.99499 18.1679 9.28875 17.7758 9.80625 17.5335C9.885 16.9337 10.1212 16.53 10.38 16.2993C8.3775 16.0687 6.285 15.2728 6.285 11.7432C6.285 10.7397 6.63375 9.9092 7.20749 9.26326C7.1175 9.03257 6.8025 8.08674 7.2975 6.81794C7.2975 6.81794 8.05125 6.57571 9.77249 7.76377C10.4925 7.55615 11.2575 7.45234 12.0225 7.45234C12.7875 7.45234 13.5525 7.55615 14.2725 7.76377C15.9937 6.56418 16.7475 6.81794 16.7475 6.81794C17.2424 8.08674 16.9275 9.03257 16.8375 9.26326C17.4113 9.9092 17.76 10.7281 17.76 11.7432C17.76 15.2843 15.6563 16.0687 13.6537 16.2993C13.98 16.5877 14.2613 17.1414 14.2613 18.0065C14.2613 19.2407 14.25 20.2326 14.25 20.5441C14.25 20.7863 14.4188 21.0746 14.8688 20.9824C16.6554 20.364 18.2079 19.1866 19.3078 17.6162C20.4077 16.0457 20.9995 14.1611 21 12.2276C21 7.12937 16.9725 3 12 3Z"/></svg>`,
	"chat":   `<svg width="24" height="24" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" aria-hidden="true"><path d="M21 15a2 2 0 0 1-2 2H7l-4 4V5a2 2 0 0 1 2-2h14a2 2 0 0 1 2 2z"/></svg>`,
	"menu":   `<svg width="24" height="24" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" aria-hidden="true"><path d="M4 6h16M4 12h16M4 18h16"/></svg>`,
	"theme":  `<svg width="20" height="20" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" aria-hidden="true"><circle cx="12" cy="12" r="5"/><path d="M12 1v2M12 21v2M4.22 4.22l1.42 1.42M18.36 18.36l1.42 1.42M1 12h2M21 12h2"/></svg>`,
}

func icon(name string) template.HTML { return icons[name] }
