// Package render turns discovered pages into complete HTML documents: Markdown output is
// post-processed, wrapped in the theme chrome, passed through the app root and placed in
// the document shell.
package render

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/analytics"
	"git.home.luguber.info/inful/docsite/internal/app"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/htmlx"
	"git.home.luguber.info/inful/docsite/internal/paths"
	"git.home.luguber.info/inful/docsite/internal/theme"
)

// NotFoundRoute is the pseudo-route of the 404 page.
const NotFoundRoute = "/404"

// Renderer renders pages for one configuration. It is safe for concurrent use.
type Renderer struct {
	cfg      *config.Config
	themeCfg *theme.Config
	theme    theme.Theme
	policy   paths.Policy
	root     app.Root
	imageURL func(string) string
	logger   *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRoot replaces the default app root.
func WithRoot(root app.Root) Option {
	return func(r *Renderer) {
		if root != nil {
			r.root = root
		}
	}
}

// WithImageURL routes local images through fn (the server-mode optimizer).
func WithImageURL(fn func(sitePath string) string) Option {
	return func(r *Renderer) { r.imageURL = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// PolicyFor derives the URL policy from the build configuration.
func PolicyFor(b config.BuildConfig) paths.Policy {
	return paths.Policy{BasePath: b.BasePath, TrailingSlash: b.TrailingSlash, AssetPrefix: b.AssetPrefix}
}

// New creates a renderer. Unless WithRoot is given, pages are wrapped by app.NewRoot with the
// configured analytics widget.
func New(cfg *config.Config, themeCfg *theme.Config, th theme.Theme, opts ...Option) *Renderer {
	r := &Renderer{
		cfg:      cfg,
		themeCfg: themeCfg,
		theme:    th,
		policy:   PolicyFor(cfg.Build),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.root == nil {
		widget := analytics.New(cfg.Analytics.Enabled, cfg.Analytics.Src, cfg.Analytics.Attributes)
		r.root = app.NewRoot(widget, r.logger)
	}
	return r
}

func (r *Renderer) Policy() paths.Policy { return r.policy }

func (r *Renderer) Theme() theme.Theme { return r.theme }

// RenderPage renders one page to a complete HTML document.
func (r *Renderer) RenderPage(ctx context.Context, site *content.Site, page *content.Page) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := htmlx.Rewrite(page.Doc.HTML, htmlx.Options{
		Policy:   r.policy,
		FromDir:  page.Dir(),
		ImageURL: r.imageURL,
		IsPage:   site.HasPage,
		Callouts: r.themeCfg.Components.Callout,
	})
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRender, "rewrite page HTML").
			WithContext("route", page.Route).Build()
	}

	data := r.basePageData(site, page.Route)
	data.Title = page.Title
	data.Description = page.Description()
	data.Href = r.policy.PageHref(page.Route)
	data.Content = template.HTML(body) //nolint:gosec // rendered from site-owner Markdown
	data.TOC = toc(page)
	data.EditURL = r.themeCfg.EditURL(path.Join(filepath.ToSlash(r.cfg.Content.PagesDir), page.SourcePath))
	data.LastUpdated = page.LastUpdated
	prev, next := site.Neighbors(page.Route)
	data.Prev, data.Next = r.navLink(prev), r.navLink(next)

	return r.document(data, r.canonical(page.Route))
}

// RenderNotFound renders the 404 page.
func (r *Renderer) RenderNotFound(ctx context.Context, site *content.Site) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := r.basePageData(site, NotFoundRoute)
	data.Title = "404: This page could not be found"
	data.NotFound = true
	home := template.HTMLEscapeString(data.RootHref)
	data.Content = template.HTML(`<h1>404</h1><p>This page could not be found.</p>` + //nolint:gosec // href is escaped
		`<p><a href="` + home + `">Go to the home page</a></p>`)
	return r.document(data, "")
}

func (r *Renderer) basePageData(site *content.Site, route string) *theme.PageData {
	root := r.policy.PageHref("/")
	logo := root
	if l := r.themeCfg.LogoLink; l != "" {
		logo = r.policy.ResolveHref(l, "/")
	}
	return &theme.PageData{
		Site: theme.SiteInfo{
			Title:       r.cfg.Site.Title,
			Description: r.cfg.Site.Description,
			Language:    r.cfg.Site.Language,
		},
		Config:   r.themeCfg,
		Route:    route,
		RootHref: root,
		LogoHref: logo,
		Nav:      r.nav(site.Tree, route),
	}
}

// document renders the page component through the app root and wraps it in the shell.
func (r *Renderer) document(data *theme.PageData, canonical string) ([]byte, error) {
	page := app.ComponentFunc(func(w io.Writer, _ app.Props) error {
		return r.theme.RenderPage(w, data)
	})
	props := app.Props{
		Route: data.Route,
		Title: data.Title,
		Data:  map[string]any{"description": data.Description},
	}

	var body bytes.Buffer
	if err := r.root.Render(&body, page, props); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRender, "render page").
			WithContext("route", data.Route).Build()
	}

	description := data.Description
	if description == "" {
		description = r.cfg.Site.Description
	}
	doc := &theme.Document{
		Lang:        r.cfg.Site.Language,
		Title:       r.themeCfg.FormatTitle(data.Title, r.cfg.Site.Title),
		Description: description,
		Canonical:   canonical,
		Head:        r.headTags(),
		HueCSS:      r.themeCfg.HueCSS(),
		Banner:      r.themeCfg.Banner,
		Stylesheets: r.assetURLs(r.theme.Stylesheets()),
		Scripts:     r.assetURLs(r.theme.Scripts()),
		Body:        template.HTML(body.String()), //nolint:gosec // produced by the theme templates
	}

	var out bytes.Buffer
	if err := r.theme.RenderDocument(&out, doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (r *Renderer) assetURLs(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, r.policy.AssetURL(theme.StaticPrefix+n))
	}
	return out
}

// headTags resolves root-relative link hrefs in configured head tags through the asset policy.
func (r *Renderer) headTags() []theme.HeadTag {
	out := make([]theme.HeadTag, 0, len(r.themeCfg.Head))
	for _, h := range r.themeCfg.Head {
		href, ok := h.Attrs["href"]
		if h.Tag != "link" || !ok || !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
			out = append(out, h)
			continue
		}
		attrs := make(map[string]string, len(h.Attrs))
		for k, v := range h.Attrs {
			attrs[k] = v
		}
		attrs["href"] = r.policy.AssetURL(href)
		out = append(out, theme.HeadTag{Tag: h.Tag, Attrs: attrs})
	}
	return out
}

func (r *Renderer) canonical(route string) string {
	if r.cfg.Site.URL == "" {
		return ""
	}
	return r.cfg.Site.URL + r.policy.PageHref(route)
}

func (r *Renderer) nav(nodes []*content.Node, active string) []theme.NavItem {
	items := make([]theme.NavItem, 0, len(nodes))
	for _, n := range nodes {
		if n.Hidden {
			continue
		}
		item := theme.NavItem{
			Title:    n.Title,
			Active:   n.Page != nil && n.Route == active,
			Children: r.nav(n.Children, active),
		}
		if n.Page != nil {
			item.Href = r.policy.PageHref(n.Route)
		}
		items = append(items, item)
	}
	return items
}

func (r *Renderer) navLink(p *content.Page) *theme.NavLink {
	if p == nil {
		return nil
	}
	return &theme.NavLink{Title: p.Title, Href: r.policy.PageHref(p.Route)}
}

func toc(page *content.Page) []theme.TOCEntry {
	if page.Doc == nil {
		return nil
	}
	headings := page.Doc.TOC()
	out := make([]theme.TOCEntry, 0, len(headings))
	for _, h := range headings {
		out = append(out, theme.TOCEntry{Level: h.Level, ID: h.ID, Text: h.Text})
	}
	return out
}
