package theme

import (
	"html/template"
	"io"
	"io/fs"
	"sort"
	"sync"
	"time"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// StaticPrefix is the site-relative directory theme assets are published under.
const StaticPrefix = "/_docsite/static/"

// Theme renders the documentation chrome around page content.
type Theme interface {
	Name() string
	// Assets holds the theme's static files, published under StaticPrefix.
	Assets() fs.FS
	// Stylesheets and Scripts list asset names (relative to Assets) every document loads.
	Stylesheets() []string
	Scripts() []string
	// RenderPage writes the page body: navbar, sidebar, article, TOC and footer.
	RenderPage(w io.Writer, data *PageData) error
	// RenderDocument wraps an already rendered body in the HTML document shell.
	RenderDocument(w io.Writer, doc *Document) error
}

// PageData is everything a theme needs to render one page.
type PageData struct {
	Site        SiteInfo
	Config      *Config
	Title       string
	Description string
	Route       string
	Href        string
	RootHref    string
	LogoHref    string
	Content     template.HTML
	TOC         []TOCEntry
	Nav         []NavItem
	Prev        *NavLink
	Next        *NavLink
	EditURL     string
	LastUpdated time.Time
	NotFound    bool
}

type SiteInfo struct {
	Title       string
	Description string
	Language    string
}

// TOCEntry is one "On this page" heading.
type TOCEntry struct {
	Level int
	ID    string
	Text  string
}

// NavItem is one sidebar entry; folders carry children.
type NavItem struct {
	Title    string
	Href     string
	Active   bool
	Children []NavItem
}

type NavLink struct {
	Title string
	Href  string
}

// Document is the HTML shell around a rendered body.
type Document struct {
	Lang        string
	Title       string
	Description string
	Canonical   string
	Head        []HeadTag
	HueCSS      template.CSS
	Banner      *Banner
	Stylesheets []string
	Scripts     []string
	Body        template.HTML
}

var (
	regMu sync.RWMutex
	reg   = map[string]Theme{}
)

// Register registers a Theme implementation (idempotent).
func Register(t Theme) {
	if t == nil {
		return
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, ok := reg[t.Name()]; !ok {
		reg[t.Name()] = t
	}
}

// Get retrieves a theme by name.
func Get(name string) (Theme, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	t, ok := reg[name]
	if !ok {
		return nil, derrors.ThemeError("unknown theme").
			WithContext("theme", name).
			WithContext("available", names()).
			Build()
	}
	return t, nil
}

// Names lists registered theme names in sorted order.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	return names()
}

func names() []string {
	names := make([]string, 0, len(reg))
	for n := range reg {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
