// Package content discovers Markdown pages, derives their routes and titles, and orders
// them into the sidebar tree.
package content

import (
	"path"
	"strings"
	"time"

	"github.com/inful/mdfp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// Page is one Markdown source file.
type Page struct {
	Route string
	// SourcePath is slash-separated and relative to the pages directory.
	SourcePath  string
	Frontmatter Frontmatter
	Title       string
	Body        []byte
	Doc         *markdown.Result
	Fingerprint string
	LastUpdated time.Time
	Hidden      bool
}

// Dir is the route directory relative links in the page resolve against.
func (p *Page) Dir() string {
	return path.Dir("/" + p.SourcePath)
}

// IsIndex reports whether the page is a directory index file.
func (p *Page) IsIndex() bool {
	return strings.TrimSuffix(path.Base(p.SourcePath), path.Ext(p.SourcePath)) == "index"
}

// Description returns the frontmatter description.
func (p *Page) Description() string { return p.Frontmatter.Description }

// routeForSource maps "guide/setup.md" to "/guide/setup" and "guide/index.md" to "/guide".
func routeForSource(sourcePath string) string {
	trimmed := strings.TrimSuffix(sourcePath, path.Ext(sourcePath))
	if path.Base(trimmed) == "index" {
		trimmed = path.Dir(trimmed)
	}
	if trimmed == "." {
		return "/"
	}
	return path.Clean("/" + trimmed)
}

var titleCaser = cases.Title(language.English)

// titleFromName turns a file or directory name into a display title: "getting-started"
// becomes "Getting Started".
func titleFromName(name string) string {
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}

// pageTitle applies the title precedence: frontmatter, first level-1 heading, file name.
func pageTitle(fm Frontmatter, doc *markdown.Result, sourcePath string) string {
	if t := strings.TrimSpace(fm.Title); t != "" {
		return t
	}
	if doc != nil {
		if t := doc.Title(); t != "" {
			return t
		}
	}
	base := path.Base(sourcePath)
	if strings.TrimSuffix(base, path.Ext(base)) == "index" {
		dir := path.Dir(sourcePath)
		if dir == "." {
			return "Introduction"
		}
		return titleFromName(path.Base(dir))
	}
	return titleFromName(base)
}

// fingerprint hashes the raw frontmatter and body with mdfp.
func fingerprint(rawFrontmatter, body []byte) string {
	fm := strings.TrimSuffix(strings.TrimSuffix(string(rawFrontmatter), "\n"), "\r")
	return mdfp.CalculateFingerprintFromParts(fm, string(body))
}
