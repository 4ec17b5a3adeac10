package content

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// Options controls discovery.
type Options struct {
	IncludeDrafts bool
	// Markdown renders page bodies; a default renderer allowing raw HTML is used when nil.
	Markdown *markdown.Renderer
}

// Discover loads every page below dir.
func Discover(ctx context.Context, dir string, opts Options) (*Site, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, derrors.ContentError("pages directory not found").
			WithContext("path", dir).WithCause(err).Build()
	}
	return Load(ctx, os.DirFS(dir), opts)
}

// Load discovers pages in fsys rooted at ".".
func Load(ctx context.Context, fsys fs.FS, opts Options) (*Site, error) {
	if opts.Markdown == nil {
		opts.Markdown = markdown.NewRenderer(markdown.Options{AllowHTML: true})
	}
	l := &loader{ctx: ctx, fsys: fsys, opts: opts, byRoute: map[string]*Page{}}

	_, nodes, err := l.loadDir(".")
	if err != nil {
		return nil, err
	}
	if len(l.byRoute) == 0 {
		return nil, derrors.ContentError("no pages found").Build()
	}

	markHidden(nodes, false)
	return &Site{
		Pages:   flatten(nodes, nil),
		Tree:    nodes,
		byRoute: l.byRoute,
	}, nil
}

type loader struct {
	ctx     context.Context
	fsys    fs.FS
	opts    Options
	byRoute map[string]*Page
}

// loadDir returns the directory's index page (if any) and its sorted child nodes. The
// root index page is returned as an ordinary child node.
func (l *loader) loadDir(dir string) (*Page, []*Node, error) {
	if err := l.ctx.Err(); err != nil {
		return nil, nil, err
	}
	entries, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		return nil, nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read pages directory").
			WithContext("path", dir).Build()
	}

	meta, err := l.loadMeta(dir)
	if err != nil {
		return nil, nil, err
	}

	var index *Page
	var nodes []*Node
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		rel := path.Join(dir, name)

		if e.IsDir() {
			sub, children, err := l.loadDir(rel)
			if err != nil {
				return nil, nil, err
			}
			if sub == nil && len(children) == 0 {
				continue
			}
			nodes = append(nodes, l.folderNode(rel, name, sub, children, meta))
			continue
		}

		if !strings.EqualFold(path.Ext(name), ".md") {
			continue
		}
		page, err := l.loadPage(rel)
		if err != nil {
			return nil, nil, err
		}
		if page == nil {
			continue
		}
		if page.IsIndex() && dir != "." {
			index = page
			continue
		}
		nodes = append(nodes, l.pageNode(page, strings.TrimSuffix(name, path.Ext(name)), meta))
	}
	sortNodes(nodes)
	return index, nodes, nil
}

func (l *loader) loadMeta(dir string) (*Meta, error) {
	data, err := fs.ReadFile(l.fsys, path.Join(dir, MetaFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read "+MetaFile).
			WithContext("file", path.Join(dir, MetaFile)).Build()
	}
	meta, err := parseMeta(data)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryContent, "invalid "+MetaFile).
			UserAction().WithContext("file", path.Join(dir, MetaFile)).Build()
	}
	return meta, nil
}

// loadPage reads one Markdown file. Drafts return nil unless drafts are included.
func (l *loader) loadPage(rel string) (*Page, error) {
	data, err := fs.ReadFile(l.fsys, rel)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read page").
			WithContext("file", rel).Build()
	}

	rawFM, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryContent, "invalid frontmatter").
			UserAction().WithContext("file", rel).Build()
	}
	fm, err := parseFrontmatter(rawFM)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryContent, "invalid frontmatter").
			UserAction().WithContext("file", rel).Build()
	}
	if fm.Draft && !l.opts.IncludeDrafts {
		return nil, nil
	}

	doc, err := l.opts.Markdown.Render(body)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRender, "render markdown").
			WithContext("file", rel).Build()
	}

	page := &Page{
		Route:       routeForSource(rel),
		SourcePath:  rel,
		Frontmatter: fm,
		Body:        body,
		Doc:         doc,
		Fingerprint: fingerprint(rawFM, body),
	}
	page.Title = pageTitle(fm, doc, rel)

	if other, dup := l.byRoute[page.Route]; dup {
		return nil, derrors.ContentError("duplicate route").
			WithContext("route", page.Route).
			WithContext("file", rel).
			WithContext("conflicts_with", other.SourcePath).
			Build()
	}
	l.byRoute[page.Route] = page
	return page, nil
}

func (l *loader) pageNode(p *Page, name string, meta *Meta) *Node {
	n := &Node{Name: name, Title: p.Title, Route: p.Route, Page: p, weight: p.Frontmatter.Weight, order: -1}
	if entry, i, ok := meta.Lookup(name); ok {
		n.order = i
		n.Hidden = entry.Hidden
		if entry.Title != "" {
			n.Title = entry.Title
		}
	}
	return n
}

func (l *loader) folderNode(rel, name string, index *Page, children []*Node, meta *Meta) *Node {
	n := &Node{Name: name, Route: routeForSource(rel + "/index.md"), Page: index, Children: children, order: -1}
	switch {
	case index != nil:
		n.Title = index.Title
		n.weight = index.Frontmatter.Weight
	default:
		n.Title = titleFromName(name)
	}
	if entry, i, ok := meta.Lookup(name); ok {
		n.order = i
		n.Hidden = entry.Hidden
		if entry.Title != "" {
			n.Title = entry.Title
		}
	}
	return n
}

// markHidden propagates hidden folders to every page below them.
func markHidden(nodes []*Node, parentHidden bool) {
	for _, n := range nodes {
		n.Hidden = n.Hidden || parentHidden
		if n.Page != nil && n.Hidden {
			n.Page.Hidden = true
		}
		markHidden(n.Children, n.Hidden)
	}
}
