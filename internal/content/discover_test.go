package content

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/paths"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

func sampleFS() fstest.MapFS {
	return fstest.MapFS{
		"index.md":            file("# Welcome\n\nHello.\n"),
		"getting-started.md":  file("---\ntitle: Getting Started\ndescription: First steps\n---\n\n## Install\n"),
		"api.md":              file("Reference without heading.\n"),
		"_meta.yaml":          file("index: Introduction\ngetting-started: Quick Start\nguide: Guides\n"),
		"guide/index.md":      file("# Guide Overview\n"),
		"guide/advanced.md":   file("---\nweight: 2\n---\n# Advanced\n"),
		"guide/basics.md":     file("---\nweight: 1\n---\n# Basics\n[next](advanced.md) [up](../api) [gone](missing.md)\n"),
		"guide/draft.md":      file("---\ndraft: true\n---\n# Draft\n"),
		"internal/_meta.yaml": file("secret:\n  title: Secret\n  hidden: true\n"),
		"internal/secret.md":  file("# Secret\n"),
		".hidden.md":          file("# Nope\n"),
		"_partial.md":         file("# Nope\n"),
		"images/diagram.png":  file("png"),
		"empty/notes.txt":     file("not markdown"),
	}
}

func TestLoad_RoutesAndTitles(t *testing.T) {
	site, err := Load(context.Background(), sampleFS(), Options{})
	require.NoError(t, err)

	tests := []struct {
		route  string
		title  string
		source string
	}{
		{"/", "Welcome", "index.md"},
		{"/getting-started", "Getting Started", "getting-started.md"},
		{"/api", "Api", "api.md"},
		{"/guide", "Guide Overview", "guide/index.md"},
		{"/guide/basics", "Basics", "guide/basics.md"},
		{"/internal/secret", "Secret", "internal/secret.md"},
	}
	for _, tt := range tests {
		p, ok := site.Page(tt.route)
		require.True(t, ok, "route %s", tt.route)
		assert.Equal(t, tt.title, p.Title)
		assert.Equal(t, tt.source, p.SourcePath)
		assert.NotEmpty(t, p.Fingerprint)
	}

	_, ok := site.Page("/guide/draft")
	assert.False(t, ok, "drafts are skipped by default")
	_, ok = site.Page("/hidden")
	assert.False(t, ok)
	_, ok = site.Page("/_partial")
	assert.False(t, ok)
}

func TestLoad_IncludeDrafts(t *testing.T) {
	site, err := Load(context.Background(), sampleFS(), Options{IncludeDrafts: true})
	require.NoError(t, err)
	_, ok := site.Page("/guide/draft")
	assert.True(t, ok)
}

func TestLoad_SidebarOrder(t *testing.T) {
	site, err := Load(context.Background(), sampleFS(), Options{})
	require.NoError(t, err)

	var top []string
	for _, n := range site.Tree {
		top = append(top, n.Title)
	}
	// _meta.yaml entries first, then the rest by title.
	assert.Equal(t, []string{"Introduction", "Quick Start", "Guides", "Api", "Internal"}, top)

	guide := site.Tree[2]
	require.True(t, guide.IsFolder())
	assert.Equal(t, "/guide", guide.Route)
	require.NotNil(t, guide.Page)
	require.Len(t, guide.Children, 2)
	assert.Equal(t, "Basics", guide.Children[0].Title)
	assert.Equal(t, "Advanced", guide.Children[1].Title)

	var routes []string
	for _, p := range site.Pages {
		routes = append(routes, p.Route)
	}
	assert.Equal(t, []string{"/", "/getting-started", "/guide", "/guide/basics", "/guide/advanced", "/api", "/internal/secret"}, routes)
}

func TestNeighbors_SkipHidden(t *testing.T) {
	site, err := Load(context.Background(), sampleFS(), Options{})
	require.NoError(t, err)

	secret, _ := site.Page("/internal/secret")
	assert.True(t, secret.Hidden)

	prev, next := site.Neighbors("/guide")
	require.NotNil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, "/getting-started", prev.Route)
	assert.Equal(t, "/guide/basics", next.Route)

	prev, next = site.Neighbors("/api")
	assert.Equal(t, "/guide/advanced", prev.Route)
	assert.Nil(t, next)

	prev, _ = site.Neighbors("/")
	assert.Nil(t, prev)
}

func TestLoad_DuplicateRoute(t *testing.T) {
	fsys := fstest.MapFS{
		"guide.md":       file("# A\n"),
		"guide/index.md": file("# B\n"),
	}
	_, err := Load(context.Background(), fsys, Options{})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryContent))
}

func TestLoad_BadFrontmatter(t *testing.T) {
	fsys := fstest.MapFS{"a.md": file("---\ntitle: [\n---\n# A\n")}
	_, err := Load(context.Background(), fsys, Options{})
	require.Error(t, err)
	ce, ok := derrors.AsClassified(err)
	require.True(t, ok)
	f, _ := ce.Context().GetString("file")
	assert.Equal(t, "a.md", f)
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(context.Background(), fstest.MapFS{"readme.txt": file("x")}, Options{})
	require.Error(t, err)
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, sampleFS(), Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBrokenLinks(t *testing.T) {
	site, err := Load(context.Background(), sampleFS(), Options{})
	require.NoError(t, err)

	broken := site.BrokenLinks(paths.Policy{})
	require.Len(t, broken, 1)
	assert.Equal(t, BrokenLink{Source: "guide/basics.md", Target: "missing.md"}, broken[0])
}

func TestBrokenLinks_BasePathAndDottedRoutes(t *testing.T) {
	fsys := fstest.MapFS{
		"index.md":       file("# Home\n[setup](/docs/guide/setup) [slash](/docs/guide/setup/) [v](guide/v1.2) [gone](/docs/guide/gone)\n"),
		"guide/setup.md": file("# Setup\n[release](v1.2) [md](./v1.2.md) [pdf](/files/v1.3.pdf)\n"),
		"guide/v1.2.md":  file("# Release 1.2\n[home](/docs)\n"),
	}
	site, err := Load(context.Background(), fsys, Options{})
	require.NoError(t, err)

	for _, policy := range []paths.Policy{
		{BasePath: "/docs"},
		{BasePath: "/docs", TrailingSlash: true},
	} {
		broken := site.BrokenLinks(policy)
		require.Len(t, broken, 1, "trailing slash %v", policy.TrailingSlash)
		assert.Equal(t, BrokenLink{Source: "index.md", Target: "/docs/guide/gone"}, broken[0])
	}
}
