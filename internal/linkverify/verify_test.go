package linkverify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/paths"
)

var nextNative = paths.Policy{BasePath: "/docs", AssetPrefix: "https://nextnative.dev"}

func writeDist(t *testing.T, files map[string]string) string {
	t.Helper()
	dist := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dist, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dist
}

const cleanIndex = `<!doctype html><html><head>
<link rel="stylesheet" href="https://nextnative.dev/docs/_docsite/static/docs.css">
<link rel="canonical" href="https://nextnative.dev/docs">
<script src="https://plausible.io/js/script.js" defer></script>
</head><body>
<a href="/docs">Home</a>
<a href="/docs/guide/setup#install">Setup</a>
<a href="#top">Top</a>
<a href="mailto:team@nextnative.dev">Mail</a>
<a href="https://github.com/nextnative">GitHub</a>
<img src="https://nextnative.dev/docs/logo.png" alt="logo">
</body></html>`

func TestVerifyCleanExport(t *testing.T) {
	dist := writeDist(t, map[string]string{
		"index.html":               cleanIndex,
		"guide/setup.html":         `<a href="/docs">Home</a>`,
		"logo.png":                 "png",
		"_docsite/static/docs.css": "body{}",
	})

	report, err := New(dist, nextNative, nil).Verify(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 10, report.Links)
	assert.True(t, report.OK(), "%v", report.Violations)
}

func TestVerifyReportsViolations(t *testing.T) {
	dist := writeDist(t, map[string]string{
		"index.html": `<html><head>
<link rel="stylesheet" href="/docs/_docsite/static/docs.css">
</head><body>
<a href="/guide/setup">outside base</a>
<a href="/docs/guide/setup/">trailing</a>
<a href="/docs/missing">missing</a>
<a href="guide/setup">relative</a>
<img src="https://nextnative.dev/docs/absent.png">
</body></html>`,
		"guide/setup.html": "<p>ok</p>",
	})

	report, err := New(dist, nextNative, nil).Verify(t.Context())
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Count(KindAssetPrefix))
	assert.Equal(t, 2, report.Count(KindBasePath))
	assert.Equal(t, 1, report.Count(KindTrailingSlash))
	assert.Equal(t, 2, report.Count(KindMissingTarget))

	for _, v := range report.Violations {
		assert.Equal(t, "index.html", v.File)
		assert.True(t, strings.HasPrefix(v.String(), "index.html: <"))
	}
}

func TestVerifyTrailingSlashPolicy(t *testing.T) {
	dist := writeDist(t, map[string]string{
		"index.html":             `<a href="/guide/setup/">ok</a><a href="/guide/setup">bad</a><a href="/">root</a>`,
		"guide/setup/index.html": "<p>ok</p>",
	})

	report, err := New(dist, paths.Policy{TrailingSlash: true}, nil).Verify(t.Context())
	require.NoError(t, err)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, KindTrailingSlash, report.Violations[0].Kind)
	assert.Equal(t, "/guide/setup", report.Violations[0].URL)
}

func TestVerifyDottedPageRoutes(t *testing.T) {
	dist := writeDist(t, map[string]string{
		"index.html":      `<a href="/docs/guide/v1.2">release</a><a href="/docs/files/v1.3.pdf">pdf</a><a href="/docs/guide/v9.9">gone</a>`,
		"guide/v1.2.html": `<a href="/docs">Home</a>`,
		"files/v1.3.pdf":  "pdf",
	})

	report, err := New(dist, paths.Policy{BasePath: "/docs"}, nil).Verify(t.Context())
	require.NoError(t, err)
	require.Len(t, report.Violations, 1, "%v", report.Violations)
	assert.Equal(t, KindMissingTarget, report.Violations[0].Kind)
	assert.Equal(t, "/docs/guide/v9.9", report.Violations[0].URL)

	dist = writeDist(t, map[string]string{
		"index.html":            `<a href="/docs/guide/v1.2/">ok</a><a href="/docs/guide/v1.2">bad</a>`,
		"guide/v1.2/index.html": `<a href="/docs/">Home</a>`,
	})
	report, err = New(dist, paths.Policy{BasePath: "/docs", TrailingSlash: true}, nil).Verify(t.Context())
	require.NoError(t, err)
	require.Len(t, report.Violations, 1, "%v", report.Violations)
	assert.Equal(t, KindTrailingSlash, report.Violations[0].Kind)
	assert.Equal(t, "/docs/guide/v1.2", report.Violations[0].URL)
}

func TestVerifyWithoutAssetPrefix(t *testing.T) {
	dist := writeDist(t, map[string]string{
		"index.html": `<img src="/docs/logo.png"><img src="/logo.png"><img src="https://cdn.example.com/x.png"><img src="/docs/gone.png">`,
		"logo.png":   "png",
	})

	report, err := New(dist, paths.Policy{BasePath: "/docs"}, nil).Verify(t.Context())
	require.NoError(t, err)
	require.Len(t, report.Violations, 2)
	assert.Equal(t, 1, report.Count(KindBasePath))
	assert.Equal(t, 1, report.Count(KindMissingTarget))
}

func TestVerifyMissingDist(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "out"), nextNative, nil).Verify(t.Context())
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNotFound))
}

func TestExtractLinksFromReader(t *testing.T) {
	links, err := ExtractLinksFromReader(strings.NewReader(cleanIndex))
	require.NoError(t, err)
	require.Len(t, links, 9)

	assert.Equal(t, "link", links[0].Tag)
	assert.True(t, links[0].IsAsset())
	assert.False(t, links[1].IsAsset(), "canonical is navigation")
	assert.True(t, links[2].IsAsset())
	assert.Equal(t, "src", links[2].Attribute)
	assert.False(t, links[3].IsAsset())
}
