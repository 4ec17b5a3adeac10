package theme

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func TestFormatTitle(t *testing.T) {
	cfg := Example()
	assert.Equal(t, "Getting Started – NextNative Docs", cfg.FormatTitle("Getting Started", "NextNative Docs"))
	assert.Equal(t, "NextNative Docs", cfg.FormatTitle("", "NextNative Docs"))
	assert.Equal(t, "NextNative Docs", cfg.FormatTitle("   ", "NextNative Docs"))
}

func TestFormatTitle_PercentInPageTitle(t *testing.T) {
	cfg := Config{SEO: SEO{TitleTemplate: "%s | Docs"}}
	assert.Equal(t, "100% uptime | Docs", cfg.FormatTitle("100% uptime", "Docs"))
}

func TestParseConfig_DefaultsTitleTemplate(t *testing.T) {
	cfg, err := ParseConfig([]byte("logo: <b>x</b>\n"))
	require.NoError(t, err)
	assert.Equal(t, "Page", cfg.FormatTitle("Page", "Site"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing logo", func(c *Config) { c.Logo = " " }, "logo"},
		{"no placeholder", func(c *Config) { c.SEO.TitleTemplate = "Docs" }, "seo.title_template"},
		{"two placeholders", func(c *Config) { c.SEO.TitleTemplate = "%s %s" }, "seo.title_template"},
		{"hue too large", func(c *Config) { c.PrimaryHue.Dark = 361 }, "primary_hue.dark"},
		{"hue negative", func(c *Config) { c.PrimaryHue.Light = -1 }, "primary_hue.light"},
		{"relative project link", func(c *Config) { c.Project.Link = "github.com/x" }, "project.link"},
		{"banner without key", func(c *Config) { c.Banner = &Banner{Text: "hi"} }, "banner.key"},
		{"script head tag", func(c *Config) { c.Head = append(c.Head, HeadTag{Tag: "script"}) }, "head[2].tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Example()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			ce, ok := derrors.AsClassified(err)
			require.True(t, ok)
			field, _ := ce.Context().GetString("field")
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestHueCSS(t *testing.T) {
	cfg := Config{PrimaryHue: Hue{Dark: 100, Light: 110}}
	css := string(cfg.HueCSS())
	assert.Contains(t, css, ":root{--docsite-primary-hue:110deg}")
	assert.Contains(t, css, "html.dark{--docsite-primary-hue:100deg}")
}

func TestEditURL(t *testing.T) {
	cfg := Config{DocsRepositoryBase: "https://github.com/acme/docs/"}
	assert.Equal(t, "https://github.com/acme/docs/pages/index.md", cfg.EditURL("pages/index.md"))
	assert.Empty(t, (&Config{}).EditURL("pages/index.md"))
}

func TestWriteExample_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.yaml")
	require.NoError(t, WriteExample(path, false))
	require.Error(t, WriteExample(path, false))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "%s – NextNative Docs", cfg.SEO.TitleTemplate)
	assert.Equal(t, Hue{Dark: 100, Light: 110}, cfg.PrimaryHue)
	assert.True(t, cfg.Components.Callout)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryConfig))
}
