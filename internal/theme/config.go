package theme

import (
	"fmt"
	"html/template"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Config is the theme configuration (theme.yaml). It is read once and shared read-only
// by every page render.
type Config struct {
	// Logo is trusted static markup rendered in the navbar.
	Logo               string     `yaml:"logo"`
	LogoLink           string     `yaml:"logo_link,omitempty"`
	Project            LinkConfig `yaml:"project,omitempty"`
	Chat               LinkConfig `yaml:"chat,omitempty"`
	DocsRepositoryBase string     `yaml:"docs_repository_base,omitempty"`
	Footer             Footer     `yaml:"footer,omitempty"`
	Banner             *Banner    `yaml:"banner,omitempty"`
	Head               []HeadTag  `yaml:"head,omitempty"`
	SEO                SEO        `yaml:"seo,omitempty"`
	PrimaryHue         Hue        `yaml:"primary_hue"`
	Components         Components `yaml:"components,omitempty"`
}

type LinkConfig struct {
	Link string `yaml:"link,omitempty"`
}

type Footer struct {
	Text string `yaml:"text"`
}

// Banner is a site-wide notice. Key identifies the banner in browser storage so a dismissal
// survives reloads; changing the key shows the banner again.
type Banner struct {
	Key         string `yaml:"key"`
	Text        string `yaml:"text"`
	Dismissible bool   `yaml:"dismissible"`
}

// HeadTag is a static meta or link element merged into every document head.
type HeadTag struct {
	Tag   string            `yaml:"tag"`
	Attrs map[string]string `yaml:"attrs"`
}

type SEO struct {
	TitleTemplate string `yaml:"title_template"`
}

// Hue holds the primary accent hue in degrees for each color scheme.
type Hue struct {
	Dark  int `yaml:"dark"`
	Light int `yaml:"light"`
}

type Components struct {
	Callout bool `yaml:"callout"`
}

// DefaultTitleTemplate is used when seo.title_template is empty.
const DefaultTitleTemplate = "%s"

// LoadConfig reads and validates a theme configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, derrors.ConfigError("theme configuration file not found").
				WithContext("path", path).Build()
		}
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read theme configuration").
			WithContext("path", path).Build()
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates theme configuration bytes.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to unmarshal theme config").Fatal().Build()
	}
	if cfg.SEO.TitleTemplate == "" {
		cfg.SEO.TitleTemplate = DefaultTitleTemplate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the theme configuration invariants.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Logo) == "" {
		return invalid("logo", "logo is required")
	}
	if n := strings.Count(c.SEO.TitleTemplate, "%s"); n != 1 {
		return invalid("seo.title_template", fmt.Sprintf("title template must contain exactly one %%s placeholder, found %d", n))
	}
	for field, hue := range map[string]int{"primary_hue.dark": c.PrimaryHue.Dark, "primary_hue.light": c.PrimaryHue.Light} {
		if hue < 0 || hue > 360 {
			return invalid(field, fmt.Sprintf("hue %d out of range 0-360", hue))
		}
	}
	for field, link := range map[string]string{
		"project.link":         c.Project.Link,
		"chat.link":            c.Chat.Link,
		"docs_repository_base": c.DocsRepositoryBase,
	} {
		if link != "" && !isAbsoluteURL(link) {
			return invalid(field, "must be an absolute http(s) URL")
		}
	}
	if c.Banner != nil {
		if strings.TrimSpace(c.Banner.Key) == "" {
			return invalid("banner.key", "banner key is required")
		}
		if strings.TrimSpace(c.Banner.Text) == "" {
			return invalid("banner.text", "banner text is required")
		}
	}
	for i, h := range c.Head {
		if h.Tag != "meta" && h.Tag != "link" {
			return invalid(fmt.Sprintf("head[%d].tag", i), fmt.Sprintf("unsupported head tag %q (meta or link)", h.Tag))
		}
	}
	return nil
}

func invalid(field, msg string) error {
	return derrors.ValidationError(msg).WithContext("field", field).Build()
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// FormatTitle substitutes pageTitle into the title template. An empty page title yields
// siteTitle unchanged.
func (c *Config) FormatTitle(pageTitle, siteTitle string) string {
	if strings.TrimSpace(pageTitle) == "" {
		return siteTitle
	}
	tmpl := c.SEO.TitleTemplate
	if tmpl == "" {
		tmpl = DefaultTitleTemplate
	}
	return strings.Replace(tmpl, "%s", pageTitle, 1)
}

// HueCSS returns the custom properties for the light and dark palettes.
func (c *Config) HueCSS() template.CSS {
	return template.CSS(fmt.Sprintf(
		":root{--docsite-primary-hue:%ddeg}"+
			"@media (prefers-color-scheme: dark){:root{--docsite-primary-hue:%ddeg}}"+
			"html.dark{--docsite-primary-hue:%ddeg}html.light{--docsite-primary-hue:%ddeg}",
		c.PrimaryHue.Light, c.PrimaryHue.Dark, c.PrimaryHue.Dark, c.PrimaryHue.Light))
}

// LogoHTML returns the trusted logo markup.
func (c *Config) LogoHTML() template.HTML {
	return template.HTML(c.Logo) //nolint:gosec // logo markup is site-owner configuration
}

// EditURL joins the repository base and a page source path. Empty when no base is configured.
func (c *Config) EditURL(sourcePath string) string {
	if c.DocsRepositoryBase == "" || sourcePath == "" {
		return ""
	}
	return strings.TrimRight(c.DocsRepositoryBase, "/") + "/" + strings.TrimLeft(sourcePath, "/")
}
