package theme

import (
	"os"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

const exampleLogo = `<div style="display:flex;align-items:center;gap:16px">` +
	`<div style="position:relative;top:2px">` +
	`<svg width="26" height="26" viewBox="0 0 26 26" fill="none" xmlns="http://www.w3.org/2000/svg">` +
	`<path d="M11.3711 23.8639L23.6958 11.1566" stroke="#06B300" stroke-width="3" stroke-linecap="round"/>` +
	`<path d="M6.69141 19.3918L19.0161 6.68448" stroke="#06B300" stroke-width="3" stroke-linecap="round"/>` +
	`<path d="M2 14.8401L14.3247 2.1328" stroke="#06B300" stroke-width="3" stroke-linecap="round"/>` +
	`</svg></div>` +
	`<p style="font-size:1.5rem;font-weight:500">nextnative</p></div>`

// Example returns the NextNative documentation theme configuration.
func Example() Config {
	return Config{
		Logo:               exampleLogo,
		Project:            LinkConfig{Link: "https://github.com/shuding/nextra-docs-template"},
		Chat:               LinkConfig{Link: "https://discord.com"},
		DocsRepositoryBase: "https://github.com/shuding/nextra-docs-template",
		Footer:             Footer{Text: "NextNative Docs"},
		Head: []HeadTag{
			{Tag: "meta", Attrs: map[string]string{"name": "robots", "content": "index, follow"}},
			{Tag: "meta", Attrs: map[string]string{"name": "title", "content": "NextNative Docs"}},
		},
		SEO:        SEO{TitleTemplate: "%s – NextNative Docs"},
		PrimaryHue: Hue{Dark: 100, Light: 110},
		Components: Components{Callout: true},
	}
}

// WriteExample writes the example theme configuration to path.
func WriteExample(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return derrors.NewError(derrors.CategoryConfig, "theme configuration already exists (use --force to overwrite)").
			UserAction().WithContext("path", path).Build()
	}
	cfg := Example()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "marshal example theme config").Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "write theme config").
			WithContext("path", path).Build()
	}
	return nil
}
