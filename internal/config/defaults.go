package config

import "path/filepath"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// Default image widths served by the optimizer, matching common device breakpoints.
var DefaultImageWidths = []int{640, 750, 828, 1080, 1200, 1920}

const (
	DefaultImageQuality = 75
	DefaultDistDir      = "out"
	DefaultThemeName    = "docs"
	DefaultThemeConfig  = "theme.yaml"
	DefaultPagesDir     = "pages"
	DefaultPublicDir    = "public"
	DefaultServerPort   = 3000
	DefaultStateDir     = ".docsite"
)

// BuildDefaultApplier handles build configuration defaults.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.Output == "" {
		cfg.Build.Output = OutputExport
	}
	if cfg.Build.DistDir == "" {
		cfg.Build.DistDir = DefaultDistDir
	}
	if cfg.Build.Theme.Name == "" {
		cfg.Build.Theme.Name = DefaultThemeName
	}
	if cfg.Build.Theme.Config == "" {
		cfg.Build.Theme.Config = DefaultThemeConfig
	}
	if len(cfg.Build.Images.Widths) == 0 {
		cfg.Build.Images.Widths = append([]int(nil), DefaultImageWidths...)
	}
	if cfg.Build.Images.Quality <= 0 {
		cfg.Build.Images.Quality = DefaultImageQuality
	}
	return nil
}

// ContentDefaultApplier handles page source defaults.
type ContentDefaultApplier struct{}

func (c *ContentDefaultApplier) Domain() string { return "content" }

func (c *ContentDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Content.PagesDir == "" {
		cfg.Content.PagesDir = DefaultPagesDir
	}
	if cfg.Content.PublicDir == "" {
		cfg.Content.PublicDir = DefaultPublicDir
	}
	return nil
}

// RuntimeDefaultApplier handles server, storage, site and logging defaults.
type RuntimeDefaultApplier struct{}

func (r *RuntimeDefaultApplier) Domain() string { return "runtime" }

func (r *RuntimeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Site.Language == "" {
		cfg.Site.Language = "en"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Storage.StateDir == "" {
		cfg.Storage.StateDir = DefaultStateDir
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

// defaultAppliers lists appliers in application order.
var defaultAppliers = []DefaultApplier{
	&BuildDefaultApplier{},
	&ContentDefaultApplier{},
	&RuntimeDefaultApplier{},
}

// ApplyDefaults runs every domain applier against cfg.
func ApplyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// StatePath resolves a file inside the state directory.
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.Storage.StateDir, name)
}
