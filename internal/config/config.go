package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// CurrentVersion is the only configuration file version this build understands.
const CurrentVersion = "1"

// Config is the root docsite configuration read once at startup.
type Config struct {
	Version   string          `yaml:"version"`
	Site      SiteConfig      `yaml:"site"`
	Build     BuildConfig     `yaml:"build"`
	Content   ContentConfig   `yaml:"content"`
	Analytics AnalyticsConfig `yaml:"analytics,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Storage   StorageConfig   `yaml:"storage,omitempty"`
	Notify    NotifyConfig    `yaml:"notify,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// SiteConfig carries site-wide metadata used by the theme.
type SiteConfig struct {
	Title       string `yaml:"title" validate:"required"`
	Description string `yaml:"description,omitempty"`
	Language    string `yaml:"language,omitempty"`
	// URL is the public origin used for canonical links.
	URL string `yaml:"url,omitempty" validate:"omitempty,url"`
}

// ContentConfig locates page sources and public assets.
type ContentConfig struct {
	PagesDir      string `yaml:"pages_dir" validate:"required"`
	PublicDir     string `yaml:"public_dir,omitempty"`
	GitTimestamps bool   `yaml:"git_timestamps,omitempty"` // "Last updated on" from git history
	IncludeDrafts bool   `yaml:"include_drafts,omitempty"`
}

// AnalyticsConfig configures the deferred analytics widget mounted by the root wrapper.
type AnalyticsConfig struct {
	Enabled    bool              `yaml:"enabled"`
	Src        string            `yaml:"src,omitempty" validate:"omitempty,url"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

// ServerConfig applies to output mode "server".
type ServerConfig struct {
	Port            int    `yaml:"port,omitempty" validate:"gte=0,lte=65535"`
	RebuildInterval string `yaml:"rebuild_interval,omitempty"` // Go duration; empty disables periodic rebuilds
}

// StorageConfig locates docsite's own persistent state.
type StorageConfig struct {
	StateDir string `yaml:"state_dir,omitempty"`
}

// NotifyConfig configures build-completed notifications.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads, expands, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, derrors.ConfigError("configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read configuration file").
			WithContext("path", configPath).Build()
	}
	return Parse(data)
}

// Parse decodes configuration bytes and runs the normalize, default and validate passes.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, derrors.ConfigError(fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)).Build()
	}

	res := NormalizeConfig(&cfg)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Example returns the configuration written by Init: the NextNative documentation site.
func Example() Config {
	return Config{
		Version: CurrentVersion,
		Site: SiteConfig{
			Title:       "NextNative Docs",
			Description: "Documentation for NextNative",
			Language:    "en",
			URL:         "https://nextnative.dev",
		},
		Build: BuildConfig{
			Output:        OutputExport,
			Images:        ImagesConfig{Unoptimized: true},
			BasePath:      "/docs",
			TrailingSlash: false,
			AssetPrefix:   "https://nextnative.dev",
			DistDir:       "out",
			Theme:         ThemeRef{Name: "docs", Config: "theme.yaml"},
		},
		Content: ContentConfig{
			PagesDir:      "pages",
			PublicDir:     "public",
			GitTimestamps: true,
		},
		Analytics: AnalyticsConfig{
			Enabled:    false,
			Src:        "https://plausible.io/js/script.js",
			Attributes: map[string]string{"data-domain": "nextnative.dev"},
		},
		Server: ServerConfig{Port: 3000},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return derrors.NewError(derrors.CategoryConfig, "configuration file already exists (use --force to overwrite)").
			UserAction().WithContext("path", configPath).Build()
	}

	example := Example()
	data, err := yaml.Marshal(&example)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
