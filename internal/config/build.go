package config

import "strings"

// OutputMode selects how the site is produced.
type OutputMode string

const (
	// OutputExport pre-renders every route to files under build.dist_dir.
	OutputExport OutputMode = "export"
	// OutputServer serves routes from a running process.
	OutputServer OutputMode = "server"
)

// NormalizeOutputMode maps user input onto a known OutputMode; unknown values are returned as-is
// so that validation can report them.
func NormalizeOutputMode(raw string) OutputMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "export", "static":
		return OutputExport
	case "server", "standalone":
		return OutputServer
	default:
		return OutputMode(strings.ToLower(strings.TrimSpace(raw)))
	}
}

// BuildConfig mirrors the host framework build options.
type BuildConfig struct {
	Output        OutputMode   `yaml:"output" validate:"required,oneof=export server"`
	Images        ImagesConfig `yaml:"images"`
	BasePath      string       `yaml:"base_path,omitempty" validate:"omitempty,basepath"`
	TrailingSlash bool         `yaml:"trailing_slash"`
	AssetPrefix   string       `yaml:"asset_prefix,omitempty" validate:"omitempty,assetprefix"`
	DistDir       string       `yaml:"dist_dir,omitempty" validate:"required"`
	Theme         ThemeRef     `yaml:"theme"`
}

// ImagesConfig controls image handling.
type ImagesConfig struct {
	// Unoptimized passes image assets through byte-for-byte.
	Unoptimized bool  `yaml:"unoptimized"`
	Widths      []int `yaml:"widths,omitempty" validate:"dive,gt=0,lte=8192"`
	Quality     int   `yaml:"quality,omitempty" validate:"gte=0,lte=100"`
}

// ThemeRef names the registered theme and its configuration file.
type ThemeRef struct {
	Name   string `yaml:"name" validate:"required"`
	Config string `yaml:"config,omitempty"`
}

// IsExport reports whether the build pre-renders to files.
func (b BuildConfig) IsExport() bool { return b.Output == OutputExport }
