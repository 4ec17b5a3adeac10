package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated and path-like fields prior to default application.
// It mutates the provided config in-place and returns a result describing any coercions.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if c == nil {
		return res
	}
	normalizeBuildConfig(&c.Build, res)
	normalizeLogging(&c.Logging, res)
	c.Site.URL = strings.TrimRight(strings.TrimSpace(c.Site.URL), "/")
	c.Content.PagesDir = strings.TrimSpace(c.Content.PagesDir)
	c.Analytics.Src = strings.TrimSpace(c.Analytics.Src)
	return res
}

func normalizeBuildConfig(b *BuildConfig, res *NormalizationResult) {
	if raw := string(b.Output); strings.TrimSpace(raw) != "" {
		if om := NormalizeOutputMode(raw); om != b.Output {
			res.Warnings = append(res.Warnings, warnChanged("build.output", b.Output, om))
			b.Output = om
		}
	}

	if bp := normalizeBasePath(b.BasePath); bp != b.BasePath {
		res.Warnings = append(res.Warnings, warnChanged("build.base_path", b.BasePath, bp))
		b.BasePath = bp
	}

	if ap := strings.TrimRight(strings.TrimSpace(b.AssetPrefix), "/"); ap != b.AssetPrefix {
		res.Warnings = append(res.Warnings, warnChanged("build.asset_prefix", b.AssetPrefix, ap))
		b.AssetPrefix = ap
	}

	if q := b.Images.Quality; q > 100 {
		res.Warnings = append(res.Warnings, warnChanged("build.images.quality", q, 100))
		b.Images.Quality = 100
	}

	b.Theme.Name = strings.ToLower(strings.TrimSpace(b.Theme.Name))
}

// normalizeBasePath trims whitespace and trailing slashes. A bare "/" means no base path.
// A missing leading slash is left for validation to report.
func normalizeBasePath(raw string) string {
	bp := strings.TrimSpace(raw)
	if bp == "" {
		return ""
	}
	trimmed := strings.TrimRight(bp, "/")
	if trimmed == "" {
		return ""
	}
	return trimmed
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if raw := string(l.Level); raw != "" {
		lvl := NormalizeLogLevel(raw)
		switch key := strings.ToLower(strings.TrimSpace(raw)); {
		case key == string(lvl):
		case key == "warning":
			res.Warnings = append(res.Warnings, warnChanged("logging.level", raw, lvl))
		default:
			res.Warnings = append(res.Warnings, warnUnknown("logging.level", raw, string(lvl)))
		}
		l.Level = lvl
	}
	if raw := string(l.Format); raw != "" {
		f := NormalizeLogFormat(raw)
		if strings.ToLower(strings.TrimSpace(raw)) != string(f) {
			res.Warnings = append(res.Warnings, warnUnknown("logging.format", raw, string(f)))
		}
		l.Format = f
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
