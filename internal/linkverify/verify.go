// Package linkverify checks an exported site: every internal link and asset URL must follow
// the URL policy and resolve to a file in the dist directory.
package linkverify

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/paths"
)

// Kind classifies a violation.
type Kind string

const (
	KindBasePath      Kind = "base_path"
	KindTrailingSlash Kind = "trailing_slash"
	KindAssetPrefix   Kind = "asset_prefix"
	KindMissingTarget Kind = "missing_target"
	KindInvalidURL    Kind = "invalid_url"
)

// Violation is one offending URL.
type Violation struct {
	File    string `json:"file"` // relative to the dist directory
	URL     string `json:"url"`
	Tag     string `json:"tag"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: <%s> %s: %s (%s)", v.File, v.Tag, v.URL, v.Message, v.Kind)
}

// Report is the result of verifying a dist directory.
type Report struct {
	Files      int         `json:"files"`
	Links      int         `json:"links"`
	Violations []Violation `json:"violations"`
}

// OK reports whether no violations were found.
func (r *Report) OK() bool { return len(r.Violations) == 0 }

// Count returns the number of violations of kind k.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, v := range r.Violations {
		if v.Kind == k {
			n++
		}
	}
	return n
}

// Verifier checks exported HTML against a URL policy.
type Verifier struct {
	dist   string
	policy paths.Policy
	logger *slog.Logger
}

// New creates a verifier for the export in dist.
func New(dist string, policy paths.Policy, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{dist: dist, policy: policy, logger: logger}
}

// Verify walks every .html file below the dist directory.
func (v *Verifier) Verify(ctx context.Context) (*Report, error) {
	info, err := os.Stat(v.dist)
	if err != nil || !info.IsDir() {
		return nil, derrors.NotFoundError("export directory not found (run build first)").
			WithContext("path", v.dist).UserAction().Build()
	}

	report := &Report{}
	err = filepath.WalkDir(v.dist, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, _ := filepath.Rel(v.dist, p)
		rel = filepath.ToSlash(rel)
		links, err := ExtractLinks(p)
		if err != nil {
			return err
		}
		report.Files++
		report.Links += len(links)
		for _, l := range links {
			report.Violations = append(report.Violations, v.check(rel, l)...)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, ok := derrors.AsClassified(err); ok {
			return nil, err
		}
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "walk export directory").
			WithContext("path", v.dist).Build()
	}

	sort.SliceStable(report.Violations, func(i, j int) bool {
		return report.Violations[i].File < report.Violations[j].File
	})
	v.logger.Info("Export verified",
		slog.Int("files", report.Files),
		slog.Int("links", report.Links),
		slog.Int("violations", len(report.Violations)),
		logfields.Path(v.dist))
	return report, nil
}

func (v *Verifier) check(file string, l *Link) []Violation {
	raw := l.URL
	if strings.HasPrefix(raw, "#") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return []Violation{v.violation(file, l, KindInvalidURL, "URL cannot be parsed")}
	}
	switch u.Scheme {
	case "mailto", "tel", "javascript", "data":
		return nil
	}
	if l.IsAsset() {
		return v.checkAsset(file, l, u)
	}
	return v.checkPage(file, l, u)
}

// checkAsset applies the asset prefix rule. Absolute URLs on other origins are external.
func (v *Verifier) checkAsset(file string, l *Link, u *url.URL) []Violation {
	local := u
	if prefix := v.policy.AssetPrefix; prefix != "" {
		rest, found := strings.CutPrefix(l.URL, prefix)
		switch {
		case found && (rest == "" || strings.HasPrefix(rest, "/")):
			parsed, err := url.Parse(rest)
			if err != nil {
				return []Violation{v.violation(file, l, KindInvalidURL, "URL cannot be parsed")}
			}
			local = parsed
		case isRootRelative(u):
			return []Violation{v.violation(file, l, KindAssetPrefix, "asset URL does not use the asset prefix "+prefix)}
		default:
			return nil
		}
	} else if u.Scheme != "" || u.Host != "" {
		return nil
	}

	if !strings.HasPrefix(local.Path, "/") {
		return []Violation{v.violation(file, l, KindBasePath, "relative asset URL")}
	}
	route, ok := v.policy.StripBase(local.Path)
	if !ok {
		return []Violation{v.violation(file, l, KindBasePath, v.outsideBase())}
	}
	return v.checkTarget(file, l, strings.TrimPrefix(route, "/"))
}

// checkPage applies the base path and trailing slash rules to navigation links. A dotted
// path is a page when its page output file exists and a public file otherwise.
func (v *Verifier) checkPage(file string, l *Link, u *url.URL) []Violation {
	if u.Scheme != "" || u.Host != "" || u.Path == "" {
		return nil
	}
	if !strings.HasPrefix(u.Path, "/") {
		return []Violation{v.violation(file, l, KindBasePath, "relative link")}
	}
	route, ok := v.policy.StripBase(u.Path)
	if !ok {
		return []Violation{v.violation(file, l, KindBasePath, v.outsideBase())}
	}
	if path.Ext(route) != "" && !v.exists(v.policy.OutputFile(route)) {
		return v.checkTarget(file, l, strings.TrimPrefix(route, "/"))
	}

	var out []Violation
	slash := strings.HasSuffix(u.Path, "/")
	switch {
	case v.policy.TrailingSlash && !slash:
		out = append(out, v.violation(file, l, KindTrailingSlash, "page link must end with /"))
	case !v.policy.TrailingSlash && slash && u.Path != "/":
		out = append(out, v.violation(file, l, KindTrailingSlash, "page link must not end with /"))
	}
	return append(out, v.checkTarget(file, l, v.policy.OutputFile(route))...)
}

func (v *Verifier) checkTarget(file string, l *Link, target string) []Violation {
	if !v.exists(target) {
		return []Violation{v.violation(file, l, KindMissingTarget, "target "+target+" does not exist")}
	}
	return nil
}

func (v *Verifier) exists(target string) bool {
	_, err := os.Stat(filepath.Join(v.dist, filepath.FromSlash(target)))
	return err == nil
}

func (v *Verifier) outsideBase() string {
	return "URL is outside the base path " + v.policy.BasePath
}

func (v *Verifier) violation(file string, l *Link, kind Kind, msg string) Violation {
	return Violation{File: file, URL: l.URL, Tag: l.Tag, Kind: kind, Message: msg}
}

func isRootRelative(u *url.URL) bool {
	return u.Scheme == "" && u.Host == "" && strings.HasPrefix(u.Path, "/")
}
