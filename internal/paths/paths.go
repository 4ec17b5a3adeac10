// Package paths applies the site's URL policy: base path, trailing slash and asset prefix.
//
// Routes are site-relative, slash-separated and never carry the base path: "/" is the
// site root and "/guide/setup" a page. Every URL the generator emits goes through a Policy
// so the policy is applied uniformly.
package paths

import (
	"net/url"
	"path"
	"strings"
)

// Policy is the URL policy derived from the build configuration.
type Policy struct {
	BasePath      string
	TrailingSlash bool
	AssetPrefix   string
}

var pageExtensions = map[string]bool{".md": true, ".mdx": true, ".html": true}

// CleanRoute normalizes a route: leading slash, no trailing slash, no dot segments.
func CleanRoute(route string) string {
	if route == "" {
		return "/"
	}
	return path.Clean("/" + route)
}

// PageHref returns the public link for a route.
func (p Policy) PageHref(route string) string {
	route = CleanRoute(route)
	if route == "/" {
		if p.BasePath == "" {
			return "/"
		}
		if p.TrailingSlash {
			return p.BasePath + "/"
		}
		return p.BasePath
	}
	href := p.BasePath + route
	if p.TrailingSlash {
		href += "/"
	}
	return href
}

// OutputFile returns the export file for a route, relative to the dist directory.
func (p Policy) OutputFile(route string) string {
	route = CleanRoute(route)
	if route == "/" {
		return "index.html"
	}
	rel := strings.TrimPrefix(route, "/")
	if p.TrailingSlash {
		return rel + "/index.html"
	}
	return rel + ".html"
}

// AssetURL returns the URL for a site-relative static asset (theme CSS/JS, images).
// The asset prefix replaces the origin; the base path still applies.
func (p Policy) AssetURL(assetPath string) string {
	return p.AssetPrefix + p.PublicURL(assetPath)
}

// PublicURL returns the same-origin URL for a public file.
func (p Policy) PublicURL(filePath string) string {
	return p.BasePath + path.Clean("/"+filePath)
}

// StripBase removes the base path from a request path. ok is false when the path is
// outside the base path.
func (p Policy) StripBase(reqPath string) (string, bool) {
	if reqPath == "" {
		reqPath = "/"
	}
	if p.BasePath == "" {
		return reqPath, true
	}
	if reqPath == p.BasePath {
		return "/", true
	}
	if rest, found := strings.CutPrefix(reqPath, p.BasePath+"/"); found {
		return "/" + rest, true
	}
	return "", false
}

// Canonical returns the canonical form of a request path for a page route and whether it
// differs from reqPath. Paths with a file extension are left alone.
func (p Policy) Canonical(reqPath string) (string, bool) {
	route, ok := p.StripBase(reqPath)
	if !ok || path.Ext(route) != "" {
		return reqPath, false
	}
	canonical := p.PageHref(route)
	return canonical, canonical != reqPath
}

// ResolveHref rewrites a link found in page content. fromDir is the route directory of the
// page's source file, used for relative links. External, protocol-relative, fragment-only
// and mail links are returned unchanged.
func (p Policy) ResolveHref(href, fromDir string) string {
	return p.ResolvePageHref(href, fromDir, nil)
}

// ResolvePageHref is ResolveHref with a page lookup: a target whose extension is not a page
// extension (such as "/guide/v1.2") is still linked as a page when isPage reports the route.
func (p Policy) ResolvePageHref(href, fromDir string, isPage func(route string) bool) string {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "//") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return href
	}
	if u.Path == "" {
		return href
	}

	target := u.Path
	if !strings.HasPrefix(target, "/") {
		target = path.Join(CleanRoute(fromDir), target)
	} else if p.BasePath != "" {
		if route, inBase := p.StripBase(target); inBase {
			target = route
		}
	}

	var out string
	ext := path.Ext(target)
	switch {
	case ext == "" || pageExtensions[strings.ToLower(ext)]:
		out = p.PageHref(pageRoute(target))
	case isPage != nil && isPage(CleanRoute(target)):
		out = p.PageHref(target)
	default:
		out = p.PublicURL(target)
	}
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		out += "#" + u.EscapedFragment()
	}
	return out
}

// pageRoute strips page extensions and a trailing "index" segment.
func pageRoute(target string) string {
	ext := path.Ext(target)
	if pageExtensions[strings.ToLower(ext)] {
		target = strings.TrimSuffix(target, ext)
	}
	target = CleanRoute(target)
	if path.Base(target) == "index" {
		target = path.Dir(target)
	}
	return target
}
