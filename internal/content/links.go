package content

import (
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/paths"
)

// BrokenLink is a page link whose target route does not exist.
type BrokenLink struct {
	Source string
	Target string
}

// BrokenLinks reports internal page links in Markdown sources that do not resolve to a page.
// Links are resolved with policy, the same way the renderer rewrites them. Links to public
// files (anything with a non-page extension that is not a page route) are not checked here.
func (s *Site) BrokenLinks(policy paths.Policy) []BrokenLink {
	var out []BrokenLink
	for _, p := range s.Pages {
		for _, l := range markdown.ExtractLinks(p.Body) {
			if l.Kind == markdown.LinkKindImage {
				continue
			}
			route, ok := s.linkRoute(policy, l.Destination, p.Dir())
			if !ok {
				continue
			}
			if _, exists := s.byRoute[route]; !exists {
				out = append(out, BrokenLink{Source: p.SourcePath, Target: l.Destination})
			}
		}
	}
	return out
}

// linkRoute resolves a Markdown link destination to a route.
func (s *Site) linkRoute(policy paths.Policy, dest, fromDir string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "//") {
		return "", false
	}
	if u, err := url.Parse(dest); err != nil || u.Scheme != "" {
		return "", false
	}
	u, err := url.Parse(policy.ResolvePageHref(dest, fromDir, s.HasPage))
	if err != nil || u.Path == "" {
		return "", false
	}
	route, ok := policy.StripBase(u.Path)
	if !ok {
		return "", false
	}
	route = paths.CleanRoute(route)
	if path.Ext(route) != "" && !s.HasPage(route) {
		return "", false
	}
	return route, true
}
