// Package htmlx post-processes rendered page HTML: link and image URLs are rewritten through
// the site's URL policy and GitHub-style alert blockquotes become callouts.
package htmlx

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/paths"
)

// Options controls a rewrite.
type Options struct {
	Policy paths.Policy
	// FromDir is the route directory of the page source, used for relative URLs.
	FromDir string
	// ImageURL maps a site-relative image path to its public URL. Policy.AssetURL is used when nil.
	ImageURL func(sitePath string) string
	// IsPage reports whether a route is a page, so dotted page routes are linked as pages.
	IsPage   func(route string) bool
	Callouts bool
}

// calloutKinds maps alert markers to their display titles.
var calloutKinds = map[string]string{
	"note":      "Note",
	"tip":       "Tip",
	"important": "Important",
	"warning":   "Warning",
	"caution":   "Caution",
	"info":      "Info",
	"error":     "Error",
}

// Rewrite parses an HTML fragment, applies the rewrites and serializes it again.
func Rewrite(fragment []byte, opts Options) ([]byte, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), ctx)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRender, "failed to parse HTML fragment").Build()
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		walk(n, opts)
		if err := html.Render(&buf, n); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryRender, "failed to render HTML fragment").Build()
		}
	}
	return buf.Bytes(), nil
}

func walk(n *html.Node, opts Options) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.A:
			rewriteAnchor(n, opts)
		case atom.Img:
			rewriteImage(n, opts)
		case atom.Blockquote:
			if opts.Callouts {
				convertCallout(n)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, opts)
	}
}

func rewriteAnchor(n *html.Node, opts Options) {
	href, ok := getAttr(n, "href")
	if !ok {
		return
	}
	if isExternal(href) {
		if _, has := getAttr(n, "target"); !has {
			setAttr(n, "target", "_blank")
			setAttr(n, "rel", "noreferrer")
		}
		return
	}
	setAttr(n, "href", opts.Policy.ResolvePageHref(href, opts.FromDir, opts.IsPage))
}

func rewriteImage(n *html.Node, opts Options) {
	src, ok := getAttr(n, "src")
	if !ok || src == "" || isExternal(src) || strings.HasPrefix(src, "data:") || strings.HasPrefix(src, "//") {
		return
	}
	u, err := url.Parse(src)
	if err != nil || u.Path == "" {
		return
	}
	sitePath := u.Path
	if !strings.HasPrefix(sitePath, "/") {
		sitePath = path.Join(paths.CleanRoute(opts.FromDir), sitePath)
	} else if route, inBase := opts.Policy.StripBase(sitePath); inBase && opts.Policy.BasePath != "" {
		sitePath = route
	}

	if opts.ImageURL != nil {
		setAttr(n, "src", opts.ImageURL(sitePath))
	} else {
		setAttr(n, "src", opts.Policy.AssetURL(sitePath))
	}
	if _, has := getAttr(n, "loading"); !has {
		setAttr(n, "loading", "lazy")
	}
}

// convertCallout turns <blockquote><p>[!NOTE] text</p></blockquote> into a callout div.
func convertCallout(n *html.Node) {
	p := firstElementChild(n)
	if p == nil || p.DataAtom != atom.P || p.FirstChild == nil || p.FirstChild.Type != html.TextNode {
		return
	}
	text := p.FirstChild
	trimmed := strings.TrimLeft(text.Data, " \t\n")
	if !strings.HasPrefix(trimmed, "[!") {
		return
	}
	end := strings.IndexByte(trimmed, ']')
	if end < 0 {
		return
	}
	kind := strings.ToLower(trimmed[2:end])
	title, known := calloutKinds[kind]
	if !known {
		return
	}

	text.Data = strings.TrimLeft(trimmed[end+1:], " \t\n")
	if text.Data == "" && text.NextSibling == nil {
		n.RemoveChild(p)
	} else if text.Data == "" {
		p.RemoveChild(text)
	}

	n.Data, n.DataAtom = "div", atom.Div
	n.Attr = []html.Attribute{{Key: "class", Val: "callout callout-" + kind}, {Key: "role", Val: "note"}}

	heading := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P,
		Attr: []html.Attribute{{Key: "class", Val: "callout-title"}}}
	heading.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	n.InsertBefore(heading, n.FirstChild)
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func isExternal(href string) bool {
	u, err := url.Parse(href)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
