package linkverify

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Link represents a URL found in an HTML document.
type Link struct {
	URL       string // The URL as written
	Tag       string // HTML tag (a, img, script, link, ...)
	Attribute string // Attribute holding the URL (href, src)
	Rel       string // rel attribute of <link> elements
	Element   int    // Ordinal of the element in document order
}

// IsAsset reports whether the link loads a static asset rather than navigating.
func (l *Link) IsAsset() bool {
	switch l.Tag {
	case "img", "script", "source", "video", "audio":
		return true
	case "link":
		for _, rel := range strings.Fields(strings.ToLower(l.Rel)) {
			switch rel {
			case "stylesheet", "icon", "apple-touch-icon", "preload", "modulepreload", "manifest":
				return true
			}
		}
	}
	return false
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath string) ([]*Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to open HTML file").
			WithContext("html_path", htmlPath).Build()
	}
	defer func() {
		_ = file.Close()
	}()
	return ExtractLinksFromReader(file)
}

// ExtractLinksFromReader extracts all links from an HTML reader.
func ExtractLinksFromReader(r io.Reader) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryValidation, "failed to parse HTML").Build()
	}

	var links []*Link
	var element int
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			element++
			if l := elementLink(n); l != nil {
				l.Element = element
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

func elementLink(n *html.Node) *Link {
	attr := ""
	switch n.Data {
	case "a", "link":
		attr = "href"
	case "img", "script", "video", "audio", "source":
		attr = "src"
	default:
		return nil
	}
	val := getAttr(n, attr)
	if val == "" {
		return nil
	}
	l := &Link{URL: val, Tag: n.Data, Attribute: attr}
	if n.Data == "link" {
		l.Rel = getAttr(n, "rel")
	}
	return l
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
