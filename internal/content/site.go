package content

import "sort"

// Node is one sidebar entry. Folders have children and an optional index page.
type Node struct {
	Name     string
	Title    string
	Route    string
	Page     *Page
	Children []*Node
	Hidden   bool
	weight   int
	order    int
}

// IsFolder reports whether the node groups other entries.
func (n *Node) IsFolder() bool { return len(n.Children) > 0 }

// Site is the discovered page set.
type Site struct {
	// Pages are in sidebar order; hidden pages follow visible ones.
	Pages   []*Page
	Tree    []*Node
	byRoute map[string]*Page
}

// Page looks up a page by route.
func (s *Site) Page(route string) (*Page, bool) {
	p, ok := s.byRoute[route]
	return p, ok
}

// HasPage reports whether route belongs to a discovered page.
func (s *Site) HasPage(route string) bool {
	_, ok := s.byRoute[route]
	return ok
}

// Neighbors returns the previous and next visible pages in sidebar order.
func (s *Site) Neighbors(route string) (prev, next *Page) {
	var visible []*Page
	for _, p := range s.Pages {
		if !p.Hidden {
			visible = append(visible, p)
		}
	}
	for i, p := range visible {
		if p.Route != route {
			continue
		}
		if i > 0 {
			prev = visible[i-1]
		}
		if i+1 < len(visible) {
			next = visible[i+1]
		}
		break
	}
	return prev, next
}

// sortNodes orders siblings: _meta.yaml entries first in listed order, then the index page,
// then weight, then title.
func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		aMeta, bMeta := a.order >= 0, b.order >= 0
		switch {
		case aMeta && bMeta:
			return a.order < b.order
		case aMeta != bMeta:
			return aMeta
		case (a.Name == "index") != (b.Name == "index"):
			return a.Name == "index"
		case a.weight != b.weight:
			return a.weight < b.weight
		default:
			return a.Title < b.Title
		}
	})
}

// flatten walks the tree depth-first: a folder's index page precedes its children.
func flatten(nodes []*Node, out []*Page) []*Page {
	for _, n := range nodes {
		if n.Page != nil {
			out = append(out, n.Page)
		}
		out = flatten(n.Children, out)
	}
	return out
}
