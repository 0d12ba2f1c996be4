// Package feed parses RSS and Atom documents, extracts entries while
// preserving enough of the source element to rebuild it, and synthesizes the
// canonical RSS 2.0 output document.
package feed

import (
	"encoding/xml"
	"strings"
)

// Node is a generic, namespace-loose XML element tree. Elements are matched
// by local (post-colon) name only, mirroring how the tool this system
// replaces walked feeds with a non-namespace-aware DOM.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Nodes    []Node     `xml:",any"`
	Chardata string     `xml:",chardata"`
}

// FirstChild returns the first direct child element named tag, or nil.
func (n *Node) FirstChild(tag string) *Node {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == tag {
			return &n.Nodes[i]
		}
	}
	return nil
}

// Children returns every direct child element named tag, in document order.
func (n *Node) Children(tag string) []*Node {
	var out []*Node
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == tag {
			out = append(out, &n.Nodes[i])
		}
	}
	return out
}

// Text returns the element's own character data, trimmed.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Chardata)
}

// Attr returns the value of the attribute named name, ignoring namespace.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Namespaces collects the xmlns:prefix declarations on n, keyed by prefix.
func (n *Node) Namespaces() map[string]string {
	out := map[string]string{}
	for _, a := range n.Attrs {
		if a.Name.Space == "xmlns" {
			out[a.Name.Local] = a.Value
		}
	}
	return out
}

// atomLink picks the href of the link child whose rel attribute equals rel,
// falling back to the first link child if none match. Returns "" if there
// are no link children at all.
func atomLink(n *Node, rel string) string {
	links := n.Children("link")
	if len(links) == 0 {
		return ""
	}
	for _, l := range links {
		if l.Attr("rel") == rel {
			return l.Attr("href")
		}
	}
	return links[0].Attr("href")
}

// categories extracts the category children of n: the term attribute wins
// over element text, in document order. Duplicates are kept; callers drop
// them with entity.DedupCategories.
func categories(n *Node) []string {
	var cats []string
	for _, c := range n.Children("category") {
		v := c.Attr("term")
		if v == "" {
			v = c.Text()
		}
		if v != "" {
			cats = append(cats, v)
		}
	}
	return cats
}

// author extracts dc:creator text if present, else the name child of an
// author element.
func author(n *Node) string {
	if c := n.FirstChild("creator"); c != nil {
		if t := c.Text(); t != "" {
			return t
		}
	}
	if a := n.FirstChild("author"); a != nil {
		if name := a.FirstChild("name"); name != nil {
			return name.Text()
		}
		return a.Text()
	}
	return ""
}
