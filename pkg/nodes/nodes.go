// Package nodes holds small helpers for building, cloning and querying
// golang.org/x/net/html trees. Every copy or paste event works on its own
// clones, so callers can mutate what these helpers return.
package nodes

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Clone returns a deep copy of n, detached from any parent.
func Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Element creates a detached element. attrs are key/value pairs.
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Fragment creates an empty document node used as a selection fragment.
func Fragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// Detach removes n from its parent, if any, and returns it.
func Detach(n *html.Node) *html.Node {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	return n
}

// Append detaches each child and appends it to parent.
func Append(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		parent.AppendChild(Detach(c))
	}
	return parent
}

// Wrap returns a fresh div holding a clone of n. Document nodes contribute
// clones of their children instead of themselves.
func Wrap(n *html.Node) *html.Node {
	div := Element("div")
	if n == nil {
		return div
	}
	if n.Type == html.DocumentNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			div.AppendChild(Clone(c))
		}
		return div
	}
	div.AppendChild(Clone(n))
	return div
}

// IsEmpty reports whether n carries no content at all.
func IsEmpty(n *html.Node) bool {
	if n == nil {
		return true
	}
	if n.Type == html.DocumentNode || n.Type == html.ElementNode {
		return n.FirstChild == nil
	}
	return n.Type == html.TextNode && n.Data == ""
}

// TextContent mirrors the DOM textContent property.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	return dom.CollectText(n)
}

// Render returns the markup of n. For document nodes and fragments this is
// the markup of the children, for elements the outer markup.
func Render(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("render %s: %w", dom.NodeName(n), err)
	}
	return buf.String(), nil
}

// Parse parses a full document.
func Parse(src string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// ParseFragment parses src as body content and returns a fragment holding
// the resulting nodes.
func ParseFragment(src string) (*html.Node, error) {
	context := Element("body")
	parsed, err := html.ParseFragment(strings.NewReader(src), context)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	frag := Fragment()
	Append(frag, parsed...)
	return frag, nil
}

// Compile compiles a selector group such as ".md, .wiki".
func Compile(selector string) (cascadia.Matcher, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return sel, nil
}

// QueryAll returns the descendants of root matching m in document order,
// like querySelectorAll.
func QueryAll(root *html.Node, m cascadia.Matcher) []*html.Node {
	if root == nil || m == nil {
		return nil
	}
	return cascadia.QueryAll(root, m)
}

// Outermost drops every node that has an ancestor in the list.
func Outermost(list []*html.Node) []*html.Node {
	seen := make(map[*html.Node]bool, len(list))
	for _, n := range list {
		seen[n] = true
	}
	out := make([]*html.Node, 0, len(list))
	for _, n := range list {
		nested := false
		for p := n.Parent; p != nil; p = p.Parent {
			if seen[p] {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, n)
		}
	}
	return out
}

// HasAncestor reports whether any ancestor of n has the given tag name.
func HasAncestor(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

// ChildElements returns the direct element children of n named one of tags.
func ChildElements(n *html.Node, tags ...string) []*html.Node {
	var out []*html.Node
	for _, c := range dom.AllChildElements(n) {
		for _, tag := range tags {
			if c.Data == tag {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// FirstChildElement returns the first direct child element named tag.
func FirstChildElement(n *html.Node, tag string) *html.Node {
	if list := ChildElements(n, tag); len(list) > 0 {
		return list[0]
	}
	return nil
}
