// Package selection reshapes a selected node fragment into the single root
// that gets serialized.
package selection

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"gfmclip/pkg/nodes"
)

// Selectors names the markup conventions of the view being copied from.
type Selectors struct {
	// StructuredContent matches containers of rendered markdown.
	StructuredContent string `yaml:"structured_content" json:"structured_content"`
	// Line matches one line of a code view.
	Line string `yaml:"line" json:"line"`
	// LineContent matches the content column of a diff line.
	LineContent string `yaml:"line_content" json:"line_content"`
	// DiffSides are the classes marking the columns of a parallel diff.
	DiffSides []string `yaml:"diff_sides" json:"diff_sides"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		StructuredContent: ".md, .wiki",
		Line:              ".line",
		LineContent:       ".line_content",
		DiffSides:         []string{"left-side", "right-side"},
	}
}

// Normalizer turns a selection fragment into a canonical root.
type Normalizer struct {
	structured cascadia.Matcher
	line       cascadia.Matcher
	sides      map[string]cascadia.Matcher
	sideOrder  []string
}

func NewNormalizer(sel Selectors) (*Normalizer, error) {
	structured, err := nodes.Compile(sel.StructuredContent)
	if err != nil {
		return nil, fmt.Errorf("structured content: %w", err)
	}
	line, err := nodes.Compile(sel.Line)
	if err != nil {
		return nil, fmt.Errorf("line: %w", err)
	}

	n := &Normalizer{
		structured: structured,
		line:       line,
		sides:      make(map[string]cascadia.Matcher, len(sel.DiffSides)),
	}
	for _, side := range sel.DiffSides {
		m, err := nodes.Compile(fmt.Sprintf("%s.%s %s", sel.LineContent, side, sel.Line))
		if err != nil {
			return nil, fmt.Errorf("diff side %q: %w", side, err)
		}
		n.sides[side] = m
		n.sideOrder = append(n.sideOrder, side)
	}
	return n, nil
}

// NormalizeStructured picks the structured content containers out of
// fragment. With none the fragment is returned unchanged, with one the
// container itself is the root, and several are gathered in a div separated
// by blank lines. The fragment may be modified.
func (n *Normalizer) NormalizeStructured(fragment *html.Node) *html.Node {
	matches := nodes.Outermost(nodes.QueryAll(fragment, n.structured))

	switch len(matches) {
	case 0:
		return fragment
	case 1:
		return nodes.Detach(matches[0])
	default:
		wrapper := nodes.Element("div")
		for _, m := range matches {
			nodes.Append(wrapper, m, nodes.Text("\n\n"))
		}
		return wrapper
	}
}

// Side returns the diff side of target or its nearest ancestor carrying
// one, if any.
func (n *Normalizer) Side(target *html.Node) string {
	for el := target; el != nil; el = el.Parent {
		if el.Type != html.ElementNode {
			continue
		}
		for _, side := range n.sideOrder {
			if dom.HasClass(el, side) {
				return side
			}
		}
	}
	return ""
}

// NormalizeCode extracts the code lines of fragment. When target marks a
// diff side only lines of that side are taken. Several lines become a code
// block, a single line or a fragment without lines becomes inline code. The
// fragment may be modified.
func (n *Normalizer) NormalizeCode(fragment, target *html.Node) *html.Node {
	matcher := n.line
	if side := n.Side(target); side != "" {
		matcher = n.sides[side]
	}
	lines := nodes.Outermost(nodes.QueryAll(fragment, matcher))

	var code *html.Node
	if len(lines) > 1 {
		code = nodes.Element("pre", "class", "code highlight")
		if lang := dom.GetAttributeOr(lines[0], "lang", ""); lang != "" {
			code.Attr = append(code.Attr, html.Attribute{Key: "lang", Val: lang})
		}
	} else {
		code = nodes.Element("code")
	}

	if len(lines) == 0 {
		if fragment != nil {
			nodes.Append(code, dom.AllChildNodes(fragment)...)
		}
		return code
	}
	for _, line := range lines {
		nodes.Append(code, line, nodes.Text("\n"))
	}
	return code
}

// IsEmpty reports whether a fragment holds nothing to copy.
func IsEmpty(fragment *html.Node) bool {
	return nodes.IsEmpty(fragment)
}

// Fragment builds a selection fragment from the elements of doc matching
// selector, as if the user had selected each of them. An empty selector
// selects the whole document.
func Fragment(doc *html.Node, selector string) (*html.Node, error) {
	frag := nodes.Fragment()
	if doc == nil {
		return frag, nil
	}
	if selector == "" {
		for _, c := range dom.AllChildNodes(doc) {
			frag.AppendChild(nodes.Clone(c))
		}
		return frag, nil
	}

	m, err := nodes.Compile(selector)
	if err != nil {
		return nil, err
	}
	for _, match := range nodes.Outermost(nodes.QueryAll(doc, m)) {
		frag.AppendChild(nodes.Clone(match))
	}
	return frag, nil
}

// Select returns the outermost elements of doc matching selector. An empty
// selector selects doc itself.
func Select(doc *html.Node, selector string) ([]*html.Node, error) {
	if doc == nil {
		return nil, nil
	}
	if selector == "" {
		return []*html.Node{doc}, nil
	}
	m, err := nodes.Compile(selector)
	if err != nil {
		return nil, err
	}
	return nodes.Outermost(nodes.QueryAll(doc, m)), nil
}

// Target returns the element a copy of selected starts from: the first
// match of selector, or the first selected element when selector is empty.
// A whole-document selection has no target.
func Target(doc *html.Node, selector string, selected []*html.Node) (*html.Node, error) {
	if selector != "" {
		found, err := Select(doc, selector)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("target %q matches nothing", selector)
		}
		return found[0], nil
	}
	if len(selected) == 0 || selected[0].Type == html.DocumentNode {
		return nil, nil
	}
	return selected[0], nil
}

// PlainText is what a platform default copy of selected would carry.
func PlainText(selected []*html.Node) string {
	var b strings.Builder
	for _, n := range selected {
		b.WriteString(nodes.TextContent(n))
	}
	return b.String()
}

// Range is a selection over existing nodes. Each call to Fragment returns
// fresh clones, so events never share nodes.
type Range struct {
	nodes []*html.Node
}

func NewRange(selected ...*html.Node) *Range {
	return &Range{nodes: selected}
}

func (r *Range) Fragment() *html.Node {
	if r == nil || len(r.nodes) == 0 {
		return nil
	}
	frag := nodes.Fragment()
	for _, n := range r.nodes {
		if n.Type == html.DocumentNode {
			for _, c := range dom.AllChildNodes(n) {
				frag.AppendChild(nodes.Clone(c))
			}
			continue
		}
		frag.AppendChild(nodes.Clone(n))
	}
	return frag
}
