package gfm

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"golang.org/x/net/html"
)

// TransformFunc turns a matched node into markup. Returning false means the
// rule does not apply after all and serialization falls back to the next
// candidate rule or to the generic renderers. It never means "emit nothing".
type TransformFunc func(c *Context, n *html.Node) (string, bool)

// Rule pairs a node predicate with a transform.
type Rule struct {
	Name      string
	Match     func(n *html.Node) bool
	Transform TransformFunc

	// Block rules are separated from surrounding content by blank lines.
	Block bool
}

// Namespace is an ordered group of rules. Within a namespace the first
// matching rule is the candidate.
type Namespace struct {
	Name  string
	Rules []Rule
}

// RuleTable is an ordered list of namespaces. A later namespace overrides an
// earlier one for the same node.
type RuleTable struct {
	namespaces []Namespace
}

func NewRuleTable(namespaces ...Namespace) *RuleTable {
	t := &RuleTable{}
	t.namespaces = append(t.namespaces, namespaces...)
	return t
}

// Extend returns a new table with ns appended as the highest-priority
// namespace. The receiver is left untouched.
func (t *RuleTable) Extend(ns ...Namespace) *RuleTable {
	out := &RuleTable{namespaces: make([]Namespace, 0, len(t.namespaces)+len(ns))}
	out.namespaces = append(out.namespaces, t.namespaces...)
	out.namespaces = append(out.namespaces, ns...)
	return out
}

// Names lists the namespaces in override order, lowest priority first.
func (t *RuleTable) Names() []string {
	names := make([]string, 0, len(t.namespaces))
	for _, ns := range t.namespaces {
		names = append(names, ns.Name)
	}
	return names
}

// Candidates returns the rules matching n, highest priority first: one per
// namespace at most, later namespaces before earlier ones.
func (t *RuleTable) Candidates(n *html.Node) []Rule {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	var out []Rule
	for i := len(t.namespaces) - 1; i >= 0; i-- {
		for _, r := range t.namespaces[i].Rules {
			if r.Match != nil && r.Match(n) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Context gives transforms access to the conversion in progress so nested
// regions, such as the groups of a table, are serialized by the same rules.
type Context struct {
	conv converter.Context
}

// Render serializes n and returns its trimmed markup.
func (c *Context) Render(n *html.Node) string {
	var buf bytes.Buffer
	c.conv.RenderNodes(c.conv, &buf, n)
	return c.finish(buf.Bytes())
}

// RenderChildren serializes the children of n and returns the trimmed markup.
func (c *Context) RenderChildren(n *html.Node) string {
	var buf bytes.Buffer
	c.conv.RenderChildNodes(c.conv, &buf, n)
	return c.finish(buf.Bytes())
}

func (c *Context) finish(b []byte) string {
	return strings.TrimSpace(string(c.conv.UnEscapeContent(b)))
}
