package gfm

import (
	"strings"

	"github.com/JohannesKaufmann/dom"
	"golang.org/x/net/html"

	"gfmclip/pkg/nodes"
)

// Namespace names of the built-in rules, in override order.
const (
	TaskListFilter        = "TaskListFilter"
	TableOfContentsFilter = "TableOfContentsFilter"
	MarkdownFilter        = "MarkdownFilter"
)

// TableOfContents is the placeholder emitted for a section navigation list.
const TableOfContents = "[[_TOC_]]"

// Classes names the markup conventions the built-in rules recognize.
type Classes struct {
	TaskCheckbox string
	SectionNav   string
}

func DefaultClasses() Classes {
	return Classes{
		TaskCheckbox: "task-list-item-checkbox",
		SectionNav:   "section-nav",
	}
}

// BuiltinRules returns the default rule table.
func BuiltinRules(classes Classes) *RuleTable {
	return NewRuleTable(
		Namespace{
			Name: TaskListFilter,
			Rules: []Rule{{
				Name:      "task-checkbox",
				Match:     isTaskCheckbox(classes.TaskCheckbox),
				Transform: renderCheckbox,
			}},
		},
		Namespace{
			Name: TableOfContentsFilter,
			Rules: []Rule{{
				Name: "section-nav",
				Match: func(n *html.Node) bool {
					return dom.NodeName(n) == "ul" && dom.HasClass(n, classes.SectionNav)
				},
				Transform: func(*Context, *html.Node) (string, bool) {
					return TableOfContents, true
				},
				Block: true,
			}},
		},
		Namespace{
			Name: MarkdownFilter,
			Rules: []Rule{
				{Name: "inline-code", Match: isInlineCode, Transform: renderInlineCode},
				{Name: "code-block", Match: tag("pre"), Transform: renderCodeBlock, Block: true},
				{Name: "table", Match: tag("table"), Transform: renderTable, Block: true},
				{Name: "table-head", Match: tag("thead"), Transform: renderTableHead, Block: true},
				{Name: "table-body", Match: tag("tbody"), Transform: renderTableBody, Block: true},
				{Name: "table-row", Match: tag("tr"), Transform: renderTableRow, Block: true},
			},
		},
	)
}

func tag(name string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return dom.NodeName(n) == name
	}
}

func isTaskCheckbox(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return dom.NodeName(n) == "input" &&
			strings.EqualFold(dom.GetAttributeOr(n, "type", ""), "checkbox") &&
			dom.HasClass(n, class)
	}
}

func renderCheckbox(_ *Context, n *html.Node) (string, bool) {
	if _, checked := dom.GetAttribute(n, "checked"); checked {
		return "[x]", true
	}
	return "[ ]", true
}

func isInlineCode(n *html.Node) bool {
	return dom.NodeName(n) == "code" && !nodes.HasAncestor(n, "pre")
}

func renderInlineCode(_ *Context, n *html.Node) (string, bool) {
	return InlineCode(dom.CollectText(n))
}

func renderCodeBlock(_ *Context, n *html.Node) (string, bool) {
	return CodeBlock(codeText(n), codeLanguage(n)), true
}

// codeLanguage reads the info string from the lang attribute or a
// language-*/lang-* class on the block or its code child.
func codeLanguage(pre *html.Node) string {
	candidates := []*html.Node{pre}
	if code := nodes.FirstChildElement(pre, "code"); code != nil {
		candidates = append(candidates, code)
	}
	for _, n := range candidates {
		if lang := dom.GetAttributeOr(n, "lang", ""); lang != "" {
			return lang
		}
	}
	for _, n := range candidates {
		for _, class := range dom.GetClasses(n) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok && lang != "" {
				return lang
			}
			if lang, ok := strings.CutPrefix(class, "lang-"); ok && lang != "" {
				return lang
			}
		}
	}
	return ""
}

// codeText collects the raw text of a code block. Line breaks written as
// br elements become newlines.
func codeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "textarea":
				return
			case "br":
				b.WriteByte('\n')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
