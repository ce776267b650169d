package gfm

import (
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/dom"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Alignment of a table column.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func parseAlignment(s string) Alignment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "start":
		return AlignLeft
	case "center":
		return AlignCenter
	case "right", "end":
		return AlignRight
	default:
		return AlignNone
	}
}

// CellAlignment reads the alignment of a header cell from its align
// attribute, falling back to text-align in its inline style.
func CellAlignment(cell *html.Node) Alignment {
	if a := parseAlignment(dom.GetAttributeOr(cell, "align", "")); a != AlignNone {
		return a
	}

	style := dom.GetAttributeOr(cell, "style", "")
	if style == "" {
		return AlignNone
	}
	// douceur drops the value of a final declaration without ";".
	decls, err := parser.ParseDeclarations(strings.TrimSuffix(strings.TrimSpace(style), ";") + ";")
	if err != nil {
		return AlignNone
	}
	// The last declaration wins, as in a browser.
	align := AlignNone
	for _, d := range decls {
		if strings.EqualFold(d.Property, "text-align") {
			align = parseAlignment(d.Value)
		}
	}
	return align
}

// SeparatorSegment returns the separator row segment for a header cell
// whose rendered text is cell.
func SeparatorSegment(cell string, align Alignment) string {
	width := utf8.RuneCountInString(cell) + 2

	before, after := "", ""
	switch align {
	case AlignCenter:
		before, after = ":", ":"
		width -= 2
	case AlignRight:
		after = ":"
		width--
	}
	if width < 3 {
		width = 3
	}
	return before + strings.Repeat("-", width) + after
}

var cellReplacer = strings.NewReplacer(
	"|", `\|`,
	"\r\n", " ",
	"\n", " ",
)

// escapeCell keeps rendered cell content on one line and escapes pipes so
// the cell cannot split.
func escapeCell(s string) string {
	return cellReplacer.Replace(strings.TrimSpace(s))
}

// wellFormedTable reports whether table has both a header group and a body
// group as direct children.
func wellFormedTable(table *html.Node) (thead, tbody *html.Node, ok bool) {
	if table == nil || dom.NodeName(table) != "table" {
		return nil, nil, false
	}
	for _, c := range dom.AllChildElements(table) {
		switch dom.NodeName(c) {
		case "thead":
			if thead == nil {
				thead = c
			}
		case "tbody":
			if tbody == nil {
				tbody = c
			}
		}
	}
	return thead, tbody, thead != nil && tbody != nil
}

func rowCells(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for _, c := range dom.AllChildElements(tr) {
		if name := dom.NodeName(c); name == "td" || name == "th" {
			cells = append(cells, c)
		}
	}
	return cells
}

func headerCells(thead *html.Node) []*html.Node {
	return dom.FindAllNodes(thead, func(n *html.Node) bool {
		return dom.NodeName(n) == "th"
	})
}

func renderTable(c *Context, n *html.Node) (string, bool) {
	thead, tbody, ok := wellFormedTable(n)
	if !ok || len(headerCells(thead)) == 0 {
		return "", false
	}
	head := c.Render(thead)
	body := c.Render(tbody)
	if head == "" {
		return "", false
	}
	if body == "" {
		return head, true
	}
	return head + "\n" + body, true
}

func renderTableHead(c *Context, n *html.Node) (string, bool) {
	if _, _, ok := wellFormedTable(n.Parent); !ok {
		return "", false
	}
	cells := headerCells(n)
	if len(cells) == 0 {
		return "", false
	}

	text := c.RenderChildren(n)
	segments := make([]string, 0, len(cells))
	for _, cell := range cells {
		segments = append(segments, SeparatorSegment(escapeCell(c.Render(cell)), CellAlignment(cell)))
	}
	return text + "\n|" + strings.Join(segments, "|") + "|", true
}

func renderTableBody(c *Context, n *html.Node) (string, bool) {
	var rows []string
	for _, tr := range dom.AllChildElements(n) {
		if dom.NodeName(tr) != "tr" {
			continue
		}
		if row := c.Render(tr); row != "" {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return "", false
	}
	return strings.Join(rows, "\n"), true
}

func renderTableRow(c *Context, n *html.Node) (string, bool) {
	cells := rowCells(n)
	if len(cells) == 0 {
		return "", false
	}
	out := make([]string, 0, len(cells))
	for _, cell := range cells {
		out = append(out, escapeCell(c.Render(cell)))
	}
	return "| " + strings.Join(out, " | ") + " |", true
}
