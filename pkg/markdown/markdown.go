// Package markdown is the parse direction of the document model: it turns
// GFM text back into an HTML node tree and renders it for terminals.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"

	"gfmclip/pkg/nodes"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// ToHTML converts GFM text to HTML.
func ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// Parse converts GFM text into a fragment of HTML nodes.
func Parse(src string) (*xhtml.Node, error) {
	out, err := ToHTML(src)
	if err != nil {
		return nil, err
	}
	return nodes.ParseFragment(out)
}

// Preview renders GFM text for a terminal. width <= 0 keeps glamour's
// default wrapping.
func Preview(src string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create preview renderer: %w", err)
	}
	out, err := r.Render(src)
	if err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return out, nil
}
