// Package gfm serializes HTML node trees into GitLab Flavored Markdown.
//
// Generic structure (headings, paragraphs, emphasis, lists, links) is
// delegated to the html-to-markdown converter. Tables, code, task list
// checkboxes and table of contents markers are handled by a RuleTable that is
// consulted first for every element.
package gfm

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"golang.org/x/net/html"

	"gfmclip/pkg/nodes"
)

// Serializer converts node trees into GFM text. It is safe for concurrent
// use and keeps no state between calls.
type Serializer struct {
	rules *RuleTable
	conv  *converter.Converter
}

type Option func(*Serializer)

// WithRules replaces the rule table.
func WithRules(t *RuleTable) Option {
	return func(s *Serializer) {
		s.rules = t
	}
}

// WithOverrides appends namespaces that take priority over the current rules.
func WithOverrides(ns ...Namespace) Option {
	return func(s *Serializer) {
		s.rules = s.rules.Extend(ns...)
	}
}

func NewSerializer(opts ...Option) *Serializer {
	s := &Serializer{rules: BuiltinRules(DefaultClasses())}
	for _, opt := range opts {
		opt(s)
	}

	s.conv = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			strikethrough.NewStrikethroughPlugin(),
			&rulePlugin{rules: s.rules},
		),
	)
	return s
}

// Rules returns the rule table in use.
func (s *Serializer) Rules() *RuleTable {
	return s.rules
}

// Serialize renders n as GFM. n itself is never modified.
func (s *Serializer) Serialize(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	out, err := s.conv.ConvertNode(nodes.Wrap(n))
	if err != nil {
		return "", fmt.Errorf("serialize %s: %w", describe(n), err)
	}
	return string(out), nil
}

// SerializeHTML parses src as body content and renders it as GFM.
func (s *Serializer) SerializeHTML(src string) (string, error) {
	frag, err := nodes.ParseFragment(src)
	if err != nil {
		return "", err
	}
	return s.Serialize(frag)
}

func describe(n *html.Node) string {
	switch n.Type {
	case html.DocumentNode:
		return "fragment"
	case html.TextNode:
		return "text"
	default:
		return "<" + n.Data + ">"
	}
}

// rulePlugin registers a RuleTable with the converter. Its renderer runs
// before the commonmark renderers so rules take precedence.
type rulePlugin struct {
	rules *RuleTable
}

func (p *rulePlugin) Name() string {
	return "gfm-rules"
}

func (p *rulePlugin) Init(conv *converter.Converter) error {
	// The base plugin drops inputs, which hides task list checkboxes.
	conv.Register.TagType("input", converter.TagTypeInline, converter.PriorityEarly)
	conv.Register.Renderer(p.render, converter.PriorityEarly)
	return nil
}

func (p *rulePlugin) render(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	candidates := p.rules.Candidates(n)
	if len(candidates) == 0 {
		return converter.RenderTryNext
	}

	c := &Context{conv: ctx}
	for _, r := range candidates {
		out, ok := r.Transform(c, n)
		if !ok {
			continue
		}
		if r.Block {
			w.WriteString("\n\n")
			w.WriteString(out)
			w.WriteString("\n\n")
		} else {
			w.WriteString(out)
		}
		return converter.RenderSuccess
	}
	return converter.RenderTryNext
}
