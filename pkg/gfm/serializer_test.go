package gfm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"gfmclip/pkg/nodes"
)

func serializeHTML(t *testing.T, s *Serializer, src string) string {
	t.Helper()
	out, err := s.SerializeHTML(src)
	require.NoError(t, err)
	return out
}

func TestSerializeInlineCode(t *testing.T) {
	s := NewSerializer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "<p><code>foo bar</code></p>", "`foo bar`"},
		{"in text", "<p>run <code>make</code> now</p>", "run `make` now"},
		{"backtick", "<p>x <code>a`b</code></p>", "x `` a`b ``"},
		{"padded content trimmed", "<p>x <code>  y  </code></p>", "x `y`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serializeHTML(t, s, tt.in))
		})
	}
}

func TestSerializeCodeBlock(t *testing.T) {
	s := NewSerializer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lang attribute",
			in:   "<pre lang=\"go\"><code>a := 1\nb := 2\n</code></pre>",
			want: "```go\na := 1\nb := 2\n```",
		},
		{
			name: "language class",
			in:   "<pre><code class=\"language-ruby\">puts 1\n</code></pre>",
			want: "```ruby\nputs 1\n```",
		},
		{
			name: "blank lines kept",
			in:   "<pre><code>a\n\n\nb</code></pre>",
			want: "```\na\n\n\nb\n```",
		},
		{
			name: "fence longer than content",
			in:   "<pre><code>```\nx\n```</code></pre>",
			want: "````\n```\nx\n```\n````",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serializeHTML(t, s, tt.in))
		})
	}
}

func TestSerializeTable(t *testing.T) {
	s := NewSerializer()

	src := `<table>
<thead><tr><th align="center">A</th><th>B</th></tr></thead>
<tbody><tr><td>1</td><td>2</td></tr></tbody>
</table>`
	assert.Equal(t, "| A | B |\n|:---:|---|\n| 1 | 2 |", serializeHTML(t, s, src))
}

func TestSerializeTableStyleAlignment(t *testing.T) {
	s := NewSerializer()

	src := `<table>
<thead><tr><th style="text-align: right">Name</th><th style="text-align:left">Size</th></tr></thead>
<tbody><tr><td>a</td><td>1</td></tr><tr><td>b</td><td>2</td></tr></tbody>
</table>`
	want := "| Name | Size |\n|-----:|------|\n| a | 1 |\n| b | 2 |"
	assert.Equal(t, want, serializeHTML(t, s, src))
}

func TestSerializeTableStyleWithoutSemicolon(t *testing.T) {
	s := NewSerializer()

	for _, style := range []string{"text-align: center", "text-align: center;", "color: red; text-align: center"} {
		t.Run(style, func(t *testing.T) {
			src := `<table><thead><tr><th style="` + style + `">A</th><th>B</th></tr></thead><tbody><tr><td>1</td><td>2</td></tr></tbody></table>`
			assert.Equal(t, "| A | B |\n|:---:|---|\n| 1 | 2 |", serializeHTML(t, s, src))
		})
	}
}

func TestSerializeTableEscapesPipes(t *testing.T) {
	s := NewSerializer()

	src := `<table><thead><tr><th>A</th></tr></thead><tbody><tr><td>x|y</td></tr></tbody></table>`
	assert.Equal(t, "| A |\n|---|\n| x\\|y |", serializeHTML(t, s, src))
}

func TestSerializeTableWithoutBody(t *testing.T) {
	s := NewSerializer()

	out := serializeHTML(t, s, `<table><thead><tr><th>A</th><th>B</th></tr></thead></table>`)
	assert.NotContains(t, out, "---")
	assert.NotContains(t, out, "\n|")
}

func TestSerializeTableWithoutHead(t *testing.T) {
	s := NewSerializer()

	out := serializeHTML(t, s, `<table><tbody><tr><td>1</td><td>2</td></tr></tbody></table>`)
	assert.NotContains(t, out, "---")
}

func TestSerializeTaskCheckbox(t *testing.T) {
	s := NewSerializer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "checked",
			in:   `<p><input type="checkbox" class="task-list-item-checkbox" checked> done</p>`,
			want: "[x] done",
		},
		{
			name: "unchecked",
			in:   `<p><input type="checkbox" class="task-list-item-checkbox"> todo</p>`,
			want: "[ ] todo",
		},
		{
			name: "checked with children text around",
			in:   `<p>before <input type="checkbox" class="task-list-item-checkbox" checked="checked"> after</p>`,
			want: "before [x] after",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serializeHTML(t, s, tt.in))
		})
	}
}

func TestSerializeTaskList(t *testing.T) {
	s := NewSerializer()

	src := `<ul>
<li class="task-list-item"><input type="checkbox" class="task-list-item-checkbox" checked> done</li>
<li class="task-list-item"><input type="checkbox" class="task-list-item-checkbox"> todo</li>
</ul>`
	out := serializeHTML(t, s, src)
	assert.Contains(t, out, "[x] done")
	assert.Contains(t, out, "[ ] todo")
}

func TestSerializeCheckboxWithoutTaskClass(t *testing.T) {
	s := NewSerializer()

	out := serializeHTML(t, s, `<p><input type="checkbox" checked> plain</p>`)
	assert.Equal(t, "plain", out)
}

func TestSerializeTableOfContents(t *testing.T) {
	s := NewSerializer()

	src := `<ul class="section-nav"><li><a href="#one">One</a></li></ul><p>Body</p>`
	assert.Equal(t, "[[_TOC_]]\n\nBody", serializeHTML(t, s, src))
}

func TestSerializeCustomClasses(t *testing.T) {
	s := NewSerializer(WithRules(BuiltinRules(Classes{TaskCheckbox: "todo", SectionNav: "toc"})))

	assert.Equal(t, "[x] a", serializeHTML(t, s, `<p><input type="checkbox" class="todo" checked> a</p>`))
	assert.Equal(t, "[[_TOC_]]", serializeHTML(t, s, `<ul class="toc"><li>x</li></ul>`))
}

func TestSerializeOverrides(t *testing.T) {
	shout := Namespace{
		Name: "Shout",
		Rules: []Rule{{
			Name:  "code",
			Match: tag("code"),
			Transform: func(c *Context, n *html.Node) (string, bool) {
				return "CODE", true
			},
		}},
	}
	decline := Namespace{
		Name: "Decline",
		Rules: []Rule{{
			Name:  "code",
			Match: tag("code"),
			Transform: func(c *Context, n *html.Node) (string, bool) {
				return "", false
			},
		}},
	}

	s := NewSerializer(WithOverrides(shout))
	assert.Equal(t, "CODE", serializeHTML(t, s, "<p><code>x</code></p>"))

	s = NewSerializer(WithOverrides(decline))
	assert.Equal(t, "`x`", serializeHTML(t, s, "<p><code>x</code></p>"))

	s = NewSerializer(WithOverrides(shout, decline))
	assert.Equal(t, "CODE", serializeHTML(t, s, "<p><code>x</code></p>"))
}

func TestSerializeGenericFallback(t *testing.T) {
	s := NewSerializer()

	out := serializeHTML(t, s, `<h2>Title</h2><p>Some <strong>bold</strong> and <a href="https://example.com">a link</a>.</p>`)
	assert.Equal(t, "## Title\n\nSome **bold** and [a link](https://example.com).", out)
}

func TestSerializeDoesNotModifyInput(t *testing.T) {
	s := NewSerializer()

	frag, err := nodes.ParseFragment(`<p><input type="checkbox" class="task-list-item-checkbox"> a <code></code></p>`)
	require.NoError(t, err)
	before, err := nodes.Render(frag.FirstChild)
	require.NoError(t, err)

	_, err = s.Serialize(frag)
	require.NoError(t, err)

	after, err := nodes.Render(frag.FirstChild)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSerializeNil(t *testing.T) {
	out, err := NewSerializer().Serialize(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRuleTableCandidates(t *testing.T) {
	base := NewRuleTable(
		Namespace{Name: "first", Rules: []Rule{
			{Name: "a", Match: tag("p")},
			{Name: "b", Match: tag("p")},
		}},
		Namespace{Name: "second", Rules: []Rule{{Name: "c", Match: tag("div")}}},
	)
	extended := base.Extend(Namespace{Name: "third", Rules: []Rule{{Name: "d", Match: tag("p")}}})

	assert.Equal(t, []string{"first", "second"}, base.Names())
	assert.Equal(t, []string{"first", "second", "third"}, extended.Names())

	var names []string
	for _, r := range extended.Candidates(nodes.Element("p")) {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"d", "a"}, names)

	assert.Empty(t, base.Candidates(nodes.Text("p")))
	assert.Empty(t, base.Candidates(nil))
}

func TestBuiltinNamespaceOrder(t *testing.T) {
	assert.Equal(t,
		[]string{TaskListFilter, TableOfContentsFilter, MarkdownFilter},
		BuiltinRules(DefaultClasses()).Names(),
	)
}
