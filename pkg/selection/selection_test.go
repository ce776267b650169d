package selection

import (
	"testing"

	"github.com/JohannesKaufmann/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"gfmclip/pkg/nodes"
)

func newNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(DefaultSelectors())
	require.NoError(t, err)
	return n
}

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	frag, err := nodes.ParseFragment(src)
	require.NoError(t, err)
	return frag
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	out, err := nodes.Render(n)
	require.NoError(t, err)
	return out
}

func TestNewNormalizerInvalidSelector(t *testing.T) {
	sel := DefaultSelectors()
	sel.StructuredContent = "..broken"
	_, err := NewNormalizer(sel)
	assert.Error(t, err)

	sel = DefaultSelectors()
	sel.Line = ""
	_, err = NewNormalizer(sel)
	assert.Error(t, err)
}

func TestNormalizeStructured(t *testing.T) {
	n := newNormalizer(t)

	t.Run("no container", func(t *testing.T) {
		frag := parse(t, "<p>plain</p>")
		assert.Same(t, frag, n.NormalizeStructured(frag))
	})

	t.Run("one container", func(t *testing.T) {
		frag := parse(t, `<section><div class="md"><p>one</p></div></section>`)
		root := n.NormalizeStructured(frag)
		assert.Equal(t, `<div class="md"><p>one</p></div>`, render(t, root))
		assert.Nil(t, root.Parent)
	})

	t.Run("several containers", func(t *testing.T) {
		frag := parse(t, `<div class="md"><p>one</p></div><span>skip</span><div class="wiki"><p>two</p></div>`)
		root := n.NormalizeStructured(frag)
		assert.Equal(t,
			"<div><div class=\"md\"><p>one</p></div>\n\n<div class=\"wiki\"><p>two</p></div>\n\n</div>",
			render(t, root))
	})

	t.Run("nested containers counted once", func(t *testing.T) {
		frag := parse(t, `<div class="md"><div class="md"><p>inner</p></div></div>`)
		root := n.NormalizeStructured(frag)
		assert.Equal(t, "md", dom.GetAttributeOr(root, "class", ""))
		assert.Nil(t, root.Parent)
	})
}

func TestNormalizeCode(t *testing.T) {
	n := newNormalizer(t)

	t.Run("several lines", func(t *testing.T) {
		frag := parse(t, `<span class="line" lang="go">a := 1</span><span class="line" lang="go">b := 2</span>`)
		root := n.NormalizeCode(frag, nil)
		assert.Equal(t,
			"<pre class=\"code highlight\" lang=\"go\"><span class=\"line\" lang=\"go\">a := 1</span>\n<span class=\"line\" lang=\"go\">b := 2</span>\n</pre>",
			render(t, root))
	})

	t.Run("lines without lang", func(t *testing.T) {
		frag := parse(t, `<span class="line">a</span><span class="line">b</span>`)
		root := n.NormalizeCode(frag, nil)
		_, ok := dom.GetAttribute(root, "lang")
		assert.False(t, ok)
	})

	t.Run("single line", func(t *testing.T) {
		frag := parse(t, `<span class="line">x</span>`)
		root := n.NormalizeCode(frag, nil)
		assert.Equal(t, "<code><span class=\"line\">x</span>\n</code>", render(t, root))
	})

	t.Run("no lines", func(t *testing.T) {
		frag := parse(t, `partial text`)
		root := n.NormalizeCode(frag, nil)
		assert.Equal(t, "<code>partial text</code>", render(t, root))
	})

	t.Run("diff side", func(t *testing.T) {
		frag := parse(t, `<table><tbody><tr>
<td class="line_content left-side"><span class="line">old</span></td>
<td class="line_content right-side"><span class="line">new</span></td>
</tr><tr>
<td class="line_content left-side"><span class="line">old2</span></td>
<td class="line_content right-side"><span class="line">new2</span></td>
</tr></tbody></table>`)
		target := nodes.Element("td", "class", "line_content right-side")

		root := n.NormalizeCode(frag, target)
		assert.Equal(t, "pre", root.Data)
		assert.Equal(t, "new\nnew2\n", dom.CollectText(root))
	})
}

func TestSide(t *testing.T) {
	n := newNormalizer(t)
	assert.Equal(t, "left-side", n.Side(nodes.Element("td", "class", "line_content left-side")))
	assert.Equal(t, "", n.Side(nodes.Element("td", "class", "line_content")))
	assert.Equal(t, "", n.Side(nil))

	line := nodes.Element("span", "class", "line")
	nodes.Append(nodes.Element("td", "class", "line_content right-side"), line)
	assert.Equal(t, "right-side", n.Side(line))
	assert.Equal(t, "right-side", n.Side(nodes.Append(line, nodes.Text("b := 1")).FirstChild))
}

func TestFragment(t *testing.T) {
	doc, err := nodes.Parse(`<html><body><div class="md"><p>a</p></div><p id="x">b</p></body></html>`)
	require.NoError(t, err)

	frag, err := Fragment(doc, "#x")
	require.NoError(t, err)
	assert.Equal(t, `<p id="x">b</p>`, render(t, frag.FirstChild))
	assert.Nil(t, frag.FirstChild.NextSibling)

	frag, err = Fragment(doc, ".missing")
	require.NoError(t, err)
	assert.True(t, IsEmpty(frag))

	_, err = Fragment(doc, "[")
	assert.Error(t, err)

	frag, err = Fragment(doc, "")
	require.NoError(t, err)
	assert.False(t, IsEmpty(frag))
}

func TestRangeClonesPerCall(t *testing.T) {
	p := nodes.Append(nodes.Element("p"), nodes.Text("x"))
	r := NewRange(p)

	first := r.Fragment()
	second := r.Fragment()
	require.NotNil(t, first.FirstChild)
	assert.NotSame(t, first.FirstChild, second.FirstChild)
	assert.NotSame(t, p, first.FirstChild)
	assert.Nil(t, p.Parent)

	assert.Nil(t, NewRange().Fragment())
}

func TestSelectAndTarget(t *testing.T) {
	doc := parse(t, `<div class="md"><p id="a">one <b>two</b></p></div><p id="b">three</p>`)

	all, err := Select(doc, "")
	require.NoError(t, err)
	assert.Equal(t, []*html.Node{doc}, all)

	selected, err := Select(doc, "p, .md")
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "one twothree", PlainText(selected))

	_, err = Select(doc, "[")
	assert.Error(t, err)

	target, err := Target(doc, "", selected)
	require.NoError(t, err)
	assert.True(t, dom.HasClass(target, "md"))

	target, err = Target(doc, "b", selected)
	require.NoError(t, err)
	assert.Equal(t, "b", dom.NodeName(target))

	_, err = Target(doc, "#missing", selected)
	assert.Error(t, err)

	target, err = Target(doc, "", all)
	require.NoError(t, err)
	assert.Nil(t, target)
}
