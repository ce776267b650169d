package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestParseFragmentAndRender(t *testing.T) {
	frag, err := ParseFragment(`<p>a <b>b</b></p><p>c</p>`)
	require.NoError(t, err)

	assert.Equal(t, html.DocumentNode, frag.Type)
	assert.Equal(t, "a bc", TextContent(frag))

	out, err := Render(frag)
	require.NoError(t, err)
	assert.Equal(t, "<p>a <b>b</b></p><p>c</p>", out)
}

func TestCloneIsDeep(t *testing.T) {
	frag, err := ParseFragment(`<div class="md"><p>x</p></div>`)
	require.NoError(t, err)
	div := frag.FirstChild

	c := Clone(div)
	require.NotNil(t, c)
	assert.Nil(t, c.Parent)
	c.FirstChild.FirstChild.Data = "changed"

	assert.Equal(t, "x", TextContent(div))
	assert.Equal(t, "changed", TextContent(c))
}

func TestCompileAndOutermost(t *testing.T) {
	doc, err := Parse(`<div class="md" id="a"><div class="md" id="b"></div></div><div class="wiki" id="c"></div>`)
	require.NoError(t, err)

	m, err := Compile(".md, .wiki")
	require.NoError(t, err)

	all := QueryAll(doc, m)
	assert.Len(t, all, 3)

	outer := Outermost(all)
	require.Len(t, outer, 2)
	ids := []string{}
	for _, n := range outer {
		for _, a := range n.Attr {
			if a.Key == "id" {
				ids = append(ids, a.Val)
			}
		}
	}
	assert.Equal(t, []string{"a", "c"}, ids)

	_, err = Compile("[[")
	assert.Error(t, err)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(Fragment()))
	assert.True(t, IsEmpty(Text("")))
	assert.False(t, IsEmpty(Text("x")))
	assert.False(t, IsEmpty(Append(Fragment(), Element("p"))))
}

func TestChildElements(t *testing.T) {
	frag, err := ParseFragment(`<table><thead><tr><th>A</th></tr></thead><tbody><tr><td>1</td></tr></tbody></table>`)
	require.NoError(t, err)
	table := frag.FirstChild

	assert.NotNil(t, FirstChildElement(table, "thead"))
	assert.NotNil(t, FirstChildElement(table, "tbody"))
	assert.Nil(t, FirstChildElement(table, "tfoot"))

	td := FirstChildElement(FirstChildElement(FirstChildElement(table, "tbody"), "tr"), "td")
	require.NotNil(t, td)
	assert.True(t, HasAncestor(td, "table"))
	assert.False(t, HasAncestor(td, "pre"))
}
