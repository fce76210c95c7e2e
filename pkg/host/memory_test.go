package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBuildsTree(t *testing.T) {
	m := NewMemory()
	ul := m.CreateElement("ul")
	a := m.CreateElement("li")
	b := m.CreateElement("li")
	m.SetAttribute(a, "id", "a")
	m.InsertBefore(a, m.CreateText("A"), nil)
	m.InsertBefore(b, m.CreateText("B"), nil)
	m.InsertBefore(m.Root(), ul, nil)
	m.InsertBefore(ul, b, nil)
	m.InsertBefore(ul, a, b)

	assert.Equal(t, `<ul><li id="a">A</li><li>B</li></ul>`, m.String())
	assert.Equal(t, a, m.FirstChild(ul))
	assert.Equal(t, b, m.NextSibling(a))
	assert.Nil(t, m.NextSibling(b))
	assert.Nil(t, m.FirstChild(m.CreateElement("empty")))
}

func TestMemoryInsertMovesNode(t *testing.T) {
	m := NewMemory()
	root := m.Root()
	x, y := m.CreateElement("x"), m.CreateElement("y")
	m.InsertBefore(root, x, nil)
	m.InsertBefore(root, y, nil)

	m.InsertBefore(root, y, x)

	assert.Equal(t, `<y></y><x></x>`, m.String())
	assert.Len(t, root.Children, 2)

	m.RemoveChild(root, y)
	assert.Equal(t, `<x></x>`, m.String())
	assert.Nil(t, y.(*Node).Parent)
}

func TestMemoryJournal(t *testing.T) {
	m := NewMemory()
	n := m.CreateElement("p")
	m.SetAttribute(n, "title", "t")
	m.RemoveAttribute(n, "title")
	m.BindListener(n, "click", func(any) {})
	m.UnbindListener(n, "click")
	txt := m.CreateText("a")
	m.SetText(txt, "b")
	m.InsertBefore(m.Root(), n, nil)
	m.InsertBefore(m.Root(), txt, n)

	var ops []string
	for _, c := range m.Journal() {
		ops = append(ops, c.String())
	}
	assert.Equal(t, []string{
		"create #2 p",
		"set #2 title=t",
		"unset #2 title",
		"bind #2 click",
		"unbind #2 click",
		"text #3 a",
		"content #3 b",
		"insert #2 end",
		"insert #3 before #2",
	}, ops)
	assert.Equal(t, 9, m.Calls())

	m.ResetJournal()
	assert.Zero(t, m.Calls())
	assert.Equal(t, `b<p></p>`, m.String())
}

func TestMemoryDispatch(t *testing.T) {
	m := NewMemory()
	n := m.CreateElement("button")
	var got any
	m.BindListener(n, "click", func(ev any) { got = ev })

	require.True(t, m.Dispatch(n.(*Node), "click", 42))
	assert.Equal(t, 42, got)
	assert.False(t, m.Dispatch(n.(*Node), "hover", nil))
}

func TestMemoryInlineReusesNode(t *testing.T) {
	m := NewMemory()
	n := m.SetInline(nil, "<b>x</b>")
	m.InsertBefore(m.Root(), n, nil)

	again := m.SetInline(n, "<i>y</i>")

	assert.Same(t, n.(*Node), again.(*Node))
	assert.Equal(t, `<i>y</i>`, m.String())
	assert.Equal(t, KindInline, n.(*Node).Kind)
}

func TestMemoryRejectsForeignHandles(t *testing.T) {
	m := NewMemory()
	assert.Panics(t, func() { m.SetText("not a node", "x") })
}

func TestNodeWalk(t *testing.T) {
	m := NewMemory()
	a := m.CreateElement("a")
	m.InsertBefore(a, m.CreateElement("b"), nil)
	m.InsertBefore(m.Root(), a, nil)
	m.InsertBefore(m.Root(), m.CreateElement("c"), nil)

	var tags []string
	m.Root().Walk(func(n *Node) bool {
		tags = append(tags, n.Tag)
		return n.Tag != "b"
	})
	assert.Equal(t, []string{"root", "a", "b"}, tags)
}
