package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/host"
)

func renderForm(t *testing.T) *RenderTester {
	t.Helper()
	tester := NewRenderTesterWithT(t)
	require.NoError(t, tester.Render(
		core.Tag("form", []core.Attr{core.A("id", "login")},
			core.Tag("label", nil, "User name"),
			core.Tag("input", []core.Attr{core.A("name", "user")}),
			core.Tag("button", []core.Attr{core.A("type", "submit")}, "Sign in"),
		),
		core.Tag("footer", nil, core.Tag("button", nil, "Help")),
	))
	return tester
}

func TestFinders(t *testing.T) {
	tester := renderForm(t)

	assert.Equal(t, 2, tester.Find(ByTag("button")).Count())
	assert.Equal(t, "Sign in", tester.Find(ByTag("button")).First().Children[0].Text)
	assert.True(t, tester.Find(ByText("Help")).Exists())
	assert.False(t, tester.Find(ByText("Hel")).Exists())
	assert.Equal(t, 2, tester.Find(ByTextContaining("n")).Count())
	assert.Equal(t, "input", tester.Find(ByAttr("name", "user")).First().Tag)

	inForm := tester.Find(Descendant(ByAttr("id", "login"), ByTag("button")))
	require.Equal(t, 1, inForm.Count())
	assert.Equal(t, "Sign in", inForm.Text())

	custom := tester.Find(ByPredicate(func(n *host.Node) bool { return len(n.Attrs) > 0 }))
	assert.Equal(t, 3, custom.Count())
}

func TestFinderResultAccessors(t *testing.T) {
	tester := renderForm(t)
	res := tester.Find(ByTag("button"))

	assert.Same(t, res.All()[1], res.At(1))
	assert.Panics(t, func() { res.At(2) })

	missing := tester.Find(ByTag("table"))
	assert.Nil(t, missing.FirstOrNil())
	assert.PanicsWithValue(t, `Finder found no nodes: ByTag("table")`, func() { missing.First() })
}
