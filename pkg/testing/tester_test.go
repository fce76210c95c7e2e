package testing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/loom/pkg/core"
	loomerrors "github.com/go-drift/loom/pkg/errors"
)

func counter(ctx *core.Context, props core.Props) *core.Element {
	n, set := core.UseState(ctx, 0)
	return core.Tag("button", []core.Attr{
		core.On("click", func(any) { set.Set(n + 1) }),
	}, fmt.Sprint(n))
}

func TestRenderTesterRendersAndDispatches(t *testing.T) {
	tester := NewRenderTesterWithT(t)
	require.NoError(t, tester.Render(core.Component(counter, nil)))
	assert.Equal(t, "0", tester.Find(ByTag("button")).Text())

	require.NoError(t, tester.Dispatch(ByTag("button"), "click", nil))
	assert.Equal(t, "0", tester.Find(ByTag("button")).Text(), "nothing runs before a pump")
	require.NoError(t, tester.PumpAndSettle(0))

	assert.Equal(t, "1", tester.Find(ByTag("button")).Text())
	assert.Len(t, tester.Commits(), 2)
}

func TestRenderTesterDispatchErrors(t *testing.T) {
	tester := NewRenderTesterWithT(t)
	require.NoError(t, tester.Render(core.Tag("p", nil, "x")))

	assert.Error(t, tester.Dispatch(ByTag("button"), "click", nil))
	assert.ErrorIs(t, tester.Dispatch(ByTag("p"), "click", nil), ErrNoListener)
}

func TestRenderTesterWithUnits(t *testing.T) {
	tester := NewRenderTesterWithT(t, WithUnits(1))
	tester.Renderer().Render(core.Tag("ul", nil, core.Tag("li", nil, "a"), core.Tag("li", nil, "b")))

	require.NoError(t, tester.Pump())
	assert.True(t, tester.Renderer().Pending())
	assert.Empty(t, tester.Commits())

	require.NoError(t, tester.PumpAndSettle(0))
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul>", tester.Host().String())
	require.Len(t, tester.Commits(), 1)
	assert.Greater(t, tester.Commits()[0].Stats.Slices, 1)
}

func TestRenderTesterSettleTimeout(t *testing.T) {
	tester := NewRenderTesterWithT(t, WithUnits(1))
	tester.Renderer().Render(core.Tag("ul", nil, "a", "b", "c"))

	assert.ErrorIs(t, tester.PumpAndSettle(2), ErrSettleTimeout)
	assert.NoError(t, tester.PumpAndSettle(0))
}

func TestRenderTesterReportsAbort(t *testing.T) {
	loomerrors.SetHandler(&loomerrors.LogHandler{Out: discard{}})
	t.Cleanup(func() { loomerrors.SetHandler(nil) })

	tester := NewRenderTesterWithT(t)
	err := tester.Render(core.Component(func(*core.Context, core.Props) *core.Element {
		panic("broken")
	}, nil))

	var buildErr *loomerrors.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Len(t, tester.Errors(), 1)
	assert.Empty(t, tester.Commits())
}

func TestRenderTesterWithBudget(t *testing.T) {
	tester := NewRenderTesterWithT(t, WithBudget(core.DefaultMinRemaining*3))
	slow := func(ctx *core.Context, props core.Props) *core.Element {
		tester.Clock().Advance(core.DefaultMinRemaining)
		return core.Text(props.String("label"))
	}
	items := make([]*core.Element, 6)
	for i := range items {
		items[i] = core.Component(slow, []core.Attr{core.A("label", i)})
	}
	require.NoError(t, tester.Render(core.Tag("div", nil, items)))

	assert.Equal(t, "<div>012345</div>", tester.Host().String())
	assert.Greater(t, tester.Commits()[0].Stats.Slices, 1)
}

func TestRenderTesterCleanupUnmounts(t *testing.T) {
	tester := NewRenderTester()
	require.NoError(t, tester.Render("x"))
	tester.Cleanup()
	assert.Empty(t, tester.Host().String())
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
