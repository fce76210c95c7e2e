package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loomerrors "github.com/go-drift/loom/pkg/errors"
)

func counter(ctx *Context, props Props) *Element {
	count, setCount := UseState(ctx, 0)
	return Tag("button", []Attr{
		On("click", func(any) { setCount.Set(count + 1) }),
	}, count)
}

func TestUseState(t *testing.T) {
	h := newHarness(t)
	h.render(Component(counter, nil))
	btn := h.find("button")
	assert.Equal(t, `<button>0</button>`, h.mem.String())

	h.mem.ResetJournal()
	h.mem.Dispatch(btn, "click", nil)
	assert.True(t, h.r.Pending())
	h.settle()

	assert.Equal(t, `<button>1</button>`, h.mem.String())
	assert.Same(t, btn, h.find("button"))
	assert.Equal(t, 1, h.mem.Calls(), "journal: %v", h.mem.Journal())
}

func TestKeyedDirtyComponentRerenders(t *testing.T) {
	h := newHarness(t)
	h.render(Component(counter, nil).WithKey("c"))
	btn := h.find("button")

	h.mem.Dispatch(btn, "click", nil)
	h.settle()
	h.mem.Dispatch(btn, "click", nil)
	h.settle()

	assert.Equal(t, `<button>2</button>`, h.mem.String())
}

func TestKeyedCleanComponentIsReused(t *testing.T) {
	h := newHarness(t)
	renders := 0
	static := func(ctx *Context, props Props) *Element {
		renders++
		return Tag("p", nil, "static")
	}
	var setLabel Setter[string]
	label := func(ctx *Context, props Props) *Element {
		v, set := UseState(ctx, "x")
		setLabel = set
		return Tag("b", nil, v)
	}
	h.render(Component(static, nil).WithKey("s"), Component(label, nil).WithKey("l"))
	require.Equal(t, 1, renders)

	setLabel.Set("y")
	h.settle()

	assert.Equal(t, `<p>static</p><b>y</b>`, h.mem.String())
	assert.Equal(t, 1, renders)
}

func TestSetterUpdate(t *testing.T) {
	h := newHarness(t)
	var set Setter[[]string]
	h.render(Component(func(ctx *Context, props Props) *Element {
		items, s := UseState(ctx, []string{"a"})
		set = s
		return Tag("p", nil, fmt.Sprint(items))
	}, nil))

	set.Update(func(items []string) []string { return append(items, "b") })
	h.settle()
	assert.Equal(t, `<p>[a b]</p>`, h.mem.String())
}

func TestUseStateNilInterface(t *testing.T) {
	h := newHarness(t)
	var set Setter[error]
	h.render(Component(func(ctx *Context, props Props) *Element {
		err, s := UseState[error](ctx, nil)
		set = s
		if err != nil {
			return Text(err.Error())
		}
		return Text("ok")
	}, nil))
	assert.Equal(t, "ok", h.mem.String())

	set.Set(fmt.Errorf("failed"))
	h.settle()
	assert.Equal(t, "failed", h.mem.String())
}

func TestUseRefIsStable(t *testing.T) {
	h := newHarness(t)
	var refs []*int
	comp := func(ctx *Context, props Props) *Element {
		ref := UseRef(ctx, 10)
		*ref++
		refs = append(refs, ref)
		return Text(fmt.Sprint(*ref))
	}
	h.render(Component(comp, nil))
	h.render(Component(comp, nil))

	require.Len(t, refs, 2)
	assert.Same(t, refs[0], refs[1])
	assert.Equal(t, 12, *refs[1])
	assert.Zero(t, h.sched.Pending())
}

func TestSetterOnDeletedComponentIsNoop(t *testing.T) {
	h := newHarness(t)
	var set Setter[int]
	h.render(Component(func(ctx *Context, props Props) *Element {
		v, s := UseState(ctx, 0)
		set = s
		return Text(fmt.Sprint(v))
	}, nil))

	h.render(Tag("p", nil))
	h.mem.ResetJournal()

	assert.NotPanics(t, func() { set.Set(5) })
	assert.NotPanics(t, func() { set.Update(func(v int) int { return v + 1 }) })
	assert.False(t, h.r.Pending())
	assert.Zero(t, h.sched.Pending())
	assert.Zero(t, h.mem.Calls())
}

func TestHookAfterRenderPanics(t *testing.T) {
	h := newHarness(t)
	var saved *Context
	h.render(Component(func(ctx *Context, props Props) *Element {
		saved = ctx
		return nil
	}, nil))

	require.NotNil(t, saved)
	assert.Panics(t, func() { UseState(saved, 1) })
	assert.Panics(t, func() { Watch(saved, NewGlobal(h.r, "late", 0)) })
}

func TestGlobalNotifiesSubscribers(t *testing.T) {
	h := newHarness(t)
	theme := NewGlobal(h.r, "theme", "light")
	renders := map[string]int{}
	reader := func(name string) ComponentFunc {
		return func(ctx *Context, props Props) *Element {
			renders[name]++
			return Tag("span", []Attr{A("class", Watch(ctx, theme))}, name)
		}
	}
	a, b := reader("a"), reader("b")
	h.render(Component(a, nil).WithKey("a"), Component(b, nil).WithKey("b"))
	assert.Equal(t, 2, theme.Subscribers())
	assert.Equal(t, "theme", theme.Name())

	theme.Set("dark")
	assert.Equal(t, 1, h.sched.Pending())
	h.settle()

	assert.Equal(t, `<span class="dark">a</span><span class="dark">b</span>`, h.mem.String())
	assert.Equal(t, map[string]int{"a": 2, "b": 2}, renders)

	theme.Update(func(s string) string { return s + "!" })
	h.settle()
	assert.Equal(t, "dark!", theme.Value())
	assert.Equal(t, `<span class="dark!">a</span><span class="dark!">b</span>`, h.mem.String())
}

func TestGlobalWithoutSubscribersSchedulesNothing(t *testing.T) {
	h := newHarness(t)
	g := NewGlobal(h.r, "idle", 0)
	h.render("static")

	g.Set(1)
	assert.Zero(t, g.Subscribers())
	assert.Zero(t, h.sched.Pending())
	assert.Equal(t, 1, g.Value())
}

func TestSubscriptionFollowsLatestRender(t *testing.T) {
	h := newHarness(t)
	flag := NewGlobal(h.r, "flag", true)
	detail := NewGlobal(h.r, "detail", "d1")
	comp := func(ctx *Context, props Props) *Element {
		if Watch(ctx, flag) {
			return Text(Watch(ctx, detail))
		}
		return Text("off")
	}
	h.render(Component(comp, nil))
	require.Equal(t, 1, detail.Subscribers())
	assert.Equal(t, "d1", h.mem.String())

	flag.Set(false)
	h.settle()
	assert.Equal(t, "off", h.mem.String())
	assert.Zero(t, detail.Subscribers())
	assert.Equal(t, 1, flag.Subscribers())

	detail.Set("d2")
	assert.Zero(t, h.sched.Pending())
}

func TestAbortedPassDoesNotSubscribe(t *testing.T) {
	captureErrors(t)
	h := newHarness(t)
	g := NewGlobal(h.r, "g", 0)
	fail := true
	watcher := func(ctx *Context, props Props) *Element {
		Watch(ctx, g)
		return Text("w")
	}
	thrower := func(ctx *Context, props Props) *Element {
		if fail {
			panic("no")
		}
		return nil
	}
	h.render(Component(watcher, nil), Component(thrower, nil))

	require.Error(t, h.r.Err())
	assert.Zero(t, g.Subscribers())

	fail = false
	h.render(Component(watcher, nil), Component(thrower, nil))
	assert.NoError(t, h.r.Err())
	assert.Equal(t, 1, g.Subscribers())
}

func TestSetDuringRenderRestartsCleanly(t *testing.T) {
	h := newHarness(t)
	var set Setter[int]
	renders := 0
	comp := func(ctx *Context, props Props) *Element {
		renders++
		v, s := UseState(ctx, 0)
		set = s
		if v == 1 {
			s.Set(2)
			return Text("transient")
		}
		return Tag("p", nil, "kept")
	}
	h.render(Tag("main", nil, Component(comp, nil)))
	p := h.find("p")

	h.mem.ResetJournal()
	set.Set(1)
	h.settle()

	assert.Equal(t, `<main><p>kept</p></main>`, h.mem.String())
	assert.Same(t, p, h.find("p"))
	assert.Zero(t, h.ops("remove"), "journal: %v", h.mem.Journal())
	assert.Zero(t, h.ops("create"))
	assert.Equal(t, 3, renders)
}

func TestGlobalSetDuringRenderRestartsCleanly(t *testing.T) {
	h := newHarness(t)
	g := NewGlobal(h.r, "step", 0)
	comp := func(ctx *Context, props Props) *Element {
		if Watch(ctx, g) == 1 {
			g.Set(2)
			return Text("transient")
		}
		return Tag("p", nil, "kept")
	}
	h.render(Component(comp, nil), "tail")
	require.Equal(t, 1, g.Subscribers())

	h.mem.ResetJournal()
	g.Set(1)
	h.settle()

	assert.Equal(t, `<p>kept</p>tail`, h.mem.String())
	assert.Zero(t, h.ops("remove"), "journal: %v", h.mem.Journal())
	assert.Equal(t, 1, g.Subscribers())
}

func TestWatchForeignGlobalPanics(t *testing.T) {
	h := newHarness(t)
	other := newHarness(t)
	g := NewGlobal(other.r, "foreign", 0)
	comp := func(ctx *Context, props Props) *Element {
		return Text(fmt.Sprint(Watch(ctx, g)))
	}
	captureErrors(t)
	h.render(Component(comp, nil))

	var buildErr *loomerrors.BuildError
	require.ErrorAs(t, h.r.Err(), &buildErr)
	assert.Equal(t, `core: Watch of Global "foreign" owned by another Renderer`, buildErr.Recovered)
	assert.Zero(t, g.Subscribers())
}
