package core

// Context gives a component access to its hook slots while it renders.
// It must not be used after the render function returns.
type Context struct {
	r     *Renderer
	fiber *Fiber
	inst  *instance
	done  bool
}

// Renderer returns the renderer running the component.
func (c *Context) Renderer() *Renderer { return c.r }

// Key returns the key of the rendering component.
func (c *Context) Key() any { return c.fiber.key }

func (c *Context) slot() int {
	if c.done {
		panic("core: hook used after render returned")
	}
	i := c.inst.cursor
	c.inst.cursor++
	return i
}

// Setter updates one local state slot and schedules a re-render.
// Calls made after the component is deleted do nothing.
type Setter[T any] struct {
	inst *instance
	slot int
}

// Set stores v and schedules a pass.
func (s Setter[T]) Set(v T) {
	if s.inst == nil || s.inst.dead {
		return
	}
	s.inst.slots[s.slot] = v
	s.inst.markDirty()
}

// Update replaces the value with fn applied to it and schedules a pass.
func (s Setter[T]) Update(fn func(T) T) {
	if s.inst == nil || s.inst.dead {
		return
	}
	s.inst.slots[s.slot] = fn(slotValue[T](s.inst.slots[s.slot]))
	s.inst.markDirty()
}

// UseState returns the value of the next local state slot, initialized
// with initial on first render, and a setter for it. Slots are identified
// by call order, so every render of a component must call UseState the
// same number of times in the same order.
//
// Example:
//
//	func Counter(ctx *core.Context, props core.Props) *core.Element {
//	    count, setCount := core.UseState(ctx, 0)
//	    return core.Tag("button", []core.Attr{
//	        core.On("click", func(any) { setCount.Set(count + 1) }),
//	    }, count)
//	}
func UseState[T any](c *Context, initial T) (T, Setter[T]) {
	i := c.slot()
	if i == len(c.inst.slots) {
		c.inst.slots = append(c.inst.slots, initial)
	}
	return slotValue[T](c.inst.slots[i]), Setter[T]{inst: c.inst, slot: i}
}

// UseRef returns a pointer that stays the same across renders.
// Writes through it do not schedule a pass.
func UseRef[T any](c *Context, initial T) *T {
	i := c.slot()
	if i == len(c.inst.slots) {
		v := initial
		c.inst.slots = append(c.inst.slots, &v)
	}
	return c.inst.slots[i].(*T)
}

// slotValue converts a stored slot back to T. A nil interface value
// stored for an interface T comes back as the zero T.
func slotValue[T any](v any) T {
	t, _ := v.(T)
	return t
}

func (inst *instance) markDirty() {
	inst.dirty = true
	inst.r.dirty.Add(inst)
	inst.r.dispatch(inst.r.current)
}
