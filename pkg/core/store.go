package core

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// globalCore is the type-independent identity of a Global, used as the
// registry key.
type globalCore struct {
	r    *Renderer
	name string
}

// Global is state shared between components of one Renderer. Components
// read it with Watch, which subscribes them; Set and Update re-render
// every subscribed component.
type Global[T any] struct {
	core  *globalCore
	value T
}

// NewGlobal creates shared state owned by r.
func NewGlobal[T any](r *Renderer, name string, initial T) *Global[T] {
	return &Global[T]{core: &globalCore{r: r, name: name}, value: initial}
}

// Name returns the name given at creation.
func (g *Global[T]) Name() string { return g.core.name }

// Value returns the current value without subscribing.
func (g *Global[T]) Value() T { return g.value }

// Set stores v and schedules a pass if any component is subscribed.
func (g *Global[T]) Set(v T) {
	g.value = v
	g.core.r.notify(g.core)
}

// Update replaces the value with fn applied to it.
func (g *Global[T]) Update(fn func(T) T) {
	g.Set(fn(g.value))
}

// Subscribers returns the number of committed components watching g.
func (g *Global[T]) Subscribers() int {
	subs, ok := g.core.r.registry[g.core]
	if !ok {
		return 0
	}
	return subs.Cardinality()
}

// Watch returns the value of g and subscribes the rendering component.
// The subscription takes effect when the pass commits and is dropped when
// a later render no longer watches g or the component is deleted.
// g must belong to the Renderer doing the render.
func Watch[T any](c *Context, g *Global[T]) T {
	if c.done {
		panic("core: Watch used after render returned")
	}
	if g.core.r != c.r {
		panic(fmt.Sprintf("core: Watch of Global %q owned by another Renderer", g.core.name))
	}
	c.inst.watching.Add(g.core)
	return g.value
}

func (r *Renderer) notify(g *globalCore) {
	subs, ok := r.registry[g]
	if !ok || subs.Cardinality() == 0 {
		return
	}
	for inst := range subs.Iter() {
		inst.dirty = true
		r.dirty.Add(inst)
	}
	r.dispatch(r.current)
}

// syncSubscriptions applies, for every component rendered in this pass,
// the difference between what it watched and what the registry holds, and
// clears its dirty flag.
func (r *Renderer) syncSubscriptions() {
	for _, inst := range r.rendered {
		inst.dirty = false
		r.dirty.Remove(inst)
		if inst.dead {
			continue
		}
		for g := range inst.subscriptions.Difference(inst.watching).Iter() {
			r.unsubscribe(inst, g)
		}
		for g := range inst.watching.Difference(inst.subscriptions).Iter() {
			subs, ok := r.registry[g]
			if !ok {
				subs = mapset.NewThreadUnsafeSet[*instance]()
				r.registry[g] = subs
			}
			subs.Add(inst)
		}
		inst.subscriptions = inst.watching.Clone()
	}
}

func (r *Renderer) unsubscribe(inst *instance, g *globalCore) {
	if subs, ok := r.registry[g]; ok {
		subs.Remove(inst)
		if subs.Cardinality() == 0 {
			delete(r.registry, g)
		}
	}
}

// unsubscribeAll removes inst from every registry entry it holds.
func (r *Renderer) unsubscribeAll(inst *instance) {
	for g := range inst.subscriptions.Iter() {
		r.unsubscribe(inst, g)
	}
	inst.subscriptions.Clear()
}
