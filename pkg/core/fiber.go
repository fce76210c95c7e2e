package core

import (
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/go-drift/loom/pkg/host"
)

// EffectTag classifies what commit must do for a fiber.
type EffectTag uint8

const (
	// EffectNone means the fiber needs no host work.
	EffectNone EffectTag = iota
	// EffectInsert places a new host node (or group of nodes) after the anchor.
	EffectInsert
	// EffectUpdate patches a reused host node in place.
	EffectUpdate
	// EffectMove repositions a reused host node (or group) after the anchor.
	EffectMove
	// EffectSave keeps a reused subtree exactly where it is.
	EffectSave
)

func (t EffectTag) String() string {
	switch t {
	case EffectInsert:
		return "INSERT"
	case EffectUpdate:
		return "UPDATE"
	case EffectMove:
		return "MOVE"
	case EffectSave:
		return "SAVE"
	default:
		return "NONE"
	}
}

// Fiber is the mutable unit of reconciliation work, one per rendered node.
// A fiber in the work-in-progress tree points at its counterpart in the
// current tree through its alternate.
type Fiber struct {
	Kind Kind
	Tag  string
	fn   ComponentFunc
	key  any

	props Props

	parent    *Fiber
	child     *Fiber
	sibling   *Fiber
	alternate *Fiber

	node      host.Handle
	listeners *listenerTable

	effect        EffectTag
	anchor        *Fiber
	mounted       bool
	skipSubtree   bool
	pendingCreate bool

	inst *instance
}

// Key returns the key of the element that produced f.
func (f *Fiber) Key() any { return f.key }

// Props returns the props f was last rendered with.
func (f *Fiber) Props() Props { return f.props }

// Parent returns the parent fiber.
func (f *Fiber) Parent() *Fiber { return f.parent }

// Child returns the first child fiber.
func (f *Fiber) Child() *Fiber { return f.child }

// Sibling returns the next sibling fiber.
func (f *Fiber) Sibling() *Fiber { return f.sibling }

// Alternate returns the counterpart of f in the other tree generation.
func (f *Fiber) Alternate() *Fiber { return f.alternate }

// Node returns the host node owned by f, if any.
func (f *Fiber) Node() host.Handle { return f.node }

// Effect returns the pending effect tag.
func (f *Fiber) Effect() EffectTag { return f.effect }

// Anchor returns the fiber after which an INSERT or MOVE is placed.
func (f *Fiber) Anchor() *Fiber { return f.anchor }

// Children returns the child fibers in order.
func (f *Fiber) Children() []*Fiber {
	var out []*Fiber
	for c := f.child; c != nil; c = c.sibling {
		out = append(out, c)
	}
	return out
}

func (f *Fiber) String() string {
	var sb strings.Builder
	sb.WriteString(describe(f.Kind, f.Tag, f.fn))
	if f.key != nil {
		fmt.Fprintf(&sb, "#%v", f.key)
	}
	return sb.String()
}

// path describes the chain from the root to f.
func (f *Fiber) path() string {
	var parts []string
	for p := f; p != nil; p = p.parent {
		parts = append(parts, p.String())
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// text returns the content of a text or inline fiber.
func (f *Fiber) text() string {
	switch f.Kind {
	case KindText:
		return f.props.String(textProp)
	case KindInline:
		return f.props.String(inlineProp)
	}
	return ""
}

// newFiber creates a fiber for an element that has no matching alternate.
func (r *Renderer) newFiber(e *Element, parent *Fiber) *Fiber {
	f := &Fiber{
		Kind:   e.Kind,
		Tag:    e.Tag,
		fn:     e.Fn,
		key:    e.Key,
		props:  e.Props.clone(),
		parent: parent,
		effect: EffectInsert,
	}
	if f.Kind == KindComponent {
		f.inst = newInstance(r)
	}
	return f
}

// cloneFor creates the work-in-progress counterpart of f with new props.
// Host node, listener table and component instance carry over.
func (f *Fiber) cloneFor(parent *Fiber, props Props) *Fiber {
	return &Fiber{
		Kind:      f.Kind,
		Tag:       f.Tag,
		fn:        f.fn,
		key:       f.key,
		props:     props,
		parent:    parent,
		alternate: f,
		node:      f.node,
		listeners: f.listeners,
		inst:      f.inst,
	}
}

// cloneTree clones f and its whole subtree unchanged, re-parented under
// parent. The clone is marked to be skipped by the walk and by commit.
func (f *Fiber) cloneTree(parent *Fiber) *Fiber {
	root := f.cloneFor(parent, f.props)
	root.skipSubtree = true
	type pair struct{ src, dst *Fiber }
	stack := []pair{{f, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		var prev *Fiber
		for c := p.src.child; c != nil; c = c.sibling {
			cc := c.cloneFor(p.dst, c.props)
			if prev == nil {
				p.dst.child = cc
			} else {
				prev.sibling = cc
			}
			prev = cc
			stack = append(stack, pair{c, cc})
		}
	}
	return root
}

// walk visits the subtree rooted at f in document order using an explicit
// stack. Children of a fiber are visited only if visit returns true.
func walk(f *Fiber, visit func(*Fiber) bool) {
	stack := []*Fiber{f}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur) {
			continue
		}
		n := len(stack)
		for c := cur.child; c != nil; c = c.sibling {
			stack = append(stack, c)
		}
		slices.Reverse(stack[n:])
	}
}

// hostChildren returns the closest descendants of f that own host nodes,
// in document order.
func hostChildren(f *Fiber) []*Fiber {
	var out []*Fiber
	walk(f, func(c *Fiber) bool {
		if c == f {
			return true
		}
		if c.Kind.hasHostNode() {
			out = append(out, c)
			return false
		}
		return true
	})
	return out
}

// hostParent returns the nearest ancestor of f that owns a host node.
func hostParent(f *Fiber) *Fiber {
	p := f.parent
	for p != nil && !p.Kind.hasHostNode() {
		p = p.parent
	}
	return p
}

// lastHostNode resolves f to the host node an insertion after f should
// follow: its own node, or the last node among its host descendants.
func lastHostNode(f *Fiber) host.Handle {
	if f.Kind.hasHostNode() {
		return f.node
	}
	desc := hostChildren(f)
	for i := len(desc) - 1; i >= 0; i-- {
		if desc[i].node != nil {
			return desc[i].node
		}
	}
	return nil
}

// listenerTable holds the current handler per event for one host node.
// The host is bound once per event to a trampoline reading this table, so
// replacing a handler costs no host call.
type listenerTable struct {
	handlers map[string]host.Listener
}

func newListenerTable() *listenerTable {
	return &listenerTable{handlers: make(map[string]host.Listener)}
}

func (t *listenerTable) trampoline(event string) host.Listener {
	return func(ev any) {
		if fn := t.handlers[event]; fn != nil {
			fn(ev)
		}
	}
}

// instance is the identity of a component across tree generations. It is
// shared by a component fiber and all clones made from it.
type instance struct {
	r      *Renderer
	slots  []any
	cursor int
	dirty  bool
	dead   bool
	// fiber is the committed fiber rendering this instance.
	fiber *Fiber

	// watching is rebuilt on every render; subscriptions is what the
	// registry holds after the last commit.
	watching      mapset.Set[*globalCore]
	subscriptions mapset.Set[*globalCore]
}

func newInstance(r *Renderer) *instance {
	return &instance{
		r:             r,
		watching:      mapset.NewThreadUnsafeSet[*globalCore](),
		subscriptions: mapset.NewThreadUnsafeSet[*globalCore](),
	}
}
