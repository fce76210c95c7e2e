package core

import (
	"fmt"

	loomerrors "github.com/go-drift/loom/pkg/errors"
)

// reconcileChildren diffs the new element list against the child chain of
// parent's alternate and links the resulting fibers under parent, each
// tagged with the effect commit must apply. Old fibers that match nothing
// are queued for deletion.
//
// Matching state ("consumed by an earlier match", "reserved for a later
// element") lives in this call only, so the current tree is never written
// and an abandoned pass leaves nothing behind.
func (r *Renderer) reconcileChildren(parent *Fiber, elements []*Element) {
	if len(elements) == 0 {
		elements = []*Element{Text("")}
	}
	if DebugMode {
		warnDuplicateKeys(parent, elements)
	}

	var old *Fiber
	if parent.alternate != nil {
		old = parent.alternate.child
	}

	var (
		consumed map[*Fiber]bool
		reserved map[int]*Fiber
		prev     *Fiber
	)
	parent.child = nil
	link := func(f *Fiber) {
		if prev == nil {
			parent.child = f
		} else {
			prev.sibling = f
		}
		prev = f
	}

	for i := 0; ; {
		var el *Element
		if i < len(elements) {
			el = elements[i]
		}

		// An old fiber set aside by an earlier step is placed after the
		// previous sibling.
		if el != nil {
			if alt, ok := reserved[i]; ok {
				f := r.reuseKeyed(alt, parent, el, EffectMove)
				if f == nil {
					f = r.newFiber(el, parent)
					r.deletes = append(r.deletes, alt)
				}
				f.anchor = prev
				link(f)
				i++
				continue
			}
		}

		if old != nil && consumed[old] {
			old = old.sibling
			continue
		}

		if old == nil {
			if el == nil {
				break
			}
			f := r.newFiber(el, parent)
			f.anchor = prev
			link(f)
			i++
			continue
		}

		if el == nil {
			r.deletes = append(r.deletes, old)
			old = old.sibling
			continue
		}

		var f *Fiber
		oldKeyed, newKeyed := old.key != nil, el.Key != nil
		switch {
		case oldKeyed && newKeyed && old.key == el.Key:
			f = r.reuseKeyed(old, parent, el, EffectSave)
			if f == nil {
				f = r.newFiber(el, parent)
				f.anchor = old
				r.deletes = append(r.deletes, old)
			}

		case oldKeyed || newKeyed:
			var found *Fiber
			if newKeyed {
				found = findSibling(old.sibling, el.Key, consumed)
			}
			later := -1
			if oldKeyed {
				later = findElement(elements, i+1, old.key, reserved)
			}

			if found != nil {
				if consumed == nil {
					consumed = make(map[*Fiber]bool)
				}
				consumed[found] = true
				f = r.reuseKeyed(found, parent, el, EffectMove)
				if f == nil {
					f = r.newFiber(el, parent)
					r.deletes = append(r.deletes, found)
				}
			} else {
				f = r.newFiber(el, parent)
			}
			f.anchor = old

			if later >= 0 {
				if reserved == nil {
					reserved = make(map[int]*Fiber)
				}
				reserved[later] = old
			} else {
				r.deletes = append(r.deletes, old)
			}

		default:
			if old.sameType(el) {
				f = old.cloneFor(parent, el.Props.clone())
				f.effect = EffectUpdate
			} else {
				f = r.newFiber(el, parent)
				f.anchor = old
				r.deletes = append(r.deletes, old)
			}
		}

		link(f)
		old = old.sibling
		i++
	}
}

// reuseKeyed clones old for a key match. It returns nil when the element
// has a different type, in which case the caller must create a fresh
// fiber and delete old. An unchanged subtree with no pending state is
// reused verbatim with tag; otherwise it is re-diffed, as UPDATE when it
// stays in place and as MOVE when it moves.
func (r *Renderer) reuseKeyed(old, parent *Fiber, el *Element, tag EffectTag) *Fiber {
	if !old.sameType(el) {
		return nil
	}
	if old.props.equal(el.Props) && !r.dirtyPath[old] {
		f := old.cloneTree(parent)
		f.effect = tag
		return f
	}
	f := old.cloneFor(parent, el.Props.clone())
	if tag == EffectSave {
		f.effect = EffectUpdate
	} else {
		f.effect = EffectMove
	}
	return f
}

// findSibling returns the first unconsumed fiber from f on carrying key.
func findSibling(f *Fiber, key any, consumed map[*Fiber]bool) *Fiber {
	for ; f != nil; f = f.sibling {
		if f.key == key && !consumed[f] {
			return f
		}
	}
	return nil
}

// findElement returns the index of the first unreserved element from start
// on carrying key, or -1.
func findElement(elements []*Element, start int, key any, reserved map[int]*Fiber) int {
	for i := start; i < len(elements); i++ {
		if elements[i].Key == key {
			if _, taken := reserved[i]; !taken {
				return i
			}
		}
	}
	return -1
}

func warnDuplicateKeys(parent *Fiber, elements []*Element) {
	seen := make(map[any]bool, len(elements))
	for _, el := range elements {
		if el.Key == nil {
			continue
		}
		if seen[el.Key] {
			loomerrors.Warn("core.reconcileChildren",
				fmt.Sprintf("duplicate key %v under %s; the first occurrence wins", el.Key, parent.path()))
			continue
		}
		seen[el.Key] = true
	}
}
