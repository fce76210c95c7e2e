package core

import (
	"reflect"
	"strings"

	"github.com/go-drift/loom/pkg/host"
)

// EffectRecord describes one effect applied by a commit.
type EffectRecord struct {
	Effect EffectTag
	Fiber  string
	Anchor string
}

// CommitRecord summarizes one commit.
type CommitRecord struct {
	Stats   Stats
	Effects []EffectRecord
	Deleted []string
}

// commit applies the work-in-progress tree to the host in one pass and
// makes it the current tree. It never yields.
func (r *Renderer) commit() {
	if r.scheduled {
		r.sched.CancelIdle(r.token)
		r.scheduled = false
	}
	rec := &CommitRecord{}

	walk(r.wip, func(f *Fiber) bool {
		if f != r.wip {
			r.commitFiber(f, rec)
		}
		return !f.skipSubtree
	})

	for _, d := range r.deletes {
		rec.Deleted = append(rec.Deleted, d.String())
		r.stats.Deletes++
		r.commitDeletion(d)
	}

	r.syncSubscriptions()
	r.finalize(r.wip)

	rec.Stats = r.stats
	r.current = r.wip
	r.wip = nil
	r.next = nil
	r.path = r.path[:0]
	r.deletes = nil
	r.rendered = nil
	r.err = nil
	r.last = rec
	if r.opts.OnCommit != nil {
		r.opts.OnCommit(rec)
	}
}

func (r *Renderer) commitFiber(f *Fiber, rec *CommitRecord) {
	if f.effect != EffectNone {
		er := EffectRecord{Effect: f.effect, Fiber: f.String()}
		if f.anchor != nil {
			er.Anchor = f.anchor.String()
		}
		rec.Effects = append(rec.Effects, er)
	}

	switch f.effect {
	case EffectInsert:
		r.stats.Inserts++
		r.place(f)
	case EffectMove:
		r.stats.Moves++
		r.place(f)
		if !f.skipSubtree {
			r.update(f)
		}
	case EffectUpdate:
		r.stats.Updates++
		r.update(f)
	case EffectSave:
		r.stats.Saves++
	}
}

// place inserts or moves the host node(s) of f right after its anchor.
func (r *Renderer) place(f *Fiber) {
	if f.mounted {
		return
	}
	parent := hostParent(f)
	if parent == nil {
		return
	}
	var nodes []host.Handle
	if f.Kind.hasHostNode() {
		r.ensureNode(f)
		nodes = append(nodes, f.node)
	} else {
		for _, d := range hostChildren(f) {
			if d.mounted {
				continue
			}
			r.ensureNode(d)
			d.mounted = true
			nodes = append(nodes, d.node)
		}
	}
	f.mounted = true

	var before host.Handle
	if f.anchor != nil {
		if a := lastHostNode(f.anchor); a != nil {
			before = r.host.NextSibling(a)
		} else {
			before = r.host.FirstChild(parent.node)
		}
	} else {
		before = r.host.FirstChild(parent.node)
	}
	for _, n := range nodes {
		// Already in position: step past it instead of re-inserting.
		if before != nil && before == n {
			before = r.host.NextSibling(n)
			continue
		}
		r.host.InsertBefore(parent.node, n, before)
	}
}

// ensureNode creates the host node of a host-tagged fiber recorded as
// pending during diffing, with its initial attributes and listeners.
func (r *Renderer) ensureNode(f *Fiber) {
	if f.Kind != KindHost || f.node != nil {
		return
	}
	f.node = r.host.CreateElement(f.Tag)
	f.listeners = newListenerTable()
	f.pendingCreate = false
	f.props.resolve()
	for _, a := range f.props.attrs {
		if a.Value.IsHandler() {
			r.setListener(f, a.Name, a.Value.Listener(), false)
			continue
		}
		if v, ok := hostValue(a.Value.literal); ok {
			r.host.SetAttribute(f.node, a.Name, v)
		}
	}
}

// update patches a reused host node from its alternate's props.
func (r *Renderer) update(f *Fiber) {
	alt := f.alternate
	if alt == nil {
		return
	}
	switch f.Kind {
	case KindText:
		if v := f.text(); v != alt.text() {
			r.host.SetText(f.node, v)
		}
	case KindInline:
		if v := f.text(); v != alt.text() {
			f.node = r.host.SetInline(f.node, v)
		}
	case KindHost:
		if f.node == nil {
			r.ensureNode(f)
			return
		}
		r.updateAttrs(f, alt)
	}
}

func (r *Renderer) updateAttrs(f, alt *Fiber) {
	f.props.resolve()
	if f.listeners == nil {
		f.listeners = newListenerTable()
	}

	next := make(map[string]Value, len(f.props.attrs))
	for _, a := range f.props.attrs {
		next[a.Name] = a.Value
	}

	for _, a := range alt.props.attrs {
		nv, ok := next[a.Name]
		if a.Value.IsHandler() {
			if !ok || !nv.IsHandler() {
				r.removeListener(f, a.Name)
			}
			continue
		}
		_, had := hostValue(a.Value.literal)
		if !had {
			continue
		}
		if !ok || nv.IsHandler() {
			r.host.RemoveAttribute(f.node, a.Name)
			continue
		}
		if _, has := hostValue(nv.literal); !has {
			r.host.RemoveAttribute(f.node, a.Name)
		}
	}

	prev := make(map[string]Value, len(alt.props.attrs))
	for _, a := range alt.props.attrs {
		prev[a.Name] = a.Value
	}
	for _, a := range f.props.attrs {
		pv, existed := prev[a.Name]
		if a.Value.IsHandler() {
			r.setListener(f, a.Name, a.Value.Listener(), existed && pv.IsHandler())
			continue
		}
		v, ok := hostValue(a.Value.literal)
		if !ok {
			continue
		}
		if existed && !pv.IsHandler() {
			if old, had := hostValue(pv.literal); had && reflect.DeepEqual(old, v) {
				continue
			}
		}
		r.host.SetAttribute(f.node, a.Name, v)
	}
}

// setListener records fn for the event named by attr and binds the host
// trampoline unless one is bound already.
func (r *Renderer) setListener(f *Fiber, attr string, fn host.Listener, bound bool) {
	event := strings.TrimPrefix(attr, "on")
	f.listeners.handlers[event] = fn
	if !bound {
		r.host.BindListener(f.node, event, f.listeners.trampoline(event))
	}
}

func (r *Renderer) removeListener(f *Fiber, attr string) {
	event := strings.TrimPrefix(attr, "on")
	delete(f.listeners.handlers, event)
	r.host.UnbindListener(f.node, event)
}

// commitDeletion unsubscribes every component under d and removes the
// host nodes d owns. A subtree with nothing mounted is a no-op.
func (r *Renderer) commitDeletion(d *Fiber) {
	walk(d, func(f *Fiber) bool {
		if f.inst != nil {
			r.unsubscribeAll(f.inst)
			f.inst.dead = true
			r.dirty.Remove(f.inst)
		}
		return true
	})

	parent := hostParent(d)
	if parent == nil || parent.node == nil {
		return
	}
	if d.Kind.hasHostNode() {
		if d.node != nil {
			r.host.RemoveChild(parent.node, d.node)
		}
		return
	}
	for _, c := range hostChildren(d) {
		if c.node != nil {
			r.host.RemoveChild(parent.node, c.node)
		}
	}
}

// finalize clears per-pass bookkeeping on the new current tree and cuts
// the link from the previous generation to the one before it.
func (r *Renderer) finalize(root *Fiber) {
	walk(root, func(f *Fiber) bool {
		f.effect = EffectNone
		f.anchor = nil
		f.mounted = false
		f.skipSubtree = false
		if f.inst != nil {
			f.inst.fiber = f
		}
		if f.alternate != nil {
			f.alternate.alternate = nil
		}
		return true
	})
}
