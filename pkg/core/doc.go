// Package core implements a time-sliced, keyed reconciler for trees of
// host nodes.
//
// An Element is an immutable description of one desired node: a host tag,
// a text node, inline markup, a fragment or a component. A Renderer turns
// successive element trees into host mutations through a host.Adapter.
//
// # Fibers
//
// The Renderer keeps two trees of Fibers. The current tree mirrors what the
// host shows; the work-in-progress tree is built from the latest elements,
// each fiber pointing at its current counterpart through Alternate. Diffing
// happens one fiber per unit of work, and the walk yields to the
// idle.Scheduler between units whenever the slice is nearly spent.
//
// When the walk completes, commit applies every tagged effect in one
// uninterrupted pass and swaps the trees:
//
//	INSERT  place a new node after its anchor
//	UPDATE  patch attributes, listeners or text in place
//	MOVE    reposition a reused node after its anchor
//	SAVE    keep a reused subtree untouched
//
// Keyed children keep their host nodes across reorders, so a permutation
// of keyed siblings costs only moves.
//
// # Components and state
//
// A component is a ComponentFunc. It reads local state with UseState and
// shared state with Watch:
//
//	var todos = core.NewGlobal(r, "todos", []string{})
//
//	func List(ctx *core.Context, props core.Props) *core.Element {
//	    items := core.Watch(ctx, todos)
//	    var rows []*core.Element
//	    for _, it := range items {
//	        rows = append(rows, core.Tag("li", nil, it).WithKey(it))
//	    }
//	    return core.Tag("ul", nil, rows)
//	}
//
// Setting state marks the component dirty and restarts reconciliation from
// the root. A panic in a component aborts the pass and leaves the current
// tree and the host untouched; the error is available from Renderer.Err.
package core
