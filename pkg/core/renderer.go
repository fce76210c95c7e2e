package core

import (
	"errors"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	loomerrors "github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/host"
	"github.com/go-drift/loom/pkg/idle"
)

// ErrNoHost is returned by NewRenderer when no adapter or container is given.
var ErrNoHost = errors.New("core: renderer needs a host adapter and a container node")

// DefaultMinRemaining is the slice time below which the walk yields.
const DefaultMinRemaining = time.Millisecond

// Options configures a Renderer.
type Options struct {
	// MinRemaining is the time that must be left in a slice to start
	// another unit. Zero selects DefaultMinRemaining.
	MinRemaining time.Duration
	// OnCommit, if set, receives a record of every commit.
	OnCommit func(*CommitRecord)
	// OnError, if set, receives errors that abort a pass.
	OnError func(error)
}

// Stats counts the work of one pass.
type Stats struct {
	Units   int
	Slices  int
	Inserts int
	Updates int
	Moves   int
	Saves   int
	Deletes int
}

// Renderer owns one fiber tree rendered into one host container. It holds
// all scheduler state: the current tree, the work-in-progress tree, the
// walk position and the global state registry.
//
// A Renderer is not safe for concurrent use. All calls, including state
// setters, must happen on the thread that drives its Scheduler.
type Renderer struct {
	host  host.Adapter
	sched idle.Scheduler
	opts  Options

	current  *Fiber
	wip      *Fiber
	next     *Fiber
	path     []*Fiber
	children []*Element

	token     idle.Token
	scheduled bool
	// pass changes on every dispatch so a render that triggered a restart
	// can tell its fiber was detached.
	pass uint64

	deletes  []*Fiber
	rendered []*instance
	stats    Stats

	registry map[*globalCore]mapset.Set[*instance]

	// dirty holds instances with pending state. dirtyPath marks every
	// committed fiber on the path from the root to one of them.
	dirty     mapset.Set[*instance]
	dirtyPath map[*Fiber]bool

	last *CommitRecord
	err  error
}

// NewRenderer creates a renderer drawing into container through adapter,
// with reconciliation spread over sched's idle callbacks.
func NewRenderer(adapter host.Adapter, container host.Handle, sched idle.Scheduler, opts Options) (*Renderer, error) {
	if adapter == nil || container == nil {
		return nil, ErrNoHost
	}
	if sched == nil {
		sched = idle.NewManual()
	}
	if opts.MinRemaining <= 0 {
		opts.MinRemaining = DefaultMinRemaining
	}
	r := &Renderer{
		host:     adapter,
		sched:    sched,
		opts:     opts,
		registry:  make(map[*globalCore]mapset.Set[*instance]),
		dirty:     mapset.NewThreadUnsafeSet[*instance](),
		dirtyPath: make(map[*Fiber]bool),
	}
	r.current = &Fiber{Kind: KindRoot, node: container}
	return r, nil
}

// Render replaces the root's children and schedules a pass.
func (r *Renderer) Render(children ...any) {
	r.children = Normalize(children...)
	r.dispatch(r.current)
}

// Current returns the root of the last committed tree.
func (r *Renderer) Current() *Fiber { return r.current }

// Pending reports whether a pass is in flight.
func (r *Renderer) Pending() bool { return r.wip != nil }

// Err returns the error that aborted the most recent pass, or nil if the
// most recent pass committed.
func (r *Renderer) Err() error { return r.err }

// LastCommit returns the record of the most recent commit.
func (r *Renderer) LastCommit() *CommitRecord { return r.last }

// Flush runs any in-flight pass to completion in the calling goroutine,
// bypassing the scheduler.
func (r *Renderer) Flush() {
	for r.wip != nil {
		if r.scheduled {
			r.sched.CancelIdle(r.token)
			r.scheduled = false
		}
		r.run(idle.Unlimited{})
	}
}

// dispatch starts or restarts a pass for the tree containing f. The walk
// always starts at the tree root, so restarting never loses an update
// requested elsewhere in the tree.
func (r *Renderer) dispatch(f *Fiber) {
	if f == nil {
		return
	}
	if r.wip == nil {
		r.wip = r.current.cloneFor(nil, Props{})
	} else if r.scheduled {
		r.sched.CancelIdle(r.token)
		r.scheduled = false
	}
	r.wip.props = Props{Children: r.children}
	r.wip.child = nil
	r.deletes = nil
	r.rendered = nil
	r.stats = Stats{}
	r.next = r.wip
	r.path = r.path[:0]
	r.pass++
	r.markDirtyPaths()
	r.schedule()
}

// markDirtyPaths rebuilds dirtyPath from the committed fibers of the dirty
// instances, so a keyed match can tell in constant time whether its subtree
// holds pending state.
func (r *Renderer) markDirtyPaths() {
	clear(r.dirtyPath)
	for inst := range r.dirty.Iter() {
		for f := inst.fiber; f != nil && !r.dirtyPath[f]; f = f.parent {
			r.dirtyPath[f] = true
		}
	}
}

func (r *Renderer) schedule() {
	r.token = r.sched.RequestIdle(r.run)
	r.scheduled = true
}

// run performs units until the slice is spent or the walk completes, in
// which case it commits.
func (r *Renderer) run(d idle.Deadline) {
	r.scheduled = false
	if r.wip == nil {
		return
	}
	r.stats.Slices++
	for r.next != nil {
		unit := r.next
		if err := r.diffUnit(unit); err != nil {
			r.abort(err)
			return
		}
		r.stats.Units++
		// A state change during render restarts the walk; keep the new
		// position instead of advancing from the stale unit.
		if r.next != unit {
			continue
		}
		r.next = r.nextUnit(unit)
		if r.next != nil && d.TimeRemaining() < r.opts.MinRemaining {
			break
		}
	}
	if r.next != nil {
		if !r.scheduled {
			r.schedule()
		}
		return
	}
	r.commit()
}

// nextUnit returns the unit after f in depth-first pre-order. The
// ancestors of the returned unit are kept on r.path so the walk can
// resume in a later slice.
func (r *Renderer) nextUnit(f *Fiber) *Fiber {
	if f.child != nil && !f.skipSubtree {
		r.path = append(r.path, f)
		return f.child
	}
	for {
		if f == r.wip {
			return nil
		}
		if f.sibling != nil {
			return f.sibling
		}
		if len(r.path) == 0 {
			return nil
		}
		f = r.path[len(r.path)-1]
		r.path = r.path[:len(r.path)-1]
	}
}

// abort discards the work-in-progress tree. The committed tree and host
// are untouched; dirty components stay dirty so the next pass retries.
func (r *Renderer) abort(err error) {
	if r.scheduled {
		r.sched.CancelIdle(r.token)
		r.scheduled = false
	}
	r.wip = nil
	r.next = nil
	r.path = r.path[:0]
	r.deletes = nil
	r.rendered = nil
	r.err = &loomerrors.LoomError{
		Op:        "core.Renderer.run",
		Kind:      loomerrors.KindReconcile,
		Err:       err,
		Timestamp: time.Now(),
	}
	if r.opts.OnError != nil {
		r.opts.OnError(r.err)
	}
}

// Unmount removes everything the renderer has committed and drops all
// subscriptions. Pending work is cancelled.
func (r *Renderer) Unmount() {
	if r.scheduled {
		r.sched.CancelIdle(r.token)
		r.scheduled = false
	}
	r.wip = nil
	r.next = nil
	r.path = r.path[:0]
	for c := r.current.child; c != nil; c = c.sibling {
		r.commitDeletion(c)
	}
	r.current = &Fiber{Kind: KindRoot, node: r.current.node}
	r.children = nil
	r.dirty.Clear()
	clear(r.dirtyPath)
}
