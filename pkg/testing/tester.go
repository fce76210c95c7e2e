package testing

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/host"
	"github.com/go-drift/loom/pkg/idle"
)

// DefaultMaxSlices bounds PumpAndSettle when no limit is given.
const DefaultMaxSlices = 10000

var (
	// ErrSettleTimeout is returned when PumpAndSettle exceeds its slice limit.
	ErrSettleTimeout = errors.New("PumpAndSettle timed out: renderer did not settle")
	// ErrNoListener is returned by Dispatch when the node has no listener
	// for the event.
	ErrNoListener = errors.New("no listener bound for event")
)

// RenderTester renders into an in-memory host with a manually driven
// scheduler, so every slice and commit is under test control.
type RenderTester struct {
	host     *host.Memory
	sched    *idle.Manual
	renderer *core.Renderer
	clock    *FakeClock
	slice    func() idle.Deadline
	commits  []*core.CommitRecord
	errs     []error
}

// TesterOption configures a RenderTester.
type TesterOption func(*RenderTester)

// WithUnits makes every slice perform n units of work.
func WithUnits(n int) TesterOption {
	return func(t *RenderTester) {
		t.slice = func() idle.Deadline { return idle.Units(n) }
	}
}

// WithBudget makes every slice last budget on the tester's fake clock.
// The clock does not advance by itself; components advance it to model
// slow work.
func WithBudget(budget time.Duration) TesterOption {
	return func(t *RenderTester) {
		t.slice = func() idle.Deadline { return t.clock.Deadline(budget) }
	}
}

// NewRenderTester creates a tester with an empty host.
// Call Cleanup() when done, or use NewRenderTesterWithT() instead.
func NewRenderTester(opts ...TesterOption) *RenderTester {
	t := &RenderTester{
		host:  host.NewMemory(),
		sched: idle.NewManual(),
		clock: NewFakeClock(),
		slice: func() idle.Deadline { return idle.Unlimited{} },
	}
	for _, opt := range opts {
		opt(t)
	}
	r, err := core.NewRenderer(t.host, t.host.Root(), t.sched, core.Options{
		OnCommit: func(rec *core.CommitRecord) { t.commits = append(t.commits, rec) },
		OnError:  func(err error) { t.errs = append(t.errs, err) },
	})
	if err != nil {
		panic(fmt.Sprintf("loomtest: %v", err))
	}
	t.renderer = r
	return t
}

// NewRenderTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewRenderTesterWithT(t *testing.T, opts ...TesterOption) *RenderTester {
	tester := NewRenderTester(opts...)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the rendered tree.
func (t *RenderTester) Cleanup() {
	t.renderer.Unmount()
}

// Host returns the in-memory host.
func (t *RenderTester) Host() *host.Memory { return t.host }

// Renderer returns the renderer under test.
func (t *RenderTester) Renderer() *core.Renderer { return t.renderer }

// Scheduler returns the manual scheduler driving the renderer.
func (t *RenderTester) Scheduler() *idle.Manual { return t.sched }

// Clock returns the fake clock used by WithBudget.
func (t *RenderTester) Clock() *FakeClock { return t.clock }

// Commits returns every commit record seen so far.
func (t *RenderTester) Commits() []*core.CommitRecord { return t.commits }

// Errors returns every error that aborted a pass.
func (t *RenderTester) Errors() []error { return t.errs }

// Render replaces the root's children and settles.
func (t *RenderTester) Render(children ...any) error {
	t.renderer.Render(children...)
	return t.PumpAndSettle(0)
}

// Pump runs the next scheduled slice, if any, and returns the error that
// aborted the most recent pass.
func (t *RenderTester) Pump() error {
	t.sched.RunNext(t.slice())
	return t.renderer.Err()
}

// PumpAndSettle runs slices until nothing is scheduled. It returns
// ErrSettleTimeout after maxSlices slices; zero selects DefaultMaxSlices.
func (t *RenderTester) PumpAndSettle(maxSlices int) error {
	if maxSlices <= 0 {
		maxSlices = DefaultMaxSlices
	}
	for i := 0; i < maxSlices; i++ {
		if t.sched.Pending() == 0 {
			return t.renderer.Err()
		}
		if err := t.Pump(); err != nil {
			return err
		}
	}
	if t.sched.Pending() == 0 {
		return t.renderer.Err()
	}
	return ErrSettleTimeout
}

// Find evaluates a finder against the host tree.
func (t *RenderTester) Find(finder Finder) FinderResult {
	return FinderResult{
		nodes:  finder.Evaluate(t.host.Root()),
		finder: finder,
	}
}

// Dispatch fires event with payload on the first node finder matches.
// Work scheduled by the listener is not run; call Pump or PumpAndSettle.
func (t *RenderTester) Dispatch(finder Finder, event string, payload any) error {
	n := t.Find(finder).FirstOrNil()
	if n == nil {
		return fmt.Errorf("dispatch %s: no node matching %s", event, finder.Description())
	}
	if !t.host.Dispatch(n, event, payload) {
		return fmt.Errorf("dispatch %s on %s: %w", event, finder.Description(), ErrNoListener)
	}
	return nil
}
