package idle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	loomerrors "github.com/go-drift/loom/pkg/errors"
)

// ErrLoopClosed is returned when work is submitted to a closed loop.
var ErrLoopClosed = errors.New("idle: loop is closed")

// DefaultBudget is the slice length used when none is configured.
const DefaultBudget = 5 * time.Millisecond

// Loop is a single-goroutine event loop. Submitted tasks run first, in
// order; idle callbacks run one per turn, only when no task is waiting,
// each with a deadline of Budget from the moment it starts.
//
// All callbacks run on the goroutine that called Run, so code driven by a
// Loop never needs locks of its own.
type Loop struct {
	budget  time.Duration
	now     func() time.Time
	onSlice func(time.Duration)

	mu      sync.Mutex
	tasks   []func()
	idle    []request
	waiters []chan error
	next    Token
	closed  bool
	wake    chan struct{}
}

var _ Scheduler = (*Loop)(nil)

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock makes the loop measure deadlines with now.
func WithClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

// WithSliceObserver registers fn to receive the duration of every idle slice.
func WithSliceObserver(fn func(time.Duration)) LoopOption {
	return func(l *Loop) { l.onSlice = fn }
}

// NewLoop creates a loop whose idle slices last budget.
// A non-positive budget selects DefaultBudget.
func NewLoop(budget time.Duration, opts ...LoopOption) *Loop {
	if budget <= 0 {
		budget = DefaultBudget
	}
	l := &Loop{
		budget: budget,
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Budget returns the configured slice length.
func (l *Loop) Budget() time.Duration { return l.budget }

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Submit queues fn to run on the loop goroutine ahead of idle work.
func (l *Loop) Submit(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
	return nil
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Submit(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestIdle implements Scheduler. Requests made after Close are dropped
// and return the zero Token.
func (l *Loop) RequestIdle(cb Callback) Token {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0
	}
	l.next++
	tok := l.next
	l.idle = append(l.idle, request{tok: tok, cb: cb})
	l.mu.Unlock()
	l.signal()
	return tok
}

// CancelIdle implements Scheduler.
func (l *Loop) CancelIdle(tok Token) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, r := range l.idle {
		if r.tok == tok {
			l.idle = append(l.idle[:i], l.idle[i+1:]...)
			return
		}
	}
}

// Drain blocks until the loop has no tasks and no idle callbacks queued.
// It returns ErrLoopClosed if the loop is closed before that happens.
func (l *Loop) Drain(ctx context.Context) error {
	ch := make(chan error, 1)
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.waiters = append(l.waiters, ch)
	l.mu.Unlock()
	l.signal()
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop after the current callback. Pending work is dropped
// and reported to the errors handler.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	tasks, callbacks := len(l.tasks), len(l.idle)
	l.tasks = nil
	l.idle = nil
	for _, w := range l.waiters {
		w <- ErrLoopClosed
	}
	l.waiters = nil
	l.mu.Unlock()
	l.signal()

	if tasks > 0 || callbacks > 0 {
		loomerrors.Report(&loomerrors.LoomError{
			Op:   "idle.Loop.Close",
			Kind: loomerrors.KindSchedule,
			Err:  fmt.Errorf("%w: dropped %d tasks and %d idle callbacks", ErrLoopClosed, tasks, callbacks),
		})
	}
}

// Run processes work until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		task, cb, closed := l.take()
		if closed {
			return nil
		}
		switch {
		case task != nil:
			l.runTask(task)
			continue
		case cb != nil:
			l.runIdle(cb)
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) take() (func(), Callback, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, nil, true
	}
	if len(l.tasks) > 0 {
		t := l.tasks[0]
		l.tasks = l.tasks[1:]
		return t, nil, false
	}
	if len(l.idle) > 0 {
		r := l.idle[0]
		l.idle = l.idle[1:]
		return nil, r.cb, false
	}
	for _, w := range l.waiters {
		w <- nil
	}
	l.waiters = nil
	return nil, nil, false
}

func (l *Loop) runTask(task func()) {
	defer loomerrors.Recover("idle.Loop.task")
	task()
}

// runIdle runs one idle slice. The observer sees every slice, including
// one cut short by a panic.
func (l *Loop) runIdle(cb Callback) {
	start := l.now()
	defer loomerrors.RecoverWithCallback("idle.Loop.idle", func(any) { l.observe(start) })
	cb(Until(l.now, start.Add(l.budget)))
	l.observe(start)
}

func (l *Loop) observe(start time.Time) {
	if l.onSlice != nil {
		l.onSlice(l.now().Sub(start))
	}
}
