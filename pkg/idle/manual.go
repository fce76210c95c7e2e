package idle

import "slices"

type request struct {
	tok Token
	cb  Callback
}

// Manual is a Scheduler driven explicitly by the caller. Nothing runs
// until RunNext or RunUntilIdle is called, which makes slicing fully
// deterministic.
type Manual struct {
	queue []request
	next  Token
	ran   int
}

var _ Scheduler = (*Manual)(nil)

// NewManual returns an empty Manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// RequestIdle implements Scheduler.
func (m *Manual) RequestIdle(cb Callback) Token {
	m.next++
	m.queue = append(m.queue, request{tok: m.next, cb: cb})
	return m.next
}

// CancelIdle implements Scheduler.
func (m *Manual) CancelIdle(tok Token) {
	m.queue = slices.DeleteFunc(m.queue, func(r request) bool {
		return r.tok == tok
	})
}

// Pending returns the number of queued callbacks.
func (m *Manual) Pending() int {
	return len(m.queue)
}

// Ran returns the number of callbacks run so far.
func (m *Manual) Ran() int {
	return m.ran
}

// RunNext runs the oldest queued callback with d. It reports whether a
// callback was run.
func (m *Manual) RunNext(d Deadline) bool {
	if len(m.queue) == 0 {
		return false
	}
	r := m.queue[0]
	m.queue = m.queue[1:]
	m.ran++
	r.cb(d)
	return true
}

// RunUntilIdle runs callbacks, each with a fresh deadline from slice, until
// the queue is empty. It returns the number of callbacks run.
func (m *Manual) RunUntilIdle(slice func() Deadline) int {
	n := 0
	for m.RunNext(slice()) {
		n++
	}
	return n
}
