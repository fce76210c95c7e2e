// Package idle provides the low-priority yield-point primitive the
// reconciler uses to spread work across time slices.
//
// A Scheduler runs a Callback when the host has spare time, handing it a
// Deadline that reports how much of the current slice remains. Requests
// can be cancelled with the Token returned by RequestIdle.
package idle

import (
	"math"
	"time"
)

// Deadline reports the time left in the current slice.
type Deadline interface {
	TimeRemaining() time.Duration
}

// Callback is invoked by a Scheduler during idle time.
type Callback func(Deadline)

// Token identifies a pending request. The zero Token is never issued.
type Token uint64

// Scheduler is the host-provided yield-point primitive.
type Scheduler interface {
	// RequestIdle queues cb and returns a token that can cancel it.
	RequestIdle(cb Callback) Token
	// CancelIdle drops a pending request. Unknown or spent tokens are ignored.
	CancelIdle(tok Token)
}

// Unlimited is a Deadline that never runs out.
type Unlimited struct{}

// TimeRemaining implements Deadline.
func (Unlimited) TimeRemaining() time.Duration { return time.Duration(math.MaxInt64) }

// Units returns a Deadline that grants n checks before reporting the slice
// exhausted. A reconciler consulting it after every unit performs n units
// per slice, which makes slicing independent of wall-clock time.
func Units(n int) Deadline {
	return &unitDeadline{left: n}
}

type unitDeadline struct {
	left int
}

func (d *unitDeadline) TimeRemaining() time.Duration {
	d.left--
	if d.left > 0 {
		return time.Hour
	}
	return 0
}

// Until returns a Deadline ending at end as measured by now.
func Until(now func() time.Time, end time.Time) Deadline {
	return clockDeadline{now: now, end: end}
}

type clockDeadline struct {
	now func() time.Time
	end time.Time
}

func (d clockDeadline) TimeRemaining() time.Duration {
	left := d.end.Sub(d.now())
	if left < 0 {
		return 0
	}
	return left
}
