package scheduler

import (
	"sort"
	"time"

	"github.com/sweeney/drive-timer/internal/logic"
)

// Fake is a manual clock and scheduler for tests. Time only moves on
// Advance, which runs due callbacks in deadline order.
type Fake struct {
	now     float64
	next    logic.Handle
	pending map[logic.Handle]fakeEntry
}

type fakeEntry struct {
	due float64
	fn  func()
}

// NewFake creates a fake starting at start seconds.
func NewFake(start float64) *Fake {
	return &Fake{now: start, pending: make(map[logic.Handle]fakeEntry)}
}

// Now returns the fake time in seconds.
func (f *Fake) Now() float64 {
	return f.now
}

// ScheduleOnce records fn to run once the fake time reaches now+delay.
func (f *Fake) ScheduleOnce(delay time.Duration, fn func()) logic.Handle {
	f.next++
	f.pending[f.next] = fakeEntry{due: f.now + delay.Seconds(), fn: fn}
	return f.next
}

// Cancel drops h.
func (f *Fake) Cancel(h logic.Handle) {
	delete(f.pending, h)
}

// Pending returns the number of callbacks not yet run.
func (f *Fake) Pending() int {
	return len(f.pending)
}

// Advance moves time forward by d, running each callback as its deadline is
// reached. Callbacks scheduled while advancing run too if they fall due
// within d.
func (f *Fake) Advance(d time.Duration) {
	end := f.now + d.Seconds()
	for {
		h, e, ok := f.earliest()
		if !ok || e.due > end {
			break
		}
		delete(f.pending, h)
		if e.due > f.now {
			f.now = e.due
		}
		e.fn()
	}
	f.now = end
}

// Set jumps the clock to t without running callbacks.
func (f *Fake) Set(t float64) {
	f.now = t
}

func (f *Fake) earliest() (logic.Handle, fakeEntry, bool) {
	if len(f.pending) == 0 {
		return 0, fakeEntry{}, false
	}
	handles := make([]logic.Handle, 0, len(f.pending))
	for h := range f.pending {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		a, b := f.pending[handles[i]], f.pending[handles[j]]
		if a.due != b.due {
			return a.due < b.due
		}
		return handles[i] < handles[j]
	})
	return handles[0], f.pending[handles[0]], true
}
