// Package scheduler provides the wall clock and the one-shot timer service
// the engine runs on. Timers fire onto a channel and the owning goroutine
// runs the callbacks, so the engine is only ever touched from one place.
package scheduler

import (
	"sync"
	"time"

	"github.com/sweeney/drive-timer/internal/logic"
)

// WallClock reads the system clock as fractional Unix seconds.
type WallClock struct{}

// Now returns the current time in seconds.
func (WallClock) Now() float64 {
	return Seconds(time.Now())
}

// Seconds converts t to fractional Unix seconds.
func Seconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

type entry struct {
	timer *time.Timer
	fn    func()
}

// Loop is a logic.Scheduler whose callbacks are executed by the caller of
// Run, normally the daemon run loop reading from Fired.
type Loop struct {
	mu      sync.Mutex
	next    logic.Handle
	entries map[logic.Handle]*entry
	fired   chan logic.Handle
	done    chan struct{}
	closed  bool
}

// NewLoop creates a scheduler. buffer sizes the Fired channel.
func NewLoop(buffer int) *Loop {
	if buffer < 1 {
		buffer = 1
	}
	return &Loop{
		entries: make(map[logic.Handle]*entry),
		fired:   make(chan logic.Handle, buffer),
		done:    make(chan struct{}),
	}
}

// ScheduleOnce arms a timer that delivers its handle on Fired after delay.
func (l *Loop) ScheduleOnce(delay time.Duration, fn func()) logic.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0
	}
	l.next++
	h := l.next
	e := &entry{fn: fn}
	e.timer = time.AfterFunc(delay, func() {
		select {
		case l.fired <- h:
		case <-l.done:
		}
	})
	l.entries[h] = e
	return h
}

// Cancel forgets h. A handle already sitting on Fired is ignored by Run.
func (l *Loop) Cancel(h logic.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[h]; ok {
		e.timer.Stop()
		delete(l.entries, h)
	}
}

// Fired delivers the handles of timers that have expired.
func (l *Loop) Fired() <-chan logic.Handle {
	return l.fired
}

// Run executes the callback for h unless it was cancelled. It reports
// whether a callback ran.
func (l *Loop) Run(h logic.Handle) bool {
	l.mu.Lock()
	e, ok := l.entries[h]
	if ok {
		delete(l.entries, h)
	}
	l.mu.Unlock()

	if !ok {
		return false
	}
	e.fn()
	return true
}

// pending returns the number of scheduled callbacks not yet run.
func (l *Loop) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close stops every timer. Later ScheduleOnce calls return the zero Handle.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	for h, e := range l.entries {
		e.timer.Stop()
		delete(l.entries, h)
	}
	close(l.done)
}
