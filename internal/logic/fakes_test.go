package logic

import (
	"sort"
	"testing"
	"time"
)

type fakeClock struct {
	now float64
}

func (c *fakeClock) Now() float64 { return c.now }

// fakeScheduler records callbacks; fireAll runs every pending one once.
type fakeScheduler struct {
	next    Handle
	pending map[Handle]func()
	delays  []time.Duration
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[Handle]func())}
}

func (s *fakeScheduler) ScheduleOnce(delay time.Duration, fn func()) Handle {
	s.next++
	s.pending[s.next] = fn
	s.delays = append(s.delays, delay)
	return s.next
}

func (s *fakeScheduler) Cancel(h Handle) {
	delete(s.pending, h)
}

func (s *fakeScheduler) fireAll() {
	handles := make([]Handle, 0, len(s.pending))
	for h := range s.pending {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	for _, h := range handles {
		fn, ok := s.pending[h]
		if !ok {
			// cancelled by an earlier callback in this batch
			continue
		}
		delete(s.pending, h)
		fn()
	}
}

type fakeAlerter struct {
	pulses int
}

func (a *fakeAlerter) Pulse() { a.pulses++ }

type fakeDisplay struct {
	drive      [2]string
	rest       [2]string
	driveDraws int
	restDraws  int
}

func (d *fakeDisplay) ShowDrive(value, remaining string) {
	d.drive = [2]string{value, remaining}
	d.driveDraws++
}

func (d *fakeDisplay) ShowRest(value, remaining string) {
	d.rest = [2]string{value, remaining}
	d.restDraws++
}

type harness struct {
	clock *fakeClock
	sched *fakeScheduler
	alert *fakeAlerter
	disp  *fakeDisplay
	eng   *Engine
}

const t0 = 1000.0

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock: &fakeClock{now: t0},
		sched: newFakeScheduler(),
		alert: &fakeAlerter{},
		disp:  &fakeDisplay{},
	}
	h.eng = NewEngine(h.clock, h.sched, h.alert, h.disp, 0)
	return h
}

// tickAt moves the clock to t0+offset and fires every pending tick once.
func (h *harness) tickAt(offset float64) {
	h.clock.now = t0 + offset
	h.sched.fireAll()
}

func (h *harness) at(offset float64) {
	h.clock.now = t0 + offset
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
