package logic

// TimerState is the elapsed/paused bookkeeping for one timer.
//
// EpochStart is the wall-clock instant that corresponds to Elapsed == 0 for
// the current run; 0 means never started. PauseInstant is the instant of the
// last Stop; 0 means never paused.
type TimerState struct {
	Running      bool
	Elapsed      float64
	EpochStart   float64
	PauseInstant float64
}

// Start marks the timer running. A resumed timer has its epoch shifted by
// the paused interval so that elapsed time excludes the pause.
func (t *TimerState) Start(now float64) {
	t.Running = true
	if t.EpochStart == 0 {
		t.EpochStart = now
	} else if t.PauseInstant != 0 {
		t.EpochStart += now - t.PauseInstant
	}
}

// Stop freezes the timer and records the pause instant.
func (t *TimerState) Stop(now float64) {
	t.Running = false
	t.PauseInstant = now
}

// Reset returns the timer to the never-started state.
func (t *TimerState) Reset() {
	*t = TimerState{}
}

// Tick recomputes Elapsed while running. It is a no-op when stopped.
func (t *TimerState) Tick(now float64) {
	if !t.Running {
		return
	}
	t.Elapsed = now - t.EpochStart
}

// Seconds returns Elapsed truncated to whole seconds.
func (t TimerState) Seconds() int {
	return int(t.Elapsed)
}

// IsReset reports whether the timer is in the reset state.
func (t TimerState) IsReset() bool {
	return t.EpochStart == 0 && t.Elapsed == 0
}
