package logic

import "time"

// DefaultTickInterval is the cadence at which a running timer re-evaluates.
const DefaultTickInterval = 100 * time.Millisecond

const noAlert = -1

// Engine is the compliance clock: two timers, the settings that select the
// rules, and the interaction and threshold logic between them.
//
// Engine is not safe for concurrent use. All calls, including scheduled tick
// callbacks, must come from one goroutine.
type Engine struct {
	clock        Clock
	sched        Scheduler
	alerter      Alerter
	display      Display
	tickInterval time.Duration

	drive    TimerState
	rest     TimerState
	settings Settings

	driveTick Handle
	restTick  Handle

	// Mark (in elapsed seconds) that last pulsed; cleared once elapsed moves
	// off it so each crossing pulses exactly once.
	driveAlerted int
	restAlerted  int

	driveShown [2]string
	restShown  [2]string

	events []Event
}

// NewEngine creates an engine in the reset state with default settings.
// A zero tickInterval selects DefaultTickInterval; a nil display discards
// rendered strings.
func NewEngine(clock Clock, sched Scheduler, alerter Alerter, display Display, tickInterval time.Duration) *Engine {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if display == nil {
		display = discardDisplay{}
	}
	return &Engine{
		clock:        clock,
		sched:        sched,
		alerter:      alerter,
		display:      display,
		tickInterval: tickInterval,
		driveAlerted: noAlert,
		restAlerted:  noAlert,
	}
}

type discardDisplay struct{}

func (discardDisplay) ShowDrive(string, string) {}
func (discardDisplay) ShowRest(string, string)  {}

// Rules returns the thresholds for the current jurisdiction.
func (e *Engine) Rules() Rules {
	return RulesFor(e.settings.Jurisdiction)
}

// Settings returns the current settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Drive returns a copy of the drive timer.
func (e *Engine) Drive() TimerState {
	return e.drive
}

// Rest returns a copy of the rest timer.
func (e *Engine) Rest() TimerState {
	return e.rest
}

// ToggleDrive handles the drive button.
//
// Drive is stopped or started, rest is always halted, and then whatever rest
// was accumulated is credited: discarded when below the short-break credit
// (or below the full limit where there is no credit), truncated to the credit
// when partial, and a full qualifying rest resets both clocks and restarts
// drive from zero.
func (e *Engine) ToggleDrive() {
	now := e.clock.Now()

	if e.drive.Running {
		e.stopDrive(now)
		e.emit(now, EventDriveStopped, TimerDrive, 0)
	} else {
		e.startDrive(now)
		e.emit(now, EventDriveStarted, TimerDrive, 0)
	}

	if e.rest.Running {
		e.stopRest(now)
		e.emit(now, EventRestStopped, TimerRest, 0)
	}

	e.creditRest(now)
	e.refresh()
}

func (e *Engine) creditRest(now float64) {
	r := e.Rules()
	credit := float64(r.RestPreThreshold)
	limit := float64(r.RestLimit)

	switch {
	case r.RestPreThreshold == 0 && e.rest.Elapsed < limit:
		e.discardRest(now)
	case r.RestPreThreshold > 0 && e.rest.Elapsed < credit:
		e.discardRest(now)
	case r.RestPreThreshold > 0 && e.rest.Elapsed <= limit:
		e.rest.EpochStart = now - credit
		e.rest.Elapsed = credit
		e.rest.PauseInstant = now
		e.emit(now, EventRestTruncated, TimerRest, 0)
	}

	if e.rest.Elapsed >= limit {
		e.resetTimers(now)
		e.startDrive(now)
		e.emit(now, EventQualifyingRest, TimerRest, 0)
	}
}

func (e *Engine) discardRest(now float64) {
	if e.rest.IsReset() {
		return
	}
	e.rest.Reset()
	e.restAlerted = noAlert
	e.emit(now, EventRestDiscarded, TimerRest, 0)
}

// ToggleRest handles the rest button. Starting or stopping rest always halts
// drive; there is no credit rule in this direction.
func (e *Engine) ToggleRest() {
	now := e.clock.Now()

	if e.rest.Running {
		e.stopRest(now)
		e.emit(now, EventRestStopped, TimerRest, 0)
	} else {
		e.startRest(now)
		e.emit(now, EventRestStarted, TimerRest, 0)
	}

	if e.drive.Running {
		e.stopDrive(now)
		e.emit(now, EventDriveStopped, TimerDrive, 0)
	}

	e.refresh()
}

// Reset zeroes both timers, stopping them first if running.
func (e *Engine) Reset() {
	now := e.clock.Now()
	e.resetTimers(now)
	e.emit(now, EventReset, "", 0)
	e.refresh()
}

// ApplySetting swaps one settings field and redraws both displays against
// the new thresholds. Timers are not adjusted.
func (e *Engine) ApplySetting(s Setting) {
	prev := e.settings
	switch s.Key {
	case SettingJurisdiction:
		e.settings.Jurisdiction = s.Jurisdiction
	case SettingCompact:
		e.settings.Compact = s.Compact
	default:
		return
	}
	if e.settings != prev {
		e.emit(e.clock.Now(), EventSettingsChanged, "", 0)
	}
	e.renderDrive()
	e.renderRest()
}

// Snapshot returns the state to persist.
func (e *Engine) Snapshot() State {
	return State{Drive: e.drive, Rest: e.rest, Settings: e.settings}
}

// Restore replaces the engine state, redraws both displays and resumes
// ticking for any timer that was running.
func (e *Engine) Restore(s State) {
	e.cancel(&e.driveTick)
	e.cancel(&e.restTick)

	e.drive = s.Drive
	e.rest = s.Rest
	e.settings = s.Settings
	r := e.Rules()
	e.driveAlerted = onMark(e.drive.Seconds(), r.DriveWarnings())
	e.restAlerted = onMark(e.rest.Seconds(), r.RestWarnings())

	e.renderDrive()
	e.renderRest()

	if e.drive.Running {
		e.driveTick = e.sched.ScheduleOnce(e.tickInterval, e.onDriveTick)
	}
	if e.rest.Running {
		e.restTick = e.sched.ScheduleOnce(e.tickInterval, e.onRestTick)
	}
}

// Events returns and clears the events produced since the last call.
func (e *Engine) Events() []Event {
	ev := e.events
	e.events = nil
	return ev
}

// View returns the current timers as last rendered.
func (e *Engine) View() View {
	r := e.Rules()
	return View{
		Drive: TimerView{
			Running:   e.drive.Running,
			Elapsed:   e.drive.Seconds(),
			Remaining: clampZero(r.DriveLimit - e.drive.Seconds()),
			Value:     e.driveShown[0],
			Left:      e.driveShown[1],
		},
		Rest: TimerView{
			Running:   e.rest.Running,
			Elapsed:   e.rest.Seconds(),
			Remaining: clampZero(r.RestLimit - e.rest.Seconds()),
			Value:     e.restShown[0],
			Left:      e.restShown[1],
		},
		Settings: e.settings,
		Rules:    r,
	}
}

func (e *Engine) startDrive(now float64) {
	e.drive.Start(now)
	e.cancel(&e.driveTick)
	e.driveTick = e.sched.ScheduleOnce(e.tickInterval, e.onDriveTick)
}

func (e *Engine) stopDrive(now float64) {
	e.drive.Stop(now)
	e.cancel(&e.driveTick)
}

func (e *Engine) startRest(now float64) {
	e.rest.Start(now)
	e.cancel(&e.restTick)
	e.restTick = e.sched.ScheduleOnce(e.tickInterval, e.onRestTick)
}

func (e *Engine) stopRest(now float64) {
	e.rest.Stop(now)
	e.cancel(&e.restTick)
}

func (e *Engine) resetTimers(now float64) {
	if e.drive.Running {
		e.stopDrive(now)
	}
	if e.rest.Running {
		e.stopRest(now)
	}
	e.drive.Reset()
	e.rest.Reset()
	e.driveAlerted = noAlert
	e.restAlerted = noAlert
}

func (e *Engine) cancel(h *Handle) {
	if *h != 0 {
		e.sched.Cancel(*h)
		*h = 0
	}
}

func (e *Engine) onDriveTick() {
	e.driveTick = 0
	if e.drive.Running {
		e.drive.Tick(e.clock.Now())
		e.driveTick = e.sched.ScheduleOnce(e.tickInterval, e.onDriveTick)
	}
	e.updateDrive()
	e.updateRest()
}

func (e *Engine) onRestTick() {
	e.restTick = 0
	if e.rest.Running {
		e.rest.Tick(e.clock.Now())
		e.restTick = e.sched.ScheduleOnce(e.tickInterval, e.onRestTick)
	}
	e.updateRest()
	e.updateDrive()
}

// onMark returns sec when it is one of marks, so a restored timer resting on
// a mark does not alert for it again.
func onMark(sec int, marks []int) int {
	for _, m := range marks {
		if sec == m {
			return m
		}
	}
	return noAlert
}

func (e *Engine) refresh() {
	e.updateDrive()
	e.updateRest()
}

// updateDrive applies the drive threshold rules and redraws when none
// pre-empts it. While elapsed sits on an alert mark the redraw is skipped.
func (e *Engine) updateDrive() {
	r := e.Rules()
	sec := e.drive.Seconds()
	if sec != e.driveAlerted {
		e.driveAlerted = noAlert
	}

	for _, mark := range r.DriveWarnings() {
		if sec != mark {
			continue
		}
		if e.driveAlerted != mark {
			e.driveAlerted = mark
			e.alerter.Pulse()
			e.emit(e.clock.Now(), EventDriveWarning, TimerDrive, r.DriveLimit-sec)
		}
		return
	}

	if sec > r.DriveLimit {
		if e.drive.Running {
			now := e.clock.Now()
			e.stopDrive(now)
			e.emit(now, EventDriveLimitReached, TimerDrive, 0)
		}
		return
	}

	e.renderDrive()
}

// updateRest applies the rest threshold rules. A completed rest stops the
// rest clock and clears accumulated drive time.
func (e *Engine) updateRest() {
	r := e.Rules()
	sec := e.rest.Seconds()
	if sec != e.restAlerted {
		e.restAlerted = noAlert
	}

	for _, mark := range r.RestWarnings() {
		if sec != mark {
			continue
		}
		if e.restAlerted != mark {
			e.restAlerted = mark
			e.alerter.Pulse()
			e.emit(e.clock.Now(), EventRestWarning, TimerRest, r.RestLimit-sec)
		}
		return
	}

	if sec > r.RestLimit {
		if e.rest.Running {
			now := e.clock.Now()
			e.stopRest(now)
			if e.drive.Running {
				e.stopDrive(now)
			}
			e.drive.Reset()
			e.driveAlerted = noAlert
			e.emit(now, EventRestCompleted, TimerRest, 0)
			e.updateDrive()
		}
		return
	}

	e.renderRest()
}

func (e *Engine) renderDrive() {
	limit := e.Rules().DriveLimit
	sec := e.drive.Seconds()
	e.driveShown = [2]string{
		FormatDrive(sec, e.settings.Compact),
		FormatDrive(limit-sec, e.settings.Compact),
	}
	e.display.ShowDrive(e.driveShown[0], e.driveShown[1])
}

func (e *Engine) renderRest() {
	limit := e.Rules().RestLimit
	sec := e.rest.Seconds()
	e.restShown = [2]string{
		FormatRest(sec, e.settings.Compact),
		FormatRest(limit-sec, e.settings.Compact),
	}
	e.display.ShowRest(e.restShown[0], e.restShown[1])
}

func (e *Engine) emit(now float64, typ EventType, timer Timer, remaining int) {
	e.events = append(e.events, Event{
		Time:      now,
		Type:      typ,
		Timer:     timer,
		Remaining: remaining,
		Drive:     e.drive.Seconds(),
		Rest:      e.rest.Seconds(),
		Settings:  e.settings,
	})
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
