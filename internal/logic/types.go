// Package logic contains the pure compliance-clock state machine.
// This package has NO hardware, network or OS dependencies: time is read
// through Clock, ticks are requested through Scheduler, and alerts and
// rendered strings leave through Alerter and Display.
package logic

import "time"

// Clock reports wall-clock time in seconds with sub-second resolution.
type Clock interface {
	Now() float64
}

// Handle identifies a scheduled callback. The zero Handle means "nothing
// scheduled".
type Handle uint64

// Scheduler runs a callback once after a delay.
// Implementations must deliver callbacks on the same goroutine that drives
// the Engine, and a cancelled Handle must never run.
type Scheduler interface {
	ScheduleOnce(delay time.Duration, fn func()) Handle
	Cancel(h Handle)
}

// Alerter fires a single short haptic/visual alert.
type Alerter interface {
	Pulse()
}

// Display receives the rendered strings for each timer.
type Display interface {
	ShowDrive(value, remaining string)
	ShowRest(value, remaining string)
}

// Timer names one of the two clocks.
type Timer string

const (
	TimerDrive Timer = "drive"
	TimerRest  Timer = "rest"
)

// EventType names something that happened inside the engine.
type EventType string

const (
	EventDriveStarted      EventType = "DRIVE_STARTED"
	EventDriveStopped      EventType = "DRIVE_STOPPED"
	EventRestStarted       EventType = "REST_STARTED"
	EventRestStopped       EventType = "REST_STOPPED"
	EventReset             EventType = "RESET"
	EventDriveWarning      EventType = "DRIVE_WARNING"
	EventRestWarning       EventType = "REST_WARNING"
	EventDriveLimitReached EventType = "DRIVE_LIMIT_REACHED"
	EventRestCompleted     EventType = "REST_COMPLETED"
	EventRestDiscarded     EventType = "REST_DISCARDED"
	EventRestTruncated     EventType = "REST_TRUNCATED"
	EventQualifyingRest    EventType = "QUALIFYING_REST"
	EventSettingsChanged   EventType = "SETTINGS_CHANGED"
)

// Event is emitted by the engine for publishing, metrics and logs.
type Event struct {
	// Time is the engine clock reading when the event happened.
	Time float64
	Type EventType
	// Timer is the clock the event concerns; empty for RESET and settings.
	Timer Timer
	// Remaining is the whole seconds left on Timer's limit, for warnings.
	Remaining int
	// Drive and Rest are truncated elapsed seconds after the transition.
	Drive    int
	Rest     int
	Settings Settings
}

// Timestamp converts the event's clock reading to a time.Time.
func (e Event) Timestamp() time.Time {
	sec := int64(e.Time)
	nsec := int64((e.Time - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// Settings are the two user-controlled options.
type Settings struct {
	Compact      bool
	Jurisdiction Jurisdiction
}

// SettingKey names one field of Settings.
type SettingKey string

const (
	SettingJurisdiction SettingKey = "jurisdiction"
	SettingCompact      SettingKey = "compact_display"
)

// Setting is a single settings update delivered by the host.
type Setting struct {
	Key          SettingKey
	Compact      bool
	Jurisdiction Jurisdiction
}

// State is everything the engine persists across restarts.
type State struct {
	Drive    TimerState
	Rest     TimerState
	Settings Settings
}

// TimerView is a read-only view of one timer for status consumers.
type TimerView struct {
	Running   bool
	Elapsed   int
	Remaining int
	Value     string
	Left      string
}

// View is a point-in-time view of the engine.
type View struct {
	Drive    TimerView
	Rest     TimerView
	Settings Settings
	Rules    Rules
}
