// Package status provides a thread-safe status tracker for the drive-timer
// daemon. It is the engine's display sink and is read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/drive-timer/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Storage     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Drive         logic.TimerView
	Rest          logic.TimerView
	Settings      logic.Settings
	Rules         logic.Rules
	Ready         bool
	ResetArmed    bool
	Counts        map[logic.EventType]int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	snap   Snapshot
	counts map[logic.EventType]int
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Rules:     logic.RulesFor(logic.Standard),
		},
		counts: make(map[logic.EventType]int),
	}
}

// ShowDrive records the rendered drive strings.
func (t *Tracker) ShowDrive(value, remaining string) {
	t.mu.Lock()
	t.snap.Drive.Value = value
	t.snap.Drive.Left = remaining
	t.mu.Unlock()
}

// ShowRest records the rendered rest strings.
func (t *Tracker) ShowRest(value, remaining string) {
	t.mu.Lock()
	t.snap.Rest.Value = value
	t.snap.Rest.Left = remaining
	t.mu.Unlock()
}

// Update copies the engine view and input state.
// Called from runLoop after every engine step.
func (t *Tracker) Update(v logic.View, ready, resetArmed bool) {
	t.mu.Lock()
	t.snap.Drive = v.Drive
	t.snap.Rest = v.Rest
	t.snap.Settings = v.Settings
	t.snap.Rules = v.Rules
	t.snap.Ready = ready
	t.snap.ResetArmed = resetArmed
	t.mu.Unlock()
}

// CountEvents adds engine events to the per-type counters.
func (t *Tracker) CountEvents(events []logic.Event) {
	if len(events) == 0 {
		return
	}
	t.mu.Lock()
	for _, e := range events {
		t.counts[e.Type]++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Counts = make(map[logic.EventType]int, len(t.counts))
	for k, v := range t.counts {
		s.Counts[k] = v
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
