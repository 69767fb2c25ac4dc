package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/drive-timer/internal/logic"
)

func sampleView() logic.View {
	return logic.View{
		Drive: logic.TimerView{Running: true, Elapsed: 3725, Remaining: 12475, Value: "1:02:05", Left: "3:27:55"},
		Rest:  logic.TimerView{Elapsed: 0, Remaining: 2700, Value: "0:00", Left: "45:00"},
		Rules: logic.RulesFor(logic.Standard),
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 100, DebounceMs: 50, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	assert.True(t, snap.StartTime.Equal(start))
	assert.Equal(t, cfg, snap.Config)
	assert.False(t, snap.Ready)
	assert.False(t, snap.MQTTConnected)
	assert.Equal(t, 16200, snap.Rules.DriveLimit)
	assert.Empty(t, snap.Counts)
}

func TestTrackerIsDisplay(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var d logic.Display = tr

	d.ShowDrive("0:10:00", "4:20:00")
	d.ShowRest("5:00", "40:00")

	snap := tr.Snapshot()
	assert.Equal(t, "0:10:00", snap.Drive.Value)
	assert.Equal(t, "4:20:00", snap.Drive.Left)
	assert.Equal(t, "5:00", snap.Rest.Value)
	assert.Equal(t, "40:00", snap.Rest.Left)
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(sampleView(), true, true)

	snap := tr.Snapshot()
	assert.Equal(t, sampleView().Drive, snap.Drive)
	assert.Equal(t, sampleView().Rest, snap.Rest)
	assert.True(t, snap.Ready)
	assert.True(t, snap.ResetArmed)
}

func TestCountEvents(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.CountEvents([]logic.Event{
		{Type: logic.EventDriveStarted},
		{Type: logic.EventDriveStopped},
		{Type: logic.EventDriveStarted},
	})
	tr.CountEvents(nil)

	snap := tr.Snapshot()
	assert.Equal(t, 2, snap.Counts[logic.EventDriveStarted])
	assert.Equal(t, 1, snap.Counts[logic.EventDriveStopped])
}

func TestSetMQTTConnectedAndNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetMQTTConnected(true)
	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.20", SSID: "cab"})

	snap := tr.Snapshot()
	assert.True(t, snap.MQTTConnected)
	require.NotNil(t, snap.Network)
	assert.Equal(t, "cab", snap.Network.SSID)
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Now().Add(-5 * time.Minute)
	snap := NewTracker(start, Config{}).Snapshot()

	assert.GreaterOrEqual(t, snap.Uptime(), 5*time.Minute)
	assert.Less(t, snap.Uptime(), 5*time.Minute+5*time.Second)
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.CountEvents([]logic.Event{{Type: logic.EventReset}})

	snap := tr.Snapshot()
	snap.Counts[logic.EventReset] = 99
	tr.ShowDrive("x", "y")

	again := tr.Snapshot()
	assert.Equal(t, 1, again.Counts[logic.EventReset])
	assert.Equal(t, "", snap.Drive.Value)
}

func fixedSnapshot() Snapshot {
	start := time.Date(2026, 2, 3, 6, 0, 0, 0, time.UTC)
	return Snapshot{
		Drive:     sampleView().Drive,
		Rest:      sampleView().Rest,
		Rules:     logic.RulesFor(logic.Standard),
		Ready:     true,
		Counts:    map[logic.EventType]int{logic.EventDriveStarted: 1},
		StartTime: start,
		Now:       start.Add(90*time.Second + 500*time.Millisecond),
		Config:    Config{PollMs: 100, Broker: "tcp://localhost:1883", HTTPAddr: ":80", Storage: "bolt"},
	}
}

func TestFormatJSON(t *testing.T) {
	data := FormatJSON(fixedSnapshot())

	var parsed StatusJSON
	require.NoError(t, json.Unmarshal(data, &parsed))
	s := parsed.Status

	assert.Empty(t, s.Event)
	assert.True(t, s.Drive.Running)
	assert.Equal(t, 3725, s.Drive.ElapsedSeconds)
	assert.Equal(t, "1:02:05", s.Drive.Display)
	assert.Equal(t, "45:00", s.Rest.DisplayRemaining)
	assert.Equal(t, "standard", s.Settings.Jurisdiction)
	assert.Equal(t, 900, s.Limits.RestCreditSeconds)
	assert.Equal(t, int64(90), s.UptimeSeconds)
	assert.Equal(t, "2026-02-03T06:00:00Z", s.StartTime)
	assert.Equal(t, 1, s.Counts["DRIVE_STARTED"])
	assert.Equal(t, "bolt", s.Config.Storage)
	assert.Nil(t, s.Network)
	assert.Contains(t, string(data), "\n  ", "web JSON is indented")
}

func TestFormatStatusEvent(t *testing.T) {
	snap := fixedSnapshot()
	snap.Network = &NetworkInfo{Type: "ethernet", IP: "10.0.0.5"}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))
	s := parsed["status"]
	assert.Equal(t, "SHUTDOWN", s["event"])
	assert.Equal(t, "SIGTERM", s["reason"])
	assert.Contains(t, s, "network")
	assert.NotContains(t, string(data), "\n")
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(fixedSnapshot(), "HEARTBEAT", "")

	var parsed map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.NotContains(t, parsed["status"], "reason")
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				tr.ShowDrive("a", "b")
				tr.Update(sampleView(), true, false)
				tr.CountEvents([]logic.Event{{Type: logic.EventReset}})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = FormatJSON(tr.Snapshot())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, tr.Snapshot().Counts[logic.EventReset])
}
