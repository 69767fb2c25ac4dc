package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Drive         TimerJSON      `json:"drive"`
	Rest          TimerJSON      `json:"rest"`
	Settings      SettingsJSON   `json:"settings"`
	Limits        LimitsJSON     `json:"limits"`
	Ready         bool           `json:"ready"`
	ResetArmed    bool           `json:"reset_armed"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        map[string]int `json:"event_counts"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// TimerJSON is one timer as shown on the device.
type TimerJSON struct {
	Running          bool   `json:"running"`
	ElapsedSeconds   int    `json:"elapsed_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Display          string `json:"display"`
	DisplayRemaining string `json:"display_remaining"`
}

// SettingsJSON is the JSON representation of the engine settings.
type SettingsJSON struct {
	Jurisdiction   string `json:"jurisdiction"`
	CompactDisplay bool   `json:"compact_display"`
}

// LimitsJSON reports the thresholds in force.
type LimitsJSON struct {
	DriveSeconds      int `json:"drive_seconds"`
	RestSeconds       int `json:"rest_seconds"`
	RestCreditSeconds int `json:"rest_credit_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Storage     string `json:"storage"`
}

func buildInner(snap Snapshot) StatusInner {
	counts := make(map[string]int, len(snap.Counts))
	for k, v := range snap.Counts {
		counts[string(k)] = v
	}

	return StatusInner{
		Drive: TimerJSON{
			Running:          snap.Drive.Running,
			ElapsedSeconds:   snap.Drive.Elapsed,
			RemainingSeconds: snap.Drive.Remaining,
			Display:          snap.Drive.Value,
			DisplayRemaining: snap.Drive.Left,
		},
		Rest: TimerJSON{
			Running:          snap.Rest.Running,
			ElapsedSeconds:   snap.Rest.Elapsed,
			RemainingSeconds: snap.Rest.Remaining,
			Display:          snap.Rest.Value,
			DisplayRemaining: snap.Rest.Left,
		},
		Settings: SettingsJSON{
			Jurisdiction:   snap.Settings.Jurisdiction.String(),
			CompactDisplay: snap.Settings.Compact,
		},
		Limits: LimitsJSON{
			DriveSeconds:      snap.Rules.DriveLimit,
			RestSeconds:       snap.Rules.RestLimit,
			RestCreditSeconds: snap.Rules.RestPreThreshold,
		},
		Ready:         snap.Ready,
		ResetArmed:    snap.ResetArmed,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        counts,
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Storage:     snap.Config.Storage,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
