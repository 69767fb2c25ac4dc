// Package mqtt provides MQTT publishing and the settings subscription with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/drive-timer/internal/logic"
)

// DefaultTopicPrefix is the root of every topic the daemon uses.
const DefaultTopicPrefix = "drivetimer"

// Topics are the MQTT topics derived from a prefix.
type Topics struct {
	Events   string // engine events
	System   string // lifecycle events and LWT
	Settings string // subscription filter for settings/<key>
}

// NewTopics builds the topic set under prefix.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	return Topics{
		Events:   prefix + "/events",
		System:   prefix + "/system",
		Settings: prefix + "/settings/+",
	}
}

// SettingKey returns the <key> segment of a settings topic, or "" if topic
// is not under the settings filter.
func (t Topics) SettingKey(topic string) string {
	base := strings.TrimSuffix(t.Settings, "+")
	if !strings.HasPrefix(topic, base) {
		return ""
	}
	key := strings.TrimPrefix(topic, base)
	if key == "" || strings.Contains(key, "/") {
		return ""
	}
	return key
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an engine event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SettingMessage is one raw message from the settings subscription.
type SettingMessage struct {
	Key   string
	Value string
}

// SettingsSource delivers settings messages. The channel is never closed
// while the source is open.
type SettingsSource interface {
	Settings() <-chan SettingMessage
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Timer TimerPayload `json:"timer"`
}

// TimerPayload contains the engine event details.
type TimerPayload struct {
	Timestamp    string     `json:"timestamp"`
	Event        string     `json:"event"`
	Timer        string     `json:"timer,omitempty"`
	Remaining    int        `json:"remaining_seconds,omitempty"`
	Drive        ClockState `json:"drive"`
	Rest         ClockState `json:"rest"`
	Jurisdiction string     `json:"jurisdiction"`
	Compact      bool       `json:"compact_display"`
}

// ClockState represents one timer in a payload.
type ClockState struct {
	ElapsedSeconds int `json:"elapsed_seconds"`
}

// FormatPayload creates the JSON payload for an engine event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Timer: TimerPayload{
			Timestamp:    event.Timestamp().UTC().Format(time.RFC3339),
			Event:        string(event.Type),
			Timer:        string(event.Timer),
			Remaining:    event.Remaining,
			Drive:        ClockState{ElapsedSeconds: event.Drive},
			Rest:         ClockState{ElapsedSeconds: event.Rest},
			Jurisdiction: event.Settings.Jurisdiction.String(),
			Compact:      event.Settings.Compact,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
