// Package input turns raw button samples into debounced user actions.
// It is pure: time is passed in with every sample.
package input

import (
	"time"

	"github.com/sweeney/drive-timer/internal/gpio"
)

// Action is a debounced user intent.
type Action string

const (
	ActionToggleDrive Action = "TOGGLE_DRIVE"
	ActionToggleRest  Action = "TOGGLE_REST"
	// ActionResetArmed means the first reset press was seen and a second
	// press inside the confirmation window will reset.
	ActionResetArmed Action = "RESET_ARMED"
	ActionReset      Action = "RESET"
)

// buttonState is the debounce state of one button.
type buttonState struct {
	stable       bool
	pending      bool
	hasPending   bool
	pendingSince time.Time
	baselined    bool
}

// Detector tracks button state and detects debounced presses.
type Detector struct {
	debounce      time.Duration
	confirmWindow time.Duration

	drive, rest, reset buttonState
	baselined          bool

	armed   bool
	armedAt time.Time
}

// NewDetector creates a detector. A confirmWindow <= 0 disables reset
// confirmation so that a single press resets.
func NewDetector(debounce, confirmWindow time.Duration) *Detector {
	return &Detector{
		debounce:      debounce,
		confirmWindow: confirmWindow,
	}
}

// Process takes a new sample and returns the actions it triggers, in
// drive, rest, reset order. Nothing is returned until every button has a
// stable baseline, so a button held at startup is not a press.
func (d *Detector) Process(b gpio.Buttons, now time.Time) []Action {
	drivePressed := d.processButton(&d.drive, b.Drive, now)
	restPressed := d.processButton(&d.rest, b.Rest, now)
	resetPressed := d.processButton(&d.reset, b.Reset, now)

	if !d.baselined {
		if d.drive.baselined && d.rest.baselined && d.reset.baselined {
			d.baselined = true
		}
		return nil
	}

	if d.armed && now.Sub(d.armedAt) > d.confirmWindow {
		d.armed = false
	}

	var actions []Action
	if drivePressed {
		d.armed = false
		actions = append(actions, ActionToggleDrive)
	}
	if restPressed {
		d.armed = false
		actions = append(actions, ActionToggleRest)
	}
	if resetPressed {
		switch {
		case d.confirmWindow <= 0 || d.armed:
			d.armed = false
			actions = append(actions, ActionReset)
		default:
			d.armed = true
			d.armedAt = now
			actions = append(actions, ActionResetArmed)
		}
	}
	return actions
}

// processButton handles debounce for one button and reports whether a
// released-to-pressed transition completed.
func (d *Detector) processButton(s *buttonState, pressed bool, now time.Time) bool {
	if !s.baselined {
		if !s.hasPending || s.pending != pressed {
			s.pending = pressed
			s.hasPending = true
			s.pendingSince = now
			return false
		}
		if now.Sub(s.pendingSince) >= d.debounce {
			s.stable = pressed
			s.baselined = true
			s.hasPending = false
		}
		return false
	}

	if pressed == s.stable {
		s.hasPending = false
		return false
	}

	if !s.hasPending || s.pending != pressed {
		s.pending = pressed
		s.hasPending = true
		s.pendingSince = now
		return false
	}

	if now.Sub(s.pendingSince) >= d.debounce {
		s.stable = pressed
		s.hasPending = false
		return pressed
	}
	return false
}

// IsBaselined returns whether the detector has established a baseline.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// Armed reports whether a reset is waiting for confirmation at now.
func (d *Detector) Armed(now time.Time) bool {
	return d.armed && now.Sub(d.armedAt) <= d.confirmWindow
}

// held returns the current stable button states.
func (d *Detector) held() gpio.Buttons {
	return gpio.Buttons{Drive: d.drive.stable, Rest: d.rest.stable, Reset: d.reset.stable}
}
