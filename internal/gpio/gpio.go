// Package gpio provides button input and buzzer output with hardware
// abstraction. The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Buttons is one sample of the three push buttons in logical form
// (true = pressed).
type Buttons struct {
	Drive bool
	Rest  bool
	Reset bool
}

// ButtonReader reads the push buttons.
type ButtonReader interface {
	// Read returns the logical button states. The buttons pull the line to
	// ground, so raw low = pressed.
	Read() (Buttons, error)

	// Close releases GPIO resources.
	Close() error
}

// Buzzer drives the haptic/audible alert output.
type Buzzer interface {
	// Pulse fires one alert. It never blocks for the pulse duration.
	Pulse()

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinDrive  = 17
	DefaultPinRest   = 27
	DefaultPinReset  = 22
	DefaultPinBuzzer = 18
)

// Pins selects the BCM line offsets for each signal.
type Pins struct {
	Drive  int
	Rest   int
	Reset  int
	Buzzer int
}

// DefaultPins returns the board wiring used by the reference build.
func DefaultPins() Pins {
	return Pins{
		Drive:  DefaultPinDrive,
		Rest:   DefaultPinRest,
		Reset:  DefaultPinReset,
		Buzzer: DefaultPinBuzzer,
	}
}
