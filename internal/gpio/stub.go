//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(Pins) (*RealReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (Buttons, error) {
	return Buttons{}, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}

// RealBuzzer is not available on non-Linux platforms.
type RealBuzzer struct{}

// NewRealBuzzer returns an error on non-Linux platforms.
func NewRealBuzzer(int, time.Duration, zerolog.Logger) (*RealBuzzer, error) {
	return nil, errUnsupported
}

// Pulse does nothing on non-Linux platforms.
func (b *RealBuzzer) Pulse() {}

// Close is not implemented on non-Linux platforms.
func (b *RealBuzzer) Close() error {
	return nil
}
