//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warthog618/go-gpiocdev"
)

const chipName = "gpiochip0"

// RealReader reads the buttons from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// NewRealReader requests the three button lines as active-low inputs with
// pull-up, so that an unpressed button reads 0.
func NewRealReader(pins Pins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip}
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"drive", pins.Drive},
		{"rest", pins.Rest},
		{"reset", pins.Reset},
	} {
		line, err := chip.RequestLine(p.pin, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", p.name, p.pin, err)
		}
		r.lines = append(r.lines, line)
	}
	return r, nil
}

// Read returns the logical button states.
func (r *RealReader) Read() (Buttons, error) {
	var v [3]bool
	for i, line := range r.lines {
		raw, err := line.Value()
		if err != nil {
			return Buttons{}, fmt.Errorf("read line %d: %w", line.Offset(), err)
		}
		v[i] = raw == 1
	}
	return Buttons{Drive: v[0], Rest: v[1], Reset: v[2]}, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	var errs []error
	for _, line := range r.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", line.Offset(), err))
		}
	}
	r.lines = nil
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealBuzzer drives an output line high for the pulse duration.
type RealBuzzer struct {
	chip     *gpiocdev.Chip
	line     *gpiocdev.Line
	duration time.Duration
	logger   zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewRealBuzzer requests pin as an output initialised low.
func NewRealBuzzer(pin int, duration time.Duration, logger zerolog.Logger) (*RealBuzzer, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pin, err)
	}
	return &RealBuzzer{
		chip:     chip,
		line:     line,
		duration: duration,
		logger:   logger,
	}, nil
}

// Pulse sets the line high and schedules it low again. A pulse while one is
// in progress restarts the duration.
func (b *RealBuzzer) Pulse() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.line == nil {
		return
	}
	if err := b.line.SetValue(1); err != nil {
		b.logger.Warn().Err(err).Msg("buzzer on failed")
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.duration, b.off)
}

func (b *RealBuzzer) off() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.line == nil {
		return
	}
	if err := b.line.SetValue(0); err != nil {
		b.logger.Warn().Err(err).Msg("buzzer off failed")
	}
}

// Close drives the line low and releases GPIO resources.
func (b *RealBuzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	var errs []error
	if b.line != nil {
		if err := b.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("buzzer off: %w", err))
		}
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close buzzer pin: %w", err))
		}
		b.line = nil
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		b.chip = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
