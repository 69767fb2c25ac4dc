package gpio

import (
	"errors"
	"sync"
)

// FakeReader is a test double that returns scripted button samples.
type FakeReader struct {
	// Samples contains scripted values to return.
	// Each call to Read() consumes the next sample.
	Samples []Buttons

	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Buttons) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Buttons, error) {
	if f.ReadError != nil {
		return Buttons{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return Buttons{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the reader to the first sample.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeBuzzer counts pulses.
type FakeBuzzer struct {
	mu     sync.Mutex
	pulses int
	closed bool
}

// Pulse records one alert.
func (b *FakeBuzzer) Pulse() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pulses++
}

// Pulses returns how many alerts have fired.
func (b *FakeBuzzer) Pulses() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pulses
}

// Close marks the buzzer as closed.
func (b *FakeBuzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *FakeBuzzer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
