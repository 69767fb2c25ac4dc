package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeReaderRead(t *testing.T) {
	f := NewFakeReader([]Buttons{
		{Drive: true},
		{Rest: true},
		{Drive: true, Reset: true},
	})

	for i, want := range []Buttons{
		{Drive: true},
		{Rest: true},
		{Drive: true, Reset: true},
		{Drive: true, Reset: true}, // last sample repeats
	} {
		got, err := f.Read()
		require.NoError(t, err)
		assert.Equal(t, want, got, "sample %d", i)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	_, err := NewFakeReader(nil).Read()
	assert.Error(t, err)
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Buttons{{Drive: true}})
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	assert.EqualError(t, err, "simulated error")
}

func TestFakeReaderCloseAndReset(t *testing.T) {
	f := NewFakeReader([]Buttons{{Drive: true}, {Rest: true}})
	assert.False(t, f.Closed)

	require.NoError(t, f.Close())
	assert.True(t, f.Closed)

	f.Read()
	f.Reset()
	assert.False(t, f.Closed)
	got, _ := f.Read()
	assert.Equal(t, Buttons{Drive: true}, got)
}

func TestFakeBuzzer(t *testing.T) {
	var b FakeBuzzer
	b.Pulse()
	b.Pulse()
	assert.Equal(t, 2, b.Pulses())

	require.NoError(t, b.Close())
	assert.True(t, b.Closed())
}

func TestDefaultPins(t *testing.T) {
	p := DefaultPins()
	assert.Equal(t, DefaultPinDrive, p.Drive)
	assert.Equal(t, DefaultPinBuzzer, p.Buzzer)
	assert.NotEqual(t, p.Drive, p.Rest)
}

var (
	_ ButtonReader = (*FakeReader)(nil)
	_ ButtonReader = (*RealReader)(nil)
	_ Buzzer       = (*FakeBuzzer)(nil)
	_ Buzzer       = (*RealBuzzer)(nil)
)
