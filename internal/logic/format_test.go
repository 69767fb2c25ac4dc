package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDrive(t *testing.T) {
	tests := []struct {
		seconds int
		compact bool
		want    string
	}{
		{0, false, "0:00:00"},
		{0, true, "0:00"},
		{3725, false, "1:02:05"},
		{3725, true, "1:02"},
		{16200, false, "4:30:00"},
		{19799, false, "5:29:59"},
		{59, true, "0:00"},
		{-5, false, "0:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDrive(tt.seconds, tt.compact), "FormatDrive(%d, %v)", tt.seconds, tt.compact)
	}
}

func TestFormatRest(t *testing.T) {
	tests := []struct {
		seconds int
		compact bool
		want    string
	}{
		{0, false, "0:00"},
		{0, true, "0"},
		{125, false, "2:05"},
		{125, true, "2"},
		{2700, false, "45:00"},
		{3700, false, "61:40"},
		{-1, true, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRest(tt.seconds, tt.compact), "FormatRest(%d, %v)", tt.seconds, tt.compact)
	}
}

func TestEventTimestamp(t *testing.T) {
	e := Event{Time: 1767225600.25}
	ts := e.Timestamp()
	assert.Equal(t, int64(1767225600), ts.Unix())
	assert.Equal(t, 250, ts.Nanosecond()/1e6)
}
