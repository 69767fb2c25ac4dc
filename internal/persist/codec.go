// Package persist packs engine state into the fixed-layout durable record
// and moves it to and from a storage backend.
package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/sweeney/drive-timer/internal/logic"
)

// RecordSize is the exact length of an encoded record.
//
//	offset size field
//	0      1    drive.running
//	1      8    drive.elapsed
//	9      8    drive.epoch_start
//	17     8    drive.pause_instant
//	25     1    rest.running
//	26     8    rest.elapsed
//	34     8    rest.epoch_start
//	42     8    rest.pause_instant
//	50     1    compact_display
//	51     1    jurisdiction (1 = domestic)
const RecordSize = 52

const timerSize = 25

// ErrCorrupt is returned by Decode for a record that cannot be trusted.
var ErrCorrupt = errors.New("persist: corrupt record")

// Encode packs s into a new RecordSize-byte record.
func Encode(s logic.State) []byte {
	buf := make([]byte, RecordSize)
	putTimer(buf[0:timerSize], s.Drive)
	putTimer(buf[timerSize:2*timerSize], s.Rest)
	buf[50] = boolByte(s.Settings.Compact)
	buf[51] = boolByte(s.Settings.Jurisdiction == logic.Domestic)
	return buf
}

// Decode unpacks a record produced by Encode.
func Decode(buf []byte) (logic.State, error) {
	if len(buf) != RecordSize {
		return logic.State{}, fmt.Errorf("%w: length %d, want %d", ErrCorrupt, len(buf), RecordSize)
	}

	drive, err := getTimer(buf[0:timerSize])
	if err != nil {
		return logic.State{}, fmt.Errorf("drive: %w", err)
	}
	rest, err := getTimer(buf[timerSize : 2*timerSize])
	if err != nil {
		return logic.State{}, fmt.Errorf("rest: %w", err)
	}
	compact, err := getBool(buf[50])
	if err != nil {
		return logic.State{}, fmt.Errorf("compact_display: %w", err)
	}
	domestic, err := getBool(buf[51])
	if err != nil {
		return logic.State{}, fmt.Errorf("jurisdiction: %w", err)
	}

	s := logic.State{Drive: drive, Rest: rest, Settings: logic.Settings{Compact: compact}}
	if domestic {
		s.Settings.Jurisdiction = logic.Domestic
	}
	return s, nil
}

func putTimer(b []byte, t logic.TimerState) {
	b[0] = boolByte(t.Running)
	binary.LittleEndian.PutUint64(b[1:9], math.Float64bits(t.Elapsed))
	binary.LittleEndian.PutUint64(b[9:17], math.Float64bits(t.EpochStart))
	binary.LittleEndian.PutUint64(b[17:25], math.Float64bits(t.PauseInstant))
}

func getTimer(b []byte) (logic.TimerState, error) {
	running, err := getBool(b[0])
	if err != nil {
		return logic.TimerState{}, err
	}
	var f [3]float64
	for i := range f {
		off := 1 + 8*i
		f[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[off : off+8]))
		if math.IsNaN(f[i]) || math.IsInf(f[i], 0) {
			return logic.TimerState{}, fmt.Errorf("%w: non-finite value at offset %d", ErrCorrupt, off)
		}
	}
	return logic.TimerState{
		Running:      running,
		Elapsed:      f[0],
		EpochStart:   f[1],
		PauseInstant: f[2],
	}, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func getBool(b byte) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: bool byte 0x%02x", ErrCorrupt, b)
}
