package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, DefaultTickInterval, h.eng.tickInterval)
	assert.Equal(t, Settings{}, h.eng.Settings())
	assert.True(t, h.eng.drive.IsReset())
	assert.True(t, h.eng.rest.IsReset())
	assert.Empty(t, h.sched.pending)
}

func TestToggleDriveStarts(t *testing.T) {
	h := newHarness(t)

	h.eng.ToggleDrive()

	assert.True(t, h.eng.Drive().Running)
	assert.Equal(t, t0, h.eng.Drive().EpochStart)
	assert.Len(t, h.sched.pending, 1)
	assert.Equal(t, DefaultTickInterval, h.sched.delays[0])
	assert.Equal(t, [2]string{"0:00:00", "4:30:00"}, h.disp.drive)
	assert.Equal(t, [2]string{"0:00", "45:00"}, h.disp.rest)
	assert.Equal(t, []EventType{EventDriveStarted}, eventTypes(h.eng.Events()))
	assert.Empty(t, h.eng.Events(), "Events should drain")
}

func TestDriveTickAccumulates(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()

	h.tickAt(0.1)
	h.tickAt(65.5)

	assert.Equal(t, 65.5, h.eng.Drive().Elapsed)
	assert.Equal(t, [2]string{"0:01:05", "4:28:55"}, h.disp.drive)
	assert.Len(t, h.sched.pending, 1, "tick should reschedule itself while running")
}

func TestToggleDriveStopCancelsTick(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(30)

	h.eng.ToggleDrive()
	assert.False(t, h.eng.Drive().Running)
	assert.Empty(t, h.sched.pending)

	h.tickAt(500)
	assert.Equal(t, 30.0, h.eng.Drive().Elapsed)
}

func TestPauseIsNotDoubleCounted(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(10)
	h.eng.ToggleDrive()

	h.at(30)
	h.eng.ToggleDrive()
	h.tickAt(40)

	// (40 - 0) - 20s paused
	assert.Equal(t, 20.0, h.eng.Drive().Elapsed)
}

func TestStandardPartialRestTruncatedToCredit(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleRest()
	h.tickAt(1200)
	require.Equal(t, 1200.0, h.eng.Rest().Elapsed)
	h.eng.Events()

	h.eng.ToggleDrive()

	rest := h.eng.Rest()
	assert.False(t, rest.Running)
	assert.Equal(t, 900.0, rest.Elapsed)
	assert.Equal(t, t0+1200-900, rest.EpochStart)
	assert.True(t, h.eng.Drive().Running)
	assert.Equal(t, [2]string{"15:00", "30:00"}, h.disp.rest)
	assert.Equal(t,
		[]EventType{EventDriveStarted, EventRestStopped, EventRestTruncated},
		eventTypes(h.eng.Events()))
}

func TestTruncatedRestResumesFromCredit(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleRest()
	h.tickAt(1500)
	h.eng.ToggleDrive()
	h.tickAt(1600)

	h.eng.ToggleRest()
	h.tickAt(1700)

	assert.Equal(t, 1000.0, h.eng.Rest().Elapsed)
}

func TestStandardShortRestDiscarded(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleRest()
	h.tickAt(600)

	h.eng.ToggleDrive()

	assert.True(t, h.eng.Rest().IsReset())
	assert.False(t, h.eng.Rest().Running)
	assert.True(t, h.eng.Drive().Running)
	assert.Equal(t, [2]string{"0:00", "45:00"}, h.disp.rest)
}

func TestStandardRestAtLimitIsTruncated(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleRest()
	h.tickAt(2700)

	h.eng.ToggleDrive()

	assert.Equal(t, 900.0, h.eng.Rest().Elapsed)
	assert.True(t, h.eng.Drive().Running)
}

func TestStandardQualifyingRestResetsBoth(t *testing.T) {
	h := newHarness(t)
	h.eng.Restore(State{
		Drive: TimerState{Elapsed: 5000, EpochStart: 100, PauseInstant: 5100},
		Rest:  TimerState{Elapsed: 2800, EpochStart: 200, PauseInstant: 3000},
	})

	h.at(50)
	h.eng.ToggleDrive()

	drive := h.eng.Drive()
	assert.True(t, drive.Running)
	assert.Equal(t, 0.0, drive.Elapsed)
	assert.Equal(t, t0+50, drive.EpochStart)
	assert.True(t, h.eng.Rest().IsReset())
	assert.False(t, h.eng.Rest().Running)
	assert.Len(t, h.sched.pending, 1)
	assert.Equal(t, [2]string{"0:00:00", "4:30:00"}, h.disp.drive)

	assert.Contains(t, eventTypes(h.eng.Events()), EventQualifyingRest)
}

func TestDomesticPartialRestDiscarded(t *testing.T) {
	h := newHarness(t)
	h.eng.ApplySetting(Setting{Key: SettingJurisdiction, Jurisdiction: Domestic})
	h.eng.ToggleRest()
	h.tickAt(1000)

	h.eng.ToggleDrive()

	assert.True(t, h.eng.Rest().IsReset())
	assert.True(t, h.eng.Drive().Running)
	assert.Equal(t, [2]string{"0:00", "30:00"}, h.disp.rest)
}

func TestDomesticQualifyingRest(t *testing.T) {
	h := newHarness(t)
	h.eng.Restore(State{
		Drive:    TimerState{Elapsed: 7000, EpochStart: 1, PauseInstant: 7001},
		Rest:     TimerState{Elapsed: 1800, EpochStart: 7001, PauseInstant: 8801},
		Settings: Settings{Jurisdiction: Domestic},
	})

	h.eng.ToggleDrive()

	assert.True(t, h.eng.Drive().Running)
	assert.Equal(t, 0.0, h.eng.Drive().Elapsed)
	assert.True(t, h.eng.Rest().IsReset())
}

func TestDriveLimitAlertSkipsRedrawThenStops(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(12000)
	require.Equal(t, [2]string{"3:20:00", "1:10:00"}, h.disp.drive)
	draws := h.disp.driveDraws
	h.eng.Events()

	h.tickAt(16199.4)
	assert.Equal(t, 1, h.alert.pulses)
	assert.Equal(t, draws, h.disp.driveDraws, "alert tick must not redraw")
	assert.Equal(t, [2]string{"3:20:00", "1:10:00"}, h.disp.drive, "display lags at the alert mark")

	h.tickAt(16199.9)
	assert.Equal(t, 1, h.alert.pulses, "one pulse per crossing")
	assert.Equal(t, draws, h.disp.driveDraws)

	h.tickAt(16201.2)
	stopped := h.eng.Drive()
	assert.False(t, stopped.Running)
	assert.InDelta(t, 16201.2, stopped.Elapsed, 1e-6)
	assert.Empty(t, h.sched.pending)

	h.tickAt(16400)
	assert.Equal(t, stopped.Elapsed, h.eng.Drive().Elapsed, "no growth after the limit")

	events := h.eng.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventDriveWarning, events[0].Type)
	assert.Equal(t, 1, events[0].Remaining)
	assert.Equal(t, EventDriveLimitReached, events[1].Type)
}

func TestDriveWarningsEachPulseOnce(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()

	for _, off := range []float64{12599.9, 12600.1, 12600.5, 12600.9, 12601.0, 14400.2, 14400.7, 14401.3} {
		h.tickAt(off)
	}

	assert.Equal(t, 2, h.alert.pulses)
	var warnings []int
	for _, e := range h.eng.Events() {
		if e.Type == EventDriveWarning {
			warnings = append(warnings, e.Remaining)
		}
	}
	assert.Equal(t, []int{3600, 1800}, warnings)
	assert.Equal(t, [2]string{"4:00:01", "0:29:59"}, h.disp.drive)
}

func TestDriveWarningRefiresAfterReset(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(12600.5)
	require.Equal(t, 1, h.alert.pulses)

	h.eng.Reset()
	h.at(20000)
	h.eng.ToggleDrive()
	h.tickAt(20000 + 12600.5)

	assert.Equal(t, 2, h.alert.pulses)
}

func TestRestWarningsAndCompletion(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(3000.5)
	require.Equal(t, 3000, h.eng.Drive().Seconds())

	h.eng.ToggleRest()
	assert.False(t, h.eng.Drive().Running)
	assert.True(t, h.eng.Rest().Running)
	h.eng.Events()

	h.tickAt(3000.5 + 899.3)
	assert.Equal(t, 1, h.alert.pulses)
	restDraws := h.disp.restDraws

	h.tickAt(3000.5 + 1000)
	assert.Equal(t, restDraws+1, h.disp.restDraws)

	h.tickAt(3000.5 + 2699.5)
	assert.Equal(t, 2, h.alert.pulses)

	h.tickAt(3000.5 + 2701.1)
	assert.False(t, h.eng.Rest().Running)
	assert.True(t, h.eng.Drive().IsReset(), "completed rest clears drive time")
	assert.Equal(t, [2]string{"0:00:00", "4:30:00"}, h.disp.drive)
	assert.Equal(t, [2]string{"16:40", "28:20"}, h.disp.rest, "rest is not redrawn on completion")
	assert.Empty(t, h.sched.pending)

	assert.Equal(t,
		[]EventType{EventRestWarning, EventRestWarning, EventRestCompleted},
		eventTypes(h.eng.Events()))
}

func TestDomesticHasNoShortBreakAlert(t *testing.T) {
	h := newHarness(t)
	h.eng.ApplySetting(Setting{Key: SettingJurisdiction, Jurisdiction: Domestic})
	h.eng.ToggleRest()

	h.tickAt(899.5)
	assert.Equal(t, 0, h.alert.pulses)

	h.tickAt(1799.5)
	assert.Equal(t, 1, h.alert.pulses)
}

func TestToggleRestStopsDriveWithoutCredit(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(100)

	h.eng.ToggleRest()
	assert.False(t, h.eng.Drive().Running)
	assert.Equal(t, 100.0, h.eng.Drive().Elapsed)
	assert.True(t, h.eng.Rest().Running)

	h.tickAt(400)
	h.eng.ToggleRest()
	assert.False(t, h.eng.Rest().Running)
	assert.Equal(t, 300.0, h.eng.Rest().Elapsed, "stopping rest keeps its time")
	assert.Equal(t, 100.0, h.eng.Drive().Elapsed)
	assert.Empty(t, h.sched.pending)
}

func TestResetStopsAndZeroesBoth(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(100)
	h.eng.ToggleRest()
	h.tickAt(200)

	h.eng.Reset()

	assert.Equal(t, TimerState{}, h.eng.Drive())
	assert.Equal(t, TimerState{}, h.eng.Rest())
	assert.Empty(t, h.sched.pending, "reset must cancel pending ticks")
	assert.Equal(t, [2]string{"0:00:00", "4:30:00"}, h.disp.drive)
	assert.Equal(t, [2]string{"0:00", "45:00"}, h.disp.rest)

	h.tickAt(900)
	assert.Equal(t, TimerState{}, h.eng.Drive())
	assert.Equal(t, TimerState{}, h.eng.Rest())
}

func TestApplySettingCompact(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(3725.4)
	require.Equal(t, [2]string{"1:02:05", "3:27:55"}, h.disp.drive)
	h.eng.Events()

	h.eng.ApplySetting(Setting{Key: SettingCompact, Compact: true})

	assert.True(t, h.eng.Settings().Compact)
	assert.Equal(t, [2]string{"1:02", "3:27"}, h.disp.drive)
	assert.Equal(t, [2]string{"0", "45"}, h.disp.rest)
	assert.Equal(t, []EventType{EventSettingsChanged}, eventTypes(h.eng.Events()))
}

func TestApplySettingJurisdictionRedrawsOnly(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(600)
	before := h.eng.Drive()

	h.eng.ApplySetting(Setting{Key: SettingJurisdiction, Jurisdiction: Domestic})

	assert.Equal(t, before, h.eng.Drive())
	assert.Equal(t, Domestic, h.eng.Settings().Jurisdiction)
	assert.Equal(t, [2]string{"0:10:00", "5:20:00"}, h.disp.drive)
	assert.Equal(t, [2]string{"0:00", "30:00"}, h.disp.rest)
}

func TestApplySettingUnchangedRedrawsWithoutEvent(t *testing.T) {
	h := newHarness(t)
	draws := h.disp.driveDraws

	h.eng.ApplySetting(Setting{Key: SettingCompact, Compact: false})

	assert.Equal(t, draws+1, h.disp.driveDraws)
	assert.Empty(t, h.eng.Events())
}

func TestApplySettingUnknownKeyIgnored(t *testing.T) {
	h := newHarness(t)
	h.eng.ApplySetting(Setting{Key: "brightness"})

	assert.Equal(t, 0, h.disp.driveDraws)
	assert.Equal(t, Settings{}, h.eng.Settings())
	assert.Empty(t, h.eng.Events())
}

func TestRemainingClampedAfterJurisdictionChange(t *testing.T) {
	h := newHarness(t)
	h.eng.ApplySetting(Setting{Key: SettingJurisdiction, Jurisdiction: Domestic})
	h.eng.ToggleDrive()
	h.tickAt(17000)
	h.eng.ToggleDrive()

	h.eng.ApplySetting(Setting{Key: SettingJurisdiction, Jurisdiction: Standard})

	assert.Equal(t, [2]string{"4:43:20", "0:00:00"}, h.disp.drive)
	assert.Equal(t, 0, h.eng.View().Drive.Remaining)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(500)
	h.eng.ToggleRest()
	h.tickAt(800)
	h.eng.ApplySetting(Setting{Key: SettingCompact, Compact: true})

	snap := h.eng.Snapshot()

	h2 := newHarness(t)
	h2.eng.Restore(snap)

	assert.Equal(t, snap, h2.eng.Snapshot())
	assert.Len(t, h2.sched.pending, 1, "running rest resumes ticking")
	assert.Equal(t, [2]string{"0:08", "4:21"}, h2.disp.drive)
	assert.Equal(t, [2]string{"5", "40"}, h2.disp.rest)
}

func TestRestoreCancelsPreviousTicks(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	require.Len(t, h.sched.pending, 1)

	h.eng.Restore(State{})

	assert.Empty(t, h.sched.pending)
	assert.False(t, h.eng.Drive().Running)
}

func TestRestoreOnWarningMarkDoesNotPulseAgain(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(12600.5)
	h.eng.ToggleDrive()
	require.Equal(t, 1, h.alert.pulses)

	h2 := newHarness(t)
	h2.at(12700)
	h2.eng.Restore(h.eng.Snapshot())
	h2.eng.ToggleRest()
	h2.tickAt(12701)

	assert.Zero(t, h2.alert.pulses)
	for _, e := range h2.eng.Events() {
		assert.NotEqual(t, EventDriveWarning, e.Type)
	}
}

func TestView(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(61.9)

	v := h.eng.View()
	assert.True(t, v.Drive.Running)
	assert.Equal(t, 61, v.Drive.Elapsed)
	assert.Equal(t, 16139, v.Drive.Remaining)
	assert.Equal(t, "0:01:01", v.Drive.Value)
	assert.Equal(t, "4:28:59", v.Drive.Left)
	assert.False(t, v.Rest.Running)
	assert.Equal(t, 2700, v.Rest.Remaining)
	assert.Equal(t, RulesFor(Standard), v.Rules)
}

func TestEventsCarryElapsed(t *testing.T) {
	h := newHarness(t)
	h.eng.ToggleDrive()
	h.tickAt(42.7)
	h.eng.Events()

	h.eng.ToggleDrive()

	events := h.eng.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventDriveStopped, events[0].Type)
	assert.Equal(t, TimerDrive, events[0].Timer)
	assert.Equal(t, 42, events[0].Drive)
	assert.InDelta(t, t0+42.7, events[0].Time, 1e-6)
}
