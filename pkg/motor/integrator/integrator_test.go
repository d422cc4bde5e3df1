package integrator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/servo.go/pkg/motor"
)

var stall = StallLimits{Speed: 20000, Time: 2000}

func TestSpeedPauseResume(t *testing.T) {
	i := NewSpeed(stall, 100)
	require.True(t, i.Running())
	require.Equal(t, int64(200), i.Error(300))

	i.Pause(1000, 300)
	require.False(t, i.Running())
	require.Equal(t, int64(200), i.Error(300))
	require.Equal(t, int64(200), i.Error(5000))

	// pausing again keeps the first snapshot
	i.Pause(1200, 9000)
	require.Equal(t, int64(200), i.Error(9000))

	i.Resume(1000)
	require.True(t, i.Running())
	require.Equal(t, int64(200), i.Error(1000))
	require.Equal(t, int64(300), i.Error(1100))
	require.Equal(t, int64(-800), i.Error(0))

	// resuming while running is a no-op
	i.Resume(0)
	require.Equal(t, int64(300), i.Error(1100))

	i.Reset(50)
	require.Equal(t, int64(0), i.Error(50))
}

func TestSpeedImmediateResume(t *testing.T) {
	i := NewSpeed(stall, 0)
	for _, posErr := range []int64{10, -250, 4000} {
		before := i.Error(posErr)
		i.Pause(100, posErr)
		i.Resume(posErr)
		require.Equal(t, before, i.Error(posErr))
	}
}

func TestStalled(t *testing.T) {
	testCases := []struct {
		name     string
		pause    bool
		elapsed  int32
		speed    int32
		speedRef int32
		stalled  bool
	}{
		{name: "running", elapsed: 5000, speedRef: 500000},
		{name: "paused briefly", pause: true, elapsed: 1999, speedRef: 500000},
		{name: "blocked", pause: true, elapsed: 2000, speedRef: 500000, stalled: true},
		{name: "slow", pause: true, elapsed: 3000, speed: 15000, speedRef: 500000, stalled: true},
		{name: "moving", pause: true, elapsed: 3000, speed: 400000, speedRef: 500000},
		{name: "moving backward", pause: true, elapsed: 3000, speed: -400000, speedRef: -500000},
		{name: "pushed back", pause: true, elapsed: 3000, speed: -400000, speedRef: 500000, stalled: true},
		{name: "holding", pause: true, elapsed: 3000, speed: 100000, stalled: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			start := motor.Ticks(0xffffff00)
			s, p := NewSpeed(stall, 0), NewPosition(PositionLimits{Stall: stall})
			if tc.pause {
				s.Pause(start, 0)
				p.Pause(start)
			}
			now := start.Add(tc.elapsed)
			require.Equal(t, tc.stalled, s.Stalled(now, tc.speed, tc.speedRef))
			require.Equal(t, tc.stalled, p.Stalled(now, tc.speed, tc.speedRef))
		})
	}
}

func TestPositionRefTime(t *testing.T) {
	i := NewPosition(PositionLimits{})
	require.Equal(t, motor.Ticks(500), i.RefTime(500))

	i.Pause(1000)
	require.Equal(t, motor.Ticks(1000), i.RefTime(1000))
	require.Equal(t, motor.Ticks(1000), i.RefTime(3000))

	i.Resume(3000)
	require.Equal(t, motor.Ticks(1000), i.RefTime(3000))
	require.Equal(t, motor.Ticks(2000), i.RefTime(4000))

	i.Pause(5000)
	i.Resume(5000)
	require.Equal(t, motor.Ticks(4000), i.RefTime(6000))

	i.Pause(6000)
	i.Resume(7000)
	require.Equal(t, motor.Ticks(5000), i.RefTime(8000))

	i.Reset()
	require.Equal(t, motor.Ticks(8000), i.RefTime(8000))
}

func TestPositionRefTimeWraps(t *testing.T) {
	i := NewPosition(PositionLimits{})
	i.Pause(0xfffffc00)
	i.Resume(0x400)
	require.Equal(t, motor.Ticks(0xfffffc00), i.RefTime(0x400))
	require.Equal(t, motor.Ticks(0), i.RefTime(0x800))
}

func TestPositionUpdate(t *testing.T) {
	i := NewPosition(PositionLimits{ChangeMax: 10000, Max: 1000000})
	require.Equal(t, int64(5000*motor.LoopPeriodMs), i.Update(5000, 8000))
	// the error is limited to ChangeMax
	require.Equal(t, int64(15000*motor.LoopPeriodMs), i.Update(50000, 50000))
	// past the target
	require.Equal(t, int64(15000*motor.LoopPeriodMs), i.Update(1000, -1000))
	require.Equal(t, int64(14000*motor.LoopPeriodMs), i.Update(-1000, -1000))
	// at the target
	require.Equal(t, int64(15000*motor.LoopPeriodMs), i.Update(1000, 0))

	i.Pause(100)
	require.Equal(t, int64(15000*motor.LoopPeriodMs), i.Update(8000, 8000))
	i.Resume(200)

	for n := 0; n < 100; n++ {
		i.Update(-20000, -20000)
	}
	require.Equal(t, int64(-1000000), i.Integral())

	i.Reset()
	require.Zero(t, i.Integral())
}
