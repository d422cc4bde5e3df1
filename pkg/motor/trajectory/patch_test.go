package trajectory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
)

// followUp builds a command starting from the reference of tr at now.
func followUp(tr *Trajectory, now motor.Ticks, cmd Command) Command {
	ref := tr.Evaluate(now)
	cmd.Start, cmd.Position, cmd.Speed = now, ref.Position, ref.Speed
	return cmd
}

func requireContinuous(t *testing.T, old, patched *Trajectory, now motor.Ticks) {
	a, b := old.Evaluate(now), patched.Evaluate(now)
	require.True(t, fixmath.Abs(a.Position.Sub(b.Position)) <= 1, "position %v -> %v", a.Position, b.Position)
	require.True(t, fixmath.Abs(int64(a.Speed)-int64(b.Speed)) <= 1, "speed %d -> %d", a.Speed, b.Speed)
}

func TestPatch(t *testing.T) {
	testCases := []struct {
		name        string
		existing    Command
		at          int32
		next        Command
		anchor      int32 // expected start relative to existing start, -1 for now
		forever     bool
		endRelative int32 // expected end relative to now, if nonzero
	}{
		{
			name:     "cruise to farther target",
			existing: angleCmd(0, 3600000, 500000, 1000000),
			at:       50000,
			next:     angleCmd(0, 7200000, 500000, 1000000),
			anchor:   5000,
		},
		{
			name:     "ramp-in to farther target",
			existing: angleCmd(0, 3600000, 1000000, 1000000),
			at:       2000,
			next:     angleCmd(0, 7200000, 1000000, 1000000),
			anchor:   0,
		},
		{
			name:     "faster cruise is not tangent",
			existing: angleCmd(0, 3600000, 500000, 1000000),
			at:       50000,
			next:     angleCmd(0, 7200000, 900000, 1000000),
			anchor:   -1,
		},
		{
			name:     "run forever again",
			existing: timeCmd(DurationForever, 500000, 1000000),
			at:       40000,
			next:     timeCmd(DurationForever, 500000, 1000000),
			anchor:   5000,
			forever:  true,
		},
		{
			name:        "shorter run time keeps end time",
			existing:    timeCmd(100000, 500000, 1000000),
			at:          40000,
			next:        timeCmd(20000, 500000, 1000000),
			anchor:      5000,
			endRelative: 20000,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			existing, err := Plan(tc.existing)
			require.NoError(t, err)
			now := existing.Start.Add(tc.at)
			patched, err := Patch(existing, followUp(existing, now, tc.next))
			require.NoError(t, err)
			requireContinuous(t, existing, patched, now)
			if tc.anchor < 0 {
				require.Equal(t, now, patched.Start)
			} else {
				require.Equal(t, existing.Start.Add(tc.anchor), patched.Start)
				require.Equal(t, existing.Evaluate(now).Acceleration, patched.Evaluate(now).Acceleration)
			}
			require.Equal(t, tc.forever, patched.Forever)
			if tc.endRelative != 0 {
				require.Equal(t, now.Add(tc.endRelative), patched.End())
			}
			if !patched.Forever && tc.next.Kind == KindAngle {
				require.Equal(t, tc.next.Target, patched.Evaluate(patched.End()).Position)
			}
		})
	}
}

func TestPatchWithoutExisting(t *testing.T) {
	cmd := angleCmd(0, 90000, 500000, 1000000)
	tr, err := Patch(nil, cmd)
	require.NoError(t, err)
	require.Equal(t, start, tr.Start)
	_, err = Patch(nil, angleCmd(0, 90000, 0, 1000000))
	require.Error(t, err)
}

func TestPatchHold(t *testing.T) {
	hold := Stationary(start, motor.AngleFromMillidegrees(1000))
	now := start.Add(700)
	tr, err := Patch(hold, followUp(hold, now, angleCmd(0, 91000, 500000, 1000000)))
	require.NoError(t, err)
	require.Equal(t, now, tr.Start)
	require.Equal(t, int64(1000), tr.Origin.Total())
	require.Equal(t, int64(91000), tr.Target().Total())
}
