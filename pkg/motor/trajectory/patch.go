package trajectory

import (
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
)

// Tolerances for accepting a re-planned trajectory as a continuation.
const (
	PatchPositionTolerance = 10 // mdeg
	PatchSpeedTolerance    = 10 // mdeg/s
)

// Patch plans cmd as a continuation of existing, which is the trajectory
// being followed at cmd.Start.
//
// If existing accelerates at cmd.Start exactly as the new profile would
// start, the new profile is planned from the beginning of the phase existing
// is in, so position and speed stay continuous and differentiable across the
// switch. Otherwise, or if that continuation does not reproduce existing at
// cmd.Start, the freshly planned profile is returned.
func Patch(existing *Trajectory, cmd Command) (*Trajectory, error) {
	nominal, err := Plan(cmd)
	if err != nil || existing == nil {
		return nominal, err
	}
	now := cmd.Start
	ref := existing.Evaluate(now)
	if ref.Acceleration != nominal.Evaluate(now).Acceleration {
		return nominal, nil
	}

	anchor := existing.phaseStart(now)
	rewind := now.Sub(anchor.Start)
	if rewind <= 0 {
		return nominal, nil
	}
	replan := cmd
	replan.Start, replan.Position, replan.Speed = anchor.Start, anchor.Position, anchor.Speed
	if replan.Kind == KindTime && replan.Duration != DurationForever {
		if int64(replan.Duration)+int64(rewind) > MaxDuration {
			return nominal, nil
		}
		replan.Duration += rewind
	}
	patched, err := Plan(replan)
	if err != nil {
		return nominal, nil
	}
	got := patched.Evaluate(now)
	if fixmath.Abs(got.Position.Sub(ref.Position)) > PatchPositionTolerance ||
		fixmath.Abs(int64(got.Speed)-int64(ref.Speed)) > PatchSpeedTolerance {
		return nominal, nil
	}
	return patched, nil
}

type phaseAnchor struct {
	Start    motor.Ticks
	Position motor.Angle
	Speed    int32
}

// phaseStart returns the state at the beginning of the phase t is in.
func (tr *Trajectory) phaseStart(t motor.Ticks) phaseAnchor {
	tau := t.Sub(tr.Start)
	switch {
	case tau < tr.T1:
		return phaseAnchor{Start: tr.Start, Position: tr.Origin, Speed: tr.W0}
	case tr.Forever || tau < tr.T2:
		return phaseAnchor{Start: tr.Start.Add(tr.T1), Position: tr.Origin.AddMillidegrees(tr.Th1), Speed: tr.W1}
	case tau < tr.T3:
		return phaseAnchor{Start: tr.Start.Add(tr.T2), Position: tr.Origin.AddMillidegrees(tr.Th2), Speed: tr.W1}
	}
	return phaseAnchor{Start: tr.Start.Add(tr.T3), Position: tr.Origin.AddMillidegrees(tr.Th3), Speed: tr.W3}
}
