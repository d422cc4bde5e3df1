// Package trajectory plans trapezoidal motion profiles and evaluates the
// position, speed and acceleration references along them.
//
// Times are ticks relative to the start of the trajectory, positions are
// millidegrees relative to its origin angle. Every phase is a quadratic in
// time:
//
//	ramp-in   [0, t1)   x = w0·τ + a0·τ²/2
//	cruise    [t1, t2)  x = th1 + w1·(τ-t1)
//	ramp-out  [t2, t3)  x = th3 - w3·σ + a2·σ²/2, σ = t3-τ
//	rest      [t3, ∞)   x = th3 + w3·(τ-t3)
//
// The ramp-out is evaluated backward from the end so the final position and
// speed are exact regardless of rounding in the earlier phases.
package trajectory

import (
	"fmt"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
)

// Kind is the kind of command a trajectory was planned for.
type Kind int

// Kinds.
const (
	KindNone Kind = iota
	KindTime
	KindAngle
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindAngle:
		return "angle"
	}
	return "none"
}

// DurationForever is the duration of a time command that never ends.
const DurationForever int32 = -1

// Limits accepted by the planners. They keep every intermediate product
// inside int64.
const (
	MaxSpeed        = 10000000  // mdeg/s
	MaxAcceleration = 100000000 // mdeg/s²
	MaxDuration     = 1 << 30   // ticks
)

// Reference is the desired state at a point in time.
type Reference struct {
	Position     motor.Angle
	Speed        int32 // mdeg/s
	Acceleration int32 // mdeg/s²
}

// Trajectory is a planned motion profile. A Trajectory is immutable once
// planned; re-planning produces a new one.
type Trajectory struct {
	Kind Kind
	Then motor.Then

	// Start is the time at relative time 0.
	Start motor.Ticks
	// Origin is the angle at relative position 0.
	Origin motor.Angle
	// Forever is set if cruising never ends. T2, T3, Th2, Th3 and W3 are
	// meaningless in that case.
	Forever bool

	T1, T2, T3    int32 // ticks
	Th1, Th2, Th3 int64 // mdeg
	W0, W1, W3    int32 // mdeg/s
	A0, A2        int32 // mdeg/s²
}

// Stationary creates a trajectory holding angle from start on.
func Stationary(start motor.Ticks, angle motor.Angle) *Trajectory {
	return &Trajectory{Kind: KindNone, Then: motor.ThenHold, Start: start, Origin: angle}
}

// Evaluate returns the reference at time t.
func (tr *Trajectory) Evaluate(t motor.Ticks) Reference {
	tau := int64(t.Sub(tr.Start))
	pos, speed, accel := tr.evaluate(tau)
	return Reference{
		Position:     tr.Origin.AddMillidegrees(pos),
		Speed:        int32(speed),
		Acceleration: int32(accel),
	}
}

// Target returns the absolute final angle. For forever trajectories it is
// the angle at the end of the ramp-in.
func (tr *Trajectory) Target() motor.Angle {
	if tr.Forever {
		return tr.Origin.AddMillidegrees(tr.Th1)
	}
	return tr.Origin.AddMillidegrees(tr.Th3)
}

// End returns the time the trajectory reaches its final state.
func (tr *Trajectory) End() motor.Ticks {
	if tr.Forever {
		return tr.Start.Add(tr.T1)
	}
	return tr.Start.Add(tr.T3)
}

// Done reports whether t is at or past the end of a finite trajectory.
func (tr *Trajectory) Done(t motor.Ticks) bool {
	return !tr.Forever && t.Sub(tr.Start) >= tr.T3
}

// String implements fmt.Stringer.
func (tr *Trajectory) String() string {
	if tr.Forever {
		return fmt.Sprintf("%s[t1=%d w0=%d w1=%d a0=%d forever]", tr.Kind, tr.T1, tr.W0, tr.W1, tr.A0)
	}
	return fmt.Sprintf("%s[t=%d/%d/%d th=%d/%d/%d w=%d/%d/%d a=%d/%d %s]",
		tr.Kind, tr.T1, tr.T2, tr.T3, tr.Th1, tr.Th2, tr.Th3,
		tr.W0, tr.W1, tr.W3, tr.A0, tr.A2, tr.Then)
}

func (tr *Trajectory) evaluate(tau int64) (pos, speed, accel int64) {
	t1, t2, t3 := int64(tr.T1), int64(tr.T2), int64(tr.T3)
	w0, w1, w3 := int64(tr.W0), int64(tr.W1), int64(tr.W3)
	a0, a2 := int64(tr.A0), int64(tr.A2)
	switch {
	case tau < 0:
		return 0, w0, a0
	case tau < t1:
		return distance(w0, tau) + rampDistance(a0, tau), w0 + speedChange(a0, tau), a0
	case tr.Forever || tau < t2:
		return tr.Th1 + distance(w1, tau-t1), w1, 0
	case tau < t3:
		sigma := t3 - tau
		return tr.Th3 - distance(w3, sigma) + rampDistance(a2, sigma), w3 - speedChange(a2, sigma), a2
	}
	return tr.Th3 + distance(w3, tau-t3), w3, 0
}

// distance returns w·τ in mdeg.
func distance(w, tau int64) int64 {
	return fixmath.MulDiv(w, tau, motor.TicksPerSecond)
}

// rampDistance returns a·τ²/2 in mdeg.
func rampDistance(a, tau int64) int64 {
	return fixmath.MulDiv(a*tau, tau, 2*motor.TicksPerSecond*motor.TicksPerSecond)
}

// speedChange returns a·τ in mdeg/s.
func speedChange(a, tau int64) int64 {
	return fixmath.MulDiv(a, tau, motor.TicksPerSecond)
}

// rampTime returns the ticks needed to change speed by dw at acceleration a.
func rampTime(dw, a int64) int64 {
	return fixmath.MulDiv(fixmath.Abs(dw), motor.TicksPerSecond, a)
}

// averageDistance returns the distance covered in τ while speed changes
// linearly from wa to wb.
func averageDistance(wa, wb, tau int64) int64 {
	return fixmath.MulDiv(wa+wb, tau, 2*motor.TicksPerSecond)
}
