package integrator

import (
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
)

// PositionLimits bounds the position integral.
type PositionLimits struct {
	// ChangeMax is the largest position error (mdeg) integrated per period.
	ChangeMax int64
	// Max is the absolute limit of the integral (mdeg·ms).
	Max   int64
	Stall StallLimits
}

// Position integrates the position error of angle based maneuvers. While
// paused, the reference time of the trajectory stands still.
type Position struct {
	Limits PositionLimits

	state positionState
	// paused is the total paused time in ticks since Reset.
	paused   int32
	integral int64
}

type positionState interface {
	refTime(now motor.Ticks) motor.Ticks
}

type positionRunning struct{}

type positionPaused struct {
	since motor.Ticks
}

func (positionRunning) refTime(now motor.Ticks) motor.Ticks { return now }
func (s positionPaused) refTime(motor.Ticks) motor.Ticks    { return s.since }

// NewPosition creates a running Position integrator.
func NewPosition(limits PositionLimits) *Position {
	i := &Position{Limits: limits}
	i.Reset()
	return i
}

// Reset clears the integral and the paused time.
func (i *Position) Reset() {
	i.state, i.paused, i.integral = positionRunning{}, 0, 0
}

// Running reports whether the integrator is accumulating.
func (i *Position) Running() bool {
	_, ok := i.state.(positionRunning)
	return ok
}

// Pause stops integration and the reference clock.
func (i *Position) Pause(now motor.Ticks) {
	if i.Running() {
		i.state = positionPaused{since: now}
	}
}

// Resume restarts integration and the reference clock.
func (i *Position) Resume(now motor.Ticks) {
	if p, ok := i.state.(positionPaused); ok {
		i.paused += now.Sub(p.since)
		i.state = positionRunning{}
	}
}

// RefTime returns the time at which the trajectory is evaluated: now minus
// all the time spent paused.
func (i *Position) RefTime(now motor.Ticks) motor.Ticks {
	return i.state.refTime(now).Add(-i.paused)
}

// Update integrates posErr over one loop period and returns the integral
// in mdeg·ms. Nothing is integrated while paused or when posErr pushes past
// the final target, given by targetErr.
func (i *Position) Update(posErr, targetErr int64) int64 {
	if !i.Running() || fixmath.Sign(posErr)*fixmath.Sign(targetErr) < 0 {
		return i.integral
	}
	err := fixmath.Clamp(posErr, i.Limits.ChangeMax)
	i.integral = fixmath.Clamp(i.integral+err*motor.LoopPeriodMs, i.Limits.Max)
	return i.integral
}

// Integral returns the current integral.
func (i *Position) Integral() int64 {
	return i.integral
}

// Stalled reports whether the integrator has been paused for the stall time
// while the motor does not reach the reference speed.
func (i *Position) Stalled(now motor.Ticks, speed, speedRef int32) bool {
	p, ok := i.state.(positionPaused)
	return ok && i.Limits.Stall.stalled(p.since, now, speed, speedRef)
}
