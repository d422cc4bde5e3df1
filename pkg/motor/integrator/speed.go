package integrator

import "github.com/robotalks/servo.go/pkg/motor"

// Speed integrates the speed error of time based maneuvers. The integral of
// the speed error is the position error, so only the position error at the
// last resume needs to be remembered.
type Speed struct {
	Stall StallLimits

	state speedState
	// sum is the error accumulated up to the last pause.
	sum int64
}

type speedState interface {
	speedState()
}

type speedRunning struct {
	// resumeError is the position error when integration (re)started.
	resumeError int64
}

type speedPaused struct {
	since motor.Ticks
}

func (speedRunning) speedState() {}
func (speedPaused) speedState()  {}

// NewSpeed creates a running Speed integrator.
func NewSpeed(stall StallLimits, posErr int64) *Speed {
	i := &Speed{Stall: stall}
	i.Reset(posErr)
	return i
}

// Reset clears the integral and starts integrating from posErr.
func (i *Speed) Reset(posErr int64) {
	i.sum = 0
	i.state = speedRunning{resumeError: posErr}
}

// Running reports whether the integrator is accumulating.
func (i *Speed) Running() bool {
	_, ok := i.state.(speedRunning)
	return ok
}

// Pause freezes the integral at its value for posErr.
func (i *Speed) Pause(now motor.Ticks, posErr int64) {
	if r, ok := i.state.(speedRunning); ok {
		i.sum += posErr - r.resumeError
		i.state = speedPaused{since: now}
	}
}

// Resume continues integrating from posErr without a jump in the integral.
func (i *Speed) Resume(posErr int64) {
	if _, ok := i.state.(speedPaused); ok {
		i.state = speedRunning{resumeError: posErr}
	}
}

// Error returns the integrated speed error in mdeg.
func (i *Speed) Error(posErr int64) int64 {
	if r, ok := i.state.(speedRunning); ok {
		return i.sum + posErr - r.resumeError
	}
	return i.sum
}

// Stalled reports whether the integrator has been paused for the stall time
// while the motor does not reach the reference speed.
func (i *Speed) Stalled(now motor.Ticks, speed, speedRef int32) bool {
	p, ok := i.state.(speedPaused)
	return ok && i.Stall.stalled(p.since, now, speed, speedRef)
}
