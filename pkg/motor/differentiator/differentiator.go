// Package differentiator derives a smoothed speed from periodic angle samples.
package differentiator

import (
	"math"

	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
)

// Buffer dimensions. Samples are taken once per control loop period.
const (
	// Capacity is the number of samples kept, enough for a 100 ms window.
	Capacity = 21
	// Window is the number of sample intervals used by Update.
	Window = 4
	// SampleIntervalMs is the time between two samples.
	SampleIntervalMs = motor.LoopPeriodMs
)

// Differentiator keeps a ring buffer of the most recent angles.
type Differentiator struct {
	samples [Capacity]motor.Angle
	newest  int
}

// New creates a Differentiator which reads zero speed at angle.
func New(angle motor.Angle) *Differentiator {
	d := &Differentiator{}
	d.Reset(angle)
	return d
}

// Reset fills the history with angle so the speed reads zero until new
// samples arrive.
func (d *Differentiator) Reset(angle motor.Angle) {
	for n := range d.samples {
		d.samples[n] = angle
	}
	d.newest = 0
}

// Update records angle as the newest sample and returns the speed over
// Window intervals in mdeg/s.
func (d *Differentiator) Update(angle motor.Angle) int32 {
	d.newest = (d.newest + 1) % Capacity
	d.samples[d.newest] = angle
	return d.speed(Window)
}

// Speed returns the speed in mdeg/s over a window of windowMs, rounded to a
// whole number of sample intervals.
func (d *Differentiator) Speed(windowMs int32) (int32, error) {
	n := (int64(windowMs) + SampleIntervalMs/2) / SampleIntervalMs
	if windowMs < 0 || n == 0 || n > Capacity-1 {
		return 0, errors.Wrapf(motor.ErrInvalidArgument, "speed window %dms", windowMs)
	}
	return d.speed(int(n)), nil
}

func (d *Differentiator) speed(n int) int32 {
	if n <= 0 || n >= Capacity {
		panic("differentiator: window out of range")
	}
	past := d.samples[(d.newest-n+Capacity)%Capacity]
	diff := d.samples[d.newest].Sub(past)
	return int32(fixmath.Clamp(diff*1000/int64(n*SampleIntervalMs), math.MaxInt32))
}
