// Package integrator accumulates control errors for the servo loop. Both
// integrators are either running or paused; a paused integrator holds its
// value so a saturated or blocked motor does not wind it up.
package integrator

import (
	"github.com/robotalks/servo.go/pkg/motor"
)

// StallLimits defines when a paused integrator reports a stall.
type StallLimits struct {
	Speed int32 // mdeg/s
	Time  int32 // ticks
}

// stalled reports whether a motor paused since the given time is stalled:
// paused long enough and not making progress toward the reference speed.
func (l StallLimits) stalled(since, now motor.Ticks, speed, speedRef int32) bool {
	if now.Sub(since) < l.Time {
		return false
	}
	if speedRef > 0 && speed > l.Speed || speedRef < 0 && speed < -l.Speed {
		return false
	}
	return true
}
