package motor

import "time"

// Ticks is a wrapping timestamp in units of 100µs. Differences must be taken
// with Sub which is safe across wraparound.
type Ticks uint32

// Tick rates.
const (
	TicksPerMs     = 10
	TicksPerSecond = 1000 * TicksPerMs
)

// LoopPeriodMs is the control loop period.
const LoopPeriodMs = 5

// LoopPeriod is the control loop period in ticks.
const LoopPeriod = LoopPeriodMs * TicksPerMs

// TicksFromMs converts milliseconds into a tick count.
func TicksFromMs(ms int32) int32 {
	return ms * TicksPerMs
}

// TicksFromDuration converts a duration into a tick count.
func TicksFromDuration(d time.Duration) int32 {
	return int32(d / (100 * time.Microsecond))
}

// Sub returns t-u in ticks.
func (t Ticks) Sub(u Ticks) int32 {
	return int32(t - u)
}

// Add returns t shifted by d ticks.
func (t Ticks) Add(d int32) Ticks {
	return t + Ticks(d)
}

// Before reports whether t is earlier than u.
func (t Ticks) Before(u Ticks) bool {
	return t.Sub(u) < 0
}

// Ms returns the timestamp in milliseconds, wrapping with the tick counter.
func (t Ticks) Ms() uint32 {
	return uint32(t) / TicksPerMs
}

// LoopClock converts loop iteration times into ticks. Consecutive readings
// are strictly increasing: if the loop stalls or the wall clock steps back
// the clock still advances by one tick.
type LoopClock struct {
	start   time.Time
	last    Ticks
	started bool
}

// NewLoopClock creates a LoopClock starting at origin.
func NewLoopClock(origin time.Time) *LoopClock {
	return &LoopClock{start: origin}
}

// Now returns the tick count for the iteration time t.
func (c *LoopClock) Now(t time.Time) Ticks {
	if c.start.IsZero() {
		c.start = t
	}
	now := Ticks(uint32(int64(t.Sub(c.start) / (100 * time.Microsecond))))
	if c.started && now.Sub(c.last) <= 0 {
		now = c.last + 1
	}
	c.last, c.started = now, true
	return now
}

// Last returns the most recent reading.
func (c *LoopClock) Last() Ticks {
	return c.last
}
