package motor

import (
	"fmt"
	"math"
)

// MillidegreesPerRotation is the number of millidegrees in one rotation.
const MillidegreesPerRotation = 360000

// Angle is a motor shaft angle split into whole rotations and millidegrees,
// so accumulated positions never overflow a 32-bit millidegree count.
//
// Millidegrees may temporarily fall outside (-360000, 360000); all methods
// accept such values and produce normalized results.
type Angle struct {
	Rotations    int32
	Millidegrees int32
}

// AngleFromMillidegrees creates a normalized Angle. Totals beyond the
// representable number of rotations saturate.
func AngleFromMillidegrees(mdeg int64) Angle {
	rot := mdeg / MillidegreesPerRotation
	rem := mdeg % MillidegreesPerRotation
	if rot > math.MaxInt32 {
		return Angle{Rotations: math.MaxInt32, Millidegrees: MillidegreesPerRotation - 1}
	}
	if rot < math.MinInt32 {
		return Angle{Rotations: math.MinInt32, Millidegrees: -(MillidegreesPerRotation - 1)}
	}
	return Angle{Rotations: int32(rot), Millidegrees: int32(rem)}
}

// AngleFromDegrees creates an Angle from whole degrees.
func AngleFromDegrees(deg int64) Angle {
	return AngleFromMillidegrees(deg * 1000)
}

// Total returns the angle in millidegrees.
func (a Angle) Total() int64 {
	return int64(a.Rotations)*MillidegreesPerRotation + int64(a.Millidegrees)
}

// Degrees returns the angle in whole degrees, truncated toward zero.
func (a Angle) Degrees() int64 {
	return a.Total() / 1000
}

// Normalize brings Millidegrees back into (-360000, 360000) with the same
// sign as the total.
func (a Angle) Normalize() Angle {
	return AngleFromMillidegrees(a.Total())
}

// Add returns a+b.
func (a Angle) Add(b Angle) Angle {
	return AngleFromMillidegrees(a.Total() + b.Total())
}

// AddMillidegrees returns a shifted by mdeg.
func (a Angle) AddMillidegrees(mdeg int64) Angle {
	return AngleFromMillidegrees(a.Total() + mdeg)
}

// Sub returns a-b in millidegrees.
func (a Angle) Sub(b Angle) int64 {
	return (int64(a.Rotations)-int64(b.Rotations))*MillidegreesPerRotation +
		int64(a.Millidegrees) - int64(b.Millidegrees)
}

// String implements fmt.Stringer.
func (a Angle) String() string {
	total := a.Total()
	sign := ""
	if total < 0 {
		sign, total = "-", -total
	}
	return fmt.Sprintf("%s%d.%03d°", sign, total/1000, total%1000)
}
