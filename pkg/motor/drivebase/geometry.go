package drivebase

import (
	"math"

	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
)

// Geometry is the size of a two wheeled drive base.
type Geometry struct {
	WheelDiameter int32 // µm
	// AxleTrack is the distance between the wheel contact points (µm).
	AxleTrack int32
}

// Validate checks the geometry describes a drivable base.
func (g Geometry) Validate() error {
	if g.WheelDiameter <= 0 || g.AxleTrack <= 0 {
		return errors.Wrapf(motor.ErrInvalidArgument, "wheel diameter %dµm, axle track %dµm", g.WheelDiameter, g.AxleTrack)
	}
	return nil
}

// The drive base is controlled on two axes in wheel millidegrees: the
// distance axis is the mean of the wheel angles, the heading axis half their
// difference.

// mmToAxis converts a distance (mm) to the distance axis.
func (g Geometry) mmToAxis(mm int64) int64 {
	return round(float64(mm) * motor.MillidegreesPerRotation * 1000 / (math.Pi * float64(g.WheelDiameter)))
}

// axisToMm converts the distance axis to a distance (mm).
func (g Geometry) axisToMm(mdeg int64) int64 {
	return round(float64(mdeg) * math.Pi * float64(g.WheelDiameter) / (motor.MillidegreesPerRotation * 1000))
}

// headingToAxis converts a heading (mdeg) to the heading axis.
func (g Geometry) headingToAxis(mdeg int64) int64 {
	return round(float64(mdeg) * float64(g.AxleTrack) / float64(g.WheelDiameter))
}

// axisToHeading converts the heading axis to a heading (mdeg).
func (g Geometry) axisToHeading(mdeg int64) int64 {
	return round(float64(mdeg) * float64(g.WheelDiameter) / float64(g.AxleTrack))
}

func round(v float64) int64 {
	switch {
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Round(v))
}

func speed32(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < -math.MaxInt32:
		return -math.MaxInt32
	}
	return int32(v)
}
