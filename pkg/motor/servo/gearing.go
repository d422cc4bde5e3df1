package servo

import (
	"math"

	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
)

// Gearing is the gear train between a motor and the mechanism it drives,
// given as the teeth of the gear on the motor and of the gear on the
// output. The motor turns Output/Motor times per output rotation. The zero
// value is direct drive.
type Gearing struct {
	Motor  int32
	Output int32
}

// Validate checks both teeth counts are set, or neither.
func (g Gearing) Validate() error {
	if g.Motor == 0 && g.Output == 0 || g.Motor > 0 && g.Output > 0 {
		return nil
	}
	return errors.Wrapf(motor.ErrInvalidArgument, "gears %d:%d", g.Motor, g.Output)
}

// Direct reports whether the output turns with the motor.
func (g Gearing) Direct() bool {
	return g.Motor == g.Output
}

func (g Gearing) teeth() (int64, int64) {
	if g.Motor <= 0 || g.Output <= 0 {
		return 1, 1
	}
	return int64(g.Motor), int64(g.Output)
}

// ToMotor converts an output quantity (mdeg, mdeg/s) to the motor shaft.
func (g Gearing) ToMotor(v int64) int64 {
	in, out := g.teeth()
	return fixmath.MulDivRound(v, out, in)
}

// ToOutput converts a motor shaft quantity to the output.
func (g Gearing) ToOutput(v int64) int64 {
	in, out := g.teeth()
	return fixmath.MulDivRound(v, in, out)
}

// SpeedToMotor is ToMotor saturated to int32.
func (g Gearing) SpeedToMotor(speed int32) int32 {
	return saturate32(g.ToMotor(int64(speed)))
}

// SpeedToOutput is ToOutput saturated to int32.
func (g Gearing) SpeedToOutput(speed int32) int32 {
	return saturate32(g.ToOutput(int64(speed)))
}

func saturate32(v int64) int32 {
	return int32(fixmath.Clamp(v, math.MaxInt32))
}
