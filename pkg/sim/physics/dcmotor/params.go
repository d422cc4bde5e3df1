package dcmotor

import (
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
)

// Params are the physical constants of a geared DC motor, referred to the
// output shaft. All values are SI.
type Params struct {
	Resistance float64 // Ω
	Inductance float64 // H
	// BackEMF is both the back-EMF constant (V·s/rad) and the torque
	// constant (N·m/A).
	BackEMF  float64
	Inertia  float64 // kg·m²
	Friction float64 // N·m
}

var params = map[motor.Kind]Params{
	motor.KindEV3Large:        {Resistance: 6.8, Inductance: 4.9e-3, BackEMF: 0.49, Inertia: 2.5e-3, Friction: 0.0082},
	motor.KindEV3Medium:       {Resistance: 6.0, Inductance: 3.0e-3, BackEMF: 0.33, Inertia: 7.3e-4, Friction: 0.0092},
	motor.KindTechnicMAngular: {Resistance: 7.5, Inductance: 3.0e-3, BackEMF: 0.42, Inertia: 1.18e-3, Friction: 0.0122},
	motor.KindTechnicLAngular: {Resistance: 4.7, Inductance: 3.0e-3, BackEMF: 0.52, Inertia: 3.45e-3, Friction: 0.0116},
	motor.KindInteractive:     {Resistance: 9.0, Inductance: 3.0e-3, BackEMF: 0.48, Inertia: 1.28e-3, Friction: 0.0056},
}

// ParamsFor returns the constants of an actuator kind.
func ParamsFor(kind motor.Kind) (Params, error) {
	if p, ok := params[kind]; ok {
		return p, nil
	}
	return Params{}, errors.Wrapf(motor.ErrNotSupported, "no simulation for %s", kind)
}

// StallTorque returns the torque (N·m) the motor produces at standstill.
func (p Params) StallTorque(voltage float64) float64 {
	return p.BackEMF * voltage / p.Resistance
}

// FreeSpeed returns the speed (rad/s) the unloaded motor settles at.
func (p Params) FreeSpeed(voltage float64) float64 {
	return (voltage - p.Resistance*p.Friction/p.BackEMF) / p.BackEMF
}
