package observer

import (
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
)

// Scale is the fixed-point scale of the model coefficients.
const Scale = 1000000

// Model holds the discrete-time plant of one actuator kind, sampled at the
// control loop period. The state is angle (mdeg), speed (mdeg/s) and current
// (mA); the inputs are voltage (mV) and external torque (µNm). Coefficient
// DXDY is the change of X after one period per unit of Y, scaled by Scale.
type Model struct {
	DAngleDSpeed     int64
	DAngleDCurrent   int64
	DAngleDVoltage   int64
	DAngleDTorque    int64
	DSpeedDSpeed     int64
	DSpeedDCurrent   int64
	DSpeedDVoltage   int64
	DSpeedDTorque    int64
	DCurrentDSpeed   int64
	DCurrentDCurrent int64
	DCurrentDVoltage int64
	DCurrentDTorque  int64

	// VoltagePerTorque is the steady-state voltage (mV) per µNm at standstill,
	// scaled by Scale.
	VoltagePerTorque int64
	// BackEMF is the torque (µNm) per mdeg/s needed to overcome the back-EMF,
	// scaled by Scale.
	BackEMF int64
	// Inertia is the torque (µNm) per mdeg/s² of acceleration, scaled by Scale.
	Inertia int64

	// FrictionTorque is the Coulomb friction in µNm.
	FrictionTorque int32
	// Gain is the feedback voltage in mV per degree of angle error.
	Gain int32
	// StallTorque and FreeSpeed are the nominal limits at 9V.
	StallTorque int32 // µNm
	FreeSpeed   int32 // mdeg/s

	// The motor is considered stalled if it turns slower than StallSpeed
	// while driven for at least StallTime.
	StallSpeed int32 // mdeg/s
	StallTime  int32 // ticks
}

var models = map[motor.Kind]Model{
	motor.KindEV3Large: {
		DAngleDSpeed:     4869,
		DAngleDCurrent:   33862,
		DAngleDVoltage:   15339,
		DAngleDTorque:    282,
		DSpeedDSpeed:     940900,
		DSpeedDCurrent:   7684530,
		DSpeedDVoltage:   6910614,
		DSpeedDTorque:    111585,
		DCurrentDSpeed:   -1194,
		DCurrentDCurrent: -8724,
		DCurrentDVoltage: 139651,
		DCurrentDTorque:  -121,
		VoltagePerTorque: 13878,
		BackEMF:          616255,
		Inertia:          43633,
		FrictionTorque:   8200,
		Gain:             300,
		StallTorque:      648529,
		FreeSpeed:        1052371,
		StallSpeed:       30000,
		StallTime:        200 * motor.TicksPerMs,
	},
	motor.KindEV3Medium: {
		DAngleDSpeed:     4752,
		DAngleDCurrent:   55686,
		DAngleDVoltage:   43026,
		DAngleDTorque:    951,
		DSpeedDSpeed:     893090,
		DSpeedDCurrent:   11712678,
		DSpeedDVoltage:   18562166,
		DSpeedDTorque:    372987,
		DCurrentDSpeed:   -868,
		DCurrentDCurrent: -11335,
		DCurrentDVoltage: 150737,
		DCurrentDTorque:  -324,
		VoltagePerTorque: 18182,
		BackEMF:          316777,
		Inertia:          12741,
		FrictionTorque:   9200,
		Gain:             300,
		StallTorque:      495000,
		FreeSpeed:        1562612,
		StallSpeed:       30000,
		StallTime:        200 * motor.TicksPerMs,
	},
	motor.KindTechnicMAngular: {
		DAngleDSpeed:     4793,
		DAngleDCurrent:   36096,
		DAngleDVoltage:   28293,
		DAngleDTorque:    591,
		DSpeedDSpeed:     911802,
		DSpeedDCurrent:   7498130,
		DSpeedDVoltage:   12031908,
		DSpeedDTorque:    232708,
		DCurrentDSpeed:   -898,
		DCurrentDCurrent: -7384,
		DCurrentDVoltage: 122558,
		DCurrentDTorque:  -210,
		VoltagePerTorque: 17857,
		BackEMF:          410501,
		Inertia:          20595,
		FrictionTorque:   12200,
		Gain:             400,
		StallTorque:      504000,
		FreeSpeed:        1227767,
		StallSpeed:       20000,
		StallTime:        200 * motor.TicksPerMs,
	},
	motor.KindTechnicLAngular: {
		DAngleDSpeed:     4841,
		DAngleDCurrent:   23380,
		DAngleDVoltage:   17550,
		DAngleDTorque:    204,
		DSpeedDSpeed:     929271,
		DSpeedDCurrent:   5175703,
		DSpeedDVoltage:   7793232,
		DSpeedDTorque:    80392,
		DCurrentDSpeed:   -1813,
		DCurrentDCurrent: -9672,
		DCurrentDVoltage: 199775,
		DCurrentDTorque:  -136,
		VoltagePerTorque: 9038,
		BackEMF:          1004121,
		Inertia:          60214,
		FrictionTorque:   11600,
		Gain:             500,
		StallTorque:      995745,
		FreeSpeed:        991658,
		StallSpeed:       20000,
		StallTime:        200 * motor.TicksPerMs,
	},
	motor.KindInteractive: {
		DAngleDSpeed:     4787,
		DAngleDCurrent:   32094,
		DAngleDVoltage:   25470,
		DAngleDTorque:    544,
		DSpeedDSpeed:     910378,
		DSpeedDCurrent:   6564154,
		DSpeedDVoltage:   10697874,
		DSpeedDTorque:    214260,
		DCurrentDSpeed:   -853,
		DCurrentDCurrent: -6151,
		DCurrentDVoltage: 101837,
		DCurrentDTorque:  -187,
		VoltagePerTorque: 18750,
		BackEMF:          446804,
		Inertia:          22340,
		FrictionTorque:   5600,
		Gain:             400,
		StallTorque:      480000,
		FreeSpeed:        1074296,
		StallSpeed:       15000,
		StallTime:        200 * motor.TicksPerMs,
	},
}

// ModelFor returns the model of an actuator kind.
func ModelFor(kind motor.Kind) (Model, error) {
	if m, ok := models[kind]; ok {
		return m, nil
	}
	return Model{}, errors.Wrapf(motor.ErrNotSupported, "no observer model for %s", kind)
}
