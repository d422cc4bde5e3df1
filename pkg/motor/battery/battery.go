// Package battery tracks the supply voltage and converts between voltages
// and duty cycles.
package battery

import (
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
)

const (
	// Scale is the fixed-point scale of the averaged voltage.
	Scale = 1000
	// MinVoltage is the least voltage (mV) used for conversions.
	MinVoltage = 1000
	// NominalVoltage is the voltage (mV) assumed before the first sample.
	NominalVoltage = 9000
)

// Battery is a moving average of the supply voltage.
type Battery struct {
	avg int64 // mV·Scale
}

// New creates a Battery starting at voltage (mV).
func New(voltage int32) *Battery {
	return &Battery{avg: int64(voltage) * Scale}
}

// Update folds one sample (mV) into the average.
func (b *Battery) Update(sample int32) {
	b.avg = (b.avg*127 + int64(sample)*Scale) / 128
}

// Sample reads and folds in one sample. A failed read keeps the current
// average and returns the error.
func (b *Battery) Sample(src motor.VoltageSource) error {
	v, err := src.Voltage()
	if err != nil {
		return err
	}
	b.Update(v)
	return nil
}

// Voltage returns the averaged voltage in mV.
func (b *Battery) Voltage() int32 {
	return int32(b.avg / Scale)
}

func (b *Battery) divisor() int64 {
	return fixmath.Max(b.avg, MinVoltage*Scale)
}

// DutyFromVoltage returns the duty cycle producing voltage (mV).
func (b *Battery) DutyFromVoltage(voltage int32) int32 {
	return int32(fixmath.Clamp(int64(voltage)*motor.MaxDuty*Scale/b.divisor(), motor.MaxDuty))
}

// VoltageFromDuty returns the voltage (mV) produced by a duty cycle.
func (b *Battery) VoltageFromDuty(duty int32) int32 {
	return int32(fixmath.Clamp(int64(duty), motor.MaxDuty) * b.divisor() / (motor.MaxDuty * Scale))
}
