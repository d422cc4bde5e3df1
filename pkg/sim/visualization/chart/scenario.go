package chart

import (
	"context"
	"time"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/servo"
	simhub "github.com/robotalks/servo.go/pkg/sim/bots/hub"
)

// Command starts a maneuver on a servo.
type Command func(s *servo.Servo, now motor.Ticks) error

// Scenario runs a command on a simulated motor without a real clock and
// records every loop period.
type Scenario struct {
	Kind motor.Kind
	// Options default to resetting the angle.
	Options  *servo.Options
	Duration time.Duration
	Command  Command
	// Load is an external torque (Nm) applied to the shaft.
	Load float64
}

// Run executes the scenario and returns the recorded rows.
func (sc *Scenario) Run() ([]servo.Row, error) {
	sim := simhub.New("chart")
	port, err := sim.Attach(motor.PortA, sc.Kind)
	if err != nil {
		return nil, err
	}
	port.Plant.Load = sc.Load
	hub, err := servo.NewHub(servo.Devices{Driver: sim, Angles: sim}, sim, sim)
	if err != nil {
		return nil, err
	}
	opts := servo.Options{ResetAngle: true}
	if sc.Options != nil {
		opts = *sc.Options
	}
	s, err := hub.Setup(motor.PortA, opts)
	if err != nil {
		return nil, err
	}

	period := motor.LoopPeriodMs * time.Millisecond
	steps := int(sc.Duration / period)
	rec := servo.NewRecorder(steps + 1)
	s.Record(rec)

	loop := fx.NewLoop().Add(sim, hub)
	ctx := context.Background()
	t := time.Unix(0, 0)
	loop.Step(ctx, t)
	if err = sc.Command(s, hub.Now()); err != nil {
		return nil, err
	}
	for n := 0; n < steps; n++ {
		t = t.Add(period)
		loop.Step(ctx, t)
	}
	return rec.Rows(), nil
}
