package servo

import (
	"context"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1/msgs"
)

// StatePublisher publishes the state of a port to monitors.
type StatePublisher interface {
	PublishState(context.Context, *msgs.MotorState) error
}

// DefaultTelemetryEvery is the number of periodic iterations between two
// publications, 100ms with the default loop period.
const DefaultTelemetryEvery = 20

// Telemetry publishes the state of every servo of a Hub periodically.
type Telemetry struct {
	Hub       *Hub
	Publisher StatePublisher
	// Every is the number of periodic iterations between publications.
	Every uint64
}

// Control implements Controller.
func (t *Telemetry) Control(cc fx.ControlContext) error {
	every := t.Every
	if every == 0 {
		every = DefaultTelemetryEvery
	}
	if !cc.Periodic() || cc.Iteration()%every != 0 {
		return nil
	}
	return t.Publish(cc.Context())
}

// Publish publishes the state of every servo.
func (t *Telemetry) Publish(ctx context.Context) error {
	var errs fx.AggregatedError
	for _, s := range t.Hub.Servos() {
		state := &msgs.MotorState{MotorState: pbState(s.Port(), s.State(t.Hub.now))}
		errs.Add(t.Publisher.PublishState(ctx, state))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (t *Telemetry) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvPostProc, t)
}
