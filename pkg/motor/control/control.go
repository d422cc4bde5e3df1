// Package control computes the torque a servo applies each loop period to
// follow its trajectory: PID feedback on the tracking errors plus model
// feedforward, with anti-windup, stall detection and maneuver completion.
package control

import (
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
	"github.com/robotalks/servo.go/pkg/motor/integrator"
	"github.com/robotalks/servo.go/pkg/motor/trajectory"
)

// Action is the maneuver being executed.
type Action int

// Actions.
const (
	ActionNone Action = iota
	// ActionRun runs at a speed until stopped.
	ActionRun
	// ActionRunTime runs at a speed for a duration.
	ActionRunTime
	// ActionRunUntilStalled runs at a speed until the motor stalls.
	ActionRunUntilStalled
	// ActionRunTarget runs to an angle.
	ActionRunTarget
	// ActionTrack holds an angle until stopped.
	ActionTrack
)

var actionNames = []string{"none", "run", "run-time", "run-until-stalled", "run-target", "track"}

// String implements fmt.Stringer.
func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// kind returns the kind of control an action uses.
func (a Action) kind() trajectory.Kind {
	switch a {
	case ActionRun, ActionRunTime, ActionRunUntilStalled:
		return trajectory.KindTime
	case ActionRunTarget, ActionTrack:
		return trajectory.KindAngle
	}
	return trajectory.KindNone
}

// Request describes a maneuver.
type Request struct {
	Action Action
	Then   motor.Then
	// Speed is the cruise speed (mdeg/s). Its sign sets the direction of
	// time based actions.
	Speed int32
	// Duration of ActionRunTime in ticks.
	Duration int32
	// Target of ActionRunTarget and ActionTrack.
	Target motor.Angle
}

// Measurement is the motor state fed into the controller.
type Measurement struct {
	Angle motor.Angle
	// Speed is the differentiated speed.
	Speed int32
	// EstimatedSpeed is the observer speed.
	EstimatedSpeed int32
}

// Feedforward computes the model torque for a reference.
type Feedforward interface {
	FeedforwardTorque(speed, accel int32) int32
}

// Actuation is the output kind of an update.
type Actuation int

// Actuations.
const (
	ActuationCoast Actuation = iota
	ActuationBrake
	ActuationTorque
)

// Output is the result of one update.
type Output struct {
	Actuation Actuation
	// Torque to apply (µNm) when Actuation is ActuationTorque.
	Torque    int32
	Reference trajectory.Reference
}

// Control is the controller of one servo.
type Control struct {
	settings    Settings
	feedforward Feedforward

	action     Action
	then       motor.Then
	trajectory *trajectory.Trajectory
	speedInt   *integrator.Speed
	posInt     *integrator.Position

	done    bool
	stalled bool
	load    int32
}

// New creates a passive Control.
func New(settings Settings, ff Feedforward) *Control {
	c := &Control{settings: settings, feedforward: ff}
	c.speedInt = integrator.NewSpeed(settings.stallLimits(), 0)
	c.posInt = integrator.NewPosition(c.positionLimits())
	return c
}

func (c *Control) positionLimits() integrator.PositionLimits {
	return integrator.PositionLimits{
		ChangeMax: int64(c.settings.IntegralRate),
		Max:       c.settings.integralMax(),
		Stall:     c.settings.stallLimits(),
	}
}

// Settings returns the settings in use.
func (c *Control) Settings() Settings {
	return c.settings
}

// SetSettings replaces the settings. It takes effect on the next maneuver
// for the integrator limits.
func (c *Control) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.settings = s
	c.speedInt.Stall = s.stallLimits()
	c.posInt.Limits = c.positionLimits()
	return nil
}

// Action returns the current maneuver, ActionNone if passive.
func (c *Control) Action() Action {
	return c.action
}

// Active reports whether the controller is driving the motor.
func (c *Control) Active() bool {
	return c.action != ActionNone
}

// Trajectory returns the current trajectory, nil if passive.
func (c *Control) Trajectory() *trajectory.Trajectory {
	return c.trajectory
}

// RefTime returns the time the reference is evaluated at. Angle maneuvers
// lag behind now by the time spent stalled.
func (c *Control) RefTime(now motor.Ticks) motor.Ticks {
	if c.action.kind() == trajectory.KindAngle {
		return c.posInt.RefTime(now)
	}
	return now
}

// Done reports whether the current maneuver completed. Holding an angle is
// always done; running forever never is.
func (c *Control) Done() bool {
	return c.done
}

// Stalled reports whether the motor stalled while controlled.
func (c *Control) Stalled() bool {
	return c.stalled
}

// Load returns the feedback torque of the last update (µNm), the torque
// exceeding what the model needs to follow the reference.
func (c *Control) Load() int32 {
	return c.load
}

// Stop makes the controller passive.
func (c *Control) Stop() {
	c.action, c.trajectory = ActionNone, nil
	c.stalled, c.load = false, 0
}

// initial returns the start time and state of a new maneuver: the current
// reference while controlled, the measurement otherwise.
func (c *Control) initial(now motor.Ticks, kind trajectory.Kind, m Measurement) (motor.Ticks, motor.Angle, int32) {
	prev := c.action.kind()
	switch {
	case prev == trajectory.KindTime:
		ref := c.trajectory.Evaluate(now)
		return now, ref.Position, ref.Speed
	case prev == trajectory.KindAngle:
		t := c.posInt.RefTime(now)
		ref := c.trajectory.Evaluate(t)
		if kind == trajectory.KindAngle {
			return t, ref.Position, ref.Speed
		}
		return now, ref.Position, ref.Speed
	}
	return now, m.Angle, c.speed(m)
}

// Start begins a maneuver. A maneuver of the same kind as the running one is
// patched onto the current trajectory.
func (c *Control) Start(now motor.Ticks, m Measurement, req Request) error {
	kind := req.Action.kind()
	start, pos, speed := c.initial(now, kind, m)
	var tr *trajectory.Trajectory
	switch req.Action {
	case ActionTrack:
		tr = trajectory.Stationary(start, req.Target)
	case ActionRun, ActionRunTime, ActionRunUntilStalled, ActionRunTarget:
		cmd := trajectory.Command{
			Kind:         kind,
			Then:         req.Then,
			Start:        start,
			Position:     pos,
			Speed:        speed,
			Target:       req.Target,
			Duration:     trajectory.DurationForever,
			TargetSpeed:  req.Speed,
			MaxSpeed:     c.settings.MaxSpeed,
			Acceleration: c.settings.Acceleration,
		}
		if req.Action == ActionRunTime {
			cmd.Duration = req.Duration
		}
		if req.Action == ActionRun || req.Action == ActionRunUntilStalled {
			cmd.Then = motor.ThenContinue
		}
		var err error
		if c.action.kind() == kind {
			tr, err = trajectory.Patch(c.trajectory, cmd)
		} else {
			tr, err = trajectory.Plan(cmd)
		}
		if err != nil {
			return err
		}
	default:
		c.Stop()
		return nil
	}

	if c.action.kind() != kind {
		switch kind {
		case trajectory.KindTime:
			c.speedInt.Reset(0)
		case trajectory.KindAngle:
			c.posInt.Reset()
		}
	}
	c.action, c.then, c.trajectory = req.Action, req.Then, tr
	c.done = req.Action == ActionTrack
	c.stalled = false
	return nil
}

func (c *Control) speed(m Measurement) int32 {
	if c.settings.UseEstimatedSpeed {
		return m.EstimatedSpeed
	}
	return m.Speed
}

// Update computes the actuation for this loop period.
func (c *Control) Update(now motor.Ticks, m Measurement) Output {
	switch c.action.kind() {
	case trajectory.KindTime:
		return c.updateTime(now, m)
	case trajectory.KindAngle:
		return c.updateAngle(now, m)
	}
	return Output{Actuation: ActuationCoast}
}

func (c *Control) updateAngle(now motor.Ticks, m Measurement) Output {
	s, tr := &c.settings, c.trajectory
	speed := c.speed(m)
	refTime := c.posInt.RefTime(now)
	ref := tr.Evaluate(refTime)

	posErr := ref.Position.Sub(m.Angle)
	speedErr := int64(ref.Speed) - int64(speed)
	targetErr := tr.Target().Sub(m.Angle)
	integral := c.posInt.Update(posErr, targetErr)

	p := int64(s.Kp) * posErr / 1000
	i := int64(s.Ki) * integral / 1000000
	d := int64(s.Kd) * speedErr / 1000
	c.antiWindup(p, speedErr, func() { c.posInt.Pause(now) }, func() { c.posInt.Resume(now) })
	c.stalled = c.posInt.Stalled(now, speed, ref.Speed)

	if c.action == ActionRunTarget && !c.done && c.onTarget(refTime, m.Angle, speed) {
		c.done = true
		switch c.then {
		case motor.ThenCoast:
			return c.finish(ActuationCoast, ref)
		case motor.ThenBrake:
			return c.finish(ActuationBrake, ref)
		case motor.ThenHold:
			c.hold(now, tr.Target())
			return c.updateAngle(now, m)
		}
	}
	return c.torque(p+i+d, ref)
}

// onTarget reports whether a run to target completed. A maneuver which
// continues after the target completes when the target is passed.
func (c *Control) onTarget(refTime motor.Ticks, angle motor.Angle, speed int32) bool {
	tr := c.trajectory
	if !tr.Done(refTime) {
		return false
	}
	if c.then == motor.ThenContinue {
		return true
	}
	return fixmath.Abs(tr.Target().Sub(angle)) <= int64(c.settings.PositionTolerance) &&
		fixmath.Abs(int64(speed)) < int64(c.settings.SpeedTolerance)
}

func (c *Control) updateTime(now motor.Ticks, m Measurement) Output {
	s, tr := &c.settings, c.trajectory
	speed := c.speed(m)
	ref := tr.Evaluate(now)

	// The integral of the speed error is the position error, so integral
	// speed control is proportional position control on a reference which
	// stops while the integrator is paused.
	posErr := ref.Position.Sub(m.Angle)
	speedErr := int64(ref.Speed) - int64(speed)
	p := int64(s.Kp) * c.speedInt.Error(posErr) / 1000
	d := int64(s.Kd) * speedErr / 1000
	c.antiWindup(p, speedErr, func() { c.speedInt.Pause(now, posErr) }, func() { c.speedInt.Resume(posErr) })
	c.stalled = c.speedInt.Stalled(now, speed, ref.Speed)

	if !c.done && (c.action == ActionRunTime && tr.Done(now) || c.action == ActionRunUntilStalled && c.stalled) {
		c.done = true
		switch c.then {
		case motor.ThenCoast:
			return c.finish(ActuationCoast, ref)
		case motor.ThenBrake:
			return c.finish(ActuationBrake, ref)
		case motor.ThenHold:
			c.hold(now, m.Angle)
			return c.updateAngle(now, m)
		}
	}
	return c.torque(p+d, ref)
}

// antiWindup pauses integration while the proportional torque saturates
// and the error still grows.
func (c *Control) antiWindup(p, speedErr int64, pause, resume func()) {
	limit := int64(c.settings.MaxTorque)
	if p >= limit && speedErr > 0 || p <= -limit && speedErr < 0 {
		pause()
	} else {
		resume()
	}
}

func (c *Control) hold(now motor.Ticks, target motor.Angle) {
	c.action, c.then, c.trajectory = ActionTrack, motor.ThenHold, trajectory.Stationary(now, target)
	c.posInt.Reset()
}

func (c *Control) finish(actuation Actuation, ref trajectory.Reference) Output {
	stalled := c.stalled
	c.Stop()
	c.stalled = stalled
	return Output{Actuation: actuation, Reference: ref}
}

func (c *Control) torque(feedback int64, ref trajectory.Reference) Output {
	limit := int64(c.settings.MaxTorque)
	feedback = fixmath.Clamp(feedback, limit)
	c.load = int32(feedback)
	total := feedback + int64(c.feedforward.FeedforwardTorque(ref.Speed, ref.Acceleration))
	return Output{
		Actuation: ActuationTorque,
		Torque:    int32(fixmath.Clamp(total, limit)),
		Reference: ref,
	}
}
