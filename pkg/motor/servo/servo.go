// Package servo runs closed loop motion control of the motors attached to a
// hub: each loop period the shaft angle is read, differentiated and fed into
// the observer, and the controller output is turned into a duty cycle.
package servo

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/battery"
	"github.com/robotalks/servo.go/pkg/motor/control"
	"github.com/robotalks/servo.go/pkg/motor/differentiator"
	"github.com/robotalks/servo.go/pkg/motor/hbridge"
	"github.com/robotalks/servo.go/pkg/motor/observer"
	"github.com/robotalks/servo.go/pkg/motor/trajectory"
)

// Config configures a Servo.
type Config struct {
	Port   motor.Port
	Kind   motor.Kind
	Bridge hbridge.Config
	// Gearing between the motor and the output. Angles and speeds of the
	// Servo API are at the output.
	Gearing Gearing
	// Settings overrides the default control settings of Kind, at the
	// motor shaft.
	Settings *control.Settings
}

// Devices are the hardware boundaries a Servo talks to.
type Devices struct {
	Driver motor.Driver
	Angles motor.AngleSource
}

// State is a snapshot of a servo, at the output.
type State struct {
	Angle   motor.Angle
	Speed   int32 // mdeg/s
	Stalled bool
	Done    bool
	// Duty is the duty cycle applied during the last period.
	Duty int32
	// Load is the feedback torque (µNm) while controlled.
	Load   int32
	Action control.Action
}

// Servo controls one motor.
type Servo struct {
	port      motor.Port
	kind      motor.Kind
	direction motor.Direction
	gearing   Gearing
	devices   Devices
	battery   *battery.Battery

	bridge   *hbridge.HBridge
	observer *observer.Observer
	diff     *differentiator.Differentiator
	control  *control.Control
	recorder *Recorder

	// commands counts the commands taking over the motor.
	commands uint64

	// offset is subtracted from the oriented sensor angle. Angles and
	// speeds below are at the motor shaft.
	offset motor.Angle
	angle  motor.Angle
	speed  int32

	// actuation and voltage applied during the current period, fed into
	// the observer on the next update.
	actuation motor.Actuation
	voltage   int32
}

// New creates a Servo and lets the motor coast.
func New(conf Config, devices Devices, bat *battery.Battery) (*Servo, error) {
	model, err := observer.ModelFor(conf.Kind)
	if err != nil {
		return nil, err
	}
	var settings control.Settings
	if conf.Settings != nil {
		settings = *conf.Settings
	} else if settings, err = control.DefaultSettings(conf.Kind, model); err != nil {
		return nil, err
	}
	if err = settings.Validate(); err != nil {
		return nil, err
	}
	if err = conf.Gearing.Validate(); err != nil {
		return nil, err
	}
	bridge, err := hbridge.New(devices.Driver, conf.Port, conf.Bridge)
	if err != nil {
		return nil, err
	}
	s := &Servo{
		port:      conf.Port,
		kind:      conf.Kind,
		direction: conf.Bridge.Direction,
		gearing:   conf.Gearing,
		devices:   devices,
		battery:   bat,
		bridge:    bridge,
	}
	if s.angle, err = s.readAngle(); err != nil {
		return nil, err
	}
	s.observer = observer.New(model, s.angle)
	s.diff = differentiator.New(s.angle)
	s.control = control.New(settings, s.observer)
	if err = s.bridge.Coast(); err != nil {
		return nil, err
	}
	return s, nil
}

// Port returns the port of the motor.
func (s *Servo) Port() motor.Port {
	return s.port
}

// Kind returns the kind of the motor.
func (s *Servo) Kind() motor.Kind {
	return s.kind
}

// Gearing returns the gear train of the motor.
func (s *Servo) Gearing() Gearing {
	return s.gearing
}

// Settings returns the control settings with speeds and angles at the
// output. Gains and torques are at the motor shaft.
func (s *Servo) Settings() control.Settings {
	return scaleSettings(s.control.Settings(), s.gearing.SpeedToOutput)
}

// SetSettings replaces the control settings, given as Settings returns
// them. The motor must be passive.
func (s *Servo) SetSettings(settings control.Settings) error {
	if s.control.Active() {
		return errors.Wrap(motor.ErrAgain, "settings change while controlled")
	}
	return s.control.SetSettings(scaleSettings(settings, s.gearing.SpeedToMotor))
}

func scaleSettings(settings control.Settings, scale func(int32) int32) control.Settings {
	settings.MaxSpeed = scale(settings.MaxSpeed)
	settings.Acceleration = scale(settings.Acceleration)
	settings.SpeedTolerance = scale(settings.SpeedTolerance)
	settings.PositionTolerance = scale(settings.PositionTolerance)
	settings.StallSpeed = scale(settings.StallSpeed)
	settings.IntegralRate = scale(settings.IntegralRate)
	return settings
}

// Active reports whether the controller drives the motor.
func (s *Servo) Active() bool {
	return s.control.Active()
}

// Commands returns the number of commands which took over the motor.
// Compositions driving the motor through Actuate watch it to detect
// direct commands.
func (s *Servo) Commands() uint64 {
	return s.commands
}

// Record starts recording every update into r. A nil r stops recording.
func (s *Servo) Record(r *Recorder) {
	s.recorder = r
}

func (s *Servo) readAngle() (motor.Angle, error) {
	raw, err := s.devices.Angles.Angle(s.port)
	if err != nil {
		return motor.Angle{}, err
	}
	mdeg := raw.Total()
	if s.direction == motor.Counterclockwise {
		mdeg = -mdeg
	}
	return motor.AngleFromMillidegrees(mdeg - s.offset.Total()), nil
}

func (s *Servo) measurement() control.Measurement {
	return control.Measurement{
		Angle:          s.angle,
		Speed:          s.speed,
		EstimatedSpeed: s.observer.State().Speed,
	}
}

// Measurement returns the last measurement at the output.
func (s *Servo) Measurement() control.Measurement {
	m := s.measurement()
	return control.Measurement{
		Angle:          s.outputAngle(m.Angle),
		Speed:          s.gearing.SpeedToOutput(m.Speed),
		EstimatedSpeed: s.gearing.SpeedToOutput(m.EstimatedSpeed),
	}
}

// FeedforwardTorque returns the motor torque (µNm) following a reference
// given at the output.
func (s *Servo) FeedforwardTorque(speed, accel int32) int32 {
	return s.observer.FeedforwardTorque(s.gearing.SpeedToMotor(speed), s.gearing.SpeedToMotor(accel))
}

// Actuate applies an output computed outside the servo, with the torque at
// the motor shaft. The servo controller must be passive.
func (s *Servo) Actuate(out control.Output) error {
	if s.control.Active() {
		return errors.Wrapf(motor.ErrAgain, "port %s is controlled", s.port)
	}
	if err := s.actuate(out); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Servo) outputAngle(a motor.Angle) motor.Angle {
	if s.gearing.Direct() {
		return a
	}
	return motor.AngleFromMillidegrees(s.gearing.ToOutput(a.Total()))
}

func (s *Servo) motorAngle(a motor.Angle) motor.Angle {
	if s.gearing.Direct() {
		return a
	}
	return motor.AngleFromMillidegrees(s.gearing.ToMotor(a.Total()))
}

// Update runs one loop period.
func (s *Servo) Update(now motor.Ticks) error {
	angle, err := s.readAngle()
	if err != nil {
		return s.fail(err)
	}
	s.angle = angle
	s.speed = s.diff.Update(angle)
	s.observer.Update(now, angle, s.actuation, s.voltage)

	var out control.Output
	if s.control.Active() {
		out = s.control.Update(now, s.measurement())
		err = s.actuate(out)
	} else {
		s.passive()
	}
	if s.recorder != nil {
		s.recorder.record(now, s, out)
	}
	if err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Servo) actuate(out control.Output) error {
	switch out.Actuation {
	case control.ActuationCoast:
		return s.coast()
	case control.ActuationBrake:
		return s.brake()
	}
	voltage := s.observer.TorqueToVoltage(out.Torque)
	if err := s.bridge.SetDutyCycle(s.battery.DutyFromVoltage(voltage)); err != nil {
		return err
	}
	s.passive()
	return nil
}

// passive derives the observer input from the bridge state.
func (s *Servo) passive() {
	switch s.bridge.State() {
	case hbridge.StateCoast:
		s.actuation, s.voltage = motor.ActuationCoast, 0
	case hbridge.StateBrake:
		s.actuation, s.voltage = motor.ActuationBrake, 0
	default:
		s.actuation, s.voltage = motor.ActuationVoltage, s.battery.VoltageFromDuty(s.bridge.Duty())
	}
}

func (s *Servo) coast() error {
	if err := s.bridge.Coast(); err != nil {
		return err
	}
	s.passive()
	return nil
}

func (s *Servo) brake() error {
	if err := s.bridge.Brake(); err != nil {
		return err
	}
	s.passive()
	return nil
}

// fail stops control after an error and tries to leave the motor coasting.
func (s *Servo) fail(err error) error {
	s.control.Stop()
	if cerr := s.bridge.Coast(); cerr != nil {
		glog.Warningf("port %s: coast after %v: %v", s.port, err, cerr)
	}
	s.actuation, s.voltage = motor.ActuationCoast, 0
	return err
}

// start begins a maneuver with speeds and targets at the motor shaft.
func (s *Servo) start(now motor.Ticks, req control.Request) error {
	s.commands++
	return s.control.Start(now, s.measurement(), req)
}

// Run runs at speed (mdeg/s) until stopped.
func (s *Servo) Run(now motor.Ticks, speed int32) error {
	return s.start(now, control.Request{Action: control.ActionRun, Speed: s.gearing.SpeedToMotor(speed)})
}

// RunTime runs at speed for duration milliseconds.
func (s *Servo) RunTime(now motor.Ticks, speed, durationMs int32, then motor.Then) error {
	if durationMs < 0 || durationMs > trajectory.MaxDuration/motor.TicksPerMs {
		return errors.Wrapf(motor.ErrInvalidArgument, "duration %dms", durationMs)
	}
	return s.start(now, control.Request{
		Action:   control.ActionRunTime,
		Then:     then,
		Speed:    s.gearing.SpeedToMotor(speed),
		Duration: motor.TicksFromMs(durationMs),
	})
}

// RunAngle turns by angle (mdeg) relative to the current angle. The sign of
// speed sets the direction.
func (s *Servo) RunAngle(now motor.Ticks, speed int32, angle int64, then motor.Then) error {
	if speed < 0 {
		angle = -angle
	}
	return s.runTarget(now, s.gearing.SpeedToMotor(speed), s.angle.AddMillidegrees(s.gearing.ToMotor(angle)), then)
}

// RunTarget runs to target at |speed|.
func (s *Servo) RunTarget(now motor.Ticks, speed int32, target motor.Angle, then motor.Then) error {
	return s.runTarget(now, s.gearing.SpeedToMotor(speed), s.motorAngle(target), then)
}

func (s *Servo) runTarget(now motor.Ticks, speed int32, target motor.Angle, then motor.Then) error {
	return s.start(now, control.Request{
		Action: control.ActionRunTarget,
		Then:   then,
		Speed:  speed,
		Target: target,
	})
}

// RunUntilStalled runs at speed until the motor stalls.
func (s *Servo) RunUntilStalled(now motor.Ticks, speed int32, then motor.Then) error {
	if then == motor.ThenContinue {
		return errors.Wrap(motor.ErrInvalidArgument, "run until stalled cannot continue")
	}
	return s.start(now, control.Request{
		Action: control.ActionRunUntilStalled,
		Then:   then,
		Speed:  s.gearing.SpeedToMotor(speed),
	})
}

// TrackTarget holds target until another command.
func (s *Servo) TrackTarget(now motor.Ticks, target motor.Angle) error {
	return s.trackTarget(now, s.motorAngle(target))
}

func (s *Servo) trackTarget(now motor.Ticks, target motor.Angle) error {
	return s.start(now, control.Request{Action: control.ActionTrack, Target: target})
}

// Stop ends the current maneuver.
func (s *Servo) Stop(now motor.Ticks, then motor.Then) error {
	switch then {
	case motor.ThenCoast:
		s.commands++
		s.control.Stop()
		return s.coast()
	case motor.ThenBrake:
		s.commands++
		s.control.Stop()
		return s.brake()
	case motor.ThenHold:
		return s.trackTarget(now, s.angle)
	}
	return errors.Wrapf(motor.ErrInvalidArgument, "stop policy %s", then)
}

// Dc applies an open loop duty cycle.
func (s *Servo) Dc(duty int32) error {
	if duty > motor.MaxDuty || duty < -motor.MaxDuty {
		return errors.Wrapf(motor.ErrInvalidArgument, "duty %d", duty)
	}
	s.commands++
	s.control.Stop()
	if err := s.bridge.SetDutyCyclePassive(duty); err != nil {
		return err
	}
	s.passive()
	return nil
}

// ResetAngle redefines the current angle. A held target moves along with
// the angle, any other maneuver is stopped and the motor coasts.
func (s *Servo) ResetAngle(now motor.Ticks, angle motor.Angle) error {
	s.commands++
	angle = s.motorAngle(angle)
	tracking := s.control.Action() == control.ActionTrack
	var target motor.Angle
	if tracking {
		target = angle.AddMillidegrees(s.control.Trajectory().Target().Sub(s.angle))
	} else if s.control.Active() {
		s.control.Stop()
		if err := s.coast(); err != nil {
			return err
		}
	}
	s.offset = s.offset.AddMillidegrees(s.angle.Sub(angle))
	s.angle = angle
	s.diff.Reset(angle)
	s.observer.Reset(angle)
	if tracking {
		s.control.Stop()
		return s.trackTarget(now, target)
	}
	return nil
}

// Stalled reports whether the motor is stalled, either by the controller
// or, for open loop duty cycles, by the observer.
func (s *Servo) Stalled(now motor.Ticks) bool {
	if s.control.Stalled() {
		return true
	}
	stalled, _ := s.observer.IsStalled(now)
	return stalled
}

// Done reports whether the last maneuver completed. Open loop states are
// always done.
func (s *Servo) Done() bool {
	return !s.control.Active() || s.control.Done()
}

// State returns a snapshot of the servo.
func (s *Servo) State(now motor.Ticks) State {
	return State{
		Angle:   s.outputAngle(s.angle),
		Speed:   s.gearing.SpeedToOutput(s.speed),
		Stalled: s.Stalled(now),
		Done:    s.Done(),
		Duty:    s.bridge.Duty(),
		Load:    s.control.Load(),
		Action:  s.control.Action(),
	}
}
