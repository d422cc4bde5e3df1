// Package drivebase drives a two wheeled robot with a pair of servos. A
// distance controller and a heading controller follow their own
// trajectories on the mean and the half difference of the wheel angles, and
// their torques are summed into the torque of each wheel.
package drivebase

import (
	"math"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/control"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
	"github.com/robotalks/servo.go/pkg/motor/servo"
)

// Settings are the speeds and accelerations of drive base maneuvers.
type Settings struct {
	StraightSpeed        int32 // mm/s
	StraightAcceleration int32 // mm/s²
	TurnRate             int32 // mdeg/s
	TurnAcceleration     int32 // mdeg/s²
}

// Validate checks all values are positive.
func (s *Settings) Validate() error {
	if s.StraightSpeed <= 0 || s.StraightAcceleration <= 0 || s.TurnRate <= 0 || s.TurnAcceleration <= 0 {
		return errors.Wrap(motor.ErrInvalidArgument, "drive settings must be positive")
	}
	return nil
}

// State is a snapshot of a drive base.
type State struct {
	Distance   int32 // mm
	DriveSpeed int32 // mm/s
	Angle      int64 // mdeg, clockwise
	TurnRate   int32 // mdeg/s
	Done       bool
	Stalled    bool
}

// DriveBase controls the two servos of a differential drive.
type DriveBase struct {
	left, right *servo.Servo
	geometry    Geometry
	settings    Settings
	axis        control.Settings

	distance *control.Control
	heading  *control.Control
	// commands of the servos when the drive base took them over.
	commands [2]uint64
}

// New creates a passive DriveBase. The left servo must turn forward for a
// positive angle, the right one too.
func New(left, right *servo.Servo, geometry Geometry) (*DriveBase, error) {
	if left == nil || right == nil || left == right || left.Port() == right.Port() {
		return nil, errors.Wrap(motor.ErrInvalidArgument, "drive base needs two servos")
	}
	if err := geometry.Validate(); err != nil {
		return nil, err
	}
	db := &DriveBase{
		left:     left,
		right:    right,
		geometry: geometry,
		axis:     left.Settings(),
	}
	// Default maneuvers run at 40% of the wheel speed limit.
	cruise, accel := int64(db.axis.MaxSpeed)*4/10, int64(db.axis.Acceleration)
	db.settings = Settings{
		StraightSpeed:        speed32(geometry.axisToMm(cruise)),
		StraightAcceleration: speed32(geometry.axisToMm(accel)),
		TurnRate:             speed32(geometry.axisToHeading(cruise)),
		TurnAcceleration:     speed32(geometry.axisToHeading(accel)),
	}
	if err := db.settings.Validate(); err != nil {
		return nil, err
	}
	db.snapshot()
	ff := feedforward{db}
	db.distance = control.New(db.distanceSettings(), ff)
	db.heading = control.New(db.headingSettings(), ff)
	return db, nil
}

// Servos returns the left and the right servo.
func (db *DriveBase) Servos() (*servo.Servo, *servo.Servo) {
	return db.left, db.right
}

// Geometry returns the geometry.
func (db *DriveBase) Geometry() Geometry {
	return db.geometry
}

// Settings returns the maneuver settings.
func (db *DriveBase) Settings() Settings {
	return db.settings
}

// SetSettings replaces the maneuver settings. The drive base must be
// passive.
func (db *DriveBase) SetSettings(s Settings) error {
	if db.Active() {
		return errors.Wrap(motor.ErrAgain, "settings change while driving")
	}
	if err := s.Validate(); err != nil {
		return err
	}
	db.settings = s
	if err := db.distance.SetSettings(db.distanceSettings()); err != nil {
		return err
	}
	return db.heading.SetSettings(db.headingSettings())
}

func (db *DriveBase) distanceSettings() control.Settings {
	s := db.axis
	s.Acceleration = speed32(db.geometry.mmToAxis(int64(db.settings.StraightAcceleration)))
	return s
}

func (db *DriveBase) headingSettings() control.Settings {
	s := db.axis
	s.Acceleration = speed32(db.geometry.headingToAxis(int64(db.settings.TurnAcceleration)))
	return s
}

type feedforward struct {
	db *DriveBase
}

// FeedforwardTorque implements control.Feedforward with the mean of both
// wheel models.
func (f feedforward) FeedforwardTorque(speed, accel int32) int32 {
	l := f.db.left.FeedforwardTorque(speed, accel)
	r := f.db.right.FeedforwardTorque(speed, accel)
	return int32((int64(l) + int64(r)) / 2)
}

// measurements returns the state of the distance and the heading axis.
func (db *DriveBase) measurements() (control.Measurement, control.Measurement) {
	l, r := db.left.Measurement(), db.right.Measurement()
	la, ra := l.Angle.Total(), r.Angle.Total()
	mean := func(a, b int32) int32 { return int32((int64(a) + int64(b)) / 2) }
	half := func(a, b int32) int32 { return int32((int64(a) - int64(b)) / 2) }
	distance := control.Measurement{
		Angle:          motor.AngleFromMillidegrees((la + ra) / 2),
		Speed:          mean(l.Speed, r.Speed),
		EstimatedSpeed: mean(l.EstimatedSpeed, r.EstimatedSpeed),
	}
	heading := control.Measurement{
		Angle:          motor.AngleFromMillidegrees((la - ra) / 2),
		Speed:          half(l.Speed, r.Speed),
		EstimatedSpeed: half(l.EstimatedSpeed, r.EstimatedSpeed),
	}
	return distance, heading
}

// Active reports whether the drive base controls the wheels.
func (db *DriveBase) Active() bool {
	return db.distance.Active() || db.heading.Active()
}

// Done reports whether the last maneuver completed.
func (db *DriveBase) Done() bool {
	return !db.Active() || db.distance.Done() && db.heading.Done()
}

// Stalled reports whether either axis stalled.
func (db *DriveBase) Stalled() bool {
	return db.distance.Stalled() || db.heading.Stalled()
}

// State returns a snapshot of the drive base.
func (db *DriveBase) State() State {
	dm, hm := db.measurements()
	return State{
		Distance:   speed32(db.geometry.axisToMm(dm.Angle.Total())),
		DriveSpeed: speed32(db.geometry.axisToMm(int64(dm.Speed))),
		Angle:      db.geometry.axisToHeading(hm.Angle.Total()),
		TurnRate:   speed32(db.geometry.axisToHeading(int64(hm.Speed))),
		Done:       db.Done(),
		Stalled:    db.Stalled(),
	}
}

// claim stops maneuvers the servos run by themselves and records their
// command counts.
func (db *DriveBase) claim(now motor.Ticks) error {
	for _, s := range []*servo.Servo{db.left, db.right} {
		if s.Active() {
			if err := s.Stop(now, motor.ThenCoast); err != nil {
				return err
			}
		}
	}
	db.snapshot()
	return nil
}

func (db *DriveBase) snapshot() {
	db.commands = [2]uint64{db.left.Commands(), db.right.Commands()}
}

// takenOver reports whether a servo received a command of its own.
func (db *DriveBase) takenOver() bool {
	return db.left.Commands() != db.commands[0] || db.right.Commands() != db.commands[1]
}

// start starts both axes. On failure the drive base is stopped.
func (db *DriveBase) start(now motor.Ticks, distance, heading control.Request) error {
	if err := db.claim(now); err != nil {
		return err
	}
	dm, hm := db.measurements()
	if err := db.distance.Start(now, dm, distance); err != nil {
		return db.abandon(err)
	}
	if err := db.heading.Start(now, hm, heading); err != nil {
		return db.abandon(err)
	}
	return nil
}

// hold returns a request holding the angle c holds, or the measured angle
// if c does not hold one.
func hold(c *control.Control, m control.Measurement) control.Request {
	target := m.Angle
	if c.Action() == control.ActionTrack {
		target = c.Trajectory().Target()
	}
	return control.Request{Action: control.ActionTrack, Target: target}
}

func validThen(then motor.Then) error {
	if then < motor.ThenCoast || then > motor.ThenContinue {
		return errors.Wrapf(motor.ErrInvalidArgument, "stop policy %d", then)
	}
	return nil
}

// Straight drives distance (mm), backwards if negative, keeping the
// heading.
func (db *DriveBase) Straight(now motor.Ticks, distance int32, then motor.Then) error {
	if err := validThen(then); err != nil {
		return err
	}
	dm, hm := db.measurements()
	return db.start(now, control.Request{
		Action: control.ActionRunTarget,
		Then:   then,
		Speed:  speed32(db.geometry.mmToAxis(int64(db.settings.StraightSpeed))),
		Target: dm.Angle.AddMillidegrees(db.geometry.mmToAxis(int64(distance))),
	}, hold(db.heading, hm))
}

// Turn turns in place by angle (mdeg), clockwise if positive.
func (db *DriveBase) Turn(now motor.Ticks, angle int64, then motor.Then) error {
	if err := validThen(then); err != nil {
		return err
	}
	dm, hm := db.measurements()
	return db.start(now, hold(db.distance, dm), control.Request{
		Action: control.ActionRunTarget,
		Then:   then,
		Speed:  speed32(db.geometry.headingToAxis(int64(db.settings.TurnRate))),
		Target: hm.Angle.AddMillidegrees(db.geometry.headingToAxis(angle)),
	})
}

// Curve drives along an arc of radius (mm) until the heading changed by
// angle (mdeg). A negative radius drives backwards. Both axes are timed to
// arrive together.
func (db *DriveBase) Curve(now motor.Ticks, radius int32, angle int64, then motor.Then) error {
	if err := validThen(then); err != nil {
		return err
	}
	arc := round(float64(radius) * float64(angle) * math.Pi / 180000)
	dd, dh := db.geometry.mmToAxis(arc), db.geometry.headingToAxis(angle)
	ds := db.geometry.mmToAxis(int64(db.settings.StraightSpeed))
	hs := db.geometry.headingToAxis(int64(db.settings.TurnRate))
	// Slow down the axis which would arrive first.
	switch ad, ah := fixmath.Abs(dd), fixmath.Abs(dh); {
	case ad == 0 || ah == 0:
	case ad*hs > ah*ds:
		hs = fixmath.Max(fixmath.MulDiv(ds, ah, ad), 1)
	default:
		ds = fixmath.Max(fixmath.MulDiv(hs, ad, ah), 1)
	}
	dm, hm := db.measurements()
	return db.start(now, control.Request{
		Action: control.ActionRunTarget,
		Then:   then,
		Speed:  speed32(ds),
		Target: dm.Angle.AddMillidegrees(dd),
	}, control.Request{
		Action: control.ActionRunTarget,
		Then:   then,
		Speed:  speed32(hs),
		Target: hm.Angle.AddMillidegrees(dh),
	})
}

// Drive runs at speed (mm/s) and turn rate (mdeg/s) until stopped.
func (db *DriveBase) Drive(now motor.Ticks, speed, turnRate int32) error {
	return db.start(now, control.Request{
		Action: control.ActionRun,
		Speed:  speed32(db.geometry.mmToAxis(int64(speed))),
	}, control.Request{
		Action: control.ActionRun,
		Speed:  speed32(db.geometry.headingToAxis(int64(turnRate))),
	})
}

// Stop ends the current maneuver.
func (db *DriveBase) Stop(now motor.Ticks, then motor.Then) error {
	switch then {
	case motor.ThenCoast:
		return db.passive(control.ActuationCoast)
	case motor.ThenBrake:
		return db.passive(control.ActuationBrake)
	case motor.ThenHold:
		dm, hm := db.measurements()
		return db.start(now,
			control.Request{Action: control.ActionTrack, Target: dm.Angle},
			control.Request{Action: control.ActionTrack, Target: hm.Angle})
	}
	return errors.Wrapf(motor.ErrInvalidArgument, "stop policy %s", then)
}

// Reset stops the drive base and makes the current position the origin of
// distance and heading.
func (db *DriveBase) Reset(now motor.Ticks) error {
	if err := db.passive(control.ActuationCoast); err != nil {
		return err
	}
	if err := db.left.ResetAngle(now, motor.Angle{}); err != nil {
		return err
	}
	if err := db.right.ResetAngle(now, motor.Angle{}); err != nil {
		return err
	}
	db.snapshot()
	return nil
}

// passive stops both axes and applies actuation to the wheels. A servo
// taken over by a command of its own is left alone.
func (db *DriveBase) passive(actuation control.Actuation) error {
	db.distance.Stop()
	db.heading.Stop()
	out := control.Output{Actuation: actuation}
	for i, s := range []*servo.Servo{db.left, db.right} {
		if s.Commands() != db.commands[i] {
			continue
		}
		if err := s.Actuate(out); err != nil {
			return err
		}
	}
	return nil
}

// Update runs one loop period. The servos must have been updated in the
// same period.
func (db *DriveBase) Update(now motor.Ticks) error {
	if !db.Active() {
		return nil
	}
	if db.takenOver() {
		glog.V(2).Info("drive base: servo taken over")
		return db.passive(control.ActuationCoast)
	}
	dm, hm := db.measurements()
	dOut := db.distance.Update(now, dm)
	hOut := db.heading.Update(now, hm)
	for _, out := range []control.Output{dOut, hOut} {
		if out.Actuation != control.ActuationTorque {
			return db.passive(out.Actuation)
		}
	}
	limit := int64(db.axis.MaxTorque)
	left := fixmath.Clamp(int64(dOut.Torque)+int64(hOut.Torque), limit)
	right := fixmath.Clamp(int64(dOut.Torque)-int64(hOut.Torque), limit)
	if err := db.left.Actuate(control.Output{Actuation: control.ActuationTorque, Torque: int32(left)}); err != nil {
		return db.fail(db.left, err)
	}
	if err := db.right.Actuate(control.Output{Actuation: control.ActuationTorque, Torque: int32(right)}); err != nil {
		return db.fail(db.right, err)
	}
	return nil
}

// fail stops the drive base after an actuation error of s.
func (db *DriveBase) fail(s *servo.Servo, err error) error {
	return db.abandon(errors.Wrapf(err, "port %s", s.Port()))
}

// abandon lets the wheels coast after err.
func (db *DriveBase) abandon(err error) error {
	if cerr := db.passive(control.ActuationCoast); cerr != nil {
		glog.Warningf("drive base: coast after %v: %v", err, cerr)
	}
	return err
}
