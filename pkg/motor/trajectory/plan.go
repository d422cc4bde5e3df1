package trajectory

import (
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
)

// Command describes a motion request.
type Command struct {
	Kind Kind
	Then motor.Then

	// Start is the time the motion starts.
	Start motor.Ticks
	// Position and Speed are the state at Start.
	Position motor.Angle
	Speed    int32

	// Target is the final angle of an angle command.
	Target motor.Angle
	// Duration is the length of a time command in ticks, or DurationForever.
	Duration int32

	// TargetSpeed is the cruise speed. Its sign sets the direction of time
	// commands and is ignored by angle commands.
	TargetSpeed  int32
	MaxSpeed     int32
	Acceleration int32
}

// Plan plans cmd according to its kind.
func Plan(cmd Command) (*Trajectory, error) {
	switch cmd.Kind {
	case KindTime:
		return PlanByDuration(cmd)
	case KindAngle:
		return PlanByTarget(cmd)
	case KindNone:
		return Stationary(cmd.Start, cmd.Position), nil
	}
	return nil, errors.Wrapf(motor.ErrInvalidArgument, "trajectory kind %d", cmd.Kind)
}

// PlanByDuration plans a profile which runs at TargetSpeed for Duration. With
// any stop policy other than continue, the profile comes to rest exactly at
// the end of Duration; otherwise it keeps the speed reached.
func PlanByDuration(cmd Command) (*Trajectory, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	forever := cmd.Duration == DurationForever
	if !forever && cmd.Duration < 0 {
		return nil, errors.Wrapf(motor.ErrInvalidArgument, "duration %d", cmd.Duration)
	}
	a, wmax := int64(cmd.Acceleration), int64(cmd.MaxSpeed)
	wt, w0 := fixmath.Clamp(int64(cmd.TargetSpeed), wmax), fixmath.Clamp(int64(cmd.Speed), wmax)
	backward := wt < 0 || (wt == 0 && w0 < 0)
	if backward {
		wt, w0 = -wt, -w0
	}
	var p profile
	d := int64(cmd.Duration)
	if forever || cmd.Then == motor.ThenContinue {
		p.planRun(w0, wt, a, d, forever)
	} else {
		p.planTimedStop(w0, wt, a, d)
	}
	if backward {
		p.mirror()
	}
	return p.build(cmd, KindTime)
}

// PlanByTarget plans a profile from Position to Target cruising at
// |TargetSpeed|. With the continue policy the profile reaches Target still
// moving and keeps going.
func PlanByTarget(cmd Command) (*Trajectory, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	if cmd.TargetSpeed == 0 {
		return nil, errors.Wrap(motor.ErrInvalidArgument, "zero target speed")
	}
	th3 := cmd.Target.Sub(cmd.Position)
	if th3 > MaxDistance || th3 < -MaxDistance {
		return nil, errors.Wrapf(motor.ErrInvalidArgument, "target %v too far from %v", cmd.Target, cmd.Position)
	}
	if th3 == 0 {
		tr := Stationary(cmd.Start, cmd.Target)
		tr.Kind, tr.Then = KindAngle, cmd.Then
		return tr, nil
	}
	a, wmax := int64(cmd.Acceleration), int64(cmd.MaxSpeed)
	wt, w0 := fixmath.Min(fixmath.Abs(int64(cmd.TargetSpeed)), wmax), fixmath.Clamp(int64(cmd.Speed), wmax)
	backward := th3 < 0
	if backward {
		th3, w0 = -th3, -w0
	}
	var p profile
	p.planTarget(th3, w0, wt, a, cmd.Then == motor.ThenContinue)
	if backward {
		p.mirror()
	}
	return p.build(cmd, KindAngle)
}

// MaxDistance is the largest distance an angle command may travel.
const MaxDistance = 1<<31 - 1

func (cmd *Command) validate() error {
	if cmd.Acceleration <= 0 || cmd.Acceleration > MaxAcceleration {
		return errors.Wrapf(motor.ErrInvalidArgument, "acceleration %d", cmd.Acceleration)
	}
	if cmd.MaxSpeed <= 0 || cmd.MaxSpeed > MaxSpeed {
		return errors.Wrapf(motor.ErrInvalidArgument, "max speed %d", cmd.MaxSpeed)
	}
	return nil
}

// profile is a trajectory in forward form: the motion goes in the positive
// direction and all values are int64.
type profile struct {
	t1, t2, t3    int64
	th1, th2, th3 int64
	w0, w1, w3    int64
	a0, a2        int64
	forever       bool
}

// planRun ramps to wt and cruises. If finite, it ends after d still moving.
func (p *profile) planRun(w0, wt, a, d int64, forever bool) {
	p.w0, p.w1 = w0, wt
	p.a0 = a
	if w0 > wt {
		p.a0 = -a
	}
	p.t1 = rampTime(wt-w0, a)
	if forever {
		p.forever = true
		p.th1 = averageDistance(w0, wt, p.t1)
		p.t2, p.t3, p.th2, p.th3, p.w3 = p.t1, p.t1, p.th1, p.th1, wt
		return
	}
	if p.t1 > d {
		p.t1 = d
		p.w1 = w0 + speedChange(p.a0, d)
	}
	p.th1 = averageDistance(w0, p.w1, p.t1)
	p.t2, p.t3 = d, d
	p.th2 = p.th1 + distance(p.w1, d-p.t1)
	p.th3, p.w3 = p.th2, p.w1
}

// planTimedStop ramps towards wt and back to rest exactly at d.
func (p *profile) planTimedStop(w0, wt, a, d int64) {
	// The initial speed must allow stopping within d.
	w0 = fixmath.Clamp(w0, speedChange(a, d))
	p.w0 = w0
	if w0 < wt {
		p.a0 = a
		up, down := rampTime(wt-w0, a), rampTime(wt, a)
		if up+down <= d {
			p.w1, p.t1, p.t2 = wt, up, d-down
		} else {
			// Cruise speed is not reachable: peak where ramps meet.
			p.w1 = (speedChange(a, d) + w0) / 2
			p.t1 = rampTime(p.w1-w0, a)
			p.t2 = p.t1
		}
	} else {
		p.a0 = -a
		p.w1 = wt
		p.t1 = rampTime(w0-wt, a)
		p.t2 = fixmath.Max(d-rampTime(wt, a), p.t1)
	}
	p.t3, p.a2, p.w3 = d, -a, 0
	p.th1 = averageDistance(w0, p.w1, p.t1)
	p.th2 = p.th1 + distance(p.w1, p.t2-p.t1)
	p.th3 = p.th2 + averageDistance(p.w1, 0, p.t3-p.t2)
}

// planTarget plans a profile ending at th3 > 0.
func (p *profile) planTarget(th3, w0, wt, a int64, cont bool) {
	var w3 int64
	if cont {
		w3 = wt
	}
	// If the target can no longer be reached at w3 from w0, pretend the
	// motor started slower.
	if w0 > 0 && w0*w0-w3*w3 > 2*a*th3 {
		w0 = fixmath.Sqrt(2*a*th3 + w3*w3)
	}
	// Position where an acceleration from rest would have reached w0.
	thf := -w0 * w0 / (2 * a)

	w1 := wt
	p.a0 = -a
	if w0 < wt {
		p.a0 = a
		th1 := thf + wt*wt/(2*a)
		switch {
		case cont && th1 > th3:
			// Not fast enough before the target, keep accelerating.
			w1 = fixmath.Sqrt(2 * a * (th3 - thf))
			w3 = w1
		case !cont && th1 > th3-(wt*wt-w3*w3)/(2*a):
			w1 = fixmath.Sqrt(a*(th3-thf) + w3*w3/2)
		}
	}

	p.w0, p.w1, p.w3, p.th3 = w0, w1, w3, th3
	p.t1 = rampTime(w1-w0, a)
	p.th1 = averageDistance(w0, w1, p.t1)
	cruiseEnd := fixmath.Max(th3-(w1*w1-w3*w3)/(2*a), p.th1)
	p.t2 = p.t1
	if w1 > 0 {
		p.t2 += fixmath.MulDiv(cruiseEnd-p.th1, motor.TicksPerSecond, w1)
	}
	p.t3 = p.t2 + rampTime(w1-w3, a)
	p.a2 = -a
	// t2 is truncated to a tick: start the ramp-out where it evaluates at
	// t2, not where the cruise line ends.
	sigma := p.t3 - p.t2
	p.th2 = th3 - distance(w3, sigma) + rampDistance(p.a2, sigma)
}

func (p *profile) mirror() {
	p.th1, p.th2, p.th3 = -p.th1, -p.th2, -p.th3
	p.w0, p.w1, p.w3 = -p.w0, -p.w1, -p.w3
	p.a0, p.a2 = -p.a0, -p.a2
}

func (p *profile) build(cmd Command, kind Kind) (*Trajectory, error) {
	if p.t3 > MaxDuration {
		return nil, errors.Wrapf(motor.ErrInvalidArgument, "maneuver takes %d ticks", p.t3)
	}
	if p.t1 == 0 {
		p.a0 = 0
	}
	if p.forever || p.t3 == p.t2 {
		p.a2 = 0
	}
	return &Trajectory{
		Kind:    kind,
		Then:    cmd.Then,
		Start:   cmd.Start,
		Origin:  cmd.Position,
		Forever: p.forever,
		T1:      int32(p.t1),
		T2:      int32(p.t2),
		T3:      int32(p.t3),
		Th1:     p.th1,
		Th2:     p.th2,
		Th3:     p.th3,
		W0:      int32(p.w0),
		W1:      int32(p.w1),
		W3:      int32(p.w3),
		A0:      int32(p.a0),
		A2:      int32(p.a2),
	}, nil
}
