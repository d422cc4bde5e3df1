// Package motor provides the shell commands of the motor servos and the
// drive base. Angles and speeds are entered in degrees, distances in
// millimeters and duty cycles in percent.
package motor

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/cli/sh"
	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1/msgs"
	"github.com/robotalks/servo.go/pkg/motor"
	pb "github.com/robotalks/servo.go/pkg/proto/l1/v1"
)

// args parses positional command arguments. The first error is kept and
// later reads are no-ops.
type args struct {
	items []string
	pos   int
	err   error
}

func (a *args) next(name string) (string, bool) {
	if a.err != nil {
		return "", false
	}
	if a.pos >= len(a.items) {
		a.err = errors.Errorf("%s required", name)
		return "", false
	}
	a.pos++
	return a.items[a.pos-1], true
}

func (a *args) more() bool {
	return a.err == nil && a.pos < len(a.items)
}

func (a *args) port() uint32 {
	s, ok := a.next("PORT")
	if !ok {
		return 0
	}
	port, err := motor.ParsePort(s)
	a.err = err
	return uint32(port)
}

func (a *args) float(name string) float64 {
	s, ok := a.next(name)
	if !ok {
		return 0
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		a.err = errors.Errorf("invalid %s: %v", name, err)
	}
	return val
}

// mdeg reads degrees in millidegrees.
func (a *args) mdeg(name string) int64 {
	return int64(math.Round(a.float(name) * 1000))
}

func (a *args) speed() int32 {
	return int32(a.mdeg("SPEED"))
}

// setting is a message field set by KEY=VALUE, with the factor from the
// entered value to the message unit.
type setting struct {
	dst   *int32
	scale float64
}

func raw(dst *int32) setting   { return setting{dst: dst, scale: 1} }
func milli(dst *int32) setting { return setting{dst: dst, scale: 1000} }

// settings reads the remaining KEY=VALUE arguments into keys.
func (a *args) settings(keys map[string]setting) {
	for a.more() {
		kv, _ := a.next("KEY=VALUE")
		parts := strings.SplitN(kv, "=", 2)
		field, ok := keys[parts[0]]
		if len(parts) != 2 || !ok {
			a.err = errors.Errorf("invalid setting %q", kv)
			return
		}
		val, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			a.err = errors.Errorf("invalid %s: %v", parts[0], err)
			return
		}
		*field.dst = int32(math.Round(val * field.scale))
	}
}

// gear parses the teeth of a gear train given as MOTOR:OUTPUT.
func gear(s string) (int32, int32, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("invalid gears %q", s)
	}
	in, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return 0, 0, errors.Errorf("invalid gears %q", s)
	}
	out, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return 0, 0, errors.Errorf("invalid gears %q", s)
	}
	return int32(in), int32(out), nil
}

// then reads an optional stop policy, hold by default.
func (a *args) then() int32 {
	if !a.more() {
		return int32(motor.ThenHold)
	}
	s, _ := a.next("THEN")
	then, err := motor.ParseThen(s)
	a.err = err
	return int32(then)
}

// command wraps a message builder into a shell func.
func command(build func(*args) fx.Message) func(c *ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		a := &args{items: c.Args}
		msg := build(a)
		if a.err != nil {
			c.Err(a.err)
			return
		}
		sh.DoCommand(c, msg)
	})
}

var (
	// SetupCmd exposes MotorSetup command.
	SetupCmd = ishell.Cmd{
		Name:    "motor.setup",
		Aliases: []string{"ms"},
		Help:    "PORT [ccw] [reset] [gear=MOTOR:OUTPUT]",
		Func:    command(setupMsg),
	}

	// SettingsCmd exposes MotorSettings and MotorSettingsQuery commands.
	SettingsCmd = ishell.Cmd{
		Name:    "motor.settings",
		Aliases: []string{"mcfg"},
		Help:    "PORT [KEY=VALUE...] (max_speed acceleration speed_tolerance position_tolerance stall_speed in deg, stall_time(ms) kp ki kd integral_rate max_torque(µNm))",
		Func:    command(settingsMsg),
	}

	// RunCmd exposes MotorRun command.
	RunCmd = ishell.Cmd{
		Name:    "motor.run",
		Aliases: []string{"mr"},
		Help:    "PORT SPEED(deg/s)",
		Func: command(func(a *args) fx.Message {
			return &msgs.MotorRun{MotorRun: pb.MotorRun{Port: a.port(), Speed: a.speed()}}
		}),
	}

	// RunTimeCmd exposes MotorRunTime command.
	RunTimeCmd = ishell.Cmd{
		Name:    "motor.runtime",
		Aliases: []string{"mrt"},
		Help:    "PORT SPEED(deg/s) TIME(ms) [coast|brake|hold|continue]",
		Func: command(func(a *args) fx.Message {
			m := &msgs.MotorRunTime{MotorRunTime: pb.MotorRunTime{Port: a.port(), Speed: a.speed()}}
			m.Duration = int32(a.float("TIME"))
			m.Then = a.then()
			return m
		}),
	}

	// RunAngleCmd exposes MotorRunAngle command.
	RunAngleCmd = ishell.Cmd{
		Name:    "motor.angle",
		Aliases: []string{"ma"},
		Help:    "PORT SPEED(deg/s) ANGLE(deg) [coast|brake|hold|continue]",
		Func: command(func(a *args) fx.Message {
			m := &msgs.MotorRunAngle{MotorRunAngle: pb.MotorRunAngle{Port: a.port(), Speed: a.speed()}}
			m.Angle = a.mdeg("ANGLE")
			m.Then = a.then()
			return m
		}),
	}

	// RunTargetCmd exposes MotorRunTarget command.
	RunTargetCmd = ishell.Cmd{
		Name:    "motor.target",
		Aliases: []string{"mt"},
		Help:    "PORT SPEED(deg/s) TARGET(deg) [coast|brake|hold|continue]",
		Func: command(func(a *args) fx.Message {
			m := &msgs.MotorRunTarget{MotorRunTarget: pb.MotorRunTarget{Port: a.port(), Speed: a.speed()}}
			m.Target = a.mdeg("TARGET")
			m.Then = a.then()
			return m
		}),
	}

	// RunUntilStalledCmd exposes MotorRunUntilStalled command.
	RunUntilStalledCmd = ishell.Cmd{
		Name:    "motor.stalled",
		Aliases: []string{"mus"},
		Help:    "PORT SPEED(deg/s) [coast|brake|hold]",
		Func: command(func(a *args) fx.Message {
			m := &msgs.MotorRunUntilStalled{MotorRunUntilStalled: pb.MotorRunUntilStalled{Port: a.port(), Speed: a.speed()}}
			m.Then = a.then()
			return m
		}),
	}

	// TrackCmd exposes MotorTrackTarget command.
	TrackCmd = ishell.Cmd{
		Name:    "motor.track",
		Aliases: []string{"mtt"},
		Help:    "PORT TARGET(deg)",
		Func: command(func(a *args) fx.Message {
			return &msgs.MotorTrackTarget{MotorTrackTarget: pb.MotorTrackTarget{Port: a.port(), Target: a.mdeg("TARGET")}}
		}),
	}

	// StopCmd exposes MotorStop command.
	StopCmd = ishell.Cmd{
		Name:    "motor.stop",
		Aliases: []string{"mx"},
		Help:    "PORT [coast|brake|hold]",
		Func: command(func(a *args) fx.Message {
			m := &msgs.MotorStop{MotorStop: pb.MotorStop{Port: a.port()}}
			m.Then = a.then()
			return m
		}),
	}

	// DcCmd exposes MotorDc command.
	DcCmd = ishell.Cmd{
		Name:    "motor.dc",
		Aliases: []string{"md"},
		Help:    "PORT DUTY(%)",
		Func: command(func(a *args) fx.Message {
			m := &msgs.MotorDc{MotorDc: pb.MotorDc{Port: a.port()}}
			m.Duty = int32(math.Round(a.float("DUTY") * motor.MaxDuty / 100))
			return m
		}),
	}

	// ResetAngleCmd exposes MotorResetAngle command.
	ResetAngleCmd = ishell.Cmd{
		Name:    "motor.reset",
		Aliases: []string{"mz"},
		Help:    "PORT [ANGLE(deg)]",
		Func: command(func(a *args) fx.Message {
			m := &msgs.MotorResetAngle{MotorResetAngle: pb.MotorResetAngle{Port: a.port()}}
			if a.more() {
				m.Angle = a.mdeg("ANGLE")
			}
			return m
		}),
	}

	// StateCmd exposes MotorStateQuery command.
	StateCmd = ishell.Cmd{
		Name:    "motor.state",
		Aliases: []string{"mq"},
		Help:    "PORT",
		Func: command(func(a *args) fx.Message {
			return &msgs.MotorStateQuery{MotorStateQuery: pb.MotorStateQuery{Port: a.port()}}
		}),
	}

	// WaitCmd waits for the MotorDoneEvent of a port.
	WaitCmd = ishell.Cmd{
		Name:    "motor.wait",
		Aliases: []string{"mw"},
		Help:    "PORT [TIMEOUT(s)]",
		Func: wait(func(a *args) func(fx.Message) bool {
			port := a.port()
			return func(msg fx.Message) bool {
				done, ok := msg.(*msgs.MotorDoneEvent)
				return ok && done.Port == port
			}
		}),
	}
)

// wait builds a shell func waiting for the first event matching the
// matcher built from the arguments, followed by an optional timeout.
func wait(matcher func(*args) func(fx.Message) bool) func(c *ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		a := &args{items: c.Args}
		match := matcher(a)
		timeout := 10 * time.Second
		if a.more() {
			timeout = time.Duration(a.float("TIMEOUT") * float64(time.Second))
		}
		if a.err != nil {
			c.Err(a.err)
			return
		}
		s := sh.ShellFrom(c)
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ev, err := s.WaitEvent(ctx, match)
		if err == nil {
			err = s.Print(c, ev)
		}
		if err != nil {
			c.Err(err)
		}
	})
}

func setupMsg(a *args) fx.Message {
	m := &msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: a.port()}}
	for a.more() {
		switch opt, _ := a.next("OPTION"); {
		case opt == "ccw":
			m.Counterclockwise = true
		case opt == "reset":
			m.ResetAngle = true
		case strings.HasPrefix(opt, "gear="):
			m.GearMotor, m.GearOutput, a.err = gear(strings.TrimPrefix(opt, "gear="))
		default:
			a.err = errors.Errorf("unknown option %q", opt)
		}
	}
	return m
}

// settingsMsg builds a query without settings, and an update otherwise.
func settingsMsg(a *args) fx.Message {
	port := a.port()
	if !a.more() {
		return &msgs.MotorSettingsQuery{MotorSettingsQuery: pb.MotorSettingsQuery{Port: port}}
	}
	m := &msgs.MotorSettings{MotorSettings: pb.MotorSettings{Port: port}}
	a.settings(map[string]setting{
		"max_speed":          milli(&m.MaxSpeed),
		"acceleration":       milli(&m.Acceleration),
		"speed_tolerance":    milli(&m.SpeedTolerance),
		"position_tolerance": milli(&m.PositionTolerance),
		"stall_speed":        milli(&m.StallSpeed),
		"stall_time":         raw(&m.StallTime),
		"kp":                 raw(&m.Kp),
		"ki":                 raw(&m.Ki),
		"kd":                 raw(&m.Kd),
		"integral_rate":      milli(&m.IntegralRate),
		"max_torque":         raw(&m.MaxTorque),
	})
	return m
}

func init() {
	sh.AddCmds(
		&SetupCmd,
		&SettingsCmd,
		&RunCmd,
		&RunTimeCmd,
		&RunAngleCmd,
		&RunTargetCmd,
		&RunUntilStalledCmd,
		&TrackCmd,
		&StopCmd,
		&DcCmd,
		&ResetAngleCmd,
		&StateCmd,
		&WaitCmd,
	)
}
