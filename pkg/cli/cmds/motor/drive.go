package motor

import (
	"math"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/servo.go/pkg/cli/sh"
	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1/msgs"
	pb "github.com/robotalks/servo.go/pkg/proto/l1/v1"
)

// mm reads millimeters.
func (a *args) mm(name string) int32 {
	return int32(math.Round(a.float(name)))
}

// um reads millimeters in micrometers.
func (a *args) um(name string) int32 {
	return int32(math.Round(a.float(name) * 1000))
}

var (
	// DriveSetupCmd exposes DriveBaseSetup command.
	DriveSetupCmd = ishell.Cmd{
		Name:    "drive.setup",
		Aliases: []string{"ds"},
		Help:    "LEFT RIGHT WHEEL-DIAMETER(mm) AXLE-TRACK(mm)",
		Func:    command(driveSetupMsg),
	}

	// DriveStraightCmd exposes DriveBaseStraight command.
	DriveStraightCmd = ishell.Cmd{
		Name:    "drive.straight",
		Aliases: []string{"dst"},
		Help:    "DISTANCE(mm) [coast|brake|hold|continue]",
		Func: command(func(a *args) fx.Message {
			m := &msgs.DriveBaseStraight{DriveBaseStraight: pb.DriveBaseStraight{Distance: a.mm("DISTANCE")}}
			m.Then = a.then()
			return m
		}),
	}

	// DriveTurnCmd exposes DriveBaseTurn command.
	DriveTurnCmd = ishell.Cmd{
		Name:    "drive.turn",
		Aliases: []string{"dt"},
		Help:    "ANGLE(deg) [coast|brake|hold|continue]",
		Func: command(func(a *args) fx.Message {
			m := &msgs.DriveBaseTurn{DriveBaseTurn: pb.DriveBaseTurn{Angle: a.mdeg("ANGLE")}}
			m.Then = a.then()
			return m
		}),
	}

	// DriveCurveCmd exposes DriveBaseCurve command.
	DriveCurveCmd = ishell.Cmd{
		Name:    "drive.curve",
		Aliases: []string{"dcv"},
		Help:    "RADIUS(mm) ANGLE(deg) [coast|brake|hold|continue]",
		Func: command(func(a *args) fx.Message {
			m := &msgs.DriveBaseCurve{DriveBaseCurve: pb.DriveBaseCurve{Radius: a.mm("RADIUS")}}
			m.Angle = a.mdeg("ANGLE")
			m.Then = a.then()
			return m
		}),
	}

	// DriveCmd exposes DriveBaseDrive command.
	DriveCmd = ishell.Cmd{
		Name:    "drive.drive",
		Aliases: []string{"dd"},
		Help:    "SPEED(mm/s) TURN-RATE(deg/s)",
		Func: command(func(a *args) fx.Message {
			m := &msgs.DriveBaseDrive{DriveBaseDrive: pb.DriveBaseDrive{Speed: a.mm("SPEED")}}
			m.TurnRate = int32(a.mdeg("TURN-RATE"))
			return m
		}),
	}

	// DriveStopCmd exposes DriveBaseStop command.
	DriveStopCmd = ishell.Cmd{
		Name:    "drive.stop",
		Aliases: []string{"dx"},
		Help:    "[coast|brake|hold]",
		Func: command(func(a *args) fx.Message {
			return &msgs.DriveBaseStop{DriveBaseStop: pb.DriveBaseStop{Then: a.then()}}
		}),
	}

	// DriveResetCmd exposes DriveBaseResetState command.
	DriveResetCmd = ishell.Cmd{
		Name:    "drive.reset",
		Aliases: []string{"dz"},
		Func: command(func(a *args) fx.Message {
			return &msgs.DriveBaseResetState{}
		}),
	}

	// DriveStateCmd exposes DriveBaseStateQuery command.
	DriveStateCmd = ishell.Cmd{
		Name:    "drive.state",
		Aliases: []string{"dq"},
		Func: command(func(a *args) fx.Message {
			return &msgs.DriveBaseStateQuery{}
		}),
	}

	// DriveSettingsCmd exposes DriveBaseSettings and DriveBaseSettingsQuery
	// commands.
	DriveSettingsCmd = ishell.Cmd{
		Name:    "drive.settings",
		Aliases: []string{"dcfg"},
		Help:    "[KEY=VALUE...] (straight_speed straight_acceleration in mm, turn_rate turn_acceleration in deg)",
		Func:    command(driveSettingsMsg),
	}

	// DriveWaitCmd waits for the DriveBaseDoneEvent.
	DriveWaitCmd = ishell.Cmd{
		Name:    "drive.wait",
		Aliases: []string{"dw"},
		Help:    "[TIMEOUT(s)]",
		Func: wait(func(a *args) func(fx.Message) bool {
			return func(msg fx.Message) bool {
				_, ok := msg.(*msgs.DriveBaseDoneEvent)
				return ok
			}
		}),
	}
)

func driveSetupMsg(a *args) fx.Message {
	m := &msgs.DriveBaseSetup{DriveBaseSetup: pb.DriveBaseSetup{Left: a.port(), Right: a.port()}}
	m.WheelDiameter = a.um("WHEEL-DIAMETER")
	m.AxleTrack = a.um("AXLE-TRACK")
	return m
}

// driveSettingsMsg builds a query without settings, and an update
// otherwise.
func driveSettingsMsg(a *args) fx.Message {
	if !a.more() {
		return &msgs.DriveBaseSettingsQuery{}
	}
	m := &msgs.DriveBaseSettings{}
	a.settings(map[string]setting{
		"straight_speed":        raw(&m.StraightSpeed),
		"straight_acceleration": raw(&m.StraightAcceleration),
		"turn_rate":             milli(&m.TurnRate),
		"turn_acceleration":     milli(&m.TurnAcceleration),
	})
	return m
}

func init() {
	sh.AddCmds(
		&DriveSetupCmd,
		&DriveStraightCmd,
		&DriveTurnCmd,
		&DriveCurveCmd,
		&DriveCmd,
		&DriveStopCmd,
		&DriveResetCmd,
		&DriveStateCmd,
		&DriveSettingsCmd,
		&DriveWaitCmd,
	)
}
