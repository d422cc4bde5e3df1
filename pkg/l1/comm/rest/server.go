// Package rest exposes the motor commands of a controller over HTTP.
//
// All values use the units of the L1 messages: angles in millidegrees,
// speeds in millidegrees per second and durations in milliseconds. Drive
// base distances are in millimeters.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1"
	"github.com/robotalks/servo.go/pkg/l1/msgs"
	"github.com/robotalks/servo.go/pkg/motor"
	pb "github.com/robotalks/servo.go/pkg/proto/l1/v1"
)

// DefaultTimeout is the time to wait for a command reply.
const DefaultTimeout = time.Second

// Dispatcher executes a command and returns the reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg fx.Message) (fx.Message, error)
}

// DispatchFunc is the func form of Dispatcher.
type DispatchFunc func(context.Context, fx.Message) (fx.Message, error)

// Dispatch implements Dispatcher.
func (f DispatchFunc) Dispatch(ctx context.Context, msg fx.Message) (fx.Message, error) {
	return f(ctx, msg)
}

// Server serves the REST API.
type Server struct {
	Addr    string
	Timeout time.Duration
	// Dispatcher defaults to posting commands into the loop Server runs in.
	Dispatcher Dispatcher
}

// Handler builds the routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/ports/{port}", func(r chi.Router) {
		r.Get("/", s.handle(stateQuery))
		r.Post("/setup", s.handle(setup))
		r.Post("/run", s.handle(run))
		r.Post("/run-time", s.handle(runTime))
		r.Post("/run-angle", s.handle(runAngle))
		r.Post("/run-target", s.handle(runTarget))
		r.Post("/run-until-stalled", s.handle(runUntilStalled))
		r.Post("/track", s.handle(track))
		r.Post("/stop", s.handle(stop))
		r.Post("/dc", s.handle(dc))
		r.Post("/reset-angle", s.handle(resetAngle))
		r.Get("/settings", s.handle(settingsQuery))
		r.Post("/settings", s.handle(settings))
	})
	r.Route("/drivebase", func(r chi.Router) {
		r.Get("/", s.handleDrive(driveStateQuery))
		r.Post("/setup", s.handleDrive(driveSetup))
		r.Post("/straight", s.handleDrive(driveStraight))
		r.Post("/turn", s.handleDrive(driveTurn))
		r.Post("/curve", s.handleDrive(driveCurve))
		r.Post("/drive", s.handleDrive(drive))
		r.Post("/stop", s.handleDrive(driveStop))
		r.Post("/reset", s.handleDrive(driveReset))
		r.Get("/settings", s.handleDrive(driveSettingsQuery))
		r.Post("/settings", s.handleDrive(driveSettings))
	})
	return r
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	if s.Dispatcher == nil {
		s.Dispatcher = &LoopDispatcher{Loop: fx.LoopCtlFrom(ctx)}
	}
	srv := &http.Server{Addr: s.Addr, Handler: s.Handler()}
	glog.Infof("REST API listening on %s", s.Addr)
	return fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(l *fx.Loop) {
	l.AddRunnable(s)
}

// request builds a command for port from the request body.
type request func(port uint32, body *Body) fx.Message

// driveRequest builds a drive base command from the request body.
type driveRequest func(body *Body) fx.Message

func (s *Server) handle(build request) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		port, err := motor.ParsePort(chi.URLParam(r, "port"))
		if err != nil {
			render.Render(w, r, ErrResponseFrom(err))
			return
		}
		s.serve(w, r, func(body *Body) fx.Message { return build(uint32(port), body) })
	}
}

func (s *Server) handleDrive(build driveRequest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serve(w, r, build)
	}
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, build driveRequest) {
	body := &Body{then: motor.ThenHold}
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		if err := render.Bind(r, body); err != nil {
			render.Render(w, r, ErrResponseFrom(errors.Wrapf(motor.ErrInvalidArgument, "request: %v", err)))
			return
		}
	}
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	reply, err := s.Dispatcher.Dispatch(ctx, build(body))
	if err != nil {
		render.Render(w, r, ErrResponseFrom(err))
		return
	}
	switch m := reply.(type) {
	case *msgs.CommandErr:
		render.Render(w, r, ErrResponseFrom(m.Err()))
	case *msgs.MotorState:
		render.Render(w, r, stateFrom(&m.MotorState))
	case *msgs.MotorSettings:
		render.Render(w, r, settingsFrom(&m.MotorSettings))
	case *msgs.DriveBaseState:
		render.Render(w, r, &DriveStateResponse{
			Distance:   m.Distance,
			DriveSpeed: m.DriveSpeed,
			Angle:      m.Angle,
			TurnRate:   m.TurnRate,
			Done:       m.Done,
			Stalled:    m.Stalled,
		})
	case *msgs.DriveBaseSettings:
		render.Render(w, r, &DriveSettingsResponse{
			StraightSpeed:        m.StraightSpeed,
			StraightAcceleration: m.StraightAcceleration,
			TurnRate:             m.TurnRate,
			TurnAcceleration:     m.TurnAcceleration,
		})
	default:
		render.Render(w, r, &OKResponse{OK: true})
	}
}

func stateQuery(port uint32, _ *Body) fx.Message {
	return &msgs.MotorStateQuery{MotorStateQuery: pb.MotorStateQuery{Port: port}}
}

func setup(port uint32, b *Body) fx.Message {
	return &msgs.MotorSetup{MotorSetup: pb.MotorSetup{
		Port:             port,
		Counterclockwise: b.Counterclockwise,
		DutyOffset:       b.DutyOffset,
		MaxDuty:          b.MaxDuty,
		ResetAngle:       b.ResetAngle,
		GearMotor:        b.GearMotor,
		GearOutput:       b.GearOutput,
	}}
}

func run(port uint32, b *Body) fx.Message {
	return &msgs.MotorRun{MotorRun: pb.MotorRun{Port: port, Speed: b.Speed}}
}

func runTime(port uint32, b *Body) fx.Message {
	return &msgs.MotorRunTime{MotorRunTime: pb.MotorRunTime{
		Port: port, Speed: b.Speed, Duration: b.Duration, Then: int32(b.then),
	}}
}

func runAngle(port uint32, b *Body) fx.Message {
	return &msgs.MotorRunAngle{MotorRunAngle: pb.MotorRunAngle{
		Port: port, Speed: b.Speed, Angle: b.Angle, Then: int32(b.then),
	}}
}

func runTarget(port uint32, b *Body) fx.Message {
	return &msgs.MotorRunTarget{MotorRunTarget: pb.MotorRunTarget{
		Port: port, Speed: b.Speed, Target: b.Target, Then: int32(b.then),
	}}
}

func runUntilStalled(port uint32, b *Body) fx.Message {
	return &msgs.MotorRunUntilStalled{MotorRunUntilStalled: pb.MotorRunUntilStalled{
		Port: port, Speed: b.Speed, Then: int32(b.then),
	}}
}

func track(port uint32, b *Body) fx.Message {
	return &msgs.MotorTrackTarget{MotorTrackTarget: pb.MotorTrackTarget{Port: port, Target: b.Target}}
}

func stop(port uint32, b *Body) fx.Message {
	return &msgs.MotorStop{MotorStop: pb.MotorStop{Port: port, Then: int32(b.then)}}
}

func dc(port uint32, b *Body) fx.Message {
	return &msgs.MotorDc{MotorDc: pb.MotorDc{Port: port, Duty: b.Duty}}
}

func resetAngle(port uint32, b *Body) fx.Message {
	return &msgs.MotorResetAngle{MotorResetAngle: pb.MotorResetAngle{Port: port, Angle: b.Angle}}
}

func settingsQuery(port uint32, _ *Body) fx.Message {
	return &msgs.MotorSettingsQuery{MotorSettingsQuery: pb.MotorSettingsQuery{Port: port}}
}

func settings(port uint32, b *Body) fx.Message {
	return &msgs.MotorSettings{MotorSettings: pb.MotorSettings{
		Port:              port,
		MaxSpeed:          b.MaxSpeed,
		Acceleration:      b.Acceleration,
		SpeedTolerance:    b.SpeedTolerance,
		PositionTolerance: b.PositionTolerance,
		StallSpeed:        b.StallSpeed,
		StallTime:         b.StallTime,
		Kp:                b.Kp,
		Ki:                b.Ki,
		Kd:                b.Kd,
		IntegralRate:      b.IntegralRate,
		MaxTorque:         b.MaxTorque,
	}}
}

func driveStateQuery(_ *Body) fx.Message {
	return &msgs.DriveBaseStateQuery{}
}

func driveSetup(b *Body) fx.Message {
	return &msgs.DriveBaseSetup{DriveBaseSetup: pb.DriveBaseSetup{
		Left:          uint32(b.left),
		Right:         uint32(b.right),
		WheelDiameter: b.WheelDiameter,
		AxleTrack:     b.AxleTrack,
	}}
}

func driveStraight(b *Body) fx.Message {
	return &msgs.DriveBaseStraight{DriveBaseStraight: pb.DriveBaseStraight{Distance: b.Distance, Then: int32(b.then)}}
}

func driveTurn(b *Body) fx.Message {
	return &msgs.DriveBaseTurn{DriveBaseTurn: pb.DriveBaseTurn{Angle: b.Angle, Then: int32(b.then)}}
}

func driveCurve(b *Body) fx.Message {
	return &msgs.DriveBaseCurve{DriveBaseCurve: pb.DriveBaseCurve{Radius: b.Radius, Angle: b.Angle, Then: int32(b.then)}}
}

func drive(b *Body) fx.Message {
	return &msgs.DriveBaseDrive{DriveBaseDrive: pb.DriveBaseDrive{Speed: b.Speed, TurnRate: b.TurnRate}}
}

func driveStop(b *Body) fx.Message {
	return &msgs.DriveBaseStop{DriveBaseStop: pb.DriveBaseStop{Then: int32(b.then)}}
}

func driveReset(_ *Body) fx.Message {
	return &msgs.DriveBaseResetState{}
}

func driveSettingsQuery(_ *Body) fx.Message {
	return &msgs.DriveBaseSettingsQuery{}
}

func driveSettings(b *Body) fx.Message {
	return &msgs.DriveBaseSettings{DriveBaseSettings: pb.DriveBaseSettings{
		StraightSpeed:        b.StraightSpeed,
		StraightAcceleration: b.StraightAcceleration,
		TurnRate:             b.TurnRate,
		TurnAcceleration:     b.TurnAcceleration,
	}}
}

// LoopDispatcher posts commands into a loop and waits for the reply.
type LoopDispatcher struct {
	Loop fx.LoopControl
}

// Dispatch implements Dispatcher.
func (d *LoopDispatcher) Dispatch(ctx context.Context, msg fx.Message) (fx.Message, error) {
	cmd := &command{msg: msg, reply: make(chan fx.Message, 1)}
	d.Loop.PostMessage(&l1.CommandMsg{Command: cmd})
	d.Loop.TriggerNext()
	select {
	case reply := <-cmd.reply:
		return reply, nil
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "command %T", msg)
	}
}

type command struct {
	msg   fx.Message
	reply chan fx.Message
}

func (c *command) Msg() fx.Message {
	return c.msg
}

func (c *command) Done(msg fx.Message) error {
	select {
	case c.reply <- msg:
	default:
	}
	return nil
}
