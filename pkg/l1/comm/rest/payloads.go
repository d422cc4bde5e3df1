package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/l1/msgs"
	"github.com/robotalks/servo.go/pkg/motor"
	pb "github.com/robotalks/servo.go/pkg/proto/l1/v1"
)

// Body is the request payload shared by all commands. Each command reads
// the fields it needs.
type Body struct {
	Speed    int32  `json:"speed"`
	Duration int32  `json:"duration"`
	Angle    int64  `json:"angle"`
	Target   int64  `json:"target"`
	Duty     int32  `json:"duty"`
	Then     string `json:"then"`

	Counterclockwise bool  `json:"counterclockwise"`
	DutyOffset       int32 `json:"duty_offset"`
	MaxDuty          int32 `json:"max_duty"`
	ResetAngle       bool  `json:"reset_angle"`
	GearMotor        int32 `json:"gear_motor"`
	GearOutput       int32 `json:"gear_output"`

	// Control settings, zero keeps the current value.
	MaxSpeed          int32 `json:"max_speed"`
	Acceleration      int32 `json:"acceleration"`
	SpeedTolerance    int32 `json:"speed_tolerance"`
	PositionTolerance int32 `json:"position_tolerance"`
	StallSpeed        int32 `json:"stall_speed"`
	StallTime         int32 `json:"stall_time"`
	Kp                int32 `json:"kp"`
	Ki                int32 `json:"ki"`
	Kd                int32 `json:"kd"`
	IntegralRate      int32 `json:"integral_rate"`
	MaxTorque         int32 `json:"max_torque"`

	// Drive base, distances in mm.
	Left                 string `json:"left"`
	Right                string `json:"right"`
	WheelDiameter        int32  `json:"wheel_diameter"`
	AxleTrack            int32  `json:"axle_track"`
	Distance             int32  `json:"distance"`
	Radius               int32  `json:"radius"`
	TurnRate             int32  `json:"turn_rate"`
	StraightSpeed        int32  `json:"straight_speed"`
	StraightAcceleration int32  `json:"straight_acceleration"`
	TurnAcceleration     int32  `json:"turn_acceleration"`

	then        motor.Then
	left, right motor.Port
}

// Bind implements render.Binder.
func (b *Body) Bind(r *http.Request) error {
	var err error
	if b.Left != "" {
		if b.left, err = motor.ParsePort(b.Left); err != nil {
			return err
		}
	}
	if b.Right != "" {
		if b.right, err = motor.ParsePort(b.Right); err != nil {
			return err
		}
	}
	if b.Then == "" {
		return nil
	}
	b.then, err = motor.ParseThen(b.Then)
	return err
}

// StateResponse is the state of a port.
type StateResponse struct {
	Port    string `json:"port"`
	Angle   int64  `json:"angle"`
	Speed   int32  `json:"speed"`
	Stalled bool   `json:"stalled"`
	Done    bool   `json:"done"`
	Duty    int32  `json:"duty"`
	Load    int32  `json:"load"`
	Action  string `json:"action"`
}

func stateFrom(m *pb.MotorState) *StateResponse {
	return &StateResponse{
		Port:    motor.Port(m.Port).String(),
		Angle:   m.Angle,
		Speed:   m.Speed,
		Stalled: m.Stalled,
		Done:    m.Done,
		Duty:    m.Duty,
		Load:    m.Load,
		Action:  m.Action,
	}
}

// Render implements render.Renderer.
func (s *StateResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// SettingsResponse is the control settings of a port.
type SettingsResponse struct {
	Port              string `json:"port"`
	MaxSpeed          int32  `json:"max_speed"`
	Acceleration      int32  `json:"acceleration"`
	SpeedTolerance    int32  `json:"speed_tolerance"`
	PositionTolerance int32  `json:"position_tolerance"`
	StallSpeed        int32  `json:"stall_speed"`
	StallTime         int32  `json:"stall_time"`
	Kp                int32  `json:"kp"`
	Ki                int32  `json:"ki"`
	Kd                int32  `json:"kd"`
	IntegralRate      int32  `json:"integral_rate"`
	MaxTorque         int32  `json:"max_torque"`
}

func settingsFrom(m *pb.MotorSettings) *SettingsResponse {
	return &SettingsResponse{
		Port:              motor.Port(m.Port).String(),
		MaxSpeed:          m.MaxSpeed,
		Acceleration:      m.Acceleration,
		SpeedTolerance:    m.SpeedTolerance,
		PositionTolerance: m.PositionTolerance,
		StallSpeed:        m.StallSpeed,
		StallTime:         m.StallTime,
		Kp:                m.Kp,
		Ki:                m.Ki,
		Kd:                m.Kd,
		IntegralRate:      m.IntegralRate,
		MaxTorque:         m.MaxTorque,
	}
}

// Render implements render.Renderer.
func (s *SettingsResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// DriveStateResponse is the state of the drive base.
type DriveStateResponse struct {
	Distance   int32 `json:"distance"`
	DriveSpeed int32 `json:"drive_speed"`
	Angle      int64 `json:"angle"`
	TurnRate   int32 `json:"turn_rate"`
	Done       bool  `json:"done"`
	Stalled    bool  `json:"stalled"`
}

// Render implements render.Renderer.
func (s *DriveStateResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// DriveSettingsResponse is the maneuver settings of the drive base.
type DriveSettingsResponse struct {
	StraightSpeed        int32 `json:"straight_speed"`
	StraightAcceleration int32 `json:"straight_acceleration"`
	TurnRate             int32 `json:"turn_rate"`
	TurnAcceleration     int32 `json:"turn_acceleration"`
}

// Render implements render.Renderer.
func (s *DriveSettingsResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// OKResponse acknowledges a command.
type OKResponse struct {
	OK bool `json:"ok"`
}

// Render implements render.Renderer.
func (s *OKResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// ErrResponse is the payload of a failed request.
type ErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	Code           int32  `json:"code"`
	Message        string `json:"error"`
}

// Render implements render.Renderer.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrResponseFrom maps err to a response by its error kind.
func ErrResponseFrom(err error) *ErrResponse {
	status := http.StatusInternalServerError
	switch errors.Cause(err) {
	case motor.ErrInvalidArgument, motor.ErrInvalidPort:
		status = http.StatusBadRequest
	case motor.ErrNoDevice:
		status = http.StatusNotFound
	case motor.ErrAgain:
		status = http.StatusServiceUnavailable
	case motor.ErrNotSupported, msgs.ErrUnsupportedCommand:
		status = http.StatusNotImplemented
	case context.DeadlineExceeded:
		status = http.StatusGatewayTimeout
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		Code:           msgs.CodeFromError(err),
		Message:        err.Error(),
	}
}
