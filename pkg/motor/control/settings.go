package control

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/integrator"
	"github.com/robotalks/servo.go/pkg/motor/observer"
)

// Settings are the control parameters of a servo, in control units.
type Settings struct {
	MaxSpeed     int32 // mdeg/s
	Acceleration int32 // mdeg/s²

	// A maneuver is complete within these tolerances of the target.
	SpeedTolerance    int32 // mdeg/s
	PositionTolerance int32 // mdeg

	StallSpeed int32 // mdeg/s
	StallTime  int32 // ticks

	Kp int32 // µNm/deg
	Ki int32 // µNm/(deg·s)
	Kd int32 // µNm/(deg/s)
	// IntegralRate bounds the position error integrated per period (mdeg).
	IntegralRate int32
	MaxTorque    int32 // µNm

	// UseEstimatedSpeed selects the observer speed over the differentiated
	// speed for feedback.
	UseEstimatedSpeed bool
}

type defaults struct {
	maxSpeed, acceleration            int32 // deg/s, deg/s²
	speedTolerance, positionTolerance int32 // deg/s, deg
	stallSpeed, stallTimeMs           int32
	kp, kd                            int32
	integralRate                      int32 // deg/s
	useEstimatedSpeed                 bool
}

var kindDefaults = map[motor.Kind]defaults{
	motor.KindEV3Medium:       {2000, 8000, 100, 10, 30, 200, 3000, 30, 10, false},
	motor.KindEV3Large:        {1600, 3200, 100, 10, 30, 200, 15000, 250, 10, false},
	motor.KindTechnicMAngular: {1080, 2000, 50, 10, 20, 200, 15000, 1800, 15, true},
	motor.KindTechnicLAngular: {970, 1500, 50, 10, 20, 200, 35000, 6000, 15, true},
	motor.KindInteractive:     {1000, 2000, 50, 5, 15, 200, 13500, 1350, 10, true},
}

// DefaultSettings returns the settings of an actuator kind. The torque limit
// is the stall torque of the model and Ki saturates the integral in about
// two seconds at the position tolerance.
func DefaultSettings(kind motor.Kind, model observer.Model) (Settings, error) {
	d, ok := kindDefaults[kind]
	if !ok {
		return Settings{}, errors.Wrapf(motor.ErrNotSupported, "no control settings for %s", kind)
	}
	s := Settings{
		MaxSpeed:          d.maxSpeed * 1000,
		Acceleration:      d.acceleration * 1000,
		SpeedTolerance:    d.speedTolerance * 1000,
		PositionTolerance: d.positionTolerance * 1000,
		StallSpeed:        d.stallSpeed * 1000,
		StallTime:         d.stallTimeMs * motor.TicksPerMs,
		Kp:                d.kp,
		Kd:                d.kd,
		IntegralRate:      d.integralRate * 1000,
		MaxTorque:         model.StallTorque,
		UseEstimatedSpeed: d.useEstimatedSpeed,
	}
	s.Ki = s.MaxTorque / d.positionTolerance / 2
	return s, nil
}

// Validate checks the settings are usable.
func (s *Settings) Validate() error {
	if s.MaxSpeed <= 0 || s.Acceleration <= 0 || s.MaxTorque <= 0 {
		return errors.Wrap(motor.ErrInvalidArgument, "limits must be positive")
	}
	if s.SpeedTolerance < 0 || s.PositionTolerance < 0 || s.StallSpeed < 0 || s.StallTime < 0 {
		return errors.Wrap(motor.ErrInvalidArgument, "tolerances must not be negative")
	}
	if s.Kp < 0 || s.Ki < 0 || s.Kd < 0 || s.IntegralRate < 0 {
		return errors.Wrap(motor.ErrInvalidArgument, "gains must not be negative")
	}
	return nil
}

func (s *Settings) stallLimits() integrator.StallLimits {
	return integrator.StallLimits{Speed: s.StallSpeed, Time: s.StallTime}
}

// integralMax is the integral (mdeg·ms) at which the integral torque
// reaches MaxTorque.
func (s *Settings) integralMax() int64 {
	if s.Ki <= 0 {
		return 0
	}
	return int64(s.MaxTorque) * 1000000 / int64(s.Ki)
}

// Overrides are settings in application units as found in a settings file.
// Zero values keep the defaults.
type Overrides struct {
	MaxSpeed          int32 `yaml:"max_speed"`          // deg/s
	Acceleration      int32 `yaml:"acceleration"`       // deg/s²
	SpeedTolerance    int32 `yaml:"speed_tolerance"`    // deg/s
	PositionTolerance int32 `yaml:"position_tolerance"` // deg
	StallSpeed        int32 `yaml:"stall_speed"`        // deg/s
	StallTimeMs       int32 `yaml:"stall_time_ms"`
	Kp                int32 `yaml:"kp"`
	Ki                int32 `yaml:"ki"`
	Kd                int32 `yaml:"kd"`
	IntegralRate      int32 `yaml:"integral_rate"` // deg/s
	MaxTorque         int32 `yaml:"max_torque"`    // mNm
	UseEstimatedSpeed *bool `yaml:"use_estimated_speed"`
}

// Apply applies non-zero overrides to s.
func (o *Overrides) Apply(s *Settings) {
	set := func(dst *int32, v, scale int32) {
		if v != 0 {
			*dst = v * scale
		}
	}
	set(&s.MaxSpeed, o.MaxSpeed, 1000)
	set(&s.Acceleration, o.Acceleration, 1000)
	set(&s.SpeedTolerance, o.SpeedTolerance, 1000)
	set(&s.PositionTolerance, o.PositionTolerance, 1000)
	set(&s.StallSpeed, o.StallSpeed, 1000)
	set(&s.StallTime, o.StallTimeMs, motor.TicksPerMs)
	set(&s.Kp, o.Kp, 1)
	set(&s.Ki, o.Ki, 1)
	set(&s.Kd, o.Kd, 1)
	set(&s.IntegralRate, o.IntegralRate, 1000)
	set(&s.MaxTorque, o.MaxTorque, 1000)
	if o.UseEstimatedSpeed != nil {
		s.UseEstimatedSpeed = *o.UseEstimatedSpeed
	}
}

// SettingsFile maps actuator kind names to overrides.
type SettingsFile map[string]Overrides

// ParseSettingsFile decodes a YAML settings file.
func ParseSettingsFile(data []byte) (SettingsFile, error) {
	var f SettingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse settings")
	}
	for name := range f {
		if _, err := motor.ParseKind(name); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// LoadSettingsFile reads a YAML settings file.
func LoadSettingsFile(path string) (SettingsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read settings %s", path)
	}
	return ParseSettingsFile(data)
}

// Settings returns the default settings of kind with the overrides applied.
// A nil SettingsFile returns the defaults.
func (f SettingsFile) Settings(kind motor.Kind, model observer.Model) (Settings, error) {
	s, err := DefaultSettings(kind, model)
	if err != nil {
		return s, err
	}
	if o, ok := f[kind.String()]; ok {
		o.Apply(&s)
	}
	return s, s.Validate()
}
