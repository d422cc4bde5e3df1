package servo

import (
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/control"
)

// Row is the state of a servo during one loop period.
type Row struct {
	Time  motor.Ticks
	Angle int64 // mdeg
	Speed int32 // mdeg/s
	// Estimated state of the observer.
	EstAngle int64
	EstSpeed int32
	// Reference, valid while controlled.
	RefAngle int64
	RefSpeed int32
	Torque   int32 // µNm
	// Duty cycle and voltage applied after the update.
	Duty      int32
	Voltage   int32 // mV
	Actuation motor.Actuation
	Action    control.Action
}

// Recorder keeps the most recent rows.
type Recorder struct {
	rows []Row
	next int
	full bool
}

// NewRecorder creates a Recorder keeping up to capacity rows.
func NewRecorder(capacity int) *Recorder {
	if capacity < 1 {
		capacity = 1
	}
	return &Recorder{rows: make([]Row, capacity)}
}

func (r *Recorder) record(now motor.Ticks, s *Servo, out control.Output) {
	est := s.observer.State()
	row := Row{
		Time:      now,
		Angle:     s.angle.Total(),
		Speed:     s.speed,
		EstAngle:  est.Angle.Total(),
		EstSpeed:  est.Speed,
		Duty:      s.bridge.Duty(),
		Voltage:   s.voltage,
		Actuation: s.actuation,
		Action:    s.control.Action(),
	}
	if out.Actuation == control.ActuationTorque {
		row.RefAngle = out.Reference.Position.Total()
		row.RefSpeed = out.Reference.Speed
		row.Torque = out.Torque
	}
	r.rows[r.next] = row
	r.next++
	if r.next == len(r.rows) {
		r.next, r.full = 0, true
	}
}

// Len returns the number of rows kept.
func (r *Recorder) Len() int {
	if r.full {
		return len(r.rows)
	}
	return r.next
}

// Rows returns the rows kept, oldest first.
func (r *Recorder) Rows() []Row {
	if !r.full {
		return append([]Row(nil), r.rows[:r.next]...)
	}
	return append(append([]Row(nil), r.rows[r.next:]...), r.rows[:r.next]...)
}

// Reset drops all rows.
func (r *Recorder) Reset() {
	r.next, r.full = 0, false
}
