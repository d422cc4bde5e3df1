// Package v1 holds the wire schema of the L1 protocol, see l1.proto.
// The structs are maintained by hand and encoded by github.com/golang/protobuf
// through their struct tags.
package v1

import "github.com/golang/protobuf/proto"

// Typed message.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence uint32 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message  []byte `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *Typed) Reset()         { *m = Typed{} }
func (m *Typed) String() string { return proto.CompactTextString(m) }
func (*Typed) ProtoMessage()    {}

// CommandOK message.
type CommandOK struct {
}

func (m *CommandOK) Reset()         { *m = CommandOK{} }
func (m *CommandOK) String() string { return proto.CompactTextString(m) }
func (*CommandOK) ProtoMessage()    {}

// CommandErr message.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
	Code    int32  `protobuf:"varint,2,opt,name=code,proto3" json:"code,omitempty"`
}

func (m *CommandErr) Reset()         { *m = CommandErr{} }
func (m *CommandErr) String() string { return proto.CompactTextString(m) }
func (*CommandErr) ProtoMessage()    {}

// MotorSetup message.
type MotorSetup struct {
	Port             uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Counterclockwise bool   `protobuf:"varint,2,opt,name=counterclockwise,proto3" json:"counterclockwise,omitempty"`
	DutyOffset       int32  `protobuf:"varint,3,opt,name=duty_offset,json=dutyOffset,proto3" json:"duty_offset,omitempty"`
	MaxDuty          int32  `protobuf:"varint,4,opt,name=max_duty,json=maxDuty,proto3" json:"max_duty,omitempty"`
	ResetAngle       bool   `protobuf:"varint,5,opt,name=reset_angle,json=resetAngle,proto3" json:"reset_angle,omitempty"`
	GearMotor        int32  `protobuf:"varint,6,opt,name=gear_motor,json=gearMotor,proto3" json:"gear_motor,omitempty"`
	GearOutput       int32  `protobuf:"varint,7,opt,name=gear_output,json=gearOutput,proto3" json:"gear_output,omitempty"`
}

func (m *MotorSetup) Reset()         { *m = MotorSetup{} }
func (m *MotorSetup) String() string { return proto.CompactTextString(m) }
func (*MotorSetup) ProtoMessage()    {}

// MotorRun message.
type MotorRun struct {
	Port  uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Speed int32  `protobuf:"zigzag32,2,opt,name=speed,proto3" json:"speed,omitempty"`
}

func (m *MotorRun) Reset()         { *m = MotorRun{} }
func (m *MotorRun) String() string { return proto.CompactTextString(m) }
func (*MotorRun) ProtoMessage()    {}

// MotorRunTime message.
type MotorRunTime struct {
	Port     uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Speed    int32  `protobuf:"zigzag32,2,opt,name=speed,proto3" json:"speed,omitempty"`
	Duration int32  `protobuf:"varint,3,opt,name=duration,proto3" json:"duration,omitempty"`
	Then     int32  `protobuf:"varint,4,opt,name=then,proto3" json:"then,omitempty"`
}

func (m *MotorRunTime) Reset()         { *m = MotorRunTime{} }
func (m *MotorRunTime) String() string { return proto.CompactTextString(m) }
func (*MotorRunTime) ProtoMessage()    {}

// MotorRunAngle message.
type MotorRunAngle struct {
	Port  uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Speed int32  `protobuf:"zigzag32,2,opt,name=speed,proto3" json:"speed,omitempty"`
	Angle int64  `protobuf:"zigzag64,3,opt,name=angle,proto3" json:"angle,omitempty"`
	Then  int32  `protobuf:"varint,4,opt,name=then,proto3" json:"then,omitempty"`
}

func (m *MotorRunAngle) Reset()         { *m = MotorRunAngle{} }
func (m *MotorRunAngle) String() string { return proto.CompactTextString(m) }
func (*MotorRunAngle) ProtoMessage()    {}

// MotorRunTarget message.
type MotorRunTarget struct {
	Port   uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Speed  int32  `protobuf:"zigzag32,2,opt,name=speed,proto3" json:"speed,omitempty"`
	Target int64  `protobuf:"zigzag64,3,opt,name=target,proto3" json:"target,omitempty"`
	Then   int32  `protobuf:"varint,4,opt,name=then,proto3" json:"then,omitempty"`
}

func (m *MotorRunTarget) Reset()         { *m = MotorRunTarget{} }
func (m *MotorRunTarget) String() string { return proto.CompactTextString(m) }
func (*MotorRunTarget) ProtoMessage()    {}

// MotorRunUntilStalled message.
type MotorRunUntilStalled struct {
	Port  uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Speed int32  `protobuf:"zigzag32,2,opt,name=speed,proto3" json:"speed,omitempty"`
	Then  int32  `protobuf:"varint,3,opt,name=then,proto3" json:"then,omitempty"`
}

func (m *MotorRunUntilStalled) Reset()         { *m = MotorRunUntilStalled{} }
func (m *MotorRunUntilStalled) String() string { return proto.CompactTextString(m) }
func (*MotorRunUntilStalled) ProtoMessage()    {}

// MotorTrackTarget message.
type MotorTrackTarget struct {
	Port   uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Target int64  `protobuf:"zigzag64,2,opt,name=target,proto3" json:"target,omitempty"`
}

func (m *MotorTrackTarget) Reset()         { *m = MotorTrackTarget{} }
func (m *MotorTrackTarget) String() string { return proto.CompactTextString(m) }
func (*MotorTrackTarget) ProtoMessage()    {}

// MotorStop message.
type MotorStop struct {
	Port uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Then int32  `protobuf:"varint,2,opt,name=then,proto3" json:"then,omitempty"`
}

func (m *MotorStop) Reset()         { *m = MotorStop{} }
func (m *MotorStop) String() string { return proto.CompactTextString(m) }
func (*MotorStop) ProtoMessage()    {}

// MotorDc message.
type MotorDc struct {
	Port uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Duty int32  `protobuf:"zigzag32,2,opt,name=duty,proto3" json:"duty,omitempty"`
}

func (m *MotorDc) Reset()         { *m = MotorDc{} }
func (m *MotorDc) String() string { return proto.CompactTextString(m) }
func (*MotorDc) ProtoMessage()    {}

// MotorResetAngle message.
type MotorResetAngle struct {
	Port  uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Angle int64  `protobuf:"zigzag64,2,opt,name=angle,proto3" json:"angle,omitempty"`
}

func (m *MotorResetAngle) Reset()         { *m = MotorResetAngle{} }
func (m *MotorResetAngle) String() string { return proto.CompactTextString(m) }
func (*MotorResetAngle) ProtoMessage()    {}

// MotorStateQuery message.
type MotorStateQuery struct {
	Port uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
}

func (m *MotorStateQuery) Reset()         { *m = MotorStateQuery{} }
func (m *MotorStateQuery) String() string { return proto.CompactTextString(m) }
func (*MotorStateQuery) ProtoMessage()    {}

// MotorSettings message.
type MotorSettings struct {
	Port              uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	MaxSpeed          int32  `protobuf:"varint,2,opt,name=max_speed,json=maxSpeed,proto3" json:"max_speed,omitempty"`
	Acceleration      int32  `protobuf:"varint,3,opt,name=acceleration,proto3" json:"acceleration,omitempty"`
	SpeedTolerance    int32  `protobuf:"varint,4,opt,name=speed_tolerance,json=speedTolerance,proto3" json:"speed_tolerance,omitempty"`
	PositionTolerance int32  `protobuf:"varint,5,opt,name=position_tolerance,json=positionTolerance,proto3" json:"position_tolerance,omitempty"`
	StallSpeed        int32  `protobuf:"varint,6,opt,name=stall_speed,json=stallSpeed,proto3" json:"stall_speed,omitempty"`
	StallTime         int32  `protobuf:"varint,7,opt,name=stall_time,json=stallTime,proto3" json:"stall_time,omitempty"`
	Kp                int32  `protobuf:"varint,8,opt,name=kp,proto3" json:"kp,omitempty"`
	Ki                int32  `protobuf:"varint,9,opt,name=ki,proto3" json:"ki,omitempty"`
	Kd                int32  `protobuf:"varint,10,opt,name=kd,proto3" json:"kd,omitempty"`
	IntegralRate      int32  `protobuf:"varint,11,opt,name=integral_rate,json=integralRate,proto3" json:"integral_rate,omitempty"`
	MaxTorque         int32  `protobuf:"varint,12,opt,name=max_torque,json=maxTorque,proto3" json:"max_torque,omitempty"`
}

func (m *MotorSettings) Reset()         { *m = MotorSettings{} }
func (m *MotorSettings) String() string { return proto.CompactTextString(m) }
func (*MotorSettings) ProtoMessage()    {}

// MotorSettingsQuery message.
type MotorSettingsQuery struct {
	Port uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
}

func (m *MotorSettingsQuery) Reset()         { *m = MotorSettingsQuery{} }
func (m *MotorSettingsQuery) String() string { return proto.CompactTextString(m) }
func (*MotorSettingsQuery) ProtoMessage()    {}

// MotorState message.
type MotorState struct {
	Port    uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Angle   int64  `protobuf:"zigzag64,2,opt,name=angle,proto3" json:"angle,omitempty"`
	Speed   int32  `protobuf:"zigzag32,3,opt,name=speed,proto3" json:"speed,omitempty"`
	Stalled bool   `protobuf:"varint,4,opt,name=stalled,proto3" json:"stalled,omitempty"`
	Done    bool   `protobuf:"varint,5,opt,name=done,proto3" json:"done,omitempty"`
	Duty    int32  `protobuf:"zigzag32,6,opt,name=duty,proto3" json:"duty,omitempty"`
	Load    int32  `protobuf:"zigzag32,7,opt,name=load,proto3" json:"load,omitempty"`
	Action  string `protobuf:"bytes,8,opt,name=action,proto3" json:"action,omitempty"`
}

func (m *MotorState) Reset()         { *m = MotorState{} }
func (m *MotorState) String() string { return proto.CompactTextString(m) }
func (*MotorState) ProtoMessage()    {}

// MotorDoneEvent message.
type MotorDoneEvent struct {
	Port    uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Angle   int64  `protobuf:"zigzag64,2,opt,name=angle,proto3" json:"angle,omitempty"`
	Stalled bool   `protobuf:"varint,3,opt,name=stalled,proto3" json:"stalled,omitempty"`
}

func (m *MotorDoneEvent) Reset()         { *m = MotorDoneEvent{} }
func (m *MotorDoneEvent) String() string { return proto.CompactTextString(m) }
func (*MotorDoneEvent) ProtoMessage()    {}

// DriveBaseSetup message.
type DriveBaseSetup struct {
	Left          uint32 `protobuf:"varint,1,opt,name=left,proto3" json:"left,omitempty"`
	Right         uint32 `protobuf:"varint,2,opt,name=right,proto3" json:"right,omitempty"`
	WheelDiameter int32  `protobuf:"varint,3,opt,name=wheel_diameter,json=wheelDiameter,proto3" json:"wheel_diameter,omitempty"`
	AxleTrack     int32  `protobuf:"varint,4,opt,name=axle_track,json=axleTrack,proto3" json:"axle_track,omitempty"`
}

func (m *DriveBaseSetup) Reset()         { *m = DriveBaseSetup{} }
func (m *DriveBaseSetup) String() string { return proto.CompactTextString(m) }
func (*DriveBaseSetup) ProtoMessage()    {}

// DriveBaseStraight message.
type DriveBaseStraight struct {
	Distance int32 `protobuf:"zigzag32,1,opt,name=distance,proto3" json:"distance,omitempty"`
	Then     int32 `protobuf:"varint,2,opt,name=then,proto3" json:"then,omitempty"`
}

func (m *DriveBaseStraight) Reset()         { *m = DriveBaseStraight{} }
func (m *DriveBaseStraight) String() string { return proto.CompactTextString(m) }
func (*DriveBaseStraight) ProtoMessage()    {}

// DriveBaseTurn message.
type DriveBaseTurn struct {
	Angle int64 `protobuf:"zigzag64,1,opt,name=angle,proto3" json:"angle,omitempty"`
	Then  int32 `protobuf:"varint,2,opt,name=then,proto3" json:"then,omitempty"`
}

func (m *DriveBaseTurn) Reset()         { *m = DriveBaseTurn{} }
func (m *DriveBaseTurn) String() string { return proto.CompactTextString(m) }
func (*DriveBaseTurn) ProtoMessage()    {}

// DriveBaseCurve message.
type DriveBaseCurve struct {
	Radius int32 `protobuf:"zigzag32,1,opt,name=radius,proto3" json:"radius,omitempty"`
	Angle  int64 `protobuf:"zigzag64,2,opt,name=angle,proto3" json:"angle,omitempty"`
	Then   int32 `protobuf:"varint,3,opt,name=then,proto3" json:"then,omitempty"`
}

func (m *DriveBaseCurve) Reset()         { *m = DriveBaseCurve{} }
func (m *DriveBaseCurve) String() string { return proto.CompactTextString(m) }
func (*DriveBaseCurve) ProtoMessage()    {}

// DriveBaseDrive message.
type DriveBaseDrive struct {
	Speed    int32 `protobuf:"zigzag32,1,opt,name=speed,proto3" json:"speed,omitempty"`
	TurnRate int32 `protobuf:"zigzag32,2,opt,name=turn_rate,json=turnRate,proto3" json:"turn_rate,omitempty"`
}

func (m *DriveBaseDrive) Reset()         { *m = DriveBaseDrive{} }
func (m *DriveBaseDrive) String() string { return proto.CompactTextString(m) }
func (*DriveBaseDrive) ProtoMessage()    {}

// DriveBaseStop message.
type DriveBaseStop struct {
	Then int32 `protobuf:"varint,1,opt,name=then,proto3" json:"then,omitempty"`
}

func (m *DriveBaseStop) Reset()         { *m = DriveBaseStop{} }
func (m *DriveBaseStop) String() string { return proto.CompactTextString(m) }
func (*DriveBaseStop) ProtoMessage()    {}

// DriveBaseResetState message.
type DriveBaseResetState struct {
}

func (m *DriveBaseResetState) Reset()         { *m = DriveBaseResetState{} }
func (m *DriveBaseResetState) String() string { return proto.CompactTextString(m) }
func (*DriveBaseResetState) ProtoMessage()    {}

// DriveBaseStateQuery message.
type DriveBaseStateQuery struct {
}

func (m *DriveBaseStateQuery) Reset()         { *m = DriveBaseStateQuery{} }
func (m *DriveBaseStateQuery) String() string { return proto.CompactTextString(m) }
func (*DriveBaseStateQuery) ProtoMessage()    {}

// DriveBaseState message.
type DriveBaseState struct {
	Distance   int32 `protobuf:"zigzag32,1,opt,name=distance,proto3" json:"distance,omitempty"`
	DriveSpeed int32 `protobuf:"zigzag32,2,opt,name=drive_speed,json=driveSpeed,proto3" json:"drive_speed,omitempty"`
	Angle      int64 `protobuf:"zigzag64,3,opt,name=angle,proto3" json:"angle,omitempty"`
	TurnRate   int32 `protobuf:"zigzag32,4,opt,name=turn_rate,json=turnRate,proto3" json:"turn_rate,omitempty"`
	Done       bool  `protobuf:"varint,5,opt,name=done,proto3" json:"done,omitempty"`
	Stalled    bool  `protobuf:"varint,6,opt,name=stalled,proto3" json:"stalled,omitempty"`
}

func (m *DriveBaseState) Reset()         { *m = DriveBaseState{} }
func (m *DriveBaseState) String() string { return proto.CompactTextString(m) }
func (*DriveBaseState) ProtoMessage()    {}

// DriveBaseSettings message.
type DriveBaseSettings struct {
	StraightSpeed        int32 `protobuf:"varint,1,opt,name=straight_speed,json=straightSpeed,proto3" json:"straight_speed,omitempty"`
	StraightAcceleration int32 `protobuf:"varint,2,opt,name=straight_acceleration,json=straightAcceleration,proto3" json:"straight_acceleration,omitempty"`
	TurnRate             int32 `protobuf:"varint,3,opt,name=turn_rate,json=turnRate,proto3" json:"turn_rate,omitempty"`
	TurnAcceleration     int32 `protobuf:"varint,4,opt,name=turn_acceleration,json=turnAcceleration,proto3" json:"turn_acceleration,omitempty"`
}

func (m *DriveBaseSettings) Reset()         { *m = DriveBaseSettings{} }
func (m *DriveBaseSettings) String() string { return proto.CompactTextString(m) }
func (*DriveBaseSettings) ProtoMessage()    {}

// DriveBaseSettingsQuery message.
type DriveBaseSettingsQuery struct {
}

func (m *DriveBaseSettingsQuery) Reset()         { *m = DriveBaseSettingsQuery{} }
func (m *DriveBaseSettingsQuery) String() string { return proto.CompactTextString(m) }
func (*DriveBaseSettingsQuery) ProtoMessage()    {}

// DriveBaseDoneEvent message.
type DriveBaseDoneEvent struct {
	Distance int32 `protobuf:"zigzag32,1,opt,name=distance,proto3" json:"distance,omitempty"`
	Angle    int64 `protobuf:"zigzag64,2,opt,name=angle,proto3" json:"angle,omitempty"`
	Stalled  bool  `protobuf:"varint,3,opt,name=stalled,proto3" json:"stalled,omitempty"`
}

func (m *DriveBaseDoneEvent) Reset()         { *m = DriveBaseDoneEvent{} }
func (m *DriveBaseDoneEvent) String() string { return proto.CompactTextString(m) }
func (*DriveBaseDoneEvent) ProtoMessage()    {}
