package msgs

import (
	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/motor"
	pb "github.com/robotalks/servo.go/pkg/proto/l1/v1"
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
	pb.CommandOK
}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return &m.CommandOK }

// CommandErr is the generic message representing command error.
type CommandErr struct {
	pb.CommandErr
}

// NewCommandErr creates a CommandErr from an error. The error kind is kept
// as the code.
func NewCommandErr(err error) *CommandErr {
	m := NewCommandErrFromMsg(err.Error())
	m.Code = CodeFromError(err)
	return m
}

// NewCommandErrFromMsg creates a CommandErr.
func NewCommandErrFromMsg(message string) *CommandErr {
	return &CommandErr{
		CommandErr: pb.CommandErr{
			Message: message,
		},
	}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return &m.CommandErr }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// Err converts the reply into an error whose cause is the error kind of
// the code, so errors.Cause(err) == motor.ErrAgain still holds on the
// receiving side.
func (m *CommandErr) Err() error {
	if cause := ErrorFromCode(m.Code); cause != nil {
		return &remoteError{message: m.Message, cause: cause}
	}
	return m
}

type remoteError struct {
	message string
	cause   error
}

func (e *remoteError) Error() string { return e.message }
func (e *remoteError) Cause() error  { return e.cause }

// Error codes carried by CommandErr.
const (
	CodeUnknown int32 = iota
	CodeInvalidArgument
	CodeInvalidPort
	CodeNoDevice
	CodeAgain
	CodeIO
	CodeNotSupported
	CodeFailed
	CodeUnsupportedCommand
)

var codeErrors = map[int32]error{
	CodeInvalidArgument:    motor.ErrInvalidArgument,
	CodeInvalidPort:        motor.ErrInvalidPort,
	CodeNoDevice:           motor.ErrNoDevice,
	CodeAgain:              motor.ErrAgain,
	CodeIO:                 motor.ErrIO,
	CodeNotSupported:       motor.ErrNotSupported,
	CodeFailed:             motor.ErrFailed,
	CodeUnsupportedCommand: ErrUnsupportedCommand,
}

// CodeFromError returns the code of the error kind of err.
func CodeFromError(err error) int32 {
	cause := errors.Cause(err)
	for code, e := range codeErrors {
		if e == cause {
			return code
		}
	}
	return CodeUnknown
}

// ErrorFromCode returns the error kind of code, nil if unknown.
func ErrorFromCode(code int32) error {
	return codeErrors[code]
}

// MotorSetup command.
type MotorSetup struct {
	pb.MotorSetup
}

// NewMessage implements Message.
func (m *MotorSetup) NewMessage() fx.Message { return &MotorSetup{} }

// TypeID implements SerializableMessage.
func (m *MotorSetup) TypeID() uint32 { return MotorSetupTypeID }

// Serializable implements SerializableMessage.
func (m *MotorSetup) Serializable() proto.Message { return &m.MotorSetup }

// MotorRun command.
type MotorRun struct {
	pb.MotorRun
}

// NewMessage implements Message.
func (m *MotorRun) NewMessage() fx.Message { return &MotorRun{} }

// TypeID implements SerializableMessage.
func (m *MotorRun) TypeID() uint32 { return MotorRunTypeID }

// Serializable implements SerializableMessage.
func (m *MotorRun) Serializable() proto.Message { return &m.MotorRun }

// MotorRunTime command.
type MotorRunTime struct {
	pb.MotorRunTime
}

// NewMessage implements Message.
func (m *MotorRunTime) NewMessage() fx.Message { return &MotorRunTime{} }

// TypeID implements SerializableMessage.
func (m *MotorRunTime) TypeID() uint32 { return MotorRunTimeTypeID }

// Serializable implements SerializableMessage.
func (m *MotorRunTime) Serializable() proto.Message { return &m.MotorRunTime }

// MotorRunAngle command.
type MotorRunAngle struct {
	pb.MotorRunAngle
}

// NewMessage implements Message.
func (m *MotorRunAngle) NewMessage() fx.Message { return &MotorRunAngle{} }

// TypeID implements SerializableMessage.
func (m *MotorRunAngle) TypeID() uint32 { return MotorRunAngleTypeID }

// Serializable implements SerializableMessage.
func (m *MotorRunAngle) Serializable() proto.Message { return &m.MotorRunAngle }

// MotorRunTarget command.
type MotorRunTarget struct {
	pb.MotorRunTarget
}

// NewMessage implements Message.
func (m *MotorRunTarget) NewMessage() fx.Message { return &MotorRunTarget{} }

// TypeID implements SerializableMessage.
func (m *MotorRunTarget) TypeID() uint32 { return MotorRunTargetTypeID }

// Serializable implements SerializableMessage.
func (m *MotorRunTarget) Serializable() proto.Message { return &m.MotorRunTarget }

// MotorRunUntilStalled command.
type MotorRunUntilStalled struct {
	pb.MotorRunUntilStalled
}

// NewMessage implements Message.
func (m *MotorRunUntilStalled) NewMessage() fx.Message { return &MotorRunUntilStalled{} }

// TypeID implements SerializableMessage.
func (m *MotorRunUntilStalled) TypeID() uint32 { return MotorRunUntilStalledTypeID }

// Serializable implements SerializableMessage.
func (m *MotorRunUntilStalled) Serializable() proto.Message { return &m.MotorRunUntilStalled }

// MotorTrackTarget command.
type MotorTrackTarget struct {
	pb.MotorTrackTarget
}

// NewMessage implements Message.
func (m *MotorTrackTarget) NewMessage() fx.Message { return &MotorTrackTarget{} }

// TypeID implements SerializableMessage.
func (m *MotorTrackTarget) TypeID() uint32 { return MotorTrackTargetTypeID }

// Serializable implements SerializableMessage.
func (m *MotorTrackTarget) Serializable() proto.Message { return &m.MotorTrackTarget }

// MotorStop command.
type MotorStop struct {
	pb.MotorStop
}

// NewMessage implements Message.
func (m *MotorStop) NewMessage() fx.Message { return &MotorStop{} }

// TypeID implements SerializableMessage.
func (m *MotorStop) TypeID() uint32 { return MotorStopTypeID }

// Serializable implements SerializableMessage.
func (m *MotorStop) Serializable() proto.Message { return &m.MotorStop }

// MotorDc command.
type MotorDc struct {
	pb.MotorDc
}

// NewMessage implements Message.
func (m *MotorDc) NewMessage() fx.Message { return &MotorDc{} }

// TypeID implements SerializableMessage.
func (m *MotorDc) TypeID() uint32 { return MotorDcTypeID }

// Serializable implements SerializableMessage.
func (m *MotorDc) Serializable() proto.Message { return &m.MotorDc }

// MotorResetAngle command.
type MotorResetAngle struct {
	pb.MotorResetAngle
}

// NewMessage implements Message.
func (m *MotorResetAngle) NewMessage() fx.Message { return &MotorResetAngle{} }

// TypeID implements SerializableMessage.
func (m *MotorResetAngle) TypeID() uint32 { return MotorResetAngleTypeID }

// Serializable implements SerializableMessage.
func (m *MotorResetAngle) Serializable() proto.Message { return &m.MotorResetAngle }

// MotorSettings command and MotorSettingsQuery response.
type MotorSettings struct {
	pb.MotorSettings
}

// NewMessage implements Message.
func (m *MotorSettings) NewMessage() fx.Message { return &MotorSettings{} }

// TypeID implements SerializableMessage.
func (m *MotorSettings) TypeID() uint32 { return MotorSettingsTypeID }

// Serializable implements SerializableMessage.
func (m *MotorSettings) Serializable() proto.Message { return &m.MotorSettings }

// MotorSettingsQuery command.
type MotorSettingsQuery struct {
	pb.MotorSettingsQuery
}

// NewMessage implements Message.
func (m *MotorSettingsQuery) NewMessage() fx.Message { return &MotorSettingsQuery{} }

// TypeID implements SerializableMessage.
func (m *MotorSettingsQuery) TypeID() uint32 { return MotorSettingsQueryTypeID }

// Serializable implements SerializableMessage.
func (m *MotorSettingsQuery) Serializable() proto.Message { return &m.MotorSettingsQuery }

// MotorStateQuery command.
type MotorStateQuery struct {
	pb.MotorStateQuery
}

// NewMessage implements Message.
func (m *MotorStateQuery) NewMessage() fx.Message { return &MotorStateQuery{} }

// TypeID implements SerializableMessage.
func (m *MotorStateQuery) TypeID() uint32 { return MotorStateQueryTypeID }

// Serializable implements SerializableMessage.
func (m *MotorStateQuery) Serializable() proto.Message { return &m.MotorStateQuery }

// MotorState response.
type MotorState struct {
	pb.MotorState
}

// NewMessage implements Message.
func (m *MotorState) NewMessage() fx.Message { return &MotorState{} }

// TypeID implements SerializableMessage.
func (m *MotorState) TypeID() uint32 { return MotorStateTypeID }

// Serializable implements SerializableMessage.
func (m *MotorState) Serializable() proto.Message { return &m.MotorState }

// MotorDoneEvent event.
type MotorDoneEvent struct {
	pb.MotorDoneEvent
}

// NewMessage implements Message.
func (m *MotorDoneEvent) NewMessage() fx.Message { return &MotorDoneEvent{} }

// TypeID implements SerializableMessage.
func (m *MotorDoneEvent) TypeID() uint32 { return MotorDoneEventTypeID }

// Serializable implements SerializableMessage.
func (m *MotorDoneEvent) Serializable() proto.Message { return &m.MotorDoneEvent }

// DriveBaseSetup command.
type DriveBaseSetup struct {
	pb.DriveBaseSetup
}

// NewMessage implements Message.
func (m *DriveBaseSetup) NewMessage() fx.Message { return &DriveBaseSetup{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseSetup) TypeID() uint32 { return DriveBaseSetupTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseSetup) Serializable() proto.Message { return &m.DriveBaseSetup }

// DriveBaseStraight command.
type DriveBaseStraight struct {
	pb.DriveBaseStraight
}

// NewMessage implements Message.
func (m *DriveBaseStraight) NewMessage() fx.Message { return &DriveBaseStraight{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseStraight) TypeID() uint32 { return DriveBaseStraightTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseStraight) Serializable() proto.Message { return &m.DriveBaseStraight }

// DriveBaseTurn command.
type DriveBaseTurn struct {
	pb.DriveBaseTurn
}

// NewMessage implements Message.
func (m *DriveBaseTurn) NewMessage() fx.Message { return &DriveBaseTurn{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseTurn) TypeID() uint32 { return DriveBaseTurnTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseTurn) Serializable() proto.Message { return &m.DriveBaseTurn }

// DriveBaseCurve command.
type DriveBaseCurve struct {
	pb.DriveBaseCurve
}

// NewMessage implements Message.
func (m *DriveBaseCurve) NewMessage() fx.Message { return &DriveBaseCurve{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseCurve) TypeID() uint32 { return DriveBaseCurveTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseCurve) Serializable() proto.Message { return &m.DriveBaseCurve }

// DriveBaseDrive command.
type DriveBaseDrive struct {
	pb.DriveBaseDrive
}

// NewMessage implements Message.
func (m *DriveBaseDrive) NewMessage() fx.Message { return &DriveBaseDrive{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseDrive) TypeID() uint32 { return DriveBaseDriveTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseDrive) Serializable() proto.Message { return &m.DriveBaseDrive }

// DriveBaseStop command.
type DriveBaseStop struct {
	pb.DriveBaseStop
}

// NewMessage implements Message.
func (m *DriveBaseStop) NewMessage() fx.Message { return &DriveBaseStop{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseStop) TypeID() uint32 { return DriveBaseStopTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseStop) Serializable() proto.Message { return &m.DriveBaseStop }

// DriveBaseResetState command.
type DriveBaseResetState struct {
	pb.DriveBaseResetState
}

// NewMessage implements Message.
func (m *DriveBaseResetState) NewMessage() fx.Message { return &DriveBaseResetState{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseResetState) TypeID() uint32 { return DriveBaseResetStateTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseResetState) Serializable() proto.Message { return &m.DriveBaseResetState }

// DriveBaseStateQuery command.
type DriveBaseStateQuery struct {
	pb.DriveBaseStateQuery
}

// NewMessage implements Message.
func (m *DriveBaseStateQuery) NewMessage() fx.Message { return &DriveBaseStateQuery{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseStateQuery) TypeID() uint32 { return DriveBaseStateQueryTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseStateQuery) Serializable() proto.Message { return &m.DriveBaseStateQuery }

// DriveBaseState response.
type DriveBaseState struct {
	pb.DriveBaseState
}

// NewMessage implements Message.
func (m *DriveBaseState) NewMessage() fx.Message { return &DriveBaseState{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseState) TypeID() uint32 { return DriveBaseStateTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseState) Serializable() proto.Message { return &m.DriveBaseState }

// DriveBaseSettings command and DriveBaseSettingsQuery response.
type DriveBaseSettings struct {
	pb.DriveBaseSettings
}

// NewMessage implements Message.
func (m *DriveBaseSettings) NewMessage() fx.Message { return &DriveBaseSettings{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseSettings) TypeID() uint32 { return DriveBaseSettingsTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseSettings) Serializable() proto.Message { return &m.DriveBaseSettings }

// DriveBaseSettingsQuery command.
type DriveBaseSettingsQuery struct {
	pb.DriveBaseSettingsQuery
}

// NewMessage implements Message.
func (m *DriveBaseSettingsQuery) NewMessage() fx.Message { return &DriveBaseSettingsQuery{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseSettingsQuery) TypeID() uint32 { return DriveBaseSettingsQueryTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseSettingsQuery) Serializable() proto.Message { return &m.DriveBaseSettingsQuery }

// DriveBaseDoneEvent event.
type DriveBaseDoneEvent struct {
	pb.DriveBaseDoneEvent
}

// NewMessage implements Message.
func (m *DriveBaseDoneEvent) NewMessage() fx.Message { return &DriveBaseDoneEvent{} }

// TypeID implements SerializableMessage.
func (m *DriveBaseDoneEvent) TypeID() uint32 { return DriveBaseDoneEventTypeID }

// Serializable implements SerializableMessage.
func (m *DriveBaseDoneEvent) Serializable() proto.Message { return &m.DriveBaseDoneEvent }

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupMotor   uint32 = 0x00030000
	GroupDrive   uint32 = 0x00040000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID            uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID           uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	MotorSetupTypeID           uint32 = GroupMotor | 0x0000
	MotorRunTypeID             uint32 = GroupMotor | 0x0001
	MotorRunTimeTypeID         uint32 = GroupMotor | 0x0002
	MotorRunAngleTypeID        uint32 = GroupMotor | 0x0003
	MotorRunTargetTypeID       uint32 = GroupMotor | 0x0004
	MotorRunUntilStalledTypeID uint32 = GroupMotor | 0x0005
	MotorTrackTargetTypeID     uint32 = GroupMotor | 0x0006
	MotorStopTypeID            uint32 = GroupMotor | 0x0007
	MotorDcTypeID              uint32 = GroupMotor | 0x0008
	MotorResetAngleTypeID      uint32 = GroupMotor | 0x0009
	MotorStateQueryTypeID      uint32 = GroupMotor | 0x000a
	MotorStateTypeID           uint32 = MotorStateQueryTypeID | TypeIDMaskReply
	MotorSettingsTypeID        uint32 = GroupMotor | 0x000b
	MotorSettingsQueryTypeID   uint32 = GroupMotor | 0x000c
	MotorDoneEventTypeID       uint32 = TypeIDKindEvent | GroupMotor | 0x0000

	DriveBaseSetupTypeID         uint32 = GroupDrive | 0x0000
	DriveBaseStraightTypeID      uint32 = GroupDrive | 0x0001
	DriveBaseTurnTypeID          uint32 = GroupDrive | 0x0002
	DriveBaseCurveTypeID         uint32 = GroupDrive | 0x0003
	DriveBaseDriveTypeID         uint32 = GroupDrive | 0x0004
	DriveBaseStopTypeID          uint32 = GroupDrive | 0x0005
	DriveBaseResetStateTypeID    uint32 = GroupDrive | 0x0006
	DriveBaseStateQueryTypeID    uint32 = GroupDrive | 0x0007
	DriveBaseStateTypeID         uint32 = DriveBaseStateQueryTypeID | TypeIDMaskReply
	DriveBaseSettingsTypeID      uint32 = GroupDrive | 0x0008
	DriveBaseSettingsQueryTypeID uint32 = GroupDrive | 0x0009
	DriveBaseDoneEventTypeID     uint32 = TypeIDKindEvent | GroupDrive | 0x0000
)
