package see

import (
	"math"
	"strings"

	"github.com/robotalks/servo.go/pkg/sim"
)

// VisibleObject is an object which can be visualized.
type VisibleObject interface {
	sim.Rotor
}

// Object is the data model used to represents an object.
type Object map[string]interface{}

// Pos is a position.
type Pos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ObjectMapper maps VisibleObject into Object data model. The slot is the
// position of the object in the layout.
type ObjectMapper interface {
	MapObject(obj VisibleObject, slot Pos) []Object
}

// MapObjectFunc is the func form of ObjectMapper.
type MapObjectFunc func(VisibleObject, Pos) []Object

// MapObject implements ObjectMapper.
func (f MapObjectFunc) MapObject(obj VisibleObject, slot Pos) []Object {
	return f(obj, slot)
}

// Message is the message for see.
type Message struct {
	Action   string `json:"action"`
	Object   Object `json:"object,omitempty"`
	RemoveID string `json:"id,omitempty"`
}

// Actions
const (
	ActionReset  = "reset"
	ActionObject = "object"
	ActionRemove = "remove"
)

// Properties
const (
	PropID     = "id"
	PropType   = "type"
	PropOrigin = "origin"
	PropRadius = "radius"
	PropRotate = "rotate"
	PropStyle  = "style"
	PropStyles = "styles"
	PropSpeed  = "speed"
	PropPower  = "power"
)

// ObjectID converts object name to ID.
func ObjectID(name string) string {
	return strings.Replace(name, "/", ".", -1)
}

// NewObject creates Object.
func NewObject(typ, id string) Object {
	o := make(Object)
	o[PropID] = id
	o[PropType] = typ
	return o
}

// ObjectFrom constructs a dial at slot showing the rotation of vo. Powered
// objects also report their electrical power (W).
func ObjectFrom(typ string, vo VisibleObject, slot Pos, radius float64) Object {
	angle, speed := vo.Rotation()
	o := NewObject(typ, ObjectID(vo.Name())).
		At(slot.X, slot.Y).
		Radius(radius).
		Rotate(math.Mod(angle, 360)).
		With(PropSpeed, speed)
	if p, ok := vo.(sim.Powered); ok {
		v, i := p.Power()
		o.With(PropPower, v*i)
	}
	return o
}

// At sets origin.
func (o Object) At(x, y float64) Object {
	o[PropOrigin] = &Pos{X: x, Y: y}
	return o
}

// Radius sets radius.
func (o Object) Radius(r float64) Object {
	o[PropRadius] = r
	return o
}

// Rotate sets rotate.
func (o Object) Rotate(deg float64) Object {
	o[PropRotate] = deg
	return o
}

// With sets a custom property.
func (o Object) With(key string, val interface{}) Object {
	o[key] = val
	return o
}
