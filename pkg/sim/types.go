package sim

import (
	fx "github.com/robotalks/servo.go/pkg/framework"
)

// Object represents an object in the world.
type Object interface {
	fx.Named
}

// Rotor is an object turning around a fixed axis.
type Rotor interface {
	Object
	// Rotation returns the shaft angle (degrees) and speed (degrees/s).
	Rotation() (angle, speed float64)
}

// Powered is an object drawing electrical power.
type Powered interface {
	Object
	// Power returns the terminal voltage (V) and current (A).
	Power() (voltage, current float64)
}

// ObjectsChangeListener listens for object changes.
type ObjectsChangeListener interface {
	ObjectsChanged(fx.ControlContext, ...Object)
	ObjectsRemoved(fx.ControlContext, ...Object)
}

// ObjectsChangeSubscriber subscribes objects change notifications.
type ObjectsChangeSubscriber interface {
	SubscribeObjectsChange(ObjectsChangeListener)
}
