// Package see is the adapter to visualize simulated motors in
// github.com/robotalks/see.
package see

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/sim"
)

// Adapter is the visualization adapter to visualize using
// github.com/robotalks/see. Every object is drawn as a dial, laid out in a
// row in the order the objects first change.
type Adapter struct {
	Config *Config
	Mapper ObjectMapper
	Output io.Writer

	initial    bool
	slots      map[string]Pos
	updated    map[string]sim.Object
	removedIDs map[string]bool
}

// NewAdapter creates the adapter.
func NewAdapter(config *Config) *Adapter {
	a := &Adapter{
		Config:  config,
		Output:  os.Stdout,
		initial: true,
	}
	a.Mapper = MapObjectFunc(a.dial)
	return a
}

// Subscribe is a helper to subscribe object changes.
func (a *Adapter) Subscribe(sub sim.ObjectsChangeSubscriber) *Adapter {
	sub.SubscribeObjectsChange(a)
	return a
}

// ObjectsChanged implements ObjectsChangeListener.
func (a *Adapter) ObjectsChanged(cc fx.ControlContext, objs ...sim.Object) {
	if a.updated == nil {
		a.updated = make(map[string]sim.Object)
	}
	for _, obj := range objs {
		a.updated[obj.Name()] = obj
		if a.removedIDs != nil {
			delete(a.removedIDs, obj.Name())
		}
	}
}

// ObjectsRemoved implements ObjectsChangeListener.
func (a *Adapter) ObjectsRemoved(cc fx.ControlContext, objs ...sim.Object) {
	if a.removedIDs == nil {
		a.removedIDs = make(map[string]bool)
	}
	for _, obj := range objs {
		a.removedIDs[obj.Name()] = true
		if a.updated != nil {
			delete(a.updated, obj.Name())
		}
	}
}

// AddToLoop implements LoopAdder.
func (a *Adapter) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvIdle, fx.ControlFunc(a.ReportChanges))
}

func (a *Adapter) slot(name string) Pos {
	if a.slots == nil {
		a.slots = make(map[string]Pos)
	}
	pos, ok := a.slots[name]
	if !ok {
		step := a.Config.W / float64(motor.NumPorts)
		pos = Pos{X: -a.Config.W/2 + step*(float64(len(a.slots))+0.5)}
		a.slots[name] = pos
	}
	return pos
}

func (a *Adapter) dial(vo VisibleObject, slot Pos) []Object {
	return []Object{ObjectFrom("dial", vo, slot, a.Config.Radius)}
}

// ReportChanges is a controller to report changes.
func (a *Adapter) ReportChanges(cc fx.ControlContext) error {
	var msgs []Message
	if a.initial {
		w, h := a.Config.W/2, a.Config.H/2
		msgs = []Message{
			{Action: ActionReset},
			{Action: ActionObject, Object: NewObject("corner", "corner-lt").With("loc", "lt").At(-w, -h).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-rb").With("loc", "rb").At(w, h).Radius(1)},
		}
		a.initial = false
		a.removedIDs = nil
	}

	for name, obj := range a.updated {
		if vo, ok := obj.(VisibleObject); ok {
			for _, mapped := range a.Mapper.MapObject(vo, a.slot(name)) {
				if mapped == nil {
					continue
				}
				msgs = append(msgs, Message{
					Action: ActionObject,
					Object: mapped,
				})
			}
		}
	}

	for id := range a.removedIDs {
		msgs = append(msgs, Message{
			Action:   ActionRemove,
			RemoveID: ObjectID(id),
		})
	}

	a.updated, a.removedIDs = nil, nil
	if len(msgs) > 0 {
		encoded, err := json.Marshal(msgs)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Output, string(encoded))
	}
	return nil
}
