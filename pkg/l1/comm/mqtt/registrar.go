package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/protobuf/jsonpb"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1"
	"github.com/robotalks/servo.go/pkg/l1/comm"
	"github.com/robotalks/servo.go/pkg/l1/msgs"
	"github.com/robotalks/servo.go/pkg/motor"
)

// MetaTopic is the retained topic under the controller name carrying
// the JSON encoded l1.ControllerMeta.
const MetaTopic = "meta"

// StateTopic returns the retained topic carrying the JSON encoded state
// of a port.
func StateTopic(ref l1.ControllerRef, port motor.Port) string {
	return ref.Name() + "/ports/" + port.String() + "/state"
}

// Registrar implements l1.Registrar using MQTT.
type Registrar struct {
	Queue *Queue
	Info  l1.ControllerInfo

	metaJSON  string
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.ControllerInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		panic(err)
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.Ref.Name()+"/"+MetaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("servo:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: string(meta),
	}
	r.Queue.OnConnect = func(*Queue) { r.onConnected() }
	r.registrar.Init(NewPacketReadWriter(r.Queue).ForController(info.Ref))
	return r, nil
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.registrar.SendEvent(ctx, msg)
}

// PublishState publishes the state of a port as a retained JSON message.
// It doesn't wait for the delivery.
func (r *Registrar) PublishState(ctx context.Context, state *msgs.MotorState) error {
	payload, err := stateMarshaler.MarshalToString(&state.MotorState)
	if err != nil {
		return err
	}
	r.Queue.PubWith(StateTopic(r.Info.Ref, motor.Port(state.Port)), []byte(payload), 0, true)
	return nil
}

var stateMarshaler = jsonpb.Marshaler{EmitDefaults: true}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(r.Info.Ref.Name()+"/"+MetaTopic, nil, 1, true).Wait()
	r.Queue.Close()
	return nil
}

func (r *Registrar) onConnected() {
	r.Queue.PubWith(r.Info.Ref.Name()+"/"+MetaTopic, []byte(r.metaJSON), 1, true)
}
