package see

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type rotor struct {
	name         string
	angle, speed float64
}

func (r *rotor) Name() string                { return r.name }
func (r *rotor) Rotation() (float64, float64) { return r.angle, r.speed }

type poweredRotor struct {
	rotor
}

func (r *poweredRotor) Power() (float64, float64) { return 6, 0.5 }

func report(t *testing.T, a *Adapter) []Message {
	var out bytes.Buffer
	a.Output = &out
	require.NoError(t, a.ReportChanges(nil))
	if out.Len() == 0 {
		return nil
	}
	var msgs []Message
	require.NoError(t, json.Unmarshal(out.Bytes(), &msgs))
	return msgs
}

func TestReportChanges(t *testing.T) {
	a := NewAdapter(&Config{W: 600, H: 100, Radius: 10})
	a.ObjectsChanged(nil, &rotor{name: "sim/motor-A", angle: 450, speed: -90})
	msgs := report(t, a)
	require.Len(t, msgs, 4)
	require.Equal(t, ActionReset, msgs[0].Action)

	dial := msgs[3].Object
	require.Equal(t, "sim.motor-A", dial[PropID])
	require.Equal(t, "dial", dial[PropType])
	require.Equal(t, 90.0, dial[PropRotate])
	require.Equal(t, -90.0, dial[PropSpeed])
	require.Equal(t, map[string]interface{}{"x": -250.0, "y": 0.0}, dial[PropOrigin])
	require.Nil(t, dial[PropPower])

	require.Empty(t, report(t, a))

	a.ObjectsChanged(nil, &poweredRotor{rotor{name: "sim/motor-B"}})
	msgs = report(t, a)
	require.Len(t, msgs, 1)
	require.Equal(t, map[string]interface{}{"x": -150.0, "y": 0.0}, msgs[0].Object[PropOrigin])
	require.Equal(t, 3.0, msgs[0].Object[PropPower])

	a.ObjectsRemoved(nil, &rotor{name: "sim/motor-A"})
	msgs = report(t, a)
	require.Len(t, msgs, 1)
	require.Equal(t, ActionRemove, msgs[0].Action)
	require.Equal(t, "sim.motor-A", msgs[0].RemoveID)
}
