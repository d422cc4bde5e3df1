package controller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/servo.go/pkg/l1/comm/stream"
	"github.com/robotalks/servo.go/pkg/l1/comm/websocket"
)

func TestNewEnv(t *testing.T) {
	conf := &Config{
		Type:          "servod",
		ID:            "test",
		MQTTBrokerURL: "mqtt://localhost:1883/robo/",
		Listen:        "tcp://127.0.0.1:0, ws://127.0.0.1:0/motors",
		RESTAddr:      "127.0.0.1:0",
	}
	env, err := conf.NewEnv()
	require.NoError(t, err)
	require.Equal(t, "servod/test", conf.Info.Ref.Name())
	require.NotNil(t, env.MQTT)
	require.NotNil(t, env.REST)
	require.Len(t, env.Registrar.Registrars, 3)
	require.IsType(t, &stream.Server{}, env.Registrar.Registrars[1])
	ws := env.Registrar.Registrars[2].(*websocket.Server)
	require.Equal(t, "/motors", ws.Path)
	require.Len(t, env.RegistryURLs, 3)
}

func TestNewEnvErrors(t *testing.T) {
	testCases := []struct {
		name string
		conf Config
	}{
		{"no type", Config{ID: "1", Listen: "tcp://:0"}},
		{"no registrar", Config{Type: "servod", ID: "1"}},
		{"bad scheme", Config{Type: "servod", ID: "1", Listen: "udp://:7600"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.conf.NewEnv()
			require.Error(t, err)
		})
	}
}
