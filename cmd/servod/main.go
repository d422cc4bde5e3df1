// Command servod runs the servo control loop on a simulated hub and serves
// the motor commands over the configured transports.
package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"strings"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1"
	env "github.com/robotalks/servo.go/pkg/l1/env/controller"
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/control"
	"github.com/robotalks/servo.go/pkg/motor/drivebase"
	"github.com/robotalks/servo.go/pkg/motor/servo"
	simhub "github.com/robotalks/servo.go/pkg/sim/bots/hub"
	"github.com/robotalks/servo.go/pkg/sim/visualization/see"
)

const setupRetries = 10

var (
	settingsFile string
	visualize    bool
	setupPorts   bool
)

func init() {
	env.SetControllerType("servod", l1.ControllerMeta{Description: "Servo hub (simulated motors)"})
	env.SetupFlags()
	simhub.SetupFlags()
	see.SetupFlags()
	flag.StringVar(&settingsFile, "settings", "", "YAML file overriding control settings per motor kind.")
	flag.BoolVar(&visualize, "see", false, "Write visualization messages to stdout.")
	flag.BoolVar(&setupPorts, "setup", false, "Set up the attached ports on start.")
}

func portsLabel(sim *simhub.Hub) string {
	var ports []string
	for n := 0; n < motor.NumPorts; n++ {
		p := motor.Port(n)
		if port := sim.Port(p); port != nil {
			ports = append(ports, p.String()+":"+port.Kind.String())
		}
	}
	return strings.Join(ports, ",")
}

func setupAll(hub *servo.Hub, sim *simhub.Hub) {
	for n := 0; n < motor.NumPorts; n++ {
		p := motor.Port(n)
		if sim.Port(p) == nil {
			continue
		}
		var err error
		for n := 0; n < setupRetries; n++ {
			if _, err = hub.Setup(p, servo.Options{ResetAngle: true}); !motor.IsAgain(err) {
				break
			}
			time.Sleep(motor.LoopPeriodMs * time.Millisecond)
		}
		if err != nil {
			glog.Fatalf("setup port %s: %v", p, err)
		}
		glog.Infof("port %s ready", p)
	}
}

func main() {
	flag.Parse()

	sim, err := simhub.NewConfig().NewHub("servod")
	if err != nil {
		glog.Fatal(err)
	}

	conf := env.NewConfig()
	conf.Info.Meta.Labels = map[string]string{"ports": portsLabel(sim)}
	e := conf.MustNewEnv()

	hub, err := servo.NewHub(servo.Devices{Driver: sim, Angles: sim}, sim, sim)
	if err != nil {
		glog.Fatal(err)
	}
	hub.Events = e.Registrar
	if settingsFile != "" {
		if hub.Settings, err = control.LoadSettingsFile(settingsFile); err != nil {
			glog.Fatal(err)
		}
	}
	if setupPorts {
		setupAll(hub, sim)
	}

	loop := fx.NewLoop()
	loop.Interval = motor.LoopPeriodMs * time.Millisecond
	loop.Add(sim, e, hub, &drivebase.Host{Hub: hub, Events: e.Registrar})
	if e.MQTT != nil {
		loop.Add(&servo.Telemetry{Hub: hub, Publisher: e.MQTT})
	}
	if visualize {
		loop.Add(see.NewConfig().NewAdapter().Subscribe(sim))
	}

	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Fatal(err)
	}
}
