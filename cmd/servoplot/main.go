// Command servoplot runs a maneuver on a simulated motor and saves charts
// of the angle, speed and duty cycle over time.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/servo"
	"github.com/robotalks/servo.go/pkg/sim/visualization/chart"
)

var (
	kindName = motor.KindEV3Large.String()
	action   = "run-angle"
	speed    = 500.0
	angle    = 360.0
	duration = 1000
	thenName = motor.ThenHold.String()
	length   = 2 * time.Second
	load     = 0.0
	out      = "servo"
)

func init() {
	flag.StringVar(&kindName, "kind", kindName, "Motor kind.")
	flag.StringVar(&action, "action", action, "One of run, run-time, run-angle, run-target, run-until-stalled, track.")
	flag.Float64Var(&speed, "speed", speed, "Speed (deg/s).")
	flag.Float64Var(&angle, "angle", angle, "Angle or target (deg).")
	flag.IntVar(&duration, "duration", duration, "Duration of run-time (ms).")
	flag.StringVar(&thenName, "then", thenName, "Stop policy: coast, brake, hold or continue.")
	flag.DurationVar(&length, "length", length, "Simulated time.")
	flag.Float64Var(&load, "load", load, "External torque on the shaft (Nm).")
	flag.StringVar(&out, "o", out, "Prefix of the saved charts.")
}

func command(then motor.Then) (chart.Command, error) {
	mdegs := int32(speed * 1000)
	mdeg := int64(angle * 1000)
	switch action {
	case "run":
		return func(s *servo.Servo, now motor.Ticks) error {
			return s.Run(now, mdegs)
		}, nil
	case "run-time":
		return func(s *servo.Servo, now motor.Ticks) error {
			return s.RunTime(now, mdegs, int32(duration), then)
		}, nil
	case "run-angle":
		return func(s *servo.Servo, now motor.Ticks) error {
			return s.RunAngle(now, mdegs, mdeg, then)
		}, nil
	case "run-target":
		return func(s *servo.Servo, now motor.Ticks) error {
			return s.RunTarget(now, mdegs, motor.AngleFromMillidegrees(mdeg), then)
		}, nil
	case "run-until-stalled":
		return func(s *servo.Servo, now motor.Ticks) error {
			return s.RunUntilStalled(now, mdegs, then)
		}, nil
	case "track":
		return func(s *servo.Servo, now motor.Ticks) error {
			return s.TrackTarget(now, motor.AngleFromMillidegrees(mdeg))
		}, nil
	}
	return nil, errors.Errorf("unknown action %q", action)
}

func main() {
	flag.Set("logtostderr", "true")
	flag.Parse()

	kind, err := motor.ParseKind(kindName)
	if err != nil {
		glog.Fatal(err)
	}
	then, err := motor.ParseThen(thenName)
	if err != nil {
		glog.Fatal(err)
	}
	cmd, err := command(then)
	if err != nil {
		glog.Fatal(err)
	}
	sc := &chart.Scenario{Kind: kind, Duration: length, Command: cmd, Load: load}
	rows, err := sc.Run()
	if err != nil {
		glog.Fatal(err)
	}
	title := fmt.Sprintf("%s %s %.0f deg/s", kind, action, speed)
	files, err := chart.Save(out, title, rows)
	if err != nil {
		glog.Fatal(err)
	}
	for _, file := range files {
		glog.Infof("saved %s", file)
	}
}
