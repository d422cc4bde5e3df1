// Package controller sets up the transports of an L1 controller from
// flags and environment variables.
package controller

import (
	"flag"
	"net/url"
	"strings"

	"github.com/caarlos0/env"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1"
	"github.com/robotalks/servo.go/pkg/l1/comm"
	"github.com/robotalks/servo.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/servo.go/pkg/l1/comm/rest"
	"github.com/robotalks/servo.go/pkg/l1/comm/stream"
	"github.com/robotalks/servo.go/pkg/l1/comm/websocket"
	l1env "github.com/robotalks/servo.go/pkg/l1/env"
)

// Config provides common options to setup an env for L1 controllers.
type Config struct {
	Info l1.ControllerInfo

	Type string `env:"ROBO_TYPE"`
	ID   string `env:"ROBO_ID"`

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `env:"ROBO_MQTT_URL"`

	// Listen is a comma separated list of URLs to accept clients on,
	// e.g. tcp://:7600,ws://:7601/l1
	Listen string `env:"ROBO_LISTEN"`

	// RESTAddr is the address of the HTTP API, empty to disable.
	RESTAddr string `env:"ROBO_REST"`
}

var defaultConfig = Config{
	MQTTBrokerURL: "mqtt://localhost:1883/robo/",
	Listen:        "tcp://:7600",
}

func init() {
	env.Parse(&defaultConfig)
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Type, "type", defaultConfig.Type, "Controller type")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Controller ID, defaults to machine ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.StringVar(&defaultConfig.Listen, "listen", defaultConfig.Listen, "Comma separated tcp:// or ws:// URLs to listen on")
	flag.StringVar(&defaultConfig.RESTAddr, "rest", defaultConfig.RESTAddr, "Address of the REST API, empty to disable")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// SetControllerType should be called in init with basic info about the controller.
func SetControllerType(typ string, meta l1.ControllerMeta) {
	if defaultConfig.Type == "" {
		defaultConfig.Type = typ
	}
	defaultConfig.Info.Meta = meta
}

// Env is the env for L1 controllers.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
	// MQTT is the MQTT registrar if configured.
	MQTT *mqtt.Registrar
	// REST is the HTTP API if configured.
	REST *rest.Server
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Ref returns the reference of the controller.
func (c *Config) Ref() l1.ControllerRef {
	ref := l1.ControllerRef{Type: c.Type, ID: c.ID}
	if ref.ID == "" {
		ref.ID = l1env.MachineID()
	}
	return ref
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	c.Info.Ref = c.Ref()
	if !c.Info.Ref.IsValid() {
		return nil, errors.New("controller type and id must be specified")
	}
	env := &Env{
		Config:    c,
		Registrar: &comm.RegistrarMux{},
	}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, errors.Wrap(err, "create MQTT registrar")
		}
		env.MQTT = reg
		env.Registrar.Add(reg)
		env.RegistryURLs = append(env.RegistryURLs, c.MQTTBrokerURL)
	}
	for _, listenURL := range strings.Split(c.Listen, ",") {
		if listenURL = strings.TrimSpace(listenURL); listenURL == "" {
			continue
		}
		reg, err := newListener(listenURL)
		if err != nil {
			return nil, err
		}
		env.Registrar.Add(reg)
		env.RegistryURLs = append(env.RegistryURLs, listenURL)
	}
	if c.RESTAddr != "" {
		env.REST = &rest.Server{Addr: c.RESTAddr}
	}
	if len(env.Registrar.Registrars) == 0 && env.REST == nil {
		return nil, errors.New("at least one registrar is required")
	}
	glog.Infof("controller %s registered on %v", c.Info.Ref.Name(), env.RegistryURLs)
	return env, nil
}

func newListener(listenURL string) (l1.Registrar, error) {
	u, err := url.Parse(listenURL)
	if err != nil {
		return nil, errors.Wrapf(err, "listen URL %q", listenURL)
	}
	switch u.Scheme {
	case "tcp":
		return &stream.Server{Addr: u.Host}, nil
	case "ws":
		return &websocket.Server{Addr: u.Host, Path: u.Path}, nil
	default:
		return nil, errors.Errorf("unknown listen URL scheme: %q", u.Scheme)
	}
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		glog.Fatal(err)
	}
	return env
}

// AddToLoop adds controllers/runners to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar)
	if e.REST != nil {
		loop.Add(e.REST)
	}
	loop.Add(&comm.UnsupportedCommands{})
}
