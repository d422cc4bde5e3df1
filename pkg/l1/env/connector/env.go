// Package connector sets up the connection of an L2 client to an L1
// controller from flags and environment variables.
package connector

import (
	"context"
	"flag"
	"net/url"

	"github.com/caarlos0/env"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/l1"
	"github.com/robotalks/servo.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/servo.go/pkg/l1/comm/stream"
	"github.com/robotalks/servo.go/pkg/l1/comm/websocket"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref l1.ControllerRef

	Type string `env:"ROBO_TYPE"`
	ID   string `env:"ROBO_ID"`

	// RegistryURL specifies the URL of controller registry, or the
	// controller itself for tcp:// and ws:// URLs.
	// e.g. mqtt://host:port/topic-prefix, tcp://host:7600
	RegistryURL string `env:"ROBO_REGISTRY_URL"`
}

var defaultConfig = Config{
	RegistryURL: "tcp://localhost:7600",
}

func init() {
	env.Parse(&defaultConfig)
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Type, "robot-type", defaultConfig.Type, "Robot type to connect.")
	flag.StringVar(&defaultConfig.ID, "robot-id", defaultConfig.ID, "Robot ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "robot-reg", defaultConfig.RegistryURL, "Robot Registry URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Ref = l1.ControllerRef{Type: conf.Type, ID: conf.ID}
	return &conf
}

// Direct indicates RegistryURL is the controller itself.
func (c *Config) Direct() bool {
	u, err := url.Parse(c.RegistryURL)
	return err == nil && (u.Scheme == "tcp" || u.Scheme == "ws")
}

// ResolveRef returns Ref, or the reference of the controller for a
// direct URL.
func (c *Config) ResolveRef() l1.ControllerRef {
	if c.Ref.IsValid() || !c.Direct() {
		return c.Ref
	}
	connector, err := c.NewConnector()
	if err != nil {
		return c.Ref
	}
	infos, _ := connector.Discover(context.TODO())
	return infos[0].Ref
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	u, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid registry URL")
	}
	switch u.Scheme {
	case "mqtt":
		return mqtt.NewConnector(c.RegistryURL)
	case "tcp":
		return &stream.Connector{Addr: u.Host}, nil
	case "ws":
		return &websocket.Connector{URL: c.RegistryURL}, nil
	default:
		return nil, errors.Errorf("unknown registry URL scheme: %q", u.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		glog.Fatal(err)
	}
	return conn
}

// Connect directly connects to L1 controller.
func (c *Config) Connect() (l1.ControllerConn, error) {
	ref := c.ResolveRef()
	if !ref.IsValid() {
		return nil, errors.New("robot type and id must be specified")
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.TODO(), ref)
}

// MustConnect connects to L1 controller for fail.
func (c *Config) MustConnect() l1.ControllerConn {
	conn, err := c.Connect()
	if err != nil {
		glog.Fatal(err)
	}
	return conn
}
