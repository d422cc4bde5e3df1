package hub

import (
	"flag"
	"strings"

	"github.com/caarlos0/env"
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
)

// Config defines the simulated hardware.
type Config struct {
	// Ports lists the attached motors as port:kind pairs, e.g.
	// "A:ev3-large,B:technic-m-angular".
	Ports string `env:"SERVOD_SIM_PORTS"`
	// Battery is the supply voltage (V).
	Battery float64 `env:"SERVOD_SIM_BATTERY"`
	// Identify is the number of lookups each port needs to identify its
	// motor.
	Identify int `env:"SERVOD_SIM_IDENTIFY"`
}

var defaultConfig = Config{
	Ports:   "A:ev3-large,B:ev3-large",
	Battery: DefaultBattery,
}

func init() {
	env.Parse(&defaultConfig)
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ports, "sim-ports", defaultConfig.Ports, "Simulated motors as port:kind pairs separated by comma.")
	flag.Float64Var(&defaultConfig.Battery, "sim-battery", defaultConfig.Battery, "Simulated battery voltage (V).")
	flag.IntVar(&defaultConfig.Identify, "sim-identify", defaultConfig.Identify, "Lookups needed to identify a simulated motor.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ParsePorts parses port:kind pairs.
func ParsePorts(s string) (map[motor.Port]motor.Kind, error) {
	ports := make(map[motor.Port]motor.Kind)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		pair := strings.SplitN(item, ":", 2)
		if len(pair) != 2 {
			return nil, errors.Wrapf(motor.ErrInvalidArgument, "port pair %q", item)
		}
		port, err := motor.ParsePort(pair[0])
		if err != nil {
			return nil, err
		}
		kind, err := motor.ParseKind(pair[1])
		if err != nil {
			return nil, err
		}
		ports[port] = kind
	}
	return ports, nil
}

// NewHub creates the simulated hub.
func (c *Config) NewHub(name string) (*Hub, error) {
	ports, err := ParsePorts(c.Ports)
	if err != nil {
		return nil, err
	}
	h := New(name)
	if c.Battery > 0 {
		h.Battery = c.Battery
	}
	for port, kind := range ports {
		p, err := h.Attach(port, kind)
		if err != nil {
			return nil, err
		}
		p.Identify = c.Identify
	}
	return h, nil
}
