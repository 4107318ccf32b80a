package config

import (
	"errors"
	"fmt"
	"github.com/shimmeringbee/xbeeio"
	"regexp"
	"strings"
	"time"
)

// Sensor types accepted in the sensors list.
const (
	SensorTemperature   = "temperature"
	SensorAnalog        = "analog"
	SensorAnalogue      = "analogue"
	SensorDigital       = "digital"
	SensorSupplyVoltage = "supply_voltage"
)

// Analog report units.
const (
	ReportPercentage = "percentage"
	ReportMillivolts = "millivolts"
)

const (
	DefaultMaxVolts      = 1.2
	DefaultTCPTimeout    = 10 * time.Second
	DefaultTCPBufferSize = 1024
)

var (
	ErrMissingName   = errors.New("name is required")
	ErrMissingPin    = errors.New("pin is required")
	ErrPinOutOfRange = errors.New("pin out of range")
	ErrUnknownType   = errors.New("unknown sensor type")
	ErrInvalidReport = errors.New("report must be percentage or millivolts")
	ErrMissingKey    = errors.New("required key missing")
)

// EntityConfig is one entry of the lights, switches, sensors or tcp_sensors lists, before validation.
type EntityConfig struct {
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	Address  string  `yaml:"address"`
	Pin      *int    `yaml:"pin"`
	OnState  string  `yaml:"on_state"`
	Poll     *bool   `yaml:"poll"`
	MaxVolts float64 `yaml:"max_volts"`
	Report   string  `yaml:"report"`

	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Payload    string        `yaml:"payload"`
	Timeout    time.Duration `yaml:"timeout"`
	BufferSize int           `yaml:"buffer_size"`
	ValueRegex string        `yaml:"value_regex"`
	Unit       string        `yaml:"unit"`
}

// DigitalPinConfig describes a digital pin used as an output (light, switch) or input (digital sensor).
type DigitalPinConfig struct {
	Name       string
	Address    xbeeio.Address
	Pin        int
	ShouldPoll bool
	BoolMap    xbeeio.BoolMap
}

type AnalogPinConfig struct {
	Name       string
	Address    xbeeio.Address
	Pin        int
	ShouldPoll bool
	MaxVolts   float64
	Report     string
}

// SensorConfig describes a radio-level sensor, such as the module temperature.
type SensorConfig struct {
	Name    string
	Address xbeeio.Address
}

type TCPSensorConfig struct {
	Name       string
	Host       string
	Port       int
	Payload    string
	Timeout    time.Duration
	BufferSize int
	ValueRegex *regexp.Regexp
	Unit       string
}

func (e EntityConfig) common() (string, xbeeio.Address, error) {
	if e.Name == "" {
		return "", xbeeio.LocalRadio, ErrMissingName
	}

	addr, err := xbeeio.ParseAddress(e.Address)
	if err != nil {
		return "", xbeeio.LocalRadio, fmt.Errorf("%s: %w", e.Name, err)
	}

	return e.Name, addr, nil
}

func (e EntityConfig) pin(count int) (int, error) {
	if e.Pin == nil {
		return 0, fmt.Errorf("%s: %w", e.Name, ErrMissingPin)
	}

	if *e.Pin < 0 || *e.Pin >= count {
		return 0, fmt.Errorf("%s: %w: %d not in 0-%d", e.Name, ErrPinOutOfRange, *e.Pin, count-1)
	}

	return *e.Pin, nil
}

func (e EntityConfig) shouldPoll(def bool) bool {
	if e.Poll == nil {
		return def
	}

	return *e.Poll
}

func (e EntityConfig) digital(defaultPoll bool) (DigitalPinConfig, error) {
	name, addr, err := e.common()
	if err != nil {
		return DigitalPinConfig{}, err
	}

	pin, err := e.pin(len(xbeeio.DigitalPins))
	if err != nil {
		return DigitalPinConfig{}, err
	}

	return DigitalPinConfig{
		Name:       name,
		Address:    addr,
		Pin:        pin,
		ShouldPoll: e.shouldPoll(defaultPoll),
		BoolMap:    xbeeio.NewBoolMap(e.OnState),
	}, nil
}

// NewDigitalOutputConfig validates a light or switch entry. Outputs are not polled unless poll is set.
func NewDigitalOutputConfig(e EntityConfig) (DigitalPinConfig, error) {
	return e.digital(false)
}

// NewDigitalInputConfig validates a digital sensor entry. Inputs are polled unless poll is false.
func NewDigitalInputConfig(e EntityConfig) (DigitalPinConfig, error) {
	return e.digital(true)
}

func NewAnalogPinConfig(e EntityConfig) (AnalogPinConfig, error) {
	name, addr, err := e.common()
	if err != nil {
		return AnalogPinConfig{}, err
	}

	pin, err := e.pin(len(xbeeio.AnalogPins))
	if err != nil {
		return AnalogPinConfig{}, err
	}

	maxVolts := e.MaxVolts
	if maxVolts <= 0 {
		maxVolts = DefaultMaxVolts
	}

	report := strings.ToLower(e.Report)
	switch report {
	case "":
		report = ReportPercentage
	case ReportPercentage, ReportMillivolts:
	default:
		return AnalogPinConfig{}, fmt.Errorf("%s: %w: %q", name, ErrInvalidReport, e.Report)
	}

	return AnalogPinConfig{
		Name:       name,
		Address:    addr,
		Pin:        pin,
		ShouldPoll: e.shouldPoll(true),
		MaxVolts:   maxVolts,
		Report:     report,
	}, nil
}

func NewSensorConfig(e EntityConfig) (SensorConfig, error) {
	name, addr, err := e.common()
	if err != nil {
		return SensorConfig{}, err
	}

	return SensorConfig{Name: name, Address: addr}, nil
}

// NewTCPSensorConfig validates a tcp_sensors entry. The value regex, when present, must have a capture
// group and is anchored at the start of the response.
func NewTCPSensorConfig(e EntityConfig) (TCPSensorConfig, error) {
	if e.Name == "" {
		return TCPSensorConfig{}, ErrMissingName
	}

	var missing []string
	if e.Host == "" {
		missing = append(missing, "host")
	}
	if e.Port == 0 {
		missing = append(missing, "port")
	}
	if e.Payload == "" {
		missing = append(missing, "payload")
	}

	if len(missing) > 0 {
		return TCPSensorConfig{}, fmt.Errorf("%s: %w: %s", e.Name, ErrMissingKey, strings.Join(missing, ", "))
	}

	cfg := TCPSensorConfig{
		Name:       e.Name,
		Host:       e.Host,
		Port:       e.Port,
		Payload:    e.Payload,
		Timeout:    e.Timeout,
		BufferSize: e.BufferSize,
		Unit:       e.Unit,
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTCPTimeout
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultTCPBufferSize
	}

	if e.ValueRegex != "" {
		re, err := regexp.Compile(`^(?:` + e.ValueRegex + `)`)
		if err != nil {
			return TCPSensorConfig{}, fmt.Errorf("%s: invalid value_regex: %w", e.Name, err)
		}

		if re.NumSubexp() < 1 {
			return TCPSensorConfig{}, fmt.Errorf("%s: value_regex needs a capture group", e.Name)
		}

		cfg.ValueRegex = re
	}

	return cfg, nil
}
