package entity

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/da"
	"github.com/shimmeringbee/da/capabilities"
	"github.com/shimmeringbee/xbeeio"
	"github.com/shimmeringbee/xbeeio/config"
	"sync"
)

var ErrReadOnly = errors.New("digital input cannot be switched")

const (
	StateOn  = "on"
	StateOff = "off"
)

type Role int

const (
	// Output pins are driven by the radio, lights and switches.
	Output Role = iota
	// Input pins are sampled, digital sensors.
	Input
)

func (r Role) String() string {
	if r == Input {
		return "input"
	}

	return "output"
}

var _ Switchable = (*DigitalPin)(nil)
var _ Capable = (*DigitalPin)(nil)

// DigitalPin is a single digital pin, either an output whose level is its GPIO setting or an input whose
// level is read from an IO sample. Both are mapped to on/off via the pin's BoolMap.
type DigitalPin struct {
	Base
	role  Role
	cfg   config.DigitalPinConfig
	radio Radio
	// m is held across a radio exchange and the store of its result, so a poll cannot overwrite a
	// commanded state.
	m *sync.Mutex
}

// NewDigitalPin creates the entity and reads the pin's current state.
func NewDigitalPin(ctx context.Context, role Role, cfg config.DigitalPinConfig, radio Radio, opts Options) *DigitalPin {
	d := &DigitalPin{
		Base:  NewBase(cfg.Name, opts),
		role:  role,
		cfg:   cfg,
		radio: radio,
		m:     &sync.Mutex{},
	}

	initialRead(ctx, d, d.logger)

	return d
}

func (d *DigitalPin) Capability() da.Capability {
	if d.role == Input {
		return capabilities.AlarmSensorFlag
	}

	return capabilities.OnOffFlag
}

func (d *DigitalPin) Role() Role {
	return d.role
}

func (d *DigitalPin) ShouldPoll() bool {
	return d.cfg.ShouldPoll
}

func (d *DigitalPin) UnitOfMeasurement() string {
	return ""
}

func (d *DigitalPin) IsOn() bool {
	on, _ := d.s.Bool(ReadingKey)
	return on
}

func (d *DigitalPin) State() (string, bool) {
	on, found := d.s.Bool(ReadingKey)
	if !found {
		return "", false
	}

	return formatOnOff(on), true
}

func formatOnOff(on bool) string {
	if on {
		return StateOn
	}

	return StateOff
}

func (d *DigitalPin) Update(ctx context.Context) error {
	d.m.Lock()
	defer d.m.Unlock()

	on, err := d.read(ctx)
	if err != nil {
		return err
	}

	d.set(ctx, on)
	return nil
}

func (d *DigitalPin) read(ctx context.Context) (bool, error) {
	if d.role == Input {
		high, err := d.radio.ReadDigitalSample(ctx, d.cfg.Pin, d.cfg.Address)
		if err != nil {
			return false, err
		}

		return d.cfg.BoolMap.Level(high), nil
	}

	setting, err := d.radio.ReadGPIO(ctx, d.cfg.Pin, d.cfg.Address)
	if err != nil {
		return false, err
	}

	on, ok := d.cfg.BoolMap.Bool(setting)
	if !ok {
		return false, &xbeeio.Error{
			Kind:    xbeeio.PinNotConfigured,
			Command: xbeeio.IOPinCommands[d.cfg.Pin],
			Detail:  fmt.Sprintf("pin is %s, not a digital output", setting),
		}
	}

	return on, nil
}

func (d *DigitalPin) set(ctx context.Context, on bool) {
	current, found := d.s.Bool(ReadingKey)
	d.s.Set(ReadingKey, on)

	d.Updated(ctx, !found || current != on, formatOnOff(on))
}

func (d *DigitalPin) TurnOn(ctx context.Context) error {
	return d.turn(ctx, true)
}

func (d *DigitalPin) TurnOff(ctx context.Context) error {
	return d.turn(ctx, false)
}

// turn drives the output, on success the commanded state is taken as the new state without reading it
// back from the radio.
func (d *DigitalPin) turn(ctx context.Context, on bool) error {
	if d.role == Input {
		return ErrReadOnly
	}

	d.m.Lock()
	defer d.m.Unlock()

	if err := d.radio.WriteGPIO(ctx, d.cfg.Pin, d.cfg.BoolMap.Setting(on), d.cfg.Address); err != nil {
		return err
	}

	d.set(ctx, on)
	return nil
}
