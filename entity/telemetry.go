package entity

import (
	"context"
	"github.com/shimmeringbee/da"
	"github.com/shimmeringbee/da/capabilities"
	"github.com/shimmeringbee/xbeeio/config"
	"math"
	"strconv"
)

var _ Entity = (*TemperatureSensor)(nil)
var _ Capable = (*TemperatureSensor)(nil)

// TemperatureSensor reports the radio module's temperature.
type TemperatureSensor struct {
	Base
	cfg   config.SensorConfig
	radio Radio
}

func NewTemperatureSensor(ctx context.Context, cfg config.SensorConfig, radio Radio, opts Options) *TemperatureSensor {
	t := &TemperatureSensor{
		Base:  NewBase(cfg.Name, opts),
		cfg:   cfg,
		radio: radio,
	}

	initialRead(ctx, t, t.logger)

	return t
}

func (t *TemperatureSensor) Capability() da.Capability {
	return capabilities.TemperatureSensorFlag
}

func (t *TemperatureSensor) ShouldPoll() bool {
	return true
}

func (t *TemperatureSensor) UnitOfMeasurement() string {
	return "°C"
}

func (t *TemperatureSensor) Celsius() (int, bool) {
	c, found := t.s.Int(ReadingKey)
	return int(c), found
}

func (t *TemperatureSensor) State() (string, bool) {
	c, found := t.Celsius()
	if !found {
		return "", false
	}

	return strconv.Itoa(c), true
}

func (t *TemperatureSensor) Update(ctx context.Context) error {
	c, err := t.radio.ReadTemperature(ctx, t.cfg.Address)
	if err != nil {
		return err
	}

	current, found := t.s.Int(ReadingKey)
	t.s.Set(ReadingKey, c)

	t.Updated(ctx, !found || int(current) != c, strconv.Itoa(c))
	return nil
}

var _ Entity = (*SupplyVoltageSensor)(nil)
var _ Capable = (*SupplyVoltageSensor)(nil)

// SupplyVoltageSensor reports the radio's supply voltage, useful for battery powered remotes.
type SupplyVoltageSensor struct {
	Base
	cfg   config.SensorConfig
	radio Radio
}

func NewSupplyVoltageSensor(ctx context.Context, cfg config.SensorConfig, radio Radio, opts Options) *SupplyVoltageSensor {
	v := &SupplyVoltageSensor{
		Base:  NewBase(cfg.Name, opts),
		cfg:   cfg,
		radio: radio,
	}

	initialRead(ctx, v, v.logger)

	return v
}

func (v *SupplyVoltageSensor) Capability() da.Capability {
	return capabilities.PowerSupplyFlag
}

func (v *SupplyVoltageSensor) ShouldPoll() bool {
	return true
}

func (v *SupplyVoltageSensor) UnitOfMeasurement() string {
	return "V"
}

func (v *SupplyVoltageSensor) Volts() (float64, bool) {
	return v.s.Float(ReadingKey)
}

func (v *SupplyVoltageSensor) State() (string, bool) {
	volts, found := v.Volts()
	if !found {
		return "", false
	}

	return formatVolts(volts), true
}

func formatVolts(volts float64) string {
	return strconv.FormatFloat(volts, 'f', 2, 64)
}

func (v *SupplyVoltageSensor) Update(ctx context.Context) error {
	volts, err := v.radio.ReadSupplyVoltage(ctx, v.cfg.Address)
	if err != nil {
		return err
	}

	current, found := v.s.Float(ReadingKey)
	v.s.Set(ReadingKey, volts)

	v.Updated(ctx, !found || math.Abs(current-volts) > 0.001, formatVolts(volts))
	return nil
}
