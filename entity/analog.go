package entity

import (
	"context"
	"github.com/shimmeringbee/da"
	"github.com/shimmeringbee/da/capabilities"
	"github.com/shimmeringbee/xbeeio"
	"github.com/shimmeringbee/xbeeio/config"
	"math"
	"strconv"
)

var _ Entity = (*AnalogInput)(nil)
var _ Capable = (*AnalogInput)(nil)

// AnalogInput reports an ADC pin as a percentage of full scale, or in millivolts.
type AnalogInput struct {
	Base
	cfg   config.AnalogPinConfig
	radio Radio
}

func NewAnalogInput(ctx context.Context, cfg config.AnalogPinConfig, radio Radio, opts Options) *AnalogInput {
	a := &AnalogInput{
		Base:  NewBase(cfg.Name, opts),
		cfg:   cfg,
		radio: radio,
	}

	initialRead(ctx, a, a.logger)

	return a
}

func (a *AnalogInput) Capability() da.Capability {
	return capabilities.LevelFlag
}

func (a *AnalogInput) ShouldPoll() bool {
	return a.cfg.ShouldPoll
}

func (a *AnalogInput) UnitOfMeasurement() string {
	if a.cfg.Report == config.ReportMillivolts {
		return "mV"
	}

	return "%"
}

// Raw returns the last 10-bit reading.
func (a *AnalogInput) Raw() (uint16, bool) {
	raw, found := a.s.Int(ReadingKey)
	return uint16(raw), found
}

// Percentage returns the reading as a whole percentage of ADCMaxValue, clamped to 0-100.
func (a *AnalogInput) Percentage() (int, bool) {
	raw, found := a.Raw()
	if !found {
		return 0, false
	}

	return Percentage(raw), true
}

// Millivolts returns the reading scaled by the pin's maximum voltage.
func (a *AnalogInput) Millivolts() (float64, bool) {
	raw, found := a.Raw()
	if !found {
		return 0, false
	}

	return Millivolts(raw, a.cfg.MaxVolts), true
}

func Percentage(raw uint16) int {
	pct := float64(raw) * 100 / xbeeio.ADCMaxValue
	return int(math.Max(0, math.Min(100, pct)))
}

func Millivolts(raw uint16, maxVolts float64) float64 {
	return float64(raw) * maxVolts * 1000 / xbeeio.ADCMaxValue
}

func (a *AnalogInput) State() (string, bool) {
	raw, found := a.Raw()
	if !found {
		return "", false
	}

	return a.format(raw), true
}

func (a *AnalogInput) format(raw uint16) string {
	if a.cfg.Report == config.ReportMillivolts {
		return strconv.FormatFloat(math.Round(Millivolts(raw, a.cfg.MaxVolts)), 'f', 0, 64)
	}

	return strconv.Itoa(Percentage(raw))
}

func (a *AnalogInput) Update(ctx context.Context) error {
	raw, err := a.radio.ReadAnalogSample(ctx, a.cfg.Pin, a.cfg.Address)
	if err != nil {
		return err
	}

	current, found := a.s.Int(ReadingKey)
	a.s.Set(ReadingKey, int(raw))

	a.Updated(ctx, !found || int(current) != int(raw), a.format(raw))
	return nil
}
