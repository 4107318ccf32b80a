package host

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/xbeeio/config"
	"github.com/shimmeringbee/xbeeio/entity"
	"github.com/shimmeringbee/xbeeio/tcp"
	"strings"
)

// Setup builds every configured entity and adds it to the registry. A malformed entry only prevents
// that entity, its error is returned alongside any others.
func (h *Host) Setup(ctx context.Context, cfg config.Config, radio entity.Radio) []error {
	var errs []error

	add := func(list string, e entity.Entity, err error) {
		if err == nil {
			err = h.registry.Add(e)
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", list, err))
		}
	}

	for _, ec := range cfg.Lights {
		e, err := h.digital(ctx, entity.Output, ec, radio)
		add("lights", e, err)
	}

	for _, ec := range cfg.Switches {
		e, err := h.digital(ctx, entity.Output, ec, radio)
		add("switches", e, err)
	}

	for _, ec := range cfg.Sensors {
		e, err := h.sensor(ctx, ec, radio)
		add("sensors", e, err)
	}

	for _, ec := range cfg.TCPSensors {
		e, err := h.tcpSensor(ctx, ec)
		add("tcp_sensors", e, err)
	}

	return errs
}

func (h *Host) digital(ctx context.Context, role entity.Role, ec config.EntityConfig, radio entity.Radio) (entity.Entity, error) {
	var cfg config.DigitalPinConfig
	var err error

	if role == entity.Input {
		cfg, err = config.NewDigitalInputConfig(ec)
	} else {
		cfg, err = config.NewDigitalOutputConfig(ec)
	}

	if err != nil {
		return nil, err
	}

	return entity.NewDigitalPin(ctx, role, cfg, radio, h.entityOptions(cfg.Name)), nil
}

func (h *Host) sensor(ctx context.Context, ec config.EntityConfig, radio entity.Radio) (entity.Entity, error) {
	switch strings.ToLower(ec.Type) {
	case config.SensorTemperature:
		cfg, err := config.NewSensorConfig(ec)
		if err != nil {
			return nil, err
		}

		return entity.NewTemperatureSensor(ctx, cfg, radio, h.entityOptions(cfg.Name)), nil
	case config.SensorSupplyVoltage:
		cfg, err := config.NewSensorConfig(ec)
		if err != nil {
			return nil, err
		}

		return entity.NewSupplyVoltageSensor(ctx, cfg, radio, h.entityOptions(cfg.Name)), nil
	case config.SensorAnalog, config.SensorAnalogue:
		cfg, err := config.NewAnalogPinConfig(ec)
		if err != nil {
			return nil, err
		}

		return entity.NewAnalogInput(ctx, cfg, radio, h.entityOptions(cfg.Name)), nil
	case config.SensorDigital:
		return h.digital(ctx, entity.Input, ec, radio)
	default:
		return nil, fmt.Errorf("%s: %w: %q", ec.Name, config.ErrUnknownType, ec.Type)
	}
}

func (h *Host) tcpSensor(ctx context.Context, ec config.EntityConfig) (entity.Entity, error) {
	cfg, err := config.NewTCPSensorConfig(ec)
	if err != nil {
		return nil, err
	}

	return tcp.NewSensor(ctx, cfg, h.entityOptions(cfg.Name)), nil
}
