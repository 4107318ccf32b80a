// Package tcp implements a sensor whose value is obtained by sending a payload to a TCP service and
// reading its reply.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/xbeeio/config"
	"github.com/shimmeringbee/xbeeio/entity"
	"net"
	"strconv"
	"time"
)

var ErrNoMatch = errors.New("response did not match value_regex")

var _ entity.Entity = (*Sensor)(nil)

type Sensor struct {
	entity.Base
	cfg    config.TCPSensorConfig
	dialer *net.Dialer
}

// NewSensor creates the sensor and takes an initial reading.
func NewSensor(ctx context.Context, cfg config.TCPSensorConfig, opts entity.Options) *Sensor {
	s := &Sensor{
		Base:   entity.NewBase(cfg.Name, opts),
		cfg:    cfg,
		dialer: &net.Dialer{Timeout: cfg.Timeout},
	}

	if err := s.Update(ctx); err != nil {
		s.Logger().LogWarn(ctx, "Initial read failed, entity has no value.", logwrap.Datum("Entity", cfg.Name), logwrap.Err(err))
	}

	return s
}

func (s *Sensor) ShouldPoll() bool {
	return true
}

func (s *Sensor) UnitOfMeasurement() string {
	return s.cfg.Unit
}

func (s *Sensor) State() (string, bool) {
	return s.Section().String(entity.ReadingKey)
}

// Update queries the service. Any failure leaves the previous state in place.
func (s *Sensor) Update(ctx context.Context) error {
	value, err := s.query(ctx)
	if err != nil {
		return err
	}

	current, found := s.Section().String(entity.ReadingKey)
	s.Section().Set(entity.ReadingKey, value)

	s.Updated(ctx, !found || current != value, value)
	return nil
}

func (s *Sensor) address() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

func (s *Sensor) query(ctx context.Context) (string, error) {
	conn, err := s.dialer.DialContext(ctx, "tcp", s.address())
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", s.address(), err)
	}
	defer conn.Close()

	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := conn.SetDeadline(deadline); err != nil {
		return "", err
	}

	if _, err := conn.Write([]byte(s.cfg.Payload)); err != nil {
		return "", fmt.Errorf("failed to send payload to %s: %w", s.address(), err)
	}

	buf := make([]byte, s.cfg.BufferSize)

	n, err := conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("failed to receive from %s: %w", s.address(), err)
	}

	value := string(buf[:n])

	if s.cfg.ValueRegex == nil {
		return value, nil
	}

	match := s.cfg.ValueRegex.FindStringSubmatch(value)
	if match == nil {
		return "", fmt.Errorf("%w: %q", ErrNoMatch, value)
	}

	return match[1], nil
}
