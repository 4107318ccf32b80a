package mqtt

import (
	"context"
	"github.com/shimmeringbee/da/capabilities"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/xbeeio/entity"
	"strings"
	"time"
)

const commandTimeout = 15 * time.Second

const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
)

// Controller switches entities by name.
type Controller interface {
	TurnOn(ctx context.Context, name string) error
	TurnOff(ctx context.Context, name string) error
}

// Bridge publishes <prefix>/<entity>/state, retained, and accepts ON or OFF on <prefix>/<entity>/set
// for switchable entities.
type Bridge struct {
	broker     Broker
	prefix     string
	controller Controller
	logger     logwrap.Logger
}

func NewBridge(b Broker, prefix string, c Controller) *Bridge {
	return &Bridge{
		broker:     b,
		prefix:     strings.TrimSuffix(prefix, "/"),
		controller: c,
		logger:     logwrap.New(discard.Discard()),
	}
}

func (b *Bridge) WithLogWrapLogger(lw logwrap.Logger) {
	b.logger = lw
}

func (b *Bridge) topic(name, leaf string) string {
	return b.prefix + "/" + name + "/" + leaf
}

// Start publishes the current state and capability of every entity, then subscribes to the command
// topic of every switchable one.
func (b *Bridge) Start(ctx context.Context, entities []entity.Entity) error {
	for _, e := range entities {
		if c, ok := e.(entity.Capable); ok {
			if err := b.broker.Publish(b.topic(e.Name(), "capability"), []byte(capabilities.StandardNames[c.Capability()]), true); err != nil {
				return err
			}
		}

		if state, found := e.State(); found {
			if err := b.broker.Publish(b.topic(e.Name(), "state"), []byte(state), true); err != nil {
				return err
			}
		}

		if !isSwitchable(e) {
			continue
		}

		name := e.Name()
		if err := b.broker.Subscribe(b.topic(name, "set"), func(_ string, payload []byte) {
			b.command(ctx, name, payload)
		}); err != nil {
			return err
		}
	}

	return nil
}

func isSwitchable(e entity.Entity) bool {
	if _, ok := e.(entity.Switchable); !ok {
		return false
	}

	if d, ok := e.(*entity.DigitalPin); ok && d.Role() == entity.Input {
		return false
	}

	return true
}

func (b *Bridge) command(ctx context.Context, name string, payload []byte) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var err error

	switch strings.ToUpper(strings.TrimSpace(string(payload))) {
	case PayloadOn:
		err = b.controller.TurnOn(ctx, name)
	case PayloadOff:
		err = b.controller.TurnOff(ctx, name)
	default:
		b.logger.LogWarn(ctx, "Ignoring unrecognised command.", logwrap.Datum("Entity", name), logwrap.Datum("Payload", string(payload)))
		return
	}

	if err != nil {
		b.logger.LogError(ctx, "Failed to switch entity.", logwrap.Datum("Entity", name), logwrap.Err(err))
	}
}

// StateChanged publishes a state change, it is registered as a host subscriber.
func (b *Bridge) StateChanged(ctx context.Context, e entity.StateChanged) error {
	if err := b.broker.Publish(b.topic(e.Entity, "state"), []byte(e.State), true); err != nil {
		b.logger.LogWarn(ctx, "Failed to publish state.", logwrap.Datum("Entity", e.Entity), logwrap.Err(err))
	}

	return nil
}
