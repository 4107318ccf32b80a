// Package entity adapts radio pins and telemetry into named entities with cached state, which a host can
// poll and, for outputs, switch.
package entity

import (
	"context"
	"github.com/shimmeringbee/callbacks"
	"github.com/shimmeringbee/da"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/persistence/converter"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/shimmeringbee/xbeeio"
	"time"
)

const (
	ReadingKey     = "Reading"
	LastUpdatedKey = "LastUpdated"
	LastChangedKey = "LastChanged"
)

// Radio is the subset of the command facade used by the adapters.
type Radio interface {
	ReadGPIO(ctx context.Context, pin int, addr xbeeio.Address) (xbeeio.GPIOSetting, error)
	WriteGPIO(ctx context.Context, pin int, setting xbeeio.GPIOSetting, addr xbeeio.Address) error
	ReadDigitalSample(ctx context.Context, pin int, addr xbeeio.Address) (bool, error)
	ReadAnalogSample(ctx context.Context, pin int, addr xbeeio.Address) (uint16, error)
	ReadTemperature(ctx context.Context, addr xbeeio.Address) (int, error)
	ReadSupplyVoltage(ctx context.Context, addr xbeeio.Address) (float64, error)
}

var _ Radio = (*xbeeio.XBee)(nil)

// Entity is what the host sees of every adapter.
type Entity interface {
	Name() string
	// State returns the formatted reading, false if no reading has been taken yet.
	State() (string, bool)
	UnitOfMeasurement() string
	ShouldPoll() bool
	Update(ctx context.Context) error
	LastUpdateTime() time.Time
	LastChangeTime() time.Time
}

// Switchable entities can be turned on and off.
type Switchable interface {
	Entity
	IsOn() bool
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
}

// Capable entities map onto a da capability.
type Capable interface {
	Capability() da.Capability
}

// StateChanged is announced through the events caller whenever an entity's state differs from its
// previous one.
type StateChanged struct {
	Entity string
	State  string
}

type Options struct {
	Section persistence.Section
	Events  callbacks.Caller
	Logger  *logwrap.Logger
}

func (o Options) withDefaults() Options {
	if o.Section == nil {
		o.Section = memory.New()
	}

	if o.Logger == nil {
		l := logwrap.New(discard.Discard())
		o.Logger = &l
	}

	return o
}

// Base holds the name, cached state timestamps and event plumbing shared by entities.
type Base struct {
	name   string
	s      persistence.Section
	events callbacks.Caller
	logger logwrap.Logger
}

func NewBase(name string, opts Options) Base {
	opts = opts.withDefaults()

	return Base{
		name:   name,
		s:      opts.Section,
		events: opts.Events,
		logger: *opts.Logger,
	}
}

func (b *Base) Name() string {
	return b.name
}

// Section is where the entity keeps its reading.
func (b *Base) Section() persistence.Section {
	return b.s
}

func (b *Base) Logger() logwrap.Logger {
	return b.logger
}

// Updated records a successful refresh, and on change announces the new state.
func (b *Base) Updated(ctx context.Context, changed bool, state string) {
	now := time.Now()

	if changed {
		converter.Store(b.s, LastChangedKey, now, converter.TimeEncoder)

		if b.events != nil {
			b.events.Call(ctx, StateChanged{Entity: b.name, State: state})
		}
	}

	converter.Store(b.s, LastUpdatedKey, now, converter.TimeEncoder)
}

func (b *Base) LastUpdateTime() time.Time {
	t, _ := converter.Retrieve(b.s, LastUpdatedKey, converter.TimeDecoder)
	return t
}

func (b *Base) LastChangeTime() time.Time {
	t, _ := converter.Retrieve(b.s, LastChangedKey, converter.TimeDecoder)
	return t
}

// initialRead performs the eager read done at construction. A failure leaves the entity without a value.
func initialRead(ctx context.Context, e Entity, logger logwrap.Logger) {
	if err := e.Update(ctx); err != nil {
		logger.LogWarn(ctx, "Initial read failed, entity has no value.", logwrap.Datum("Entity", e.Name()), logwrap.Err(err))
	}
}
