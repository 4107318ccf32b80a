// Package host plays the part of the home automation host: it builds entities from configuration, polls
// them, fans out their state changes and routes on/off commands to them.
package host

import (
	"context"
	"errors"
	"github.com/shimmeringbee/callbacks"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/shimmeringbee/xbeeio/config"
	"github.com/shimmeringbee/xbeeio/entity"
	"log"
	"time"
)

const eventBacklog = 100

var ErrEventTimeout = errors.New("context expired awaiting event")

type Host struct {
	logger    logwrap.Logger
	section   persistence.Section
	registry  *Registry
	poller    *Poller
	callbacks callbacks.AdderCaller
	events    chan any
	interval  time.Duration
}

// New creates a host keeping entity state under section, a nil section keeps state in memory. An
// interval of zero polls at the default interval.
func New(section persistence.Section, interval time.Duration) *Host {
	if section == nil {
		section = memory.New()
	}

	if interval <= 0 {
		interval = config.DefaultPollInterval
	}

	h := &Host{
		logger:    logwrap.New(discard.Discard()),
		section:   section,
		registry:  NewRegistry(),
		poller:    NewPoller(),
		callbacks: callbacks.Create(),
		events:    make(chan any, eventBacklog),
		interval:  interval,
	}

	h.callbacks.Add(h.stateChanged)

	return h
}

func (h *Host) WithGoLogger(parentLogger *log.Logger) {
	h.WithLogWrapLogger(logwrap.New(golog.Wrap(parentLogger)))
}

func (h *Host) WithLogWrapLogger(lw logwrap.Logger) {
	h.logger = lw
	h.poller.WithLogWrapLogger(lw)
}

// WithResponseTimeout matches poll deadlines to the radio's configured response timeout.
func (h *Host) WithResponseTimeout(timeout time.Duration) {
	h.poller.WithResponseTimeout(timeout)
}

func (h *Host) Registry() *Registry {
	return h.registry
}

func (h *Host) entityOptions(name string) entity.Options {
	return entity.Options{
		Section: h.section.Section("Entity", name),
		Events:  h.callbacks,
		Logger:  &h.logger,
	}
}

// Subscribe registers fn to be called on every entity state change.
func (h *Host) Subscribe(fn func(context.Context, entity.StateChanged) error) {
	h.callbacks.Add(fn)
}

// Start begins polling every entity that asks to be polled.
func (h *Host) Start() {
	h.poller.Start()

	for _, e := range h.registry.Entities() {
		if e.ShouldPoll() {
			h.poller.Add(e, h.interval)
		}
	}
}

func (h *Host) Stop() {
	h.poller.Stop()
}

func (h *Host) TurnOn(ctx context.Context, name string) error {
	s, err := h.registry.Switchable(name)
	if err != nil {
		return err
	}

	return s.TurnOn(ctx)
}

func (h *Host) TurnOff(ctx context.Context, name string) error {
	s, err := h.registry.Switchable(name)
	if err != nil {
		return err
	}

	return s.TurnOff(ctx)
}

func (h *Host) stateChanged(ctx context.Context, e entity.StateChanged) error {
	h.logger.LogInfo(ctx, "Entity state changed.", logwrap.Datum("Entity", e.Entity), logwrap.Datum("State", e.State))
	h.sendEvent(e)
	return nil
}

func (h *Host) sendEvent(e any) {
	select {
	case h.events <- e:
	default:
		h.logger.LogWarn(context.Background(), "Event dropped, channel buffer full.", logwrap.Datum("Event", e))
	}
}

// ReadEvent returns the next event, currently only entity.StateChanged.
func (h *Host) ReadEvent(ctx context.Context) (any, error) {
	select {
	case e := <-h.events:
		return e, nil
	case <-ctx.Done():
		return nil, ErrEventTimeout
	}
}
