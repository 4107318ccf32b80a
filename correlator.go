package xbeeio

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/xbeeio/api"
	"github.com/shimmeringbee/xbeeio/metrics"
	"github.com/shimmeringbee/zigbee"
	"math"
	"sync"
	"time"
)

const DefaultResponseTimeout = 10 * time.Second

// Transport is the serial side of the correlator, implemented by api.Driver.
type Transport interface {
	SendLocal(id uint8, command string, parameter []byte) error
	SendRemote(id uint8, destination zigbee.IEEEAddress, command string, parameter []byte) error
	SetFrameHandler(func(api.Frame))
}

var _ Transport = (*api.Driver)(nil)

// Correlator matches response frames to the command that caused them by frame ID, turning the
// asynchronous serial link into a blocking request/response call.
type Correlator struct {
	transport Transport
	timeout   time.Duration
	logger    logwrap.Logger

	sequence chan uint8

	m       *sync.Mutex
	pending map[uint8]chan api.Frame
}

// NewCorrelator creates a correlator and registers it as the transport's frame handler. A timeout of
// zero uses DefaultResponseTimeout.
func NewCorrelator(t Transport, timeout time.Duration) *Correlator {
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}

	c := &Correlator{
		transport: t,
		timeout:   timeout,
		logger:    logwrap.New(discard.Discard()),
		sequence:  makeFrameSequence(),
		m:         &sync.Mutex{},
		pending:   map[uint8]chan api.Frame{},
	}

	t.SetFrameHandler(c.FrameReceived)

	return c
}

// makeFrameSequence returns a ring of the frame IDs 1 to 255, zero is reserved to request no response.
func makeFrameSequence() chan uint8 {
	ch := make(chan uint8, math.MaxUint8)

	for i := 1; i <= math.MaxUint8; i++ {
		ch <- uint8(i)
	}

	return ch
}

// NextFrameID issues the next frame ID, wrapping from 255 to 1. Any frame still held under that ID from
// its previous use is discarded.
func (c *Correlator) NextFrameID() uint8 {
	c.m.Lock()
	defer c.m.Unlock()

	return c.nextFrameID()
}

func (c *Correlator) nextFrameID() uint8 {
	id := <-c.sequence
	c.sequence <- id

	delete(c.pending, id)

	return id
}

// FrameReceived is called by the transport for every decoded frame. Only AT and remote AT responses are
// matched, anything else or a frame for an ID nobody is waiting on is dropped. A frame replaces any
// earlier unclaimed frame with the same ID.
func (c *Correlator) FrameReceived(f api.Frame) {
	if f.ID == 0 {
		return
	}

	if f.Type != api.ATCommandResponse && f.Type != api.RemoteCommandResponse {
		c.logger.LogDebug(context.Background(), "Ignoring frame which is not a command response.", logwrap.Datum("FrameID", f.ID), logwrap.Datum("Type", f.Type.String()))
		return
	}

	c.m.Lock()
	defer c.m.Unlock()

	ch, found := c.pending[f.ID]
	if !found {
		c.logger.LogDebug(context.Background(), "Dropping frame with no waiting request.", logwrap.Datum("FrameID", f.ID), logwrap.Datum("Type", f.Type.String()))
		return
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- f:
	default:
	}
}

func (c *Correlator) register() (uint8, chan api.Frame) {
	c.m.Lock()
	defer c.m.Unlock()

	id := c.nextFrameID()
	ch := make(chan api.Frame, 1)
	c.pending[id] = ch

	return id, ch
}

func (c *Correlator) unregister(id uint8, ch chan api.Frame) {
	c.m.Lock()
	defer c.m.Unlock()

	if c.pending[id] == ch {
		delete(c.pending, id)
	}
}

// Pending returns the number of requests currently awaiting a response.
func (c *Correlator) Pending() int {
	c.m.Lock()
	defer c.m.Unlock()

	return len(c.pending)
}

// SendAndWait sends an AT command to the addressed radio and blocks until the response with the same
// frame ID arrives, the timeout passes or ctx is done. A non-zero response status is returned as an
// *Error alongside the frame. Commands are never retried.
func (c *Correlator) SendAndWait(ctx context.Context, addr Address, command string, parameter []byte) (api.Frame, error) {
	f, err := c.sendAndWait(ctx, addr, command, parameter)
	metrics.Commands.WithLabelValues(command, metrics.Result(err)).Inc()
	return f, err
}

func (c *Correlator) sendAndWait(ctx context.Context, addr Address, command string, parameter []byte) (api.Frame, error) {
	id, ch := c.register()
	defer c.unregister(id, ch)

	var err error
	if addr.IsLocal() {
		err = c.transport.SendLocal(id, command, parameter)
	} else {
		err = c.transport.SendRemote(id, addr.IEEEAddress(), command, parameter)
	}

	if err != nil {
		return api.Frame{}, fmt.Errorf("failed to send %s to %s: %w", command, addr, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case f := <-ch:
		return f, StatusError(command, f.Status)
	case <-timer.C:
		c.logger.LogWarn(ctx, "Timed out awaiting response.", logwrap.Datum("Command", command), logwrap.Datum("FrameID", id), logwrap.Datum("Address", addr.String()))
		return api.Frame{}, &Error{Kind: ResponseTimeout, Command: command, Detail: fmt.Sprintf("frame id %d after %s", id, c.timeout)}
	case <-ctx.Done():
		return api.Frame{}, ctx.Err()
	}
}
