package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/xbeeio/metrics"
	"github.com/shimmeringbee/zigbee"
	"io"
	"sync"
)

var ErrClosed = errors.New("driver closed")

// Driver speaks API frames over a byte stream, normally an open serial port. Inbound frames are
// delivered to the frame handler from the driver's read goroutine.
type Driver struct {
	rw      io.ReadWriteCloser
	escaped bool
	logger  logwrap.Logger

	writeMu *sync.Mutex

	handlerMu *sync.RWMutex
	handler   func(Frame)

	closeOnce *sync.Once
	closed    chan struct{}
	done      chan struct{}
}

func NewDriver(rw io.ReadWriteCloser, escaped bool) *Driver {
	return &Driver{
		rw:        rw,
		escaped:   escaped,
		logger:    logwrap.New(discard.Discard()),
		writeMu:   &sync.Mutex{},
		handlerMu: &sync.RWMutex{},
		closeOnce: &sync.Once{},
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (d *Driver) WithLogWrapLogger(lw logwrap.Logger) {
	d.logger = lw
}

// SetFrameHandler registers the callback for inbound frames, replacing any earlier one.
func (d *Driver) SetFrameHandler(h func(Frame)) {
	d.handlerMu.Lock()
	defer d.handlerMu.Unlock()

	d.handler = h
}

// Start begins reading frames, it must be called once.
func (d *Driver) Start(ctx context.Context) {
	go d.readLoop(ctx)
}

// Done is closed once the read loop has exited.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

func (d *Driver) SendLocal(id uint8, command string, parameter []byte) error {
	data, err := LocalCommandFrame(id, command, parameter)
	if err != nil {
		return err
	}

	return d.write(data)
}

func (d *Driver) SendRemote(id uint8, destination zigbee.IEEEAddress, command string, parameter []byte) error {
	data, err := RemoteCommandFrame(id, destination, command, parameter)
	if err != nil {
		return err
	}

	return d.write(data)
}

func (d *Driver) write(data []byte) error {
	select {
	case <-d.closed:
		return ErrClosed
	default:
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if _, err := d.rw.Write(Encode(data, d.escaped)); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}

// Close closes the underlying stream, which terminates the read loop.
func (d *Driver) Close() error {
	var err error

	d.closeOnce.Do(func() {
		close(d.closed)
		err = d.rw.Close()
	})

	return err
}

func (d *Driver) readLoop(ctx context.Context) {
	defer close(d.done)

	decoder := NewDecoder(d.rw, d.escaped)

	for {
		data, err := decoder.Next()
		if err != nil {
			if errors.Is(err, ErrChecksum) {
				d.logger.LogWarn(ctx, "Discarding frame with bad checksum.", logwrap.Err(err))
				continue
			}

			select {
			case <-d.closed:
				d.logger.LogInfo(ctx, "Read loop terminating, driver closed.")
			default:
				d.logger.LogError(ctx, "Failed to read from serial link.", logwrap.Err(err))
			}

			return
		}

		frame, err := ParseFrame(data)
		if err != nil {
			d.logger.LogWarn(ctx, "Discarding undecodable frame.", logwrap.Err(err))
			continue
		}

		metrics.Frames.WithLabelValues(frame.Type.String()).Inc()
		d.logger.LogDebug(ctx, "Frame received.", logwrap.Datum("Type", frame.Type.String()), logwrap.Datum("FrameID", frame.ID), logwrap.Datum("Command", frame.Command), logwrap.Datum("Status", frame.Status))

		d.handlerMu.RLock()
		h := d.handler
		d.handlerMu.RUnlock()

		if h != nil {
			h(frame)
		}
	}
}
