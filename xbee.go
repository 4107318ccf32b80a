// Package xbeeio drives the GPIO pins and telemetry of XBee Series 2 radios using AT commands, either on
// the radio attached to the serial port or relayed over the ZigBee mesh to remote radios.
package xbeeio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/xbeeio/api"
	"golang.org/x/sync/semaphore"
)

const (
	cmdSample        = "IS"
	cmdTemperature   = "TP"
	cmdSupplyVoltage = "%V"
	cmdNodeName      = "NI"
)

// SupplyVoltageScale converts the raw %V reading into millivolts.
const SupplyVoltageScale = 1200.0 / 1024.0

var ErrUnknownGPIOSetting = errors.New("radio returned unknown gpio setting")

// Requester issues an AT command and waits for its response, implemented by Correlator.
type Requester interface {
	SendAndWait(ctx context.Context, addr Address, command string, parameter []byte) (api.Frame, error)
}

var _ Requester = (*Correlator)(nil)

// XBee is the command facade over a Requester. Calls are serialised so only one command is in flight on
// the control path at a time.
type XBee struct {
	requester Requester
	sem       *semaphore.Weighted
	logger    logwrap.Logger
}

func New(r Requester) *XBee {
	return &XBee{
		requester: r,
		sem:       semaphore.NewWeighted(1),
		logger:    logwrap.New(discard.Discard()),
	}
}

func (x *XBee) command(ctx context.Context, addr Address, command string, parameter []byte) ([]byte, error) {
	if err := x.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer x.sem.Release(1)

	f, err := x.requester.SendAndWait(ctx, addr, command, parameter)
	if err != nil {
		x.logger.LogDebug(ctx, "Command failed.", logwrap.Datum("Command", command), logwrap.Datum("Address", addr.String()), logwrap.Err(err))
		return nil, err
	}

	return f.Parameter, nil
}

func pinCommand(pin int) (string, error) {
	if pin < 0 || pin >= len(IOPinCommands) {
		return "", fmt.Errorf("%w: %d", ErrUnknownPin, pin)
	}

	return IOPinCommands[pin], nil
}

// ReadGPIO queries the configured mode of a pin.
func (x *XBee) ReadGPIO(ctx context.Context, pin int, addr Address) (GPIOSetting, error) {
	cmd, err := pinCommand(pin)
	if err != nil {
		return GPIODisabled, err
	}

	param, err := x.command(ctx, addr, cmd, nil)
	if err != nil {
		return GPIODisabled, err
	}

	if len(param) != 1 {
		return GPIODisabled, fmt.Errorf("%w: %s returned %d bytes", ErrUnknownGPIOSetting, cmd, len(param))
	}

	setting, ok := ParseGPIOSetting(param[0])
	if !ok {
		return GPIODisabled, fmt.Errorf("%w: %s returned 0x%02x", ErrUnknownGPIOSetting, cmd, param[0])
	}

	return setting, nil
}

// WriteGPIO sets the mode of a pin. Passing a setting the firmware does not know is a programming error
// and panics.
func (x *XBee) WriteGPIO(ctx context.Context, pin int, setting GPIOSetting, addr Address) error {
	if !setting.Valid() {
		panic(fmt.Sprintf("xbeeio: invalid gpio setting 0x%02x", uint8(setting)))
	}

	cmd, err := pinCommand(pin)
	if err != nil {
		return err
	}

	_, err = x.command(ctx, addr, cmd, []byte{byte(setting)})
	return err
}

// Sample forces an IO sample of all enabled channels.
func (x *XBee) Sample(ctx context.Context, addr Address) (Sample, error) {
	param, err := x.command(ctx, addr, cmdSample, nil)
	if err != nil {
		return Sample{}, err
	}

	return ParseSample(param)
}

// ReadDigitalSample returns true if the digital pin is high.
func (x *XBee) ReadDigitalSample(ctx context.Context, pin int, addr Address) (bool, error) {
	if pin < 0 || pin >= len(DigitalPins) {
		return false, fmt.Errorf("%w: %d", ErrUnknownPin, pin)
	}

	s, err := x.Sample(ctx, addr)
	if err != nil {
		return false, err
	}

	name := DigitalPins[pin]

	v, found := s.Digital[name]
	if !found {
		return false, &Error{Kind: PinNotConfigured, Command: cmdSample, Detail: name + " is not a digital input"}
	}

	return v, nil
}

// ReadAnalogSample returns the raw 10-bit reading of an analog pin.
func (x *XBee) ReadAnalogSample(ctx context.Context, pin int, addr Address) (uint16, error) {
	if pin < 0 || pin >= len(AnalogPins) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPin, pin)
	}

	s, err := x.Sample(ctx, addr)
	if err != nil {
		return 0, err
	}

	name := AnalogPins[pin]

	v, found := s.Analog[name]
	if !found {
		return 0, &Error{Kind: PinNotConfigured, Command: cmdSample, Detail: name + " is not an analog input"}
	}

	return v, nil
}

// ReadTemperature returns the radio's module temperature in degrees Celsius.
func (x *XBee) ReadTemperature(ctx context.Context, addr Address) (int, error) {
	param, err := x.command(ctx, addr, cmdTemperature, nil)
	if err != nil {
		return 0, err
	}

	return int(bigEndian(param)), nil
}

// ReadSupplyVoltage returns the radio's supply voltage in volts.
func (x *XBee) ReadSupplyVoltage(ctx context.Context, addr Address) (float64, error) {
	param, err := x.command(ctx, addr, cmdSupplyVoltage, nil)
	if err != nil {
		return 0, err
	}

	return float64(bigEndian(param)) * SupplyVoltageScale / 1000, nil
}

// ReadNodeName returns the radio's node identifier string.
func (x *XBee) ReadNodeName(ctx context.Context, addr Address) (string, error) {
	param, err := x.command(ctx, addr, cmdNodeName, nil)
	if err != nil {
		return "", err
	}

	return string(param), nil
}

func bigEndian(b []byte) uint64 {
	if len(b) > 8 {
		b = b[len(b)-8:]
	}

	var padded [8]byte
	copy(padded[8-len(b):], b)

	return binary.BigEndian.Uint64(padded[:])
}
