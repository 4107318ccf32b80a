package entity_test

import (
	"context"
	"github.com/shimmeringbee/da/capabilities"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/shimmeringbee/xbeeio"
	"github.com/shimmeringbee/xbeeio/config"
	"github.com/shimmeringbee/xbeeio/entity"
	"github.com/shimmeringbee/xbeeio/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

var remote = xbeeio.RemoteRadio(0x0013a20040a1b2c3)

func outputConfig(onState string) config.DigitalPinConfig {
	return config.DigitalPinConfig{Name: "porch", Address: remote, Pin: 2, BoolMap: xbeeio.NewBoolMap(onState)}
}

func TestDigitalPin_Output(t *testing.T) {
	t.Run("reads the initial state from the pin's gpio setting", func(t *testing.T) {
		r := &mocks.MockRadio{}
		defer r.AssertExpectations(t)

		r.On("ReadGPIO", mock.Anything, 2, remote).Return(xbeeio.GPIODigitalOutputHigh, nil).Once()

		d := entity.NewDigitalPin(context.Background(), entity.Output, outputConfig("high"), r, entity.Options{})

		assert.True(t, d.IsOn())
		state, found := d.State()
		assert.True(t, found)
		assert.Equal(t, entity.StateOn, state)
		assert.Equal(t, capabilities.OnOffFlag, d.Capability())
	})

	t.Run("turn on drives the pin high and is on without reading back", func(t *testing.T) {
		r := &mocks.MockRadio{}
		defer r.AssertExpectations(t)

		r.On("ReadGPIO", mock.Anything, 2, remote).Return(xbeeio.GPIODigitalOutputLow, nil).Once()
		r.On("WriteGPIO", mock.Anything, 2, xbeeio.GPIODigitalOutputHigh, remote).Return(nil).Once()

		d := entity.NewDigitalPin(context.Background(), entity.Output, outputConfig("high"), r, entity.Options{})
		require.False(t, d.IsOn())

		require.NoError(t, d.TurnOn(context.Background()))
		assert.True(t, d.IsOn())
	})

	t.Run("on state low inverts the commanded level", func(t *testing.T) {
		r := &mocks.MockRadio{}
		defer r.AssertExpectations(t)

		r.On("ReadGPIO", mock.Anything, 2, remote).Return(xbeeio.GPIODigitalOutputLow, nil).Once()
		r.On("WriteGPIO", mock.Anything, 2, xbeeio.GPIODigitalOutputHigh, remote).Return(nil).Once()

		d := entity.NewDigitalPin(context.Background(), entity.Output, outputConfig("low"), r, entity.Options{})
		require.True(t, d.IsOn())

		require.NoError(t, d.TurnOff(context.Background()))
		assert.False(t, d.IsOn())
	})

	t.Run("a tx failure at construction leaves no value and a failed write keeps the state", func(t *testing.T) {
		r := &mocks.MockRadio{}
		defer r.AssertExpectations(t)

		r.On("ReadGPIO", mock.Anything, 2, remote).Return(xbeeio.GPIODisabled, xbeeio.StatusError("D2", 0x04)).Once()
		r.On("WriteGPIO", mock.Anything, 2, xbeeio.GPIODigitalOutputHigh, remote).Return(xbeeio.StatusError("D2", 0x04)).Once()

		d := entity.NewDigitalPin(context.Background(), entity.Output, outputConfig("high"), r, entity.Options{})

		_, found := d.State()
		assert.False(t, found)

		err := d.TurnOn(context.Background())
		assert.ErrorIs(t, err, xbeeio.ErrTxFailure)

		_, found = d.State()
		assert.False(t, found)
	})

	t.Run("a pin not set as an output is reported as not configured", func(t *testing.T) {
		r := &mocks.MockRadio{}
		r.On("ReadGPIO", mock.Anything, 2, remote).Return(xbeeio.GPIODigitalInput, nil)

		d := entity.NewDigitalPin(context.Background(), entity.Output, outputConfig("high"), r, entity.Options{})

		err := d.Update(context.Background())
		assert.ErrorIs(t, err, xbeeio.ErrPinNotConfigured)
	})

	t.Run("a poll in flight does not overwrite an acknowledged turn on", func(t *testing.T) {
		r := &mocks.MockRadio{}
		defer r.AssertExpectations(t)

		reading := make(chan struct{})
		release := make(chan struct{})

		r.On("ReadGPIO", mock.Anything, 2, remote).Return(xbeeio.GPIODigitalOutputLow, nil).Once()
		r.On("ReadGPIO", mock.Anything, 2, remote).Run(func(mock.Arguments) {
			close(reading)
			<-release
		}).Return(xbeeio.GPIODigitalOutputLow, nil).Once()
		r.On("WriteGPIO", mock.Anything, 2, xbeeio.GPIODigitalOutputHigh, remote).Return(nil).Once()

		d := entity.NewDigitalPin(context.Background(), entity.Output, outputConfig("high"), r, entity.Options{})

		wg := &sync.WaitGroup{}
		wg.Add(2)

		go func() {
			defer wg.Done()
			assert.NoError(t, d.Update(context.Background()))
		}()

		<-reading

		go func() {
			defer wg.Done()
			assert.NoError(t, d.TurnOn(context.Background()))
		}()

		time.Sleep(10 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.True(t, d.IsOn())
	})
}

func TestDigitalPin_Input(t *testing.T) {
	t.Run("maps the sampled level through the on state", func(t *testing.T) {
		r := &mocks.MockRadio{}
		defer r.AssertExpectations(t)

		r.On("ReadDigitalSample", mock.Anything, 2, remote).Return(true, nil).Once()
		r.On("ReadDigitalSample", mock.Anything, 2, remote).Return(false, nil).Once()

		cfg := outputConfig("low")
		cfg.ShouldPoll = true
		d := entity.NewDigitalPin(context.Background(), entity.Input, cfg, r, entity.Options{})

		assert.False(t, d.IsOn())
		assert.True(t, d.ShouldPoll())
		assert.Equal(t, capabilities.AlarmSensorFlag, d.Capability())

		require.NoError(t, d.Update(context.Background()))
		assert.True(t, d.IsOn())
	})

	t.Run("inputs cannot be switched", func(t *testing.T) {
		r := &mocks.MockRadio{}
		defer r.AssertExpectations(t)

		r.On("ReadDigitalSample", mock.Anything, 2, remote).Return(true, nil).Once()

		d := entity.NewDigitalPin(context.Background(), entity.Input, outputConfig("high"), r, entity.Options{})

		assert.ErrorIs(t, d.TurnOn(context.Background()), entity.ErrReadOnly)
		assert.ErrorIs(t, d.TurnOff(context.Background()), entity.ErrReadOnly)
	})
}

func TestAnalogInput(t *testing.T) {
	analogConfig := func(report string) config.AnalogPinConfig {
		return config.AnalogPinConfig{Name: "soil", Address: xbeeio.LocalRadio, Pin: 1, ShouldPoll: true, MaxVolts: 1.2, Report: report}
	}

	t.Run("reports a reading of 512 as 50 percent", func(t *testing.T) {
		r := &mocks.MockRadio{}
		r.On("ReadAnalogSample", mock.Anything, 1, xbeeio.LocalRadio).Return(uint16(512), nil)

		a := entity.NewAnalogInput(context.Background(), analogConfig(config.ReportPercentage), r, entity.Options{})

		state, found := a.State()
		assert.True(t, found)
		assert.Equal(t, "50", state)
		assert.Equal(t, "%", a.UnitOfMeasurement())
	})

	t.Run("percentage is clamped to 0 to 100", func(t *testing.T) {
		assert.Equal(t, 0, entity.Percentage(0))
		assert.Equal(t, 100, entity.Percentage(1023))
		assert.Equal(t, 100, entity.Percentage(2046))
	})

	t.Run("reports millivolts scaled by max volts when configured", func(t *testing.T) {
		r := &mocks.MockRadio{}
		r.On("ReadAnalogSample", mock.Anything, 1, xbeeio.LocalRadio).Return(uint16(1023), nil)

		a := entity.NewAnalogInput(context.Background(), analogConfig(config.ReportMillivolts), r, entity.Options{})

		state, _ := a.State()
		assert.Equal(t, "1200", state)
		assert.Equal(t, "mV", a.UnitOfMeasurement())

		mv, found := a.Millivolts()
		assert.True(t, found)
		assert.InDelta(t, 1200, mv, 0.001)
	})

	t.Run("a pin not configured as analog leaves no value", func(t *testing.T) {
		r := &mocks.MockRadio{}
		r.On("ReadAnalogSample", mock.Anything, 1, xbeeio.LocalRadio).Return(uint16(0), &xbeeio.Error{Kind: xbeeio.PinNotConfigured})

		a := entity.NewAnalogInput(context.Background(), analogConfig(config.ReportPercentage), r, entity.Options{})

		_, found := a.Percentage()
		assert.False(t, found)
	})
}

func TestTelemetry(t *testing.T) {
	t.Run("temperature sensor reports degrees celsius", func(t *testing.T) {
		r := &mocks.MockRadio{}
		r.On("ReadTemperature", mock.Anything, remote).Return(24, nil)

		s := entity.NewTemperatureSensor(context.Background(), config.SensorConfig{Name: "shed", Address: remote}, r, entity.Options{})

		state, found := s.State()
		assert.True(t, found)
		assert.Equal(t, "24", state)
		assert.Equal(t, "°C", s.UnitOfMeasurement())
		assert.Equal(t, capabilities.TemperatureSensorFlag, s.Capability())
	})

	t.Run("supply voltage sensor reports volts", func(t *testing.T) {
		r := &mocks.MockRadio{}
		r.On("ReadSupplyVoltage", mock.Anything, remote).Return(3.2958, nil)

		s := entity.NewSupplyVoltageSensor(context.Background(), config.SensorConfig{Name: "shed_battery", Address: remote}, r, entity.Options{})

		state, _ := s.State()
		assert.Equal(t, "3.30", state)
		assert.Equal(t, capabilities.PowerSupplyFlag, s.Capability())
	})

	t.Run("a timeout on update keeps the last value", func(t *testing.T) {
		r := &mocks.MockRadio{}
		r.On("ReadTemperature", mock.Anything, remote).Return(24, nil).Once()
		r.On("ReadTemperature", mock.Anything, remote).Return(0, &xbeeio.Error{Kind: xbeeio.ResponseTimeout}).Once()

		s := entity.NewTemperatureSensor(context.Background(), config.SensorConfig{Name: "shed", Address: remote}, r, entity.Options{})

		err := s.Update(context.Background())
		assert.ErrorIs(t, err, xbeeio.ErrResponseTimeout)

		c, _ := s.Celsius()
		assert.Equal(t, 24, c)
	})
}

func TestBase_Logger(t *testing.T) {
	t.Run("uses the supplied logger and discards without one", func(t *testing.T) {
		l := logwrap.New(discard.Discard())

		b := entity.NewBase("porch", entity.Options{Logger: &l})
		assert.Equal(t, l, b.Logger())

		d := entity.NewBase("porch", entity.Options{})
		assert.NotPanics(t, func() {
			logger := d.Logger()
			logger.LogInfo(context.Background(), "Discarded.")
		})
	})
}

func TestBase_Events(t *testing.T) {
	t.Run("state changes are announced and repeated readings are not", func(t *testing.T) {
		r := &mocks.MockRadio{}
		r.On("ReadTemperature", mock.Anything, remote).Return(24, nil).Twice()
		r.On("ReadTemperature", mock.Anything, remote).Return(25, nil).Once()

		events := &mocks.MockCaller{}
		defer events.AssertExpectations(t)

		events.On("Call", mock.Anything, entity.StateChanged{Entity: "shed", State: "24"}).Return(nil).Once()
		events.On("Call", mock.Anything, entity.StateChanged{Entity: "shed", State: "25"}).Return(nil).Once()

		s := entity.NewTemperatureSensor(context.Background(), config.SensorConfig{Name: "shed", Address: remote}, r, entity.Options{Events: events})

		require.NoError(t, s.Update(context.Background()))
		require.NoError(t, s.Update(context.Background()))
	})

	t.Run("update and change times are kept in the section", func(t *testing.T) {
		r := &mocks.MockRadio{}
		r.On("ReadTemperature", mock.Anything, remote).Return(24, nil)

		section := memory.New()
		before := time.Now()

		s := entity.NewTemperatureSensor(context.Background(), config.SensorConfig{Name: "shed", Address: remote}, r, entity.Options{Section: section})

		assert.False(t, s.LastUpdateTime().Before(before.Truncate(time.Millisecond)))
		assert.False(t, s.LastChangeTime().Before(before.Truncate(time.Millisecond)))

		reading, found := section.Int(entity.ReadingKey)
		assert.True(t, found)
		assert.Equal(t, 24, int(reading))
	})
}
