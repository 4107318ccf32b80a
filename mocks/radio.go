package mocks

import (
	"context"
	"github.com/shimmeringbee/xbeeio"
	"github.com/shimmeringbee/xbeeio/entity"
	"github.com/stretchr/testify/mock"
)

type MockRadio struct {
	mock.Mock
}

func (m *MockRadio) ReadGPIO(ctx context.Context, pin int, addr xbeeio.Address) (xbeeio.GPIOSetting, error) {
	args := m.Called(ctx, pin, addr)
	return args.Get(0).(xbeeio.GPIOSetting), args.Error(1)
}

func (m *MockRadio) WriteGPIO(ctx context.Context, pin int, setting xbeeio.GPIOSetting, addr xbeeio.Address) error {
	return m.Called(ctx, pin, setting, addr).Error(0)
}

func (m *MockRadio) ReadDigitalSample(ctx context.Context, pin int, addr xbeeio.Address) (bool, error) {
	args := m.Called(ctx, pin, addr)
	return args.Bool(0), args.Error(1)
}

func (m *MockRadio) ReadAnalogSample(ctx context.Context, pin int, addr xbeeio.Address) (uint16, error) {
	args := m.Called(ctx, pin, addr)
	return args.Get(0).(uint16), args.Error(1)
}

func (m *MockRadio) ReadTemperature(ctx context.Context, addr xbeeio.Address) (int, error) {
	args := m.Called(ctx, addr)
	return args.Int(0), args.Error(1)
}

func (m *MockRadio) ReadSupplyVoltage(ctx context.Context, addr xbeeio.Address) (float64, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(float64), args.Error(1)
}

var _ entity.Radio = (*MockRadio)(nil)
