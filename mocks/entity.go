package mocks

import (
	"context"
	"github.com/shimmeringbee/xbeeio/entity"
	"github.com/stretchr/testify/mock"
	"time"
)

type MockSwitchable struct {
	mock.Mock
}

func (m *MockSwitchable) Name() string {
	return m.Called().String(0)
}

func (m *MockSwitchable) State() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

func (m *MockSwitchable) UnitOfMeasurement() string {
	return m.Called().String(0)
}

func (m *MockSwitchable) ShouldPoll() bool {
	return m.Called().Bool(0)
}

func (m *MockSwitchable) Update(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSwitchable) LastUpdateTime() time.Time {
	return m.Called().Get(0).(time.Time)
}

func (m *MockSwitchable) LastChangeTime() time.Time {
	return m.Called().Get(0).(time.Time)
}

func (m *MockSwitchable) IsOn() bool {
	return m.Called().Bool(0)
}

func (m *MockSwitchable) TurnOn(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSwitchable) TurnOff(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var _ entity.Switchable = (*MockSwitchable)(nil)
