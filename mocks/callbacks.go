package mocks

import (
	"context"
	"github.com/shimmeringbee/callbacks"
	"github.com/stretchr/testify/mock"
)

type MockCaller struct {
	mock.Mock
}

func (m *MockCaller) Call(ctx context.Context, event interface{}) error {
	return m.Called(ctx, event).Error(0)
}

var _ callbacks.Caller = (*MockCaller)(nil)
