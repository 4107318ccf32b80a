package mqtt

import (
	"context"
	"github.com/shimmeringbee/da/capabilities"
	"github.com/shimmeringbee/xbeeio"
	"github.com/shimmeringbee/xbeeio/config"
	"github.com/shimmeringbee/xbeeio/entity"
	"github.com/shimmeringbee/xbeeio/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

type published struct {
	payload string
	retain  bool
}

type fakeBroker struct {
	m         *sync.Mutex
	published map[string]published
	handlers  map[string]func(string, []byte)
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{m: &sync.Mutex{}, published: map[string]published{}, handlers: map[string]func(string, []byte){}}
}

func (f *fakeBroker) Publish(topic string, payload []byte, retain bool) error {
	f.m.Lock()
	defer f.m.Unlock()

	f.published[topic] = published{payload: string(payload), retain: retain}
	return nil
}

func (f *fakeBroker) Subscribe(topic string, cb func(string, []byte)) error {
	f.m.Lock()
	defer f.m.Unlock()

	f.handlers[topic] = cb
	return nil
}

func (f *fakeBroker) deliver(topic string, payload string) {
	f.m.Lock()
	cb := f.handlers[topic]
	f.m.Unlock()

	cb(topic, []byte(payload))
}

type mockController struct {
	mock.Mock
}

func (m *mockController) TurnOn(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockController) TurnOff(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func TestBridge_Start(t *testing.T) {
	t.Run("publishes retained state and capability and subscribes only outputs", func(t *testing.T) {
		r := &mocks.MockRadio{}
		r.On("ReadDigitalSample", mock.Anything, 3, xbeeio.LocalRadio).Return(true, nil)

		door := entity.NewDigitalPin(context.Background(), entity.Input, config.DigitalPinConfig{Name: "door", Pin: 3, BoolMap: xbeeio.NewBoolMap("high")}, r, entity.Options{})

		porch := &mocks.MockSwitchable{}
		porch.On("Name").Return("porch")
		porch.On("State").Return("off", true)

		b := newFakeBroker()
		bridge := NewBridge(b, "home/xbee/", &mockController{})

		require.NoError(t, bridge.Start(context.Background(), []entity.Entity{door, porch}))

		assert.Equal(t, published{payload: "on", retain: true}, b.published["home/xbee/door/state"])
		assert.Equal(t, published{payload: capabilities.StandardNames[capabilities.AlarmSensorFlag], retain: true}, b.published["home/xbee/door/capability"])
		assert.Equal(t, published{payload: "off", retain: true}, b.published["home/xbee/porch/state"])

		assert.Contains(t, b.handlers, "home/xbee/porch/set")
		assert.NotContains(t, b.handlers, "home/xbee/door/set")
	})
}

func TestBridge_Commands(t *testing.T) {
	t.Run("on and off payloads switch the entity, anything else is ignored", func(t *testing.T) {
		porch := &mocks.MockSwitchable{}
		porch.On("Name").Return("porch")
		porch.On("State").Return("", false)

		c := &mockController{}
		defer c.AssertExpectations(t)

		c.On("TurnOn", mock.Anything, "porch").Return(nil).Once()
		c.On("TurnOff", mock.Anything, "porch").Return(xbeeio.ErrTxFailure).Once()

		b := newFakeBroker()
		bridge := NewBridge(b, "xbeeio", c)
		require.NoError(t, bridge.Start(context.Background(), []entity.Entity{porch}))

		b.deliver("xbeeio/porch/set", "on")
		b.deliver("xbeeio/porch/set", " OFF\n")
		b.deliver("xbeeio/porch/set", "toggle")

		assert.NotContains(t, b.published, "xbeeio/porch/state")
	})
}

func TestBridge_StateChanged(t *testing.T) {
	t.Run("publishes the new state retained", func(t *testing.T) {
		b := newFakeBroker()
		bridge := NewBridge(b, "xbeeio", &mockController{})

		require.NoError(t, bridge.StateChanged(context.Background(), entity.StateChanged{Entity: "soil", State: "50"}))

		assert.Equal(t, published{payload: "50", retain: true}, b.published["xbeeio/soil/state"])
	})
}
