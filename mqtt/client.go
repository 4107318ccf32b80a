// Package mqtt publishes entity state to an MQTT broker and accepts on/off commands from it.
package mqtt

import (
	"context"
	"fmt"
	pmqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/xbeeio/config"
	"time"
)

const connectTimeout = 10 * time.Second

// Broker is the surface of a broker connection the bridge needs.
type Broker interface {
	Publish(topic string, payload []byte, retain bool) error
	Subscribe(topic string, cb func(topic string, payload []byte)) error
}

var _ Broker = (*Client)(nil)

type Client struct {
	cli pmqtt.Client
}

// Dial connects to the broker. Without a configured client id a random one is used.
func Dial(ctx context.Context, cfg config.MQTTConfig, logger logwrap.Logger) (*Client, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "xbeeio-" + uuid.NewString()
	}

	opts := pmqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.OnConnect = func(c pmqtt.Client) {
		logger.LogInfo(ctx, "MQTT connected.", logwrap.Datum("Broker", cfg.Broker), logwrap.Datum("ClientID", clientID))
	}
	opts.OnConnectionLost = func(c pmqtt.Client, err error) {
		logger.LogError(ctx, "MQTT connection lost.", logwrap.Datum("Broker", cfg.Broker), logwrap.Err(err))
	}

	cli := pmqtt.NewClient(opts)
	if t := cli.Connect(); t.Wait() && t.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", cfg.Broker, t.Error())
	}

	return &Client{cli: cli}, nil
}

func (c *Client) Publish(topic string, payload []byte, retain bool) error {
	t := c.cli.Publish(topic, 0, retain, payload)
	if t.Wait() && t.Error() != nil {
		return t.Error()
	}
	return nil
}

func (c *Client) Subscribe(topic string, cb func(topic string, payload []byte)) error {
	t := c.cli.Subscribe(topic, 0, func(_ pmqtt.Client, m pmqtt.Message) {
		cb(m.Topic(), m.Payload())
	})
	if t.Wait() && t.Error() != nil {
		return t.Error()
	}
	return nil
}

// Close disconnects, allowing a short time for in flight messages.
func (c *Client) Close() {
	c.cli.Disconnect(250)
}
