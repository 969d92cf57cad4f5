// Package mqtt wraps the Paho MQTT client for fire-and-forget publishing.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"parksmart_backend/platform/config"
	"parksmart_backend/platform/logger"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultClientID = "parksmart"
	publishQoS      = 1
)

// ErrNotConnected is returned when publishing while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt client not connected")

// Client publishes messages to a single broker.
type Client struct {
	client    MQTT.Client
	log       *logger.Logger
	connected atomic.Bool
}

// Options builds the Paho options for cfg.
func Options(cfg config.MQTTConfig) *MQTT.ClientOptions {
	clientID := cfg.GetMQTTClientID()
	if clientID == "" {
		clientID = defaultClientID
	}

	opts := MQTT.NewClientOptions()
	opts.AddBroker(cfg.GetMQTTBrokerURL())
	opts.SetClientID(clientID)
	if cfg.GetMQTTUsername() != "" {
		opts.SetUsername(cfg.GetMQTTUsername())
		opts.SetPassword(cfg.GetMQTTPassword())
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(time.Minute)
	return opts
}

// Connect dials the broker. With connect-retry enabled Paho keeps trying
// in the background, so a slow broker does not block startup past ctx.
func Connect(ctx context.Context, cfg config.MQTTConfig, log *logger.Logger) (*Client, error) {
	if !cfg.IsMQTTEnabled() {
		return nil, fmt.Errorf("mqtt broker url not configured")
	}

	c := &Client{log: log}
	opts := Options(cfg)
	opts.SetOnConnectHandler(func(MQTT.Client) {
		c.connected.Store(true)
		log.Info("mqtt connection established", "broker", cfg.GetMQTTBrokerURL())
	})
	opts.SetConnectionLostHandler(func(_ MQTT.Client, err error) {
		c.connected.Store(false)
		log.Warn("mqtt connection lost", "error", err)
	})
	c.client = MQTT.NewClient(opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
	case <-ctx.Done():
		log.Warn("mqtt broker not reachable yet; retrying in background")
	}
	return c, nil
}

// Publish sends payload to topic and waits for the broker acknowledgement.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, publishQoS, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects, allowing in-flight work a short grace period.
func (c *Client) Close() {
	if c == nil || c.client == nil {
		return
	}
	c.client.Disconnect(250)
	c.connected.Store(false)
}
