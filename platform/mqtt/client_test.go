package mqtt

import (
	"context"
	"testing"
)

type mqttConfig struct {
	broker, clientID, user, pass string
}

func (c mqttConfig) GetMQTTBrokerURL() string { return c.broker }
func (c mqttConfig) GetMQTTClientID() string  { return c.clientID }
func (c mqttConfig) GetMQTTTopic() string     { return "parksmart/outcomes" }
func (c mqttConfig) GetMQTTUsername() string  { return c.user }
func (c mqttConfig) GetMQTTPassword() string  { return c.pass }
func (c mqttConfig) IsMQTTEnabled() bool      { return c.broker != "" }

func TestOptionsDefaults(t *testing.T) {
	opts := Options(mqttConfig{broker: "tcp://localhost:1883"})
	if opts.ClientID != defaultClientID {
		t.Fatalf("expected default client id, got %q", opts.ClientID)
	}
	if len(opts.Servers) != 1 || opts.Servers[0].Host != "localhost:1883" {
		t.Fatalf("unexpected servers %+v", opts.Servers)
	}
	if opts.Username != "" || !opts.AutoReconnect {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestOptionsCredentials(t *testing.T) {
	opts := Options(mqttConfig{broker: "tcp://broker:1883", clientID: "kiosk-1", user: "u", pass: "p"})
	if opts.ClientID != "kiosk-1" || opts.Username != "u" || opts.Password != "p" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestConnectRequiresBroker(t *testing.T) {
	if _, err := Connect(context.Background(), mqttConfig{}, nil); err == nil {
		t.Fatalf("expected error without broker")
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	c := &Client{}
	if err := c.Publish(context.Background(), "t", nil); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
