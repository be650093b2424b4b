// Package transport owns the outbound MQTT connection used to push commands
// and firmware notifications to devices.
package transport

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	config "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Config"
	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

// Publisher is the outbound broker surface the dispatcher and firmware
// orchestrator depend on.
type Publisher interface {
	Publish(topic string, payload interface{}) error
	CommandTopic(deviceID string) string
	FirmwareTopic(deviceID string) string
}

// MQTTTransport lazily holds one shared broker connection. Acquire is safe
// to call from concurrent request handlers; the first caller connects and
// the rest reuse the session.
type MQTTTransport struct {
	cfg    *config.MQTTConfig
	logger *logger.Logger

	mu     sync.Mutex
	client mqtt.Client
}

func NewMQTTTransport(cfg *config.MQTTConfig, logger *logger.Logger) *MQTTTransport {
	return &MQTTTransport{cfg: cfg, logger: logger}
}

// Acquire returns the shared connected client, dialing the broker on first
// use or after a disconnect.
func (t *MQTTTransport) Acquire() (mqtt.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil && t.client.IsConnectionOpen() {
		return t.client, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(t.cfg.GetMQTTBrokerURL()).
		SetClientID(t.cfg.ClientID).
		SetOrderMatters(false).
		SetKeepAlive(t.cfg.KeepAlive).
		SetPingTimeout(t.cfg.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(true)

	if t.cfg.BrokerUser != "" {
		opts.SetUsername(t.cfg.BrokerUser)
		opts.SetPassword(t.cfg.BrokerPass)
	}

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		t.logger.WithComponent("transport").Info("Connected to MQTT broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		t.logger.WithComponent("transport").WithError(err).Warn("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(t.cfg.ConnectTimeout) {
		return nil, fmt.Errorf("%w: broker connect timed out after %s", hsmodels.ErrTransportFailure, t.cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", hsmodels.ErrTransportFailure, err)
	}

	t.client = client
	return t.client, nil
}

// Publish serializes the payload as JSON and delivers it at QoS 1. A timeout
// or broker error surfaces as ErrTransportFailure so callers can map it to a
// failed delivery.
func (t *MQTTTransport) Publish(topic string, payload interface{}) error {
	client, err := t.Acquire()
	if err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}

	token := client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(t.cfg.PublishTimeout) {
		return fmt.Errorf("%w: publish to %s timed out after %s", hsmodels.ErrTransportFailure, topic, t.cfg.PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: publish to %s: %v", hsmodels.ErrTransportFailure, topic, err)
	}

	return nil
}

// Connected reports whether the shared client currently holds an open
// broker session. It never dials.
func (t *MQTTTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client != nil && t.client.IsConnectionOpen()
}

func (t *MQTTTransport) CommandTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/commands", t.cfg.TopicPrefix, deviceID)
}

func (t *MQTTTransport) FirmwareTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/firmware/update", t.cfg.TopicPrefix, deviceID)
}

// Close disconnects the shared client if one was ever established.
func (t *MQTTTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil && t.client.IsConnectionOpen() {
		t.client.Disconnect(250)
	}
	t.client = nil
}
