// Package hsingestor consumes device traffic from the MQTT broker and feeds
// it into the telemetry pipeline.
package hsingestor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Config"
	logger "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Logger"
	telemetry "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Telemetry"
)

// inboundMessage is one broker message queued for a worker.
type inboundMessage struct {
	Topic      string
	DeviceID   string
	Payload    []byte
	ReceivedAt time.Time
}

type Ingestor struct {
	cfg        *config.IngestorConfig
	service    *telemetry.Service
	mqttClient mqtt.Client
	msgCh      chan inboundMessage
	wg         sync.WaitGroup
	logger     *logger.Logger
}

func New(cfg *config.IngestorConfig, service *telemetry.Service, logger *logger.Logger) *Ingestor {
	return &Ingestor{
		cfg:     cfg,
		service: service,
		msgCh:   make(chan inboundMessage, cfg.QueueSize),
		logger:  logger,
	}
}

func (i *Ingestor) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(i.cfg.MQTT.GetMQTTBrokerURL()).
		SetClientID(i.cfg.MQTT.ClientID).
		SetOrderMatters(false).
		SetKeepAlive(i.cfg.MQTT.KeepAlive).
		SetPingTimeout(i.cfg.MQTT.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(false)

	if i.cfg.MQTT.BrokerUser != "" {
		opts.SetUsername(i.cfg.MQTT.BrokerUser)
		opts.SetPassword(i.cfg.MQTT.BrokerPass)
	}

	if i.cfg.MQTT.UseTLS {
		tlsCfg, err := i.tlsConfig(i.cfg.MQTT.CACertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		i.logger.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(c mqtt.Client) {
		topic := i.subscriptionTopic()
		i.logger.Logger.Info().Str("topic", topic).Msg("MQTT connected, subscribing to topic")
		if token := c.Subscribe(topic, 1, i.onMessage); token.Wait() && token.Error() != nil {
			i.logger.Logger.Error().Err(token.Error()).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
		}
	}

	i.mqttClient = mqtt.NewClient(opts)
	if tk := i.mqttClient.Connect(); tk.Wait() && tk.Error() != nil {
		return tk.Error()
	}

	for w := 0; w < i.cfg.Workers; w++ {
		i.wg.Add(1)
		go func() {
			defer i.wg.Done()
			i.worker(ctx)
		}()
	}

	return nil
}

func (i *Ingestor) Stop() {
	if i.mqttClient != nil && i.mqttClient.IsConnected() {
		i.mqttClient.Disconnect(500)
	}
	close(i.msgCh)
	i.wg.Wait()
}

func (i *Ingestor) IsConnected() bool {
	return i.mqttClient != nil && i.mqttClient.IsConnected()
}

// subscriptionTopic covers every device subtopic under the prefix, wrapped
// in a shared subscription when a group is configured so multiple ingestor
// replicas split the stream.
func (i *Ingestor) subscriptionTopic() string {
	topic := i.cfg.MQTT.TopicPrefix + "/#"
	if i.cfg.MQTT.SharedGroup != "" {
		topic = fmt.Sprintf("$share/%s/%s", i.cfg.MQTT.SharedGroup, topic)
	}
	return topic
}

func (i *Ingestor) onMessage(_ mqtt.Client, m mqtt.Message) {
	topic := m.Topic()

	// Server-published topics come back on the wildcard too; drop them.
	if strings.HasSuffix(topic, "/commands") || strings.Contains(topic, "/firmware/update") {
		return
	}

	deviceID := telemetry.DeviceIDFromTopic(topic)
	if deviceID == "" {
		i.logger.Logger.Warn().Str("topic", topic).Msg("Could not extract device id from topic")
		return
	}

	msg := inboundMessage{
		Topic:      topic,
		DeviceID:   deviceID,
		Payload:    m.Payload(),
		ReceivedAt: time.Now().UTC(),
	}

	select {
	case i.msgCh <- msg:
	default:
		i.logger.Logger.Warn().Str("topic", topic).Msg("Inbound queue full, dropping message")
	}
}

func (i *Ingestor) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-i.msgCh:
			if !ok {
				return
			}
			i.process(ctx, msg)
		}
	}
}

func (i *Ingestor) process(ctx context.Context, msg inboundMessage) {
	i.logger.Logger.Debug().Str("topic", msg.Topic).Str("device_id", msg.DeviceID).Msg("Processing inbound message")

	_, err := i.service.RouteMessage(ctx, msg.Topic, msg.DeviceID, messageTypeFor(msg.Topic), msg.Payload)
	if err != nil {
		i.logger.Logger.Error().Err(err).Str("topic", msg.Topic).Str("device_id", msg.DeviceID).Msg("Failed to process inbound message")
	}
}

// messageTypeFor labels a message for the audit log from its topic suffix.
func messageTypeFor(topic string) string {
	switch {
	case strings.Contains(topic, "/data"):
		return "sensor_data"
	case strings.Contains(topic, "/heartbeat"):
		return "heartbeat"
	case strings.Contains(topic, "/command/response"):
		return "command_response"
	case strings.Contains(topic, "/alert"):
		return "alert"
	case strings.Contains(topic, "/status"):
		return "status"
	default:
		return "unknown"
	}
}

func (i *Ingestor) tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}
