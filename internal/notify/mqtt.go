package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 2 * time.Second
)

// mqttPayload is the JSON published for each message.
type mqttPayload struct {
	ID       string    `json:"id"`
	Body     string    `json:"body"`
	MediaURL string    `json:"media_url,omitempty"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}

// MQTTMessenger publishes messages as JSON on a broker topic.
type MQTTMessenger struct {
	Client mqtt.Client
	Topic  string
	QoS    byte
}

// NewMQTTMessenger creates a messenger for broker ("host:port" or a full
// URL). Call Connect before Send.
func NewMQTTMessenger(broker, clientID, topic string) *MQTTMessenger {
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	if clientID == "" {
		clientID = "abhayam-" + uuid.NewString()[:8]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		slog.Info("mqtt connection established", "broker", broker, "client_id", clientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		slog.Warn("mqtt connection lost, will auto-reconnect", "broker", broker, "error", err)
	}

	return &MQTTMessenger{
		Client: mqtt.NewClient(opts),
		Topic:  topic,
		QoS:    1,
	}
}

// Connect establishes the broker connection.
func (m *MQTTMessenger) Connect() error {
	token := m.Client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	return nil
}

// Send publishes msg and returns the generated message id.
func (m *MQTTMessenger) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p := mqttPayload{
		ID:       uuid.NewString(),
		Body:     msg.Body,
		MediaURL: msg.MediaURL,
		From:     msg.From,
		To:       msg.To,
		SentAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	token := m.Client.Publish(m.Topic, m.QoS, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return "", fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return "", fmt.Errorf("publish failed: %w", err)
	}

	slog.Debug("alert published", "topic", m.Topic, "id", p.ID, "size", len(payload))
	return p.ID, nil
}

// Close disconnects from the broker.
func (m *MQTTMessenger) Close() error {
	if m.Client != nil && m.Client.IsConnected() {
		m.Client.Disconnect(250)
	}
	return nil
}
