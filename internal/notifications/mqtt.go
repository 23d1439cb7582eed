package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
)

const (
	mqttClientID  = "goalwatch"
	mqttKeepAlive = 30
	mqttQOS       = 1
)

// mqttPublisher is the subset of the autopaho connection we use.
type mqttPublisher interface {
	Publish(ctx context.Context, publish *paho.Publish) (*paho.PublishResponse, error)
}

// MQTTPublisher publishes the alert text to a single topic.
type MQTTPublisher struct {
	conn   mqttPublisher
	topic  string
	logger *slog.Logger
	close  func(ctx context.Context) error
}

// DialMQTT connects to brokerURL (e.g. mqtt://host:1883). ctx bounds the
// lifetime of the connection; connectTimeout bounds the initial connect.
func DialMQTT(ctx context.Context, brokerURL, topic string, connectTimeout time.Duration, logger *slog.Logger) (*MQTTPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mqtt broker url %q: %w", brokerURL, err)
	}

	cm, err := autopaho.NewConnection(ctx, autopaho.ClientConfig{
		BrokerUrls: []*url.URL{u},
		KeepAlive:  mqttKeepAlive,
		OnConnectionUp: func(_ *autopaho.ConnectionManager, _ *paho.Connack) {
			logger.Info("MQTT connection established", "broker", u.Host)
		},
		OnConnectError: func(err error) {
			logger.Warn("MQTT connection failed", "broker", u.Host, "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: mqttClientID,
			Router:   paho.NewStandardRouter(),
			OnClientError: func(err error) {
				logger.Warn("MQTT client error", "error", err)
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create mqtt connection: %w", err)
	}
	awaitCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := cm.AwaitConnection(awaitCtx); err != nil {
		return nil, fmt.Errorf("await mqtt connection: %w", err)
	}

	return &MQTTPublisher{
		conn:   cm,
		topic:  topic,
		logger: logger,
		close:  cm.Disconnect,
	}, nil
}

func (m *MQTTPublisher) Publish(ctx context.Context, msg Message) error {
	_, err := m.conn.Publish(ctx, &paho.Publish{
		Topic:   m.topic,
		QoS:     mqttQOS,
		Payload: []byte(msg.Text),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}
	return nil
}

// Close disconnects from the broker, waiting at most three seconds.
func (m *MQTTPublisher) Close() error {
	if m.close == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.close(ctx)
}
