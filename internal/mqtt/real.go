package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sweeney/drive-timer/internal/logic"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	settingsBuffer = 16
)

// client is the part of paho.Client the publisher uses.
type client interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Disconnect(quiesce uint)
}

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	TopicPrefix string
	// BufferSize caps messages held while disconnected.
	BufferSize int
}

// RealPublisher publishes to an actual MQTT broker and feeds the settings
// subscription. Messages published while the link is down are buffered and
// replayed, oldest first, on reconnect.
type RealPublisher struct {
	client client
	topics Topics
	logger zerolog.Logger

	settings chan SettingMessage

	mu        sync.Mutex
	buffer    *ringBuffer
	connected bool
	connects  int
}

// NewRealPublisher creates a publisher for the given broker. An unreachable
// broker is not fatal: paho keeps retrying and messages are buffered.
func NewRealPublisher(o Options, logger zerolog.Logger) (*RealPublisher, error) {
	logger = logger.With().Str("component", "mqtt").Logger()
	p := &RealPublisher{
		topics:   NewTopics(o.TopicPrefix),
		logger:   logger,
		settings: make(chan SettingMessage, settingsBuffer),
		buffer:   newRingBuffer(o.BufferSize, logger),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID("drive-timer-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(p.topics.System, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.onConnectionLost(err) })

	c := paho.NewClient(opts)
	p.client = c

	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		logger.Warn().Str("broker", o.Broker).Msg("broker not reachable yet, buffering until connected")
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	p.connected = true
	p.connects++
	reconnect := p.connects > 1
	pending := p.buffer.drainAll()
	p.mu.Unlock()

	p.logger.Info().Bool("reconnect", reconnect).Int("buffered", len(pending)).Msg("connected to broker")

	token := p.client.Subscribe(p.topics.Settings, 1, func(_ paho.Client, m paho.Message) {
		p.handleSetting(m)
	})
	if err := waitToken(token, "subscribe"); err != nil {
		p.logger.Error().Err(err).Str("topic", p.topics.Settings).Msg("subscribe failed")
	}

	for _, m := range pending {
		if err := p.send(m); err != nil {
			p.logger.Warn().Err(err).Str("topic", m.topic).Msg("replay failed")
		}
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err := p.send(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1}); err != nil {
			p.logger.Warn().Err(err).Msg("publish RECONNECTED failed")
		}
	}
}

func (p *RealPublisher) onConnectionLost(err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.logger.Warn().Err(err).Msg("connection to broker lost")
}

// handleSetting forwards a settings message without blocking the paho
// router. A full channel drops the message.
func (p *RealPublisher) handleSetting(m paho.Message) {
	key := p.topics.SettingKey(m.Topic())
	if key == "" {
		return
	}
	msg := SettingMessage{Key: key, Value: string(m.Payload())}
	select {
	case p.settings <- msg:
	default:
		p.logger.Warn().Str("key", key).Msg("settings channel full, dropping message")
	}
}

// Settings delivers messages received on <prefix>/settings/<key>.
func (p *RealPublisher) Settings() <-chan SettingMessage {
	return p.settings
}

// IsConnected reports whether the broker link is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected && p.client.IsConnectionOpen()
}

// Publish sends an engine event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(bufferedMsg{topic: p.topics.Events, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(m bufferedMsg) error {
	p.mu.Lock()
	if !p.connected || !p.client.IsConnectionOpen() {
		p.buffer.push(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(m)
}

func (p *RealPublisher) send(m bufferedMsg) error {
	return waitToken(p.client.Publish(m.topic, m.qos, m.retained, m.payload), "publish")
}

// waitToken waits up to publishTimeout for token. A timeout is reported as
// an error since paho leaves token.Error() nil in that case.
func waitToken(token paho.Token, op string) error {
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%s timeout", op)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
