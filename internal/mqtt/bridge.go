// Package mqtt publishes the canvas entities into Home Assistant over
// MQTT discovery and feeds command topics back into the service layer.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/micro-ha/eink-canvas/addon/internal/entity"
	"github.com/micro-ha/eink-canvas/addon/internal/model"
	"github.com/micro-ha/eink-canvas/addon/internal/options"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	commandTimeout = 30 * time.Second

	payloadOnline  = "online"
	payloadOffline = "offline"
)

// Actions is the service surface the bridge drives from command topics.
type Actions interface {
	View(ctx context.Context) entity.View
	PressButton(ctx context.Context, name string) error
	SelectOption(ctx context.Context, axis options.Axis, label string) error
	SetDeviceName(ctx context.Context, name string) error
}

type Bridge struct {
	client  pahomqtt.Client
	cfg     model.CanvasConfig
	actions Actions
	logger  *slog.Logger
	topics  topics
}

// Connect dials the broker and wires discovery, availability and command
// subscriptions. The last-will marks the device offline when the bridge
// itself drops.
func Connect(cfg model.CanvasConfig, actions Actions, logger *slog.Logger) (*Bridge, error) {
	b := &Bridge{cfg: cfg, actions: actions, logger: logger, topics: topicsFor(cfg.Host)}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.MQTT.BrokerURL).
		SetClientID(cfg.MQTT.Client()).
		SetUsername(cfg.MQTT.Username).
		SetPassword(cfg.MQTT.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetWill(b.topics.availability, payloadOffline, 1, true)

	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		if err := b.announce(); err != nil {
			logger.Error("mqtt announce failed", "err", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	})

	b.client = pahomqtt.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout after %v", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect failed: %w", err)
	}
	return b, nil
}

// announce publishes retained discovery configs, marks the device
// available and (re)subscribes the command topics. Runs on every
// (re)connect.
func (b *Bridge) announce() error {
	for _, e := range buildEntities(b.cfg) {
		body, err := json.Marshal(e.config)
		if err != nil {
			return err
		}
		topic := configTopic(b.cfg.MQTT.Prefix(), e.component, deviceID(b.cfg.Host), e.objectID)
		if err := b.publish(topic, body, true); err != nil {
			return err
		}
	}
	if err := b.publish(b.topics.availability, []byte(payloadOnline), true); err != nil {
		return err
	}
	return b.subscribeCommands()
}

func (b *Bridge) subscribeCommands() error {
	subscriptions := map[string]pahomqtt.MessageHandler{
		b.topics.press:           b.handlePress,
		b.topics.setPrefix + "#": b.handleSet,
	}
	for topic, handler := range subscriptions {
		token := b.client.Subscribe(topic, 1, handler)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("mqtt subscribe timeout for %s", topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt subscribe failed for %s: %w", topic, err)
		}
	}
	return nil
}

func (b *Bridge) handlePress(_ pahomqtt.Client, msg pahomqtt.Message) {
	name := strings.TrimSpace(string(msg.Payload()))
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := b.actions.PressButton(ctx, name); err != nil {
		b.logger.Error("mqtt button press failed", "command", name, "err", err)
		return
	}
	b.PublishState(ctx)
}

func (b *Bridge) handleSet(_ pahomqtt.Client, msg pahomqtt.Message) {
	target := strings.TrimPrefix(msg.Topic(), b.topics.setPrefix)
	value := strings.TrimSpace(string(msg.Payload()))
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch target {
	case "name":
		err = b.actions.SetDeviceName(ctx, value)
	case string(options.AxisSleepDuration), string(options.AxisMaxIdle), string(options.AxisWakeSensitivity):
		err = b.actions.SelectOption(ctx, options.Axis(target), value)
	default:
		b.logger.Warn("mqtt set on unknown target", "target", target)
		return
	}
	if err != nil {
		b.logger.Error("mqtt settings write failed", "target", target, "err", err)
		return
	}
	b.PublishState(ctx)
}

// PublishState pushes the current rendered view to the retained state
// topic, plus the matching availability flag.
func (b *Bridge) PublishState(ctx context.Context) {
	view := b.actions.View(ctx)
	body, err := json.Marshal(view)
	if err != nil {
		b.logger.Error("mqtt state marshal failed", "err", err)
		return
	}
	if err := b.publish(b.topics.state, body, true); err != nil {
		b.logger.Error("mqtt state publish failed", "err", err)
		return
	}

	availability := payloadOnline
	if !view.Online {
		availability = payloadOffline
	}
	if err := b.publish(b.topics.availability, []byte(availability), true); err != nil {
		b.logger.Error("mqtt availability publish failed", "err", err)
	}
}

func (b *Bridge) publish(topic string, payload []byte, retained bool) error {
	token := b.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish timeout for %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish failed for %s: %w", topic, err)
	}
	return nil
}

// Close marks the device offline and disconnects.
func (b *Bridge) Close() {
	_ = b.publish(b.topics.availability, []byte(payloadOffline), true)
	b.client.Disconnect(uint(publishTimeout.Milliseconds()))
}
