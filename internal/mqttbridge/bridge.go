// Package mqttbridge lets a field node reach the relay over an MQTT broker
// instead of a websocket.
package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"home_climate/internal/logger"
	"home_climate/internal/relay"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	quiesceMillis  = 250
	qos            = 1
)

// Config selects the broker and topic namespace.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// Dispatcher is the relay entry point for inbound field node messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, peer relay.Peer, msg relay.Message) error
}

// Registrar tracks the bridge as a connected field node.
type Registrar interface {
	Register(p relay.Peer)
	Unregister(p relay.Peer)
}

// client is the part of mqtt.Client the bridge uses.
type client interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Bridge is a relay peer with the field node role. Commands for the field
// node are published to <prefix>/<event>; messages on <prefix>/node/<event>
// are dispatched as if the field node had sent them over a websocket.
type Bridge struct {
	cfg        Config
	client     client
	dispatcher Dispatcher
	hub        Registrar
	log        *logger.Logger
	id         string
	session    *relay.UploadSession

	mu  sync.RWMutex
	ctx context.Context
}

// New configures a paho client for cfg. Nothing connects before Run.
func New(cfg Config, dispatcher Dispatcher, hub Registrar, log *logger.Logger) *Bridge {
	b := newBridge(cfg, nil, dispatcher, hub, log)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, uuid.NewString()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(func(mqtt.Client) { b.onConnect() })
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) { b.onConnectionLost(err) })
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		b.log.Infow("mqtt_reconnecting", "broker", cfg.Broker)
	})

	b.client = mqtt.NewClient(opts)
	return b
}

func newBridge(cfg Config, c client, dispatcher Dispatcher, hub Registrar, log *logger.Logger) *Bridge {
	cfg.TopicPrefix = strings.Trim(cfg.TopicPrefix, "/")
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "home-climate"
	}
	return &Bridge{
		cfg:        cfg,
		client:     c,
		dispatcher: dispatcher,
		hub:        hub,
		log:        log.Component("mqtt"),
		id:         "mqtt-" + uuid.NewString(),
		session:    relay.NewUploadSession(),
		ctx:        context.Background(),
	}
}

func (b *Bridge) ID() string { return b.id }
func (b *Bridge) Role() relay.Role { return relay.RoleFieldNode }
func (b *Bridge) UploadSession() *relay.UploadSession { return b.session }

// Run connects, joins the hub and blocks until ctx is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect to %s: timed out", b.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", b.cfg.Broker, err)
	}

	b.hub.Register(b)
	b.log.Infow("mqtt_bridge_started", "broker", b.cfg.Broker, "prefix", b.cfg.TopicPrefix)

	<-ctx.Done()

	b.hub.Unregister(b)
	b.client.Disconnect(quiesceMillis)
	connectionState.Set(0)
	b.log.Infow("mqtt_bridge_stopped")
	return nil
}

// Send publishes commands addressed to the field node and errors raised by
// its own messages. Everything else is meant for app clients.
func (b *Bridge) Send(env relay.Envelope) error {
	if !strings.HasPrefix(env.Type, relay.ProxyPrefix) && env.Type != relay.EventError {
		return nil
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Type, err)
	}

	topic := b.commandTopic(env.Type)
	token := b.client.Publish(topic, qos, false, payload)
	go b.awaitPublish(topic, token)
	return nil
}

func (b *Bridge) awaitPublish(topic string, token mqtt.Token) {
	if !token.WaitTimeout(publishTimeout) {
		publishFailures.Inc()
		b.log.Warnw("mqtt_publish_timeout", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		publishFailures.Inc()
		b.log.Errorw("mqtt_publish_failed", "topic", topic, "err", err)
	}
}

func (b *Bridge) onConnect() {
	connectionState.Set(1)
	topic := b.nodeTopic("+")
	token := b.client.Subscribe(topic, qos, b.handleMessage)
	if token.WaitTimeout(connectTimeout) && token.Error() == nil {
		b.log.Infow("mqtt_subscribed", "topic", topic)
		return
	}
	err := token.Error()
	if err == nil {
		err = errors.New("subscribe timed out")
	}
	b.log.Errorw("mqtt_subscribe_failed", "topic", topic, "err", err)
}

func (b *Bridge) onConnectionLost(err error) {
	connectionState.Set(0)
	b.log.Warnw("mqtt_connection_lost", "err", err)
}

// handleMessage turns <prefix>/node/<event> into a relay message.
func (b *Bridge) handleMessage(_ mqtt.Client, m mqtt.Message) {
	event := strings.TrimPrefix(m.Topic(), b.nodeTopic(""))
	if event == "" || event == m.Topic() {
		b.log.Warnw("mqtt_unexpected_topic", "topic", m.Topic())
		return
	}

	var data json.RawMessage
	if p := m.Payload(); len(p) > 0 {
		if !json.Valid(p) {
			b.log.Warnw("mqtt_invalid_payload", "topic", m.Topic())
			return
		}
		data = p
	}

	b.mu.RLock()
	ctx := b.ctx
	b.mu.RUnlock()

	if err := b.dispatcher.Dispatch(ctx, b, relay.Message{Type: event, Data: data}); err != nil {
		b.log.Infow("mqtt_dispatch_failed", "type", event, "err", err)
	}
}

func (b *Bridge) commandTopic(event string) string {
	return b.cfg.TopicPrefix + "/" + event
}

func (b *Bridge) nodeTopic(event string) string {
	return b.cfg.TopicPrefix + "/node/" + event
}
