// Package mqttmirror mirrors engine and connection state to an MQTT broker
// as retained messages.
//
// Topics, with prefix "lifepad" by default:
//
//	<prefix>/<id>/status                    engine run state, LWT "offline"
//	<prefix>/<id>/direction/<dir>/state     latest connection task state
package mqttmirror

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/bft-labs/lifepad/pkg/lifepad"
	"github.com/bft-labs/lifepad/pkg/log"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds
	defaultKeepAlive         = 60 * time.Second
)

// Config holds configuration options for the MQTT mirror plugin.
type Config struct {
	// Broker is the broker URL. Default: tcp://127.0.0.1:1883
	Broker string

	// ClientID defaults to "<prefix>-<engine id>".
	ClientID string

	Username string
	Password string

	// QoS for every publish. Default: 1
	QoS byte

	// TopicPrefix is the first topic level. Default: "lifepad"
	TopicPrefix string
}

func (c *Config) setDefaults() {
	if c.Broker == "" {
		c.Broker = "tcp://127.0.0.1:1883"
	}
	if c.QoS == 0 {
		c.QoS = 1
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "lifepad"
	}
}

// Plugin publishes engine events to MQTT.
type Plugin struct {
	lifepad.BaseEventHandler

	cfg       Config
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client

	mu     sync.RWMutex
	client pahomqtt.Client
	topics topics
	logger log.Logger
}

// New creates an MQTT mirror plugin.
func New(cfg Config) *Plugin {
	cfg.setDefaults()
	return &Plugin{
		cfg:       cfg,
		newClient: pahomqtt.NewClient,
		logger:    log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "mqttmirror"
}

type topics struct {
	prefix string
	id     string
}

func (t topics) status() string {
	return fmt.Sprintf("%s/%s/status", t.prefix, t.id)
}

func (t topics) direction(dir string) string {
	return fmt.Sprintf("%s/%s/direction/%s/state", t.prefix, t.id, dir)
}

// statusPayload is published on the status topic.
type statusPayload struct {
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// connectionPayload is published on a direction's state topic.
type connectionPayload struct {
	TaskID    string `json:"task_id"`
	Address   string `json:"address"`
	Kind      string `json:"kind"`
	State     string `json:"state"`
	Retries   int    `json:"retries"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (p *Plugin) buildOptions(t topics, clientID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(p.cfg.Broker)
	opts.SetClientID(clientID)
	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	will, _ := json.Marshal(statusPayload{
		Status:    "offline",
		Reason:    "unexpected_disconnect",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	opts.SetWill(t.status(), string(will), p.cfg.QoS, true)

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		p.logger.Warn("mqtt connection lost", log.Err(err))
	})
	return opts
}

// Initialize connects to the broker and publishes the online status.
func (p *Plugin) Initialize(ctx context.Context, cfg lifepad.PluginConfig) error {
	t := topics{prefix: p.cfg.TopicPrefix, id: cfg.ID}
	clientID := p.cfg.ClientID
	if clientID == "" {
		clientID = p.cfg.TopicPrefix + "-" + cfg.ID
	}
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}

	client := p.newClient(p.buildOptions(t, clientID))
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return fmt.Errorf("mqtt connect to %s: timeout after %v", p.cfg.Broker, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", p.cfg.Broker, err)
	}

	p.mu.Lock()
	p.client = client
	p.topics = t
	p.mu.Unlock()

	p.publish(t.status(), statusPayload{Status: "online", Timestamp: now()})
	p.logger.Info("mqtt mirror connected", log.String("broker", p.cfg.Broker), log.String("client_id", clientID))
	return nil
}

// Shutdown publishes a graceful offline status and disconnects.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	client := p.client
	t := p.topics
	p.client = nil
	p.mu.Unlock()

	if client == nil {
		return nil
	}
	if client.IsConnected() {
		payload, _ := json.Marshal(statusPayload{Status: "offline", Reason: "graceful_shutdown", Timestamp: now()})
		token := client.Publish(t.status(), p.cfg.QoS, true, payload)
		token.WaitTimeout(defaultPublishTimeout)
	}
	client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

// OnStateChange mirrors the engine run state.
func (p *Plugin) OnStateChange(event lifepad.StateChangeEvent) {
	p.mu.RLock()
	t := p.topics
	p.mu.RUnlock()
	p.publish(t.status(), statusPayload{
		Status:    stateName(event.Current),
		Reason:    event.Reason,
		Timestamp: now(),
	})
}

// OnConnectionChange mirrors a direction's connection task.
func (p *Plugin) OnConnectionChange(event lifepad.ConnectionEvent) {
	p.mu.RLock()
	t := p.topics
	p.mu.RUnlock()

	payload := connectionPayload{
		TaskID:    event.TaskID.String(),
		Address:   event.Address,
		Kind:      event.Kind,
		State:     event.Current,
		Retries:   event.Retries,
		Timestamp: event.At.UTC().Format(time.RFC3339Nano),
	}
	if event.Err != nil {
		payload.Error = event.Err.Error()
	}
	p.publish(t.direction(event.Direction), payload)
}

// publish sends a retained JSON message without waiting for the broker.
func (p *Plugin) publish(topic string, v any) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	if client == nil || !client.IsConnected() {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("mqtt payload encoding failed", log.String("topic", topic), log.Err(err))
		return
	}
	token := client.Publish(topic, p.cfg.QoS, true, payload)
	go func() {
		if token.WaitTimeout(defaultPublishTimeout) && token.Error() != nil {
			p.logger.Warn("mqtt publish failed", log.String("topic", topic), log.Err(token.Error()))
		}
	}()
}

func stateName(s lifepad.State) string {
	switch s {
	case lifepad.StateRunning:
		return "online"
	case lifepad.StateStopped:
		return "offline"
	default:
		return strings.ToLower(s.String())
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

var (
	_ lifepad.Plugin       = (*Plugin)(nil)
	_ lifepad.EventHandler = (*Plugin)(nil)
)
