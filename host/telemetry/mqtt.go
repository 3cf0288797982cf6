package telemetry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"crsfrx/rx"
)

// MQTTConfig configures the link state publisher
type MQTTConfig struct {
	Broker          string
	Username        string
	Password        string
	TopicPrefix     string
	PublishInterval time.Duration
	QoS             byte
	Retain          bool
}

// MQTTPublisher periodically publishes the link state to an MQTT broker
type MQTTPublisher struct {
	client  mqtt.Client
	config  MQTTConfig
	tracker *Tracker
	stats   func() rx.Stats
	logger  *log.Logger
}

// StatePayload is the JSON message published on <prefix>/state
type StatePayload struct {
	Timestamp int64    `json:"timestamp"`
	Up        bool     `json:"up"`
	Link      Snapshot `json:"state"`
	Stats     rx.Stats `json:"stats"`
}

// generateClientID creates a random client ID for MQTT connection
func generateClientID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "crsfrx_" + hex.EncodeToString(bytes)
}

// NewMQTTPublisher connects to the broker
func NewMQTTPublisher(config MQTTConfig, tracker *Tracker, stats func() rx.Stats, logger *log.Logger) (*MQTTPublisher, error) {
	if logger == nil {
		logger = log.Default()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(generateClientID())

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info("mqtt connected", "broker", config.Broker)
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTPublisher{
		client:  client,
		config:  config,
		tracker: tracker,
		stats:   stats,
		logger:  logger,
	}, nil
}

// Run publishes at the configured interval until ctx is cancelled
func (mp *MQTTPublisher) Run(ctx context.Context) {
	interval := mp.config.PublishInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mp.client.Disconnect(250)
			return
		case now := <-ticker.C:
			if err := mp.publish(now); err != nil {
				mp.logger.Error("mqtt publish failed", "err", err)
			}
		}
	}
}

func (mp *MQTTPublisher) publish(now time.Time) error {
	var stats rx.Stats
	if mp.stats != nil {
		stats = mp.stats()
	}

	payload, err := BuildStatePayload(mp.tracker.Snapshot(), stats, now)
	if err != nil {
		return err
	}

	token := mp.client.Publish(StateTopic(mp.config.TopicPrefix), mp.config.QoS, mp.config.Retain, payload)
	token.Wait()
	return token.Error()
}

// StateTopic returns the topic link state is published on
func StateTopic(prefix string) string {
	return prefix + "/state"
}

// BuildStatePayload encodes one state message
func BuildStatePayload(s Snapshot, stats rx.Stats, now time.Time) ([]byte, error) {
	return json.Marshal(StatePayload{
		Timestamp: now.Unix(),
		Up:        s.Up,
		Link:      s,
		Stats:     stats,
	})
}
