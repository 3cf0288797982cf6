// Package config loads the host tool configuration file
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"crsfrx/host/serial"
	"crsfrx/protocol"
	"crsfrx/rx"
)

// Config is the top level configuration file
type Config struct {
	Serial     SerialConfig     `yaml:"serial"`
	Receiver   ReceiverConfig   `yaml:"receiver"`
	Link       LinkConfig       `yaml:"link"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Stream     StreamConfig     `yaml:"stream"`
	LED        LEDConfig        `yaml:"led"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SerialConfig selects and configures the serial port
type SerialConfig struct {
	Device      string `yaml:"device"`
	Baud        int    `yaml:"baud"`
	Backend     string `yaml:"backend"`      // term or tarm
	ReadTimeout int    `yaml:"read_timeout"` // Milliseconds
	Inverted    bool   `yaml:"inverted"`
}

// ReceiverConfig holds the decoder options
type ReceiverConfig struct {
	MidRC             int    `yaml:"mid_rc"`
	UseRxSNR          bool   `yaml:"use_rx_snr"`
	RSSISource        string `yaml:"rssi_source"`
	LinkQualitySource string `yaml:"lq_source"`
	ProtocolV3        *bool  `yaml:"protocol_v3"`
}

// LinkConfig controls the host pump
type LinkConfig struct {
	PollInterval int `yaml:"poll_interval_us"` // Channel poll period
	StaleTimeout int `yaml:"stale_timeout_ms"` // Link statistics age that marks the link down
}

// PrometheusConfig enables the metrics endpoint
type PrometheusConfig struct {
	Listen string `yaml:"listen"` // Empty disables the endpoint
	Path   string `yaml:"path"`
}

// MQTTConfig contains MQTT link state publishing settings
type MQTTConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Broker          string `yaml:"broker"` // e.g. tcp://localhost:1883
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	TopicPrefix     string `yaml:"topic_prefix"`
	PublishInterval int    `yaml:"publish_interval"` // Milliseconds
	QoS             byte   `yaml:"qos"`
	Retain          bool   `yaml:"retain"`
}

// StreamConfig enables the websocket channel stream
type StreamConfig struct {
	Listen string `yaml:"listen"` // Empty disables the stream
	Path   string `yaml:"path"`
}

// LEDConfig drives a link indicator on a GPIO character device line
type LEDConfig struct {
	Chip     string `yaml:"chip"` // Empty disables the LED
	Offset   int    `yaml:"offset"`
	Interval int    `yaml:"interval"` // Milliseconds
}

// LoggingConfig sets the log level and output format
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json or logfmt
}

// Default returns the configuration used when no file is given
func Default() *Config {
	var config Config
	applyDefaults(&config)
	return &config
}

// Load reads a YAML configuration file and fills in defaults
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration data and fills in defaults
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *Config) {
	// Serial port
	if config.Serial.Device == "" {
		config.Serial.Device = "/dev/ttyUSB0"
	}
	if config.Serial.Baud == 0 {
		config.Serial.Baud = protocol.BaudRate
	}
	if config.Serial.Backend == "" {
		config.Serial.Backend = serial.BackendTerm
	}
	if config.Serial.ReadTimeout == 0 {
		config.Serial.ReadTimeout = 100
	}

	// Decoder
	if config.Receiver.MidRC == 0 {
		config.Receiver.MidRC = protocol.DefaultMidRC
	}
	if config.Receiver.RSSISource == "" {
		config.Receiver.RSSISource = rx.SourceCRSF.String()
	}
	if config.Receiver.LinkQualitySource == "" {
		config.Receiver.LinkQualitySource = rx.SourceCRSF.String()
	}
	if config.Receiver.ProtocolV3 == nil {
		v3 := true
		config.Receiver.ProtocolV3 = &v3
	}

	// Pump
	if config.Link.PollInterval == 0 {
		config.Link.PollInterval = protocol.FrameIntervalUs
	}
	if config.Link.StaleTimeout == 0 {
		config.Link.StaleTimeout = protocol.LinkStatusUpdateTimeoutUs / 1000
	}

	if config.Prometheus.Path == "" {
		config.Prometheus.Path = "/metrics"
	}

	if config.MQTT.TopicPrefix == "" {
		config.MQTT.TopicPrefix = "crsfrx"
	}
	if config.MQTT.PublishInterval == 0 {
		config.MQTT.PublishInterval = 1000
	}

	if config.Stream.Path == "" {
		config.Stream.Path = "/ws/channels"
	}

	if config.LED.Interval == 0 {
		config.LED.Interval = 250
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// Validate rejects values the receiver cannot run with
func (c *Config) Validate() error {
	switch c.Serial.Backend {
	case serial.BackendTerm, serial.BackendTarm:
	default:
		return fmt.Errorf("serial.backend: unknown backend %q", c.Serial.Backend)
	}
	if c.Serial.Baud < 0 {
		return fmt.Errorf("serial.baud: must be positive, got %d", c.Serial.Baud)
	}

	if c.Receiver.MidRC < 885 || c.Receiver.MidRC > 2115 {
		return fmt.Errorf("receiver.mid_rc: %d outside 885..2115", c.Receiver.MidRC)
	}
	if _, err := rx.ParseSource(c.Receiver.RSSISource); err != nil {
		return fmt.Errorf("receiver.rssi_source: %w", err)
	}
	if _, err := rx.ParseSource(c.Receiver.LinkQualitySource); err != nil {
		return fmt.Errorf("receiver.lq_source: %w", err)
	}

	if c.Link.PollInterval < 0 || c.Link.StaleTimeout < 0 {
		return fmt.Errorf("link: intervals must be positive")
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker: required when mqtt is enabled")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos: %d is not 0, 1 or 2", c.MQTT.QoS)
	}

	if c.LED.Chip != "" && c.LED.Offset < 0 {
		return fmt.Errorf("led.offset: must not be negative, got %d", c.LED.Offset)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}

// RxConfig converts the receiver section for rx.New
func (c *Config) RxConfig() rx.Config {
	// Validate has checked both names
	rssi, _ := rx.ParseSource(c.Receiver.RSSISource)
	lq, _ := rx.ParseSource(c.Receiver.LinkQualitySource)

	v3 := true
	if c.Receiver.ProtocolV3 != nil {
		v3 = *c.Receiver.ProtocolV3
	}

	return rx.Config{
		Inverted:          c.Serial.Inverted,
		MidRC:             uint16(c.Receiver.MidRC),
		UseRxSNR:          c.Receiver.UseRxSNR,
		RSSISource:        rssi,
		LinkQualitySource: lq,
		ProtocolV3:        v3,
	}
}

// PortConfig converts the serial section for serial.Open
func (c *Config) PortConfig() *serial.Config {
	return &serial.Config{
		Device:      c.Serial.Device,
		Baud:        c.Serial.Baud,
		ReadTimeout: c.Serial.ReadTimeout,
		Backend:     c.Serial.Backend,
	}
}
