package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"crsfrx/host/config"
)

// options holds the parsed command line
type options struct {
	fs *pflag.FlagSet

	configFile  string
	device      string
	baud        int
	backend     string
	inverted    bool
	v2          bool
	replay      string
	replayChunk int
	metrics     string
	stream      string
	mqttBroker  string
	ledChip     string
	ledOffset   int
	print       bool
	timeFormat  string
	logLevel    string
	logFormat   string
	version     bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := pflag.NewFlagSet("crsf-host", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVarP(&o.configFile, "config", "c", "", "YAML configuration file")
	fs.StringVarP(&o.device, "device", "d", "", "Serial device path")
	fs.IntVarP(&o.baud, "baud", "b", 0, "Initial baud rate")
	fs.StringVar(&o.backend, "backend", "", "Serial backend (term, tarm)")
	fs.BoolVar(&o.inverted, "inverted", false, "Request inverted serial")
	fs.BoolVar(&o.v2, "v2", false, "Disable protocol v3 features")
	fs.StringVarP(&o.replay, "replay", "r", "", "Decode a captured byte stream instead of a serial port")
	fs.IntVar(&o.replayChunk, "replay-chunk", 32, "Bytes delivered per read when replaying")
	fs.StringVar(&o.metrics, "metrics-listen", "", "Prometheus listen address, e.g. :9469")
	fs.StringVar(&o.stream, "stream-listen", "", "Websocket channel stream listen address")
	fs.StringVar(&o.mqttBroker, "mqtt-broker", "", "MQTT broker, enables publishing")
	fs.StringVar(&o.ledChip, "led-chip", "", "GPIO chip for the link LED, e.g. gpiochip0")
	fs.IntVar(&o.ledOffset, "led-offset", 0, "GPIO line offset for the link LED")
	fs.BoolVarP(&o.print, "print", "p", false, "Print every decoded channel set")
	fs.StringVar(&o.timeFormat, "timestamp-format", "%H:%M:%S", "strftime format for printed channel sets")
	fs.StringVarP(&o.logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&o.logFormat, "log-format", "", "Log format (text, json, logfmt)")
	fs.BoolVarP(&o.version, "version", "v", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: crsf-host [options]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	o.fs = fs
	return o, nil
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were set on the command line on top of it
func (o *options) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		var err error
		if cfg, err = config.Load(o.configFile); err != nil {
			return nil, err
		}
	}

	changed := o.fs.Changed
	if changed("device") {
		cfg.Serial.Device = o.device
	}
	if changed("baud") {
		cfg.Serial.Baud = o.baud
	}
	if changed("backend") {
		cfg.Serial.Backend = o.backend
	}
	if changed("inverted") {
		cfg.Serial.Inverted = o.inverted
	}
	if changed("v2") {
		v3 := !o.v2
		cfg.Receiver.ProtocolV3 = &v3
	}
	if changed("metrics-listen") {
		cfg.Prometheus.Listen = o.metrics
	}
	if changed("stream-listen") {
		cfg.Stream.Listen = o.stream
	}
	if changed("mqtt-broker") {
		cfg.MQTT.Enabled = o.mqttBroker != ""
		cfg.MQTT.Broker = o.mqttBroker
	}
	if changed("led-chip") {
		cfg.LED.Chip = o.ledChip
	}
	if changed("led-offset") {
		cfg.LED.Offset = o.ledOffset
	}
	if changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = o.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
