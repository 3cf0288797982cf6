// crsf-host decodes a CRSF receiver link on a host serial port, or replays
// a captured byte stream, and exports link state
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"crsfrx/core"
	"crsfrx/host/config"
	"crsfrx/host/link"
	"crsfrx/host/serial"
	"crsfrx/host/telemetry"
	"crsfrx/protocol"
	"crsfrx/rx"
)

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if opts.version {
		fmt.Printf("crsf-host %s\n", protocol.Version)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg.Logging)
	if err != nil {
		return err
	}

	port, err := openPort(cfg, opts)
	if err != nil {
		return err
	}

	rcv := rx.New(cfg.RxConfig())
	rxCfg := rcv.Config()

	// Link state consumers
	staleTimeout := time.Duration(cfg.Link.StaleTimeout) * time.Millisecond
	tracker := telemetry.NewTracker(rxCfg.RSSISource, staleTimeout)
	sinks := telemetry.Fanout{tracker}

	var servers []*http.Server
	muxes := map[string]*http.ServeMux{}
	muxFor := func(addr string) *http.ServeMux {
		if mux, ok := muxes[addr]; ok {
			return mux
		}
		mux := http.NewServeMux()
		muxes[addr] = mux
		servers = append(servers, &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second})
		return mux
	}

	if cfg.Prometheus.Listen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		sinks = append(sinks, telemetry.NewPrometheusMetrics(reg, rxCfg.RSSISource, tracker, rcv.Stats))
		muxFor(cfg.Prometheus.Listen).Handle(cfg.Prometheus.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	var stream *telemetry.ChannelStream
	if cfg.Stream.Listen != "" {
		stream = telemetry.NewChannelStream(tracker, logger.WithPrefix("stream"))
		muxFor(cfg.Stream.Listen).Handle(cfg.Stream.Path, stream)
	}

	rcv.SetLinkQualitySink(sinks)

	monitor := link.NewMonitor(logger.WithPrefix("fc"))
	monitor.Attach(rcv)

	var printer *channelPrinter
	if opts.print {
		if printer, err = newChannelPrinter(stdout, opts.timeFormat); err != nil {
			port.Close()
			return err
		}
	}

	linkOpts := link.Options{
		PollInterval:  time.Duration(cfg.Link.PollInterval) * time.Microsecond,
		PollEveryByte: opts.replay != "",
		Logger:        logger,
	}
	if opts.replay != "" {
		linkOpts.Clock = replayClock()
	}
	var handlers []link.ChannelHandler
	if printer != nil {
		handlers = append(handlers, printer.Print)
	}
	if stream != nil {
		handlers = append(handlers, stream.Publish)
	}
	linkOpts.OnChannels = chain(handlers...)

	l := link.New(port, rcv, linkOpts)

	// Background services stop with the link
	svcCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, srv := range servers {
		srv := srv
		go func() {
			logger.Info("http listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server failed", "addr", srv.Addr, "err", err)
			}
		}()
	}

	if cfg.MQTT.Enabled {
		pub, err := telemetry.NewMQTTPublisher(telemetry.MQTTConfig{
			Broker:          cfg.MQTT.Broker,
			Username:        cfg.MQTT.Username,
			Password:        cfg.MQTT.Password,
			TopicPrefix:     cfg.MQTT.TopicPrefix,
			PublishInterval: time.Duration(cfg.MQTT.PublishInterval) * time.Millisecond,
			QoS:             cfg.MQTT.QoS,
			Retain:          cfg.MQTT.Retain,
		}, tracker, rcv.Stats, logger.WithPrefix("mqtt"))
		if err != nil {
			logger.Error("mqtt disabled", "err", err)
		} else {
			go pub.Run(svcCtx)
		}
	}

	if cfg.LED.Chip != "" {
		led, err := telemetry.OpenLinkLED(tracker, cfg.LED.Chip, cfg.LED.Offset)
		if err != nil {
			logger.Error("link led disabled", "err", err)
		} else {
			go func() {
				if err := led.Run(svcCtx, time.Duration(cfg.LED.Interval)*time.Millisecond); err != nil {
					logger.Error("link led failed", "err", err)
				}
			}()
		}
	}

	logger.Info("receiver started",
		"source", sourceName(cfg, opts),
		"baud", cfg.Serial.Baud,
		"v3", rxCfg.ProtocolV3,
		"rssi_source", rxCfg.RSSISource,
		"lq_source", rxCfg.LinkQualitySource)

	err = l.Run(ctx)
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	for _, srv := range servers {
		srv.Shutdown(shutdownCtx)
	}

	summarize(logger, rcv.Stats(), monitor.Counts(), tracker.Snapshot())
	return err
}

func openPort(cfg *config.Config, opts *options) (serial.Port, error) {
	if opts.replay == "" {
		return serial.Open(cfg.PortConfig())
	}

	f, err := os.Open(opts.replay)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	// The replay port closes the file
	return serial.NewReplayPort(f, opts.replayChunk), nil
}

// replayClock stands still so a capture decodes the same however its
// reads are split. The inter-frame timeout never fires during replay.
func replayClock() core.Clock {
	return core.ClockFunc(func() uint32 { return 0 })
}

func sourceName(cfg *config.Config, opts *options) string {
	if opts.replay != "" {
		return opts.replay
	}
	return cfg.Serial.Device
}

func summarize(logger *log.Logger, s rx.Stats, m link.MonitorCounts, snap telemetry.Snapshot) {
	logger.Info("receiver stopped",
		"bytes", s.Bytes,
		"frames", s.Frames,
		"crc_errors", s.CRCErrors,
		"framing_errors", s.FramingErrors,
		"fallbacks", s.Fallbacks,
		"msp", m.MSPRequests,
		"commands", m.Commands,
		"link_up", snap.Up,
		"lq", snap.LinkQuality)
}
