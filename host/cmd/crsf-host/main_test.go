package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crsfrx/host/config"
	"crsfrx/protocol"
)

func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crsfrx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
serial:
  device: /dev/ttyAMA0
  baud: 115200
logging:
  level: debug
`), 0o644))

	opts, err := parseFlags([]string{"-c", path, "--baud", "420000", "--v2", "--log-format", "json"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyAMA0", cfg.Serial.Device)
	assert.Equal(t, 420000, cfg.Serial.Baud)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.RxConfig().ProtocolV3)
}

func TestUnsetFlagsKeepConfig(t *testing.T) {
	opts, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestFlagErrors(t *testing.T) {
	_, err := parseFlags([]string{"extra"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unexpected argument")

	opts, err := parseFlags([]string{"--backend", "usb"}, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = opts.loadConfig()
	assert.ErrorContains(t, err, "serial.backend")

	_, err = newLogger(&bytes.Buffer{}, config.LoggingConfig{Level: "loud", Format: "text"})
	assert.ErrorContains(t, err, "logging.level")
}

func TestChannelPrinter(t *testing.T) {
	var out bytes.Buffer
	p, err := newChannelPrinter(&out, "%H:%M:%S.%L")
	require.NoError(t, err)

	var ch [protocol.MaxChannel]uint16
	for i := range ch {
		ch[i] = protocol.ChannelValueMid
	}
	ch[0] = protocol.ChannelValueMin
	p.Print(time.Date(2026, 5, 4, 12, 34, 56, 789e6, time.UTC), ch)

	line := out.String()
	assert.True(t, strings.HasPrefix(line, "12:34:56.789 1:988 2:1500 "), line)
	assert.True(t, strings.HasSuffix(line, " 16:1500\n"), line)
}

func TestRunReplay(t *testing.T) {
	out := protocol.NewSliceOutput(512)
	var ch [protocol.MaxChannel]uint16
	for i := 0; i < 4; i++ {
		for j := range ch {
			ch[j] = protocol.ChannelValueMin + uint16(i*100)
		}
		require.NoError(t, protocol.EncodeRCChannels(out, &ch))
	}
	require.NoError(t, protocol.EncodeLinkStatistics(out, protocol.AddressFlightController, protocol.LinkStatistics{
		UplinkRSSI1:       60,
		UplinkLinkQuality: 95,
	}))

	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(path, out.Result(), 0o644))

	opts, err := parseFlags([]string{"--replay", path, "--replay-chunk", "9", "--print"}, &bytes.Buffer{})
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &stdout, &stderr))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], " 1:988 ")
	assert.Contains(t, stderr.String(), "receiver stopped")
	assert.Contains(t, stderr.String(), "frames=5")
	assert.Contains(t, stderr.String(), "link_up=true")
}
