package rx

import (
	"fmt"
	"strings"

	"crsfrx/protocol"
)

// Source tags an RSSI or link quality reading with the subsystem that produced it,
// so several receivers can share one link quality sink without overwriting each other.
type Source uint8

const (
	SourceNone Source = iota
	SourceADC
	SourceChannel
	SourceCRSF
	SourceMSP
)

var sourceNames = [...]string{
	SourceNone:    "none",
	SourceADC:     "adc",
	SourceChannel: "channel",
	SourceCRSF:    "crsf",
	SourceMSP:     "msp",
}

func (s Source) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return "unknown"
}

// ParseSource converts a configuration name to a Source
func ParseSource(name string) (Source, error) {
	for i, n := range sourceNames {
		if strings.EqualFold(n, name) {
			return Source(i), nil
		}
	}
	return SourceNone, fmt.Errorf("%w: %q", ErrUnknownSource, name)
}

// Config holds the runtime options of a Receiver
type Config struct {
	Inverted          bool   // Serial line is inverted, applied by the transport
	MidRC             uint16 // Center pulse width used to seed channel values
	UseRxSNR          bool   // Report uplink SNR in place of RSSI dBm
	RSSISource        Source
	LinkQualitySource Source
	ProtocolV3        bool // Subset channels, extended statistics, commands, baud fallback
}

// DefaultConfig returns the configuration of a receiver wired directly to a CRSF radio
func DefaultConfig() Config {
	return Config{
		MidRC:             protocol.DefaultMidRC,
		RSSISource:        SourceCRSF,
		LinkQualitySource: SourceCRSF,
		ProtocolV3:        true,
	}
}
