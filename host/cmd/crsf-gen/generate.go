package main

import (
	"io"
	"math/rand"

	"github.com/charmbracelet/log"

	"crsfrx/protocol"
)

// generator produces a CRSF stream as a transmitter module would send it
type generator struct {
	Frames         int
	Subset         bool
	LinkStatsEvery int
	V3Stats        bool
	CorruptEvery   int
	Noise          int
	Seed           int64
	Logger         *log.Logger

	rng       *rand.Rand
	out       *protocol.ScratchOutput
	frameNo   int
	written   int
	corrupted int
}

// WriteTo writes the whole stream to w
func (g *generator) WriteTo(w io.Writer) (int64, error) {
	if g.Logger == nil {
		g.Logger = log.New(io.Discard)
	}
	g.rng = rand.New(rand.NewSource(g.Seed))
	g.out = protocol.NewScratchOutput()

	var total int64
	emit := func(kind string, encode func(out protocol.OutputBuffer) error) error {
		g.out.Reset()
		if err := encode(g.out); err != nil {
			return err
		}
		frame := g.out.Result()

		g.frameNo++
		if g.CorruptEvery > 0 && g.frameNo%g.CorruptEvery == 0 {
			frame[len(frame)-1] ^= 0xA5
			g.corrupted++
		}
		g.Logger.Debug("frame", "n", g.frameNo, "type", kind, "size", len(frame))

		n, err := w.Write(frame)
		total += int64(n)
		if err != nil {
			return err
		}
		g.written++

		if g.Noise > 0 {
			noise := make([]byte, g.Noise)
			g.rng.Read(noise)
			n, err := w.Write(noise)
			total += int64(n)
			return err
		}
		return nil
	}

	for i := 0; i < g.Frames; i++ {
		ch := sweep(i)
		var err error
		if g.Subset {
			start := (i * 8) % protocol.MaxChannel
			err = emit("subset_rc_channels", func(out protocol.OutputBuffer) error {
				return protocol.EncodeSubsetRCChannels(out, start, ch[start:start+8])
			})
		} else {
			err = emit("rc_channels", func(out protocol.OutputBuffer) error {
				return protocol.EncodeRCChannels(out, &ch)
			})
		}
		if err != nil {
			return total, err
		}

		if g.LinkStatsEvery > 0 && (i+1)%g.LinkStatsEvery == 0 {
			if err := g.emitLinkStats(emit, i); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func (g *generator) emitLinkStats(emit func(string, func(protocol.OutputBuffer) error) error, i int) error {
	lq := uint8(100 - i%20)
	if !g.V3Stats {
		return emit("link_statistics", func(out protocol.OutputBuffer) error {
			return protocol.EncodeLinkStatistics(out, protocol.AddressFlightController, protocol.LinkStatistics{
				UplinkRSSI1:       uint8(40 + i%30),
				UplinkRSSI2:       uint8(45 + i%30),
				UplinkLinkQuality: lq,
				UplinkSNR:         9,
				RFMode:            4,
				UplinkTXPower:     2,
				DownlinkRSSI:      50,
				DownlinkSNR:       7,
			})
		})
	}

	if err := emit("link_statistics_rx", func(out protocol.OutputBuffer) error {
		return protocol.EncodeLinkStatisticsRX(out, protocol.AddressFlightController, protocol.LinkStatisticsRX{
			DownlinkRSSI:        uint8(60 + i%30),
			DownlinkRSSIPercent: 70,
			DownlinkLinkQuality: lq,
			DownlinkSNR:         6,
			UplinkPower:         14,
		})
	}); err != nil {
		return err
	}
	return emit("link_statistics_tx", func(out protocol.OutputBuffer) error {
		return protocol.EncodeLinkStatisticsTX(out, protocol.AddressFlightController, protocol.LinkStatisticsTX{
			UplinkRSSI:        uint8(40 + i%30),
			UplinkRSSIPercent: 80,
			UplinkLinkQuality: lq,
			UplinkSNR:         9,
			DownlinkPower:     20,
			UplinkFPS:         15,
		})
	})
}

// sweep moves each channel through the full stick range at its own rate
func sweep(i int) [protocol.MaxChannel]uint16 {
	const span = protocol.ChannelValueMax - protocol.ChannelValueMin
	var ch [protocol.MaxChannel]uint16
	for c := range ch {
		phase := (i * (c + 1) * 16) % (2 * span)
		if phase > span {
			phase = 2*span - phase
		}
		ch[c] = uint16(protocol.ChannelValueMin + phase)
	}
	return ch
}
