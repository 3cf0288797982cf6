package rx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crsfrx/protocol"
)

func linkStatsFrame(t *testing.T, stats protocol.LinkStatistics) []byte {
	return encode(t, func(out protocol.OutputBuffer) error {
		return protocol.EncodeLinkStatistics(out, protocol.AddressFlightController, stats)
	})
}

func TestLinkStatisticsRSSI(t *testing.T) {
	tests := []struct {
		a1, a2 uint8
		want   int16
	}{
		{0, 40, 40},
		{30, 0, 30},
		{20, 50, -20},
		{90, 60, -60},
		{0, 0, 0},
	}

	for _, tt := range tests {
		r := New(DefaultConfig())
		sink := &fakeSink{}
		r.SetLinkQualitySink(sink)
		f := newFeeder(r)

		f.frame(linkStatsFrame(t, protocol.LinkStatistics{
			UplinkRSSI1:       tt.a1,
			UplinkRSSI2:       tt.a2,
			UplinkLinkQuality: 87,
			RFMode:            2,
			UplinkTXPower:     3,
			DownlinkSNR:       -4,
		}))

		require.Len(t, sink.reports, 1)
		assert.Equal(t, LinkReport{
			RSSI:        tt.want,
			LinkQuality: 87,
			RFMode:      2,
			SNR:         -4,
			TXPower:     3,
		}, sink.reports[0], "antennas %d/%d", tt.a1, tt.a2)
	}
}

func TestLinkStatisticsNeedsCRSFSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RSSISource = SourceADC
	r := New(cfg)
	sink := &fakeSink{}
	r.SetLinkQualitySink(sink)
	f := newFeeder(r)

	f.frame(linkStatsFrame(t, protocol.LinkStatistics{UplinkRSSI1: 50}))

	assert.Empty(t, sink.reports)
}

func TestLinkStatisticsWrongLength(t *testing.T) {
	r := New(DefaultConfig())
	sink := &fakeSink{}
	r.SetLinkQualitySink(sink)
	f := newFeeder(r)

	f.frame(encode(t, func(out protocol.OutputBuffer) error {
		return protocol.EncodeFrame(out, protocol.AddressFlightController, protocol.FrameTypeLinkStatistics, func(out protocol.OutputBuffer) {
			out.Output(make([]byte, protocol.LinkStatisticsPayloadSize+1))
		})
	}))

	assert.Empty(t, sink.reports)
	assert.Equal(t, uint32(1), r.Stats().Frames)
}

func txStatsFrame(t *testing.T, address byte, stats protocol.LinkStatisticsTX) []byte {
	return encode(t, func(out protocol.OutputBuffer) error {
		return protocol.EncodeLinkStatisticsTX(out, address, stats)
	})
}

var txStats = protocol.LinkStatisticsTX{
	UplinkRSSI:        72,
	UplinkRSSIPercent: 64,
	UplinkLinkQuality: 99,
	UplinkSNR:         9,
	DownlinkPower:     20,
	UplinkFPS:         50,
}

func TestLinkStatisticsTX(t *testing.T) {
	r := New(DefaultConfig())
	sink := &fakeSink{}
	r.SetLinkQualitySink(sink)
	f := newFeeder(r)

	f.feed(txStatsFrame(t, protocol.AddressFlightController, txStats))
	last := f.now - byteSpacingUs

	assert.Equal(t, []rssiCall{{64, SourceCRSF}}, sink.rssi)
	assert.Equal(t, []dbmCall{{-72, SourceCRSF}}, sink.dbm)
	assert.Equal(t, []lqCall{{99, SourceCRSF}}, sink.lq)
	assert.Equal(t, last, r.LastLinkStatisticsUs())
}

func TestLinkStatisticsTXOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseRxSNR = true
	cfg.LinkQualitySource = SourceChannel
	r := New(cfg)
	sink := &fakeSink{}
	r.SetLinkQualitySink(sink)
	f := newFeeder(r)

	f.frame(txStatsFrame(t, protocol.AddressFlightController, txStats))

	assert.Equal(t, []dbmCall{{9, SourceCRSF}}, sink.dbm)
	assert.Empty(t, sink.lq)
	assert.Len(t, sink.rssi, 1)
}

func TestLinkStatisticsTXFiltered(t *testing.T) {
	t.Run("foreign address", func(t *testing.T) {
		r := New(DefaultConfig())
		sink := &fakeSink{}
		r.SetLinkQualitySink(sink)
		f := newFeeder(r)

		f.frame(txStatsFrame(t, protocol.AddressRadioTransmitter, txStats))

		assert.Empty(t, sink.rssi)
		assert.Zero(t, r.LastLinkStatisticsUs())
		assert.Equal(t, uint32(1), r.Stats().AddressDrops)
	})

	t.Run("protocol v2", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ProtocolV3 = false
		r := New(cfg)
		sink := &fakeSink{}
		r.SetLinkQualitySink(sink)
		f := newFeeder(r)

		f.frame(txStatsFrame(t, protocol.AddressFlightController, txStats))

		assert.Empty(t, sink.rssi)
		assert.Empty(t, sink.dbm)
	})

	// Only the 8-byte length of a 6-byte payload is accepted; the length
	// of a standard statistics frame (12) is not
	t.Run("standard stats length", func(t *testing.T) {
		r := New(DefaultConfig())
		sink := &fakeSink{}
		r.SetLinkQualitySink(sink)
		f := newFeeder(r)

		padded := append(txStats.Bytes(), 0, 0, 0, 0)
		f.frame(encode(t, func(out protocol.OutputBuffer) error {
			return protocol.EncodeFrame(out, protocol.AddressFlightController, protocol.FrameTypeLinkStatisticsTX, func(out protocol.OutputBuffer) {
				out.Output(padded)
			})
		}))

		assert.Equal(t, uint32(1), r.Stats().Frames)
		assert.Empty(t, sink.rssi)
		assert.Zero(t, r.LastLinkStatisticsUs())
	})

	t.Run("no sink", func(t *testing.T) {
		r := New(DefaultConfig())
		f := newFeeder(r)

		f.feed(txStatsFrame(t, protocol.AddressFlightController, txStats))
		assert.NotZero(t, r.LastLinkStatisticsUs())
	})
}

func TestLinkStatisticsRX(t *testing.T) {
	r := New(DefaultConfig())
	sink := &fakeSink{}
	r.SetLinkQualitySink(sink)
	f := newFeeder(r)

	f.frame(encode(t, func(out protocol.OutputBuffer) error {
		return protocol.EncodeLinkStatisticsRX(out, protocol.AddressFlightController, protocol.LinkStatisticsRX{
			DownlinkRSSI:        81,
			DownlinkRSSIPercent: 40,
			DownlinkLinkQuality: 100,
			DownlinkSNR:         -2,
			UplinkPower:         14,
		})
	}))

	require.Len(t, sink.downlink, 1)
	assert.Equal(t, DownlinkReport{
		RSSIDbm:     -81,
		RSSIPercent: 40,
		LinkQuality: 100,
		SNR:         -2,
		UplinkPower: 14,
	}, sink.downlink[0])
	assert.Empty(t, sink.reports)
}

func TestParseSource(t *testing.T) {
	s, err := ParseSource("CRSF")
	require.NoError(t, err)
	assert.Equal(t, SourceCRSF, s)
	assert.Equal(t, "crsf", s.String())

	_, err = ParseSource("sbus")
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.Equal(t, "unknown", Source(42).String())
}
