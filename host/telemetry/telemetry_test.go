package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crsfrx/rx"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker(rx.SourceCRSF, 0)
	tr.now = clock.now
	return tr, clock
}

func TestTrackerStaleness(t *testing.T) {
	tr, clock := newTestTracker()
	assert.False(t, tr.Snapshot().Up, "no statistics yet")

	tr.SetLinkQualityDirect(95, rx.SourceCRSF)
	assert.True(t, tr.Snapshot().Up)

	clock.t = clock.t.Add(DefaultStaleTimeout - time.Millisecond)
	assert.True(t, tr.Snapshot().Up)

	clock.t = clock.t.Add(time.Millisecond)
	s := tr.Snapshot()
	assert.False(t, s.Up)
	assert.Equal(t, uint8(95), s.LinkQuality, "last values are kept")
}

func TestTrackerIgnoresOtherSources(t *testing.T) {
	tr, _ := newTestTracker()

	tr.SetRSSI(50, rx.SourceADC)
	tr.SetRSSIDbm(-70, rx.SourceMSP)
	tr.SetLinkQualityDirect(10, rx.SourceChannel)

	s := tr.Snapshot()
	assert.Zero(t, s.RSSIPercent)
	assert.Zero(t, s.RSSIDbm)
	assert.Zero(t, s.LinkQuality)
	assert.False(t, s.Up)

	tr.SetRSSI(50, rx.SourceCRSF)
	tr.SetRSSIDbm(-70, rx.SourceCRSF)
	s = tr.Snapshot()
	assert.Equal(t, uint16(50), s.RSSIPercent)
	assert.Equal(t, int16(-70), s.RSSIDbm)
}

func TestTrackerLinkStatistics(t *testing.T) {
	tr, _ := newTestTracker()

	tr.SetLinkStatistics(rx.LinkReport{RSSI: -60, LinkQuality: 88, RFMode: 4})
	tr.SetDownlinkStatistics(rx.DownlinkReport{RSSIDbm: -75})

	s := tr.Snapshot()
	assert.True(t, s.Up)
	assert.Equal(t, int16(-60), s.Link.RSSI)
	assert.Equal(t, uint8(88), s.LinkQuality)
	assert.Equal(t, int16(-75), s.Downlink.RSSIDbm)
}

func TestFanout(t *testing.T) {
	a, _ := newTestTracker()
	b, _ := newTestTracker()
	plain := &countingSink{}
	f := Fanout{a, b, plain}

	f.SetLinkStatistics(rx.LinkReport{LinkQuality: 70})
	f.SetRSSI(40, rx.SourceCRSF)
	f.SetRSSIDbm(-80, rx.SourceCRSF)
	f.SetLinkQualityDirect(71, rx.SourceCRSF)
	f.SetDownlinkStatistics(rx.DownlinkReport{LinkQuality: 100})

	for _, tr := range []*Tracker{a, b} {
		s := tr.Snapshot()
		assert.Equal(t, uint8(71), s.LinkQuality)
		assert.Equal(t, uint16(40), s.RSSIPercent)
		assert.Equal(t, uint8(100), s.Downlink.LinkQuality)
	}
	assert.Equal(t, 4, plain.calls)
}

type countingSink struct {
	calls int
}

func (c *countingSink) SetLinkStatistics(rx.LinkReport)       { c.calls++ }
func (c *countingSink) SetRSSI(uint16, rx.Source)             { c.calls++ }
func (c *countingSink) SetRSSIDbm(int16, rx.Source)           { c.calls++ }
func (c *countingSink) SetLinkQualityDirect(uint8, rx.Source) { c.calls++ }

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	tr, _ := newTestTracker()
	stats := rx.Stats{Bytes: 260, Frames: 10, CRCErrors: 2, Fallbacks: 1}
	pm := NewPrometheusMetrics(reg, rx.SourceCRSF, tr, func() rx.Stats { return stats })

	pm.SetLinkStatistics(rx.LinkReport{RSSI: -20, LinkQuality: 99, RFMode: 3, SNR: -5, TXPower: 2})
	pm.SetRSSI(66, rx.SourceCRSF)
	pm.SetRSSIDbm(-44, rx.SourceCRSF)
	pm.SetRSSIDbm(-99, rx.SourceADC)
	pm.SetDownlinkStatistics(rx.DownlinkReport{RSSIDbm: -81, RSSIPercent: 40})

	assert.Equal(t, -20.0, testutil.ToFloat64(pm.rssi))
	assert.Equal(t, 99.0, testutil.ToFloat64(pm.linkQuality))
	assert.Equal(t, -5.0, testutil.ToFloat64(pm.snr))
	assert.Equal(t, 66.0, testutil.ToFloat64(pm.rssiPercent))
	assert.Equal(t, -44.0, testutil.ToFloat64(pm.rssiDbm))
	assert.Equal(t, -81.0, testutil.ToFloat64(pm.downlinkRSSI.WithLabelValues("dbm")))
	assert.Equal(t, 40.0, testutil.ToFloat64(pm.downlinkRSSI.WithLabelValues("percent")))

	values := gatherValues(t, reg)
	assert.Equal(t, 260.0, values["crsf_rx_bytes_total"])
	assert.Equal(t, 10.0, values["crsf_rx_frames_total"])
	assert.Equal(t, 2.0, values["crsf_rx_crc_errors_total"])
	assert.Equal(t, 1.0, values["crsf_rx_baud_fallbacks_total"])
	assert.Equal(t, 0.0, values["crsf_link_up"])

	tr.SetRSSI(66, rx.SourceCRSF)
	assert.Equal(t, 1.0, gatherValues(t, reg)["crsf_link_up"])
}

// gatherValues returns the value of every unlabelled metric by name
func gatherValues(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if v, ok := unlabelledValue(m); ok {
				values[mf.GetName()] = v
			}
		}
	}
	return values
}

func unlabelledValue(m *dto.Metric) (float64, bool) {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue(), true
	case m.GetGauge() != nil && len(m.GetLabel()) == 0:
		return m.GetGauge().GetValue(), true
	}
	return 0, false
}

func TestBuildStatePayload(t *testing.T) {
	tr, clock := newTestTracker()
	tr.SetLinkStatistics(rx.LinkReport{RSSI: -30, LinkQuality: 100})

	data, err := BuildStatePayload(tr.Snapshot(), rx.Stats{Frames: 7}, clock.t)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(clock.t.Unix()), decoded["timestamp"])
	assert.Equal(t, true, decoded["up"])

	state := decoded["state"].(map[string]any)
	assert.Equal(t, 100.0, state["link_quality"])
	stats := decoded["stats"].(map[string]any)
	assert.Equal(t, 7.0, stats["Frames"])

	assert.Equal(t, "crsfrx/state", StateTopic("crsfrx"))
}
