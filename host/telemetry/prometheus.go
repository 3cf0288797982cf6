package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"crsfrx/rx"
)

// PrometheusMetrics exports link state and receiver counters
type PrometheusMetrics struct {
	source rx.Source

	rssi        prometheus.Gauge // Antenna RSSI from link statistics
	rssiPercent prometheus.Gauge
	rssiDbm     prometheus.Gauge
	linkQuality prometheus.Gauge
	snr         prometheus.Gauge
	rfMode      prometheus.Gauge
	txPower     prometheus.Gauge

	downlinkRSSI        *prometheus.GaugeVec
	downlinkLinkQuality prometheus.Gauge
	downlinkSNR         prometheus.Gauge
}

// NewPrometheusMetrics registers the link gauges with reg. When tracker is
// set a link_up gauge follows its staleness; when stats is set the
// receiver counters are exported.
func NewPrometheusMetrics(reg prometheus.Registerer, source rx.Source, tracker *Tracker, stats func() rx.Stats) *PrometheusMetrics {
	factory := promauto.With(reg)

	pm := &PrometheusMetrics{
		source: source,
		rssi: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crsf_uplink_rssi",
			Help: "Uplink RSSI from link statistics, -dBm for one antenna or negative dBm of the stronger of two",
		}),
		rssiPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crsf_uplink_rssi_percent",
			Help: "Uplink RSSI scaled to percent",
		}),
		rssiDbm: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crsf_uplink_rssi_dbm",
			Help: "Uplink RSSI in dBm, or SNR when the receiver reports SNR",
		}),
		linkQuality: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crsf_uplink_link_quality_percent",
			Help: "Uplink link quality",
		}),
		snr: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crsf_snr_db",
			Help: "SNR reported in link statistics",
		}),
		rfMode: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crsf_rf_mode",
			Help: "Transmitter RF mode index",
		}),
		txPower: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crsf_uplink_tx_power",
			Help: "Transmitter power index",
		}),
		downlinkRSSI: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crsf_downlink_rssi",
			Help: "Downlink RSSI",
		}, []string{"unit"}),
		downlinkLinkQuality: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crsf_downlink_link_quality_percent",
			Help: "Downlink link quality",
		}),
		downlinkSNR: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crsf_downlink_snr_db",
			Help: "Downlink SNR",
		}),
	}

	if tracker != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "crsf_link_up",
			Help: "1 while link statistics are fresh",
		}, func() float64 {
			if tracker.Snapshot().Up {
				return 1
			}
			return 0
		})
	}

	if stats != nil {
		registerCounters(factory, stats)
	}
	return pm
}

func registerCounters(factory promauto.Factory, stats func() rx.Stats) {
	counters := []struct {
		name, help string
		value      func(s rx.Stats) uint32
	}{
		{"crsf_rx_bytes_total", "Bytes received", func(s rx.Stats) uint32 { return s.Bytes }},
		{"crsf_rx_frames_total", "Frames with a valid CRC", func(s rx.Stats) uint32 { return s.Frames }},
		{"crsf_rx_crc_errors_total", "Frames dropped on CRC mismatch", func(s rx.Stats) uint32 { return s.CRCErrors }},
		{"crsf_rx_framing_errors_total", "Frames dropped on a bad length", func(s rx.Stats) uint32 { return s.FramingErrors }},
		{"crsf_rx_resyncs_total", "Partial frames abandoned on timeout", func(s rx.Stats) uint32 { return s.Resyncs }},
		{"crsf_rx_baud_fallbacks_total", "Fallbacks to the default baud rate", func(s rx.Stats) uint32 { return s.Fallbacks }},
		{"crsf_rx_address_drops_total", "Frames for another device", func(s rx.Stats) uint32 { return s.AddressDrops }},
		{"crsf_rx_command_drops_total", "Command frames dropped", func(s rx.Stats) uint32 { return s.CommandDrops }},
	}

	for _, c := range counters {
		value := c.value
		factory.NewCounterFunc(prometheus.CounterOpts{
			Name: c.name,
			Help: c.help,
		}, func() float64 {
			return float64(value(stats()))
		})
	}
}

func (pm *PrometheusMetrics) SetLinkStatistics(r rx.LinkReport) {
	pm.rssi.Set(float64(r.RSSI))
	pm.linkQuality.Set(float64(r.LinkQuality))
	pm.snr.Set(float64(r.SNR))
	pm.rfMode.Set(float64(r.RFMode))
	pm.txPower.Set(float64(r.TXPower))
}

func (pm *PrometheusMetrics) SetDownlinkStatistics(r rx.DownlinkReport) {
	pm.downlinkRSSI.WithLabelValues("dbm").Set(float64(r.RSSIDbm))
	pm.downlinkRSSI.WithLabelValues("percent").Set(float64(r.RSSIPercent))
	pm.downlinkLinkQuality.Set(float64(r.LinkQuality))
	pm.downlinkSNR.Set(float64(r.SNR))
}

func (pm *PrometheusMetrics) SetRSSI(value uint16, source rx.Source) {
	if source == pm.source {
		pm.rssiPercent.Set(float64(value))
	}
}

func (pm *PrometheusMetrics) SetRSSIDbm(dbm int16, source rx.Source) {
	if source == pm.source {
		pm.rssiDbm.Set(float64(dbm))
	}
}

func (pm *PrometheusMetrics) SetLinkQualityDirect(lq uint8, source rx.Source) {
	if source == pm.source {
		pm.linkQuality.Set(float64(lq))
	}
}

var (
	_ rx.LinkQualitySink = (*PrometheusMetrics)(nil)
	_ rx.DownlinkSink    = (*PrometheusMetrics)(nil)
)
