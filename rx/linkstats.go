package rx

import (
	"sync/atomic"

	"crsfrx/protocol"
)

// LinkReport is the uplink state forwarded from a link statistics frame
type LinkReport struct {
	// RSSI is the reading of the only active antenna in -dBm, or the
	// strongest of two active antennas as a negative dBm value
	RSSI        int16
	LinkQuality uint8 // Uplink %
	RFMode      uint8
	SNR         int8 // Downlink dB
	TXPower     uint8
}

// DownlinkReport is the receiver-to-transmitter link state
type DownlinkReport struct {
	RSSIDbm     int16
	RSSIPercent uint8
	LinkQuality uint8
	SNR         int8
	UplinkPower uint8
}

func (r *Receiver) handleLinkStatistics(payload []byte) {
	stats, err := protocol.ParseLinkStatistics(payload)
	if err != nil || r.sink == nil {
		return
	}
	r.sink.SetLinkStatistics(LinkReport{
		RSSI:        antennaRSSI(stats.UplinkRSSI1, stats.UplinkRSSI2),
		LinkQuality: stats.UplinkLinkQuality,
		RFMode:      stats.RFMode,
		SNR:         stats.DownlinkSNR,
		TXPower:     stats.UplinkTXPower,
	})
}

// antennaRSSI prefers the non-zero reading when one antenna is absent
func antennaRSSI(a1, a2 uint8) int16 {
	switch {
	case a1 == 0:
		return int16(a2)
	case a2 == 0:
		return int16(a1)
	case a1 < a2:
		return -int16(a1)
	default:
		return -int16(a2)
	}
}

func (r *Receiver) handleLinkStatisticsRX(payload []byte) {
	stats, err := protocol.ParseLinkStatisticsRX(payload)
	if err != nil {
		return
	}
	if ds, ok := r.sink.(DownlinkSink); ok {
		ds.SetDownlinkStatistics(DownlinkReport{
			RSSIDbm:     -int16(stats.DownlinkRSSI),
			RSSIPercent: stats.DownlinkRSSIPercent,
			LinkQuality: stats.DownlinkLinkQuality,
			SNR:         stats.DownlinkSNR,
			UplinkPower: stats.UplinkPower,
		})
	}
}

func (r *Receiver) handleLinkStatisticsTX(payload []byte, nowUs uint32) {
	stats, err := protocol.ParseLinkStatisticsTX(payload)
	if err != nil {
		return
	}
	atomic.StoreUint32(&r.lastLinkStatisticsUs, nowUs)
	if r.sink == nil {
		return
	}

	if r.cfg.RSSISource == SourceCRSF {
		r.sink.SetRSSI(uint16(stats.UplinkRSSIPercent), SourceCRSF)
	}

	dbm := -int16(stats.UplinkRSSI)
	if r.cfg.UseRxSNR {
		dbm = int16(stats.UplinkSNR)
	}
	r.sink.SetRSSIDbm(dbm, SourceCRSF)

	if r.cfg.LinkQualitySource == SourceCRSF {
		r.sink.SetLinkQualityDirect(stats.UplinkLinkQuality, SourceCRSF)
	}
}
