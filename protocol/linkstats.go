package protocol

// LinkStatistics is the 0x14 link statistics payload.
// Uplink is the connection from the ground to the aircraft, downlink the
// opposite direction.
type LinkStatistics struct {
	UplinkRSSI1         uint8 // dBm * -1
	UplinkRSSI2         uint8 // dBm * -1
	UplinkLinkQuality   uint8 // %
	UplinkSNR           int8  // dB
	ActiveAntenna       uint8
	RFMode              uint8
	UplinkTXPower       uint8 // enum 0mW, 10mW, 25mW, 100mW, 500mW, 1000mW, 2000mW
	DownlinkRSSI        uint8 // dBm * -1
	DownlinkLinkQuality uint8 // %
	DownlinkSNR         int8  // dB
}

// LinkStatisticsRX is the 0x1C receiver-side statistics payload
type LinkStatisticsRX struct {
	DownlinkRSSI        uint8 // dBm * -1
	DownlinkRSSIPercent uint8
	DownlinkLinkQuality uint8
	DownlinkSNR         int8
	UplinkPower         uint8 // dB
}

// LinkStatisticsTX is the 0x1D transmitter-side statistics payload
type LinkStatisticsTX struct {
	UplinkRSSI        uint8 // dBm * -1
	UplinkRSSIPercent uint8
	UplinkLinkQuality uint8
	UplinkSNR         int8
	DownlinkPower     uint8 // dB
	UplinkFPS         uint8 // FPS / 10
}

// ParseLinkStatistics decodes a 0x14 payload
func ParseLinkStatistics(p []byte) (LinkStatistics, error) {
	if len(p) < LinkStatisticsPayloadSize {
		return LinkStatistics{}, ErrShortPayload
	}
	return LinkStatistics{
		UplinkRSSI1:         p[0],
		UplinkRSSI2:         p[1],
		UplinkLinkQuality:   p[2],
		UplinkSNR:           int8(p[3]),
		ActiveAntenna:       p[4],
		RFMode:              p[5],
		UplinkTXPower:       p[6],
		DownlinkRSSI:        p[7],
		DownlinkLinkQuality: p[8],
		DownlinkSNR:         int8(p[9]),
	}, nil
}

// Bytes encodes the payload
func (s LinkStatistics) Bytes() []byte {
	return []byte{
		s.UplinkRSSI1, s.UplinkRSSI2, s.UplinkLinkQuality, byte(s.UplinkSNR),
		s.ActiveAntenna, s.RFMode, s.UplinkTXPower,
		s.DownlinkRSSI, s.DownlinkLinkQuality, byte(s.DownlinkSNR),
	}
}

// ParseLinkStatisticsRX decodes a 0x1C payload
func ParseLinkStatisticsRX(p []byte) (LinkStatisticsRX, error) {
	if len(p) < LinkStatisticsRXPayloadSize {
		return LinkStatisticsRX{}, ErrShortPayload
	}
	return LinkStatisticsRX{
		DownlinkRSSI:        p[0],
		DownlinkRSSIPercent: p[1],
		DownlinkLinkQuality: p[2],
		DownlinkSNR:         int8(p[3]),
		UplinkPower:         p[4],
	}, nil
}

// Bytes encodes the payload
func (s LinkStatisticsRX) Bytes() []byte {
	return []byte{s.DownlinkRSSI, s.DownlinkRSSIPercent, s.DownlinkLinkQuality, byte(s.DownlinkSNR), s.UplinkPower}
}

// ParseLinkStatisticsTX decodes a 0x1D payload
func ParseLinkStatisticsTX(p []byte) (LinkStatisticsTX, error) {
	if len(p) < LinkStatisticsTXPayloadSize {
		return LinkStatisticsTX{}, ErrShortPayload
	}
	return LinkStatisticsTX{
		UplinkRSSI:        p[0],
		UplinkRSSIPercent: p[1],
		UplinkLinkQuality: p[2],
		UplinkSNR:         int8(p[3]),
		DownlinkPower:     p[4],
		UplinkFPS:         p[5],
	}, nil
}

// Bytes encodes the payload
func (s LinkStatisticsTX) Bytes() []byte {
	return []byte{s.UplinkRSSI, s.UplinkRSSIPercent, s.UplinkLinkQuality, byte(s.UplinkSNR), s.DownlinkPower, s.UplinkFPS}
}
