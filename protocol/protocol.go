// Package protocol implements the CRSF serial link wire format
package protocol

// Version represents the crsfrx version
const Version = "0.1.0"

// Link timing and sizing constants
const (
	BaudRate        = 420000 // Default (known-good) link rate
	FrameSizeMax    = 64     // Maximum on-wire frame size including address and length
	FrameSizeMin    = 4      // address + length + type + crc
	FrameSizeProbe  = 5      // Assumed frame size until the length byte has arrived
	MaxChannel      = 16     // Channels carried by an RC channels frame
	PayloadSizeMax  = FrameSizeMax - 4
	FrameTimeoutUs  = 1100 // 700us for a full frame plus 400us for an ad-hoc request
	FrameIntervalUs = 6667 // Fastest transmitter frame rate, 150Hz

	LinkStatusUpdateTimeoutUs = 250000 // 4Hz mode 1 telemetry
	FrameErrorCountThreshold  = 100
)

// Frame layout
const (
	FrameLengthAddress     = 1
	FrameLengthFrameLength = 1
	FrameLengthType        = 1
	FrameLengthCRC         = 1
	FrameLengthTypeCRC     = FrameLengthType + FrameLengthCRC

	// Extended frames carry destination and origin addresses ahead of the payload
	FrameOriginDestSize = 2

	PositionAddress = 0
	PositionLength  = 1
	PositionType    = 2
	PositionPayload = 3
)

// Payload sizes of fixed-layout frames
const (
	RCChannelsPayloadSize       = 22
	LinkStatisticsPayloadSize   = 10
	LinkStatisticsRXPayloadSize = 5
	LinkStatisticsTXPayloadSize = 6
	RxMSPFrameSize              = 8
	TxMSPFrameSize              = 58

	RCChannelsFrameLength       = RCChannelsPayloadSize + FrameLengthTypeCRC
	LinkStatisticsFrameLength   = LinkStatisticsPayloadSize + FrameLengthTypeCRC
	LinkStatisticsRXFrameLength = LinkStatisticsRXPayloadSize + FrameLengthTypeCRC
	LinkStatisticsTXFrameLength = LinkStatisticsTXPayloadSize + FrameLengthTypeCRC

	// destination, origin and the embedded command CRC
	CommandFrameMinPayloadSize = FrameOriginDestSize + 1
)

// Channel encoding
const (
	ChannelResolution            = 11
	ChannelMask                  = 0x07FF
	SubsetStartChannelResolution = 5
	SubsetStartChannelMask       = 0x1F

	ChannelValueMin = 172  // 987us
	ChannelValueMid = 992  // 1500us
	ChannelValueMax = 1811 // 2012us

	PulseWidthMid = 1500
	DefaultMidRC  = 1500
)

// Device addresses
const (
	AddressBroadcast        = 0x00
	AddressUSB              = 0x10
	AddressTBSCorePNPPro    = 0x80
	AddressReserved1        = 0x8A
	AddressCurrentSensor    = 0xC0
	AddressGPS              = 0xC2
	AddressTBSBlackbox      = 0xC4
	AddressFlightController = 0xC8
	AddressReserved2        = 0xCA
	AddressRaceTag          = 0xCC
	AddressRadioTransmitter = 0xEA
	AddressCRSFReceiver     = 0xEC
	AddressCRSFTransmitter  = 0xEE
	AddressELRSLua          = 0xEF
)

// Frame types
const (
	FrameTypeGPS                    = 0x02
	FrameTypeVarioSensor            = 0x07
	FrameTypeBatterySensor          = 0x08
	FrameTypeHeartbeat              = 0x0B
	FrameTypeLinkStatistics         = 0x14
	FrameTypeRCChannelsPacked       = 0x16
	FrameTypeSubsetRCChannelsPacked = 0x17
	FrameTypeLinkStatisticsRX       = 0x1C
	FrameTypeLinkStatisticsTX       = 0x1D
	FrameTypeAttitude               = 0x1E
	FrameTypeFlightMode             = 0x21
	FrameTypeDevicePing             = 0x28
	FrameTypeDeviceInfo             = 0x29
	FrameTypeParameterSettingsEntry = 0x2B
	FrameTypeParameterRead          = 0x2C
	FrameTypeParameterWrite         = 0x2D
	FrameTypeCommand                = 0x32
	FrameTypeMSPReq                 = 0x7A
	FrameTypeMSPResp                = 0x7B
	FrameTypeMSPWrite               = 0x7C
	FrameTypeDisplayPortCmd         = 0x7D
)

// FrameTypeName returns a short printable name for a frame type
func FrameTypeName(t byte) string {
	switch t {
	case FrameTypeGPS:
		return "gps"
	case FrameTypeVarioSensor:
		return "vario"
	case FrameTypeBatterySensor:
		return "battery"
	case FrameTypeHeartbeat:
		return "heartbeat"
	case FrameTypeLinkStatistics:
		return "link_statistics"
	case FrameTypeRCChannelsPacked:
		return "rc_channels"
	case FrameTypeSubsetRCChannelsPacked:
		return "subset_rc_channels"
	case FrameTypeLinkStatisticsRX:
		return "link_statistics_rx"
	case FrameTypeLinkStatisticsTX:
		return "link_statistics_tx"
	case FrameTypeAttitude:
		return "attitude"
	case FrameTypeFlightMode:
		return "flight_mode"
	case FrameTypeDevicePing:
		return "device_ping"
	case FrameTypeDeviceInfo:
		return "device_info"
	case FrameTypeParameterSettingsEntry:
		return "parameter_entry"
	case FrameTypeParameterRead:
		return "parameter_read"
	case FrameTypeParameterWrite:
		return "parameter_write"
	case FrameTypeCommand:
		return "command"
	case FrameTypeMSPReq:
		return "msp_req"
	case FrameTypeMSPResp:
		return "msp_resp"
	case FrameTypeMSPWrite:
		return "msp_write"
	case FrameTypeDisplayPortCmd:
		return "displayport_cmd"
	}
	return "unknown"
}
