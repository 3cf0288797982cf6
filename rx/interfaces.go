package rx

// Transport is the serial port the receiver is attached to
type Transport interface {
	SetBaudRate(baud uint32) error
	Write(p []byte) (int, error)
}

// LinkQualitySink is the RSSI and link quality subsystem
type LinkQualitySink interface {
	SetLinkStatistics(r LinkReport)
	SetRSSI(value uint16, source Source)
	SetRSSIDbm(dbm int16, source Source)
	SetLinkQualityDirect(lq uint8, source Source)
}

// DownlinkSink is implemented by link quality sinks that also track the
// receiver-to-transmitter direction
type DownlinkSink interface {
	SetDownlinkStatistics(r DownlinkReport)
}

// MSPBridge buffers MSP request chunks. BufferMSPFrame reports whether a
// complete request is now buffered.
type MSPBridge interface {
	BufferMSPFrame(frame []byte) bool
}

// TelemetryScheduler queues outbound responses
type TelemetryScheduler interface {
	ScheduleMSPResponse()
	ScheduleDeviceInfoResponse()
}

// DisplayPortProcessor handles OSD display-port commands
type DisplayPortProcessor interface {
	ProcessDisplayPortCmd(payload []byte)
}

// CommandProcessor handles CRSF command frames addressed to the flight controller
type CommandProcessor interface {
	ProcessCommand(payload []byte)
}

// FrameState is the result of a frame status poll
type FrameState uint8

const (
	FramePending FrameState = iota
	FrameComplete
)

func (s FrameState) String() string {
	if s == FrameComplete {
		return "complete"
	}
	return "pending"
}

// RawChannelReader is the channel read side registered with the flight loop
type RawChannelReader interface {
	ChannelCount() int
	RefreshIntervalUs() uint32
	ReadRaw(ch int) uint16
}

// FrameStatusPoller is polled by the flight loop once per cycle
type FrameStatusPoller interface {
	FrameStatus() FrameState
}

var (
	_ RawChannelReader  = (*Receiver)(nil)
	_ FrameStatusPoller = (*Receiver)(nil)
)
