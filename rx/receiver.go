// Package rx decodes a CRSF byte stream into RC channels and link statistics.
//
// A Receiver has two sides. DataReceive is called once per received byte
// from the serial receive context (an interrupt on a microcontroller, the
// read goroutine on a host). FrameStatus and ReadRaw are called from the
// flight loop. The two sides hand channel frames over through a double
// buffer and a latch guarded by a critical section; neither side blocks.
package rx

import (
	"sync/atomic"

	"crsfrx/core"
	"crsfrx/protocol"
)

// Stats is a snapshot of the receiver's lifetime counters
type Stats struct {
	Bytes         uint32
	Frames        uint32 // CRC-valid frames
	CRCErrors     uint32
	FramingErrors uint32
	Resyncs       uint32 // Partial frames abandoned on the inter-frame timeout
	Fallbacks     uint32 // Baud rate fallbacks requested
	AddressDrops  uint32 // Valid frames not addressed to the flight controller
	CommandDrops  uint32 // Command frames with a bad inner CRC or destination
}

type counters struct {
	bytes         uint32
	frames        uint32
	crcErrors     uint32
	framingErrors uint32
	resyncs       uint32
	fallbacks     uint32
	addressDrops  uint32
	commandDrops  uint32
}

// Receiver is the decoder state for one CRSF link
type Receiver struct {
	cfg   Config
	clock core.Clock
	trace *core.EventRing

	transport   Transport
	sink        LinkQualitySink
	msp         MSPBridge
	scheduler   TelemetryScheduler
	displayPort DisplayPortProcessor
	commands    CommandProcessor

	// Receive context
	frame        protocol.Frame
	position     int
	frameStartUs uint32
	errorCount   uint32 // Consecutive failed frames, saturates at the threshold

	// Hand-off between the receive context and the poller
	cs        core.CriticalSection
	snapshot  protocol.Frame
	frameDone bool

	// Poller context
	channels [protocol.MaxChannel]uint16

	lastLinkStatisticsUs uint32 // atomic
	counters             counters
	telemetry            telemetrySlot
}

// New creates a receiver. Every channel starts at the value matching cfg.MidRC.
// Collaborators are attached with the Set methods before the first byte arrives;
// a missing collaborator disables the frames it would handle.
func New(cfg Config) *Receiver {
	if cfg.MidRC == 0 {
		cfg.MidRC = protocol.DefaultMidRC
	}

	r := &Receiver{
		cfg:   cfg,
		clock: core.SystemClock,
	}

	def := protocol.DefaultChannelValue(cfg.MidRC)
	for i := range r.channels {
		r.channels[i] = def
	}
	return r
}

// Config returns the receiver configuration
func (r *Receiver) Config() Config {
	return r.cfg
}

// SetClock replaces the timestamp source used by DataReceive
func (r *Receiver) SetClock(clock core.Clock) {
	r.clock = clock
}

// SetTrace records receive events into ring
func (r *Receiver) SetTrace(ring *core.EventRing) {
	r.trace = ring
}

// SetTransport attaches the serial port used for baud changes and telemetry
func (r *Receiver) SetTransport(t Transport) {
	r.transport = t
}

// SetLinkQualitySink attaches the RSSI and link quality subsystem
func (r *Receiver) SetLinkQualitySink(s LinkQualitySink) {
	r.sink = s
}

// SetMSPBridge attaches the MSP over telemetry bridge
func (r *Receiver) SetMSPBridge(b MSPBridge) {
	r.msp = b
}

// SetTelemetryScheduler attaches the telemetry response scheduler
func (r *Receiver) SetTelemetryScheduler(s TelemetryScheduler) {
	r.scheduler = s
}

// SetDisplayPortProcessor attaches the OSD command processor
func (r *Receiver) SetDisplayPortProcessor(p DisplayPortProcessor) {
	r.displayPort = p
}

// SetCommandProcessor attaches the command frame processor
func (r *Receiver) SetCommandProcessor(p CommandProcessor) {
	r.commands = p
}

// DataReceive consumes one byte stamped with the receiver clock
func (r *Receiver) DataReceive(c byte) {
	r.DataReceiveAt(c, r.clock.Micros())
}

// DataReceiveAt consumes one byte received at nowUs
func (r *Receiver) DataReceiveAt(c byte, nowUs uint32) {
	atomic.AddUint32(&r.counters.bytes, 1)

	// A byte after the time needed for a whole frame starts a new one
	if core.TimeSince(nowUs, r.frameStartUs) >= protocol.FrameTimeoutUs {
		if r.position > 0 {
			atomic.AddUint32(&r.counters.resyncs, 1)
			r.record(core.EvtResync, nowUs, uint32(r.position), 0)
		}
		r.position = 0
	}
	if r.position == 0 {
		r.frameStartUs = nowUs
	}

	// Assume the shortest useful frame until the length byte is in
	size := protocol.FrameSizeProbe
	if r.position >= protocol.PositionPayload {
		size = r.frame.Size()
	}
	if size > protocol.FrameSizeMax || size <= r.position {
		atomic.AddUint32(&r.counters.framingErrors, 1)
		r.record(core.EvtFramingError, nowUs, uint32(size), uint32(r.position))
		r.position = 0
		r.frameFailed(nowUs)
		return
	}

	r.frame[r.position] = c
	r.position++
	if r.position < size {
		return
	}
	r.position = 0

	if crc := protocol.FrameCRC(&r.frame); crc != r.frame.CRC() {
		atomic.AddUint32(&r.counters.crcErrors, 1)
		r.record(core.EvtCRCError, nowUs, uint32(crc), uint32(r.frame.CRC()))
		r.frameFailed(nowUs)
		return
	}

	r.errorCount = 0
	atomic.AddUint32(&r.counters.frames, 1)
	r.record(core.EvtFrameComplete, nowUs, uint32(r.frame.Type()), uint32(size))
	r.dispatch(nowUs)
}

// frameFailed counts a bad frame and falls back to the default baud rate
// once too many arrive in a row
func (r *Receiver) frameFailed(nowUs uint32) {
	if r.errorCount < protocol.FrameErrorCountThreshold {
		r.errorCount++
	}
	if !r.cfg.ProtocolV3 || r.errorCount < protocol.FrameErrorCountThreshold {
		return
	}

	r.errorCount = 0
	atomic.AddUint32(&r.counters.fallbacks, 1)
	r.record(core.EvtBaudFallback, nowUs, protocol.BaudRate, 0)
	if r.transport == nil {
		return
	}
	if err := r.transport.SetBaudRate(protocol.BaudRate); err != nil {
		r.record(core.EvtTransportErr, nowUs, core.EvtBaudFallback, protocol.BaudRate)
	}
}

func (r *Receiver) record(eventType uint8, nowUs, v1, v2 uint32) {
	if r.trace != nil {
		r.trace.Record(eventType, nowUs, v1, v2)
	}
}

// Stats returns the lifetime counters
func (r *Receiver) Stats() Stats {
	return Stats{
		Bytes:         atomic.LoadUint32(&r.counters.bytes),
		Frames:        atomic.LoadUint32(&r.counters.frames),
		CRCErrors:     atomic.LoadUint32(&r.counters.crcErrors),
		FramingErrors: atomic.LoadUint32(&r.counters.framingErrors),
		Resyncs:       atomic.LoadUint32(&r.counters.resyncs),
		Fallbacks:     atomic.LoadUint32(&r.counters.fallbacks),
		AddressDrops:  atomic.LoadUint32(&r.counters.addressDrops),
		CommandDrops:  atomic.LoadUint32(&r.counters.commandDrops),
	}
}

// Active reports whether the receiver is attached to a serial port
func (r *Receiver) Active() bool {
	return r.transport != nil
}

// UpdateBaudRate asks the transport to switch speed, used when the
// transmitter negotiates a faster link
func (r *Receiver) UpdateBaudRate(baud uint32) error {
	if !r.cfg.ProtocolV3 {
		return ErrNotSupported
	}
	if r.transport == nil {
		return ErrNoTransport
	}
	r.record(core.EvtBaudChange, r.clock.Micros(), baud, 0)
	return r.transport.SetBaudRate(baud)
}
