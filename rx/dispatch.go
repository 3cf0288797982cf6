package rx

import (
	"sync/atomic"

	"crsfrx/core"
	"crsfrx/protocol"
)

// dispatch handles a CRC-valid frame in the receive context. Payload slices
// passed to collaborators alias the receive buffer and are only valid for
// the duration of the call.
func (r *Receiver) dispatch(nowUs uint32) {
	f := &r.frame

	switch f.Type() {
	case protocol.FrameTypeRCChannelsPacked:
		r.latchChannels(nowUs)

	case protocol.FrameTypeSubsetRCChannelsPacked:
		if r.cfg.ProtocolV3 {
			r.latchChannels(nowUs)
		}

	case protocol.FrameTypeMSPReq, protocol.FrameTypeMSPWrite:
		if r.msp == nil {
			return
		}
		if r.msp.BufferMSPFrame(extendedPayload(f, protocol.RxMSPFrameSize)) && r.scheduler != nil {
			r.scheduler.ScheduleMSPResponse()
		}

	case protocol.FrameTypeDevicePing:
		if r.scheduler != nil {
			r.scheduler.ScheduleDeviceInfoResponse()
		}

	case protocol.FrameTypeDisplayPortCmd:
		if r.displayPort != nil {
			r.displayPort.ProcessDisplayPortCmd(extendedPayload(f, protocol.PayloadSizeMax))
		}

	case protocol.FrameTypeLinkStatistics:
		if r.cfg.RSSISource == SourceCRSF && f.FrameLength() == protocol.LinkStatisticsFrameLength {
			r.handleLinkStatistics(f.Payload())
		}

	case protocol.FrameTypeLinkStatisticsRX:
		if r.cfg.ProtocolV3 && f.FrameLength() == protocol.LinkStatisticsRXFrameLength {
			r.handleLinkStatisticsRX(f.Payload())
		}

	case protocol.FrameTypeLinkStatisticsTX:
		if !r.cfg.ProtocolV3 || r.cfg.RSSISource != SourceCRSF || f.FrameLength() != protocol.LinkStatisticsTXFrameLength {
			return
		}
		if f.Address() != protocol.AddressFlightController {
			r.dropAddress(nowUs)
			return
		}
		r.handleLinkStatisticsTX(f.Payload(), nowUs)

	case protocol.FrameTypeCommand:
		if r.cfg.ProtocolV3 {
			r.handleCommand(nowUs)
		}
	}
}

// latchChannels publishes the frame to the poller
func (r *Receiver) latchChannels(nowUs uint32) {
	if r.frame.Address() != protocol.AddressFlightController {
		r.dropAddress(nowUs)
		return
	}

	state := r.cs.Enter()
	r.snapshot = r.frame
	r.frameDone = true
	r.cs.Exit(state)
}

func (r *Receiver) dropAddress(nowUs uint32) {
	atomic.AddUint32(&r.counters.addressDrops, 1)
	r.record(core.EvtAddressDrop, nowUs, uint32(r.frame.Type()), uint32(r.frame.Address()))
}

func (r *Receiver) handleCommand(nowUs uint32) {
	f := &r.frame
	p := f.Payload()
	if len(p) < protocol.CommandFrameMinPayloadSize {
		atomic.AddUint32(&r.counters.commandDrops, 1)
		r.record(core.EvtCommandDrop, nowUs, 0, 0)
		return
	}

	// Foreign or corrupted commands are dropped without counting as link errors
	crc := protocol.CommandCRC(f)
	if crc != p[len(p)-1] || p[0] != protocol.AddressFlightController {
		atomic.AddUint32(&r.counters.commandDrops, 1)
		r.record(core.EvtCommandDrop, nowUs, uint32(crc), uint32(p[0]))
		return
	}
	if r.commands != nil {
		r.commands.ProcessCommand(p[protocol.FrameOriginDestSize:])
	}
}

// extendedPayload strips the destination and origin bytes and clips to max
func extendedPayload(f *protocol.Frame, max int) []byte {
	p := f.Payload()
	if len(p) < protocol.FrameOriginDestSize {
		return p[:0]
	}
	p = p[protocol.FrameOriginDestSize:]
	if len(p) > max {
		p = p[:max]
	}
	return p
}
