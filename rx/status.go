package rx

import (
	"sync/atomic"

	"crsfrx/protocol"
)

// FrameStatus reports whether a new channel frame arrived since the last
// poll and, if so, unpacks it into the channel set. Polling again without
// a new frame returns FramePending and leaves the channels untouched.
func (r *Receiver) FrameStatus() FrameState {
	// Latch clear and snapshot copy are one unit
	state := r.cs.Enter()
	if !r.frameDone {
		r.cs.Exit(state)
		return FramePending
	}
	r.frameDone = false
	frame := r.snapshot
	r.cs.Exit(state)

	if !frame.Valid() {
		return FramePending
	}

	if frame.Type() == protocol.FrameTypeRCChannelsPacked {
		protocol.UnpackChannels(frame.Payload(), &r.channels)
	} else {
		protocol.UnpackSubsetChannels(frame.Payload(), &r.channels)
	}
	return FrameComplete
}

// ReadRaw returns channel ch as a pulse width in microseconds, or 0 for
// a channel the link does not carry
func (r *Receiver) ReadRaw(ch int) uint16 {
	if ch < 0 || ch >= protocol.MaxChannel {
		return 0
	}
	return protocol.ChannelToPulseWidth(r.channels[ch])
}

// Channel returns the raw 11-bit value of channel ch
func (r *Receiver) Channel(ch int) uint16 {
	if ch < 0 || ch >= protocol.MaxChannel {
		return 0
	}
	return r.channels[ch]
}

// Channels returns a copy of the decoded channel set
func (r *Receiver) Channels() [protocol.MaxChannel]uint16 {
	return r.channels
}

// ChannelCount is the number of channels the link carries
func (r *Receiver) ChannelCount() int {
	return protocol.MaxChannel
}

// RefreshIntervalUs is the shortest interval between channel frames
func (r *Receiver) RefreshIntervalUs() uint32 {
	return protocol.FrameIntervalUs
}

// LastLinkStatisticsUs returns when transmitter link statistics last arrived
func (r *Receiver) LastLinkStatisticsUs() uint32 {
	return atomic.LoadUint32(&r.lastLinkStatisticsUs)
}
