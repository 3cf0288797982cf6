package protocol

// Frame is a single on-wire frame:
//
//	[address][length][type][payload...][crc]
//
// length counts type, payload and crc. The on-wire size is length+2.
type Frame [FrameSizeMax]byte

// Address returns the device address byte
func (f *Frame) Address() byte {
	return f[PositionAddress]
}

// FrameLength returns the length field
func (f *Frame) FrameLength() int {
	return int(f[PositionLength])
}

// Type returns the frame type byte
func (f *Frame) Type() byte {
	return f[PositionType]
}

// Size returns the on-wire size declared by the length field
func (f *Frame) Size() int {
	return f.FrameLength() + FrameLengthAddress + FrameLengthFrameLength
}

// Valid reports whether the declared size fits the buffer and holds at least type and crc
func (f *Frame) Valid() bool {
	size := f.Size()
	return size >= FrameSizeMin && size <= FrameSizeMax
}

// Payload returns the bytes between the type byte and the CRC
func (f *Frame) Payload() []byte {
	return f[PositionPayload : PositionPayload+f.payloadLen(0)]
}

// CRC returns the trailing CRC byte
func (f *Frame) CRC() byte {
	size := f.Size()
	if size > FrameSizeMax {
		size = FrameSizeMax
	}
	if size < 1 {
		return 0
	}
	return f[size-1]
}

// Bytes returns the on-wire bytes of the frame
func (f *Frame) Bytes() []byte {
	size := f.Size()
	if size > FrameSizeMax {
		size = FrameSizeMax
	}
	return f[:size]
}

// payloadLen returns the payload length less trailer bytes, clamped to the buffer
func (f *Frame) payloadLen(trailer int) int {
	n := f.FrameLength() - FrameLengthTypeCRC - trailer
	max := PayloadSizeMax - trailer
	if n > max {
		n = max
	}
	if n < 0 {
		n = 0
	}
	return n
}
