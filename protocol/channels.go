package protocol

// UnpackChannels decodes the fixed RC channels payload: sixteen 11-bit
// values packed LSB first into a little-endian byte stream.
func UnpackChannels(payload []byte, out *[MaxChannel]uint16) {
	for ch := 0; ch < MaxChannel; ch++ {
		bit := ch * ChannelResolution
		idx := bit >> 3
		shift := uint(bit & 7)

		// An 11-bit field spans at most three bytes
		var raw uint32
		for i := 0; i < 3 && idx+i < len(payload); i++ {
			raw |= uint32(payload[idx+i]) << (8 * uint(i))
		}
		out[ch] = uint16((raw >> shift) & ChannelMask)
	}
}

// PackChannels encodes sixteen channel values into the fixed RC channels payload
func PackChannels(channels *[MaxChannel]uint16) [RCChannelsPayloadSize]byte {
	var buf [RCChannelsPayloadSize]byte
	for ch := 0; ch < MaxChannel; ch++ {
		bit := ch * ChannelResolution
		idx := bit >> 3
		shift := uint(bit & 7)

		v := uint32(channels[ch]&ChannelMask) << shift
		for i := 0; i < 3 && idx+i < len(buf); i++ {
			buf[idx+i] |= byte(v >> (8 * uint(i)))
		}
	}
	return buf
}

// SubsetChannelCount returns how many 11-bit values a subset payload of n bytes
// carries. Trailing bits that do not fill a whole value are ignored.
func SubsetChannelCount(n int) int {
	bits := n*8 - SubsetStartChannelResolution
	if bits < ChannelResolution {
		return 0
	}
	return bits / ChannelResolution
}

// UnpackSubsetChannels decodes a subset RC channels payload into out.
// The low five bits of the first byte hold the starting channel; the
// remaining bits are a stream of 11-bit values for consecutive channels.
// Channels outside the addressed range keep their values. Values that
// would land past the last channel are discarded.
func UnpackSubsetChannels(payload []byte, out *[MaxChannel]uint16) (start, count int) {
	count = SubsetChannelCount(len(payload))
	if count == 0 {
		return 0, 0
	}

	start = int(payload[0] & SubsetStartChannelMask)
	readValue := uint32(payload[0] >> SubsetStartChannelResolution)
	bitsMerged := uint(8 - SubsetStartChannelResolution)
	readByteIndex := 1

	for n := 0; n < count; n++ {
		for bitsMerged < ChannelResolution {
			readValue |= uint32(payload[readByteIndex]) << bitsMerged
			readByteIndex++
			bitsMerged += 8
		}
		if ch := start + n; ch < MaxChannel {
			out[ch] = uint16(readValue & ChannelMask)
		}
		readValue >>= ChannelResolution
		bitsMerged -= ChannelResolution
	}
	return start, count
}

// PackSubsetChannels encodes values for consecutive channels beginning at start
func PackSubsetChannels(start int, values []uint16) ([]byte, error) {
	if start < 0 || start >= MaxChannel {
		return nil, ErrChannelOutOfRange
	}
	if len(values) == 0 || start+len(values) > MaxChannel {
		return nil, ErrChannelOutOfRange
	}

	bits := SubsetStartChannelResolution + len(values)*ChannelResolution
	buf := make([]byte, (bits+7)/8)
	buf[0] = byte(start) & SubsetStartChannelMask

	bit := SubsetStartChannelResolution
	for _, value := range values {
		v := uint32(value&ChannelMask) << uint(bit&7)
		idx := bit >> 3
		for i := 0; i < 3 && idx+i < len(buf); i++ {
			buf[idx+i] |= byte(v >> (8 * uint(i)))
		}
		bit += ChannelResolution
	}
	return buf, nil
}

// ChannelToPulseWidth maps an 11-bit channel value to microseconds
func ChannelToPulseWidth(value uint16) uint16 {
	return uint16((int32(value)-ChannelValueMid)*5/8 + PulseWidthMid)
}

// PulseWidthToChannel is the inverse of ChannelToPulseWidth, clamped to 11 bits
func PulseWidthToChannel(us uint16) uint16 {
	v := (int32(us)-PulseWidthMid)*8/5 + ChannelValueMid
	if v < 0 {
		return 0
	}
	if v > ChannelMask {
		return ChannelMask
	}
	return uint16(v)
}

// DefaultChannelValue returns the 11-bit value a channel is seeded with for a
// configured mid RC pulse width
func DefaultChannelValue(midRC uint16) uint16 {
	return uint16((16*int32(midRC))/10 - 1408)
}
