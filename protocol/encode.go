package protocol

// EncodeFrame writes a complete frame for the given address and type.
// The payload callback writes the payload; the length field and CRC are
// filled in afterwards. On error the output holds a partial frame.
func EncodeFrame(output OutputBuffer, address, frameType byte, payload func(output OutputBuffer)) error {
	cursor := output.CurPosition()

	// Write header (length placeholder)
	output.Output([]byte{address, 0, frameType})

	if payload != nil {
		payload(output)
	}

	body := output.DataSince(cursor + PositionType)
	length := len(body) + FrameLengthCRC
	if length+FrameLengthAddress+FrameLengthFrameLength > FrameSizeMax || overflowed(output) {
		return ErrFrameTooLong
	}
	output.Update(cursor+PositionLength, byte(length))

	output.Output([]byte{CRC8DVBS2Bytes(body)})
	if overflowed(output) {
		return ErrFrameTooLong
	}
	return nil
}

func overflowed(output OutputBuffer) bool {
	o, ok := output.(interface{ Overflow() bool })
	return ok && o.Overflow()
}

// EncodeRCChannels writes a fixed RC channels frame addressed to the flight controller
func EncodeRCChannels(output OutputBuffer, channels *[MaxChannel]uint16) error {
	packed := PackChannels(channels)
	return EncodeFrame(output, AddressFlightController, FrameTypeRCChannelsPacked, func(output OutputBuffer) {
		output.Output(packed[:])
	})
}

// EncodeSubsetRCChannels writes a subset RC channels frame updating
// len(values) channels beginning at start
func EncodeSubsetRCChannels(output OutputBuffer, start int, values []uint16) error {
	packed, err := PackSubsetChannels(start, values)
	if err != nil {
		return err
	}
	return EncodeFrame(output, AddressFlightController, FrameTypeSubsetRCChannelsPacked, func(output OutputBuffer) {
		output.Output(packed)
	})
}

// EncodeLinkStatistics writes a 0x14 link statistics frame
func EncodeLinkStatistics(output OutputBuffer, address byte, stats LinkStatistics) error {
	return EncodeFrame(output, address, FrameTypeLinkStatistics, func(output OutputBuffer) {
		output.Output(stats.Bytes())
	})
}

// EncodeLinkStatisticsRX writes a 0x1C link statistics frame
func EncodeLinkStatisticsRX(output OutputBuffer, address byte, stats LinkStatisticsRX) error {
	return EncodeFrame(output, address, FrameTypeLinkStatisticsRX, func(output OutputBuffer) {
		output.Output(stats.Bytes())
	})
}

// EncodeLinkStatisticsTX writes a 0x1D link statistics frame
func EncodeLinkStatisticsTX(output OutputBuffer, address byte, stats LinkStatisticsTX) error {
	return EncodeFrame(output, address, FrameTypeLinkStatisticsTX, func(output OutputBuffer) {
		output.Output(stats.Bytes())
	})
}

// EncodeExtended writes an extended frame whose payload starts with
// destination and origin addresses
func EncodeExtended(output OutputBuffer, address, frameType, dest, origin byte, data []byte) error {
	return EncodeFrame(output, address, frameType, func(output OutputBuffer) {
		output.Output([]byte{dest, origin})
		output.Output(data)
	})
}

// EncodeCommand writes a 0x32 command frame. The command payload is
// followed by its poly 0xBA CRC ahead of the frame CRC.
func EncodeCommand(output OutputBuffer, address, dest, origin byte, data []byte) error {
	return EncodeFrame(output, address, FrameTypeCommand, func(output OutputBuffer) {
		start := output.CurPosition() - FrameLengthType
		output.Output([]byte{dest, origin})
		output.Output(data)
		output.Output([]byte{CRC8PolyBABytes(output.DataSince(start))})
	})
}
