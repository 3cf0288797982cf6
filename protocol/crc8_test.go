package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCRC8CheckValues(t *testing.T) {
	check := []byte("123456789")

	assert.Equal(t, byte(0xBC), CRC8DVBS2Bytes(check))
	assert.Equal(t, byte(0x20), CRC8PolyBABytes(check))
	assert.Equal(t, byte(0x00), CRC8DVBS2Bytes(nil))
}

func TestCRC8Incremental(t *testing.T) {
	data := []byte{0x16, 0xE0, 0x03, 0x1F, 0xF8}

	var crc byte
	for _, b := range data {
		crc = CRC8DVBS2(crc, b)
	}
	assert.Equal(t, CRC8DVBS2Bytes(data), crc)

	crc = 0
	for _, b := range data {
		crc = CRC8PolyBA(crc, b)
	}
	assert.Equal(t, CRC8PolyBABytes(data), crc)
}

func TestCRC8Residue(t *testing.T) {
	// Appending the CRC of a message leaves a zero remainder
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")

		withDVB := append(append([]byte{}, data...), CRC8DVBS2Bytes(data))
		assert.Equal(t, byte(0), CRC8DVBS2Bytes(withDVB))

		withBA := append(append([]byte{}, data...), CRC8PolyBABytes(data))
		assert.Equal(t, byte(0), CRC8PolyBABytes(withBA))
	})
}

func TestFrameCRC(t *testing.T) {
	var channels [MaxChannel]uint16
	for i := range channels {
		channels[i] = ChannelValueMid
	}

	out := NewScratchOutput()
	err := EncodeRCChannels(out, &channels)
	assert.NoError(t, err)

	var f Frame
	copy(f[:], out.Result())

	assert.Equal(t, byte(0xAD), FrameCRC(&f))
	assert.Equal(t, f.CRC(), FrameCRC(&f))
}

func TestCommandCRC(t *testing.T) {
	out := NewScratchOutput()
	err := EncodeCommand(out, AddressFlightController, AddressFlightController, AddressRadioTransmitter, []byte{0x10, 0x0A})
	assert.NoError(t, err)

	var f Frame
	copy(f[:], out.Result())

	size := f.Size()
	assert.Equal(t, f[size-2], CommandCRC(&f))
	assert.Equal(t, f[size-1], FrameCRC(&f))

	// Corrupting the command body breaks the inner CRC
	f[PositionPayload+2] ^= 0xFF
	assert.NotEqual(t, f[size-2], CommandCRC(&f))
}

func TestFrameCRCLengthClamped(t *testing.T) {
	var f Frame
	f[PositionLength] = 0xFF

	// Must not read past the buffer
	assert.NotPanics(t, func() { FrameCRC(&f) })
	assert.NotPanics(t, func() { CommandCRC(&f) })
}
