package protocol

// CRC-8 polynomials used on the link. Both are MSB-first with a zero
// initial value and no final xor.
const (
	PolyDVBS2 = 0xD5 // frame CRC
	PolyBA    = 0xBA // command frame inner CRC
)

var (
	dvbS2Table  = makeCRC8Table(PolyDVBS2)
	polyBATable = makeCRC8Table(PolyBA)
)

func makeCRC8Table(poly byte) *[256]byte {
	var table [256]byte
	for i := range table {
		crc := byte(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return &table
}

// CRC8DVBS2 folds one byte into a running DVB-S2 CRC-8
func CRC8DVBS2(crc, b byte) byte {
	return dvbS2Table[crc^b]
}

// CRC8DVBS2Bytes calculates the DVB-S2 CRC-8 of data
func CRC8DVBS2Bytes(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = dvbS2Table[crc^b]
	}
	return crc
}

// CRC8PolyBA folds one byte into a running poly 0xBA CRC-8
func CRC8PolyBA(crc, b byte) byte {
	return polyBATable[crc^b]
}

// CRC8PolyBABytes calculates the poly 0xBA CRC-8 of data
func CRC8PolyBABytes(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = polyBATable[crc^b]
	}
	return crc
}

// FrameCRC calculates the CRC of a buffered frame.
// The CRC covers the type byte and the payload, excluding the CRC byte itself.
func FrameCRC(f *Frame) byte {
	crc := CRC8DVBS2(0, f[PositionType])
	n := f.payloadLen(0)
	for i := 0; i < n; i++ {
		crc = CRC8DVBS2(crc, f[PositionPayload+i])
	}
	return crc
}

// CommandCRC calculates the inner CRC of a command frame.
// It covers the type byte and the payload, excluding the embedded command
// CRC and the frame CRC that follow it.
func CommandCRC(f *Frame) byte {
	crc := CRC8PolyBA(0, f[PositionType])
	n := f.payloadLen(1)
	for i := 0; i < n; i++ {
		crc = CRC8PolyBA(crc, f[PositionPayload+i])
	}
	return crc
}
