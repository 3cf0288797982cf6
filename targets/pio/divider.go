package pio

// cyclesPerBit is the PIO oversampling of the receive program
const cyclesPerBit = 8

// clockDivider returns the 16.8 fixed point state machine divider that
// runs the receive program at baud
func clockDivider(sysHz, baud uint32) (uint16, uint8) {
	div := (uint64(sysHz) << 8) / (uint64(baud) * cyclesPerBit)
	if div < 1<<8 {
		// The divider cannot run faster than the system clock
		return 1, 0
	}
	return uint16(div >> 8), uint8(div)
}
