//go:build tinygo

package core

var timeSource func() uint32

// SetTimeSource installs the hardware timer read by GetTime.
// Targets call this before enabling the receive interrupt.
func SetTimeSource(fn func() uint32) {
	timeSource = fn
}

// getSystemTicks returns the current system ticks, or 0 before a time
// source is installed
func getSystemTicks() uint32 {
	if timeSource != nil {
		return timeSource()
	}
	return 0
}
