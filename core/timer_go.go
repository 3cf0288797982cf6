//go:build !tinygo

package core

import "time"

var hostEpoch = time.Now()

// getSystemTicks returns microseconds since process start (regular Go implementation)
func getSystemTicks() uint32 {
	return uint32(time.Since(hostEpoch) / time.Microsecond)
}
