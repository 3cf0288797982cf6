//go:build !linux

package telemetry

import "errors"

// OpenLinkLED is only supported on Linux
func OpenLinkLED(tracker *Tracker, chip string, offset int) (*LinkLED, error) {
	return nil, errors.New("gpio character device requires linux")
}
