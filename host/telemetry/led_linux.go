//go:build linux

package telemetry

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// OpenLinkLED requests a GPIO output line on chip for the link indicator
func OpenLinkLED(tracker *Tracker, chip string, offset int) (*LinkLED, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("crsfrx"))
	if err != nil {
		return nil, fmt.Errorf("failed to request %s line %d: %w", chip, offset, err)
	}
	return newLinkLED(tracker, line), nil
}
