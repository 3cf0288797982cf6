package telemetry

import (
	"context"
	"time"
)

// outputLine is a GPIO output
type outputLine interface {
	SetValue(value int) error
	Close() error
}

// LinkLED lights a GPIO while the link is up and blinks it while the
// link is down
type LinkLED struct {
	tracker *Tracker
	line    outputLine
	lit     bool
}

func newLinkLED(tracker *Tracker, line outputLine) *LinkLED {
	return &LinkLED{tracker: tracker, line: line}
}

// Update sets the line for the current link state
func (l *LinkLED) Update() error {
	on := true
	if !l.tracker.Snapshot().Up {
		on = !l.lit
	}
	if on == l.lit {
		return nil
	}

	value := 0
	if on {
		value = 1
	}
	if err := l.line.SetValue(value); err != nil {
		return err
	}
	l.lit = on
	return nil
}

// Run updates the LED every interval until ctx is cancelled, then turns it off
func (l *LinkLED) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.line.SetValue(0)
			return l.line.Close()
		case <-ticker.C:
			if err := l.Update(); err != nil {
				return err
			}
		}
	}
}
