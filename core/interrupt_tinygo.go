//go:build tinygo

package core

import "runtime/interrupt"

// State is the interrupt state saved by Enter
type State = interrupt.State

// CriticalSection serializes the receive interrupt and the polling loop
// by masking interrupts. Nesting is allowed.
type CriticalSection struct{}

// Enter disables interrupts and returns the previous state
func (c *CriticalSection) Enter() State {
	return interrupt.Disable()
}

// Exit restores the interrupt state
func (c *CriticalSection) Exit(state State) {
	interrupt.Restore(state)
}
