//go:build !tinygo

package core

import "sync"

// State is the saved state returned by Enter
type State uintptr

// CriticalSection serializes the receive context and the polling loop.
// On regular Go the receive context is a goroutine, so this is a mutex.
type CriticalSection struct {
	mu sync.Mutex
}

// Enter begins the critical section
func (c *CriticalSection) Enter() State {
	c.mu.Lock()
	return 0
}

// Exit ends the critical section
func (c *CriticalSection) Exit(state State) {
	c.mu.Unlock()
}
