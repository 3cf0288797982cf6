//go:build rp2040

// Package pio receives a serial link on any GPIO using an RP2040 PIO
// state machine, with optional signal inversion in the pad
package pio

// PIO receive program for 8N1 serial
// Each bit is sampled 8 PIO cycles apart, the first one 12 cycles after
// the start edge so sampling lands mid-bit. A byte with a bad stop bit
// is discarded.

import (
	"errors"
	"machine"
	"runtime/volatile"
	"unsafe"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Let the allocator place the program
const uartRXOrigin = -1

// buildUARTRXProgram creates the receive program using AssemblerV0
func buildUARTRXProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// start:
		asm.WaitPin(false, 0).Encode(),                 // 0: wait 0 pin 0
		asm.Set(rp2pio.SetDestX, 7).Delay(10).Encode(), // 1: set x, 7 [10]
		// bitloop:
		asm.In(rp2pio.InSrcPins, 1).Encode(),              // 2: in pins, 1
		asm.Jmp(2, rp2pio.JmpXNZeroDec).Delay(6).Encode(), // 3: jmp x--, bitloop [6]
		asm.Jmp(7, rp2pio.JmpPinInput).Encode(),           // 4: jmp pin, good_stop
		asm.WaitPin(true, 0).Encode(),                     // 5: wait 1 pin 0
		asm.Jmp(0, rp2pio.JmpAlways).Encode(),             // 6: jmp start
		// good_stop:
		asm.Push(false, false).Encode(), // 7: push noblock
	}
}

// ErrNoStateMachine is returned when every state machine is claimed
var ErrNoStateMachine = errors.New("pio: no free state machine")

// ErrReceiveOnly is returned by Write
var ErrReceiveOnly = errors.New("pio: uart is receive only")

// UARTRX is a receive-only serial port backed by a PIO state machine
type UARTRX struct {
	pio      *rp2pio.PIO
	sm       rp2pio.StateMachine
	pin      machine.Pin
	inverted bool
	offset   uint8
	program  []uint16
}

// NewUARTRX claims a state machine on either PIO block
func NewUARTRX() (*UARTRX, error) {
	for _, p := range []*rp2pio.PIO{rp2pio.PIO0, rp2pio.PIO1} {
		sm, err := p.ClaimStateMachine()
		if err == nil {
			return &UARTRX{pio: p, sm: sm}, nil
		}
	}
	return nil, ErrNoStateMachine
}

// Configure loads the program and starts receiving on pin at baud.
// With inverted set the pad input is inverted before the PIO sees it.
func (u *UARTRX) Configure(pin machine.Pin, baud uint32, inverted bool) error {
	u.pin = pin
	u.inverted = inverted

	if u.program == nil {
		u.program = buildUARTRXProgram()
		offset, err := u.pio.AddProgram(u.program, uartRXOrigin)
		if err != nil {
			return err
		}
		u.offset = offset
	}

	u.pin.Configure(machine.PinConfig{Mode: u.pio.PinMode()})
	setInputInversion(u.pin, inverted)

	u.start(baud)
	return nil
}

func (u *UARTRX) start(baud uint32) {
	cfg := rp2pio.DefaultStateMachineConfig()

	// IN and JMP both read the RX pin
	cfg.SetInPins(u.pin, 1)
	cfg.SetJmpPin(u.pin)

	// Shift right so the first bit ends up least significant, push manually
	cfg.SetInShift(true, false, 32)
	cfg.SetFIFOJoin(rp2pio.FifoJoinRx)

	cfg.SetWrap(u.offset+uint8(len(u.program))-1, u.offset)

	whole, frac := clockDivider(machine.CPUFrequency(), baud)
	cfg.SetClkDivIntFrac(whole, frac)

	u.sm.Init(u.offset, cfg)
	u.sm.SetPindirsConsecutive(u.pin, 1, false)
	u.sm.SetEnabled(true)
}

// SetBaudRate restarts the state machine at a new rate. Bytes still in
// the FIFO are dropped.
func (u *UARTRX) SetBaudRate(baud uint32) error {
	u.sm.SetEnabled(false)
	u.sm.ClearFIFOs()
	u.sm.Restart()
	u.start(baud)
	return nil
}

// Buffered returns the number of received bytes waiting in the FIFO
func (u *UARTRX) Buffered() int {
	return int(u.sm.RxFIFOLevel())
}

// Read drains up to len(p) bytes without blocking
func (u *UARTRX) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && !u.sm.IsRxFIFOEmpty() {
		// Eight bits were shifted in from the top of the ISR
		p[n] = byte(u.sm.RxGet() >> 24)
		n++
	}
	return n, nil
}

// Write is unsupported on the receive-only port
func (u *UARTRX) Write(p []byte) (int, error) {
	return 0, ErrReceiveOnly
}

// IO_BANK0 GPIO control registers, one 8-byte block per pin
const (
	ioBank0Base      = 0x40014000
	gpioCtrlOffset   = 0x04
	gpioCtrlInover   = 16
	gpioInoverMask   = 0x3 << gpioCtrlInover
	gpioInoverInvert = 0x1 << gpioCtrlInover
)

// setInputInversion sets the pad input override for pin
func setInputInversion(pin machine.Pin, inverted bool) {
	ctrl := (*volatile.Register32)(unsafe.Pointer(uintptr(ioBank0Base + gpioCtrlOffset + 8*uint32(pin))))
	v := ctrl.Get() &^ gpioInoverMask
	if inverted {
		v |= gpioInoverInvert
	}
	ctrl.Set(v)
}
