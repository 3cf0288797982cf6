//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers"

	"crsfrx/targets/pio"
)

// serialPort is a non-blocking byte source that can change speed. It is
// the receiver's transport.
type serialPort interface {
	drivers.UART
	SetBaudRate(baud uint32) error
}

// hardwareUART adapts a machine UART
type hardwareUART struct {
	*machine.UART
}

func (u hardwareUART) SetBaudRate(baud uint32) error {
	u.UART.SetBaudRate(baud)
	return nil
}

// openPort returns the hardware UART for a normal line, or a PIO receiver
// for an inverted one since the UART block cannot invert its input
func openPort(inverted bool) (serialPort, error) {
	if !inverted {
		uart := machine.UART1
		err := uart.Configure(machine.UARTConfig{
			BaudRate: baudRate,
			TX:       uartTXPin,
			RX:       uartRXPin,
		})
		if err != nil {
			return nil, err
		}
		return hardwareUART{uart}, nil
	}

	rxPort, err := pio.NewUARTRX()
	if err != nil {
		return nil, err
	}
	if err := rxPort.Configure(uartRXPin, baudRate, true); err != nil {
		return nil, err
	}
	return rxPort, nil
}

var (
	_ serialPort = hardwareUART{}
	_ serialPort = (*pio.UARTRX)(nil)
)
