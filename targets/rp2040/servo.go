//go:build rp2040

package main

import (
	"machine"

	"crsfrx/protocol"
)

// Servo frame period, 50Hz
const servoPeriodUs = 20000

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

type servoOutput struct {
	pwm     pwmPeripheral
	channel uint8
	rc      int // Receiver channel driving this output
}

// servoBank drives standard servo pulses from receiver channels.
// RP2040: GPIO pin N is on slice (N >> 1) & 7, channel A for even pins.
type servoBank struct {
	outputs    []servoOutput
	configured [8]bool
}

func newServoBank() *servoBank {
	return &servoBank{}
}

// Add maps receiver channel rc (zero based) to a pin
func (b *servoBank) Add(pin machine.Pin, rc int) error {
	slice := uint8((uint32(pin) >> 1) & 0x7)
	pwm := pwmSlice(slice)

	if !b.configured[slice] {
		err := pwm.Configure(machine.PWMConfig{
			Period: servoPeriodUs * 1000, // Nanoseconds
		})
		if err != nil {
			return err
		}
		b.configured[slice] = true
	}

	channel, err := pwm.Channel(pin)
	if err != nil {
		return err
	}
	b.outputs = append(b.outputs, servoOutput{pwm: pwm, channel: channel, rc: rc})
	return nil
}

// Update sets every output from a channel snapshot
func (b *servoBank) Update(channels *[protocol.MaxChannel]uint16) {
	for _, o := range b.outputs {
		b.set(o, protocol.ChannelToPulseWidth(channels[o.rc]))
	}
}

// Hold sets every output to the same pulse width
func (b *servoBank) Hold(us uint16) {
	for _, o := range b.outputs {
		b.set(o, us)
	}
}

func (b *servoBank) set(o servoOutput, us uint16) {
	top := o.pwm.Top()
	o.pwm.Set(o.channel, uint32(uint64(us)*uint64(top)/servoPeriodUs))
}

// pwmSlice returns the PWM peripheral for a slice number
func pwmSlice(slice uint8) pwmPeripheral {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
