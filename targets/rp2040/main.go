//go:build rp2040

// Firmware that decodes a CRSF receiver on an RP2040 and drives servo
// outputs from the decoded channels
package main

import (
	"errors"
	"machine"
	"time"

	"crsfrx/core"
	"crsfrx/protocol"
	"crsfrx/rx"
	"crsfrx/targets/pio"
)

// Board wiring
const (
	uartTXPin = machine.GPIO4
	uartRXPin = machine.GPIO5
	baudRate  = protocol.BaudRate

	// Set for receivers with an inverted serial output
	inverted = false
)

// Servo pins and the receiver channel each one follows
var servoMap = []struct {
	pin machine.Pin
	rc  int
}{
	{machine.GPIO10, 0}, // Aileron
	{machine.GPIO11, 1}, // Elevator
	{machine.GPIO12, 2}, // Throttle
	{machine.GPIO13, 3}, // Rudder
}

// Scheduler periods in microseconds
const (
	failsafeTimeoutUs = 250000
	telemetryPeriodUs = 200000
	ledPeriodUs       = 100000
	tracePeriodUs     = 1000000
)

var (
	rcv    *rx.Receiver
	port   serialPort
	servos *servoBank
	sched  = core.NewScheduler()
	trace  core.EventRing

	lastFrameUs uint32
	failsafe    = true
	telemetry   = protocol.NewScratchOutput()
)

func main() {
	InitClock()

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	cfg := rx.DefaultConfig()
	cfg.Inverted = inverted
	rcv = rx.New(cfg)
	rcv.SetTrace(&trace)

	var err error
	port, err = openPort(cfg.Inverted)
	if err != nil {
		for {
			println("serial port failed:", err.Error())
			time.Sleep(time.Second)
		}
	}
	rcv.SetTransport(port)

	servos = newServoBank()
	for _, s := range servoMap {
		if err := servos.Add(s.pin, s.rc); err != nil {
			println("servo output failed:", err.Error())
		}
	}
	servos.Hold(protocol.PulseWidthMid)

	now := core.GetTime()
	sched.Every(now+rcv.RefreshIntervalUs(), rcv.RefreshIntervalUs(), pollChannels)
	sched.Every(now+telemetryPeriodUs, telemetryPeriodUs, sendTelemetry)
	sched.Every(now+ledPeriodUs, ledPeriodUs, func(now uint32) {
		// Solid while receiving, blinking in failsafe
		if failsafe {
			led.Set(!led.Get())
		} else {
			led.High()
		}
	})
	sched.Every(now+tracePeriodUs, tracePeriodUs, dumpTrace)

	println("crsfrx", protocol.Version, "receiving at", baudRate)

	for {
		// Bytes are stamped when drained, so drain on both sides of the
		// scheduled tasks to keep a slow task from splitting a frame
		drain()
		sched.Dispatch(core.GetTime())
		drain()

		// Yield to other goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

var rxBuf [protocol.FrameSizeMax]byte

// drain feeds everything the port has buffered to the receiver
func drain() {
	for port.Buffered() > 0 {
		n, _ := port.Read(rxBuf[:])
		for _, b := range rxBuf[:n] {
			rcv.DataReceive(b)
		}
	}
}

// pollChannels latches a new channel set or enters failsafe
func pollChannels(now uint32) {
	if rcv.FrameStatus() == rx.FrameComplete {
		lastFrameUs = now
		if failsafe {
			println("link up")
			failsafe = false
		}
		ch := rcv.Channels()
		servos.Update(&ch)
		return
	}

	if !failsafe && core.TimeSince(now, lastFrameUs) > failsafeTimeoutUs {
		println("failsafe")
		failsafe = true
		servos.Hold(protocol.PulseWidthMid)
	}
}

// sendTelemetry reports the flight mode back to the transmitter
func sendTelemetry(now uint32) {
	mode := "OK"
	if failsafe {
		mode = "!FS!"
	}

	telemetry.Reset()
	err := protocol.EncodeFrame(telemetry, protocol.AddressRadioTransmitter, protocol.FrameTypeFlightMode, func(out protocol.OutputBuffer) {
		out.Output([]byte(mode))
		out.Output([]byte{0})
	})
	if err != nil {
		return
	}

	rcv.WriteTelemetryData(telemetry.Result())
	if err := rcv.SendTelemetryData(); err != nil && !errors.Is(err, pio.ErrReceiveOnly) {
		println("telemetry write failed:", err.Error())
	}
}

var traceSeq uint32

// dumpTrace prints receive events recorded since the last call
func dumpTrace(now uint32) {
	var events [core.TraceRingSize]core.TraceEvent
	got, next, lost := trace.Since(traceSeq, events[:0])
	traceSeq = next
	if lost > 0 {
		println("trace: lost", lost)
	}
	for _, e := range got {
		switch e.EventType {
		case core.EvtFrameComplete, core.EvtAddressDrop:
			continue
		}
		println("trace:", core.EventName(e.EventType), e.Clock, e.Value1, e.Value2)
		drain()
	}
}
