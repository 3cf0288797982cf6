package core

// TimerFreq is the frequency of the system timebase. All link timing is in microseconds.
const TimerFreq = 1000000

// Clock supplies a free-running microsecond counter. It wraps every ~71 minutes.
type Clock interface {
	Micros() uint32
}

// ClockFunc adapts a function to the Clock interface
type ClockFunc func() uint32

// Micros calls f
func (f ClockFunc) Micros() uint32 {
	return f()
}

// SystemClock reads the platform timebase
var SystemClock Clock = ClockFunc(GetTime)

// GetTime returns the current system time in microseconds
func GetTime() uint32 {
	return getSystemTicks()
}

// TimeSince returns the microseconds elapsed from then to now, correct across wraparound
func TimeSince(now, then uint32) uint32 {
	return now - then
}

// TimeAfter reports whether a is later than b, correct across wraparound
// as long as the two are within half the counter range
func TimeAfter(a, b uint32) bool {
	return int32(a-b) > 0
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return us * (TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return ticks / (TimerFreq / 1000000)
}
