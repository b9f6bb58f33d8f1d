package core

// TimerFreq is the reference tick rate the scheduler and motion timing
// source assume: 12MHz, matching the microcontroller targets this package
// was written for.
const TimerFreq = 12_000_000

var (
	systemTicks uint32
	bootTicks   uint64
)

// GetTime returns the current time in timer ticks.
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current time in timer ticks. Hosts driving
// ProcessTimers from a wall clock call this once per pump to advance time;
// simulated clocks never call it.
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// GetUptime returns time elapsed since TimerInit, in ticks, as a uint64.
// It is computed from the raw 32-bit tick counter and does not track that
// counter's wraps, so it measures elapsed time only until the counter
// wraps (2^32 ticks, about 358 s at 12MHz).
func GetUptime() uint64 {
	return uint64(GetTime()) - bootTicks
}

// TimerFromUS converts a microsecond duration to ticks at TimerFreq,
// rounding toward zero.
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1_000_000)
}

// TimerToUS converts a tick duration back to microseconds at TimerFreq.
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1_000_000 / TimerFreq)
}

// TimerInit records the current tick as the epoch GetUptime measures from.
// Hosts that pump ProcessTimers call this once before the first pump.
func TimerInit() {
	bootTicks = uint64(GetTime())
}

// ProcessTimers re-reads the clock and runs any timers that are now due.
// Hosts that don't use the shared scheduler (e.g. a SimClock-driven
// in-process controller) never call this.
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}
