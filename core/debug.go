package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages.
type DebugWriter func(string)

// TimingEvent captures a timing-critical event from the ramp/timing
// pipeline for post-mortem analysis.
type TimingEvent struct {
	EventType uint8  // Event type code
	OID       uint8  // Controller/axis identifier
	Clock     uint32 // Scheduler tick count, or the controller's logical sequence number for controller events
	Value1    uint32 // Context-dependent value (usually an interval in ns)
	Value2    uint32 // Context-dependent value (usually a step count)
}

// Event type codes
const (
	EvtTickScheduled = 1 // a tick was armed with a computed interval
	EvtTickFired     = 2 // a tick fired and produced a step
	EvtMoveLoaded    = 3 // a new relative move was planned into the ramp
	EvtTimerPast     = 4 // a computed interval fired later than scheduled
	EvtStateChanged  = 5 // the controller's coarse motion state changed
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Timing capture ring buffer (non-blocking, for post-mortem)
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true

	// Async debug output channel
	debugChan chan string

	totalSteps uint64
)

// SetDebugWriter sets the platform-specific debug output function.
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled.
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine.
// Call this from main() after SetDebugWriter.
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Blocks if debug is enabled (use DebugAsync for non-blocking).
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking).
// Returns immediately even if the channel is full (drops the message).
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// RecordTiming captures a timing event in the ring buffer.
// Always non-blocking and cheap enough to call from a tick callback.
func RecordTiming(eventType, oid uint8, clock, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		OID:       oid,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// IncrementStepCount bumps the global tally of steps the hardware accepted
// (the motion controller's tick calls it once per successful step), and
// returns the new total.
func IncrementStepCount() uint64 {
	return atomic.AddUint64(&totalSteps, 1)
}

// TotalStepCount returns the step tally accumulated via IncrementStepCount.
func TotalStepCount() uint64 {
	return atomic.LoadUint64(&totalSteps)
}

// DumpTimingRing outputs the timing ring buffer (call on shutdown/error).
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	debugPrintln("[TIMING] Total steps executed: " + itoa(int(TotalStepCount())))

	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		idx := (start + i) % TimingRingSize
		evt := &timingRing[idx]
		if evt.EventType == 0 {
			continue
		}

		var name string
		switch evt.EventType {
		case EvtTickScheduled:
			name = "TICK_SCHEDULED"
		case EvtTickFired:
			name = "TICK_FIRED"
		case EvtMoveLoaded:
			name = "MOVE_LOADED"
		case EvtTimerPast:
			name = "TIMER_PAST!"
		case EvtStateChanged:
			name = "STATE_CHANGED"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TIMING] " + name +
			" oid=" + itoa(int(evt.OID)) +
			" clock=" + itoa(int(evt.Clock)) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer.
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
