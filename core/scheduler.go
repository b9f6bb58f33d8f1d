package core

// schedTimer is one entry in the sorted intrusive timer list: WakeTime is
// compared with signed 32-bit wrap-around semantics, so the list stays
// correct as long as no two live timers are more than 2^31 ticks (~3
// minutes at a 12MHz tick rate) apart.
type schedTimer struct {
	WakeTime uint32
	Handler  func(*schedTimer) uint8
	next     *schedTimer
}

// Timer is the public alias callers build and pass to ScheduleTimer.
type Timer = schedTimer

const (
	// SFDone tells the dispatcher the timer is finished; it will not be
	// reinserted.
	SFDone = 0
	// SFReschedule tells the dispatcher to reinsert the timer using its
	// (presumably updated) WakeTime.
	SFReschedule = 1

	// TimerPastThreshold bounds how far behind schedule a due timer may be
	// before it's treated as a scheduling fault rather than ordinary
	// jitter. 1,200,000 ticks is 100ms at the 12MHz reference tick rate.
	TimerPastThreshold = 1_200_000
)

var (
	timerList       *schedTimer
	currentTime     uint32
	timerPastErrors uint32

	faultLatched bool
	faultReason  string
)

// ScheduleTimer inserts t into the sorted wake list under a disabled-
// interrupt critical section.
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	insertTimer(t)
}

// insertTimer keeps the list sorted ascending by WakeTime, using a signed
// difference so wrap-around at the 32-bit tick counter doesn't misorder
// entries near the rollover point.
func insertTimer(t *Timer) {
	if timerList == nil || int32(t.WakeTime-timerList.WakeTime) < 0 {
		t.next = timerList
		timerList = t
		return
	}
	cur := timerList
	for cur.next != nil && int32(cur.next.WakeTime-t.WakeTime) < 0 {
		cur = cur.next
	}
	t.next = cur.next
	cur.next = t
}

// TimerDispatch pops and runs every timer whose WakeTime has passed,
// reinserting any that ask for SFReschedule. A timer found more than
// TimerPastThreshold ticks late latches a scheduling fault and stops
// dispatching: the caller has fallen far enough behind that running the
// rest of the queue would only compound the delay.
func TimerDispatch() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for timerList != nil && int32(currentTime-timerList.WakeTime) >= 0 {
		t := timerList
		timerList = t.next
		t.next = nil

		lateBy := int32(currentTime - t.WakeTime)
		if lateBy > int32(TimerPastThreshold) {
			timerPastErrors++
			RecordTiming(EvtTimerPast, 0, currentTime, t.WakeTime, uint32(lateBy))
			raiseFault("timer dispatched too far in the past")
			return
		}

		if t.Handler(t) == SFReschedule {
			insertTimer(t)
		}

		// Handlers may take real time (e.g. blocking on a full hardware
		// FIFO); re-read the clock so later entries aren't judged against
		// a stale currentTime.
		currentTime = GetTime()
	}
}

// GetTimerPastErrors returns how many times TimerDispatch has found a
// timer scheduled further in the past than TimerPastThreshold.
func GetTimerPastErrors() uint32 {
	return timerPastErrors
}

// ResetTimerPastErrors clears the counter GetTimerPastErrors reports.
func ResetTimerPastErrors() {
	timerPastErrors = 0
}

// raiseFault latches a scheduling fault with a human-readable reason.
// Latching rather than overwriting keeps the first fault visible even if
// dispatch keeps running and hits further trouble.
func raiseFault(reason string) {
	if !faultLatched {
		faultLatched = true
		faultReason = reason
	}
}

// Fault reports whether a scheduling fault has latched, and why.
func Fault() (bool, string) {
	return faultLatched, faultReason
}

// ResetFault clears a latched scheduling fault, for hosts that want to
// resume dispatch after investigating.
func ResetFault() {
	faultLatched = false
	faultReason = ""
}
