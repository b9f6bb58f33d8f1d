package motion

import "stepramp/core"

// SchedulerTimingSource adapts core's sorted intrusive timer list
// (insertTimer/TimerDispatch, wrap-around-safe signed-difference
// comparisons) into the TimingSource contract, for embedded or desktop
// hosts that already drive a core.ProcessTimers loop. Unlike core.Timer's
// native SFReschedule convention (meant for a handler that reschedules
// itself repeatedly), this is always one-shot: TimingSource.Start is the
// only thing that rearms it.
type SchedulerTimingSource struct {
	callback func()
	interval uint64

	// generation guards against a timer already queued on the sorted
	// list firing after Stop (or after being superseded by a later
	// Start): core/scheduler.go has no dequeue primitive, so a stale
	// fire() checks its captured generation against the current one and
	// no-ops if they differ.
	generation uint32
}

// NewSchedulerTimingSource returns a TimingSource backed by the shared
// core scheduler. core.ProcessTimers (or core.TimerDispatch) must be pumped
// by the host for callbacks to fire.
func NewSchedulerTimingSource() *SchedulerTimingSource {
	return &SchedulerTimingSource{}
}

func (s *SchedulerTimingSource) Init(callback func()) {
	s.callback = callback
}

// Start arms the timer for intervalNs nanoseconds from now, converting to
// the scheduler's 12MHz tick domain via core.TimerFromUS (sub-microsecond
// remainders are dropped).
func (s *SchedulerTimingSource) Start(intervalNs uint64) error {
	s.generation++
	gen := s.generation
	s.interval = intervalNs

	ticks := core.TimerFromUS(uint32(intervalNs / 1000))
	t := &core.Timer{WakeTime: core.GetTime() + ticks}
	t.Handler = func(*core.Timer) uint8 {
		if gen != s.generation {
			return core.SFDone
		}
		s.interval = 0
		if s.callback != nil {
			s.callback()
		}
		return core.SFDone
	}
	core.ScheduleTimer(t)
	return nil
}

// Stop disarms the timer. Any already-queued firing for the superseded
// generation becomes a no-op when it's eventually dispatched.
func (s *SchedulerTimingSource) Stop() error {
	s.generation++
	s.interval = 0
	return nil
}

func (s *SchedulerTimingSource) Interval() uint64 {
	return s.interval
}
