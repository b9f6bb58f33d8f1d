package motion

// TrapezoidRamp plans acceleration, cruise, pre-deceleration and
// deceleration phases using the AVR446 integer recurrence (see
// avr446.go). Each phase is tracked by its own countdown field (the
// *Left fields); when the move is too short to ever reach cruise speed,
// the step budget is split between accel and decel in proportion to
// their configured rates rather than favoring one arbitrarily.
type TrapezoidRamp struct {
	profile Profile

	preDecelLeft uint32
	accelLeft    uint32
	runLeft      uint32
	decelLeft    uint32

	rec recurrenceState

	// accelFromRest marks an acceleration curve started at rest whose first
	// step (which waits c0 itself) has not been emitted yet.
	accelFromRest bool

	// lastDecelInterval is the forced interval for the final decel step,
	// c0 computed with the deceleration rate.
	lastDecelInterval uint64
}

// NewTrapezoidRamp builds a trapezoidal ramp at the given profile.
func NewTrapezoidRamp(profile Profile) *TrapezoidRamp {
	return &TrapezoidRamp{profile: profile}
}

// CurrentInterval reports the interval most recently armed, 0 at rest.
func (r *TrapezoidRamp) CurrentInterval() uint64 {
	return r.rec.current
}

// PrepareMove plans phase counters for a move of stepCount steps, covering
// both case A (slow down to target) and case B (speed up to target).
//
// "current_interval == 0" is handled by the speed-up branch (case B) with
// stop_lim = 0, rather than as a third case.
func (r *TrapezoidRamp) PrepareMove(stepCount uint32) (uint32, error) {
	if r.profile.AccelStepsPerSec2 == 0 || r.profile.DecelStepsPerSec2 == 0 {
		return 0, ErrInvalidArgument
	}

	runInterval := r.profile.IntervalNs
	current := r.rec.current
	accelLim := stepsToChangeSpeed(runInterval, r.profile.AccelStepsPerSec2)
	decelLim := stepsToChangeSpeed(runInterval, r.profile.DecelStepsPerSec2)

	lastDecel, err := initialInterval(r.profile.DecelStepsPerSec2)
	if err != nil {
		return 0, err
	}
	r.lastDecelInterval = lastDecel

	if current != 0 && current < runInterval {
		// Case A: currently moving faster than the new target; slow to
		// the target cruise speed before (optionally) cruising and then
		// decelerating to rest.
		stopLim := stepsToChangeSpeed(current, r.profile.DecelStepsPerSec2)
		preDecel := stopLim
		if decelLim < preDecel {
			preDecel -= decelLim
		} else {
			preDecel = 0
		}
		r.preDecelLeft = preDecel
		r.accelLeft = 0
		r.rec.idx = accelLim
		r.decelLeft = decelLim

		used := r.preDecelLeft + r.decelLeft
		if stepCount > used {
			r.runLeft = stepCount - used
		} else {
			r.runLeft = 0
		}
	} else {
		// Case B: at rest, or moving slower than the new target; ramp up
		// to cruise speed.
		var stopLim uint32
		if current != 0 {
			stopLim = stepsToChangeSpeed(current, r.profile.DecelStepsPerSec2)
		}
		var accelLeft uint32
		if accelLim > stopLim {
			accelLeft = accelLim - stopLim
		}

		if accelLeft+decelLim >= stepCount {
			// Not enough room to reach cruise: split the budget
			// proportionally by acceleration/deceleration rate.
			a := uint64(r.profile.AccelStepsPerSec2)
			d := uint64(r.profile.DecelStepsPerSec2)
			decelSplit := uint32(uint64(stepCount) * a / (a + d))
			r.decelLeft = decelSplit
			r.accelLeft = stepCount - decelSplit
			r.runLeft = 0
		} else {
			r.accelLeft = accelLeft
			r.decelLeft = decelLim
			r.runLeft = stepCount - accelLeft - decelLim
		}

		r.preDecelLeft = 0
		r.rec.idx = 0
		r.accelFromRest = current == 0
		if current == 0 {
			c0, err := initialInterval(r.profile.AccelStepsPerSec2)
			if err != nil {
				return 0, err
			}
			r.rec.current = c0
			r.rec.rest = 0
		}
	}

	return r.preDecelLeft + r.accelLeft + r.runLeft + r.decelLeft, nil
}

// PrepareStop reconfigures the ramp to decelerate to rest from
// CurrentInterval() using the configured deceleration rate, clearing every
// other phase counter.
func (r *TrapezoidRamp) PrepareStop() (uint32, error) {
	if r.profile.DecelStepsPerSec2 == 0 {
		return 0, ErrInvalidArgument
	}

	r.preDecelLeft = 0
	r.accelLeft = 0
	r.runLeft = 0

	decelSteps := stepsToChangeSpeed(r.rec.current, r.profile.DecelStepsPerSec2)
	r.decelLeft = decelSteps

	lastDecel, err := initialInterval(r.profile.DecelStepsPerSec2)
	if err != nil {
		return 0, err
	}
	r.lastDecelInterval = lastDecel

	if decelSteps == 0 {
		r.rec.current = 0
	}
	return decelSteps, nil
}

// NextInterval advances the ramp by one step in phase order pre-decel ->
// accel -> run -> decel, returning the interval before that step (0 once
// every phase counter is exhausted).
func (r *TrapezoidRamp) NextInterval() uint64 {
	switch {
	case r.preDecelLeft > 0:
		m := r.preDecelLeft + r.decelLeft
		r.rec.current = r.rec.decelerate(m)
		r.preDecelLeft--
		return r.rec.current

	case r.accelLeft > 0:
		if r.accelFromRest {
			// The first step from rest waits c0; the recurrence takes
			// over from the second step (n = 1).
			r.accelFromRest = false
		} else {
			r.rec.current = r.rec.accelerate()
		}
		r.accelLeft--
		return r.rec.current

	case r.runLeft > 0:
		r.rec.current = r.profile.IntervalNs
		r.runLeft--
		return r.rec.current

	case r.decelLeft > 0:
		r.decelLeft--
		if r.decelLeft == 0 {
			// Force the last decel step to land exactly at rest.
			r.rec.current = r.lastDecelInterval
		} else {
			r.rec.current = r.rec.decelerate(r.decelLeft + 1)
		}
		return r.rec.current

	default:
		r.rec.current = 0
		return 0
	}
}
