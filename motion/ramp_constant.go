package motion

// ConstantRamp ignores acceleration/deceleration entirely: every step takes
// Profile.IntervalNs, a single fixed interval counted down to zero steps
// remaining, with no speed curve and no GPIO ownership of its own — it
// only ever speaks through the Ramp interface.
type ConstantRamp struct {
	profile   Profile
	stepsLeft uint32
	current   uint64
}

// NewConstantRamp builds a constant-velocity ramp at the given profile.
// Only profile.IntervalNs is consulted.
func NewConstantRamp(profile Profile) *ConstantRamp {
	return &ConstantRamp{profile: profile}
}

// PrepareMove sets steps_left = n and arms current_interval =
// profile.interval_ns.
func (r *ConstantRamp) PrepareMove(stepCount uint32) (uint32, error) {
	r.stepsLeft = stepCount
	if stepCount > 0 {
		r.current = r.profile.IntervalNs
	} else {
		r.current = 0
	}
	return stepCount, nil
}

// PrepareStop sets steps_left = 0 and returns 0: immediate stop, no
// deceleration ramp for the constant-velocity profile.
func (r *ConstantRamp) PrepareStop() (uint32, error) {
	r.stepsLeft = 0
	r.current = 0
	return 0, nil
}

// NextInterval returns interval_ns while steps remain, decrementing the
// counter; returns 0 once exhausted.
func (r *ConstantRamp) NextInterval() uint64 {
	if r.stepsLeft == 0 {
		r.current = 0
		return 0
	}
	r.stepsLeft--
	r.current = r.profile.IntervalNs
	return r.current
}

// CurrentInterval reports the interval armed by the most recent PrepareMove
// or NextInterval call (0 once the ramp is at rest).
func (r *ConstantRamp) CurrentInterval() uint64 {
	return r.current
}
