// Package motion implements the motion-control state machine and its
// pluggable ramp generators described in the stepper-motor specification:
// a controller that sequences acceleration, cruise, pre-deceleration and
// deceleration phases, computing the inter-step interval for each pulse
// with an integer-only AVR446-style recurrence.
package motion

// Ramp is the pluggable velocity-profile generator the controller drives on
// every tick. All three operations are pure functions over the ramp's own
// state: no I/O, no timing, called with the controller's lock already held.
//
// This replaces the "struct-with-function-pointers-as-first-field, downcast
// by pointer arithmetic" pattern of a C stepper_ramp_base/stepper_ramp_
// trapezoidal alias: here every concrete ramp is a plain struct implementing
// this narrow interface, held by the controller as an ordinary interface
// value.
type Ramp interface {
	// PrepareMove initializes internal phase counters for a new move of
	// stepCount steps (always >= 0; direction is the controller's
	// concern, not the ramp's). Returns the number of steps the ramp will
	// actually emit, which equals stepCount for well-posed input.
	PrepareMove(stepCount uint32) (totalStepsPlanned uint32, err error)

	// PrepareStop reconfigures the ramp to bring motion to rest from
	// CurrentInterval() using the configured deceleration. Returns how
	// many more steps will be emitted before rest; 0 means the stop is
	// immediate. Must zero every non-deceleration phase counter.
	PrepareStop() (decelSteps uint32, err error)

	// NextInterval advances the ramp by one step and returns the interval
	// to wait before that step. Returning 0 means the move is done: no
	// more steps. Each successful (non-zero-returning) call decrements
	// exactly one phase counter, chosen by phase order: pre-decel ->
	// accel -> run -> decel.
	NextInterval() (intervalNs uint64)

	// CurrentInterval reports the inter-step interval, in nanoseconds,
	// that the most recent PrepareMove or NextInterval call armed (0 if the
	// ramp has never been armed or has come to rest). Consumed by PrepareStop and
	// by Case A/B of the trapezoidal ramp's PrepareMove to decide whether
	// the controller is speeding up or slowing down to a new target.
	CurrentInterval() uint64
}

// Profile carries the target-speed and acceleration parameters a ramp is
// configured with. ConstantRamp only reads IntervalNs; TrapezoidRamp reads
// all three.
type Profile struct {
	// IntervalNs is the nanoseconds-per-step interval at cruise speed.
	IntervalNs uint64
	// AccelStepsPerSec2 is the acceleration rate, steps/s^2. Trapezoid only.
	AccelStepsPerSec2 uint32
	// DecelStepsPerSec2 is the deceleration rate, steps/s^2. Trapezoid only.
	DecelStepsPerSec2 uint32
}
