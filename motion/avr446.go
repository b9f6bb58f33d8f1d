package motion

// avr446.go implements the integer-only AVR446 acceleration recurrence used
// by the trapezoidal ramp. No floating point anywhere: every quantity is a
// 64-bit unsigned integer, and the fractional remainder dropped by integer
// division is carried forward so cumulative timing error stays bounded.
//
// A float64-and-sqrt approximation of the same trapezoidal profile would
// drift under repeated rounding; this recurrence stays in pure integer
// arithmetic instead, the same discipline core/scheduler.go uses for its
// wrap-safe signed-difference comparisons, for a microcontroller target
// that may have no FPU at all.

const (
	// nanosPerSecond converts a steps/s^2 rate combined with a
	// nanosecond interval into the recurrence's fixed-point domain.
	nanosPerSecond = 1_000_000_000

	// isqrtK is chosen so that 2*K*K just fits in 64 bits: the maximum
	// precision isqrt(2*K^2/a) can carry without overflowing a uint64
	// intermediate. K = 3,037,000,499.
	isqrtK = 3_037_000_499
)

// isqrt returns floor(sqrt(n)) for n in [0, 2^64) using the Babylonian
// (Newton's method over integers) iteration. Satisfies
// isqrt(n)^2 <= n < (isqrt(n)+1)^2 for all n.
func isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	// Seed with a rough estimate so the loop converges in a handful of
	// iterations regardless of n's magnitude.
	x := n
	y := x/2 + 1
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	// x now satisfies x == floor(sqrt(n)) or is one below it depending on
	// rounding at the last step; correct either direction. floor(sqrt(n))
	// never exceeds 2^32-1, whose successor's square would overflow.
	for x < 1<<32-1 && (x+1)*(x+1) <= n {
		x++
	}
	for x*x > n {
		x--
	}
	return x
}

// initialInterval computes c0 = f * sqrt(2/a) * 0.676, the first interval
// of the acceleration curve, in fixed point:
//
//	c0 = (1e9 * 676 / 1000) * isqrt(2*K^2/a) / K
//
// Returns an error if rate is 0 (the recurrence is undefined without an
// acceleration rate).
func initialInterval(ratePerSec2 uint32) (uint64, error) {
	if ratePerSec2 == 0 {
		return 0, ErrInvalidArgument
	}
	root := isqrt((2 * uint64(isqrtK) * uint64(isqrtK)) / uint64(ratePerSec2))
	return (nanosPerSecond * 676 / 1000) * root / isqrtK, nil
}

// recurrenceState carries the scratch the AVR446 recurrence needs between
// calls: the step index n, the previous interval, and the carried integer
// division remainder.
type recurrenceState struct {
	idx     uint32 // n in the recurrence
	rest    uint64 // carried remainder r
	current uint64 // c_{n-1}, the previous interval
}

// accelerate applies one forward step of the recurrence:
//
//	c_n = c_{n-1} - (2*c_{n-1} + r) / (4*n + 1)
//
// idx is incremented before the update, so each call computes c_n for
// n = idx+1 (the first call on a fresh state turns c_0 into c_1).
func (s *recurrenceState) accelerate() uint64 {
	s.idx++
	numer := 2*s.current + s.rest
	denom := 4*uint64(s.idx) + 1
	delta := numer / denom
	s.rest = numer % denom
	s.current -= delta
	return s.current
}

// decelerate applies one step of the symmetric deceleration recurrence,
// counting m (stepsRemaining, including the step about to be taken) down:
//
//	c_n = c_{n-1} + (2*c_{n-1} + r) / (4*m)
//
// stepsRemaining must be > 0 (the caller is responsible for special-casing
// the final decel step, which is forced to the target's own c0).
func (s *recurrenceState) decelerate(stepsRemaining uint32) uint64 {
	numer := 2*s.current + s.rest
	denom := 4 * uint64(stepsRemaining)
	delta := numer / denom
	s.rest = numer % denom
	s.current += delta
	return s.current
}

// stepsToChangeSpeed returns the closed-form approximation for the number
// of steps needed to go from interval (ns/step, 0 meaning "at rest") to
// rest (or vice versa, the formula is symmetric) at the given rate
// (steps/s^2): steps = (f/interval)^2 / (2*rate). interval == 0 means
// "already at rest", for which the answer is 0 steps.
func stepsToChangeSpeed(intervalNs uint64, ratePerSec2 uint32) uint32 {
	if intervalNs == 0 || ratePerSec2 == 0 {
		return 0
	}
	freq := nanosPerSecond / intervalNs // steps/s implied by this interval
	steps := (freq * freq) / (2 * uint64(ratePerSec2))
	return uint32(steps)
}
