package motion

import "testing"

func TestIsqrtExactBounds(t *testing.T) {
	cases := []uint64{0, 1, 2, 3, 4, 1023, 1024, 1025, 1 << 32, 2 * uint64(isqrtK) * uint64(isqrtK)}
	for _, n := range cases {
		r := isqrt(n)
		if r*r > n {
			t.Errorf("isqrt(%d) = %d, but %d*%d > %d", n, r, r, r, n)
		}
		hi := r + 1
		if hi*hi <= n {
			t.Errorf("isqrt(%d) = %d, but (%d+1)^2 <= %d", n, r, r, n)
		}
	}
}

func TestInitialIntervalZeroRate(t *testing.T) {
	if _, err := initialInterval(0); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestInitialIntervalPositive(t *testing.T) {
	c0, err := initialInterval(500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c0 == 0 {
		t.Fatal("expected a positive first interval")
	}
	// Higher acceleration rates must produce a shorter first interval.
	c0Fast, err := initialInterval(2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c0Fast >= c0 {
		t.Errorf("initialInterval(2000) = %d, want < initialInterval(500) = %d", c0Fast, c0)
	}
}

func TestStepsToChangeSpeedAtRest(t *testing.T) {
	if got := stepsToChangeSpeed(0, 500); got != 0 {
		t.Errorf("stepsToChangeSpeed(0, 500) = %d, want 0", got)
	}
	if got := stepsToChangeSpeed(1000, 0); got != 0 {
		t.Errorf("stepsToChangeSpeed(1000, 0) = %d, want 0", got)
	}
}

func TestRecurrenceAccelerateDecreasesInterval(t *testing.T) {
	c0, err := initialInterval(500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := recurrenceState{current: c0}
	prev := c0
	for i := 0; i < 50; i++ {
		next := rec.accelerate()
		if next > prev {
			t.Fatalf("interval increased during acceleration at step %d: %d -> %d", i, prev, next)
		}
		prev = next
	}
}

func TestRecurrenceDecelerateIncreasesInterval(t *testing.T) {
	c0, err := initialInterval(500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := recurrenceState{current: c0 / 4}
	prev := rec.current
	for m := uint32(50); m >= 1; m-- {
		next := rec.decelerate(m)
		if next < prev {
			t.Fatalf("interval decreased during deceleration at m=%d: %d -> %d", m, prev, next)
		}
		prev = next
	}
}
