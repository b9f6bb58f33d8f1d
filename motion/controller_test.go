package motion

import "testing"

// recordingHW is a no-op HardwareStepper that counts steps by direction,
// for controller tests that don't need a real backend.
type recordingHW struct {
	steps   int
	lastDir Direction
	enabled bool
	cb      func(HardwareKind)
	stepErr error
}

func (h *recordingHW) Enable() error {
	h.enabled = true
	return nil
}

func (h *recordingHW) Disable() error {
	h.enabled = false
	return nil
}

func (h *recordingHW) Step(dir Direction) error {
	h.steps++
	h.lastDir = dir
	return h.stepErr
}

func (h *recordingHW) SetEventCallback(cb func(HardwareKind)) {
	h.cb = cb
}

func newTestController() (*Controller, *SimClock, *recordingHW) {
	clock := NewSimClock()
	hw := &recordingHW{}
	c := NewController(clock, hw)
	return c, clock, hw
}

func TestControllerConstantRampExactSteps(t *testing.T) {
	c, clock, hw := newTestController()
	c.SetRamp(NewConstantRamp(Profile{IntervalNs: 1_000_000}))

	var events []Event
	c.SetEventCallback(func(e Event) { events = append(events, e) })

	if err := c.MoveBy(10); err != nil {
		t.Fatalf("MoveBy: %v", err)
	}

	fired := clock.AdvanceN(20)
	if fired != 10 {
		t.Fatalf("clock fired %d times, want 10", fired)
	}
	if hw.steps != 10 {
		t.Fatalf("hardware saw %d steps, want 10", hw.steps)
	}
	if got := c.GetPosition(); got != 10 {
		t.Fatalf("final position = %d, want 10", got)
	}
	if c.IsMoving() {
		t.Fatal("expected controller to be at rest")
	}
	if len(events) != 1 || events[0].Kind != EventStepsCompleted {
		t.Fatalf("events = %v, want single STEPS_COMPLETED", events)
	}
}

func TestControllerMoveByZeroCompletesImmediately(t *testing.T) {
	c, _, hw := newTestController()
	c.SetRamp(NewConstantRamp(Profile{IntervalNs: 1_000_000}))

	var events []Event
	c.SetEventCallback(func(e Event) { events = append(events, e) })

	if err := c.MoveBy(0); err != nil {
		t.Fatalf("MoveBy(0): %v", err)
	}
	if hw.steps != 0 {
		t.Fatalf("hardware saw %d steps, want 0", hw.steps)
	}
	if len(events) != 1 || events[0].Kind != EventStepsCompleted {
		t.Fatalf("events = %v, want single STEPS_COMPLETED", events)
	}
}

func TestControllerMoveByWithoutRampFails(t *testing.T) {
	c, _, _ := newTestController()
	if err := c.MoveBy(10); err != ErrNoRamp {
		t.Fatalf("MoveBy without a bound ramp: got %v, want ErrNoRamp", err)
	}
}

func TestControllerMoveToIsRelativeToPosition(t *testing.T) {
	c, clock, _ := newTestController()
	c.SetRamp(NewConstantRamp(Profile{IntervalNs: 1_000_000}))
	c.SetPosition(5)

	if err := c.MoveTo(15); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	clock.AdvanceN(20)
	if got := c.GetPosition(); got != 15 {
		t.Fatalf("final position = %d, want 15", got)
	}
}

func TestControllerReversalDuringCruise(t *testing.T) {
	c, clock, hw := newTestController()
	c.SetRamp(NewTrapezoidRamp(Profile{IntervalNs: 500_000, AccelStepsPerSec2: 10000, DecelStepsPerSec2: 10000}))

	var events []Event
	c.SetEventCallback(func(e Event) { events = append(events, e) })

	if err := c.MoveBy(1000); err != nil {
		t.Fatalf("MoveBy: %v", err)
	}
	// Run well into cruise.
	clock.AdvanceN(300)

	if err := c.MoveBy(-1000); err != nil {
		t.Fatalf("MoveBy (reversal): %v", err)
	}
	if c.State() != StateReversing {
		t.Fatalf("state after opposite-direction MoveBy = %v, want reversing", c.State())
	}

	clock.AdvanceN(4096)

	if c.IsMoving() {
		t.Fatal("expected motion to complete")
	}
	if hw.steps == 0 {
		t.Fatal("expected steps to have been emitted")
	}
	foundCompleted := false
	for _, e := range events {
		if e.Kind == EventStepsCompleted {
			foundCompleted = true
		}
	}
	if !foundCompleted {
		t.Fatalf("events = %v, want a STEPS_COMPLETED at the end of the reversed move", events)
	}
}

func TestControllerStopDuringAcceleration(t *testing.T) {
	c, clock, _ := newTestController()
	c.SetRamp(NewTrapezoidRamp(Profile{IntervalNs: 500_000, AccelStepsPerSec2: 500, DecelStepsPerSec2: 500}))

	var events []Event
	c.SetEventCallback(func(e Event) { events = append(events, e) })

	if err := c.Run(Positive); err != nil {
		t.Fatalf("Run: %v", err)
	}
	clock.AdvanceN(50)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.State() != StateDecelerating && c.State() != StateIdle {
		t.Fatalf("state after Stop = %v, want decelerating or idle", c.State())
	}

	clock.AdvanceN(4096)

	if c.IsMoving() {
		t.Fatal("expected motion to have stopped")
	}
	if len(events) == 0 || events[len(events)-1].Kind != EventStopped {
		t.Fatalf("events = %v, want a trailing STOPPED", events)
	}
}

func TestControllerInfiniteRunDisable(t *testing.T) {
	c, clock, _ := newTestController()
	c.SetRamp(NewConstantRamp(Profile{IntervalNs: 1_000_000}))

	if err := c.Run(Positive); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.State() != StateRunningInfinite {
		t.Fatalf("state = %v, want running_infinite", c.State())
	}

	fired := clock.AdvanceN(40)
	if fired != 40 {
		t.Fatalf("clock fired %d times, want 40 (infinite run must not self-terminate)", fired)
	}
	if got := c.GetPosition(); got != 40 {
		t.Fatalf("position = %d, want 40", got)
	}

	if err := c.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if c.IsMoving() {
		t.Fatal("expected Disable to clear the plan")
	}
	if got := c.GetPosition(); got != 40 {
		t.Fatalf("position after Disable = %d, want unchanged at 40", got)
	}
	if c.State() != StateIdle {
		t.Fatalf("state after Disable = %v, want idle", c.State())
	}
}

func TestControllerHardwareEventsForwarded(t *testing.T) {
	c, _, hw := newTestController()

	var events []Event
	c.SetEventCallback(func(e Event) { events = append(events, e) })

	hw.cb(HardwareStallDetected)

	if len(events) != 1 || events[0].Kind != EventHardware || events[0].Hardware != HardwareStallDetected {
		t.Fatalf("events = %v, want a single forwarded STALL_DETECTED", events)
	}
}

func TestControllerRoundTripMoveByAndBack(t *testing.T) {
	c, clock, _ := newTestController()
	c.SetRamp(NewConstantRamp(Profile{IntervalNs: 1_000_000}))

	if err := c.MoveBy(25); err != nil {
		t.Fatalf("MoveBy: %v", err)
	}
	clock.AdvanceN(100)

	if err := c.MoveBy(-25); err != nil {
		t.Fatalf("MoveBy: %v", err)
	}
	clock.AdvanceN(100)

	if got := c.GetPosition(); got != 0 {
		t.Fatalf("position after round trip = %d, want 0", got)
	}
}
