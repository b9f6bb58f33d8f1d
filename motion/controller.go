package motion

import (
	"sync"

	"stepramp/core"
)

// runForever is the step budget handed to the ramp for an infinite run: the
// ramp interface only understands finite step counts, with no "infinite"
// notion at the ramp layer, so Run plans a cruise phase this long instead.
// At any realistic step rate this vastly outlasts any test or real use of
// the controller.
const runForever uint32 = ^uint32(0)

// Controller owns position, direction, target and the currently bound ramp,
// orchestrating the timing source and ramp generator: on each tick it
// commands the hardware stepper to emit one micro-step, updates position,
// and asks the ramp for the next interval, rearming the timer until the
// move completes.
//
// Each tick steps, asks the ramp for the next interval, then rearms —
// single instance per axis, guarded by a lock. There's no queue of
// pre-baked move segments: just one ramp bound at a time and a
// relative-target counter.
type Controller struct {
	mu sync.Mutex

	position int32 // read via GetPosition
	moving   bool  // mirrors relTarget != 0, read via IsMoving

	direction Direction
	relTarget int32

	// pendingTarget and reversing hold the full signed new move requested
	// mid-motion. relTarget itself must keep serving as a literal
	// per-tick down counter during the deceleration that precedes a
	// reversal, so the pending move is stashed here instead of
	// overloading relTarget with two meanings at once.
	pendingTarget int32
	reversing     bool

	state State
	ramp  Ramp

	timing TimingSource
	hw     HardwareStepper

	callback EventCallback

	// tickSeq is a logical clock for the post-mortem timing ring in
	// core/debug.go: it has no relation to wall time, it just orders
	// events within a single controller's history.
	tickSeq uint32
}

// NewController binds a timing source and hardware stepper at construction,
// sets the default direction to Positive, and subscribes to the hardware
// stepper's events so they're forwarded verbatim to the controller's own
// subscriber. hw may be nil for ramp-only testing.
func NewController(timing TimingSource, hw HardwareStepper) *Controller {
	c := &Controller{direction: Positive, timing: timing, hw: hw}
	timing.Init(c.tick)
	if hw != nil {
		hw.SetEventCallback(c.onHardwareEvent)
	}
	return c
}

func (c *Controller) onHardwareEvent(kind HardwareKind) {
	c.emit(Event{Kind: EventHardware, Hardware: kind})
}

func (c *Controller) emit(e Event) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(e)
	}
}

// SetEventCallback subscribes to motion and forwarded hardware events,
// replacing any previous subscriber.
func (c *Controller) SetEventCallback(cb EventCallback) {
	c.mu.Lock()
	c.callback = cb
	c.mu.Unlock()
}

// SetPosition replaces the position counter with no motion side effect.
func (c *Controller) SetPosition(p int32) {
	c.mu.Lock()
	c.position = p
	c.mu.Unlock()
}

// GetPosition reads the current position. This may race a concurrent tick
// by at most one step; callers must tolerate a stale-by-one-tick value.
func (c *Controller) GetPosition() int32 {
	c.mu.Lock()
	p := c.position
	c.mu.Unlock()
	return p
}

// IsMoving reports whether the relative target is non-zero, tolerating the
// same staleness as GetPosition.
func (c *Controller) IsMoving() bool {
	c.mu.Lock()
	m := c.moving
	c.mu.Unlock()
	return m
}

// State reports the coarse motion state, for diagnostics.
func (c *Controller) State() State {
	c.mu.Lock()
	s := c.state
	c.mu.Unlock()
	return s
}

// SetRamp binds the ramp used by subsequent moves.
func (c *Controller) SetRamp(r Ramp) {
	c.mu.Lock()
	c.ramp = r
	c.mu.Unlock()
}

// MoveBy plans a finite relative move of |n| steps in sign(n) direction.
func (c *Controller) MoveBy(n int32) error {
	c.mu.Lock()

	if c.ramp == nil {
		c.mu.Unlock()
		return ErrNoRamp
	}

	if n == 0 {
		c.mu.Unlock()
		c.emit(Event{Kind: EventStepsCompleted})
		return nil
	}

	dir := Positive
	if n < 0 {
		dir = Negative
	}
	mag := magnitude(n)

	if c.relTarget != 0 && dir != c.direction {
		// Opposite-direction request while moving: decelerate to rest
		// first, stash the full new target, and resume in the new
		// direction once the tick handler observes rest.
		decelSteps, err := c.ramp.PrepareStop()
		if err != nil {
			c.mu.Unlock()
			return err
		}
		if decelSteps == 0 {
			// Already slow enough that no deceleration is needed: no
			// further tick will fire to pick up the reversal, so apply
			// it synchronously instead of stashing it for later.
			ev := c.applyQueuedMoveLocked(n)
			c.mu.Unlock()
			if ev != nil {
				c.emit(*ev)
			}
			return nil
		}
		c.pendingTarget = n
		c.reversing = true
		c.state = StateReversing
		c.relTarget = signedSteps(c.direction, decelSteps)
		c.moving = c.relTarget != 0
		c.rearmLocked()
		c.mu.Unlock()
		return nil
	}

	// Same direction (or currently idle): replace any in-progress plan.
	ev, err := c.startMoveLocked(dir, mag)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if ev != nil {
		c.emit(*ev)
	}
	return nil
}

// MoveTo is equivalent to MoveBy(target - position).
func (c *Controller) MoveTo(target int32) error {
	return c.MoveBy(target - c.GetPosition())
}

// Run starts an infinite move: relative target becomes the sentinel for
// dir and is never decremented per step.
func (c *Controller) Run(dir Direction) error {
	c.mu.Lock()

	if c.ramp == nil {
		c.mu.Unlock()
		return ErrNoRamp
	}

	if c.relTarget != 0 && dir != c.direction {
		decelSteps, err := c.ramp.PrepareStop()
		if err != nil {
			c.mu.Unlock()
			return err
		}
		if decelSteps == 0 {
			ev := c.applyQueuedMoveLocked(sentinelFor(dir))
			c.mu.Unlock()
			if ev != nil {
				c.emit(*ev)
			}
			return nil
		}
		c.pendingTarget = sentinelFor(dir)
		c.reversing = true
		c.state = StateReversing
		c.relTarget = signedSteps(c.direction, decelSteps)
		c.moving = c.relTarget != 0
		c.rearmLocked()
		c.mu.Unlock()
		return nil
	}

	total, err := c.ramp.PrepareMove(runForever)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.direction = dir
	c.reversing = false
	c.pendingTarget = 0
	if total == 0 {
		c.relTarget = 0
		c.moving = false
		c.state = StateIdle
		c.mu.Unlock()
		c.emit(Event{Kind: EventStepsCompleted})
		return nil
	}
	c.relTarget = sentinelFor(dir)
	c.moving = true
	c.state = StateRunningInfinite
	c.rearmLocked()
	c.mu.Unlock()
	return nil
}

// Stop asks the ramp for a decelerated stop and returns immediately;
// completion is reported by a STOPPED event, which arrives from a later tick,
// or before Stop returns when the ramp needs no deceleration steps.
func (c *Controller) Stop() error {
	c.mu.Lock()

	if c.ramp == nil || c.relTarget == 0 {
		c.mu.Unlock()
		return nil
	}

	decelSteps, err := c.ramp.PrepareStop()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.pendingTarget = 0
	c.reversing = false
	c.relTarget = signedSteps(c.direction, decelSteps)
	c.moving = c.relTarget != 0

	if c.relTarget == 0 {
		c.state = StateIdle
		c.rearmLocked()
		c.mu.Unlock()
		c.emit(Event{Kind: EventStopped})
		return nil
	}

	c.state = StateDecelerating
	c.rearmLocked()
	c.mu.Unlock()
	return nil
}

// Enable energizes the hardware stepper.
func (c *Controller) Enable() error {
	if c.hw == nil {
		return nil
	}
	return c.hw.Enable()
}

// Disable cancels any in-flight motion and de-energizes the hardware
// stepper. This may leave position out of sync with physical reality; the
// controller simply clears its plan.
func (c *Controller) Disable() error {
	c.mu.Lock()
	c.timing.Stop()
	c.relTarget = 0
	c.moving = false
	c.pendingTarget = 0
	c.reversing = false
	c.state = StateIdle
	hw := c.hw
	c.mu.Unlock()

	if hw == nil {
		return nil
	}
	return hw.Disable()
}

// startMoveLocked calls PrepareMove(mag), adopts dir, and arms the timer.
// Must be called with c.mu held; returns an event to emit after unlocking
// (nil if none) and any ramp error (in which case state is left
// unchanged).
func (c *Controller) startMoveLocked(dir Direction, mag uint32) (*Event, error) {
	total, err := c.ramp.PrepareMove(mag)
	if err != nil {
		return nil, err
	}
	c.direction = dir
	c.reversing = false
	c.pendingTarget = 0
	if total == 0 {
		c.relTarget = 0
		c.moving = false
		c.state = StateIdle
		return &Event{Kind: EventStepsCompleted}, nil
	}
	c.relTarget = signedSteps(dir, total)
	c.moving = true
	c.state = StateRunningFinite
	c.rearmLocked()
	return nil, nil
}

// applyQueuedMoveLocked starts a move queued by MoveBy/Run once any
// preceding deceleration is out of the way, whether that took several
// ticks or none at all because PrepareStop needed zero decel steps. Must
// be called with c.mu held. Returns an event to emit after unlocking, or
// nil.
func (c *Controller) applyQueuedMoveLocked(newTarget int32) *Event {
	dir := Positive
	if newTarget < 0 {
		dir = Negative
	}
	mag := magnitude(newTarget)
	c.reversing = false
	c.pendingTarget = 0

	total, err := c.ramp.PrepareMove(mag)
	if err != nil {
		// Ramp refused the queued plan: leave position as-is and go
		// idle rather than get stuck.
		c.relTarget = 0
		c.moving = false
		c.state = StateIdle
		return &Event{Kind: EventStepsCompleted}
	}
	c.tickSeq++
	core.RecordTiming(core.EvtMoveLoaded, 0, c.tickSeq, mag, uint32(total))
	c.direction = dir
	if total == 0 {
		c.relTarget = 0
		c.moving = false
		c.state = StateIdle
		return &Event{Kind: EventStepsCompleted}
	}
	c.relTarget = signedSteps(dir, total)
	c.moving = true
	if c.relTarget == infinitePositive || c.relTarget == infiniteNegative {
		c.state = StateRunningInfinite
	} else {
		c.state = StateRunningFinite
	}
	c.rearmLocked()
	return nil
}

// rearmLocked stops any pending deadline, fetches the ramp's next interval,
// and starts the timer if it's positive. Must be called with c.mu held.
func (c *Controller) rearmLocked() {
	c.timing.Stop()
	next := c.ramp.NextInterval()
	c.tickSeq++
	core.RecordTiming(core.EvtTickScheduled, 0, c.tickSeq, uint32(next), uint32(c.relTarget))
	if next > 0 {
		c.timing.Start(next)
	}
}

// tick is invoked by the timing source, once per scheduled step.
func (c *Controller) tick() {
	c.mu.Lock()

	if c.hw != nil {
		if err := c.hw.Step(c.direction); err != nil {
			// Logged and ignored: step failures do not abort the move.
			// Position accounting continues, reflecting intended motion.
			logTickStepError(err)
		} else {
			core.IncrementStepCount()
		}
	}

	if c.relTarget != infinitePositive && c.relTarget != infiniteNegative {
		c.relTarget -= int32(c.direction)
	}
	c.position += int32(c.direction)
	c.moving = c.relTarget != 0

	c.tickSeq++
	next := c.ramp.NextInterval()
	core.RecordTiming(core.EvtTickFired, 0, c.tickSeq, uint32(next), uint32(c.position))
	if next > 0 {
		c.timing.Start(next)
		c.mu.Unlock()
		return
	}
	c.timing.Stop()

	var ev *Event
	switch {
	case c.reversing || c.relTarget != 0:
		// A pending same-direction or reversed move was queued by
		// MoveBy/Run during an active opposite-direction move.
		newTarget := c.relTarget
		if c.reversing {
			newTarget = c.pendingTarget
		}
		ev = c.applyQueuedMoveLocked(newTarget)

	case c.state == StateDecelerating:
		c.state = StateIdle
		ev = &Event{Kind: EventStopped}

	default:
		c.state = StateIdle
		ev = &Event{Kind: EventStepsCompleted}
	}

	c.mu.Unlock()
	if ev != nil {
		c.emit(*ev)
	}
}

func magnitude(n int32) uint32 {
	if n < 0 {
		return uint32(-n)
	}
	return uint32(n)
}

// signedSteps applies dir's sign to a magnitude, clamping to the sentinel
// values rather than overflowing if steps somehow reaches 1<<31.
func signedSteps(dir Direction, steps uint32) int32 {
	if steps >= uint32(infinitePositive) {
		return sentinelFor(dir)
	}
	if dir == Negative {
		return -int32(steps)
	}
	return int32(steps)
}

func sentinelFor(dir Direction) int32 {
	if dir == Negative {
		return infiniteNegative
	}
	return infinitePositive
}
