package hw

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"stepramp/motion"
)

func TestSimStepperCountsSteps(t *testing.T) {
	c := qt.New(t)
	s := NewSimStepper()

	c.Assert(s.Enable(), qt.IsNil)
	c.Assert(s.Enabled, qt.IsTrue)

	c.Assert(s.Step(motion.Positive), qt.IsNil)
	c.Assert(s.Step(motion.Positive), qt.IsNil)
	c.Assert(s.Step(motion.Negative), qt.IsNil)

	c.Assert(s.Steps, qt.Equals, 3)
	c.Assert(s.LastDir, qt.Equals, motion.Negative)
}

func TestSimStepperStepErrorDoesNotCountStep(t *testing.T) {
	c := qt.New(t)
	s := NewSimStepper()
	s.StepErr = errors.New("jam")

	err := s.Step(motion.Positive)
	c.Assert(err, qt.Equals, s.StepErr)
	c.Assert(s.Steps, qt.Equals, 0)
}

func TestSimStepperFiresSubscribedCallback(t *testing.T) {
	c := qt.New(t)
	s := NewSimStepper()

	var got motion.HardwareKind
	var fired bool
	s.SetEventCallback(func(k motion.HardwareKind) {
		got = k
		fired = true
	})

	s.Fire(motion.HardwareStallDetected)
	c.Assert(fired, qt.IsTrue)
	c.Assert(got, qt.Equals, motion.HardwareStallDetected)
}

func TestSimStepperDisableClearsEnabled(t *testing.T) {
	c := qt.New(t)
	s := NewSimStepper()
	s.Enable()
	c.Assert(s.Disable(), qt.IsNil)
	c.Assert(s.Enabled, qt.IsFalse)
}
