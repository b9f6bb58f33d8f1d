package hw

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"stepramp/core"
	"stepramp/motion"
)

// mockGPIODriver is an in-memory pin map good enough to exercise
// GPIOStepper without real hardware.
type mockGPIODriver struct {
	pins map[core.GPIOPin]bool
}

func newMockGPIODriver() *mockGPIODriver {
	return &mockGPIODriver{pins: make(map[core.GPIOPin]bool)}
}

func (m *mockGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	m.pins[pin] = false
	return nil
}

func (m *mockGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	m.pins[pin] = false
	return nil
}

func (m *mockGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	m.pins[pin] = false
	return nil
}

func (m *mockGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	m.pins[pin] = value
	return nil
}

func (m *mockGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return m.pins[pin], nil
}

func (m *mockGPIODriver) ReadPin(pin core.GPIOPin) bool {
	return m.pins[pin]
}

const (
	stepPin   core.GPIOPin = 10
	dirPin    core.GPIOPin = 11
	enablePin core.GPIOPin = 12
	endPin    core.GPIOPin = 13
)

func TestGPIOStepperStepPulsesAndSetsDirection(t *testing.T) {
	c := qt.New(t)
	driver := newMockGPIODriver()
	s, err := NewGPIOStepper(driver, Config{StepPin: stepPin, DirPin: dirPin, EnablePin: enablePin})
	c.Assert(err, qt.IsNil)

	c.Assert(s.Step(motion.Negative), qt.IsNil)
	dirVal, _ := driver.GetPin(dirPin)
	c.Assert(dirVal, qt.IsFalse)
	stepVal, _ := driver.GetPin(stepPin)
	c.Assert(stepVal, qt.IsFalse, qt.Commentf("step pin must end low after the pulse"))

	c.Assert(s.Step(motion.Positive), qt.IsNil)
	dirVal, _ = driver.GetPin(dirPin)
	c.Assert(dirVal, qt.IsTrue)
}

func TestGPIOStepperEnableDisableRespectsPolarity(t *testing.T) {
	c := qt.New(t)
	driver := newMockGPIODriver()
	s, err := NewGPIOStepper(driver, Config{StepPin: stepPin, DirPin: dirPin, EnablePin: enablePin, EnableActiveLow: true})
	c.Assert(err, qt.IsNil)

	c.Assert(s.Enable(), qt.IsNil)
	v, _ := driver.GetPin(enablePin)
	c.Assert(v, qt.IsFalse, qt.Commentf("active-low enable should drive the pin low"))

	c.Assert(s.Disable(), qt.IsNil)
	v, _ = driver.GetPin(enablePin)
	c.Assert(v, qt.IsTrue)
}

func TestGPIOStepperEndstopDebounce(t *testing.T) {
	c := qt.New(t)
	driver := newMockGPIODriver()
	s, err := NewGPIOStepper(driver, Config{StepPin: stepPin, DirPin: dirPin, EnablePin: enablePin})
	c.Assert(err, qt.IsNil)

	var fired []motion.HardwareKind
	s.SetEventCallback(func(k motion.HardwareKind) { fired = append(fired, k) })

	err = s.AddEndstop(endPin, true, true, motion.HardwareLeftEndStopDetected, 3)
	c.Assert(err, qt.IsNil)

	s.Poll() // pin still low (default), no match
	c.Assert(fired, qt.HasLen, 0)

	driver.SetPin(endPin, true)
	s.Poll() // match 1
	s.Poll() // match 2
	c.Assert(fired, qt.HasLen, 0, qt.Commentf("debounce must require 3 consecutive samples"))
	s.Poll() // match 3: fires
	c.Assert(fired, qt.HasLen, 1)
	c.Assert(fired[0], qt.Equals, motion.HardwareLeftEndStopDetected)

	s.Poll() // already triggered; edge-triggered, should not re-fire
	c.Assert(fired, qt.HasLen, 1)
}

func TestGPIOStepperResolutionRequiresModePins(t *testing.T) {
	c := qt.New(t)
	driver := newMockGPIODriver()
	s, err := NewGPIOStepper(driver, Config{StepPin: stepPin, DirPin: dirPin, EnablePin: enablePin})
	c.Assert(err, qt.IsNil)

	err = s.SetMicroStepResolution(motion.Resolution16)
	c.Assert(err, qt.Equals, motion.ErrNotImplemented)
}

func TestGPIOStepperResolutionWithModePins(t *testing.T) {
	c := qt.New(t)
	driver := newMockGPIODriver()
	cfg := Config{
		StepPin: stepPin, DirPin: dirPin, EnablePin: enablePin,
		ModePins: [3]core.GPIOPin{20, 21, 22}, HaveMode: true,
	}
	s, err := NewGPIOStepper(driver, cfg)
	c.Assert(err, qt.IsNil)

	c.Assert(s.SetMicroStepResolution(motion.Resolution8), qt.IsNil)
	c.Assert(s.GetMicroStepResolution(), qt.Equals, motion.Resolution8)

	err = s.SetMicroStepResolution(motion.Resolution(3))
	c.Assert(err, qt.Equals, motion.ErrInvalidArgument)
}
