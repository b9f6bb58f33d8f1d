// Package hw provides concrete motion.HardwareStepper backends: a plain
// step/dir/enable GPIO driver, a PIO-accelerated RP2040/RP2350 backend, an
// optional time-of-flight soft end-stop, and an in-memory simulator for
// tests.
package hw

import (
	"stepramp/core"
	"stepramp/motion"
)

// GPIOStepper drives a step/dir/enable three-pin stepper driver (A4988,
// DRV8825, TMC2209 in legacy-step/dir mode, ...) through core.GPIODriver,
// with a two-stage sample/oversample debounce on its optional end-stop
// input. It has no timer of its own: Step is driven by the motion
// controller's tick, and the end-stop inputs are sampled only when the host
// calls Poll.
type GPIOStepper struct {
	driver core.GPIODriver

	stepPin, dirPin, enablePin core.GPIOPin
	enableActiveLow            bool

	resolution motion.Resolution
	modePins   [3]core.GPIOPin
	haveMode   bool

	cb func(motion.HardwareKind)

	endstops []*debouncedInput
}

// Config describes the pin wiring for a GPIOStepper.
type Config struct {
	StepPin, DirPin, EnablePin core.GPIOPin
	// EnableActiveLow inverts the enable pin's polarity (most step/dir
	// drivers enable on a logic-low ENABLE input).
	EnableActiveLow bool
	// ModePins are the microstep resolution select lines (MS1/MS2/MS3 on
	// an A4988, M0/M1/M2 on a DRV8825), used only when HaveMode is set.
	// Leave HaveMode false to omit ResolutionStepper support.
	ModePins [3]core.GPIOPin
	HaveMode bool
}

// debouncedInput is one endstop/stall sense line, sampled by Poll: a pin
// match starts an oversampling run of sampleCount consecutive matching
// reads before firing, so a single noisy sample can't trigger it.
type debouncedInput struct {
	pin          core.GPIOPin
	expectHigh   bool
	kind         motion.HardwareKind
	sampleCount  uint8
	matchStreak  uint8
	wasTriggered bool
}

// NewGPIOStepper builds a stepper driven through driver using the given pin
// configuration. Driver output pins are configured immediately.
func NewGPIOStepper(driver core.GPIODriver, cfg Config) (*GPIOStepper, error) {
	s := &GPIOStepper{
		driver:          driver,
		stepPin:         cfg.StepPin,
		dirPin:          cfg.DirPin,
		enablePin:       cfg.EnablePin,
		enableActiveLow: cfg.EnableActiveLow,
		modePins:        cfg.ModePins,
		haveMode:        cfg.HaveMode,
		resolution:      motion.Resolution1,
	}
	for _, pin := range []core.GPIOPin{s.stepPin, s.dirPin, s.enablePin} {
		if err := driver.ConfigureOutput(pin); err != nil {
			return nil, err
		}
	}
	if s.haveMode {
		for _, pin := range s.modePins {
			if err := driver.ConfigureOutput(pin); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// AddEndstop wires a debounced digital input to a hardware event kind
// (typically HardwareLeftEndStopDetected, HardwareRightEndStopDetected, or
// HardwareStallDetected for a sensorless-stall GPIO flag). sampleCount
// consecutive matching reads of Poll are required before the event fires.
func (s *GPIOStepper) AddEndstop(pin core.GPIOPin, pullUp bool, expectHigh bool, kind motion.HardwareKind, sampleCount uint8) error {
	if pullUp {
		if err := s.driver.ConfigureInputPullUp(pin); err != nil {
			return err
		}
	} else {
		if err := s.driver.ConfigureInputPullDown(pin); err != nil {
			return err
		}
	}
	if sampleCount == 0 {
		sampleCount = 1
	}
	s.endstops = append(s.endstops, &debouncedInput{
		pin: pin, expectHigh: expectHigh, kind: kind, sampleCount: sampleCount,
	})
	return nil
}

// Poll samples every configured endstop once, firing the callback on the
// sample that completes a debounce streak. The host is responsible for
// calling this periodically (e.g. from a ticker alongside the motion
// timing source) — GPIOStepper has no clock of its own.
func (s *GPIOStepper) Poll() {
	for _, in := range s.endstops {
		matched := s.driver.ReadPin(in.pin) == in.expectHigh
		if !matched {
			in.matchStreak = 0
			in.wasTriggered = false
			continue
		}
		in.matchStreak++
		if in.matchStreak >= in.sampleCount && !in.wasTriggered {
			in.wasTriggered = true
			if s.cb != nil {
				s.cb(in.kind)
			}
		}
	}
}

func (s *GPIOStepper) Enable() error {
	return s.driver.SetPin(s.enablePin, !s.enableActiveLow)
}

func (s *GPIOStepper) Disable() error {
	return s.driver.SetPin(s.enablePin, s.enableActiveLow)
}

// Step drives dirPin then pulses stepPin high then low. The caller (the
// motion controller's tick handler) supplies the pacing; this call itself
// does not sleep and completes in constant time — a real driver's minimum
// pulse width is assumed to be well under the shortest interval the ramp
// will ever schedule.
func (s *GPIOStepper) Step(dir motion.Direction) error {
	if err := s.driver.SetPin(s.dirPin, dir == motion.Positive); err != nil {
		return err
	}
	if err := s.driver.SetPin(s.stepPin, true); err != nil {
		return err
	}
	return s.driver.SetPin(s.stepPin, false)
}

func (s *GPIOStepper) SetEventCallback(cb func(motion.HardwareKind)) {
	s.cb = cb
}

// SetMicroStepResolution drives the mode-select pins for r, implementing
// motion.ResolutionStepper. Returns motion.ErrNotImplemented if this
// GPIOStepper wasn't configured with mode pins.
func (s *GPIOStepper) SetMicroStepResolution(r motion.Resolution) error {
	if !s.haveMode {
		return motion.ErrNotImplemented
	}
	if !r.Valid() {
		return motion.ErrInvalidArgument
	}
	bits := microStepBits(r)
	for i, pin := range s.modePins {
		if err := s.driver.SetPin(pin, bits[i]); err != nil {
			return err
		}
	}
	s.resolution = r
	return nil
}

func (s *GPIOStepper) GetMicroStepResolution() motion.Resolution {
	return s.resolution
}

// microStepBits encodes r as the three mode-select levels of a typical
// A4988/DRV8825 truth table (full step through 1/16; 1/32 and finer are
// driver-specific and left as all-high, matching DRV8825's 1/32 encoding).
func microStepBits(r motion.Resolution) [3]bool {
	switch r {
	case motion.Resolution1:
		return [3]bool{false, false, false}
	case motion.Resolution2:
		return [3]bool{true, false, false}
	case motion.Resolution4:
		return [3]bool{false, true, false}
	case motion.Resolution8:
		return [3]bool{true, true, false}
	case motion.Resolution16:
		return [3]bool{false, false, true}
	default:
		return [3]bool{true, true, true}
	}
}
