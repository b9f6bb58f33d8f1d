// Package config loads YAML-described ramp and hardware profiles for a
// single motion.Controller axis.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"stepramp/motion"
)

// Profile describes one controlled axis: which ramp to build and the
// step/dir/enable wiring a cmd/steprampctl-style host uses to construct the
// corresponding hw backend. Parsed into a plain struct, then defaults are
// filled in, rather than a multi-axis Cartesian machine config (many axes,
// kinematics, heaters) — this is a single axis, described in YAML.
type Profile struct {
	Name string `yaml:"name"`

	RampKind string `yaml:"ramp"` // "constant" or "trapezoid"

	IntervalNs        uint64 `yaml:"interval_ns"`
	AccelStepsPerSec2 uint32 `yaml:"accel_steps_per_sec2"`
	DecelStepsPerSec2 uint32 `yaml:"decel_steps_per_sec2"`

	Hardware HardwareProfile `yaml:"hardware"`
}

// HardwareProfile names the GPIO pins a hw.GPIOStepper needs. Pin numbers
// are left as plain integers (platform-specific pin identifiers are a
// target concern, not a config-format one).
type HardwareProfile struct {
	StepPin   uint32 `yaml:"step_pin"`
	DirPin    uint32 `yaml:"dir_pin"`
	EnablePin uint32 `yaml:"enable_pin"`

	EnableActiveLow bool `yaml:"enable_active_low"`

	Resolution uint16 `yaml:"resolution"`
}

// Load parses YAML profile data and fills in defaults for anything the
// caller left zero.
func Load(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parse profile: %w", err)
	}
	applyDefaults(&p)
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func applyDefaults(p *Profile) {
	if p.RampKind == "" {
		p.RampKind = "trapezoid"
	}
	if p.IntervalNs == 0 {
		p.IntervalNs = 1_000_000 // 1kHz cruise
	}
	if p.RampKind == "trapezoid" {
		if p.AccelStepsPerSec2 == 0 {
			p.AccelStepsPerSec2 = 1000
		}
		if p.DecelStepsPerSec2 == 0 {
			p.DecelStepsPerSec2 = 1000
		}
	}
	if p.Hardware.Resolution == 0 {
		p.Hardware.Resolution = 1
	}
}

func (p *Profile) validate() error {
	switch p.RampKind {
	case "constant", "trapezoid":
	default:
		return fmt.Errorf("config: unknown ramp kind %q", p.RampKind)
	}
	if !motion.Resolution(p.Hardware.Resolution).Valid() {
		return fmt.Errorf("config: invalid micro-step resolution %d", p.Hardware.Resolution)
	}
	return nil
}

// BuildRamp constructs the motion.Ramp the profile describes.
func (p *Profile) BuildRamp() motion.Ramp {
	profile := motion.Profile{
		IntervalNs:        p.IntervalNs,
		AccelStepsPerSec2: p.AccelStepsPerSec2,
		DecelStepsPerSec2: p.DecelStepsPerSec2,
	}
	if p.RampKind == "constant" {
		return motion.NewConstantRamp(profile)
	}
	return motion.NewTrapezoidRamp(profile)
}
