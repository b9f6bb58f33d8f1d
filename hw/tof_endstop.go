package hw

import (
	"stepramp/motion"

	"tinygo.org/x/drivers/vl53l1x"
)

// tofDevice is the subset of *vl53l1x.Device used here, narrowed to an
// interface so tests can supply a fake reading without real I2C hardware.
type tofDevice interface {
	Configure(use2v8Mode bool)
	SetMeasurementTimingBudget(us uint32)
	Read(blocking bool) uint16
}

// ToFEndStop is a non-contact soft end-stop: it treats "target at or closer
// than the threshold distance" as a triggered end-stop, reported through the same
// HardwareKind event path a mechanical switch would use. Poll is a plain
// method call rather than a framed wire-protocol exchange, since nothing
// here needs to cross a process boundary.
type ToFEndStop struct {
	sensor      tofDevice
	kind        motion.HardwareKind
	thresholdMM uint16
	cb          func(motion.HardwareKind)
	triggered   bool
}

// NewToFEndStop configures sensor (already bound to an I2C bus by the
// caller) and returns a ToFEndStop that fires kind once the measured
// distance drops at or below thresholdMM.
func NewToFEndStop(sensor *vl53l1x.Device, thresholdMM uint16, kind motion.HardwareKind) *ToFEndStop {
	sensor.Configure(true)
	sensor.SetMeasurementTimingBudget(50000)
	return &ToFEndStop{sensor: sensor, thresholdMM: thresholdMM, kind: kind}
}

func (e *ToFEndStop) SetEventCallback(cb func(motion.HardwareKind)) {
	e.cb = cb
}

// Poll performs one blocking distance read and fires the configured
// HardwareKind on the sample where distance first drops at or below the
// threshold (edge-triggered, not level-triggered: moving back out of range
// rearms it).
func (e *ToFEndStop) Poll() {
	distance := e.sensor.Read(true)
	hit := distance <= e.thresholdMM
	if hit && !e.triggered {
		e.triggered = true
		if e.cb != nil {
			e.cb(e.kind)
		}
	} else if !hit {
		e.triggered = false
	}
}
