//go:build tinygo

package core

import "sync/atomic"

var (
	systemTicksValue uint32
	// hardwareTimerFunc, once set by platform init code, makes
	// getSystemTicks read the real hardware counter directly instead of
	// the cached value SetTime writes.
	hardwareTimerFunc func() uint32
)

func getSystemTicks() uint32 {
	if hardwareTimerFunc != nil {
		return hardwareTimerFunc()
	}
	return atomic.LoadUint32(&systemTicksValue)
}

func setSystemTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicksValue, ticks)
}

// SetHardwareTimerFunc registers the platform's hardware tick reader.
// Call once during board bring-up, before any timer is scheduled; once
// set, GetTime always reflects real hardware time rather than the cached
// value SetTime last wrote.
func SetHardwareTimerFunc(f func() uint32) {
	hardwareTimerFunc = f
}
