//go:build !tinygo

package core

// getSystemTicks/setSystemTicks back GetTime/SetTime on a regular Go host:
// a plain package variable, since there's no hardware counter and no
// concurrent writer (ProcessTimers is pumped from a single goroutine).
func getSystemTicks() uint32 {
	return systemTicks
}

func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}
