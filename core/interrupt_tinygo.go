//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts for the critical section around a
// timer-list mutation and returns the previous mask so it can be restored.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
