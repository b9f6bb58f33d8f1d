//go:build tinygo && rp2040

package hw

import (
	"machine"

	"stepramp/motion"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// PIOStepper drives step pulses through the RP2040's PIO block instead of
// bit-banging a GPIO pin from Go, for jitter-free pulses at high step
// rates: the same hand-assembled program (pull command word, set
// direction, emit one pulse) and state-machine setup sequence as a
// free-running "queue N steps, M cycles apart" backend, adapted into a
// plain motion.HardwareStepper that emits exactly one step per Step call.
// The motion controller, not the PIO program, owns the velocity profile.
type PIOStepper struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	offset uint8

	stepPin, dirPin machine.Pin
	direction       bool

	cb func(motion.HardwareKind)
}

// stepperProgram pulses the SET pin high then low once per command word
// pulled from the FIFO; the OUT pin carries the direction bit latched
// before the pulse. One word in, one step out: no pulse-count/delay-cycle
// encoding, since pacing is the controller's job, not the PIO program's.
func stepperProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Pull(false, true).Encode(),                   // 0: pull block
		asm.Out(rp2pio.OutDestPins, 1).Encode(),          // 1: out pins, 1 (direction)
		asm.Set(rp2pio.SetDestPins, 1).Delay(1).Encode(), // 2: set pins, 1 [1]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // 3: set pins, 0
	}
}

const pioOrigin = 0

// NewPIOStepper claims state machine smNum on PIO block pioNum (0 or 1),
// loads the step program, and configures stepPin/dirPin as PIO-owned pins.
func NewPIOStepper(pioNum, smNum uint8, stepPin, dirPin machine.Pin) (*PIOStepper, error) {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}

	s := &PIOStepper{pio: pioHW, sm: pioHW.StateMachine(smNum), stepPin: stepPin, dirPin: dirPin}
	s.sm.TryClaim()

	program := stepperProgram()
	offset, err := s.pio.AddProgram(program, pioOrigin)
	if err != nil {
		return nil, err
	}
	s.offset = offset

	s.stepPin.Configure(machine.PinConfig{Mode: s.pio.PinMode()})
	s.dirPin.Configure(machine.PinConfig{Mode: s.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(s.stepPin, 1)
	cfg.SetOutPins(s.dirPin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1000, 0)

	s.sm.Init(offset, cfg)
	s.sm.SetPindirsConsecutive(s.stepPin, 1, true)
	s.sm.SetPindirsConsecutive(s.dirPin, 1, true)
	s.sm.SetPinsConsecutive(s.stepPin, 1, false)
	s.sm.SetPinsConsecutive(s.dirPin, 1, false)
	s.sm.SetEnabled(true)

	return s, nil
}

func (s *PIOStepper) Enable() error {
	s.sm.SetEnabled(true)
	return nil
}

func (s *PIOStepper) Disable() error {
	s.sm.SetEnabled(false)
	s.sm.ClearFIFOs()
	s.sm.Restart()
	return nil
}

// Step pushes one command word: bit 0 is the direction bit, the rest are
// reserved and left zero.
func (s *PIOStepper) Step(dir motion.Direction) error {
	s.direction = dir == motion.Positive
	var cmd uint32
	if s.direction {
		cmd = 1
	}
	for s.sm.IsTxFIFOFull() {
	}
	s.sm.TxPut(cmd)
	return nil
}

func (s *PIOStepper) SetEventCallback(cb func(motion.HardwareKind)) {
	s.cb = cb
}
