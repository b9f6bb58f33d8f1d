// Command steprampctl is an interactive console for driving a
// motion.Controller: move/run/stop commands typed at a prompt, with motion
// events printed as they arrive. Flag-parsed device, bufio.Scanner prompt
// loop, switch over the first token. The controller always runs in-process
// against a simulated stepper, with its ramp taken from a YAML profile or a
// built-in default; with -device, each motion event is also written as a
// telemetry frame to that serial port.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/shlex"

	"stepramp/config"
	"stepramp/core"
	"stepramp/host/serial"
	"stepramp/hw"
	"stepramp/motion"
	"stepramp/protocol"
)

var (
	profilePath = flag.String("profile", "", "path to a YAML ramp/hardware profile (omit for a simulated stepper)")
	device      = flag.String("device", "", "serial device to mirror motion events to (e.g. /dev/ttyACM0); unset disables telemetry forwarding")
	baud        = flag.Int("baud", 250000, "baud rate for -device")
	realtime    = flag.Bool("realtime", false, "pace ticks from the wall clock through the shared scheduler instead of manual 'tick' commands")
)

func main() {
	flag.Parse()

	ramp, err := loadRamp(*profilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "steprampctl: %v\n", err)
		os.Exit(1)
	}

	var telemetry serial.Port
	if *device != "" {
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		telemetry, err = serial.Open(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "steprampctl: %v\n", err)
			os.Exit(1)
		}
		defer telemetry.Close()
	}

	var clock *motion.SimClock
	var timing motion.TimingSource
	if *realtime {
		core.TimerInit()
		sched := motion.NewSchedulerTimingSource()
		timing = sched
		stop := make(chan struct{})
		go pumpRealtime(stop)
		defer close(stop)
	} else {
		clock = motion.NewSimClock()
		timing = clock
	}

	sim := hw.NewSimStepper()
	ctrl := motion.NewController(timing, sim)
	ctrl.SetRamp(ramp)
	ctrl.SetEventCallback(func(e motion.Event) {
		printEvent(e)
		if telemetry != nil {
			if _, err := telemetry.Write(encodeTelemetry(e)); err != nil {
				fmt.Fprintf(os.Stderr, "telemetry write failed: %v\n", err)
			}
		}
	})

	fmt.Println("steprampctl - motion controller console")
	fmt.Println("type 'help' for available commands, 'quit' to exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if err := dispatch(scanner.Text(), ctrl, clock); err != nil {
			if err == errQuit {
				return
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error reading input: %v\n", err)
		os.Exit(1)
	}
}

// pumpRealtime drives core.ProcessTimers from the wall clock until stop is
// closed, converting elapsed real time to the scheduler's 12MHz tick
// domain so SchedulerTimingSource's armed deadlines fire on schedule
// without a manual 'tick' command.
func pumpRealtime(stop <-chan struct{}) {
	start := time.Now()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			elapsedUS := uint32(time.Since(start).Microseconds())
			core.SetTime(core.TimerFromUS(elapsedUS))
			core.ProcessTimers()
		}
	}
}

func loadRamp(path string) (motion.Ramp, error) {
	if path == "" {
		return motion.NewTrapezoidRamp(motion.Profile{
			IntervalNs: 1_000_000, AccelStepsPerSec2: 1000, DecelStepsPerSec2: 1000,
		}), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	profile, err := config.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile.BuildRamp(), nil
}

var errQuit = fmt.Errorf("quit")

func dispatch(line string, ctrl *motion.Controller, clock *motion.SimClock) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("tokenize: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	switch tokens[0] {
	case "quit", "exit", "q":
		fmt.Println("goodbye")
		return errQuit

	case "help", "?":
		printHelp()

	case "move_by":
		n, err := parseArg(tokens, 1)
		if err != nil {
			return err
		}
		return ctrl.MoveBy(n)

	case "move_to":
		n, err := parseArg(tokens, 1)
		if err != nil {
			return err
		}
		return ctrl.MoveTo(n)

	case "run":
		dir := motion.Positive
		if len(tokens) > 1 && tokens[1] == "-" {
			dir = motion.Negative
		}
		return ctrl.Run(dir)

	case "stop":
		return ctrl.Stop()

	case "enable":
		return ctrl.Enable()

	case "disable":
		return ctrl.Disable()

	case "position":
		fmt.Println(ctrl.GetPosition())

	case "state":
		fmt.Println(ctrl.State())

	case "tick":
		if clock == nil {
			return fmt.Errorf("tick: unavailable in -realtime mode, the scheduler paces itself")
		}
		n := 1
		if len(tokens) > 1 {
			if v, err := strconv.Atoi(tokens[1]); err == nil {
				n = v
			}
		}
		fired := clock.AdvanceN(n)
		fmt.Printf("%d tick(s) fired\n", fired)

	case "uptime":
		up := core.GetUptime()
		fmt.Printf("%d ticks (%dus)\n", up, core.TimerToUS(uint32(up)))

	case "timerstats":
		if len(tokens) > 1 && tokens[1] == "reset" {
			core.ResetTimerPastErrors()
			core.ResetFault()
			fmt.Println("timer stats reset")
			break
		}
		faulted, reason := core.Fault()
		fmt.Printf("late dispatches: %d\n", core.GetTimerPastErrors())
		if faulted {
			fmt.Printf("fault: %s\n", reason)
		} else {
			fmt.Println("fault: none")
		}

	default:
		fmt.Printf("unknown command: %s (type 'help' for available commands)\n", tokens[0])
	}
	return nil
}

func parseArg(tokens []string, idx int) (int32, error) {
	if len(tokens) <= idx {
		return 0, fmt.Errorf("missing argument")
	}
	n, err := strconv.ParseInt(tokens[idx], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid argument %q: %w", tokens[idx], err)
	}
	return int32(n), nil
}

func printHelp() {
	fmt.Println(`
available commands:
  move_by <n>     plan a relative move of n steps (sign = direction)
  move_to <p>     plan a move to absolute position p
  run [-]         start an infinite move, positive unless - is given
  stop            decelerate to rest
  enable          energize the hardware stepper
  disable         cancel motion and de-energize
  position        print the current position
  state           print the coarse motion state
  tick [n]        advance the simulated clock by n intervals (default 1,
                  unavailable with -realtime)
  uptime          print ticks and microseconds since startup
  timerstats      print late-dispatch count and any latched scheduler fault
  timerstats reset  clear the late-dispatch count and any latched fault
  quit/exit/q     exit the program`)
}

func printEvent(e motion.Event) {
	fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), formatEvent(e))
}

// encodeTelemetry packs an event into a VLQ-encoded, CRC16-trailed frame
// suitable for a thin serial link: [kind][hardware-kind][crc16 lo][crc16 hi].
func encodeTelemetry(e motion.Event) []byte {
	var body []byte
	body = protocol.EncodeVLQUint(body, uint32(e.Kind))
	body = protocol.EncodeVLQUint(body, uint32(e.Hardware))
	crc := protocol.CRC16(body)
	return append(body, byte(crc), byte(crc>>8))
}

func formatEvent(e motion.Event) string {
	switch e.Kind {
	case motion.EventStepsCompleted:
		return "STEPS_COMPLETED"
	case motion.EventStopped:
		return "STOPPED"
	case motion.EventHardware:
		return fmt.Sprintf("HARDWARE %v", e.Hardware)
	default:
		return "UNKNOWN"
	}
}
