// Package socsim runs the boot and trap runtime against the SoC model from
// a small command script. It exists to watch interrupts, acknowledges and
// diagnostics without a board.
//
// One command per line; # starts a comment. Arguments are split like a
// shell would (quotes and escapes work):
//
//	board default|legacy|<file.yaml>
//	init
//	print "text"            send text out of the uart
//	rx "text"               bytes arrive on the uart rx pin
//	uart rxirq|norxirq      enable or disable the uart receive interrupt
//	gpio enable <mask>      output enable
//	gpio write <value>
//	gpio level <line> 0|1   drive an input from outside
//	gpio rise|fall|high|low <mask>
//	plic enable|disable <source>   uart0, rtc, gpio<n> or a number
//	timer <cycles>          timer interrupt that many cycles from now
//	rtc <compare> <scale>
//	pwm <channel> <compare>
//	pwm start <scale>
//	swi                     raise the software interrupt
//	fault <code> <mtval>    take an exception at the current pc
//	pc <addr>
//	step <cycles>           run, taking interrupts as they come
//	expect uart "text" | halted | traps <slot> <n> | pending <source> 0|1
//	log <level>             error, warn, info, debug or all
package socsim

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"appleriscv/src/hardware/appleriscv"
	"appleriscv/src/hardware/sim"
	"appleriscv/src/lib/trust"
	"appleriscv/src/lib/upbeat"
)

// TrapVector is where the runner pretends the assembly trap entry lives.
const TrapVector = 0x100

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("wrong arguments")
	ErrNotBooted      = errors.New("run init first")
	ErrExpect         = errors.New("expectation failed")
	ErrNoPeripheral   = errors.New("board does not have it")
)

// Runner holds one simulated board and its runtime.
type Runner struct {
	Board   *appleriscv.Board
	SoC     *sim.SoC
	Core    *sim.Core
	Runtime *upbeat.Runtime
	Log     *trust.Logger

	// Out gets every byte the uart sends, as it is sent.
	Out   io.Writer
	Traps map[string]int

	echoed int
	trace  bool
}

// NewRunner starts with the default board, not yet booted. Runtime
// diagnostics go to logOut.
func NewRunner(out, logOut io.Writer) *Runner {
	b := appleriscv.Default
	return &Runner{
		Board: &b,
		Log:   trust.NewLogger(logOut),
		Out:   out,
		Traps: make(map[string]int),
	}
}

// Trace turns on recording of the gpio outputs from the next init.
func (r *Runner) Trace() {
	r.trace = true
}

// Run executes a whole script, stopping at the first failing line.
func (r *Runner) Run(rd io.Reader) error {
	sc := bufio.NewScanner(rd)
	n := 0
	for sc.Scan() {
		n++
		if err := r.Exec(sc.Text()); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return sc.Err()
}

// Exec runs one script line.
func (r *Runner) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]
	if cmd != "board" && cmd != "init" && cmd != "log" && r.Runtime == nil {
		return fmt.Errorf("%s: %w", cmd, ErrNotBooted)
	}
	switch cmd {
	case "board":
		return r.board(args)
	case "init":
		return r.boot()
	case "log":
		return r.level(args)
	case "print":
		if len(args) != 1 {
			return usage(cmd)
		}
		r.platform().UART.PutString(args[0])
	case "rx":
		if len(args) != 1 {
			return usage(cmd)
		}
		r.SoC.UART.Receive([]byte(args[0]))
	case "uart":
		if len(args) != 1 {
			return usage(cmd)
		}
		switch args[0] {
		case "rxirq":
			r.platform().UART.EnableRxInterrupt()
		case "norxirq":
			r.platform().UART.DisableRxInterrupt()
		default:
			return usage(cmd)
		}
	case "gpio":
		return r.gpio(args)
	case "plic":
		return r.plic(args)
	case "timer":
		v, err := numbers(args, 1)
		if err != nil {
			return err
		}
		if err := r.needInterrupts(cmd); err != nil {
			return err
		}
		t := r.SoC.CLIC.Time() + uint64(v[0])
		r.platform().CLIC.SetTimerCompare(uint32(t), uint32(t>>32))
	case "rtc":
		v, err := numbers(args, 2)
		if err != nil {
			return err
		}
		rtc := r.platform().RTC
		if rtc == nil {
			return fmt.Errorf("rtc: %s: %w", r.Board.Name, ErrNoPeripheral)
		}
		rtc.SetCompare(v[0])
		rtc.SetConfig(appleriscv.RTCConfig{Scale: uint8(v[1]), EnableAlways: true}.Value())
	case "pwm":
		return r.pwm(args)
	case "swi":
		if err := r.needInterrupts(cmd); err != nil {
			return err
		}
		r.platform().CLIC.TriggerSoftware()
	case "fault":
		v, err := numbers(args, 2)
		if err != nil {
			return err
		}
		r.Core.Raise(r.Runtime.Dispatch, v[0], v[1])
	case "pc":
		v, err := numbers(args, 1)
		if err != nil {
			return err
		}
		r.Core.PC = v[0]
	case "step":
		v, err := numbers(args, 1)
		if err != nil {
			return err
		}
		r.Step(int(v[0]))
	case "expect":
		return r.expect(args)
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, cmd)
	}
	r.echo()
	return nil
}

func usage(cmd string) error {
	return fmt.Errorf("%s: %w", cmd, ErrUsage)
}

func numbers(args []string, n int) ([]uint32, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%w: want %d numbers, got %d", ErrUsage, n, len(args))
	}
	out := make([]uint32, n)
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

func (r *Runner) parseSource(s string) (appleriscv.Source, error) {
	switch {
	case s == "uart0":
		return appleriscv.SourceUART0, nil
	case s == "rtc":
		return appleriscv.SourceRTC, nil
	case strings.HasPrefix(s, "gpio"):
		l, err := strconv.Atoi(s[4:])
		if err != nil || !r.Board.HasGPIOLine(l) {
			return 0, fmt.Errorf("%w: bad gpio line %q (%s has %d)", ErrUsage, s, r.Board.Name, r.Board.GPIOLines)
		}
		return r.Board.GPIOSource(l), nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil || v > appleriscv.MaxSource {
		return 0, fmt.Errorf("%w: bad source %q", ErrUsage, s)
	}
	return appleriscv.Source(v), nil
}

func (r *Runner) platform() *upbeat.Platform {
	return r.Runtime.Platform()
}

func (r *Runner) needInterrupts(cmd string) error {
	if !r.Board.HasInterrupts() {
		return fmt.Errorf("%s: %s: interrupt controllers: %w", cmd, r.Board.Name, ErrNoPeripheral)
	}
	return nil
}

func (r *Runner) board(args []string) error {
	if len(args) != 1 {
		return usage("board")
	}
	if r.Runtime != nil {
		return fmt.Errorf("board: already booted")
	}
	switch args[0] {
	case "default":
		b := appleriscv.Default
		r.Board = &b
	case "legacy":
		b := appleriscv.Legacy
		r.Board = &b
	default:
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		b, err := appleriscv.LoadBoard(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		r.Board = b
	}
	return nil
}

func (r *Runner) level(args []string) error {
	if len(args) != 1 {
		return usage("log")
	}
	m := map[string]trust.MaskLevel{
		"error": trust.ErrorMask,
		"warn":  trust.ErrorMask | trust.WarnMask,
		"info":  trust.ErrorMask | trust.WarnMask | trust.InfoMask,
		"debug": trust.ErrorMask | trust.WarnMask | trust.InfoMask | trust.DebugMask,
		"all":   trust.All,
	}
	l, ok := m[args[0]]
	if !ok {
		return fmt.Errorf("%w: log level %q", ErrUsage, args[0])
	}
	r.Log.SetLevel(l)
	return nil
}

// counted wraps the default slots so the runner can report what ran.
func (r *Runner) counted() upbeat.Handlers {
	d := upbeat.DefaultHandlers()
	return upbeat.Handlers{
		Software:    func(p *upbeat.Platform) { r.Traps["software"]++; d.Software(p) },
		Timer:       func(p *upbeat.Platform) { r.Traps["timer"]++; d.Timer(p) },
		UARTReceive: func(p *upbeat.Platform) { r.Traps["uart"]++; d.UARTReceive(p) },
		RTC:         func(p *upbeat.Platform) { r.Traps["rtc"]++; d.RTC(p) },
		GPIO: func(p *upbeat.Platform, line int) {
			r.Traps["gpio"]++
			r.Traps[fmt.Sprintf("gpio%d", line)]++
			d.GPIO(p, line)
		},
		LoadMisaligned: func(p *upbeat.Platform, f *upbeat.Frame) bool {
			r.Traps["misaligned"]++
			return d.LoadMisaligned(p, f)
		},
		Fatal: func(p *upbeat.Platform, f *upbeat.Frame) {
			r.Traps["fatal"]++
			d.Fatal(p, f)
		},
	}
}

func (r *Runner) boot() error {
	if r.Runtime != nil {
		return fmt.Errorf("init: already booted")
	}
	soc, err := sim.New(r.Board)
	if err != nil {
		return err
	}
	if r.trace {
		soc.Trace = &sim.Trace{}
	}
	r.SoC = soc
	r.Core = sim.NewCore(soc)
	p := upbeat.NewPlatform(r.Board, soc, r.Core, r.Core, r.Log)
	r.Runtime = upbeat.New(p, r.counted())
	r.Runtime.Init(TrapVector)
	r.echo()
	return nil
}

// Step runs n cycles, delivering an interrupt whenever one is pending.
func (r *Runner) Step(n int) {
	for i := 0; i < n && !r.Core.Halted(); i++ {
		r.SoC.Step(1)
		r.Core.Deliver(r.Runtime.Dispatch)
	}
	r.echo()
}

func (r *Runner) echo() {
	if r.SoC == nil || r.Out == nil {
		return
	}
	tx := r.SoC.UART.Transmitted()
	if r.echoed < len(tx) {
		r.Out.Write(tx[r.echoed:])
		r.echoed = len(tx)
	}
}

func (r *Runner) gpio(args []string) error {
	if len(args) < 2 {
		return usage("gpio")
	}
	g := r.platform().GPIO
	if g == nil {
		return fmt.Errorf("gpio: %s: %w", r.Board.Name, ErrNoPeripheral)
	}
	op := args[0]
	if op == "level" {
		v, err := numbers(args[1:], 2)
		if err != nil {
			return err
		}
		if !r.Board.HasGPIOLine(int(v[0])) {
			return fmt.Errorf("%w: no gpio line %d", ErrUsage, v[0])
		}
		r.SoC.GPIO.SetLevel(int(v[0]), v[1] != 0)
		return nil
	}
	v, err := numbers(args[1:], 1)
	if err != nil {
		return err
	}
	switch op {
	case "enable":
		g.Enable(v[0])
	case "write":
		g.Write(v[0])
	case "rise", "fall", "high", "low":
		if !g.HasInterrupts() {
			return fmt.Errorf("gpio %s: %s has no gpio interrupts", op, r.Board.Name)
		}
		map[string]func(uint32){
			"rise": g.EnableRise, "fall": g.EnableFall, "high": g.EnableHigh, "low": g.EnableLow,
		}[op](v[0])
	default:
		return usage("gpio")
	}
	return nil
}

func (r *Runner) plic(args []string) error {
	if len(args) != 2 {
		return usage("plic")
	}
	if err := r.needInterrupts("plic"); err != nil {
		return err
	}
	src, err := r.parseSource(args[1])
	if err != nil {
		return err
	}
	switch args[0] {
	case "enable":
		r.platform().PLIC.Enable(src)
	case "disable":
		r.platform().PLIC.Disable(src)
	default:
		return usage("plic")
	}
	return nil
}

func (r *Runner) pwm(args []string) error {
	p := r.platform().PWM
	if p == nil {
		return fmt.Errorf("pwm: %s: %w", r.Board.Name, ErrNoPeripheral)
	}
	if len(args) == 2 && args[0] == "start" {
		v, err := numbers(args[1:], 1)
		if err != nil {
			return err
		}
		p.Configure(appleriscv.PWMConfig{Scale: uint8(v[0]), ZeroCompare: true, EnableAlways: true})
		return nil
	}
	v, err := numbers(args, 2)
	if err != nil {
		return err
	}
	if v[0] >= appleriscv.PWMChannels {
		return fmt.Errorf("%w: pwm channel %d", ErrUsage, v[0])
	}
	p.SetCompare(int(v[0]), v[1])
	return nil
}

func (r *Runner) expect(args []string) error {
	if len(args) == 0 {
		return usage("expect")
	}
	switch {
	case args[0] == "halted" && len(args) == 1:
		if !r.Core.Halted() {
			return fmt.Errorf("%w: runtime is %v, not halted", ErrExpect, r.Runtime.State())
		}
	case args[0] == "uart" && len(args) == 2:
		if !bytes.Contains(r.SoC.UART.Transmitted(), []byte(args[1])) {
			return fmt.Errorf("%w: uart output has no %q", ErrExpect, args[1])
		}
	case args[0] == "traps" && len(args) == 3:
		want, err := strconv.Atoi(args[2])
		if err != nil {
			return usage("expect")
		}
		if got := r.Traps[args[1]]; got != want {
			return fmt.Errorf("%w: %d %s traps, want %d", ErrExpect, got, args[1], want)
		}
	case args[0] == "pending" && len(args) == 3:
		if err := r.needInterrupts("expect"); err != nil {
			return err
		}
		src, err := r.parseSource(args[1])
		if err != nil {
			return err
		}
		want := args[2] != "0"
		if got := r.platform().PLIC.IsPending(src); got != want {
			return fmt.Errorf("%w: %v pending is %v", ErrExpect, src, got)
		}
	default:
		return usage("expect")
	}
	return nil
}
