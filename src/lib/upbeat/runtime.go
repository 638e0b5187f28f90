package upbeat

import (
	"fmt"

	"appleriscv/src/hardware/riscv"
)

type State int

const (
	Reset State = iota
	Initializing
	Running
	TrapEntered
	InterruptPath
	ExceptionPath
	Halted
)

func (s State) String() string {
	switch s {
	case Reset:
		return "reset"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case TrapEntered:
		return "trap entered"
	case InterruptPath:
		return "interrupt"
	case ExceptionPath:
		return "exception"
	case Halted:
		return "halted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Runtime is the boot sequencer and trap dispatcher of one hart. There is
// exactly one per program; traps are not reentrant (the hart clears
// mstatus.MIE on entry) so nothing here is locked.
type Runtime struct {
	platform *Platform
	handlers Handlers
	state    State
	resume   State //state to go back to after a trap
}

// New fixes the handler table for the life of the program. Nil slots get
// their defaults.
func New(p *Platform, h Handlers) *Runtime {
	return &Runtime{platform: p, handlers: h.resolve(), state: Reset}
}

func (r *Runtime) State() State {
	return r.state
}

func (r *Runtime) Platform() *Platform {
	return r.platform
}

// Init runs the boot sequence and leaves the runtime Running: uart, trap
// vector, interrupt enables and the branch counters. The last two only on
// boards that have them. trapVector is the address of the assembly trap entry.
func (r *Runtime) Init(trapVector uintptr) {
	if r.state != Reset {
		panic(fmt.Sprintf("upbeat: Init called in state %v", r.state))
	}
	r.state = Initializing
	p := r.platform
	p.UART.Init()

	p.CSRs.Write(riscv.MTVEC, uint32(trapVector)<<p.Board.TrapVectorShift)
	if p.Board.HasInterrupts() {
		p.CSRs.Write(riscv.MIE, riscv.MIE_MSIE|riscv.MIE_MTIE|riscv.MIE_MEIE)
		p.CSRs.SetBits(riscv.MSTATUS, riscv.MSTATUS_MIE)
	} else {
		p.Log.Infof("%s: no interrupt controllers, interrupts stay off", p.Board.Name)
	}

	if p.Board.BranchCounters {
		r.ResetBranchCounters()
	}
	r.state = Running
	p.Log.Debugf("%s: running, mtvec=%08x", p.Board.Name, p.CSRs.Read(riscv.MTVEC))
}

// ResetBranchCounters zeroes mhpmcounter3 (branches) and mhpmcounter4
// (mispredicts) with counting inhibited, then sets the inhibit bits, which
// this core treats as run.
func (r *Runtime) ResetBranchCounters() {
	c := r.platform.CSRs
	c.ClearBits(riscv.MCOUNTINHIBIT, riscv.BranchCounterMask)
	c.Write(riscv.MHPMCOUNTER3, 0)
	c.Write(riscv.MHPMCOUNTER4, 0)
	c.SetBits(riscv.MCOUNTINHIBIT, riscv.BranchCounterMask)
}

func (r *Runtime) StopBranchCounters() {
	r.platform.CSRs.ClearBits(riscv.MCOUNTINHIBIT, riscv.BranchCounterMask)
}

// BranchCounters reads (branches, mispredicts).
func (r *Runtime) BranchCounters() (uint32, uint32) {
	c := r.platform.CSRs
	return c.Read(riscv.MHPMCOUNTER3), c.Read(riscv.MHPMCOUNTER4)
}

// Dispatch is the trap handler proper: the assembly entry calls it with
// mcause and mepc and writes the result back to mepc before mret.
func (r *Runtime) Dispatch(cause, epc uint32) uint32 {
	if r.state == Halted {
		return epc
	}
	r.resume = r.state
	r.state = TrapEntered
	c := riscv.Cause(cause)
	if c.IsInterrupt() {
		r.state = InterruptPath
		r.interrupt(c)
		r.state = r.resume
		return epc
	}
	r.state = ExceptionPath
	return r.exception(c, epc)
}

func (r *Runtime) interrupt(c riscv.Cause) {
	p := r.platform
	if !p.Board.HasInterrupts() {
		p.Log.Warnf("ignoring %v: %s has no interrupt controllers", c, p.Board.Name)
		return
	}
	switch c.Code() {
	case riscv.MachineSoftwareInterrupt:
		r.handlers.Software(p)
	case riscv.MachineTimerInterrupt:
		r.handlers.Timer(p)
	case riscv.MachineExternalInterrupt:
		if r.handlers.External != nil {
			r.handlers.External(p)
			return
		}
		r.fanOut()
	default:
		p.Log.Warnf("ignoring %v", c)
	}
}

func (r *Runtime) exception(c riscv.Cause, epc uint32) uint32 {
	p := r.platform
	f := &Frame{
		Cause:       c,
		EPC:         epc,
		TVal:        p.CSRs.Read(riscv.MTVAL),
		Instruction: p.FetchInstruction(epc),
	}
	if c.Code() == riscv.LoadAddressMisaligned {
		if r.handlers.LoadMisaligned(p, f) {
			r.state = r.resume
			return f.EPC
		}
		r.halt()
		return f.EPC
	}
	r.handlers.Fatal(p, f)
	r.halt()
	return f.EPC
}

func (r *Runtime) halt() {
	r.state = Halted
	r.platform.Machine.Halt()
}
