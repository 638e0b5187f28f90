package sim

import "appleriscv/src/hardware/riscv"

// DispatchFunc is the trap handler as the hardware calls it.
type DispatchFunc func(cause, epc uint32) uint32

// Core is the hart as far as traps go: the CSR file, interrupt selection,
// trap entry and mret, and halting.
type Core struct {
	*riscv.SimCSRs
	soc    *SoC
	PC     uint32
	halted bool
	Traps  int
}

func NewCore(s *SoC) *Core {
	return &Core{SimCSRs: riscv.NewSimCSRs(), soc: s}
}

func (c *Core) Halt() {
	c.halted = true
}

func (c *Core) Halted() bool {
	return c.halted
}

// NextInterrupt is the interrupt the hart would take now, if any. It
// refreshes mip from the device lines first; the interrupt is taken when
// global enable is on and the bit is set in both mip and mie, external
// before software before timer.
func (c *Core) NextInterrupt() (riscv.Cause, bool) {
	var mip uint32
	if c.soc.ExternalPending() {
		mip |= riscv.MIP_MEIP
	}
	if c.soc.SoftwarePending() {
		mip |= riscv.MIP_MSIP
	}
	if c.soc.TimerPending() {
		mip |= riscv.MIP_MTIP
	}
	c.Write(riscv.MIP, mip)
	if c.halted || c.Read(riscv.MSTATUS)&riscv.MSTATUS_MIE == 0 {
		return 0, false
	}
	ready := mip & c.Read(riscv.MIE)
	switch {
	case ready&riscv.MIP_MEIP != 0:
		return riscv.InterruptBit | riscv.MachineExternalInterrupt, true
	case ready&riscv.MIP_MSIP != 0:
		return riscv.InterruptBit | riscv.MachineSoftwareInterrupt, true
	case ready&riscv.MIP_MTIP != 0:
		return riscv.InterruptBit | riscv.MachineTimerInterrupt, true
	}
	return 0, false
}

// Deliver takes the next interrupt, if there is one, and reports whether it
// did.
func (c *Core) Deliver(dispatch DispatchFunc) bool {
	cause, ok := c.NextInterrupt()
	if !ok {
		return false
	}
	c.trap(dispatch, cause, 0)
	return true
}

// Raise takes a synchronous exception at the current PC with the given
// mtval.
func (c *Core) Raise(dispatch DispatchFunc, code uint32, tval uint32) {
	c.trap(dispatch, riscv.Cause(code&riscv.CodeMask), tval)
}

// trap is entry, handler and mret: MIE is saved to MPIE and cleared, and
// restored on the way out unless the handler halted the hart.
func (c *Core) trap(dispatch DispatchFunc, cause riscv.Cause, tval uint32) {
	const mpie = 1 << 7
	c.Traps++
	st := c.Read(riscv.MSTATUS)
	if st&riscv.MSTATUS_MIE != 0 {
		st |= mpie
	} else {
		st &^= mpie
	}
	c.Write(riscv.MSTATUS, st&^riscv.MSTATUS_MIE)
	c.Write(riscv.MCAUSE, uint32(cause))
	c.Write(riscv.MEPC, c.PC)
	c.Write(riscv.MTVAL, tval)

	c.PC = dispatch(uint32(cause), c.PC)
	if c.halted {
		return
	}
	st = c.Read(riscv.MSTATUS)
	if st&mpie != 0 {
		st |= riscv.MSTATUS_MIE
	}
	c.Write(riscv.MSTATUS, st|mpie)
}

// RunUntilIdle delivers interrupts until none is pending or limit traps
// were taken, stepping the SoC one cycle between checks. It returns the
// number of traps taken.
func (c *Core) RunUntilIdle(dispatch DispatchFunc, limit int) int {
	n := 0
	for n < limit && c.Deliver(dispatch) {
		n++
		c.soc.Step(1)
	}
	return n
}
