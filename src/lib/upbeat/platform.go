// Package upbeat brings the SoC from reset to running and owns the trap
// path: it installs the trap vector, enables interrupts and dispatches every
// trap to a fixed table of handler slots.
package upbeat

import (
	"appleriscv/src/hardware/appleriscv"
	"appleriscv/src/hardware/mmio"
	"appleriscv/src/hardware/riscv"
	"appleriscv/src/lib/trust"
)

// Machine is the part of the hart that is not a CSR.
type Machine interface {
	// Halt stops the processor. On the board it does not return.
	Halt()
}

// Platform holds one handle per peripheral, built once at boot. Handlers
// receive it explicitly; there are no peripheral globals. A handle is nil
// when the board does not have the peripheral; CLIC and PLIC come together.
type Platform struct {
	Board   *appleriscv.Board
	Bus     mmio.Bus
	CSRs    riscv.CSRs
	Machine Machine
	Log     *trust.Logger

	UART *appleriscv.UART
	GPIO *appleriscv.GPIO
	CLIC *appleriscv.CLIC
	PLIC *appleriscv.PLIC
	RTC  *appleriscv.RTC
	PWM  *appleriscv.PWM
}

func NewPlatform(b *appleriscv.Board, bus mmio.Bus, csrs riscv.CSRs, m Machine, log *trust.Logger) *Platform {
	p := &Platform{
		Board:   b,
		Bus:     bus,
		CSRs:    csrs,
		Machine: m,
		Log:     log,
		UART:    appleriscv.NewUART(bus, b),
	}
	if b.HasInterrupts() {
		p.CLIC = appleriscv.NewCLIC(bus, b)
		p.PLIC = appleriscv.NewPLIC(bus, b)
	}
	if b.GPIO != 0 {
		p.GPIO = appleriscv.NewGPIO(bus, b)
	}
	if b.RTC != 0 {
		p.RTC = appleriscv.NewRTC(bus, b)
	}
	if b.PWM != 0 {
		p.PWM = appleriscv.NewPWM(bus, b)
	}
	return p
}

// FetchInstruction reads the instruction word at pc.
func (p *Platform) FetchInstruction(pc uint32) uint32 {
	return p.Bus.Load32(uintptr(pc))
}
