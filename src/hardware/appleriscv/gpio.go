package appleriscv

import (
	"fmt"

	"appleriscv/src/hardware/mmio"
)

const MaxGPIOLines = 32

// GPIO is one 32 line port. Bit n of every mask is line n.
type GPIO struct {
	regs   mmio.Block
	layout GPIOLayout
}

func NewGPIO(bus mmio.Bus, b *Board) *GPIO {
	return &GPIO{regs: mmio.NewBlock(bus, b.GPIO), layout: b.GPIOLayout}
}

// Enable selects which lines are driven as outputs.
func (g *GPIO) Enable(mask uint32) {
	g.regs.Write(g.layout.OutputEnable, mask)
}

func (g *GPIO) Write(v uint32) {
	g.regs.Write(g.layout.Output, v)
}

func (g *GPIO) Read() uint32 {
	return g.regs.Read(g.layout.Input)
}

// Outputs is the value last driven, read back from the output register.
func (g *GPIO) Outputs() uint32 {
	return g.regs.Read(g.layout.Output)
}

func (g *GPIO) HasInterrupts() bool {
	return g.layout.Interrupts
}

func (g *GPIO) mustInterrupts(op string) {
	if !g.layout.Interrupts {
		panic(fmt.Sprintf("gpio %s: port at %#x has no interrupt registers", op, g.regs.Base()))
	}
}

// EnableRise and friends OR mask into the matching interrupt enable
// register (read-modify-write).
func (g *GPIO) EnableRise(mask uint32) {
	g.mustInterrupts("rise")
	g.regs.SetBits(g.layout.RiseIE, mask)
}

func (g *GPIO) EnableFall(mask uint32) {
	g.mustInterrupts("fall")
	g.regs.SetBits(g.layout.FallIE, mask)
}

func (g *GPIO) EnableHigh(mask uint32) {
	g.mustInterrupts("high")
	g.regs.SetBits(g.layout.HighIE, mask)
}

func (g *GPIO) EnableLow(mask uint32) {
	g.mustInterrupts("low")
	g.regs.SetBits(g.layout.LowIE, mask)
}

// DisableInterrupts clears mask from all four enable registers.
func (g *GPIO) DisableInterrupts(mask uint32) {
	g.mustInterrupts("disable")
	for _, off := range []uintptr{g.layout.RiseIE, g.layout.FallIE, g.layout.HighIE, g.layout.LowIE} {
		g.regs.ClearBits(off, mask)
	}
}

// Pending is the union of the rise, fall, high and low pending registers.
func (g *GPIO) Pending() uint32 {
	if !g.layout.Interrupts {
		return 0
	}
	return g.regs.Read(g.layout.RiseIP) | g.regs.Read(g.layout.FallIP) |
		g.regs.Read(g.layout.HighIP) | g.regs.Read(g.layout.LowIP)
}

// ClearPending acknowledges the lines in mask. The pending registers are
// write-one-to-clear so this is a plain store, no read first.
func (g *GPIO) ClearPending(mask uint32) {
	g.mustInterrupts("clear")
	g.regs.Write(g.layout.RiseIP, mask)
	g.regs.Write(g.layout.FallIP, mask)
	g.regs.Write(g.layout.HighIP, mask)
	g.regs.Write(g.layout.LowIP, mask)
}
