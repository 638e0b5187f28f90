package sim

import "appleriscv/src/hardware/appleriscv"

// GPIO models the port. Rise and fall pending bits latch on edges, high and
// low pending bits are set every cycle the level holds, so acknowledging a
// level interrupt only sticks once the level goes away.
type GPIO struct {
	layout appleriscv.GPIOLayout
	levels uint32 //external pin levels
	out    uint32
	oen    uint32

	riseIE, fallIE, highIE, lowIE uint32
	riseIP, fallIP, highIP, lowIP uint32
}

func newGPIO(b *appleriscv.Board) *GPIO {
	return &GPIO{layout: b.GPIOLayout}
}

// pins is what the input register sees: driven lines read back their
// output value, the rest read the external level.
func (g *GPIO) pins() uint32 {
	return g.out&g.oen | g.levels&^g.oen
}

// Outputs is the value on the lines driven as outputs.
func (g *GPIO) Outputs() uint32 {
	return g.out & g.oen
}

func (g *GPIO) OutputEnable() uint32 {
	return g.oen
}

// SetLevel drives an input line from outside.
func (g *GPIO) SetLevel(line int, high bool) {
	before := g.pins()
	if high {
		g.levels |= 1 << uint(line)
	} else {
		g.levels &^= 1 << uint(line)
	}
	g.edges(before)
}

func (g *GPIO) edges(before uint32) {
	if !g.layout.Interrupts {
		return
	}
	after := g.pins()
	g.riseIP |= after &^ before
	g.fallIP |= before &^ after
}

func (g *GPIO) irqLines() uint32 {
	return g.riseIE&g.riseIP | g.fallIE&g.fallIP | g.highIE&g.highIP | g.lowIE&g.lowIP
}

func (g *GPIO) load(off uintptr) uint32 {
	l := &g.layout
	switch off {
	case l.Input:
		return g.pins()
	case l.Output:
		return g.out
	case l.OutputEnable:
		return g.oen
	}
	if !l.Interrupts {
		return 0
	}
	switch off {
	case l.RiseIE:
		return g.riseIE
	case l.RiseIP:
		return g.riseIP
	case l.FallIE:
		return g.fallIE
	case l.FallIP:
		return g.fallIP
	case l.HighIE:
		return g.highIE
	case l.HighIP:
		return g.highIP
	case l.LowIE:
		return g.lowIE
	case l.LowIP:
		return g.lowIP
	}
	return 0
}

func (g *GPIO) store(off uintptr, v uint32) {
	l := &g.layout
	before := g.pins()
	switch off {
	case l.Output:
		g.out = v
		g.edges(before)
		return
	case l.OutputEnable:
		g.oen = v
		g.edges(before)
		return
	}
	if !l.Interrupts {
		return
	}
	switch off {
	case l.RiseIE:
		g.riseIE = v
	case l.RiseIP:
		g.riseIP &^= v
	case l.FallIE:
		g.fallIE = v
	case l.FallIP:
		g.fallIP &^= v
	case l.HighIE:
		g.highIE = v
	case l.HighIP:
		g.highIP &^= v
	case l.LowIE:
		g.lowIE = v
	case l.LowIP:
		g.lowIP &^= v
	}
}

func (g *GPIO) step() {
	if !g.layout.Interrupts {
		return
	}
	p := g.pins()
	g.highIP |= p
	g.lowIP |= ^p
}
