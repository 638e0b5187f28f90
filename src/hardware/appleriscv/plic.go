package appleriscv

import (
	"fmt"

	"appleriscv/src/hardware/mmio"
)

// Source is an external interrupt id. Ids 0-31 live in the first
// pending/enable pair, 32-63 in the second.
type Source uint32

const (
	SourceRTC   Source = 2
	SourceUART0 Source = 3

	gpioSourceBase = 8
	MaxSource      = 63
)

const (
	PLICPending1Offset = 0x1000
	PLICPending2Offset = 0x1004
	PLICEnable1Offset  = 0x2000
	PLICEnable2Offset  = 0x2004
)

// GPIOSource is the id of gpio line. Lines 24 and up are in the second pair.
func GPIOSource(line int) Source {
	if line < 0 || line >= MaxGPIOLines {
		panic(fmt.Sprintf("plic: no gpio line %d", line))
	}
	return Source(gpioSourceBase + line)
}

// GPIOLine is the inverse of GPIOSource.
func (s Source) GPIOLine() (int, bool) {
	if s < gpioSourceBase || s >= gpioSourceBase+MaxGPIOLines {
		return 0, false
	}
	return int(s - gpioSourceBase), true
}

func (s Source) String() string {
	switch s {
	case SourceRTC:
		return "rtc"
	case SourceUART0:
		return "uart0"
	}
	if l, ok := s.GPIOLine(); ok {
		return fmt.Sprintf("gpio%d", l)
	}
	return fmt.Sprintf("source%d", uint32(s))
}

// pair returns the pending and enable offsets and the bit for s.
func (s Source) pair() (pending, enable uintptr, bit uint32) {
	switch {
	case s < 32:
		return PLICPending1Offset, PLICEnable1Offset, 1 << s
	case s <= MaxSource:
		return PLICPending2Offset, PLICEnable2Offset, 1 << (s - 32)
	}
	panic(fmt.Sprintf("plic: source id %d out of range", uint32(s)))
}

// PLIC is the external interrupt controller. Pending bits are driven by the
// peripherals and drop when the peripheral is acknowledged.
type PLIC struct {
	regs mmio.Block
}

func NewPLIC(bus mmio.Bus, b *Board) *PLIC {
	return &PLIC{regs: mmio.NewBlock(bus, b.PLIC)}
}

// Enable is read-modify-write; call it from the main path only.
func (p *PLIC) Enable(s Source) {
	_, en, bit := s.pair()
	p.regs.SetBits(en, bit)
}

// Disable is read-modify-write; call it from the main path only.
func (p *PLIC) Disable(s Source) {
	_, en, bit := s.pair()
	p.regs.ClearBits(en, bit)
}

func (p *PLIC) IsPending(s Source) bool {
	pend, _, bit := s.pair()
	return p.regs.Read(pend)&bit != 0
}

func (p *PLIC) IsEnabled(s Source) bool {
	_, en, bit := s.pair()
	return p.regs.Read(en)&bit != 0
}

// Pending is both pending words, pair 2 in the upper half.
func (p *PLIC) Pending() uint64 {
	return uint64(p.regs.Read(PLICPending2Offset))<<32 | uint64(p.regs.Read(PLICPending1Offset))
}

func (p *PLIC) Enabled() uint64 {
	return uint64(p.regs.Read(PLICEnable2Offset))<<32 | uint64(p.regs.Read(PLICEnable1Offset))
}
