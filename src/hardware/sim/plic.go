package sim

import "appleriscv/src/hardware/appleriscv"

// PLIC computes its pending words from the device interrupt lines on every
// read. Software cannot write them; a source drops when its device is
// acknowledged.
type PLIC struct {
	soc    *SoC
	enable [2]uint32
}

func newPLIC(s *SoC) *PLIC {
	return &PLIC{soc: s}
}

func (p *PLIC) pending() uint64 {
	var v uint64
	if p.soc.RTC != nil && p.soc.RTC.irq() {
		v |= 1 << appleriscv.SourceRTC
	}
	if p.soc.UART.irq() {
		v |= 1 << appleriscv.SourceUART0
	}
	lines := uint64(1)<<uint(p.soc.Board.GPIOLines) - 1
	v |= uint64(p.soc.GPIO.irqLines()) & lines << appleriscv.GPIOSource(0)
	return v
}

func (p *PLIC) enabled() uint64 {
	return uint64(p.enable[1])<<32 | uint64(p.enable[0])
}

func (p *PLIC) load(off uintptr) uint32 {
	switch off {
	case appleriscv.PLICPending1Offset:
		return uint32(p.pending())
	case appleriscv.PLICPending2Offset:
		return uint32(p.pending() >> 32)
	case appleriscv.PLICEnable1Offset:
		return p.enable[0]
	case appleriscv.PLICEnable2Offset:
		return p.enable[1]
	}
	return 0
}

func (p *PLIC) store(off uintptr, v uint32) {
	switch off {
	case appleriscv.PLICEnable1Offset:
		p.enable[0] = v
	case appleriscv.PLICEnable2Offset:
		p.enable[1] = v
	}
}

func (p *PLIC) step() {}
