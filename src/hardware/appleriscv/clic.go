package appleriscv

import "appleriscv/src/hardware/mmio"

const (
	CLICSoftwareOffset       = 0x0000 //msip
	CLICTimerCompareLoOffset = 0x4000
	CLICTimerCompareHiOffset = 0x4004
	CLICTimeLoOffset         = 0xBFF8
	CLICTimeHiOffset         = 0xBFFC
)

// CLIC is the core local interruptor: the software interrupt flag and the
// 64 bit machine timer.
type CLIC struct {
	regs mmio.Block
}

func NewCLIC(bus mmio.Bus, b *Board) *CLIC {
	return &CLIC{regs: mmio.NewBlock(bus, b.CLIC)}
}

func (c *CLIC) TriggerSoftware() {
	c.regs.Write(CLICSoftwareOffset, 1)
}

func (c *CLIC) ClearSoftware() {
	c.regs.Write(CLICSoftwareOffset, 0)
}

func (c *CLIC) SoftwarePending() bool {
	return c.regs.Read(CLICSoftwareOffset)&1 != 0
}

// SetTimerCompare writes mtimecmp. The high half goes to all ones first so
// the intermediate value cannot fire early.
func (c *CLIC) SetTimerCompare(lo, hi uint32) {
	c.regs.Write(CLICTimerCompareHiOffset, 0xFFFFFFFF)
	c.regs.Write(CLICTimerCompareLoOffset, lo)
	c.regs.Write(CLICTimerCompareHiOffset, hi)
}

// SetTime loads mtime, high half first.
func (c *CLIC) SetTime(lo, hi uint32) {
	c.regs.Write(CLICTimeHiOffset, hi)
	c.regs.Write(CLICTimeLoOffset, lo)
}

// ClearTime restarts the timer from zero, the acknowledge of a timer
// interrupt.
func (c *CLIC) ClearTime() {
	c.SetTime(0, 0)
}

// Time reads the 64 bit counter, retrying if the low half wrapped between
// the reads.
func (c *CLIC) Time() uint64 {
	for {
		hi := c.regs.Read(CLICTimeHiOffset)
		lo := c.regs.Read(CLICTimeLoOffset)
		if c.regs.Read(CLICTimeHiOffset) == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
	}
}
