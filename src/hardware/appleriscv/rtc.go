package appleriscv

import "appleriscv/src/hardware/mmio"

// RTC registers, relative to the always-on block.
const (
	RTCConfigOffset  = 0x40
	RTCLowOffset     = 0x48
	RTCHighOffset    = 0x4C
	RTCScaledOffset  = 0x50
	RTCCompareOffset = 0x60
)

const (
	rtcScaleMask      = 0xF
	rtcEnableAlways   = 1 << 12
	RTCComparePending = 1 << 28 //read only, set while count >= compare
)

// RTCConfig is the prescaler and enable of rtccfg.
type RTCConfig struct {
	Scale        uint8 //counter advances every 2^Scale ticks
	EnableAlways bool
}

func (c RTCConfig) Value() uint32 {
	v := uint32(c.Scale) & rtcScaleMask
	if c.EnableAlways {
		v |= rtcEnableAlways
	}
	return v
}

type RTC struct {
	regs mmio.Block
}

func NewRTC(bus mmio.Bus, b *Board) *RTC {
	return &RTC{regs: mmio.NewBlock(bus, b.RTC)}
}

func (r *RTC) SetCompare(v uint32) {
	r.regs.Write(RTCCompareOffset, v)
}

func (r *RTC) SetConfig(v uint32) {
	r.regs.Write(RTCConfigOffset, v)
}

// ClearCounter zeroes both counter halves, which also drops the compare
// interrupt.
func (r *RTC) ClearCounter() {
	r.regs.Write(RTCLowOffset, 0)
	r.regs.Write(RTCHighOffset, 0)
}

func (r *RTC) Pending() bool {
	return r.regs.Read(RTCConfigOffset)&RTCComparePending != 0
}
