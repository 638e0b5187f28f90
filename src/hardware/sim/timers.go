package sim

import "appleriscv/src/hardware/appleriscv"

// CLIC holds msip and the machine timer. mtime counts bus cycles.
type CLIC struct {
	msip     uint32
	mtime    uint64
	mtimecmp uint64
}

func newCLIC() *CLIC {
	return &CLIC{mtimecmp: ^uint64(0)}
}

func (c *CLIC) Time() uint64 {
	return c.mtime
}

func setLo(v uint64, lo uint32) uint64 { return v&^0xFFFFFFFF | uint64(lo) }
func setHi(v uint64, hi uint32) uint64 { return v&0xFFFFFFFF | uint64(hi)<<32 }

func (c *CLIC) load(off uintptr) uint32 {
	switch off {
	case appleriscv.CLICSoftwareOffset:
		return c.msip
	case appleriscv.CLICTimerCompareLoOffset:
		return uint32(c.mtimecmp)
	case appleriscv.CLICTimerCompareHiOffset:
		return uint32(c.mtimecmp >> 32)
	case appleriscv.CLICTimeLoOffset:
		return uint32(c.mtime)
	case appleriscv.CLICTimeHiOffset:
		return uint32(c.mtime >> 32)
	}
	return 0
}

func (c *CLIC) store(off uintptr, v uint32) {
	switch off {
	case appleriscv.CLICSoftwareOffset:
		c.msip = v & 1
	case appleriscv.CLICTimerCompareLoOffset:
		c.mtimecmp = setLo(c.mtimecmp, v)
	case appleriscv.CLICTimerCompareHiOffset:
		c.mtimecmp = setHi(c.mtimecmp, v)
	case appleriscv.CLICTimeLoOffset:
		c.mtime = setLo(c.mtime, v)
	case appleriscv.CLICTimeHiOffset:
		c.mtime = setHi(c.mtime, v)
	}
}

func (c *CLIC) step() {
	c.mtime++
}

// RTC is the always-on counter: a 48 bit count, a scaled view of it and a
// compare that raises the interrupt while scaled >= compare.
type RTC struct {
	cfg   uint32
	count uint64
	cmp   uint32
}

func newRTC() *RTC {
	return &RTC{cmp: ^uint32(0)}
}

func (r *RTC) scaled() uint32 {
	return uint32(r.count >> (r.cfg & 0xF))
}

func (r *RTC) irq() bool {
	return r.scaled() >= r.cmp
}

func (r *RTC) load(off uintptr) uint32 {
	switch off {
	case appleriscv.RTCConfigOffset:
		v := r.cfg &^ appleriscv.RTCComparePending
		if r.irq() {
			v |= appleriscv.RTCComparePending
		}
		return v
	case appleriscv.RTCLowOffset:
		return uint32(r.count)
	case appleriscv.RTCHighOffset:
		return uint32(r.count>>32) & 0xFFFF
	case appleriscv.RTCScaledOffset:
		return r.scaled()
	case appleriscv.RTCCompareOffset:
		return r.cmp
	}
	return 0
}

func (r *RTC) store(off uintptr, v uint32) {
	switch off {
	case appleriscv.RTCConfigOffset:
		r.cfg = v &^ appleriscv.RTCComparePending
	case appleriscv.RTCLowOffset:
		r.count = setLo(r.count, v)
	case appleriscv.RTCHighOffset:
		r.count = setHi(r.count, v&0xFFFF)
	case appleriscv.RTCCompareOffset:
		r.cmp = v
	}
}

func (r *RTC) step() {
	if r.cfg&(1<<12) != 0 {
		r.count = (r.count + 1) & (1<<48 - 1)
	}
}

// PWM counts while enabled and resets on compare 0 when zerocmp is set.
// Output(ch) is high while the scaled count is at or past compare ch.
type PWM struct {
	cfg   uint32
	count uint32
	cmp   [appleriscv.PWMChannels]uint32
}

func newPWM() *PWM {
	return &PWM{}
}

func (p *PWM) scaled() uint32 {
	return p.count >> (p.cfg & 0xF) & 0xFFFF
}

func (p *PWM) Output(ch int) bool {
	return p.scaled() >= p.cmp[ch]&0xFFFF
}

func (p *PWM) load(off uintptr) uint32 {
	switch {
	case off == appleriscv.PWMConfigOffset:
		return p.cfg
	case off == appleriscv.PWMCountOffset:
		return p.count
	case off == appleriscv.PWMScaledOffset:
		return p.scaled()
	case off >= appleriscv.PWMCompare0Offset && off < appleriscv.PWMCompare0Offset+4*appleriscv.PWMChannels:
		return p.cmp[(off-appleriscv.PWMCompare0Offset)/4]
	}
	return 0
}

func (p *PWM) store(off uintptr, v uint32) {
	switch {
	case off == appleriscv.PWMConfigOffset:
		p.cfg = v
	case off == appleriscv.PWMCountOffset:
		p.count = v
	case off >= appleriscv.PWMCompare0Offset && off < appleriscv.PWMCompare0Offset+4*appleriscv.PWMChannels:
		p.cmp[(off-appleriscv.PWMCompare0Offset)/4] = v
	}
}

func (p *PWM) step() {
	const enAlways, zeroCmp = 1 << 12, 1 << 9
	if p.cfg&enAlways == 0 {
		return
	}
	p.count++
	if p.cfg&zeroCmp != 0 && p.scaled() >= p.cmp[0]&0xFFFF {
		p.count = 0
	}
}
