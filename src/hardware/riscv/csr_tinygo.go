//go:build tinygo && riscv
// +build tinygo,riscv

package riscv

import "device/riscv"

// Metal accesses the CSRs of the running hart. CSR numbers are immediates in
// the instruction encoding, hence one asm string per register.
type Metal struct{}

func (Metal) Read(c CSR) uint32 {
	switch c {
	case MSTATUS:
		return uint32(riscv.AsmFull("csrr {}, mstatus", nil))
	case MIE:
		return uint32(riscv.AsmFull("csrr {}, mie", nil))
	case MTVEC:
		return uint32(riscv.AsmFull("csrr {}, mtvec", nil))
	case MCOUNTINHIBIT:
		return uint32(riscv.AsmFull("csrr {}, mcountinhibit", nil))
	case MEPC:
		return uint32(riscv.AsmFull("csrr {}, mepc", nil))
	case MCAUSE:
		return uint32(riscv.AsmFull("csrr {}, mcause", nil))
	case MTVAL:
		return uint32(riscv.AsmFull("csrr {}, mtval", nil))
	case MIP:
		return uint32(riscv.AsmFull("csrr {}, mip", nil))
	case MCYCLE:
		return uint32(riscv.AsmFull("csrr {}, mcycle", nil))
	case MHPMCOUNTER3:
		return uint32(riscv.AsmFull("csrr {}, mhpmcounter3", nil))
	case MHPMCOUNTER4:
		return uint32(riscv.AsmFull("csrr {}, mhpmcounter4", nil))
	case MCYCLEH:
		return uint32(riscv.AsmFull("csrr {}, mcycleh", nil))
	}
	return 0
}

func (Metal) Write(c CSR, v uint32) {
	r := map[string]interface{}{"v": v}
	switch c {
	case MSTATUS:
		riscv.AsmFull("csrw mstatus, {v}", r)
	case MIE:
		riscv.AsmFull("csrw mie, {v}", r)
	case MTVEC:
		riscv.AsmFull("csrw mtvec, {v}", r)
	case MCOUNTINHIBIT:
		riscv.AsmFull("csrw mcountinhibit, {v}", r)
	case MEPC:
		riscv.AsmFull("csrw mepc, {v}", r)
	case MCAUSE:
		riscv.AsmFull("csrw mcause, {v}", r)
	case MTVAL:
		riscv.AsmFull("csrw mtval, {v}", r)
	case MIP:
		riscv.AsmFull("csrw mip, {v}", r)
	case MHPMCOUNTER3:
		riscv.AsmFull("csrw mhpmcounter3, {v}", r)
	case MHPMCOUNTER4:
		riscv.AsmFull("csrw mhpmcounter4, {v}", r)
	}
}

func (Metal) SetBits(c CSR, mask uint32) {
	r := map[string]interface{}{"m": mask}
	switch c {
	case MSTATUS:
		riscv.AsmFull("csrs mstatus, {m}", r)
	case MIE:
		riscv.AsmFull("csrs mie, {m}", r)
	case MCOUNTINHIBIT:
		riscv.AsmFull("csrs mcountinhibit, {m}", r)
	case MIP:
		riscv.AsmFull("csrs mip, {m}", r)
	default:
		Metal{}.Write(c, Metal{}.Read(c)|mask)
	}
}

func (Metal) ClearBits(c CSR, mask uint32) {
	r := map[string]interface{}{"m": mask}
	switch c {
	case MSTATUS:
		riscv.AsmFull("csrc mstatus, {m}", r)
	case MIE:
		riscv.AsmFull("csrc mie, {m}", r)
	case MCOUNTINHIBIT:
		riscv.AsmFull("csrc mcountinhibit, {m}", r)
	case MIP:
		riscv.AsmFull("csrc mip, {m}", r)
	default:
		Metal{}.Write(c, Metal{}.Read(c)&^mask)
	}
}

// WaitForInterrupt parks the hart until an interrupt is pending.
func WaitForInterrupt() {
	riscv.Asm("wfi")
}
