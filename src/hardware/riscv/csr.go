// Package riscv covers the machine-mode control and status registers the
// runtime touches, and the decoding of mcause.
package riscv

type CSR uint16

// Machine mode CSR numbers (privileged architecture manual, table 2.5).
const (
	MSTATUS       CSR = 0x300
	MIE           CSR = 0x304
	MTVEC         CSR = 0x305
	MCOUNTINHIBIT CSR = 0x320
	MEPC          CSR = 0x341
	MCAUSE        CSR = 0x342
	MTVAL         CSR = 0x343
	MIP           CSR = 0x344
	MCYCLE        CSR = 0xB00
	MHPMCOUNTER3  CSR = 0xB03
	MHPMCOUNTER4  CSR = 0xB04
	MCYCLEH       CSR = 0xB80
)

// mstatus
const MSTATUS_MIE = 1 << 3

// mie / mip
const (
	MIE_MSIE = 1 << 3
	MIE_MTIE = 1 << 7
	MIE_MEIE = 1 << 11

	MIP_MSIP = MIE_MSIE
	MIP_MTIP = MIE_MTIE
	MIP_MEIP = MIE_MEIE
)

// mcountinhibit bits for mhpmcounter3 and mhpmcounter4 (the branch counters
// on this core).
const BranchCounterMask = 1<<3 | 1<<4

// CSRs reads and writes control and status registers. SetBits and ClearBits
// map to csrs/csrc and are single instructions on the hardware.
type CSRs interface {
	Read(CSR) uint32
	Write(CSR, uint32)
	SetBits(CSR, uint32)
	ClearBits(CSR, uint32)
}

func (c CSR) String() string {
	switch c {
	case MSTATUS:
		return "mstatus"
	case MIE:
		return "mie"
	case MTVEC:
		return "mtvec"
	case MCOUNTINHIBIT:
		return "mcountinhibit"
	case MEPC:
		return "mepc"
	case MCAUSE:
		return "mcause"
	case MTVAL:
		return "mtval"
	case MIP:
		return "mip"
	case MCYCLE:
		return "mcycle"
	case MHPMCOUNTER3:
		return "mhpmcounter3"
	case MHPMCOUNTER4:
		return "mhpmcounter4"
	case MCYCLEH:
		return "mcycleh"
	}
	return "csr?"
}
