package upbeat

import (
	"appleriscv/src/hardware/riscv"
	"appleriscv/src/lib/trust"
)

func reportMisaligned(log *trust.Logger, f *Frame) {
	log.Errorf("Exception cause Load address misaligned")
	log.Errorf("Instruction pc     = %x", f.EPC)
	log.Errorf("Instruction        = %x", f.Instruction)
	log.Errorf("Misaligned address = %x", f.TVal)
}

func reportException(log *trust.Logger, f *Frame) {
	log.Errorf("Hit an exception: mcause = %x (%v)", uint32(f.Cause), f.Cause)
	log.Errorf("Instruction pc     = %x", f.EPC)
	log.Errorf("Instruction        = %x", f.Instruction)
	if f.Cause.Code() == riscv.IllegalInstruction || f.TVal != 0 {
		log.Errorf("mtval              = %x", f.TVal)
	}
}

// dumpAround prints the 16 byte line holding pc and its neighbours, at
// debug level only.
func dumpAround(p *Platform, pc uint32) {
	if p.Log.Level()&trust.DebugMask == 0 {
		return
	}
	start := pc&^0xF - 0x10
	for a := start; a < start+0x30; a += 0x10 {
		p.Log.Debugf("%08x: %08x %08x %08x %08x", a,
			p.FetchInstruction(a), p.FetchInstruction(a+4),
			p.FetchInstruction(a+8), p.FetchInstruction(a+12))
	}
}
