package riscv

import "fmt"

// Cause is the raw mcause value delivered at trap entry.
type Cause uint32

const (
	InterruptBit = 1 << 31
	CodeMask     = 0x7FFFFFFF
)

// Interrupt codes (cause with InterruptBit set).
const (
	MachineSoftwareInterrupt = 3
	MachineTimerInterrupt    = 7
	MachineExternalInterrupt = 11
)

// Exception codes (cause with InterruptBit clear).
const (
	InstructionAddressMisaligned = 0
	InstructionAccessFault       = 1
	IllegalInstruction           = 2
	Breakpoint                   = 3
	LoadAddressMisaligned        = 4
	LoadAccessFault              = 5
	StoreAddressMisaligned       = 6
	StoreAccessFault             = 7
	EnvironmentCallFromMMode     = 11
)

func (c Cause) IsInterrupt() bool {
	return c&InterruptBit != 0
}

func (c Cause) Code() uint32 {
	return uint32(c) & CodeMask
}

func (c Cause) String() string {
	if c.IsInterrupt() {
		switch c.Code() {
		case MachineSoftwareInterrupt:
			return "machine software interrupt"
		case MachineTimerInterrupt:
			return "machine timer interrupt"
		case MachineExternalInterrupt:
			return "machine external interrupt"
		}
		return fmt.Sprintf("interrupt %d", c.Code())
	}
	switch c.Code() {
	case InstructionAddressMisaligned:
		return "instruction address misaligned"
	case InstructionAccessFault:
		return "instruction access fault"
	case IllegalInstruction:
		return "illegal instruction"
	case Breakpoint:
		return "breakpoint"
	case LoadAddressMisaligned:
		return "load address misaligned"
	case LoadAccessFault:
		return "load access fault"
	case StoreAddressMisaligned:
		return "store address misaligned"
	case StoreAccessFault:
		return "store access fault"
	case EnvironmentCallFromMMode:
		return "environment call from M-mode"
	}
	return fmt.Sprintf("exception %d", c.Code())
}
