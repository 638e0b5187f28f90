//go:build tinygo && riscv
// +build tinygo,riscv

package upbeat

import (
	"unsafe"

	"appleriscv/src/hardware/appleriscv"
	"appleriscv/src/hardware/mmio"
	"appleriscv/src/hardware/riscv"
	"appleriscv/src/lib/console"
	"appleriscv/src/lib/trust"
)

// trap_entry is the assembly vector in the board's start files. It saves
// the caller saved registers, calls trap_handler(mcause, mepc), writes the
// result to mepc and returns with mret.
//go:extern trap_entry
var trapEntry [0]uintptr

type metal struct{}

func (metal) Halt() {
	riscv.Metal{}.ClearBits(riscv.MSTATUS, riscv.MSTATUS_MIE)
	for {
		riscv.WaitForInterrupt()
	}
}

var installed *Runtime

// Boot brings the board up on the real bus with the given handler table.
// The logger writes to the uart console and halts on Fatalf.
func Boot(b *appleriscv.Board, h Handlers) *Runtime {
	bus := mmio.Metal{}
	p := NewPlatform(b, bus, riscv.Metal{}, metal{}, trust.Default)
	trust.Default.SetOutput(console.New(p.UART).Writer(console.Stdout))
	trust.Default.SetExit(func(int) { metal{}.Halt() })

	installed = New(p, h)
	installed.Init(uintptr(unsafe.Pointer(&trapEntry)))
	return installed
}

//export trap_handler
func trapHandler(cause, epc uint32) uint32 {
	return installed.Dispatch(cause, epc)
}
