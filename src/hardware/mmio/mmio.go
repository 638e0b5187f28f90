// Package mmio is the register access layer: single loads and stores of 32 bit
// words at a peripheral base address plus an offset.
//
// Read and Write are one bus access each. SetBits, ClearBits and ReplaceBits
// are read-modify-write sequences and are NOT safe when an interrupt handler
// (or anything else) can touch the same register word between the read and
// the write.
package mmio

// Bus performs single, unelided 32 bit accesses. The real hardware bus is
// Metal; tests use Sim.
type Bus interface {
	Load32(addr uintptr) uint32
	Store32(addr uintptr, v uint32)
}

// Block is one peripheral register block: a fixed base address on a bus.
// Blocks are built once at boot and handed to the driver that owns them.
type Block struct {
	bus  Bus
	base uintptr
}

func NewBlock(bus Bus, base uintptr) Block {
	return Block{bus: bus, base: base}
}

func (b Block) Base() uintptr {
	return b.base
}

func (b Block) Bus() Bus {
	return b.bus
}

// Read is a single load of the register at off.
func (b Block) Read(off uintptr) uint32 {
	return b.bus.Load32(b.base + off)
}

// Write is a single store to the register at off.
func (b Block) Write(off uintptr, v uint32) {
	b.bus.Store32(b.base+off, v)
}

// HasBits is a single load; it reports whether all bits of mask are set.
func (b Block) HasBits(off uintptr, mask uint32) bool {
	return b.Read(off)&mask == mask
}

// SetBits ORs mask into the register. Read-modify-write, not interrupt safe.
func (b Block) SetBits(off uintptr, mask uint32) {
	b.Write(off, b.Read(off)|mask)
}

// ClearBits clears exactly the bits of mask, leaving the others alone.
// Read-modify-write, not interrupt safe.
func (b Block) ClearBits(off uintptr, mask uint32) {
	b.Write(off, b.Read(off)&^mask)
}

// ReplaceBits replaces the field mask<<shift with value<<shift.
// Read-modify-write, not interrupt safe.
func (b Block) ReplaceBits(off uintptr, value, mask uint32, shift uint) {
	v := b.Read(off) &^ (mask << shift)
	b.Write(off, v|(value&mask)<<shift)
}
