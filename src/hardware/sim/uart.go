package sim

import "appleriscv/src/hardware/appleriscv"

// DefaultTxCycles is how long the transmitter stays full after taking a
// byte.
const DefaultTxCycles = 4

// UART models either board's serial port from its layout table. The
// transmit FIFO holds one byte, received bytes queue without limit.
type UART struct {
	layout   appleriscv.UARTLayout
	regs     map[uintptr]uint32
	busy     int
	TxCycles int

	tx []byte
	rx []byte
	// Dropped counts bytes written while the transmitter was full.
	Dropped int
}

func newUART(b *appleriscv.Board) *UART {
	return &UART{layout: b.UARTLayout, regs: make(map[uintptr]uint32), TxCycles: DefaultTxCycles}
}

// Receive queues bytes as if they arrived on the rx pin.
func (u *UART) Receive(p []byte) {
	u.rx = append(u.rx, p...)
}

// Transmitted is everything sent so far.
func (u *UART) Transmitted() []byte {
	return u.tx
}

func (u *UART) Waiting() int {
	return len(u.rx)
}

func (u *UART) Divider() uint32 {
	return u.regs[u.layout.Divider]
}

func (u *UART) field(f appleriscv.Field) uint32 {
	return u.regs[f.Offset] >> f.Shift & f.Mask
}

func (u *UART) enabled(f appleriscv.Flag) bool {
	return u.regs[f.Offset]&f.Mask != 0
}

// rxPending is the receive watermark condition: more bytes queued than the
// watermark level.
func (u *UART) rxPending() bool {
	if u.layout.RxWatermark.Present() {
		return uint32(len(u.rx)) > u.field(u.layout.RxWatermark)
	}
	return len(u.rx) > 0
}

func (u *UART) irq() bool {
	l := u.layout
	return l.RxInterruptEnable.Present() && u.enabled(l.RxInterruptEnable) && u.rxPending()
}

func with(v uint32, f appleriscv.Flag, on bool) uint32 {
	if on {
		return v | f.Mask
	}
	return v &^ f.Mask
}

func (u *UART) load(off uintptr) uint32 {
	l := u.layout
	v := u.regs[off]
	if off == l.RxData {
		v = 0
		if len(u.rx) > 0 && u.enabled(l.RxEnable) {
			v = uint32(u.rx[0])
			u.rx = u.rx[1:]
			if l.RxValid.Offset == off {
				v |= l.RxValid.Mask
			}
		}
		if l.TxFull.Offset == off {
			v = with(v, l.TxFull, u.busy > 0)
		}
		return v
	}
	if off == l.TxData {
		v = 0
	}
	if off == l.TxFull.Offset {
		v = with(v, l.TxFull, u.busy > 0)
	}
	if off == l.RxValid.Offset {
		v = with(v, l.RxValid, len(u.rx) > 0)
	}
	if l.RxInterruptPending.Present() && off == l.RxInterruptPending.Offset {
		v = with(v, l.RxInterruptPending, u.rxPending())
	}
	return v
}

func (u *UART) store(off uintptr, v uint32) {
	if off == u.layout.TxData {
		if u.busy > 0 || !u.enabled(u.layout.TxEnable) {
			u.Dropped++
			return
		}
		u.tx = append(u.tx, byte(v))
		u.busy = u.TxCycles
		return
	}
	u.regs[off] = v
}

func (u *UART) step() {
	if u.busy > 0 {
		u.busy--
	}
}
