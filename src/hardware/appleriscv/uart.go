package appleriscv

import "appleriscv/src/hardware/mmio"

// Divider is the value for the baud divider register. Integer division, no
// rounding: 100MHz, 8x oversampling and 115200 baud give 108.
func Divider(clockHz, oversample, baud uint32) uint32 {
	return clockHz / oversample / baud
}

// UART is the board's serial port. Transmit and receive are polled and
// block until the FIFO has room or a byte has arrived.
type UART struct {
	regs   mmio.Block
	layout UARTLayout
	serial Serial
	clock  uint32
}

func NewUART(bus mmio.Bus, b *Board) *UART {
	return &UART{
		regs:   mmio.NewBlock(bus, b.UART),
		layout: b.UARTLayout,
		serial: b.Serial,
		clock:  b.ClockHz,
	}
}

// Init programs the divider and frame and turns on both directions.
func (u *UART) Init() {
	l := &u.layout
	u.regs.Write(l.Divider, Divider(u.clock, u.serial.Oversample, u.serial.BaudRate))
	if l.DataLength.Present() && u.serial.DataBits > 0 {
		u.regs.ReplaceBits(l.DataLength.Offset, uint32(u.serial.DataBits-1), l.DataLength.Mask, l.DataLength.Shift)
	}
	if l.TwoStopBits.Present() {
		if u.serial.StopBits == 2 {
			u.regs.SetBits(l.TwoStopBits.Offset, l.TwoStopBits.Mask)
		} else {
			u.regs.ClearBits(l.TwoStopBits.Offset, l.TwoStopBits.Mask)
		}
	}
	if l.TxWatermark.Present() {
		u.regs.ReplaceBits(l.TxWatermark.Offset, u.serial.Watermark, l.TxWatermark.Mask, l.TxWatermark.Shift)
	}
	if l.RxWatermark.Present() {
		u.regs.ReplaceBits(l.RxWatermark.Offset, u.serial.Watermark, l.RxWatermark.Mask, l.RxWatermark.Shift)
	}
	u.regs.SetBits(l.TxEnable.Offset, l.TxEnable.Mask)
	u.regs.SetBits(l.RxEnable.Offset, l.RxEnable.Mask)
}

func (u *UART) TxFull() bool {
	return u.regs.Read(u.layout.TxFull.Offset)&u.layout.TxFull.Mask != 0
}

// PutByte waits for room in the transmit FIFO, then stores b exactly once.
func (u *UART) PutByte(b byte) {
	for u.TxFull() {
	}
	u.regs.Write(u.layout.TxData, uint32(b))
}

func (u *UART) PutBytes(p []byte) {
	for _, b := range p {
		u.PutByte(b)
	}
}

func (u *UART) PutString(s string) {
	for i := 0; i < len(s); i++ {
		u.PutByte(s[i])
	}
}

// TryGetByte makes one attempt at reading a received byte.
func (u *UART) TryGetByte() (byte, bool) {
	l := &u.layout
	if l.RxValid.Offset == l.RxData {
		//valid flag and data share a word, one load reads both
		v := u.regs.Read(l.RxData)
		if v&l.RxValid.Mask == 0 {
			return 0, false
		}
		return byte(v), true
	}
	if u.regs.Read(l.RxValid.Offset)&l.RxValid.Mask == 0 {
		return 0, false
	}
	return byte(u.regs.Read(l.RxData)), true
}

// GetByte blocks until a byte is received.
func (u *UART) GetByte() byte {
	for {
		if b, ok := u.TryGetByte(); ok {
			return b
		}
	}
}

// Drain reads and discards everything in the receive FIFO and says how many
// bytes that was.
func (u *UART) Drain() int {
	n := 0
	for {
		if _, ok := u.TryGetByte(); !ok {
			return n
		}
		n++
	}
}

func (u *UART) EnableRxInterrupt() {
	if u.layout.RxInterruptEnable.Present() {
		u.regs.SetBits(u.layout.RxInterruptEnable.Offset, u.layout.RxInterruptEnable.Mask)
	}
}

func (u *UART) DisableRxInterrupt() {
	if u.layout.RxInterruptEnable.Present() {
		u.regs.ClearBits(u.layout.RxInterruptEnable.Offset, u.layout.RxInterruptEnable.Mask)
	}
}

// RxPending reports the receive watermark interrupt.
func (u *UART) RxPending() bool {
	p := u.layout.RxInterruptPending
	return p.Present() && u.regs.Read(p.Offset)&p.Mask != 0
}
