package upbeat

import (
	"appleriscv/src/hardware/appleriscv"
	"appleriscv/src/hardware/riscv"
)

// Frame is what an exception handler sees of a trap. It lives for one
// dispatch only.
type Frame struct {
	Cause       riscv.Cause
	EPC         uint32 //return address, a handler may move it
	TVal        uint32 //mtval: faulting address for misaligned loads
	Instruction uint32 //word at EPC when the trap was taken
}

// ExceptionHandler returns true to resume at f.EPC and false to halt.
type ExceptionHandler func(p *Platform, f *Frame) bool

// Handlers is the slot table, one entry per trap classification. A nil
// slot gets the default. The table is copied when the Runtime is built and
// cannot be changed afterwards.
type Handlers struct {
	Software func(p *Platform)
	Timer    func(p *Platform)
	// External replaces the PLIC fan-out below entirely.
	External    func(p *Platform)
	UARTReceive func(p *Platform)
	GPIO        func(p *Platform, line int)
	RTC         func(p *Platform)

	LoadMisaligned ExceptionHandler
	// Fatal gets every exception without a slot of its own. The processor
	// halts when it returns.
	Fatal func(p *Platform, f *Frame)
}

// DefaultHandlers is the table with every slot at its default.
func DefaultHandlers() Handlers {
	return Handlers{
		Software:       DefaultSoftware,
		Timer:          DefaultTimer,
		UARTReceive:    DefaultUARTReceive,
		GPIO:           DefaultGPIO,
		RTC:            DefaultRTC,
		LoadMisaligned: DefaultLoadMisaligned,
		Fatal:          DefaultFatal,
	}
}

// resolve fills the nil slots. External stays nil when not overridden, the
// runtime then does the fan-out using the other slots.
func (h Handlers) resolve() Handlers {
	d := DefaultHandlers()
	if h.Software == nil {
		h.Software = d.Software
	}
	if h.Timer == nil {
		h.Timer = d.Timer
	}
	if h.UARTReceive == nil {
		h.UARTReceive = d.UARTReceive
	}
	if h.GPIO == nil {
		h.GPIO = d.GPIO
	}
	if h.RTC == nil {
		h.RTC = d.RTC
	}
	if h.LoadMisaligned == nil {
		h.LoadMisaligned = d.LoadMisaligned
	}
	if h.Fatal == nil {
		h.Fatal = d.Fatal
	}
	return h
}

func DefaultSoftware(p *Platform) {
	p.CLIC.ClearSoftware()
}

func DefaultTimer(p *Platform) {
	p.CLIC.ClearTime()
}

// DefaultUARTReceive empties the receive FIFO so the watermark drops.
func DefaultUARTReceive(p *Platform) {
	if !p.UART.RxPending() {
		p.Log.Debugf("uart0: interrupt with the fifo under the watermark")
		return
	}
	n := p.UART.Drain()
	p.Log.Debugf("uart0: dropped %d received bytes", n)
}

func DefaultGPIO(p *Platform, line int) {
	p.GPIO.ClearPending(1 << uint(line))
}

func DefaultRTC(p *Platform) {
	p.RTC.ClearCounter()
}

// DefaultLoadMisaligned reports the fault and halts.
func DefaultLoadMisaligned(p *Platform, f *Frame) bool {
	reportMisaligned(p.Log, f)
	return false
}

func DefaultFatal(p *Platform, f *Frame) {
	reportException(p.Log, f)
	dumpAround(p, f.EPC)
}

// fanOut delivers each pending and enabled source to its slot, in the order
// rtc, uart0, then gpio lines ascending. Lines past the board's count have
// no slot.
func (r *Runtime) fanOut() {
	p := r.platform
	active := SourceSet(p.PLIC.Pending() & p.PLIC.Enabled())
	if active.Empty() {
		p.Log.Debugf("external interrupt with nothing pending")
		return
	}
	if active.On(appleriscv.SourceRTC) {
		active.Clear(appleriscv.SourceRTC)
		if p.RTC != nil {
			r.handlers.RTC(p)
		}
	}
	if active.On(appleriscv.SourceUART0) {
		active.Clear(appleriscv.SourceUART0)
		r.handlers.UARTReceive(p)
	}
	active.Each(func(src appleriscv.Source) {
		line, ok := src.GPIOLine()
		if !ok || p.GPIO == nil || !p.Board.HasGPIOLine(line) {
			p.Log.Warnf("external interrupt from %v has no handler", src)
			return
		}
		r.handlers.GPIO(p, line)
	})
}
