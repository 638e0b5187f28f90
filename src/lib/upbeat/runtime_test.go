package upbeat

import (
	"bytes"
	"strings"
	"testing"

	"appleriscv/src/hardware/appleriscv"
	"appleriscv/src/hardware/mmio"
	"appleriscv/src/hardware/riscv"
	"appleriscv/src/lib/trust"
)

type fakeMachine struct {
	halts int
}

func (m *fakeMachine) Halt() { m.halts++ }

type rig struct {
	bus  *mmio.Sim
	csrs *riscv.SimCSRs
	m    *fakeMachine
	log  bytes.Buffer
	p    *Platform
}

func newRig(b appleriscv.Board) *rig {
	r := &rig{bus: mmio.NewSim(), csrs: riscv.NewSimCSRs(), m: &fakeMachine{}}
	board := b
	r.p = NewPlatform(&board, r.bus, r.csrs, r.m, trust.NewLogger(&r.log))
	return r
}

// calls records which slots ran, in order.
type calls []string

func (c *calls) table() Handlers {
	return Handlers{
		Software:    func(*Platform) { *c = append(*c, "software") },
		Timer:       func(*Platform) { *c = append(*c, "timer") },
		UARTReceive: func(*Platform) { *c = append(*c, "uart") },
		RTC:         func(*Platform) { *c = append(*c, "rtc") },
		GPIO: func(_ *Platform, line int) {
			*c = append(*c, "gpio"+string(rune('0'+line/10))+string(rune('0'+line%10)))
		},
		LoadMisaligned: func(*Platform, *Frame) bool { *c = append(*c, "misaligned"); return false },
		Fatal:          func(*Platform, *Frame) { *c = append(*c, "fatal") },
	}
}

func running(t *testing.T, r *rig, h Handlers) *Runtime {
	t.Helper()
	rt := New(r.p, h)
	rt.Init(0x100)
	if rt.State() != Running {
		t.Fatalf("expected running after Init but got %v", rt.State())
	}
	r.log.Reset()
	return rt
}

func TestInitRegisters(t *testing.T) {
	r := newRig(appleriscv.Default)
	rt := New(r.p, Handlers{})
	if rt.State() != Reset {
		t.Errorf("new runtime in state %v", rt.State())
	}
	r.csrs.Write(riscv.MCOUNTINHIBIT, 0x1)
	r.csrs.Write(riscv.MHPMCOUNTER3, 55)
	rt.Init(0x20000100)

	if got := r.csrs.Read(riscv.MTVEC); got != 0x20000100<<2 {
		t.Errorf("mtvec: expected %x but got %x", uint32(0x20000100<<2), got)
	}
	if got := r.csrs.Read(riscv.MSTATUS); got&0x8 == 0 {
		t.Errorf("mstatus.MIE not set: %x", got)
	}
	if got := r.csrs.Read(riscv.MIE); got != 0x888 {
		t.Errorf("mie: expected 888 but got %x", got)
	}
	if got := r.csrs.Read(riscv.MCOUNTINHIBIT); got != 0x19 {
		t.Errorf("mcountinhibit: expected 19 but got %x", got)
	}
	if b, m := rt.BranchCounters(); b != 0 || m != 0 {
		t.Errorf("branch counters not zeroed: %d %d", b, m)
	}
	w := r.csrs.Writes(riscv.MCOUNTINHIBIT)
	if len(w) != 3 || w[1] != 0x1 || w[2] != 0x19 {
		t.Errorf("mcountinhibit sequence %x", w)
	}
	if got := r.bus.Peek(appleriscv.Default.UART + 0x18); got != 108 {
		t.Errorf("uart divider: expected 108 but got %d", got)
	}
	rt.StopBranchCounters()
	if got := r.csrs.Read(riscv.MCOUNTINHIBIT); got != 0x1 {
		t.Errorf("after stop: expected 1 but got %x", got)
	}
}

func TestInitLegacySkipsCounters(t *testing.T) {
	r := newRig(appleriscv.Legacy)
	New(r.p, Handlers{}).Init(0x40)
	if len(r.csrs.Writes(riscv.MCOUNTINHIBIT)) != 0 {
		t.Errorf("legacy board has no branch counters")
	}
	if r.p.RTC != nil || r.p.PWM != nil {
		t.Errorf("legacy board has no rtc or pwm")
	}
}

func TestInitLegacyLeavesPeripheralsAlone(t *testing.T) {
	b := appleriscv.Legacy
	r := newRig(b)
	var c calls
	rt := New(r.p, c.table())
	rt.Init(0x40)

	if r.p.CLIC != nil || r.p.PLIC != nil {
		t.Fatalf("legacy platform has interrupt controller handles")
	}
	if got := r.bus.Peek(b.UART + 0x00); got != 1<<4|1<<5 {
		t.Errorf("uart control: expected %x but got %x", 1<<4|1<<5, got)
	}
	for off := uintptr(0); off < 0x40; off += 4 {
		if n := len(r.bus.Writes(b.GPIO + off)); n != 0 {
			t.Errorf("gpio+%x written %d times during init", off, n)
		}
	}
	if len(r.csrs.Writes(riscv.MIE)) != 0 || len(r.csrs.Writes(riscv.MSTATUS)) != 0 {
		t.Errorf("interrupts turned on: mie %x mstatus %x", r.csrs.Writes(riscv.MIE), r.csrs.Writes(riscv.MSTATUS))
	}
	if got := r.csrs.Read(riscv.MTVEC); got != 0x40<<2 {
		t.Errorf("mtvec: expected %x but got %x", 0x40<<2, got)
	}

	r.log.Reset()
	for _, cause := range []uint32{0x80000003, 0x80000007, 0x8000000B} {
		rt.Dispatch(cause, 0)
	}
	if len(c) != 0 {
		t.Errorf("interrupt slots ran on a board without controllers: %v", c)
	}
	if !strings.Contains(r.log.String(), "has no interrupt controllers") {
		t.Errorf("log: %q", r.log.String())
	}
}

func TestInitTwicePanics(t *testing.T) {
	r := newRig(appleriscv.Default)
	rt := New(r.p, Handlers{})
	rt.Init(0)
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic")
		}
	}()
	rt.Init(0)
}

func TestInterruptSlots(t *testing.T) {
	tests := []struct {
		cause uint32
		want  string
	}{
		{0x80000003, "software"},
		{0x80000007, "timer"},
		{0x80000005, ""},
	}
	for _, tc := range tests {
		r := newRig(appleriscv.Default)
		var c calls
		rt := running(t, r, c.table())
		if pc := rt.Dispatch(tc.cause, 0x1234); pc != 0x1234 {
			t.Errorf("%x: interrupt moved the pc to %x", tc.cause, pc)
		}
		got := strings.Join(c, ",")
		if got != tc.want {
			t.Errorf("%x: expected slots %q but got %q", tc.cause, tc.want, got)
		}
		if rt.State() != Running {
			t.Errorf("%x: expected running but got %v", tc.cause, rt.State())
		}
		if r.m.halts != 0 {
			t.Errorf("%x: interrupt halted the machine", tc.cause)
		}
	}
}

func TestUnknownInterruptWarns(t *testing.T) {
	r := newRig(appleriscv.Default)
	rt := running(t, r, Handlers{})
	rt.Dispatch(0x80000009, 0)
	if !strings.Contains(r.log.String(), "WARN:ignoring interrupt 9") {
		t.Errorf("log: %q", r.log.String())
	}
}

func TestDefaultTimerAcknowledges(t *testing.T) {
	r := newRig(appleriscv.Default)
	rt := running(t, r, Handlers{})
	b := appleriscv.Default
	r.bus.Poke(b.CLIC+appleriscv.CLICTimeLoOffset, 500)
	r.bus.Poke(b.CLIC+appleriscv.CLICTimeHiOffset, 1)
	r.bus.Poke(b.CLIC+appleriscv.CLICSoftwareOffset, 1)
	rt.Dispatch(0x80000007, 0)
	if r.bus.Peek(b.CLIC+appleriscv.CLICTimeLoOffset) != 0 || r.bus.Peek(b.CLIC+appleriscv.CLICTimeHiOffset) != 0 {
		t.Errorf("timer not cleared")
	}
	if r.bus.Peek(b.CLIC+appleriscv.CLICSoftwareOffset) != 1 {
		t.Errorf("timer interrupt touched msip")
	}
	rt.Dispatch(0x80000003, 0)
	if r.bus.Peek(b.CLIC+appleriscv.CLICSoftwareOffset) != 0 {
		t.Errorf("software interrupt not cleared")
	}
}

func TestExternalFanOut(t *testing.T) {
	r := newRig(appleriscv.Default)
	var c calls
	rt := running(t, r, c.table())
	b := appleriscv.Default
	pending := uint64(1)<<appleriscv.GPIOSource(30) | uint64(1)<<appleriscv.GPIOSource(1) |
		uint64(1)<<appleriscv.SourceUART0 | uint64(1)<<appleriscv.SourceRTC
	r.bus.Poke(b.PLIC+appleriscv.PLICPending1Offset, uint32(pending))
	r.bus.Poke(b.PLIC+appleriscv.PLICPending2Offset, uint32(pending>>32))
	for _, s := range []appleriscv.Source{appleriscv.SourceUART0, appleriscv.GPIOSource(1), appleriscv.GPIOSource(30)} {
		r.p.PLIC.Enable(s)
	}
	rt.Dispatch(0x8000000B, 0)
	if got := strings.Join(c, ","); got != "uart,gpio01,gpio30" {
		t.Errorf("expected uart,gpio01,gpio30 (rtc not enabled) but got %q", got)
	}
}

func TestExternalOverride(t *testing.T) {
	r := newRig(appleriscv.Default)
	n := 0
	rt := running(t, r, Handlers{External: func(*Platform) { n++ }})
	r.bus.Poke(appleriscv.Default.PLIC+appleriscv.PLICPending1Offset, 0xFFFFFFFF)
	r.bus.Poke(appleriscv.Default.PLIC+appleriscv.PLICEnable1Offset, 0xFFFFFFFF)
	rt.Dispatch(0x8000000B, 0)
	if n != 1 {
		t.Errorf("external slot ran %d times", n)
	}
}

func TestFanOutStopsAtBoardLines(t *testing.T) {
	b := appleriscv.Default
	b.GPIOLines = 4
	r := newRig(b)
	var c calls
	rt := running(t, r, c.table())
	pending := uint64(1)<<appleriscv.GPIOSource(3) | uint64(1)<<appleriscv.GPIOSource(20)
	r.bus.Poke(b.PLIC+appleriscv.PLICPending1Offset, uint32(pending))
	r.bus.Poke(b.PLIC+appleriscv.PLICEnable1Offset, uint32(pending))
	rt.Dispatch(0x8000000B, 0)
	if got := strings.Join(c, ","); got != "gpio03" {
		t.Errorf("expected only gpio03 but got %q", got)
	}
	if !strings.Contains(r.log.String(), "external interrupt from gpio20 has no handler") {
		t.Errorf("log: %q", r.log.String())
	}

	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for a line the board does not have")
		}
	}()
	b.GPIOSource(20)
}

func TestDefaultUARTReceiveNeedsPending(t *testing.T) {
	b := appleriscv.Default
	r := newRig(b)
	rt := running(t, r, Handlers{})
	l := b.UARTLayout
	r.bus.Poke(b.PLIC+appleriscv.PLICPending1Offset, 1<<appleriscv.SourceUART0)
	r.bus.Poke(b.PLIC+appleriscv.PLICEnable1Offset, 1<<appleriscv.SourceUART0)
	r.bus.Poke(b.UART+l.RxData, l.RxValid.Mask|'a')

	rt.Dispatch(0x8000000B, 0)
	if r.bus.Reads(b.UART+l.RxData) != 0 {
		t.Errorf("fifo read below the watermark")
	}

	r.bus.Poke(b.UART+l.RxInterruptPending.Offset, l.RxInterruptPending.Mask)
	n := 0
	r.bus.OnRead(b.UART+l.RxData, func(uint32) uint32 {
		n++
		if n > 3 {
			return 0
		}
		return l.RxValid.Mask | 'a'
	})
	rt.Dispatch(0x8000000B, 0)
	if n != 4 {
		t.Errorf("expected the fifo drained (3 bytes and an empty read) but saw %d reads", n)
	}
}

func TestMisalignedHalts(t *testing.T) {
	r := newRig(appleriscv.Default)
	rt := running(t, r, Handlers{})
	r.csrs.Write(riscv.MTVAL, 0x80001002)
	r.bus.Poke(0x400, 0x00412083)
	if pc := rt.Dispatch(0x00000004, 0x400); pc != 0x400 {
		t.Errorf("expected pc 400 but got %x", pc)
	}
	if rt.State() != Halted || r.m.halts != 1 {
		t.Errorf("expected halted once but state %v halts %d", rt.State(), r.m.halts)
	}
	want := "ERROR:Exception cause Load address misaligned\n" +
		"ERROR:Instruction pc     = 400\n" +
		"ERROR:Instruction        = 412083\n" +
		"ERROR:Misaligned address = 80001002\n"
	if !strings.HasPrefix(r.log.String(), want) {
		t.Errorf("expected diagnostics\n%s\nbut got\n%s", want, r.log.String())
	}

	//halted is terminal
	if pc := rt.Dispatch(0x80000007, 0x999); pc != 0x999 || rt.State() != Halted || r.m.halts != 1 {
		t.Errorf("dispatch after halt: pc %x state %v halts %d", pc, rt.State(), r.m.halts)
	}
}

func TestMisalignedSlotOnly(t *testing.T) {
	r := newRig(appleriscv.Default)
	var c calls
	rt := running(t, r, c.table())
	rt.Dispatch(0x00000004, 0x10)
	if got := strings.Join(c, ","); got != "misaligned" {
		t.Errorf("expected only the misaligned slot but got %q", got)
	}
	if rt.State() != Halted {
		t.Errorf("expected halted but got %v", rt.State())
	}
}

func TestMisalignedResume(t *testing.T) {
	r := newRig(appleriscv.Default)
	rt := running(t, r, Handlers{
		LoadMisaligned: func(_ *Platform, f *Frame) bool {
			f.EPC += 4
			return true
		},
	})
	if pc := rt.Dispatch(0x4, 0x200); pc != 0x204 {
		t.Errorf("expected resume at 204 but got %x", pc)
	}
	if rt.State() != Running || r.m.halts != 0 {
		t.Errorf("state %v halts %d", rt.State(), r.m.halts)
	}
}

func TestOtherExceptionsAreFatal(t *testing.T) {
	r := newRig(appleriscv.Default)
	var c calls
	rt := running(t, r, c.table())
	rt.Dispatch(0x00000002, 0x80)
	if got := strings.Join(c, ","); got != "fatal" {
		t.Errorf("expected fatal slot but got %q", got)
	}
	if rt.State() != Halted || r.m.halts != 1 {
		t.Errorf("state %v halts %d", rt.State(), r.m.halts)
	}

	r = newRig(appleriscv.Default)
	rt = running(t, r, Handlers{})
	rt.Dispatch(0x00000007, 0x80)
	if !strings.Contains(r.log.String(), "ERROR:Hit an exception: mcause = 7 (store access fault)") {
		t.Errorf("log: %q", r.log.String())
	}
}

func TestSourceSet(t *testing.T) {
	var s SourceSet
	s.Set(appleriscv.SourceRTC)
	s.Set(appleriscv.GPIOSource(31))
	if !s.On(appleriscv.SourceRTC) || s.On(appleriscv.SourceUART0) {
		t.Errorf("membership wrong: %x", uint64(s))
	}
	var got []appleriscv.Source
	s.Each(func(src appleriscv.Source) { got = append(got, src) })
	if len(got) != 2 || got[0] != 2 || got[1] != 39 {
		t.Errorf("each: %v", got)
	}
	s.Clear(appleriscv.SourceRTC)
	s.Clear(appleriscv.GPIOSource(31))
	if !s.Empty() {
		t.Errorf("not empty after clearing")
	}
}
