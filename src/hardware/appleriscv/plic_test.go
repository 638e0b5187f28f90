package appleriscv

import (
	"testing"

	"appleriscv/src/hardware/mmio"
)

func TestSourceRouting(t *testing.T) {
	tests := []struct {
		src     Source
		pending uintptr
		enable  uintptr
		bit     uint32
	}{
		{SourceRTC, PLICPending1Offset, PLICEnable1Offset, 1 << 2},
		{SourceUART0, PLICPending1Offset, PLICEnable1Offset, 1 << 3},
		{GPIOSource(0), PLICPending1Offset, PLICEnable1Offset, 1 << 8},
		{GPIOSource(23), PLICPending1Offset, PLICEnable1Offset, 1 << 31},
		{GPIOSource(24), PLICPending2Offset, PLICEnable2Offset, 1 << 0},
		{GPIOSource(31), PLICPending2Offset, PLICEnable2Offset, 1 << 7},
		{MaxSource, PLICPending2Offset, PLICEnable2Offset, 1 << 31},
	}
	for _, tc := range tests {
		p, e, b := tc.src.pair()
		if p != tc.pending || e != tc.enable || b != tc.bit {
			t.Errorf("%v: expected %#x/%#x bit %#x but got %#x/%#x bit %#x", tc.src, tc.pending, tc.enable, tc.bit, p, e, b)
		}
	}
}

func TestSourceOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for source 64")
		}
	}()
	NewPLIC(mmio.NewSim(), &Default).Enable(MaxSource + 1)
}

func TestGPIOLine(t *testing.T) {
	if l, ok := GPIOSource(30).GPIOLine(); !ok || l != 30 {
		t.Errorf("expected line 30 but got %d %v", l, ok)
	}
	if _, ok := SourceUART0.GPIOLine(); ok {
		t.Errorf("uart0 is not a gpio line")
	}
}

// wirePLIC makes the PLIC pending words follow the gpio and rtc pending
// state, the way the SoC does.
func wirePLIC(s *mmio.Sim, b *Board) {
	l := b.GPIOLayout
	gpioPending := func() uint64 {
		v := s.Peek(b.GPIO+l.RiseIP) | s.Peek(b.GPIO+l.FallIP) |
			s.Peek(b.GPIO+l.HighIP) | s.Peek(b.GPIO+l.LowIP)
		return uint64(v) << gpioSourceBase
	}
	rtcPending := func() uint64 {
		if s.Peek(b.RTC+RTCLowOffset) != 0 || s.Peek(b.RTC+RTCHighOffset) != 0 {
			return 1 << SourceRTC
		}
		return 0
	}
	s.OnRead(b.PLIC+PLICPending1Offset, func(uint32) uint32 {
		return uint32(gpioPending() | rtcPending())
	})
	s.OnRead(b.PLIC+PLICPending2Offset, func(uint32) uint32 {
		return uint32((gpioPending() | rtcPending()) >> 32)
	})
	for _, off := range []uintptr{l.RiseIP, l.FallIP, l.HighIP, l.LowIP} {
		s.OnWrite(b.GPIO+off, mmio.WriteOneToClear)
	}
}

func TestPendingLifecycle(t *testing.T) {
	b := Default
	for _, line := range []int{4, 23, 24, 31} {
		s := mmio.NewSim()
		wirePLIC(s, &b)
		plic := NewPLIC(s, &b)
		gpio := NewGPIO(s, &b)
		src := GPIOSource(line)

		plic.Enable(src)
		if !plic.IsEnabled(src) {
			t.Errorf("line %d: not enabled after Enable", line)
		}
		if plic.IsPending(src) {
			t.Errorf("line %d: pending before anything happened", line)
		}
		s.Poke(b.GPIO+b.GPIOLayout.RiseIP, 1<<uint(line))
		if !plic.IsPending(src) {
			t.Errorf("line %d: not pending after a rising edge", line)
		}
		if gpio.Pending() != 1<<uint(line) {
			t.Errorf("line %d: gpio pending %x", line, gpio.Pending())
		}
		gpio.ClearPending(1 << uint(line))
		if plic.IsPending(src) {
			t.Errorf("line %d: still pending after acknowledge", line)
		}
		plic.Disable(src)
		if plic.Enabled() != 0 {
			t.Errorf("line %d: enable words %x after Disable", line, plic.Enabled())
		}
	}
}

func TestRTCPendingLifecycle(t *testing.T) {
	b := Default
	s := mmio.NewSim()
	wirePLIC(s, &b)
	plic := NewPLIC(s, &b)
	rtc := NewRTC(s, &b)
	plic.Enable(SourceRTC)
	if plic.IsPending(SourceRTC) {
		t.Errorf("rtc pending at start")
	}
	s.Poke(b.RTC+RTCLowOffset, 99)
	if !plic.IsPending(SourceRTC) || plic.Pending() != 1<<SourceRTC {
		t.Errorf("rtc not pending, pending words %x", plic.Pending())
	}
	rtc.ClearCounter()
	if plic.IsPending(SourceRTC) {
		t.Errorf("rtc pending after ClearCounter")
	}
}

func TestDisableLeavesOtherSources(t *testing.T) {
	s := mmio.NewSim()
	plic := NewPLIC(s, &Default)
	plic.Enable(SourceUART0)
	plic.Enable(SourceRTC)
	plic.Enable(GPIOSource(30))
	plic.Disable(SourceRTC)
	want := uint64(1)<<SourceUART0 | uint64(1)<<GPIOSource(30)
	if plic.Enabled() != want {
		t.Errorf("expected enable words %x but got %x", want, plic.Enabled())
	}
}
