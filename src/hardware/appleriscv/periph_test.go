package appleriscv

import (
	"errors"
	"strings"
	"testing"

	"appleriscv/src/hardware/mmio"
)

func TestGPIOLegacyShareRegister(t *testing.T) {
	s := mmio.NewSim()
	b := Legacy
	g := NewGPIO(s, &b)
	g.Enable(0xF)
	g.Write(0x5)
	if s.Peek(b.GPIO+0x4) != 0xF || s.Peek(b.GPIO) != 0x5 {
		t.Errorf("legacy gpio: enable %x value %x", s.Peek(b.GPIO+0x4), s.Peek(b.GPIO))
	}
	if g.Read() != 0x5 {
		t.Errorf("legacy gpio reads back its own value register, got %x", g.Read())
	}
	if g.HasInterrupts() || g.Pending() != 0 {
		t.Errorf("legacy gpio has no interrupt registers")
	}
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic enabling edge interrupts on the legacy port")
		}
	}()
	g.EnableRise(1)
}

func TestGPIOInterruptEnables(t *testing.T) {
	s := mmio.NewSim()
	b := Default
	g := NewGPIO(s, &b)
	g.EnableRise(0x1)
	g.EnableFall(0x2)
	g.EnableHigh(0x4)
	g.EnableLow(0x8)
	g.EnableRise(0x10)
	if got := s.Peek(b.GPIO + 0x18); got != 0x11 {
		t.Errorf("rise_ie: expected 11 but got %x", got)
	}
	g.DisableInterrupts(0x1 | 0x8)
	for off, want := range map[uintptr]uint32{0x18: 0x10, 0x20: 0x2, 0x28: 0x4, 0x30: 0} {
		if got := s.Peek(b.GPIO + off); got != want {
			t.Errorf("ie at %#x: expected %x but got %x", off, want, got)
		}
	}
}

func TestCLIC(t *testing.T) {
	s := mmio.NewSim()
	b := Default
	c := NewCLIC(s, &b)
	c.TriggerSoftware()
	if !c.SoftwarePending() {
		t.Errorf("msip not set after TriggerSoftware")
	}
	c.ClearSoftware()
	if c.SoftwarePending() {
		t.Errorf("msip set after ClearSoftware")
	}
	c.SetTimerCompare(0x1000, 0x2)
	hi := s.Writes(b.CLIC + CLICTimerCompareHiOffset)
	if len(hi) != 2 || hi[0] != 0xFFFFFFFF || hi[1] != 2 {
		t.Errorf("mtimecmp hi writes %v", hi)
	}
	if s.Peek(b.CLIC+CLICTimerCompareLoOffset) != 0x1000 {
		t.Errorf("mtimecmp lo %x", s.Peek(b.CLIC+CLICTimerCompareLoOffset))
	}
	c.SetTime(5, 6)
	if c.Time() != 6<<32|5 {
		t.Errorf("expected time 6:5 but got %x", c.Time())
	}
	c.ClearTime()
	if c.Time() != 0 {
		t.Errorf("time not cleared")
	}
}

func TestRTCConfig(t *testing.T) {
	tests := []struct {
		cfg  RTCConfig
		want uint32
	}{
		{RTCConfig{}, 0},
		{RTCConfig{Scale: 15, EnableAlways: true}, 0x100F},
		{RTCConfig{Scale: 0x12}, 0x2},
	}
	for _, tc := range tests {
		if got := tc.cfg.Value(); got != tc.want {
			t.Errorf("%+v: expected %x but got %x", tc.cfg, tc.want, got)
		}
	}
	s := mmio.NewSim()
	r := NewRTC(s, &Default)
	r.SetConfig(RTCConfig{Scale: 4, EnableAlways: true}.Value())
	r.SetCompare(32768)
	if s.Peek(Default.RTC+RTCConfigOffset) != 0x1004 || s.Peek(Default.RTC+RTCCompareOffset) != 32768 {
		t.Errorf("rtc registers not written")
	}
}

func TestPWM(t *testing.T) {
	cfg := PWMConfig{Scale: 3, ZeroCompare: true, EnableAlways: true, Center: 0x1, Gang: 0x2}
	if got, want := cfg.Value(), uint32(3|1<<9|1<<12|1<<16|2<<24); got != want {
		t.Errorf("pwmcfg: expected %x but got %x", want, got)
	}
	s := mmio.NewSim()
	p := NewPWM(s, &Default)
	p.Configure(cfg)
	for ch := 0; ch < PWMChannels; ch++ {
		p.SetCompare(ch, uint32(100*(ch+1)))
	}
	for ch := 0; ch < PWMChannels; ch++ {
		if got := s.Peek(Default.PWM + 0x20 + uintptr(ch)*4); got != uint32(100*(ch+1)) {
			t.Errorf("cmp%d: %d", ch, got)
		}
	}
	s.Poke(Default.PWM+PWMCountOffset, 77)
	p.ClearCounter()
	if s.Peek(Default.PWM+PWMCountOffset) != 0 {
		t.Errorf("count not cleared")
	}
}

func TestLoadBoard(t *testing.T) {
	b, err := LoadBoard(strings.NewReader("name: arty\nclock: 0x3B9ACA0\nserial:\n  baud: 9600\n  oversample: 16\n  stopbits: 2\n  databits: 8\n  watermark: 1\n"))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if b.Name != "arty" || b.ClockHz != 62500000 || b.Serial.BaudRate != 9600 {
		t.Errorf("overlay not applied: %+v", b)
	}
	if b.UART != Default.UART || b.UARTLayout != Default.UARTLayout {
		t.Errorf("keys not in the overlay should keep the default board")
	}

	b, err = LoadBoard(strings.NewReader("base: legacy\nname: de2\n"))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if b.GPIO != Legacy.GPIO || b.PLIC != 0 || b.RTC != 0 {
		t.Errorf("legacy base not used: %+v", b)
	}

	for _, bad := range []string{
		"base: vax\n",
		"clock: 0\n",
		"gpiolines: 40\n",
		"plic: 0x10013800\n",
		"clic: 0\n",
		"gpio: 0\n",
		"base: legacy\nplic: 0x02001000\nclic: 0x02000000\n",
		"serial: [1, 2]\n",
	} {
		if _, err := LoadBoard(strings.NewReader(bad)); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}

func TestValidateWindows(t *testing.T) {
	for _, b := range []Board{Default, Legacy} {
		if err := b.Validate(); err != nil {
			t.Errorf("%s: unexpected error %v", b.Name, err)
		}
	}

	//the first revision's controller addresses would cover its uart and gpio
	b := Legacy
	b.CLIC, b.PLIC = 0x02000000, 0x02001000
	err := b.Validate()
	if !errors.Is(err, ErrBadBoard) || !strings.Contains(err.Error(), "runs into") {
		t.Errorf("expected overlapping windows to be refused but got %v", err)
	}

	w := Legacy.Windows()
	if len(w) != 2 || w[0].Name != "uart" || w[1].Name != "gpio" {
		t.Errorf("legacy windows %+v", w)
	}
	if Legacy.HasInterrupts() || !Default.HasInterrupts() {
		t.Errorf("interrupt controllers: legacy %v default %v", Legacy.HasInterrupts(), Default.HasInterrupts())
	}
}

func TestBoardGPIOLines(t *testing.T) {
	b := Default
	b.GPIOLines = 8
	if !b.HasGPIOLine(7) || b.HasGPIOLine(8) || b.HasGPIOLine(-1) {
		t.Errorf("line bounds wrong for %d lines", b.GPIOLines)
	}
	if b.GPIOSource(7) != GPIOSource(7) {
		t.Errorf("expected %v but got %v", GPIOSource(7), b.GPIOSource(7))
	}
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for line 8 of 8")
		}
	}()
	b.GPIOSource(8)
}
