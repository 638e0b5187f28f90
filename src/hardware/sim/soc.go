// Package sim is a behavioural model of the SoC for running the runtime on
// a host. It is a mmio.Bus: every load or store is one bus cycle and time
// only moves forward with bus traffic or Step, so spin loops terminate.
package sim

import (
	"sort"

	"appleriscv/src/hardware/appleriscv"
	"appleriscv/src/hardware/mmio"
)

type device interface {
	load(off uintptr) uint32
	store(off uintptr, v uint32)
	step()
}

type region struct {
	name string
	base uintptr
	size uintptr
	dev  device
}

// SoC routes bus accesses to the peripheral models. Addresses outside every
// block are plain RAM.
type SoC struct {
	Board *appleriscv.Board

	UART *UART
	GPIO *GPIO
	CLIC *CLIC //nil, with PLIC, when the board has no interrupt controllers
	PLIC *PLIC
	RTC  *RTC //nil when the board has none
	PWM  *PWM //nil when the board has none

	RAM     *mmio.Sim
	Trace   *Trace
	regions []region
	cycles  uint64
}

// New builds the model of b. Boards that fail Validate, overlapping
// windows among them, are refused.
func New(b *appleriscv.Board) (*SoC, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	s := &SoC{Board: b, RAM: mmio.NewSim()}
	s.UART = newUART(b)
	s.GPIO = newGPIO(b)
	devs := map[string]device{"uart": s.UART, "gpio": s.GPIO}
	if b.HasInterrupts() {
		s.CLIC = newCLIC()
		s.PLIC = newPLIC(s)
		devs["clic"], devs["plic"] = s.CLIC, s.PLIC
	}
	if b.RTC != 0 {
		s.RTC = newRTC()
		devs["rtc"] = s.RTC
	}
	if b.PWM != 0 {
		s.PWM = newPWM()
		devs["pwm"] = s.PWM
	}
	for _, w := range b.Windows() {
		s.regions = append(s.regions, region{name: w.Name, base: w.Base, size: w.Size, dev: devs[w.Name]})
	}
	return s, nil
}

func (s *SoC) find(addr uintptr) (device, uintptr) {
	i := sort.Search(len(s.regions), func(i int) bool {
		return s.regions[i].base+s.regions[i].size > addr
	})
	if i < len(s.regions) && addr >= s.regions[i].base {
		return s.regions[i].dev, addr - s.regions[i].base
	}
	return nil, 0
}

func (s *SoC) Load32(addr uintptr) uint32 {
	s.Step(1)
	if d, off := s.find(addr); d != nil {
		return d.load(off)
	}
	return s.RAM.Load32(addr)
}

func (s *SoC) Store32(addr uintptr, v uint32) {
	s.Step(1)
	if d, off := s.find(addr); d != nil {
		d.store(off, v)
		return
	}
	s.RAM.Store32(addr, v)
}

// Step advances every model n cycles.
func (s *SoC) Step(n int) {
	for i := 0; i < n; i++ {
		s.cycles++
		for _, r := range s.regions {
			r.dev.step()
		}
		if s.Trace != nil {
			s.Trace.sample(s.cycles, s.GPIO.Outputs())
		}
	}
}

func (s *SoC) Cycles() uint64 {
	return s.cycles
}

// ExternalPending is the PLIC's interrupt line to the core.
func (s *SoC) ExternalPending() bool {
	return s.PLIC != nil && s.PLIC.pending()&s.PLIC.enabled() != 0
}

func (s *SoC) SoftwarePending() bool {
	return s.CLIC != nil && s.CLIC.msip&1 != 0
}

func (s *SoC) TimerPending() bool {
	return s.CLIC != nil && s.CLIC.mtime >= s.CLIC.mtimecmp
}
