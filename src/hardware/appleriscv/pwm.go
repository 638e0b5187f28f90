package appleriscv

import (
	"fmt"

	"appleriscv/src/hardware/mmio"
)

const (
	PWMConfigOffset   = 0x00
	PWMCountOffset    = 0x08
	PWMScaledOffset   = 0x10
	PWMCompare0Offset = 0x20

	PWMChannels = 4
)

// PWMConfig is pwmcfg. Center and Gang hold one bit per compare channel.
type PWMConfig struct {
	Scale         uint8
	Sticky        bool
	ZeroCompare   bool
	Deglitch      bool
	EnableAlways  bool
	EnableOneShot bool
	Center        uint8
	Gang          uint8
}

func flag(b bool, bit uint) uint32 {
	if b {
		return 1 << bit
	}
	return 0
}

func (c PWMConfig) Value() uint32 {
	return uint32(c.Scale)&0xF |
		flag(c.Sticky, 8) |
		flag(c.ZeroCompare, 9) |
		flag(c.Deglitch, 10) |
		flag(c.EnableAlways, 12) |
		flag(c.EnableOneShot, 13) |
		(uint32(c.Center)&0xF)<<16 |
		(uint32(c.Gang)&0xF)<<24
}

type PWM struct {
	regs mmio.Block
}

func NewPWM(bus mmio.Bus, b *Board) *PWM {
	return &PWM{regs: mmio.NewBlock(bus, b.PWM)}
}

func (p *PWM) Configure(c PWMConfig) {
	p.regs.Write(PWMConfigOffset, c.Value())
}

// SetCompare writes the compare register of channel 0..3.
func (p *PWM) SetCompare(channel int, v uint32) {
	if channel < 0 || channel >= PWMChannels {
		panic(fmt.Sprintf("pwm: no compare channel %d", channel))
	}
	p.regs.Write(PWMCompare0Offset+uintptr(channel)*4, v)
}

func (p *PWM) ClearCounter() {
	p.regs.Write(PWMCountOffset, 0)
}
