// Package appleriscv describes the AppleRISCV SoC: where each peripheral
// lives, how its registers are laid out, and typed drivers over them.
//
// Board revisions differ only in data (base addresses, register offsets, bit
// positions, clock); there is one driver per peripheral.
package appleriscv

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"sort"

	"gopkg.in/yaml.v2"
)

// Flag names one or more bits of one register. A zero Mask means the board
// does not have it.
type Flag struct {
	Offset uintptr `yaml:"offset"`
	Mask   uint32  `yaml:"mask"`
}

func (f Flag) Present() bool { return f.Mask != 0 }

// Field is a multi bit field: (register >> Shift) & Mask.
type Field struct {
	Offset uintptr `yaml:"offset"`
	Shift  uint    `yaml:"shift"`
	Mask   uint32  `yaml:"mask"`
}

func (f Field) Present() bool { return f.Mask != 0 }

type UARTLayout struct {
	TxData             uintptr `yaml:"txdata"`
	RxData             uintptr `yaml:"rxdata"`
	Divider            uintptr `yaml:"divider"`
	TxFull             Flag    `yaml:"txfull"`  //set while the transmit FIFO is full
	RxValid            Flag    `yaml:"rxvalid"` //set while a received byte is waiting
	TxEnable           Flag    `yaml:"txenable"`
	RxEnable           Flag    `yaml:"rxenable"`
	TwoStopBits        Flag    `yaml:"twostop"`
	TxWatermark        Field   `yaml:"txwatermark"`
	RxWatermark        Field   `yaml:"rxwatermark"`
	DataLength         Field   `yaml:"datalength"` //holds data bits - 1
	RxInterruptEnable  Flag    `yaml:"rxie"`
	RxInterruptPending Flag    `yaml:"rxip"`
}

type GPIOLayout struct {
	Input        uintptr `yaml:"input"`
	Output       uintptr `yaml:"output"`
	OutputEnable uintptr `yaml:"outputenable"`
	Interrupts   bool    `yaml:"interrupts"` //false: no edge/level registers below
	RiseIE       uintptr `yaml:"riseie"`
	RiseIP       uintptr `yaml:"riseip"`
	FallIE       uintptr `yaml:"fallie"`
	FallIP       uintptr `yaml:"fallip"`
	HighIE       uintptr `yaml:"highie"`
	HighIP       uintptr `yaml:"highip"`
	LowIE        uintptr `yaml:"lowie"`
	LowIP        uintptr `yaml:"lowip"`
}

// Serial is the default frame and rate programmed by UART.Init.
type Serial struct {
	BaudRate   uint32 `yaml:"baud"`
	Oversample uint32 `yaml:"oversample"`
	StopBits   int    `yaml:"stopbits"`
	DataBits   int    `yaml:"databits"`
	Watermark  uint32 `yaml:"watermark"`
}

// Board is the fixed platform table: peripheral bases, clock and layouts.
// A zero base means the peripheral is not fitted.
type Board struct {
	Name    string `yaml:"name"`
	ClockHz uint32 `yaml:"clock"`

	CLIC uintptr `yaml:"clic"`
	PLIC uintptr `yaml:"plic"`
	RTC  uintptr `yaml:"rtc"`
	GPIO uintptr `yaml:"gpio"`
	UART uintptr `yaml:"uart"`
	PWM  uintptr `yaml:"pwm"`

	GPIOLines       int  `yaml:"gpiolines"`
	TrapVectorShift uint `yaml:"trapvectorshift"`
	BranchCounters  bool `yaml:"branchcounters"`

	Serial     Serial     `yaml:"serial"`
	UARTLayout UARTLayout `yaml:"uartlayout"`
	GPIOLayout GPIOLayout `yaml:"gpiolayout"`
}

// Default is the current SoC revision.
var Default = Board{
	Name:    "appleriscv",
	ClockHz: 100000000,

	CLIC: 0x02000000,
	PLIC: 0x0C000000,
	RTC:  0x10000000, //always-on block
	GPIO: 0x10012000,
	UART: 0x10013000,
	PWM:  0x10015000,

	GPIOLines:       32,
	TrapVectorShift: 2,
	BranchCounters:  true,

	Serial: Serial{
		BaudRate:   115200,
		Oversample: 8,
		StopBits:   1,
		DataBits:   8,
		Watermark:  7,
	},
	UARTLayout: UARTLayout{
		TxData:             0x00,
		RxData:             0x04,
		Divider:            0x18,
		TxFull:             Flag{0x00, 1 << 31},
		RxValid:            Flag{0x04, 1 << 31},
		TxEnable:           Flag{0x08, 1 << 0},
		RxEnable:           Flag{0x0C, 1 << 0},
		TwoStopBits:        Flag{0x08, 1 << 1},
		TxWatermark:        Field{0x08, 16, 0x7},
		RxWatermark:        Field{0x0C, 16, 0x7},
		RxInterruptEnable:  Flag{0x10, 1 << 1},
		RxInterruptPending: Flag{0x14, 1 << 1},
	},
	GPIOLayout: GPIOLayout{
		Input:        0x00,
		OutputEnable: 0x08,
		Output:       0x0C,
		Interrupts:   true,
		RiseIE:       0x18,
		RiseIP:       0x1C,
		FallIE:       0x20,
		FallIP:       0x24,
		HighIE:       0x28,
		HighIP:       0x2C,
		LowIE:        0x30,
		LowIP:        0x34,
	},
}

// Legacy is the first board revision: a control/frame/status UART and a
// plain GPIO port. Its timer and interrupt blocks do not fit the CLIC and
// PLIC register maps (their windows would cover the UART and GPIO), so the
// table has neither and the runtime leaves interrupts off on this board.
var Legacy = Board{
	Name:    "appleriscv-legacy",
	ClockHz: 50000000,

	GPIO: 0x02004000,
	UART: 0x02003000,

	GPIOLines:       32,
	TrapVectorShift: 2,

	Serial: Serial{
		BaudRate:   115200,
		Oversample: 8,
		StopBits:   1,
		DataBits:   8,
	},
	UARTLayout: UARTLayout{
		TxData:            0x0C,
		RxData:            0x0C,
		Divider:           0x08,
		TxFull:            Flag{0x10, 1 << 4},
		RxValid:           Flag{0x10, 1 << 0},
		TxEnable:          Flag{0x00, 1 << 5},
		RxEnable:          Flag{0x00, 1 << 4},
		TwoStopBits:       Flag{0x04, 1 << 3},
		DataLength:        Field{0x04, 0, 0x7},
		RxInterruptEnable: Flag{0x00, 1 << 0},
		//rx avail doubles as the pending flag
		RxInterruptPending: Flag{0x10, 1 << 0},
	},
	GPIOLayout: GPIOLayout{
		Input:        0x0,
		Output:       0x0,
		OutputEnable: 0x4,
	},
}

var ErrBadBoard = errors.New("bad board description")

// Validate catches tables that would program nonsense into the hardware.
func (b *Board) Validate() error {
	switch {
	case b.ClockHz == 0:
		return fmt.Errorf("%w: %s: zero clock", ErrBadBoard, b.Name)
	case b.Serial.BaudRate == 0 || b.Serial.Oversample == 0:
		return fmt.Errorf("%w: %s: zero baud rate or oversampling factor", ErrBadBoard, b.Name)
	case b.Serial.StopBits != 1 && b.Serial.StopBits != 2:
		return fmt.Errorf("%w: %s: %d stop bits", ErrBadBoard, b.Name, b.Serial.StopBits)
	case b.GPIOLines < 0 || b.GPIOLines > MaxGPIOLines:
		return fmt.Errorf("%w: %s: %d gpio lines (max %d)", ErrBadBoard, b.Name, b.GPIOLines, MaxGPIOLines)
	case b.UART == 0:
		return fmt.Errorf("%w: %s: no uart, the runtime needs one", ErrBadBoard, b.Name)
	case (b.CLIC == 0) != (b.PLIC == 0):
		return fmt.Errorf("%w: %s: clic and plic come as a pair", ErrBadBoard, b.Name)
	case b.GPIOLines > 0 && b.GPIO == 0:
		return fmt.Errorf("%w: %s: %d gpio lines but no gpio block", ErrBadBoard, b.Name, b.GPIOLines)
	}
	w := b.Windows()
	for i := 1; i < len(w); i++ {
		if prev, cur := w[i-1], w[i]; prev.Base+prev.Size > cur.Base {
			return fmt.Errorf("%w: %s: %s at %#x runs into %s at %#x",
				ErrBadBoard, b.Name, prev.Name, prev.Base, cur.Name, cur.Base)
		}
	}
	return nil
}

// HasInterrupts is true when the board has the CLIC and PLIC.
func (b *Board) HasInterrupts() bool {
	return b.CLIC != 0 && b.PLIC != 0
}

// GPIOSource is GPIOSource limited to the lines this board has.
func (b *Board) GPIOSource(line int) Source {
	if line < 0 || line >= b.GPIOLines {
		panic(fmt.Sprintf("%s: no gpio line %d (%d lines)", b.Name, line, b.GPIOLines))
	}
	return GPIOSource(line)
}

// HasGPIOLine reports whether line exists on this board.
func (b *Board) HasGPIOLine(line int) bool {
	return line >= 0 && line < b.GPIOLines
}

// Register window sizes, enough to cover every register the drivers touch.
const (
	CLICWindow       = 0x10000
	PLICWindow       = 0x3000
	PeripheralWindow = 0x1000
)

// Window is the address range a fitted peripheral answers to.
type Window struct {
	Name string
	Base uintptr
	Size uintptr
}

// Windows lists the fitted peripherals in address order.
func (b *Board) Windows() []Window {
	var w []Window
	add := func(name string, base, size uintptr) {
		if base != 0 {
			w = append(w, Window{name, base, size})
		}
	}
	add("clic", b.CLIC, CLICWindow)
	add("plic", b.PLIC, PLICWindow)
	add("rtc", b.RTC, PeripheralWindow)
	add("gpio", b.GPIO, PeripheralWindow)
	add("uart", b.UART, PeripheralWindow)
	add("pwm", b.PWM, PeripheralWindow)
	sort.Slice(w, func(i, j int) bool { return w[i].Base < w[j].Base })
	return w
}

// LoadBoard reads a YAML description. Keys that are absent keep the value
// of the board named by "base" (default or legacy), or Default.
func LoadBoard(r io.Reader) (*Board, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading board: %w", err)
	}
	var hdr struct {
		Base string `yaml:"base"`
	}
	if err := yaml.Unmarshal(raw, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBoard, err)
	}
	var b Board
	switch hdr.Base {
	case "", "default":
		b = Default
	case "legacy":
		b = Legacy
	default:
		return nil, fmt.Errorf("%w: unknown base board %q", ErrBadBoard, hdr.Base)
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBoard, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
