package uartdl

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	tty "github.com/mattn/go-tty"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const DefaultBaud = 115200

// PortNames maps a board to the USB product string of its serial bridge.
var PortNames = map[string]string{
	"arty": "Digilent USB Device",
	"de2":  "USB-Serial Controller",
}

var (
	ErrUnknownBoard = errors.New("unknown board")
	ErrNoPort       = errors.New("no serial port found")
)

// Boards is the sorted list of boards FindPort knows.
func Boards() []string {
	var b []string
	for k := range PortNames {
		b = append(b, k)
	}
	sort.Strings(b)
	return b
}

func matchPort(ports []*enumerator.PortDetails, product string) (string, bool) {
	for _, p := range ports {
		if p.IsUSB && strings.Contains(p.Product, product) {
			return p.Name, true
		}
	}
	return "", false
}

// FindPort looks for the serial bridge of board among the attached USB
// devices.
func FindPort(board string) (string, error) {
	product, ok := PortNames[board]
	if !ok {
		return "", fmt.Errorf("%w %q (have %s)", ErrUnknownBoard, board, strings.Join(Boards(), ", "))
	}
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("listing serial ports: %w", err)
	}
	name, ok := matchPort(ports, product)
	if !ok {
		return "", fmt.Errorf("%w for %s (looking for %q)", ErrNoPort, board, product)
	}
	return name, nil
}

// Link is where the framed image goes.
type Link interface {
	io.Writer
	Close() error
}

// OpenSerial opens a serial port at baud, 8N1.
func OpenSerial(name string, baud int) (Link, error) {
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return p, nil
}

type ttyLink struct {
	t       *tty.TTY
	restore func() error
}

// OpenTTY opens a terminal device (a pty from a simulator, say) in raw mode.
func OpenTTY(path string) (Link, error) {
	t, err := tty.OpenDevice(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &ttyLink{t: t, restore: t.MustRaw()}, nil
}

func (l *ttyLink) Write(p []byte) (int, error) {
	return l.t.Output().Write(p)
}

func (l *ttyLink) Close() error {
	rerr := l.restore()
	if err := l.t.Close(); err != nil {
		return err
	}
	return rerr
}

// Send writes the framed image in chunks, calling progress after each one
// when it is not nil.
func Send(w io.Writer, im *Image, chunk int, progress func(sent, total int)) (int, error) {
	p := Frame(im.Data)
	if chunk <= 0 {
		chunk = len(p)
	}
	sent := 0
	for sent < len(p) {
		end := sent + chunk
		if end > len(p) {
			end = len(p)
		}
		n, err := w.Write(p[sent:end])
		sent += n
		if err != nil {
			return sent, err
		}
		if progress != nil {
			progress(sent, len(p))
		}
	}
	return sent, nil
}
