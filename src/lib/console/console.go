// Package console routes the standard file descriptors to the UART, the
// glue a C library or fmt needs for stdin, stdout and stderr.
package console

import (
	"errors"
	"io"
	"os"

	"appleriscv/src/hardware/riscv"
)

const (
	Stdin  = 0
	Stdout = 1
	Stderr = 2
)

var ErrBadFileDescriptor = errors.New("bad file descriptor")

// Terminal is the byte level serial port, appleriscv.UART on the board.
type Terminal interface {
	PutBytes(p []byte)
	GetByte() byte
}

type Console struct {
	term Terminal
}

func New(t Terminal) *Console {
	return &Console{term: t}
}

func isTerminal(fd int) bool {
	return fd == Stdin || fd == Stdout || fd == Stderr
}

// Write sends all of p, blocking until the UART has taken it.
func (c *Console) Write(fd int, p []byte) (int, error) {
	if !isTerminal(fd) {
		return 0, ErrBadFileDescriptor
	}
	c.term.PutBytes(p)
	return len(p), nil
}

// Read fills p from the UART until it is full or a newline arrives. The
// newline is stored but not counted. Other descriptors read as end of file.
func (c *Console) Read(fd int, p []byte) (int, error) {
	if !isTerminal(fd) {
		return 0, nil
	}
	for i := range p {
		b := c.term.GetByte()
		p[i] = b
		if b == '\n' {
			return i, nil
		}
	}
	return len(p), nil
}

// Close never succeeds, the terminal stays open.
func (c *Console) Close(fd int) error {
	return ErrBadFileDescriptor
}

func (c *Console) Fstat(fd int) (os.FileMode, error) {
	switch fd {
	case Stdout, Stderr:
		return os.ModeDevice | os.ModeCharDevice, nil
	}
	return 0, ErrBadFileDescriptor
}

// Writer is fd as an io.Writer.
func (c *Console) Writer(fd int) io.Writer {
	return fdWriter{c: c, fd: fd}
}

type fdWriter struct {
	c  *Console
	fd int
}

func (w fdWriter) Write(p []byte) (int, error) {
	return w.c.Write(w.fd, p)
}

// Times is the process time in units of 1024 cycles: the 64 bit cycle
// counter shifted right by 10, truncated to 32 bits.
func Times(c riscv.CSRs) uint32 {
	return c.Read(riscv.MCYCLEH)<<22 | c.Read(riscv.MCYCLE)>>10
}
