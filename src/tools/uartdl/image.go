// Package uartdl loads a program image and pushes it to the board's boot
// ROM loader over a serial line.
//
// The loader expects the raw ROM contents, the whole ROM, wrapped in a
// start marker (FF FF FF FF) and a stop marker (FE FF FF FF).
package uartdl

import (
	"bufio"
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marcinbor85/gohex"
)

// DefaultBase is where the instruction ROM sits in the address map seen by
// the toolchain.
const DefaultBase = 0x20000000

var (
	ErrOutOfRange = errors.New("address outside the rom")
	ErrBadLine    = errors.New("bad memory file line")
	ErrNotELF     = errors.New("file is not elf format")
	ErrNoLoadable = errors.New("no loadable segment in elf file")
)

// Image is the full ROM content; bytes never written are zero.
type Image struct {
	Base uint32
	Data []byte
}

func NewImage(base uint32, size int) *Image {
	return &Image{Base: base, Data: make([]byte, size)}
}

// put copies p to addr, an absolute address.
func (im *Image) put(addr uint32, p []byte) error {
	if addr < im.Base || uint64(addr-im.Base)+uint64(len(p)) > uint64(len(im.Data)) {
		return fmt.Errorf("%w: %d bytes at %#x (rom is %#x+%#x)", ErrOutOfRange, len(p), addr, im.Base, len(im.Data))
	}
	copy(im.Data[addr-im.Base:], p)
	return nil
}

// ReadVerilogMem reads a $readmemh style file: "@addr" lines move the
// write pointer (an absolute hex address), other lines are space separated
// hex bytes stored one after another.
func ReadVerilogMem(r io.Reader, base uint32, size int) (*Image, error) {
	im := NewImage(base, size)
	addr := base
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if line[0] == '@' {
			a, err := strconv.ParseUint(line[1:], 16, 32)
			if err != nil {
				return nil, fmt.Errorf("%w %d: %q", ErrBadLine, n, line)
			}
			addr = uint32(a)
			continue
		}
		fields := strings.Fields(line)
		buf := make([]byte, 0, len(fields))
		for _, f := range fields {
			b, err := strconv.ParseUint(f, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("%w %d: %q", ErrBadLine, n, f)
			}
			buf = append(buf, byte(b))
		}
		if err := im.put(addr, buf); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		addr += uint32(len(buf))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return im, nil
}

// ReadIntelHex reads an Intel HEX file.
func ReadIntelHex(r io.Reader, base uint32, size int) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("intel hex: %w", err)
	}
	im := NewImage(base, size)
	for _, seg := range mem.GetDataSegments() {
		if err := im.put(seg.Address, seg.Data); err != nil {
			return nil, err
		}
	}
	return im, nil
}

// ReadELF loads the PT_LOAD segments of an elf file by physical address.
// Bytes past the file size of a segment (bss) stay zero.
func ReadELF(r io.ReaderAt, base uint32, size int) (*Image, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		var fe *elf.FormatError
		if errors.As(err, &fe) {
			return nil, ErrNotELF
		}
		return nil, err
	}
	defer f.Close()
	im := NewImage(base, size)
	loaded := 0
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD || p.Filesz == 0 {
			continue
		}
		data := make([]byte, p.Filesz)
		if _, err := p.ReadAt(data, 0); err != nil {
			return nil, fmt.Errorf("reading segment at %#x: %w", p.Paddr, err)
		}
		if err := im.put(uint32(p.Paddr), data); err != nil {
			return nil, err
		}
		loaded++
	}
	if loaded == 0 {
		return nil, ErrNoLoadable
	}
	return im, nil
}

// Load picks the reader from the content (elf magic) or the file extension
// (.hex and .ihex are Intel HEX, anything else a verilog memory file).
func Load(path string, base uint32, size int) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(raw, []byte(elf.ELFMAG)):
		return ReadELF(bytes.NewReader(raw), base, size)
	case strings.EqualFold(filepath.Ext(path), ".hex"), strings.EqualFold(filepath.Ext(path), ".ihex"):
		return ReadIntelHex(bytes.NewReader(raw), base, size)
	}
	return ReadVerilogMem(bytes.NewReader(raw), base, size)
}
