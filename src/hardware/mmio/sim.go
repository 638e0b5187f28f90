package mmio

// ReadHook sees the stored word and returns what the bus read yields.
type ReadHook func(stored uint32) uint32

// WriteHook sees the stored word and the written value and returns the word
// to store.
type WriteHook func(stored, written uint32) uint32

// Sim is a simulated memory-mapped backing store. Unwritten words read as
// zero. Hooks let a test give a register side effects (busy flags that clear
// after some polls, write-1-to-clear bits, and so on). Sim is not safe for
// concurrent use, same as the hardware it stands in for.
type Sim struct {
	words      map[uintptr]uint32
	readHooks  map[uintptr]ReadHook
	writeHooks map[uintptr]WriteHook
	reads      map[uintptr]int
	writes     map[uintptr][]uint32
}

func NewSim() *Sim {
	return &Sim{
		words:      make(map[uintptr]uint32),
		readHooks:  make(map[uintptr]ReadHook),
		writeHooks: make(map[uintptr]WriteHook),
		reads:      make(map[uintptr]int),
		writes:     make(map[uintptr][]uint32),
	}
}

func (s *Sim) Load32(addr uintptr) uint32 {
	s.reads[addr]++
	v := s.words[addr]
	if h, ok := s.readHooks[addr]; ok {
		v = h(v)
	}
	return v
}

func (s *Sim) Store32(addr uintptr, v uint32) {
	s.writes[addr] = append(s.writes[addr], v)
	if h, ok := s.writeHooks[addr]; ok {
		v = h(s.words[addr], v)
	}
	s.words[addr] = v
}

// Peek reads the stored word without hooks or counting.
func (s *Sim) Peek(addr uintptr) uint32 {
	return s.words[addr]
}

// Poke stores a word without hooks or counting; this is the "hardware" side.
func (s *Sim) Poke(addr uintptr, v uint32) {
	s.words[addr] = v
}

func (s *Sim) OnRead(addr uintptr, h ReadHook) {
	s.readHooks[addr] = h
}

func (s *Sim) OnWrite(addr uintptr, h WriteHook) {
	s.writeHooks[addr] = h
}

// Reads is the number of bus loads seen at addr.
func (s *Sim) Reads(addr uintptr) int {
	return s.reads[addr]
}

// Writes is every value stored to addr through the bus, oldest first.
func (s *Sim) Writes(addr uintptr) []uint32 {
	return s.writes[addr]
}

// WriteOneToClear is a WriteHook for pending registers acknowledged by
// writing ones.
func WriteOneToClear(stored, written uint32) uint32 {
	return stored &^ written
}
