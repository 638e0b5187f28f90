package riscv

// SimCSRs is a register file for running the runtime off-target.
type SimCSRs struct {
	regs   map[CSR]uint32
	writes map[CSR][]uint32
}

func NewSimCSRs() *SimCSRs {
	return &SimCSRs{regs: make(map[CSR]uint32), writes: make(map[CSR][]uint32)}
}

func (s *SimCSRs) Read(c CSR) uint32 {
	return s.regs[c]
}

func (s *SimCSRs) Write(c CSR, v uint32) {
	s.writes[c] = append(s.writes[c], v)
	s.regs[c] = v
}

func (s *SimCSRs) SetBits(c CSR, mask uint32) {
	s.Write(c, s.regs[c]|mask)
}

func (s *SimCSRs) ClearBits(c CSR, mask uint32) {
	s.Write(c, s.regs[c]&^mask)
}

// Writes is the history of values written to c, oldest first.
func (s *SimCSRs) Writes(c CSR) []uint32 {
	return s.writes[c]
}
