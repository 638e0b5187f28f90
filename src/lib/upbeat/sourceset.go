package upbeat

import "appleriscv/src/hardware/appleriscv"

// SourceSet is a set of external interrupt sources, bit n is source n. It is
// the shape of PLIC.Pending and PLIC.Enabled.
type SourceSet uint64

func (s SourceSet) On(src appleriscv.Source) bool {
	return src <= appleriscv.MaxSource && s&(1<<src) != 0
}

func (s *SourceSet) Set(src appleriscv.Source) {
	*s |= 1 << src
}

func (s *SourceSet) Clear(src appleriscv.Source) {
	*s &^= 1 << src
}

func (s SourceSet) Empty() bool {
	return s == 0
}

// Each calls fn for every member, lowest id first.
func (s SourceSet) Each(fn func(appleriscv.Source)) {
	for id := appleriscv.Source(0); s != 0; id++ {
		if s&1 != 0 {
			fn(id)
		}
		s >>= 1
	}
}
