package sim

// Sample is the driven GPIO value from Cycle on.
type Sample struct {
	Cycle   uint64
	Outputs uint32
}

// Trace records the GPIO outputs each time they change.
type Trace struct {
	Samples []Sample
	End     uint64
	started bool
}

func (t *Trace) sample(cycle uint64, outputs uint32) {
	t.End = cycle
	if t.started && t.Samples[len(t.Samples)-1].Outputs == outputs {
		return
	}
	t.started = true
	t.Samples = append(t.Samples, Sample{Cycle: cycle, Outputs: outputs})
}

// Line is the level of one line over the trace as (cycle, level) steps.
func (t *Trace) Line(line int) []Sample {
	var out []Sample
	bit := uint32(1) << uint(line)
	for _, s := range t.Samples {
		v := s.Outputs & bit
		if len(out) > 0 && out[len(out)-1].Outputs == v {
			continue
		}
		out = append(out, Sample{Cycle: s.Cycle, Outputs: v})
	}
	return out
}

// Used is the set of lines that were high at some point.
func (t *Trace) Used() uint32 {
	var u uint32
	for _, s := range t.Samples {
		u |= s.Outputs
	}
	return u
}
