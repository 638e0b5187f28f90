package socsim

import (
	"errors"
	"fmt"
	"io"

	gg "github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"appleriscv/src/hardware/sim"
)

const (
	waveWidth  = 800
	laneHeight = 28
	labelWidth = 60
	margin     = 6
)

var ErrEmptyTrace = errors.New("trace has no samples")

// WritePNG draws the given gpio lines of a trace as step waveforms, one
// lane each, and encodes the picture as PNG. With no lines it draws every
// line that was ever high.
func WritePNG(w io.Writer, t *sim.Trace, lines []int) error {
	if t == nil || len(t.Samples) == 0 {
		return ErrEmptyTrace
	}
	if len(lines) == 0 {
		used := t.Used()
		for l := 0; l < 32; l++ {
			if used&(1<<uint(l)) != 0 {
				lines = append(lines, l)
			}
		}
	}
	if len(lines) == 0 {
		lines = []int{0}
	}

	start := t.Samples[0].Cycle
	span := float64(t.End - start)
	if span == 0 {
		span = 1
	}
	plot := float64(waveWidth - labelWidth - margin)
	x := func(cycle uint64) float64 {
		return labelWidth + float64(cycle-start)*plot/span
	}

	dc := gg.NewContext(waveWidth, laneHeight*len(lines)+margin)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetLineWidth(1.5)

	for i, l := range lines {
		top := float64(i*laneHeight + margin)
		hi, lo := top+2, top+laneHeight-8

		dc.SetRGB(0, 0, 0)
		dc.DrawString(fmt.Sprintf("gpio%d", l), 4, lo)

		dc.SetRGB(0, 0.4, 0.8)
		steps := t.Line(l)
		y := lo
		for j, s := range steps {
			ny := lo
			if s.Outputs != 0 {
				ny = hi
			}
			x0 := x(s.Cycle)
			if j > 0 {
				dc.DrawLine(x0, y, x0, ny)
			}
			end := t.End
			if j+1 < len(steps) {
				end = steps[j+1].Cycle
			}
			dc.DrawLine(x0, ny, x(end), ny)
			y = ny
		}
		dc.Stroke()
	}
	return dc.EncodePNG(w)
}
