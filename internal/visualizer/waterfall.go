package visualizer

import (
	"strings"
	"time"

	"github.com/muesli/termenv"
)

var waterfallChars = []rune{' ', '.', ':', '-', '=', '+', '*', '#', '%', '@'}

// Waterfall scrolls successive rows down the screen as a heatmap. The newest
// row is on top.
type Waterfall struct {
	smooth  springField
	rows    [][]float64 // ring of past lines, head is the newest
	head    int
	output  string
	profile termenv.Profile
}

func NewWaterfall() *Waterfall {
	return &Waterfall{
		smooth:  newSpringField(50*time.Millisecond, 8.5, 0.72),
		profile: currentColorProfile(),
	}
}

func (w *Waterfall) Name() string { return "waterfall" }

func (w *Waterfall) Update(row []float32, hi, lo float32, width, height int) {
	height = max(height, 1)
	cols := max(width-2, 8)

	if len(w.rows) != height || len(w.rows[0]) != cols {
		w.rows = make([][]float64, height)
		for i := range w.rows {
			w.rows[i] = make([]float64, cols)
		}
		w.head = 0
	}

	line := stretch(row, hi, lo, cols)
	w.smooth.follow(line)

	w.head = (w.head + height - 1) % height
	copy(w.rows[w.head], line)

	w.output = w.render(height, cols)
}

// stretch maps row magnitudes onto cols cells by linear interpolation.
func stretch(row []float32, hi, lo float32, cols int) []float64 {
	line := make([]float64, cols)
	n := len(row)
	if n == 0 {
		return line
	}
	span := float64(max(cols-1, 1))
	for c := range line {
		pos := float64(c) / span * float64(n-1)
		a := int(pos)
		b := min(a+1, n-1)
		t := pos - float64(a)
		line[c] = magnitude(row[a], hi, lo)*(1-t) + magnitude(row[b], hi, lo)*t
	}
	return line
}

func (w *Waterfall) render(height, cols int) string {
	var sb strings.Builder
	sb.Grow(height * (cols + 1))
	ansi := newANSIState()
	top := len(waterfallChars) - 1

	for r := range height {
		if r > 0 {
			sb.WriteByte('\n')
		}
		cells := w.rows[(w.head+r)%height]
		fade := 0.65 * float64(r) / float64(height)
		for _, v := range cells {
			v = clamp01(v)
			ch := waterfallChars[int(v*float64(top))]
			if ch != ' ' && w.profile != termenv.Ascii {
				ansi.set(&sb, heatColor(v).BlendRgb(faded, fade))
			}
			sb.WriteRune(ch)
		}
		ansi.reset(&sb)
	}
	return sb.String()
}

func (w *Waterfall) View() string {
	return w.output
}
