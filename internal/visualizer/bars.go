package visualizer

import (
	"math"
	"strings"

	"github.com/muesli/termenv"
)

const barBands = 16

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// Bars groups a row into barBands averaged magnitudes and draws them as
// vertical bars, low band on the left.
type Bars struct {
	bands   [barBands]float64
	output  string
	profile termenv.Profile
}

// NewBars creates a new bar visualizer.
func NewBars() *Bars {
	return &Bars{profile: currentColorProfile()}
}

func (s *Bars) Name() string { return "bars" }

func (s *Bars) Update(row []float32, hi, lo float32, width, height int) {
	if len(row) == 0 {
		return
	}

	var bandMag [barBands]float64
	for b := range barBands {
		start := b * len(row) / barBands
		end := (b + 1) * len(row) / barBands
		if end <= start {
			end = start + 1
		}
		if end > len(row) {
			end = len(row)
		}
		if start >= end {
			continue
		}
		sum := 0.0
		for _, v := range row[start:end] {
			sum += magnitude(v, hi, lo)
		}
		bandMag[b] = sum / float64(end-start)
	}

	// Exponential smoothing
	const decay = 0.3
	for b := range barBands {
		s.bands[b] = s.bands[b]*decay + bandMag[b]*(1-decay)
	}

	if height < 1 {
		height = 1
	}

	colWidth := (width - 2) / barBands
	if colWidth < 1 {
		colWidth = 1
	}
	gap := 1
	if colWidth <= 1 {
		gap = 0
	}

	rows := make([]string, height)
	for r := range height {
		var line strings.Builder
		color := newANSIState()
		for b := range barBands {
			if b > 0 && gap > 0 {
				line.WriteByte(' ')
			}
			level := s.bands[b] * float64(height)
			fromBottom := float64(height - 1 - r)
			charIdx := 0
			if level > fromBottom+1 {
				charIdx = len(barChars) - 1
			} else if level > fromBottom {
				charIdx = int((level - fromBottom) * float64(len(barChars)-1))
			}
			if charIdx > 0 && s.profile != termenv.Ascii {
				color.set(&line, bandColor(float64(b)/float64(barBands-1)))
			}
			ch := barChars[charIdx]
			for range colWidth - gap {
				line.WriteRune(ch)
			}
		}
		color.reset(&line)
		rows[r] = line.String()
	}

	s.output = strings.Join(rows, "\n")
}

func (s *Bars) View() string {
	return s.output
}

// Level reports the smoothed magnitude of band b in [0, 1].
func (s *Bars) Level(b int) float64 {
	return math.Max(0, math.Min(1, s.bands[b]))
}
