// Package visualizer draws spectrogram rows as terminal text.
package visualizer

// Visualizer renders one spectrogram row at a time. hi and lo are the clamp
// bounds for the row values.
type Visualizer interface {
	Name() string
	Update(row []float32, hi, lo float32, width, height int)
	View() string
}

// Modes returns all available visualizers. The first is the default.
func Modes() []Visualizer {
	return []Visualizer{
		NewColumns(),
		NewWaterfall(),
		NewBars(),
	}
}

// sample picks n values from row at evenly spaced indices.
func sample(row []float32, n int) []float32 {
	out := make([]float32, n)
	if len(row) == 0 {
		return out
	}
	step := float32(len(row)) / float32(n)
	for i := range out {
		idx := int(float32(i) * step)
		if idx >= len(row) {
			idx = len(row) - 1
		}
		out[i] = row[idx]
	}
	return out
}

// magnitude maps v to |v| relative to the larger of |hi| and |lo|.
func magnitude(v, hi, lo float32) float64 {
	peak := max(abs32(hi), abs32(lo))
	if peak == 0 {
		return 0
	}
	return clamp01(float64(abs32(v) / peak))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
