package wavelet

// Spectrogram is a Height x Width grid of wavelet coefficients stored row
// major. Row i holds band i+1, column j a point in time across the segment.
type Spectrogram struct {
	Width  int
	Height int
	Data   []float32
}

// NewSpectrogram returns a zeroed grid.
func NewSpectrogram(width, height int) *Spectrogram {
	return &Spectrogram{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}
}

// Row returns row i without copying.
func (s *Spectrogram) Row(i int) []float32 {
	return s.Data[i*s.Width : (i+1)*s.Width]
}

// At returns the coefficient at row, col.
func (s *Spectrogram) At(row, col int) float32 {
	return s.Data[row*s.Width+col]
}

// Bounds returns the smallest and largest coefficient in the grid.
func (s *Spectrogram) Bounds() (lo, hi float32) {
	if len(s.Data) == 0 {
		return 0, 0
	}
	lo, hi = s.Data[0], s.Data[0]
	for _, v := range s.Data[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
