package wavelet

import "math"

// CubicInterpolate evaluates the four-point cubic through y0..y3 at mu in [0,1)
// between y1 and y2.
func CubicInterpolate(y0, y1, y2, y3, mu float32) float32 {
	mu2 := mu * mu
	a0 := y3 - y2 - y0 + y1
	a1 := y0 - y1 - a0
	a2 := y2 - y0
	a3 := y1
	return a0*mu*mu2 + a1*mu2 + a2*mu + a3
}

// Resample stretches or squeezes signal to exactly length samples, sampling
// cell centres with a cubic stencil. Stencils that would run off either end
// repeat the boundary sample. A signal already of the target length is
// returned as is.
func Resample(signal []float32, length int) []float32 {
	if length <= 0 {
		panic("wavelet: resample length must be positive")
	}
	if len(signal) == 0 {
		panic("wavelet: resample input must not be empty")
	}
	if len(signal) == length {
		return signal
	}

	last := len(signal) - 1
	step := float32(last) / float32(length)
	out := make([]float32, length)

	for i := range out {
		t := (float32(i) + 0.5) * step
		lo := int(math.Floor(float64(t)))
		hi := int(math.Ceil(float64(t)))
		if lo == hi {
			out[i] = signal[lo]
			continue
		}

		y0, y1 := signal[lo], signal[lo]
		if lo > 0 {
			y0 = signal[lo-1]
		}
		y2, y3 := signal[hi], signal[hi]
		if hi < last {
			y3 = signal[hi+1]
		}

		out[i] = CubicInterpolate(y0, y1, y2, y3, t-float32(lo))
	}
	return out
}
