package wavelet

import "math"

// Morlet returns a real Morlet kernel of the given length centred on length/2.
// Sample k is cos(2π·t·freq)·exp(-t²/2) with t = (k - length/2)·dt.
func Morlet(length int, dt, freq float32) []float32 {
	if freq <= 0 {
		panic("wavelet: morlet frequency must be positive")
	}
	if dt <= 0 {
		panic("wavelet: morlet delta time must be positive")
	}
	if length <= 0 {
		panic("wavelet: morlet length must be positive")
	}

	out := make([]float32, length)
	half := float32(length) / 2
	for k := range out {
		t := (float32(k) - half) * dt
		out[k] = morletAt(t, freq)
	}
	return out
}

func morletAt(t, freq float32) float32 {
	carrier := math.Cos(float64(2 * math.Pi * t * freq))
	envelope := math.Exp(float64(-0.5 * t * t))
	return float32(carrier * envelope)
}
