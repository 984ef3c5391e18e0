package wavelet

import (
	"log/slog"
	"time"
)

// Engine computes spectrograms with a fixed FFT backend.
type Engine struct {
	backend Backend
	logger  *slog.Logger
}

// NewEngine returns an Engine using backend. A nil logger discards output.
func NewEngine(backend Backend, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{backend: backend, logger: logger.With("component", "wavelet")}
}

// Backend reports the FFT backend in use.
func (e *Engine) Backend() Backend { return e.backend }

// Transform computes the scalogram with the exact-length backend.
func Transform(signal []float32, bandSpacing, duration float32, width, height int) *Spectrogram {
	return (&Engine{backend: Exact, logger: slog.New(slog.DiscardHandler)}).
		Transform(signal, bandSpacing, duration, width, height)
}

// Transform convolves signal with a Morlet kernel of width samples for each
// of height bands spaced bandSpacing Hz apart, keeps the central part of
// each linear convolution and resamples it to width columns.
//
// The kernel time step is duration/width. Preconditions are programmer
// errors and panic.
func (e *Engine) Transform(signal []float32, bandSpacing, duration float32, width, height int) *Spectrogram {
	switch {
	case len(signal) == 0:
		panic("wavelet: transform signal must not be empty")
	case width <= 0 || height <= 0:
		panic("wavelet: transform dimensions must be positive")
	case bandSpacing <= 0:
		panic("wavelet: band spacing must be positive")
	case duration <= 0:
		panic("wavelet: duration must be positive")
	}

	started := time.Now()
	total := width + len(signal) - 1
	p := newPlan(e.backend, total)
	n := p.size()

	sig := make([]complex128, n)
	for i, v := range signal {
		sig[i] = complex(float64(v), 0)
	}
	sigF := p.forward(sig)
	if e.backend == Exact {
		// go-dsp returns a fresh slice; radix-2 transforms in place.
		sigF = append([]complex128(nil), sigF...)
	}

	start := width / 2
	end := total - width/2
	if end <= start {
		// One-sample signal with an even kernel: nothing survives the
		// trim, keep the centre sample.
		end = start + 1
	}
	useful := make([]float32, end-start)
	kern := make([]complex128, n)
	dt := duration / float32(width)

	out := NewSpectrogram(width, height)
	for i := range height {
		w := Morlet(width, dt, bandSpacing*float32(i+1))
		clear(kern)
		for k, v := range w {
			kern[k] = complex(float64(v), 0)
		}
		kf := p.forward(kern)
		for k := range kf {
			kf[k] *= sigF[k]
		}
		conv := inverse(p, kf)
		for k := range useful {
			useful[k] = float32(real(conv[start+k]))
		}
		copy(out.Row(i), Resample(useful, width))
	}

	e.logger.Debug("transform complete",
		"samples", len(signal),
		"width", width,
		"height", height,
		"fft_size", n,
		"backend", e.backend.String(),
		"elapsed", time.Since(started))
	return out
}
