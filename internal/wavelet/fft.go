package wavelet

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/argusdusty/gofft"
	"github.com/mjibson/go-dsp/fft"
)

// Backend selects the FFT implementation used for the convolution.
type Backend int

const (
	// Exact transforms at exactly the linear-convolution length.
	Exact Backend = iota
	// Radix2 zero-pads to the next power of two. The retained samples are
	// identical; it trades memory for speed on awkward lengths.
	Radix2
)

// ParseBackend maps a flag value to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return Exact, nil
	case "radix2":
		return Radix2, nil
	default:
		return Exact, fmt.Errorf("unknown fft backend %q (want exact or radix2)", s)
	}
}

func (b Backend) String() string {
	switch b {
	case Radix2:
		return "radix2"
	default:
		return "exact"
	}
}

// plan is a forward transform of a fixed size. The inverse is derived from
// the forward transform so both backends share the same normalisation.
type plan interface {
	size() int
	forward(x []complex128) []complex128
}

func newPlan(b Backend, minSize int) plan {
	if b == Radix2 {
		n := nextPow2(minSize)
		if err := gofft.Prepare(n); err != nil {
			panic(fmt.Sprintf("wavelet: preparing radix-2 fft of size %d: %v", n, err))
		}
		return radix2Plan{n: n}
	}
	return exactPlan{n: minSize}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

type exactPlan struct{ n int }

func (p exactPlan) size() int { return p.n }

func (p exactPlan) forward(x []complex128) []complex128 {
	return fft.FFT(x)
}

type radix2Plan struct{ n int }

func (p radix2Plan) size() int { return p.n }

func (p radix2Plan) forward(x []complex128) []complex128 {
	if err := gofft.FFT(x); err != nil {
		panic(fmt.Sprintf("wavelet: radix-2 fft: %v", err))
	}
	return x
}

// inverse computes the inverse transform of x as conj(FFT(conj(x))) / n.
// x is clobbered.
func inverse(p plan, x []complex128) []complex128 {
	for i, v := range x {
		x[i] = complex(real(v), -imag(v))
	}
	y := p.forward(x)
	scale := 1 / float64(p.size())
	for i, v := range y {
		y[i] = complex(real(v)*scale, -imag(v)*scale)
	}
	return y
}
