// Package snapshot writes spectrograms to disk as PNG heatmaps.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/olivier-w/scalo/internal/wavelet"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultScale enlarges each coefficient to a Scale x Scale block.
const DefaultScale = 2

const labelHeight = 16

// ErrEmpty is returned for a spectrogram with no cells.
var ErrEmpty = errors.New("snapshot: empty spectrogram")

var (
	background = color.RGBA{R: 12, G: 12, B: 18, A: 255}
	labelColor = color.RGBA{R: 230, G: 230, B: 230, A: 255}
)

// Writer saves numbered PNG files into Dir.
type Writer struct {
	Dir   string
	Scale int

	seq atomic.Uint64
}

// NewWriter creates dir if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &Writer{Dir: dir, Scale: DefaultScale}, nil
}

// Write renders the spectrogram with name as its caption and returns the file path.
func (w *Writer) Write(name string, sg *wavelet.Spectrogram) (string, error) {
	img, err := Render(sg, name, w.Scale)
	if err != nil {
		return "", err
	}

	n := w.seq.Add(1)
	path := filepath.Join(w.Dir, fmt.Sprintf("%05d-%s.png", n, fileStem(name)))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}
	return path, f.Close()
}

// Render draws the spectrogram as a heatmap with the lowest band at the bottom and a
// caption strip above it. Colour follows the magnitude relative to the
// largest magnitude in the grid.
func Render(sg *wavelet.Spectrogram, caption string, scale int) (*image.RGBA, error) {
	if sg == nil || sg.Width <= 0 || sg.Height <= 0 {
		return nil, ErrEmpty
	}
	if scale < 1 {
		scale = 1
	}

	lo, hi := sg.Bounds()
	peak := math.Max(math.Abs(float64(lo)), math.Abs(float64(hi)))

	heat := image.NewRGBA(image.Rect(0, 0, sg.Width, sg.Height))
	for row := 0; row < sg.Height; row++ {
		y := sg.Height - 1 - row
		for col := 0; col < sg.Width; col++ {
			t := 0.0
			if peak > 0 {
				t = math.Abs(float64(sg.At(row, col))) / peak
			}
			heat.SetRGBA(col, y, ramp(t))
		}
	}

	w, h := sg.Width*scale, sg.Height*scale
	out := image.NewRGBA(image.Rect(0, 0, w, h+labelHeight))
	draw.Draw(out, out.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	draw.NearestNeighbor.Scale(out, image.Rect(0, labelHeight, w, h+labelHeight), heat, heat.Bounds(), draw.Src, nil)

	if caption != "" {
		d := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(labelColor),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(2, labelHeight-4),
		}
		d.DrawString(caption)
	}
	return out, nil
}

// ramp maps t in [0,1] from dark blue through green to red, blending in
// Lab space.
func ramp(t float64) color.RGBA {
	pos := math.Max(0, math.Min(1, t)) * float64(len(stops)-1)
	i := int(pos)
	c := stops[len(stops)-1]
	if i < len(stops)-1 {
		c = stops[i].BlendLab(stops[i+1], pos-float64(i)).Clamped()
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

var stops = []colorful.Color{
	{R: 16 / 255.0, G: 25 / 255.0, B: 70 / 255.0},
	{R: 0, G: 174 / 255.0, B: 1},
	{R: 20 / 255.0, G: 1, B: 161 / 255.0},
	{R: 1, G: 230 / 255.0, B: 92 / 255.0},
	{R: 1, G: 80 / 255.0, B: 60 / 255.0},
}

func fileStem(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	if base == "" || base == "." {
		return "segment"
	}
	return base
}
