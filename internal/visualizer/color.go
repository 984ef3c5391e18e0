package visualizer

import (
	"image/color"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

var (
	profileOnce sync.Once
	profile     termenv.Profile
	seqCache    sync.Map
)

// currentColorProfile is the output's colour capability. NO_COLOR forces
// plain text.
func currentColorProfile() termenv.Profile {
	profileOnce.Do(func() {
		if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
			profile = termenv.Ascii
			return
		}
		profile = lipgloss.ColorProfile()
	})
	return profile
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var (
	heatStops = []colorful.Color{
		{R: 16 / 255.0, G: 25 / 255.0, B: 70 / 255.0},
		{R: 0, G: 174 / 255.0, B: 1},
		{R: 20 / 255.0, G: 1, B: 161 / 255.0},
		{R: 1, G: 230 / 255.0, B: 92 / 255.0},
		{R: 1, G: 80 / 255.0, B: 60 / 255.0},
	}
	// faded is where old waterfall lines drift to.
	faded = colorful.Color{R: 18 / 255.0, G: 22 / 255.0, B: 32 / 255.0}
)

// heatColor maps t in [0,1] from dark blue to red.
func heatColor(t float64) colorful.Color {
	pos := clamp01(t) * float64(len(heatStops)-1)
	i := int(pos)
	if i >= len(heatStops)-1 {
		return heatStops[len(heatStops)-1]
	}
	return heatStops[i].BlendRgb(heatStops[i+1], pos-float64(i))
}

// bandColor runs from blue for the lowest band to red for the highest.
func bandColor(frac float64) colorful.Color {
	return colorful.Hsv(240-240*clamp01(frac), 0.8, 0.95)
}

// ansiState writes a colour escape only when the colour changes.
type ansiState struct {
	profile termenv.Profile
	current uint32
	active  bool
}

func newANSIState() ansiState {
	return ansiState{profile: currentColorProfile()}
}

func (s *ansiState) set(sb *strings.Builder, c color.Color) {
	if s.profile == termenv.Ascii {
		return
	}
	key := rgbKey(c)
	if s.active && key == s.current {
		return
	}
	sb.WriteString(colorSequence(s.profile, c, key))
	s.current = key
	s.active = true
}

func (s *ansiState) reset(sb *strings.Builder) {
	if !s.active {
		return
	}
	sb.WriteString(termenv.CSI + termenv.ResetSeq + "m")
	s.active = false
}

func rgbKey(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (r>>8)<<16 | (g>>8)<<8 | b>>8
}

func colorSequence(p termenv.Profile, c color.Color, key uint32) string {
	cacheKey := uint64(p)<<32 | uint64(key)
	if seq, ok := seqCache.Load(cacheKey); ok {
		return seq.(string)
	}

	seq := ""
	if sgr := p.FromColor(c).Sequence(false); sgr != "" {
		seq = termenv.CSI + sgr + "m"
	}
	seqCache.Store(cacheKey, seq)
	return seq
}
