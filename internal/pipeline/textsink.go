package pipeline

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/olivier-w/scalo/internal/util"
)

// shades orders glyphs from the bottom of the frame range to the top.
const shades = " .:-=+*#%@"

// TextSink writes frames as single lines of shaded glyphs. It only writes
// when the row changes, so output follows the spectrogram rather than the
// tick rate.
type TextSink struct {
	w       io.Writer
	columns int

	mu      sync.Mutex
	lastRow int
}

// NewTextSink returns a TextSink rendering rows at the given width.
func NewTextSink(w io.Writer, columns int) *TextSink {
	if columns <= 0 {
		columns = 64
	}
	return &TextSink{w: w, columns: columns, lastRow: -1}
}

func (s *TextSink) TrackStarted(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRow = -1
	fmt.Fprintf(s.w, "> %s (%s)\n", item.Name, util.FormatDuration(item.Source.Duration()))
}

func (s *TextSink) Render(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Row == s.lastRow {
		return
	}
	s.lastRow = f.Row
	fmt.Fprintf(s.w, "%3d |%s|\n", f.Row, ShadeRow(f.Data, f.Max, f.Min, s.columns))
}

// ShadeRow samples data at columns evenly spaced points, clamps each to
// [lo, hi] and maps it onto a shade glyph. It panics if hi == lo.
func ShadeRow(data []float32, hi, lo float32, columns int) string {
	if hi == lo {
		panic("pipeline: frame bounds must differ")
	}
	if len(data) == 0 || columns <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(columns)
	step := float32(len(data)) / float32(columns)
	top := len(shades) - 1
	for i := range columns {
		v := min(max(data[int(float32(i)*step)], lo), hi)
		idx := int((v - lo) / (hi - lo) * float32(top))
		b.WriteByte(shades[idx])
	}
	return b.String()
}
