package visualizer

import "strings"

// Columns plots a row as a boxed column chart of '#' bars. Each of the
// width-2 interior columns samples the row evenly, clamps the value to
// [lo, hi] and fills a bar up to height-2 cells.
type Columns struct {
	output string
}

func NewColumns() *Columns {
	return &Columns{}
}

func (c *Columns) Name() string { return "columns" }

// Update panics when row is empty or hi == lo. Frames smaller than 3x3 are
// left blank.
func (c *Columns) Update(row []float32, hi, lo float32, width, height int) {
	if len(row) == 0 {
		panic("visualizer: columns need a non-empty row")
	}
	if hi == lo {
		panic("visualizer: columns need distinct bounds")
	}
	if width < 3 || height < 3 {
		c.output = ""
		return
	}

	cols, rows := width-2, height-2
	values := sample(row, cols)
	bars := make([]int, cols)
	for i, v := range values {
		v = min(max(v, lo), hi)
		bars[i] = int((v - lo) * float32(rows) / (hi - lo))
	}

	var out strings.Builder
	out.Grow((width + 1) * height * 3)
	out.WriteString("┌" + strings.Repeat("─", cols) + "┐\n")
	for r := range rows {
		level := rows - r
		out.WriteString("│")
		for _, b := range bars {
			if b >= level {
				out.WriteByte('#')
			} else {
				out.WriteByte(' ')
			}
		}
		out.WriteString("│\n")
	}
	out.WriteString("└" + strings.Repeat("─", cols) + "┘")
	c.output = out.String()
}

func (c *Columns) View() string {
	return c.output
}
