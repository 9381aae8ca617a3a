package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// TextTable renders aligned plain-text tables. Column widths are measured in
// terminal cells so full-width sector names line up.
type TextTable struct {
	Headers []string
	Rows    [][]string
	// Right marks columns rendered right-aligned.
	Right map[int]bool
}

func (t *TextTable) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *TextTable) widths() []int {
	w := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		w[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i, c := range row {
			if i >= len(w) {
				break
			}
			if cw := runewidth.StringWidth(c); cw > w[i] {
				w[i] = cw
			}
		}
	}
	return w
}

func (t *TextTable) pad(i int, s string, width int) string {
	if t.Right[i] {
		return runewidth.FillLeft(s, width)
	}
	return runewidth.FillRight(s, width)
}

func (t *TextTable) Render(w io.Writer) error {
	widths := t.widths()
	bold := color.New(color.Bold)

	cells := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		cells[i] = bold.Sprint(t.pad(i, h, widths[i]))
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
		return err
	}

	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	if _, err := fmt.Fprintln(w, strings.Join(rule, "  ")); err != nil {
		return err
	}

	for _, row := range t.Rows {
		cells = cells[:0]
		for i := range t.Headers {
			var c string
			if i < len(row) {
				c = row[i]
			}
			cells = append(cells, t.pad(i, c, widths[i]))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return flush(w)
}

// FormatNumber prints v with at most four decimals, dropping trailing zeros.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
