package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// columnAlign controls cell padding.
type columnAlign int

const (
	alignLeft columnAlign = iota
	alignRight
)

// tableView renders a fixed header plus rows. Columns size to their
// widest cell; when the table is wider than width the widest text column
// gives up space first. Kept columns are never truncated.
type tableView struct {
	headers []string
	rows    [][]string
	align   []columnAlign
	kept    []bool
	width   int
	theme   Theme
}

func newTableView(theme Theme, width int, headers ...string) *tableView {
	return &tableView{
		headers: headers,
		width:   width,
		theme:   theme,
		align:   make([]columnAlign, len(headers)),
		kept:    make([]bool, len(headers)),
	}
}

// keep marks columns whose cells must always be shown in full.
func (t *tableView) keep(cols ...int) *tableView {
	for _, c := range cols {
		if c < len(t.kept) {
			t.kept[c] = true
		}
	}
	return t
}

func (t *tableView) alignRight(cols ...int) *tableView {
	for _, c := range cols {
		if c < len(t.align) {
			t.align[c] = alignRight
		}
	}
	return t
}

func (t *tableView) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *tableView) View() string {
	if len(t.rows) == 0 {
		return t.theme.MutedText.Render("(no rows)")
	}
	widths := t.computeColumnWidths()

	var b strings.Builder
	b.WriteString(t.renderRow(t.headers, widths, true))
	for _, row := range t.rows {
		b.WriteString("\n")
		b.WriteString(t.renderRow(row, widths, false))
	}
	return b.String()
}

func (t *tableView) computeColumnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(c))
			}
		}
	}

	// Ensure total fits width; shrink the widest column until it does.
	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	for t.width > 0 && total > t.width {
		widest := -1
		for i, w := range widths {
			if !t.kept[i] && (widest < 0 || w > widths[widest]) {
				widest = i
			}
		}
		if widest < 0 || widths[widest] <= 4 {
			break
		}
		cut := min(total-t.width, widths[widest]-4)
		widths[widest] -= cut
		total -= cut
	}
	return widths
}

func (t *tableView) renderRow(cells []string, widths []int, header bool) string {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = truncate(cells[i], widths[i])
		}
		if t.align[i] == alignRight {
			parts[i] = padLeft(cell, widths[i])
		} else {
			parts[i] = padRight(cell, widths[i])
		}
	}
	row := strings.Join(parts, " ")
	if header {
		return t.theme.Header.Render(row)
	}
	return t.theme.Base.Render(row)
}
