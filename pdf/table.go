package pdf

import (
	"strings"
)

const (
	minColWidth  = 18.0
	maxColWidth  = 60.0
	cellPadding  = 2.0
	lineHeight   = 5.0
	maxCellLines = 3
)

const ellipsis = "…"

// layoutColumns sizes each column from its content: the widest cell (header
// included) plus padding, floored at minColWidth and capped at maxColWidth.
// When the padded total would overflow the page, every column is scaled down
// proportionally. The result depends only on the inputs, so the same table
// always lays out the same way.
func layoutColumns(measure func(string) float64, header []string, rows [][]string, available float64) []float64 {
	if len(header) == 0 {
		return nil
	}

	widths := make([]float64, len(header))
	for i, h := range header {
		widths[i] = measure(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := measure(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := 0.0
	for i := range widths {
		widths[i] += 2 * cellPadding
		if widths[i] < minColWidth {
			widths[i] = minColWidth
		}
		if widths[i] > maxColWidth {
			widths[i] = maxColWidth
		}
		total += widths[i]
	}

	if total > available && total > 0 {
		scale := available / total
		for i := range widths {
			widths[i] *= scale
		}
	}

	return widths
}

// wrapCell breaks a value into lines that fit the column width. Words longer
// than the column are split across lines rather than dropped. When the cell
// would exceed maxCellLines the last kept line ends in an ellipsis, so
// shortened content is always visibly marked.
func wrapCell(measure func(string) float64, text string, width float64) []string {
	usable := width - 2*cellPadding
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""

	place := func(word string) {
		if measure(word) <= usable {
			current = word
			return
		}
		full, rest := hardSplit(measure, word, usable)
		lines = append(lines, full...)
		current = rest
	}

	for _, word := range words {
		if current == "" {
			place(word)
			continue
		}
		if measure(current+" "+word) <= usable {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = ""
		place(word)
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}

	if len(lines) > maxCellLines {
		lines = lines[:maxCellLines]
		last := lines[maxCellLines-1]
		for last != "" && measure(last+ellipsis) > usable {
			runes := []rune(last)
			last = string(runes[:len(runes)-1])
		}
		lines[maxCellLines-1] = last + ellipsis
	}

	return lines
}

// hardSplit cuts a word that cannot fit on one line into full-width chunks
// plus the remainder that fits.
func hardSplit(measure func(string) float64, word string, usable float64) ([]string, string) {
	var full []string
	runes := []rune(word)
	for len(runes) > 0 && measure(string(runes)) > usable {
		cut := len(runes)
		for cut > 1 && measure(string(runes[:cut])) > usable {
			cut--
		}
		full = append(full, string(runes[:cut]))
		runes = runes[cut:]
	}
	return full, string(runes)
}
