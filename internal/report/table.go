// Package report renders agreement tables and coefficient summaries.
package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"gonum.org/v1/gonum/mat"
)

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}

// countRows lays a matrix out as table rows, each prefixed with its row label.
func countRows(rowLabels []string, cells *mat.Dense) [][]string {
	r, c := cells.Dims()
	out := make([][]string, r)
	for i := 0; i < r; i++ {
		row := make([]string, 0, c+1)
		label := ""
		if i < len(rowLabels) {
			label = rowLabels[i]
		}
		row = append(row, label)
		for j := 0; j < c; j++ {
			row = append(row, formatCount(cells.At(i, j)))
		}
		out[i] = row
	}
	return out
}

// formatCount prints whole counts without decimals and fractional ones with two.
func formatCount(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func rightAlignFrom(first, count int) map[int]bool {
	out := make(map[int]bool, count)
	for i := first; i < count; i++ {
		out[i] = true
	}
	return out
}
