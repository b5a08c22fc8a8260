package feeds

import (
	"strconv"
	"strings"
)

// cell returns the trimmed value at col, or "" when the row is too short.
// Sheets omits trailing empty cells, so short rows are normal.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// rawCell is cell without trimming, for values that are compared exactly.
func rawCell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// parseInt reads a leading integer the way spreadsheet exports are usually
// consumed: surrounding whitespace is ignored and trailing text ("85%",
// "3.5") is cut off. It returns (0, true) when no digits lead the value.
func parseInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, true
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, true
	}
	return n, false
}

// intField decodes an integer column, returning the value and whether the
// default was substituted.
func intField(row []string, col int) (int, bool) {
	return parseInt(cell(row, col))
}

// clamp limits a score to the 0-100 range.
func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
