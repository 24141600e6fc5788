// Package view computes the displayed row sequence for a dataset slice:
// free-text filtering followed by single-column stable sorting.
package view

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"prepstats/pkg/contracts/domain"
)

// Compute derives the view over rows: filter first, then sort. The input
// slice is never modified; the result is a fresh slice sharing the row
// maps. For identical inputs the output is always identical.
func Compute(rows []domain.Row, filterText string, directive domain.SortDirective) []domain.Row {
	out := filterRows(rows, filterText)
	if directive.IsZero() {
		return out
	}
	sortRows(out, directive)
	return out
}

// filterRows keeps rows where at least one column value contains
// filterText case-insensitively. An empty filter keeps everything; the
// original order is preserved either way.
func filterRows(rows []domain.Row, filterText string) []domain.Row {
	out := make([]domain.Row, 0, len(rows))
	if filterText == "" {
		return append(out, rows...)
	}

	needle := strings.ToLower(filterText)
	for _, row := range rows {
		for _, v := range row {
			if strings.Contains(strings.ToLower(v), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// sortRows orders rows in place by the directive's column. Ties keep
// their original relative order.
func sortRows(rows []domain.Row, directive domain.SortDirective) {
	// The collator carries internal buffers, so each sort gets its own;
	// this keeps Compute safe for concurrent callers.
	c := collate.New(language.Und)

	desc := directive.Direction == domain.Descending
	sort.SliceStable(rows, func(i, j int) bool {
		cmp := compareValues(c, rows[i][directive.Column], rows[j][directive.Column])
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// compareValues compares two cell values: numerically when both parse as
// numbers, otherwise as collated strings. Absent values arrive as "" and
// take the string branch.
func compareValues(c *collate.Collator, a, b string) int {
	na, aok := parseNumber(a)
	nb, bok := parseNumber(b)
	if aok && bok {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return c.CompareString(a, b)
}

// parseNumber attempts a numeric interpretation of a cell value.
// Thousands separators are tolerated, matching how stat exports format
// large counts.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
