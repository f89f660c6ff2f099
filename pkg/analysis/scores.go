package analysis

import (
	"math"
	"strconv"
	"strings"
)

// NotAvailable is shown in place of a missing quality score.
const NotAvailable = "Not available"

// Metric labels.
const (
	LabelSilhouette    = "Silhouette Score"
	LabelDaviesBouldin = "Davies-Bouldin Index"
)

// FormatScore rounds to 4 decimal places and prints the shortest form of
// the rounded value, keeping at least one decimal (0.12345 -> "0.1235",
// 0.5 -> "0.5", 2 -> "2.0"). A nil score yields NotAvailable.
func FormatScore(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	x := *v
	switch {
	case math.IsNaN(x):
		return "nan"
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	}

	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 4, 64), 64)
	if err != nil {
		rounded = x
	}
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
