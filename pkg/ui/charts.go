package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/chart"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

const (
	heatCellWidth  = 8
	scatterRows    = 16
	maxScatterCols = 72
	maxBarWidth    = 50
)

// renderSizeBars draws the cluster-size distribution as horizontal bars,
// one per cluster in ascending id order.
func renderSizeBars(t Theme, sizes []analysis.ClusterSize, width int) string {
	if len(sizes) == 0 {
		return t.MutedText.Render("no clusters")
	}
	maxCount := 0
	labelW := 0
	for _, s := range sizes {
		maxCount = max(maxCount, s.Count)
		labelW = max(labelW, len("Cluster "+strconv.Itoa(s.Cluster)))
	}
	barW := clampInt(width-labelW-10, 10, maxBarWidth)

	lines := make([]string, 0, len(sizes)+1)
	for i, s := range sizes {
		n := 0
		if maxCount > 0 {
			n = int(math.Round(float64(s.Count) / float64(maxCount) * float64(barW)))
		}
		if s.Count > 0 {
			n = max(n, 1)
		}
		bar := t.ClusterStyle(i, len(sizes)).Render(strings.Repeat(glyphBar, n))
		lines = append(lines, fmt.Sprintf("%s %s %s %d",
			padRight("Cluster "+strconv.Itoa(s.Cluster), labelW), glyphAxisV, bar, s.Count))
	}
	lines = append(lines, t.MutedText.Render(padRight("", labelW)+" "+glyphAxisElbo+strings.Repeat(glyphAxisH, barW+2)+" Number of Songs"))
	return strings.Join(lines, "\n")
}

// renderScatter plots PC1 against PC2 on a character grid.
func renderScatter(t Theme, b *model.Bundle, width int) string {
	if len(b.PCA.Columns) < 2 {
		return t.ErrorText.Render(fmt.Sprintf("PCA scatter unavailable: need 2 components, have %d", len(b.PCA.Columns)))
	}
	cols := clampInt(width-16, 10, maxScatterCols)
	grid := chart.ScatterGrid(b, scatterRows, cols)
	ids := b.DistinctClusters()

	styles := make([]string, len(ids))
	for i := range ids {
		styles[i] = t.ClusterStyle(i, len(ids)).Render(glyphPoint)
	}

	var sb strings.Builder
	for r, row := range grid {
		label := "   "
		if r == 0 {
			label = "PC2"
		}
		sb.WriteString(t.MutedText.Render(label) + " " + glyphAxisV)
		for _, cell := range row {
			if cell == chart.Empty {
				sb.WriteString(" ")
			} else {
				sb.WriteString(styles[cell])
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("    " + glyphAxisElbo + strings.Repeat(glyphAxisH, cols) + " " + t.MutedText.Render("PC1") + "\n")

	legend := make([]string, len(ids))
	for i, id := range ids {
		legend[i] = styles[i] + " " + strconv.Itoa(id)
	}
	sb.WriteString("     Cluster: " + strings.Join(legend, "  "))
	return sb.String()
}

// renderHeatmap shows the profile table with coloured, 2-decimal cells.
func renderHeatmap(t Theme, prof model.ClusterProfile, width int) string {
	if len(prof.Clusters) == 0 || len(prof.Features) == 0 {
		return t.MutedText.Render("empty cluster profile")
	}
	// Columns that do not fit the terminal are dropped from the right.
	fit := clampInt((width-10)/heatCellWidth, 1, len(prof.Features))
	lo, hi := prof.Range()
	norm := func(v float64) float64 {
		if hi == lo {
			return 0.5
		}
		return (v - lo) / (hi - lo)
	}

	var sb strings.Builder
	sb.WriteString(padRight("Cluster", 9))
	for _, f := range prof.Features[:fit] {
		sb.WriteString(padLeft(truncate(f, heatCellWidth-1), heatCellWidth))
	}
	sb.WriteString("\n")
	for r, c := range prof.Clusters {
		sb.WriteString(padRight(strconv.Itoa(c), 9))
		for f := 0; f < fit; f++ {
			v := prof.Means[r][f]
			sb.WriteString(t.HeatStyle(norm(v)).Render(padLeft(fmt.Sprintf("%.2f", v), heatCellWidth)))
		}
		sb.WriteString("\n")
	}
	if fit < len(prof.Features) {
		sb.WriteString(t.MutedText.Render(fmt.Sprintf("(%d more features; widen the terminal or export the heatmap)", len(prof.Features)-fit)) + "\n")
	}
	sb.WriteString(t.MutedText.Render(fmt.Sprintf("scale %.2f … %.2f (blue → red)", lo, hi)))
	return sb.String()
}

// renderKeyFeatures draws one signed bar per key feature and cluster. A
// missing feature returns analysis.ErrMissingFeature.
func renderKeyFeatures(t Theme, prof model.ClusterProfile, width int) (string, error) {
	kf, err := analysis.KeyFeatures(prof)
	if err != nil {
		return "", err
	}
	maxAbs := 0.0
	for _, row := range kf.Means {
		for _, v := range row {
			maxAbs = math.Max(maxAbs, math.Abs(v))
		}
	}
	nameW := 0
	for _, f := range kf.Features {
		nameW = max(nameW, len(f))
	}
	half := clampInt((width-nameW-16)/2, 5, maxBarWidth/2)

	var sb strings.Builder
	for g, c := range kf.Clusters {
		sb.WriteString(t.PrimaryBold.Render("Cluster "+strconv.Itoa(c)) + "\n")
		for f, name := range kf.Features {
			v := kf.Means[g][f]
			sb.WriteString("  " + padRight(name, nameW) + " " + signedBar(t, f, v, maxAbs, half) + " " + padLeft(fmt.Sprintf("%.2f", v), 6) + "\n")
		}
	}
	legend := make([]string, len(kf.Features))
	for f, name := range kf.Features {
		legend[f] = t.SeriesStyle(f).Render(glyphBar) + " " + name
	}
	sb.WriteString(t.MutedText.Render("Scaled Feature Value") + "  " + strings.Join(legend, "  "))
	return sb.String(), nil
}

// signedBar draws v around a centre line: negative values grow left,
// positive values grow right.
func signedBar(t Theme, series int, v, maxAbs float64, half int) string {
	n := 0
	if maxAbs > 0 {
		n = int(math.Round(math.Abs(v) / maxAbs * float64(half)))
	}
	bar := t.SeriesStyle(series).Render(strings.Repeat(glyphBar, n))
	if v < 0 {
		return strings.Repeat(" ", half-n) + bar + glyphAxisV + strings.Repeat(" ", half)
	}
	return strings.Repeat(" ", half) + glyphAxisV + bar + strings.Repeat(" ", half-n)
}
