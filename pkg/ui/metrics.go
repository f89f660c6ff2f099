package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// renderMetrics shows the two quality scores as cards and the cluster
// profile as a table.
func (m *Model) renderMetrics(width int) string {
	t := m.theme
	b := m.app.Bundle

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard(t, analysis.LabelSilhouette, b.Scores.Silhouette, "higher is better"),
		metricCard(t, analysis.LabelDaviesBouldin, b.Scores.DaviesBouldin, "lower is better"),
	)

	var sb strings.Builder
	sb.WriteString(cards + "\n")
	sb.WriteString(t.Subtitle.Render("Cluster-wise Feature Mean") + "\n")
	tv, hidden := profileTable(t, width, b.Profile)
	sb.WriteString(tv.View())
	if hidden > 0 {
		sb.WriteString("\n" + t.MutedText.Render(fmt.Sprintf("(%d more features; widen the terminal or run with -report)", hidden)))
	}
	return sb.String()
}

func metricCard(t Theme, label string, score *float64, hint string) string {
	value := analysis.FormatScore(score)
	valueStyle := t.PrimaryBold
	if score == nil {
		valueStyle = t.MutedText
	}
	body := t.MutedText.Render(label) + "\n" + valueStyle.Render(value) + "\n" + t.MutedText.Render(hint)
	return t.Card.Render(body)
}

// profileTable renders cluster means to 4 decimals, one row per cluster.
// Values are never cut: feature columns that do not fit width are dropped
// whole from the right, and hidden reports how many.
func profileTable(t Theme, width int, prof model.ClusterProfile) (tv *tableView, hidden int) {
	cells := make([][]string, len(prof.Clusters))
	for r, c := range prof.Clusters {
		cells[r] = make([]string, 0, len(prof.Features)+1)
		cells[r] = append(cells[r], strconv.Itoa(c))
		for _, v := range prof.Means[r] {
			cells[r] = append(cells[r], strconv.FormatFloat(v, 'f', 4, 64))
		}
	}
	headers := append([]string{"Cluster"}, prof.Features...)

	// At least one feature is always shown.
	fit := len(headers)
	used := 0
	for col, h := range headers {
		w := runewidth.StringWidth(h)
		for _, row := range cells {
			if col < len(row) {
				w = max(w, runewidth.StringWidth(row[col]))
			}
		}
		if col > 0 {
			w++ // separator
		}
		if col > 1 && width > 0 && used+w > width {
			fit = col
			break
		}
		used += w
	}

	tv = newTableView(t, width, headers[:fit]...)
	all := make([]int, fit)
	for i := range all {
		all[i] = i
	}
	tv.alignRight(all...).keep(all...)
	for _, row := range cells {
		tv.addRow(row[:min(fit, len(row))]...)
	}
	return tv, len(headers) - fit
}
