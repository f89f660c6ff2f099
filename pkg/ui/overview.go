package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// renderOverview shows the project intro, dataset counts, the leading
// songs and the cluster-size distribution.
func (m *Model) renderOverview(width int) string {
	t := m.theme
	sum := analysis.Overview(m.app.Bundle)

	var sb strings.Builder
	sb.WriteString(m.md.Render(analysis.IntroMarkdown, width))
	sb.WriteString("\n")

	sb.WriteString(t.Subtitle.Render("Dataset Summary") + "\n")
	fmt.Fprintf(&sb, "Total Songs: %s\n", t.PrimaryBold.Render(strconv.Itoa(sum.TotalSongs)))
	fmt.Fprintf(&sb, "Audio Features: %s\n", t.PrimaryBold.Render(strconv.Itoa(sum.FeatureCount)))
	fmt.Fprintf(&sb, "Clusters: %s\n", t.PrimaryBold.Render(strconv.Itoa(sum.ClusterCount)))

	sb.WriteString(t.Subtitle.Render(fmt.Sprintf("Top %d Songs", analysis.OverviewSampleSize)) + "\n")
	sb.WriteString(songTable(t, width, sum.Sample, true).View() + "\n")

	sb.WriteString(t.Subtitle.Render("Cluster Distribution") + "\n")
	sb.WriteString(renderSizeBars(t, sum.Sizes, width))
	return sb.String()
}

// songTable lists name, artists and genres of each song, plus the cluster
// when withCluster is set.
func songTable(t Theme, width int, songs []model.Song, withCluster bool) *tableView {
	if !withCluster {
		tv := newTableView(t, width, "Song", "Artists", "Genres")
		for _, s := range songs {
			tv.addRow(s.Name, s.Artists, s.Genres)
		}
		return tv
	}
	tv := newTableView(t, width, "Song", "Artists", "Genres", "Cluster").alignRight(3).keep(3)
	for _, s := range songs {
		tv.addRow(s.Name, s.Artists, s.Genres, strconv.Itoa(s.Cluster))
	}
	return tv
}
