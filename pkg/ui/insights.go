package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/config"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// insightsState is the Insights selection. It is reset every time the view
// is entered.
type insightsState struct {
	cluster int
	topN    int
	ok      bool // false when the bundle has no clusters
}

func (m *Model) resetInsights() {
	m.insights.cluster, m.insights.ok = analysis.DefaultCluster(m.app.Bundle)
	m.insights.topN = analysis.ClampTopN(m.app.Config.UI.DefaultTopN)
}

// cycleCluster moves the selection by delta through the sorted ids.
func (m *Model) cycleCluster(delta int) {
	if !m.insights.ok {
		return
	}
	m.insights.cluster = analysis.NextCluster(m.app.Bundle.DistinctClusters(), m.insights.cluster, delta)
}

func (m *Model) adjustTopN(delta int) {
	m.insights.topN = analysis.ClampTopN(m.insights.topN + delta)
}

// selectedSongs is what the table shows and the clipboard copy sends.
func (m *Model) selectedSongs() []model.Song {
	if !m.insights.ok {
		return nil
	}
	return analysis.TopSongs(m.app.Bundle, m.insights.cluster, m.insights.topN)
}

// renderInsights shows the cluster selector, its top songs, both
// interpretations and the export hint.
func (m *Model) renderInsights(width int) string {
	t := m.theme

	var sb strings.Builder
	if !m.insights.ok {
		sb.WriteString(t.MutedText.Render("No clusters in this bundle.") + "\n")
	} else {
		sb.WriteString(m.renderSelector() + "\n")
		songs := m.selectedSongs()
		sb.WriteString(t.Subtitle.Render(fmt.Sprintf("Top %d Songs in Cluster %d", m.insights.topN, m.insights.cluster)) + "\n")
		sb.WriteString(songTable(t, width, songs, false).View() + "\n")
	}

	sb.WriteString(t.Subtitle.Render("Cluster Interpretation (Example)") + "\n")
	sb.WriteString(m.md.Render(analysis.ExampleMarkdown(), width) + "\n")
	sb.WriteString(t.Subtitle.Render("Cluster Interpretation (Generated)") + "\n")
	sb.WriteString(m.md.Render(analysis.DescribeMarkdown(m.app.Bundle.Profile), width) + "\n")

	sb.WriteString(t.Subtitle.Render("Export") + "\n")
	sb.WriteString(t.MutedText.Render("e save clustered CSV · y copy table to clipboard"))
	return sb.String()
}

func (m *Model) renderSelector() string {
	t := m.theme
	ids := m.app.Bundle.DistinctClusters()
	parts := make([]string, len(ids))
	for i, id := range ids {
		label := " " + strconv.Itoa(id) + " "
		if id == m.insights.cluster {
			parts[i] = t.ActiveTab.Render(label)
		} else {
			parts[i] = t.Tab.Render(label)
		}
	}
	return fmt.Sprintf("Cluster %s %s %s   Top N %s %d %s  %s",
		glyphLeft, strings.Join(parts, ""), glyphRight,
		t.MutedText.Render("-"), m.insights.topN, t.MutedText.Render("+"),
		t.MutedText.Render(fmt.Sprintf("(%d-%d)", config.MinTopN, config.MaxTopN)))
}

// songsTSV is the clipboard payload: a header line then one line per song.
func songsTSV(songs []model.Song) string {
	var sb strings.Builder
	sb.WriteString("Song\tArtists\tGenres\tCluster\n")
	clean := strings.NewReplacer("\t", " ", "\n", " ")
	for _, s := range songs {
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%d\n", clean.Replace(s.Name), clean.Replace(s.Artists), clean.Replace(s.Genres), s.Cluster)
	}
	return sb.String()
}
