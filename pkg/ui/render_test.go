package ui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/model"
	"github.com/vanderheijden86/clusterboard/pkg/testutil"
)

func TestRenderOverview(t *testing.T) {
	m := quickModel(t)
	out := stripANSI(m.renderOverview(100))
	testutil.AssertContainsAll(t, out,
		"K-Means",
		"Dataset Summary", "Total Songs: 100", "Audio Features: 9", "Clusters: 4",
		"Top 5 Songs", "Song 000", "Song 004",
		"Cluster Distribution", "Number of Songs")
	if strings.Contains(out, "Song 005") {
		t.Error("overview should list only the first 5 songs")
	}
}

func TestRenderMetrics(t *testing.T) {
	m := quickModel(t)
	out := stripANSI(m.renderMetrics(100))
	testutil.AssertContainsAll(t, out,
		"Silhouette Score", "0.3123", "Davies-Bouldin Index", "1.2",
		"higher is better", "lower is better", "Cluster-wise Feature Mean", "danceability")

	b := testutil.QuickBundle()
	b.Scores.Silhouette = nil
	m = newTestModel(t, b)
	out = stripANSI(m.renderMetrics(100))
	testutil.AssertContainsAll(t, out, analysis.NotAvailable)
}

func TestProfileTable_FourDecimals(t *testing.T) {
	prof := model.ClusterProfile{Clusters: []int{0}, Features: []string{"energy"}, Means: [][]float64{{0.123456}}}
	tv, hidden := profileTable(TestTheme(), 80, prof)
	out := stripANSI(tv.View())
	testutil.AssertContainsAll(t, out, "Cluster", "energy", "0.1235")
	if hidden != 0 {
		t.Errorf("hidden = %d, want 0", hidden)
	}
}

func TestProfileTable_NarrowTerminalKeepsValuesWhole(t *testing.T) {
	features := []string{
		"danceability", "energy", "key", "loudness", "mode", "speechiness", "acousticness",
		"instrumentalness", "liveness", "valence", "tempo", "duration_ms", "time_signature",
	}
	means := make([]float64, len(features))
	for i := range means {
		means[i] = -0.123456
	}
	prof := model.ClusterProfile{Clusters: []int{0, 1}, Features: features, Means: [][]float64{means, means}}

	tv, hidden := profileTable(TestTheme(), 80, prof)
	out := stripANSI(tv.View())
	if hidden == 0 || hidden >= len(features) {
		t.Fatalf("hidden = %d, want some but not all of %d", hidden, len(features))
	}
	if strings.Contains(out, "…") {
		t.Errorf("cells were truncated:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > 80 {
			t.Errorf("line is %d wide: %q", w, line)
		}
	}
	shown := len(features) - hidden
	if got := strings.Count(lines[1], "-0.1235"); got != shown {
		t.Errorf("row shows %d intact means, want %d", got, shown)
	}

	_, hidden = profileTable(TestTheme(), 400, prof)
	if hidden != 0 {
		t.Errorf("wide terminal hid %d features", hidden)
	}
}

func TestRenderMetrics_HiddenFeaturesNotice(t *testing.T) {
	m := quickModel(t)
	out := stripANSI(m.renderMetrics(30))
	testutil.AssertContainsAll(t, out, "more features; widen the terminal")
}

func TestRenderVisualization(t *testing.T) {
	m := quickModel(t)
	out := stripANSI(m.renderVisualization(100))
	testutil.AssertContainsAll(t, out,
		"PCA Visualization of Clusters", "PC1", "PC2",
		"Cluster-wise Feature Comparison",
		"Key Features by Cluster", "acousticness", "Scaled Feature Value")
}

func TestRenderVisualization_MissingKeyFeature(t *testing.T) {
	b := testutil.QuickBundle()
	b.Profile.Features[b.Profile.FeatureIndex("valence")] = "mood"
	m := newTestModel(t, b)
	out := stripANSI(m.renderVisualization(100))
	testutil.AssertContainsAll(t, out, "Cannot draw key features", `"valence"`, "PCA Visualization of Clusters")
	if strings.Contains(out, "Scaled Feature Value") {
		t.Error("key feature bars should not render")
	}
}

func TestRenderInsights(t *testing.T) {
	m, _ := press(t, quickModel(t), "4", "right", "+")
	out := stripANSI(m.renderInsights(100))
	testutil.AssertContainsAll(t, out,
		"Top 6 Songs in Cluster 1",
		"Cluster Interpretation (Example)", "Party tracks",
		"Cluster Interpretation (Generated)",
		"save clustered CSV")
}

func TestRenderInsights_NoClusters(t *testing.T) {
	b := testutil.QuickBundle()
	b.Reference.Clusters = nil
	m := newTestModel(t, b)
	if m.insights.ok {
		t.Fatal("expected no selection")
	}
	out := stripANSI(m.renderInsights(80))
	testutil.AssertContainsAll(t, out, "No clusters in this bundle.")
	if m.selectedSongs() != nil {
		t.Error("no songs expected")
	}
}

func TestRenderSizeBars(t *testing.T) {
	sizes := []analysis.ClusterSize{{Cluster: 0, Count: 30}, {Cluster: 1, Count: 0}, {Cluster: 7, Count: 15}}
	out := stripANSI(renderSizeBars(TestTheme(), sizes, 80))
	lines := strings.Split(out, "\n")
	if len(lines) != len(sizes)+1 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if strings.Count(lines[0], glyphBar) != 2*strings.Count(lines[2], glyphBar) {
		t.Errorf("bars not proportional:\n%s", out)
	}
	if strings.Contains(lines[1], glyphBar) {
		t.Error("empty cluster should have no bar")
	}
	testutil.AssertContainsAll(t, out, "Cluster 7", " 15")

	if got := stripANSI(renderSizeBars(TestTheme(), nil, 80)); got != "no clusters" {
		t.Errorf("empty = %q", got)
	}
}

func TestRenderScatter(t *testing.T) {
	b := testutil.QuickBundle()
	out := stripANSI(renderScatter(TestTheme(), b, 80))
	lines := strings.Split(out, "\n")
	if len(lines) != scatterRows+2 {
		t.Errorf("got %d lines", len(lines))
	}
	if !strings.Contains(out, glyphPoint) {
		t.Error("no points plotted")
	}

	b.PCA = model.Frame{Columns: []string{"PC1"}}
	testutil.AssertContainsAll(t, stripANSI(renderScatter(TestTheme(), b, 80)), "need 2 components")
}

func TestRenderHeatmap_DropsColumnsThatDoNotFit(t *testing.T) {
	b := testutil.QuickBundle()
	out := stripANSI(renderHeatmap(TestTheme(), b.Profile, 30))
	testutil.AssertContainsAll(t, out, "(7 more features", "scale")

	wide := stripANSI(renderHeatmap(TestTheme(), b.Profile, 200))
	if strings.Contains(wide, "more features") {
		t.Error("wide terminal should show every feature")
	}
}

func TestSignedBar_FixedWidth(t *testing.T) {
	theme := TestTheme()
	for _, v := range []float64{-2, -0.5, 0, 0.5, 2} {
		got := stripANSI(signedBar(theme, 0, v, 2, 10))
		if w := runewidth.StringWidth(got); w != 21 {
			t.Errorf("signedBar(%v) width = %d: %q", v, w, got)
		}
	}
	neg := stripANSI(signedBar(theme, 0, -2, 2, 10))
	if !strings.HasSuffix(neg, glyphAxisV+strings.Repeat(" ", 10)) {
		t.Errorf("negative bar should grow left: %q", neg)
	}
}

func TestSongsTSV_FlattensSeparators(t *testing.T) {
	got := songsTSV([]model.Song{{Name: "a\tb", Artists: "x\ny", Genres: "[]", Cluster: 2}})
	want := "Song\tArtists\tGenres\tCluster\na b\tx y\t[]\t2\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTableView(t *testing.T) {
	tv := newTableView(TestTheme(), 20, "a", "b").alignRight(1)
	tv.addRow(strings.Repeat("x", 30), "yy")
	tv.addRow("short", "1")
	out := stripANSI(tv.View())
	for _, line := range strings.Split(out, "\n") {
		if w := runewidth.StringWidth(line); w > 20 {
			t.Errorf("line %q is %d wide", line, w)
		}
	}
	if !strings.Contains(out, "…") {
		t.Error("long cell should be truncated")
	}
	if !strings.HasSuffix(strings.Split(out, "\n")[2], " 1") {
		t.Error("second column should be right-aligned")
	}

	kept := newTableView(TestTheme(), 20, "a", "b").keep(1)
	kept.addRow(strings.Repeat("x", 10), "-123456.7890")
	if out := stripANSI(kept.View()); !strings.Contains(out, "-123456.7890") {
		t.Errorf("kept column was cut:\n%s", out)
	}

	empty := newTableView(TestTheme(), 20, "a")
	if got := stripANSI(empty.View()); got != "(no rows)" {
		t.Errorf("empty = %q", got)
	}
}
