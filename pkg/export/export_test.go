package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/artifact"
	"github.com/vanderheijden86/clusterboard/pkg/config"
	"github.com/vanderheijden86/clusterboard/pkg/model"
	"github.com/vanderheijden86/clusterboard/pkg/testutil"
)

func dropFeature(p model.ClusterProfile, name string) model.ClusterProfile {
	idx := p.FeatureIndex(name)
	out := model.ClusterProfile{Clusters: p.Clusters}
	for f, n := range p.Features {
		if f != idx {
			out.Features = append(out.Features, n)
		}
	}
	for _, row := range p.Means {
		var r []float64
		for f, v := range row {
			if f != idx {
				r = append(r, v)
			}
		}
		out.Means = append(out.Means, r)
	}
	return out
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	b := testutil.QuickBundle()
	b.Reference.Rows[0][1] = `Say "Hello", 世界`
	b.Reference.Rows[1][1] = "line\nbreak"

	var buf bytes.Buffer
	if err := WriteCSV(&buf, b); err != nil {
		t.Fatal(err)
	}
	header, records, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(header, b.Reference.Header()) {
		t.Errorf("header = %v, want %v", header, b.Reference.Header())
	}
	if header[len(header)-1] != model.ColumnCluster {
		t.Errorf("last column = %q, want Cluster", header[len(header)-1])
	}
	if len(records) != b.Reference.Len() {
		t.Fatalf("rows = %d, want %d", len(records), b.Reference.Len())
	}
	for i, rec := range records {
		if !slices.Equal(rec, b.Reference.Record(i)) {
			t.Fatalf("row %d = %v, want %v", i, rec, b.Reference.Record(i))
		}
		if got := rec[len(rec)-1]; got != strconv.Itoa(b.Labels[i]) {
			t.Fatalf("row %d cluster = %s, want %d", i, got, b.Labels[i])
		}
	}
}

func TestSaveCSV(t *testing.T) {
	b := testutil.QuickBundle()
	dir := filepath.Join(t.TempDir(), "out")

	path, err := SaveCSV(dir, b)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "AmazonMusic_Clustered.csv" {
		t.Errorf("file name = %s", filepath.Base(path))
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the CSV in %s, found %d entries", dir, len(entries))
	}
	if CSVContentType != "text/csv" {
		t.Errorf("content type = %s", CSVContentType)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o644 {
			t.Errorf("mode = %v, want 0644", perm)
		}
	}
}

func TestReadCSV_Empty(t *testing.T) {
	if _, _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestRenderMarkdown(t *testing.T) {
	b := testutil.QuickBundle()
	md := RenderMarkdown(b, ReportOptions{TopN: 5, ChartFiles: []string{"cluster_sizes.svg"}})

	testutil.AssertContainsAll(t, md,
		"# Amazon Music Clustering Dashboard",
		"**K-Means clustering**",
		"- Total Songs: 100",
		"- Number of Clusters: 4",
		"- Silhouette Score: 0.3123",
		"- Davies-Bouldin Index: 1.2",
		"![Cluster Size Distribution](cluster_sizes.svg)",
		"### Cluster 3",
		"**Cluster 3**: Instrumental-heavy tracks → Relaxed/Focus tracks",
		"## Cluster Interpretation (Generated)",
	)
	if !strings.Contains(md, "## Cluster Visualizations") {
		t.Error("charts section missing")
	}

	b.Scores.Silhouette = nil
	md = RenderMarkdown(b, ReportOptions{})
	testutil.AssertContainsAll(t, md, "- Silhouette Score: Not available")
	if strings.Contains(md, "## Cluster Visualizations") {
		t.Error("charts section should be omitted without chart files")
	}
}

func TestRenderMarkdown_EscapesPipes(t *testing.T) {
	b := testutil.QuickBundle()
	b.Reference.Rows[0][1] = "A|B"
	md := RenderMarkdown(b, ReportOptions{})
	if !strings.Contains(md, `A\|B`) {
		t.Error("pipe in cell should be escaped")
	}
}

func TestWriteTextReport(t *testing.T) {
	b := testutil.QuickBundle()
	var buf bytes.Buffer
	if err := WriteTextReport(&buf, b, ReportOptions{TopN: 7}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	testutil.AssertContainsAll(t, out,
		"Amazon Music Clustering Dashboard",
		"Total Songs: 100",
		"Audio Features Used: 9",
		"Silhouette Score: 0.3123",
		"Cluster 0 (top 7)",
		"Key Features by Cluster",
		"speechiness",
	)
}

func TestWriteTextReport_MissingKeyFeature(t *testing.T) {
	b := testutil.QuickBundle()
	b.Profile = dropFeature(b.Profile, "valence")
	var buf bytes.Buffer
	if err := WriteTextReport(&buf, b, ReportOptions{}); err != nil {
		t.Fatal(err)
	}
	testutil.AssertContainsAll(t, buf.String(), "unavailable:", `"valence"`, "Insights")
}

func TestWriteTextTable_WideRunes(t *testing.T) {
	var sb strings.Builder
	writeTextTable(&sb, []string{"Song", "N"}, [][]string{{"世界", "1"}, {"ab", "2"}})
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	// "世界" is four cells wide, so both rows place N at the same column.
	if !strings.HasSuffix(lines[2], "  1") || lines[3] != "ab    2" {
		t.Errorf("misaligned rows: %q", lines[2:])
	}
}

func TestAll(t *testing.T) {
	b := testutil.QuickBundle()
	dir := t.TempDir()

	res, err := All(context.Background(), b, OptionsFromConfig(config.Config{
		Export: config.ExportConfig{Dir: dir, Formats: config.ExportFormats},
		UI:     config.UIConfig{DefaultTopN: 5},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if failed := res.Failed(); len(failed) > 0 {
		t.Fatalf("failed tasks: %+v", failed)
	}
	// csv + 4 charts x 2 formats + sqlite + report
	if got := len(res.Files()); got != 11 {
		t.Errorf("files = %d: %v", got, res.Files())
	}
	for _, name := range []string{CSVFileName, ReportFileName, SQLiteFileName, "pca_scatter.png", "key_features.svg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	report, err := os.ReadFile(filepath.Join(dir, ReportFileName))
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertContainsAll(t, string(report), "(key_features.png)", "(profile_heatmap.svg)")

	loaded, err := artifact.Load(filepath.Join(dir, SQLiteFileName))
	if err != nil {
		t.Fatalf("exported sqlite should load: %v", err)
	}
	if loaded.Reference.Len() != b.Reference.Len() {
		t.Errorf("sqlite rows = %d, want %d", loaded.Reference.Len(), b.Reference.Len())
	}
}

func TestAll_MissingKeyFeatureSkipsOnlyThatChart(t *testing.T) {
	b := testutil.QuickBundle()
	b.Profile = dropFeature(b.Profile, "speechiness")
	dir := t.TempDir()

	res, err := All(context.Background(), b, Options{Dir: dir, Formats: []string{"csv", "svg", "markdown"}})
	if err != nil {
		t.Fatal(err)
	}
	failed := res.Failed()
	if len(failed) != 1 || failed[0].Name != "key_features.svg" {
		t.Fatalf("failed = %+v", failed)
	}
	if !errors.Is(failed[0].Error, analysis.ErrMissingFeature) {
		t.Errorf("error = %v, want ErrMissingFeature", failed[0].Error)
	}
	if _, err := os.Stat(filepath.Join(dir, "key_features.svg")); !os.IsNotExist(err) {
		t.Error("key_features.svg should not exist")
	}
	for _, name := range []string{CSVFileName, "cluster_sizes.svg", "pca_scatter.svg", "profile_heatmap.svg", ReportFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	report, _ := os.ReadFile(filepath.Join(dir, ReportFileName))
	if strings.Contains(string(report), "key_features") {
		t.Error("report should not link the failed chart")
	}
}

func TestAll_OnlyRequestedFormats(t *testing.T) {
	dir := t.TempDir()
	res, err := All(context.Background(), testutil.QuickBundle(), Options{Dir: dir, Formats: []string{"csv"}})
	if err != nil {
		t.Fatal(err)
	}
	if files := res.Files(); len(files) != 1 || filepath.Base(files[0]) != CSVFileName {
		t.Errorf("files = %v", files)
	}
}

func TestAll_SQLiteOnlyIntoMissingDir(t *testing.T) {
	b := testutil.QuickBundle()
	dir := filepath.Join(t.TempDir(), "fresh", "out")

	res, err := All(context.Background(), b, Options{Dir: dir, Formats: []string{"sqlite"}})
	if err != nil {
		t.Fatal(err)
	}
	if failed := res.Failed(); len(failed) > 0 {
		t.Fatalf("failed tasks: %+v", failed)
	}
	loaded, err := artifact.Load(filepath.Join(dir, SQLiteFileName))
	if err != nil {
		t.Fatalf("reload sqlite: %v", err)
	}
	if loaded.Reference.Len() != b.Reference.Len() {
		t.Errorf("rows = %d, want %d", loaded.Reference.Len(), b.Reference.Len())
	}
}

func TestAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()

	res, err := All(ctx, testutil.QuickBundle(), Options{Dir: dir, Formats: config.ExportFormats})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(res.Files()) != 0 {
		t.Errorf("nothing should be written, got %v", res.Files())
	}
}

func TestAll_NilBundle(t *testing.T) {
	if _, err := All(context.Background(), nil, Options{}); err == nil {
		t.Error("expected error")
	}
}

func TestValidateTopN(t *testing.T) {
	for _, tt := range []struct {
		in string
		ok bool
	}{
		{"5", true}, {" 20 ", true}, {"4", false}, {"21", false}, {"ten", false},
	} {
		if err := validateTopN(tt.in); (err == nil) != tt.ok {
			t.Errorf("validateTopN(%q) = %v", tt.in, err)
		}
	}
}

func TestWizard_OptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Export.Dir = "exports"
	cfg.UI.DefaultTopN = 12

	w := NewWizard(cfg, "", &bytes.Buffer{})
	opts := w.Options()
	if opts.Dir != "exports" || opts.TopN != 12 || !slices.Equal(opts.Formats, config.ExportFormats) {
		t.Errorf("options = %+v", opts)
	}

	w.topN = "junk"
	if got := w.Options().TopN; got != 12 {
		t.Errorf("bad top-n should fall back to config, got %d", got)
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, Result{Tasks: []TaskResult{
		{Name: "a.csv", Path: "/tmp/a.csv"},
		{Name: "b.svg", Error: errors.New("boom")},
	}})
	testutil.AssertContainsAll(t, buf.String(), "✓ /tmp/a.csv", "✗ b.svg: boom")
}
