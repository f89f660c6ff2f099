package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/clusterboard/internal/datasource"
	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/artifact"
	"github.com/vanderheijden86/clusterboard/pkg/chart"
	"github.com/vanderheijden86/clusterboard/pkg/config"
	"github.com/vanderheijden86/clusterboard/pkg/export"
	"github.com/vanderheijden86/clusterboard/pkg/testutil"
)

func testApp(t *testing.T) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Export.Dir = t.TempDir()
	a, err := New(testutil.QuickBundle(), cfg, "generated")
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New(nil, config.DefaultConfig(), ""); err == nil {
		t.Error("nil bundle should be rejected")
	}
	cfg := config.DefaultConfig()
	cfg.UI.DefaultView = "sidebar"
	if _, err := New(testutil.QuickBundle(), cfg, ""); err == nil {
		t.Error("invalid config should be rejected")
	}
}

func TestOpen_UsesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned_data.json")
	if err := artifact.WriteJSON(path, testutil.QuickBundle()); err != nil {
		t.Fatal(err)
	}
	cache := artifact.NewCache()

	a1, err := Open(cache, path, config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	a2, err := Open(cache, path, config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if a1.Bundle != a2.Bundle {
		t.Error("both apps should share the cached bundle")
	}
	if cache.Loads() != 1 {
		t.Errorf("loads = %d, want 1", cache.Loads())
	}

	if _, err := Open(cache, filepath.Join(t.TempDir(), "missing.json"), config.DefaultConfig()); !errors.Is(err, artifact.ErrArtifactNotFound) {
		t.Errorf("err = %v, want ErrArtifactNotFound", err)
	}
}

func TestResolveArtifactPath(t *testing.T) {
	t.Setenv(datasource.ArtifactEnvVar, "")
	dir := t.TempDir()
	cfg := config.DefaultConfig()

	if got := ResolveArtifactPath("flag.json", cfg, dir); got != "flag.json" {
		t.Errorf("flag should win, got %s", got)
	}
	cfg.Artifact = "config.sqlite"
	if got := ResolveArtifactPath("", cfg, dir); got != "config.sqlite" {
		t.Errorf("config should win over discovery, got %s", got)
	}
	cfg.Artifact = ""
	if got := ResolveArtifactPath("", cfg, dir); got != filepath.Join(dir, datasource.DefaultArtifactName) {
		t.Errorf("default = %s", got)
	}
	t.Setenv(datasource.ArtifactEnvVar, "/env/bundle.json")
	if got := ResolveArtifactPath("", cfg, dir); got != "/env/bundle.json" {
		t.Errorf("env should win over discovery, got %s", got)
	}
}

func TestSaveChartsAndCSV(t *testing.T) {
	a := testApp(t)

	paths, errs := a.SaveCharts("svg")
	if len(errs) != 0 || len(paths) != len(chart.Kinds) {
		t.Fatalf("paths=%v errs=%v", paths, errs)
	}
	csvPath, err := a.SaveCSV()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(csvPath) != a.ExportDir() || filepath.Base(csvPath) != export.CSVFileName {
		t.Errorf("csv path = %s", csvPath)
	}
}

func TestSaveCharts_MissingKeyFeature(t *testing.T) {
	a := testApp(t)
	prof := a.Bundle.Profile
	prof.Features = append([]string(nil), prof.Features...)
	prof.Features[prof.FeatureIndex("energy")] = "loudness_db"
	a.Bundle.Profile = prof

	paths, errs := a.SaveCharts("png")
	if len(paths) != len(chart.Kinds)-1 || len(errs) != 1 {
		t.Fatalf("paths=%v errs=%v", paths, errs)
	}
	if !errors.Is(errs[0], analysis.ErrMissingFeature) {
		t.Errorf("err = %v", errs[0])
	}
}

func TestExportAll(t *testing.T) {
	a := testApp(t)
	a.Config.Export.Formats = []string{"csv", "markdown"}

	res, err := a.ExportAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files()) != 2 {
		t.Errorf("files = %v", res.Files())
	}
	if _, err := os.Stat(filepath.Join(a.ExportDir(), export.ReportFileName)); err != nil {
		t.Error(err)
	}
}

func TestExportDir_Default(t *testing.T) {
	a := &App{}
	if a.ExportDir() != "." {
		t.Errorf("ExportDir = %q", a.ExportDir())
	}
}
