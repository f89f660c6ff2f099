package artifact_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/vanderheijden86/clusterboard/internal/datasource"
	"github.com/vanderheijden86/clusterboard/pkg/artifact"
	"github.com/vanderheijden86/clusterboard/pkg/model"
	"github.com/vanderheijden86/clusterboard/pkg/testutil"
)

const minimalBundle = `{
  "df_reference": {"columns": ["name_song", "name_artists", "genres", "popularity"],
                   "data": [["A", "X", "pop", 71], ["B", "Y", null, 3.5], ["C", "Z", "rock", true]]},
  "df_standard_scaled": {"columns": ["energy", "valence"], "data": [[0.1, 0.2], [0.3, 0.4], [0.5, 0.6]]},
  "df_pca": [[1.0, 2.0, 3.0], [4.0, 5.0, 6.0], [7.0, 8.0, 9.0]],
  "kmeans_labels": [1, 0, 1],
  "cluster_profile": {"columns": ["energy", "valence"], "index": [0, 1], "data": [[0.3, 0.4], [0.3, 0.4]]},
  "feature_columns": ["energy", "valence"],
  "sil_score": 0.41234,
  "db_index": null
}`

func writeJSON(t *testing.T, content string) string {
	t.Helper()
	return testutil.WriteFile(t, t.TempDir(), "cleaned_data.json", []byte(content))
}

func quiet() artifact.DecodeOptions {
	return artifact.DecodeOptions{WarningHandler: func(string) {}}
}

func TestLoad_Minimal(t *testing.T) {
	b, err := artifact.LoadWithOptions(writeJSON(t, minimalBundle), quiet())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := b.Reference.Len(); got != 3 {
		t.Fatalf("songs = %d, want 3", got)
	}
	if !reflect.DeepEqual(b.Reference.Clusters, []int{1, 0, 1}) {
		t.Errorf("clusters = %v", b.Reference.Clusters)
	}
	if got := b.Reference.Value(0, "popularity"); got != "71" {
		t.Errorf("int cell = %q", got)
	}
	if got := b.Reference.Value(1, "popularity"); got != "3.5" {
		t.Errorf("float cell = %q", got)
	}
	if got := b.Reference.Value(2, "popularity"); got != "True" {
		t.Errorf("bool cell = %q", got)
	}
	if got := b.Reference.Value(1, "genres"); got != "" {
		t.Errorf("null cell = %q", got)
	}
	if !reflect.DeepEqual(b.PCA.Columns, []string{"PC1", "PC2", "PC3"}) {
		t.Errorf("pca columns = %v", b.PCA.Columns)
	}
	if b.Scores.Silhouette == nil || *b.Scores.Silhouette != 0.41234 {
		t.Errorf("silhouette = %v", b.Scores.Silhouette)
	}
	if b.Scores.DaviesBouldin != nil {
		t.Errorf("null db_index should be absent, got %v", *b.Scores.DaviesBouldin)
	}
}

func TestLoad_FloatCellsKeepPandasForm(t *testing.T) {
	content := strings.Replace(minimalBundle,
		`[["A", "X", "pop", 71], ["B", "Y", null, 3.5], ["C", "Z", "rock", true]]`,
		`[["A", "X", "pop", 35.0], ["B", "Y", "pop", 1e20], ["C", "Z", "rock", 0.00001]]`, 1)
	b, err := artifact.LoadWithOptions(writeJSON(t, content), quiet())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, want := range []string{"35.0", "1e+20", "1e-05"} {
		if got := b.Reference.Value(i, "popularity"); got != want {
			t.Errorf("row %d popularity = %q, want %q", i, got, want)
		}
	}
}

func TestLoad_BOM(t *testing.T) {
	path := writeJSON(t, "\xEF\xBB\xBF"+minimalBundle)
	if _, err := artifact.LoadWithOptions(path, quiet()); err != nil {
		t.Fatalf("Load with BOM: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := artifact.Load(filepath.Join(t.TempDir(), "nope.json"))
		if !errors.Is(err, artifact.ErrArtifactNotFound) {
			t.Fatalf("expected ErrArtifactNotFound, got %v", err)
		}
	})

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"not json", "this is not json", artifact.ErrMalformedArtifact},
		{"missing key", `{"df_reference": {"columns": [], "data": []}}`, artifact.ErrMalformedArtifact},
		{"wrong type", strings.Replace(minimalBundle, `"kmeans_labels": [1, 0, 1]`, `"kmeans_labels": "abc"`, 1), artifact.ErrMalformedArtifact},
		{"row mismatch", strings.Replace(minimalBundle, `"kmeans_labels": [1, 0, 1]`, `"kmeans_labels": [1, 0]`, 1), artifact.ErrRowMismatch},
		{"missing display column", strings.Replace(minimalBundle, `"genres", "popularity"`, `"genre", "popularity"`, 1), artifact.ErrMalformedArtifact},
		{"null scaled value", strings.Replace(minimalBundle, `[[0.1, 0.2]`, `[[0.1, null]`, 1), artifact.ErrMalformedArtifact},
		{"null pca value", strings.Replace(minimalBundle, `[[1.0, 2.0, 3.0]`, `[[1.0, null, 3.0]`, 1), artifact.ErrMalformedArtifact},
		{"null profile mean", strings.Replace(minimalBundle, `"data": [[0.3, 0.4], [0.3, 0.4]]`, `"data": [[0.3, 0.4], [null, 0.4]]`, 1), artifact.ErrMalformedArtifact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := artifact.LoadWithOptions(writeJSON(t, tt.content), quiet())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("unsupported extension", func(t *testing.T) {
		path := testutil.WriteFile(t, t.TempDir(), "cleaned_data.pkl", []byte("x"))
		if _, err := artifact.Load(path); !errors.Is(err, artifact.ErrMalformedArtifact) {
			t.Fatalf("expected ErrMalformedArtifact, got %v", err)
		}
	})

	t.Run("garbage sqlite", func(t *testing.T) {
		path := testutil.WriteFile(t, t.TempDir(), "cleaned_data.db", []byte("definitely not sqlite"))
		if _, err := artifact.Load(path); !errors.Is(err, artifact.ErrMalformedArtifact) {
			t.Fatalf("expected ErrMalformedArtifact, got %v", err)
		}
	})
}

func TestDecode_Warnings(t *testing.T) {
	content := strings.Replace(minimalBundle, `"genres", "popularity"`, `"genres", "Cluster"`, 1)
	content = strings.Replace(content, `"db_index": null`, `"db_index": null, "extra": 1`, 1)

	var warnings []string
	opts := artifact.DecodeOptions{WarningHandler: func(msg string) { warnings = append(warnings, msg) }}
	b, err := artifact.LoadWithOptions(writeJSON(t, content), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	if b.Reference.ColumnIndex(model.ColumnCluster) >= 0 {
		t.Error("upstream Cluster column should be dropped")
	}
	if !reflect.DeepEqual(b.Reference.Header(), []string{"name_song", "name_artists", "genres", "Cluster"}) {
		t.Errorf("header = %v", b.Reference.Header())
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	want := testutil.NewDefault().Bundle()

	var buf bytes.Buffer
	if err := artifact.Encode(&buf, want); err != nil {
		t.Fatal(err)
	}
	got, err := artifact.Decode(&buf, quiet())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(got.Reference.Rows, want.Reference.Rows) {
		t.Error("reference rows differ")
	}
	if !reflect.DeepEqual(got.Scaled.Rows, want.Scaled.Rows) || !reflect.DeepEqual(got.PCA.Rows, want.PCA.Rows) {
		t.Error("numeric frames differ")
	}
	if !reflect.DeepEqual(got.Labels, want.Labels) {
		t.Error("labels differ")
	}
	if !reflect.DeepEqual(got.Profile, want.Profile) {
		t.Error("profile differs")
	}
}

func TestLoad_SQLiteMatchesJSON(t *testing.T) {
	src := testutil.NewDefault().Bundle()
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "cleaned_data.json")
	if err := artifact.WriteJSON(jsonPath, src); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "cleaned_data.sqlite")
	if err := datasource.WriteBundle(context.Background(), dbPath, src); err != nil {
		t.Fatal(err)
	}

	fromJSON, err := artifact.Load(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	fromDB, err := artifact.Load(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fromJSON.Reference, fromDB.Reference) {
		t.Error("reference tables differ between JSON and SQLite")
	}
	if !reflect.DeepEqual(fromJSON.Profile, fromDB.Profile) {
		t.Error("profiles differ between JSON and SQLite")
	}
}

func TestCache_LoadsOncePerPath(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	cache := artifact.NewCacheWithLoader(func(path string) (*model.Bundle, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return testutil.QuickBundle(), nil
	})

	var wg sync.WaitGroup
	results := make([]*model.Bundle, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := cache.Get("bundle.json")
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = b
		}(i)
	}
	wg.Wait()

	if calls != 1 || cache.Loads() != 1 {
		t.Fatalf("loader ran %d times (Loads=%d), want 1", calls, cache.Loads())
	}
	for i, b := range results {
		if b != results[0] {
			t.Fatalf("result %d is a different bundle", i)
		}
	}

	if _, err := cache.Get("./bundle.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get("other.json"); err != nil {
		t.Fatal(err)
	}
	if cache.Loads() != 2 || cache.Len() != 2 {
		t.Errorf("Loads=%d Len=%d, want 2/2", cache.Loads(), cache.Len())
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	fail := true
	cache := artifact.NewCacheWithLoader(func(path string) (*model.Bundle, error) {
		if fail {
			return nil, artifact.ErrMalformedArtifact
		}
		return testutil.QuickBundle(), nil
	})
	if _, err := cache.Get("x.json"); !errors.Is(err, artifact.ErrMalformedArtifact) {
		t.Fatalf("expected error, got %v", err)
	}
	fail = false
	if _, err := cache.Get("x.json"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if cache.Loads() != 2 {
		t.Errorf("Loads = %d, want 2", cache.Loads())
	}
}
