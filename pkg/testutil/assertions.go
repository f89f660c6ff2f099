package testutil

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// AssertValidBundle verifies the bundle passes structural validation.
func AssertValidBundle(t *testing.T, b *model.Bundle) {
	t.Helper()
	if err := b.Validate(); err != nil {
		t.Fatalf("bundle invalid: %v", err)
	}
}

// AssertClusterSizes verifies the per-cluster song counts of an assigned bundle.
func AssertClusterSizes(t *testing.T, b *model.Bundle, want map[int]int) {
	t.Helper()
	got := CountByCluster(b)
	if len(got) != len(want) {
		t.Errorf("expected %d clusters, got %d (%v)", len(want), len(got), got)
	}
	for c, n := range want {
		if got[c] != n {
			t.Errorf("cluster %d: expected %d songs, got %d", c, n, got[c])
		}
	}
}

// AssertFloatNear fails when |got-want| exceeds tol.
func AssertFloatNear(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// AssertContainsAll fails for every needle missing from haystack.
func AssertContainsAll(t *testing.T, haystack string, needles ...string) {
	t.Helper()
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			t.Errorf("output missing %q", n)
		}
	}
}

// WriteFile writes content to dir/name, creating dir, and returns the path.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// CountByCluster returns cluster id -> song count from the Cluster column.
func CountByCluster(b *model.Bundle) map[int]int {
	counts := make(map[int]int)
	for _, c := range b.Reference.Clusters {
		counts[c]++
	}
	return counts
}

// IndicesInCluster returns the row indices assigned to cluster, in order.
func IndicesInCluster(b *model.Bundle, cluster int) []int {
	var out []int
	for i, c := range b.Reference.Clusters {
		if c == cluster {
			out = append(out, i)
		}
	}
	return out
}
