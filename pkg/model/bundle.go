// Package model defines the in-memory shape of a precomputed clustering bundle.
//
// A bundle is produced upstream (scaling, PCA, K-Means, quality scoring) and is
// read-only once loaded. The only derived value is the per-song Cluster column,
// which is joined from the label array exactly once by AssignClusters.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Reference table column names consumed by the dashboard.
const (
	ColumnSongName = "name_song"
	ColumnArtists  = "name_artists"
	ColumnGenres   = "genres"
	ColumnCluster  = "Cluster"
)

// ErrRowMismatch reports that the positionally joined tables disagree in length.
var ErrRowMismatch = errors.New("bundle tables have mismatched row counts")

// Frame is a column-ordered table of float values (scaled features, PCA).
type Frame struct {
	Columns []string
	Rows    [][]float64
}

// Len returns the number of rows.
func (f Frame) Len() int {
	return len(f.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (f Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column.
func (f Frame) Column(name string) ([]float64, bool) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	return f.ColumnAt(idx), true
}

// ColumnAt returns a copy of column idx. Rows shorter than idx yield 0.
func (f Frame) ColumnAt(idx int) []float64 {
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out
}

func (f Frame) validate(name string) error {
	for i, row := range f.Rows {
		if len(row) != len(f.Columns) {
			return fmt.Errorf("%s row %d has %d values, want %d", name, i, len(row), len(f.Columns))
		}
	}
	return nil
}

// Song is one Reference Table row projected onto the displayed columns.
type Song struct {
	Index   int
	Name    string
	Artists string
	Genres  string
	Cluster int
}

// ReferenceTable holds one row per song with the upstream columns kept
// verbatim. Clusters is the derived Cluster column.
type ReferenceTable struct {
	Columns  []string
	Rows     [][]string
	Clusters []int
}

// Len returns the number of songs.
func (t ReferenceTable) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named upstream column, or -1.
func (t ReferenceTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row i for the named column ("" when absent).
func (t ReferenceTable) Value(i int, column string) string {
	if column == ColumnCluster {
		if i < len(t.Clusters) {
			return strconv.Itoa(t.Clusters[i])
		}
		return ""
	}
	idx := t.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) || idx >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][idx]
}

// Song returns row i as a Song.
func (t ReferenceTable) Song(i int) Song {
	s := Song{
		Index:   i,
		Name:    t.Value(i, ColumnSongName),
		Artists: t.Value(i, ColumnArtists),
		Genres:  t.Value(i, ColumnGenres),
	}
	if i < len(t.Clusters) {
		s.Cluster = t.Clusters[i]
	}
	return s
}

// Header returns the upstream columns followed by the derived Cluster column.
func (t ReferenceTable) Header() []string {
	h := make([]string, 0, len(t.Columns)+1)
	h = append(h, t.Columns...)
	return append(h, ColumnCluster)
}

// Record returns row i laid out like Header.
func (t ReferenceTable) Record(i int) []string {
	rec := make([]string, 0, len(t.Columns)+1)
	rec = append(rec, t.Rows[i]...)
	cluster := ""
	if i < len(t.Clusters) {
		cluster = strconv.Itoa(t.Clusters[i])
	}
	return append(rec, cluster)
}

// ClusterProfile is the per-cluster mean of every scaled feature.
type ClusterProfile struct {
	Clusters []int
	Features []string
	Means    [][]float64
}

// FeatureIndex returns the position of the named feature, or -1.
func (p ClusterProfile) FeatureIndex(name string) int {
	for i, f := range p.Features {
		if f == name {
			return i
		}
	}
	return -1
}

// Value returns the mean of feature for the cluster at row r.
func (p ClusterProfile) Value(r int, feature string) (float64, bool) {
	idx := p.FeatureIndex(feature)
	if idx < 0 || r < 0 || r >= len(p.Means) || idx >= len(p.Means[r]) {
		return 0, false
	}
	return p.Means[r][idx], true
}

// Range returns the smallest and largest mean in the table.
func (p ClusterProfile) Range() (lo, hi float64) {
	first := true
	for _, row := range p.Means {
		for _, v := range row {
			if first || v < lo {
				lo = v
			}
			if first || v > hi {
				hi = v
			}
			first = false
		}
	}
	return lo, hi
}

func (p ClusterProfile) validate() error {
	if len(p.Means) != len(p.Clusters) {
		return fmt.Errorf("cluster_profile has %d rows but %d cluster ids", len(p.Means), len(p.Clusters))
	}
	for i, row := range p.Means {
		if len(row) != len(p.Features) {
			return fmt.Errorf("cluster_profile row %d has %d values, want %d", i, len(row), len(p.Features))
		}
	}
	return nil
}

// QualityScores holds the optional upstream cluster-quality metrics.
// A nil pointer means the score was not available in the artifact.
type QualityScores struct {
	Silhouette    *float64
	DaviesBouldin *float64
}

// Bundle is the full precomputed artifact.
type Bundle struct {
	Source         string
	Reference      ReferenceTable
	Scaled         Frame
	PCA            Frame
	Labels         []int
	Profile        ClusterProfile
	FeatureColumns []string
	Scores         QualityScores
}

// Validate checks the structural invariants of a freshly decoded bundle.
// The Reference, Scaled, PCA and Label tables are joined by position, so
// their lengths must agree.
func (b *Bundle) Validate() error {
	for _, col := range []string{ColumnSongName, ColumnArtists, ColumnGenres} {
		if b.Reference.ColumnIndex(col) < 0 {
			return fmt.Errorf("df_reference is missing column %q", col)
		}
	}
	for i, row := range b.Reference.Rows {
		if len(row) != len(b.Reference.Columns) {
			return fmt.Errorf("df_reference row %d has %d values, want %d", i, len(row), len(b.Reference.Columns))
		}
	}
	if err := b.Scaled.validate("df_standard_scaled"); err != nil {
		return err
	}
	if err := b.PCA.validate("df_pca"); err != nil {
		return err
	}
	if len(b.PCA.Columns) < 2 {
		return fmt.Errorf("df_pca needs at least 2 components, got %d", len(b.PCA.Columns))
	}
	if err := b.Profile.validate(); err != nil {
		return err
	}

	n := b.Reference.Len()
	if len(b.Labels) != n {
		return fmt.Errorf("%w: df_reference=%d kmeans_labels=%d", ErrRowMismatch, n, len(b.Labels))
	}
	if b.Scaled.Len() != n {
		return fmt.Errorf("%w: df_reference=%d df_standard_scaled=%d", ErrRowMismatch, n, b.Scaled.Len())
	}
	if b.PCA.Len() != n {
		return fmt.Errorf("%w: df_reference=%d df_pca=%d", ErrRowMismatch, n, b.PCA.Len())
	}
	return nil
}

// AssignClusters derives the Cluster column from the label array. Any
// upstream column already named Cluster is dropped first.
func (b *Bundle) AssignClusters() error {
	if len(b.Labels) != b.Reference.Len() {
		return fmt.Errorf("%w: df_reference=%d kmeans_labels=%d", ErrRowMismatch, b.Reference.Len(), len(b.Labels))
	}
	if idx := b.Reference.ColumnIndex(ColumnCluster); idx >= 0 {
		b.Reference.Columns = append(b.Reference.Columns[:idx:idx], b.Reference.Columns[idx+1:]...)
		for i, row := range b.Reference.Rows {
			b.Reference.Rows[i] = append(row[:idx:idx], row[idx+1:]...)
		}
	}
	b.Reference.Clusters = make([]int, len(b.Labels))
	copy(b.Reference.Clusters, b.Labels)
	return nil
}

// DistinctClusters returns the sorted unique values of the Cluster column.
func (b *Bundle) DistinctClusters() []int {
	seen := make(map[int]bool)
	var out []int
	for _, c := range b.Reference.Clusters {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Ints(out)
	return out
}
