// Package testutil provides deterministic clustering-bundle fixtures for tests
// and the sample-data script.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// DefaultFeatures mirrors the audio features the upstream pipeline scales.
var DefaultFeatures = []string{
	"danceability", "energy", "loudness", "speechiness", "acousticness",
	"instrumentalness", "liveness", "valence", "tempo",
}

// ReferenceColumns is the column layout of generated reference tables.
var ReferenceColumns = []string{"id_songs", "name_song", "name_artists", "genres", "release_date"}

var genrePool = []string{
	"['pop', 'dance pop']", "['indie folk']", "['lo-fi beats', 'chillhop']",
	"['classical', 'soundtrack']", "['hip hop']", "['edm', 'house']", "[]",
}

// GeneratorConfig controls bundle generation.
type GeneratorConfig struct {
	Seed       int64    // Random seed for determinism (0 = use current time)
	Sizes      []int    // Songs per cluster; cluster ids are 0..len(Sizes)-1
	Features   []string // Scaled feature columns (default: DefaultFeatures)
	Shuffle    bool     // Interleave cluster labels instead of grouping them
	WithScores bool     // Populate silhouette and Davies-Bouldin scores
}

// DefaultConfig returns a config suitable for most tests: 100 songs in four
// clusters of 30, 20, 25 and 25.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:       42,
		Sizes:      []int{30, 20, 25, 25},
		Features:   DefaultFeatures,
		Shuffle:    true,
		WithScores: true,
	}
}

// Generator creates bundle fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if len(cfg.Features) == 0 {
		cfg.Features = DefaultFeatures
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Labels returns one cluster id per song following cfg.Sizes.
func (g *Generator) Labels() []int {
	var labels []int
	for cluster, size := range g.cfg.Sizes {
		for i := 0; i < size; i++ {
			labels = append(labels, cluster)
		}
	}
	if g.cfg.Shuffle {
		g.rng.Shuffle(len(labels), func(i, j int) {
			labels[i], labels[j] = labels[j], labels[i]
		})
	}
	return labels
}

// Bundle generates a complete raw bundle. The Cluster column is not yet
// assigned, matching what a decoder produces.
func (g *Generator) Bundle() *model.Bundle {
	labels := g.Labels()
	features := append([]string(nil), g.cfg.Features...)

	b := &model.Bundle{
		Source:         "generated",
		Labels:         labels,
		FeatureColumns: features,
		Reference:      model.ReferenceTable{Columns: append([]string(nil), ReferenceColumns...)},
		Scaled:         model.Frame{Columns: features},
		PCA:            model.Frame{Columns: []string{"PC1", "PC2"}},
	}

	for i, cluster := range labels {
		b.Reference.Rows = append(b.Reference.Rows, []string{
			fmt.Sprintf("id%04d", i),
			fmt.Sprintf("Song %03d", i),
			fmt.Sprintf("Artist %d", g.rng.Intn(40)),
			genrePool[g.rng.Intn(len(genrePool))],
			fmt.Sprintf("%d", 1990+g.rng.Intn(34)),
		})

		row := make([]float64, len(features))
		for f := range features {
			row[f] = centroid(cluster, f) + g.rng.NormFloat64()*0.3
		}
		b.Scaled.Rows = append(b.Scaled.Rows, row)
		b.PCA.Rows = append(b.PCA.Rows, project(row))
	}

	b.Profile = Profile(b.Scaled, labels, len(g.cfg.Sizes))

	if g.cfg.WithScores {
		sil, dbi := 0.31234567, 1.2
		b.Scores = model.QualityScores{Silhouette: &sil, DaviesBouldin: &dbi}
	}
	return b
}

// Profile computes per-cluster feature means over scaled rows.
func Profile(scaled model.Frame, labels []int, k int) model.ClusterProfile {
	p := model.ClusterProfile{Features: append([]string(nil), scaled.Columns...)}
	counts := make([]int, k)
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, len(scaled.Columns))
	}
	for i, row := range scaled.Rows {
		c := labels[i]
		counts[c]++
		for f, v := range row {
			sums[c][f] += v
		}
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		for f := range sums[c] {
			sums[c][f] /= float64(counts[c])
		}
		p.Clusters = append(p.Clusters, c)
		p.Means = append(p.Means, sums[c])
	}
	return p
}

// centroid places each cluster at a distinct point of feature space.
func centroid(cluster, feature int) float64 {
	return float64((cluster*7+feature*3)%5-2) * 0.8
}

// project is a fixed two-component projection standing in for PCA.
func project(row []float64) []float64 {
	var a, b float64
	half := len(row) / 2
	for i, v := range row {
		if i < half {
			a += v
		} else {
			b += v
		}
	}
	return []float64{a / float64(max(half, 1)), b / float64(max(len(row)-half, 1))}
}

// Quick helpers

// QuickBundle returns a default bundle with clusters assigned.
func QuickBundle() *model.Bundle {
	b := NewDefault().Bundle()
	if err := b.AssignClusters(); err != nil {
		panic(err)
	}
	return b
}

// SizedBundle returns an assigned bundle with the given cluster sizes.
func SizedBundle(seed int64, sizes ...int) *model.Bundle {
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.Sizes = sizes
	b := New(cfg).Bundle()
	if err := b.AssignClusters(); err != nil {
		panic(err)
	}
	return b
}
