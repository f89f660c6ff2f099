// Package analysis derives everything the dashboard views display from a
// loaded bundle. All functions are pure and never modify the bundle.
package analysis

import (
	"sort"

	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// OverviewSampleSize is the number of leading songs shown on the Overview.
const OverviewSampleSize = 5

// DashboardTitle heads the Overview and every report.
const DashboardTitle = "Amazon Music Clustering Dashboard"

// IntroMarkdown is the project paragraph shown on the Overview.
const IntroMarkdown = "This project groups similar Amazon Music songs based on their audio features using **K-Means clustering**.\n" +
	"Explore clusters, visualize patterns, and understand musical characteristics.\n"

// ClusterSize is the song count of one cluster.
type ClusterSize struct {
	Cluster int `json:"cluster"`
	Count   int `json:"count"`
}

// Summary backs the Overview view.
type Summary struct {
	TotalSongs   int           `json:"total_songs"`
	FeatureCount int           `json:"feature_count"`
	ClusterCount int           `json:"cluster_count"`
	Sample       []model.Song  `json:"sample"`
	Sizes        []ClusterSize `json:"cluster_sizes"`
}

// Overview computes the dataset summary.
func Overview(b *model.Bundle) Summary {
	sizes := ClusterSizes(b)
	n := min(OverviewSampleSize, b.Reference.Len())
	sample := make([]model.Song, 0, n)
	for i := 0; i < n; i++ {
		sample = append(sample, b.Reference.Song(i))
	}
	return Summary{
		TotalSongs:   b.Reference.Len(),
		FeatureCount: len(b.FeatureColumns),
		ClusterCount: len(sizes),
		Sample:       sample,
		Sizes:        sizes,
	}
}

// ClusterSizes counts songs per cluster, ascending by cluster id.
func ClusterSizes(b *model.Bundle) []ClusterSize {
	counts := make(map[int]int)
	for _, c := range b.Reference.Clusters {
		counts[c]++
	}
	out := make([]ClusterSize, 0, len(counts))
	for c, n := range counts {
		out = append(out, ClusterSize{Cluster: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cluster < out[j].Cluster })
	return out
}
