package analysis

import (
	"github.com/vanderheijden86/clusterboard/pkg/config"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// ClampTopN bounds n to the Insights slider range.
func ClampTopN(n int) int {
	return max(config.MinTopN, min(config.MaxTopN, n))
}

// TopSongs returns the first n songs of cluster in original row order.
// n is clamped to [config.MinTopN, config.MaxTopN]; an unknown cluster
// yields no rows.
func TopSongs(b *model.Bundle, cluster, n int) []model.Song {
	n = ClampTopN(n)
	out := make([]model.Song, 0, n)
	for i, c := range b.Reference.Clusters {
		if c != cluster {
			continue
		}
		out = append(out, b.Reference.Song(i))
		if len(out) == n {
			break
		}
	}
	return out
}

// DefaultCluster is the initial Insights selection: the smallest cluster id.
func DefaultCluster(b *model.Bundle) (int, bool) {
	ids := b.DistinctClusters()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// NextCluster returns the id after current in ascending order, wrapping.
// delta may be negative.
func NextCluster(ids []int, current, delta int) int {
	if len(ids) == 0 {
		return current
	}
	pos := 0
	for i, id := range ids {
		if id == current {
			pos = i
			break
		}
	}
	pos = ((pos+delta)%len(ids) + len(ids)) % len(ids)
	return ids[pos]
}
