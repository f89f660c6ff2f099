package analysis

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// KeyFeatureNames is the fixed subset compared in the grouped bar chart.
var KeyFeatureNames = []string{"energy", "acousticness", "valence", "instrumentalness", "speechiness"}

// ErrMissingFeature is returned when a requested feature is not a column of
// the cluster profile. There is no fallback substitution.
var ErrMissingFeature = errors.New("feature missing from cluster profile")

// SelectFeatures returns the profile restricted to names, in that order.
func SelectFeatures(p model.ClusterProfile, names []string) (model.ClusterProfile, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = p.FeatureIndex(name)
		if idx[i] < 0 {
			return model.ClusterProfile{}, fmt.Errorf("%w: %q", ErrMissingFeature, name)
		}
	}

	out := model.ClusterProfile{
		Clusters: append([]int(nil), p.Clusters...),
		Features: append([]string(nil), names...),
		Means:    make([][]float64, len(p.Means)),
	}
	for r, row := range p.Means {
		sel := make([]float64, len(idx))
		for i, c := range idx {
			sel[i] = row[c]
		}
		out.Means[r] = sel
	}
	return out, nil
}

// KeyFeatures is SelectFeatures over KeyFeatureNames.
func KeyFeatures(p model.ClusterProfile) (model.ClusterProfile, error) {
	return SelectFeatures(p, KeyFeatureNames)
}
