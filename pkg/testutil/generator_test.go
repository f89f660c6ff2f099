package testutil

import (
	"reflect"
	"testing"
)

func TestBundle_DefaultShape(t *testing.T) {
	b := NewDefault().Bundle()
	AssertValidBundle(t, b)

	if b.Reference.Len() != 100 {
		t.Fatalf("expected 100 songs, got %d", b.Reference.Len())
	}
	if len(b.Profile.Clusters) != 4 {
		t.Errorf("expected 4 profile rows, got %d", len(b.Profile.Clusters))
	}
	if b.Scores.Silhouette == nil || b.Scores.DaviesBouldin == nil {
		t.Error("expected scores to be populated")
	}

	if err := b.AssignClusters(); err != nil {
		t.Fatal(err)
	}
	AssertClusterSizes(t, b, map[int]int{0: 30, 1: 20, 2: 25, 3: 25})
}

func TestBundle_Determinism(t *testing.T) {
	a := NewDefault().Bundle()
	b := NewDefault().Bundle()
	if !reflect.DeepEqual(a.Labels, b.Labels) {
		t.Error("labels differ between runs with the same seed")
	}
	if !reflect.DeepEqual(a.Scaled.Rows, b.Scaled.Rows) {
		t.Error("scaled rows differ between runs with the same seed")
	}
}

func TestBundle_NoShuffleGroupsLabels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shuffle = false
	cfg.Sizes = []int{2, 3}
	labels := New(cfg).Labels()
	if want := []int{0, 0, 1, 1, 1}; !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
}

func TestProfile_MeansMatchMembers(t *testing.T) {
	b := QuickBundle()
	for r, cluster := range b.Profile.Clusters {
		members := IndicesInCluster(b, cluster)
		var sum float64
		for _, i := range members {
			sum += b.Scaled.Rows[i][0]
		}
		AssertFloatNear(t, "profile mean", b.Profile.Means[r][0], sum/float64(len(members)), 1e-9)
	}
}

func TestSizedBundle_SkipsEmptyCluster(t *testing.T) {
	b := SizedBundle(7, 3, 0, 2)
	AssertClusterSizes(t, b, map[int]int{0: 3, 2: 2})
	if want := []int{0, 2}; !reflect.DeepEqual(b.Profile.Clusters, want) {
		t.Errorf("profile clusters = %v, want %v", b.Profile.Clusters, want)
	}
}
