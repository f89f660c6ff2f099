package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/clusterboard/pkg/model"
)

type frameOut struct {
	Columns []string `json:"columns"`
	Index   []int    `json:"index,omitempty"`
	Data    any      `json:"data"`
}

type bundleOut struct {
	Reference     frameOut `json:"df_reference"`
	Scaled        frameOut `json:"df_standard_scaled"`
	PCA           frameOut `json:"df_pca"`
	Labels        []int    `json:"kmeans_labels"`
	Profile       frameOut `json:"cluster_profile"`
	Features      []string `json:"feature_columns"`
	Silhouette    *float64 `json:"sil_score,omitempty"`
	DaviesBouldin *float64 `json:"db_index,omitempty"`
}

// Encode writes b in the JSON bundle format Decode reads. The derived
// Cluster column is not written; kmeans_labels carries it.
func Encode(w io.Writer, b *model.Bundle) error {
	out := bundleOut{
		Reference:     frameOut{Columns: nonNil(b.Reference.Columns), Data: nonNilRows(b.Reference.Rows)},
		Scaled:        frameOut{Columns: nonNil(b.Scaled.Columns), Data: nonNilRows(b.Scaled.Rows)},
		PCA:           frameOut{Columns: nonNil(b.PCA.Columns), Data: nonNilRows(b.PCA.Rows)},
		Labels:        nonNil(b.Labels),
		Profile:       frameOut{Columns: nonNil(b.Profile.Features), Index: b.Profile.Clusters, Data: nonNilRows(b.Profile.Means)},
		Features:      nonNil(b.FeatureColumns),
		Silhouette:    b.Scores.Silhouette,
		DaviesBouldin: b.Scores.DaviesBouldin,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	return nil
}

// WriteJSON encodes b to path, creating parent directories.
func WriteJSON(path string, b *model.Bundle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating bundle directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating bundle file: %w", err)
	}
	if err := Encode(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilRows[T any](rows [][]T) [][]T {
	if rows == nil {
		return [][]T{}
	}
	return rows
}
