// Package artifact loads precomputed clustering bundles.
//
// Load reads one bundle (JSON or SQLite), validates the positional
// correspondence of its tables and derives the Cluster column. Cache wraps
// Load so each path is read at most once per process.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/vanderheijden86/clusterboard/internal/datasource"
	"github.com/vanderheijden86/clusterboard/pkg/debug"
	"github.com/vanderheijden86/clusterboard/pkg/metrics"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

var (
	// ErrArtifactNotFound is returned when the bundle file does not exist.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrMalformedArtifact is returned when the bundle cannot be decoded or
	// lacks a required key.
	ErrMalformedArtifact = errors.New("malformed artifact")
	// ErrRowMismatch is returned when positionally joined tables disagree.
	ErrRowMismatch = model.ErrRowMismatch
)

// Load reads, validates and finalises the bundle at path.
func Load(path string) (*model.Bundle, error) {
	return LoadWithOptions(path, DecodeOptions{})
}

// LoadWithOptions is Load with custom decode options.
func LoadWithOptions(path string, opts DecodeOptions) (*model.Bundle, error) {
	defer metrics.Timer(metrics.ArtifactLoad)()
	start := time.Now()

	src, err := datasource.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("cannot read artifact %s: %w", path, err)
	}

	var b *model.Bundle
	switch src.Type {
	case datasource.SourceTypeJSON:
		b, err = loadJSON(path, opts)
	case datasource.SourceTypeSQLite:
		b, err = loadSQLite(src)
	default:
		err = fmt.Errorf("%w: unsupported file type %q (want .json, .sqlite, .sqlite3 or .db)", ErrMalformedArtifact, path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	b.Source = path

	if err := b.Validate(); err != nil {
		if errors.Is(err, ErrRowMismatch) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		return nil, fmt.Errorf("loading %s: %w: %w", path, ErrMalformedArtifact, err)
	}
	if err := b.AssignClusters(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	debug.LogTiming("artifact load "+path, time.Since(start))
	debug.Log("loaded %s: %d songs, %d features, %d clusters", src, b.Reference.Len(), len(b.FeatureColumns), len(b.DistinctClusters()))
	return b, nil
}

func loadJSON(path string, opts DecodeOptions) (*model.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()
	return Decode(f, opts)
}

func loadSQLite(src datasource.DataSource) (*model.Bundle, error) {
	r, err := datasource.NewSQLiteReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedArtifact, err)
	}
	defer r.Close()

	b, err := r.ReadBundle()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedArtifact, err)
	}
	return b, nil
}
