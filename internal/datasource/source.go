// Package datasource locates clustering bundles on disk and reads the SQLite
// flavour of the bundle. JSON decoding lives in pkg/artifact.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArtifactEnvVar overrides artifact discovery when set.
const ArtifactEnvVar = "CLUSTERBOARD_ARTIFACT"

// DefaultArtifactName is the bundle filename the upstream pipeline writes.
const DefaultArtifactName = "cleaned_data.json"

// CandidateNames defines the lookup order used by DiscoverArtifact.
var CandidateNames = []string{DefaultArtifactName, "cleaned_data.sqlite", "cleaned_data.db"}

// ErrNoArtifact is returned when discovery finds no usable bundle.
var ErrNoArtifact = errors.New("no clustering bundle found")

// SourceType identifies the on-disk encoding of a bundle.
type SourceType string

const (
	SourceTypeJSON    SourceType = "json"
	SourceTypeSQLite  SourceType = "sqlite"
	SourceTypeUnknown SourceType = "unknown"
)

// DataSource describes a bundle file.
type DataSource struct {
	Type    SourceType `json:"type"`
	Path    string     `json:"path"`
	ModTime time.Time  `json:"mod_time"`
	Size    int64      `json:"size"`
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, %d bytes, mod=%s)", s.Path, s.Type, s.Size, s.ModTime.Format(time.RFC3339))
}

// DetectType infers the bundle encoding from the file extension.
func DetectType(path string) SourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SourceTypeJSON
	case ".sqlite", ".sqlite3", ".db":
		return SourceTypeSQLite
	default:
		return SourceTypeUnknown
	}
}

// Stat builds a DataSource for path.
func Stat(path string) (DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, err
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("%s is a directory", path)
	}
	return DataSource{
		Type:    DetectType(path),
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// DiscoverArtifact resolves the bundle path for dir (cwd when empty).
// CLUSTERBOARD_ARTIFACT wins when set; otherwise the first non-empty file in
// CandidateNames is used. When nothing matches, the default name is returned
// together with ErrNoArtifact so callers can report the expected location.
func DiscoverArtifact(dir string) (string, error) {
	if env := strings.TrimSpace(os.Getenv(ArtifactEnvVar)); env != "" {
		return env, nil
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = wd
	}

	for _, name := range CandidateNames {
		path := filepath.Join(dir, name)
		src, err := Stat(path)
		if err != nil || src.Size == 0 {
			continue
		}
		return path, nil
	}
	return filepath.Join(dir, DefaultArtifactName), fmt.Errorf("%w in %s (looked for %s)", ErrNoArtifact, dir, strings.Join(CandidateNames, ", "))
}
