package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/clusterboard/pkg/debug"
	"github.com/vanderheijden86/clusterboard/pkg/metrics"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// Fixed names of the clustered CSV download.
const (
	CSVFileName    = "AmazonMusic_Clustered.csv"
	CSVContentType = "text/csv"
)

// WriteCSV writes the full Reference Table, upstream columns in order and
// the Cluster column last, with a header row.
func WriteCSV(w io.Writer, b *model.Bundle) error {
	defer metrics.Timer(metrics.CSVExport)()

	cw := csv.NewWriter(w)
	if err := cw.Write(b.Reference.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < b.Reference.Len(); i++ {
		if err := cw.Write(b.Reference.Record(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes CSVFileName into dir and returns its path.
func SaveCSV(dir string, b *model.Bundle) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, CSVFileName)
	tmp, err := os.CreateTemp(dir, ".clustered-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := WriteCSV(tmp, b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	// CreateTemp opens 0600; match the other export files.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	debug.Log("csv: %d rows written to %s", b.Reference.Len(), path)
	return path, nil
}

// ReadCSV parses a file written by WriteCSV back into a header and records.
func ReadCSV(r io.Reader) (header []string, records [][]string, err error) {
	all, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("parse csv: empty file")
	}
	return all[0], all[1:], nil
}
