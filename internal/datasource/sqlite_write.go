package datasource

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vanderheijden86/clusterboard/pkg/model"
)

//go:embed schema.sql
var schemaSQL string

// WriteBundle stores b at path using the long-format schema ReadBundle
// understands. An existing file at path is replaced.
func WriteBundle(ctx context.Context, path string, b *model.Bundle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing old database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	pragmas := []string{
		"PRAGMA journal_mode=DELETE",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("setting pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	w := &bundleWriter{ctx: ctx, tx: tx}
	w.columns(frameReference, b.Reference.Columns)
	w.stringCells(b.Reference)
	w.frame(frameScaled, b.Scaled)
	w.frame(framePCA, b.PCA)
	w.labels(b.Labels)
	w.profile(b.Profile)
	w.features(b.FeatureColumns)
	w.scores(b.Scores)
	if w.err != nil {
		return w.err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bundle: %w", err)
	}
	return nil
}

// bundleWriter keeps the first error so the table writers can be chained.
type bundleWriter struct {
	ctx context.Context
	tx  *sql.Tx
	err error
}

func (w *bundleWriter) insert(query string, rows func(stmt *sql.Stmt) error) {
	if w.err != nil {
		return
	}
	stmt, err := w.tx.PrepareContext(w.ctx, query)
	if err != nil {
		w.err = fmt.Errorf("preparing %q: %w", query, err)
		return
	}
	defer stmt.Close()
	if err := rows(stmt); err != nil {
		w.err = err
	}
}

func (w *bundleWriter) columns(frame string, cols []string) {
	w.insert(`INSERT INTO columns (frame, position, name) VALUES (?, ?, ?)`, func(stmt *sql.Stmt) error {
		for i, c := range cols {
			if _, err := stmt.ExecContext(w.ctx, frame, i, c); err != nil {
				return fmt.Errorf("writing %s columns: %w", frame, err)
			}
		}
		return nil
	})
}

func (w *bundleWriter) stringCells(t model.ReferenceTable) {
	w.insert(`INSERT INTO reference (row_idx, column_name, value) VALUES (?, ?, ?)`, func(stmt *sql.Stmt) error {
		for i, row := range t.Rows {
			for c, value := range row {
				if _, err := stmt.ExecContext(w.ctx, i, t.Columns[c], value); err != nil {
					return fmt.Errorf("writing reference row %d: %w", i, err)
				}
			}
		}
		return nil
	})
}

func (w *bundleWriter) frame(table string, f model.Frame) {
	w.columns(table, f.Columns)
	w.insert(`INSERT INTO `+table+` (row_idx, column_name, value) VALUES (?, ?, ?)`, func(stmt *sql.Stmt) error {
		for i, row := range f.Rows {
			for c, value := range row {
				if _, err := stmt.ExecContext(w.ctx, i, f.Columns[c], value); err != nil {
					return fmt.Errorf("writing %s row %d: %w", table, i, err)
				}
			}
		}
		return nil
	})
}

func (w *bundleWriter) labels(labels []int) {
	w.insert(`INSERT INTO labels (row_idx, cluster) VALUES (?, ?)`, func(stmt *sql.Stmt) error {
		for i, l := range labels {
			if _, err := stmt.ExecContext(w.ctx, i, l); err != nil {
				return fmt.Errorf("writing label %d: %w", i, err)
			}
		}
		return nil
	})
}

func (w *bundleWriter) profile(p model.ClusterProfile) {
	w.columns(frameProfile, p.Features)
	w.insert(`INSERT INTO cluster_profile (cluster, column_name, value) VALUES (?, ?, ?)`, func(stmt *sql.Stmt) error {
		for r, row := range p.Means {
			for c, value := range row {
				if _, err := stmt.ExecContext(w.ctx, p.Clusters[r], p.Features[c], value); err != nil {
					return fmt.Errorf("writing cluster_profile %d: %w", p.Clusters[r], err)
				}
			}
		}
		return nil
	})
}

func (w *bundleWriter) features(names []string) {
	w.insert(`INSERT INTO features (position, name) VALUES (?, ?)`, func(stmt *sql.Stmt) error {
		for i, name := range names {
			if _, err := stmt.ExecContext(w.ctx, i, name); err != nil {
				return fmt.Errorf("writing feature %q: %w", name, err)
			}
		}
		return nil
	})
}

func (w *bundleWriter) scores(s model.QualityScores) {
	w.insert(`INSERT INTO meta (key, value) VALUES (?, ?)`, func(stmt *sql.Stmt) error {
		for key, v := range map[string]*float64{MetaSilhouette: s.Silhouette, MetaDaviesBouldin: s.DaviesBouldin} {
			if v == nil {
				continue
			}
			if _, err := stmt.ExecContext(w.ctx, key, strconv.FormatFloat(*v, 'g', -1, 64)); err != nil {
				return fmt.Errorf("writing meta %s: %w", key, err)
			}
		}
		return nil
	})
}
