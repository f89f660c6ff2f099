package datasource

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// Frame names used in the columns table.
const (
	frameReference = "reference"
	frameScaled    = "scaled"
	framePCA       = "pca"
	frameProfile   = "cluster_profile"
)

// Meta keys for the optional quality scores.
const (
	MetaSilhouette    = "sil_score"
	MetaDaviesBouldin = "db_index"
)

// SQLiteReader provides read access to a clustering bundle stored in SQLite.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite bundle for reading.
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		_, _ = db.Exec(pragma)
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection.
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadBundle reads every table into a raw bundle. The bundle is not
// validated and the Cluster column is not assigned.
func (r *SQLiteReader) ReadBundle() (*model.Bundle, error) {
	b := &model.Bundle{Source: r.path}
	var err error

	if b.Reference.Columns, err = r.columns(frameReference); err != nil {
		return nil, err
	}
	if b.Reference.Rows, err = r.stringCells(frameReference, b.Reference.Columns); err != nil {
		return nil, err
	}
	if b.Scaled, err = r.frame(frameScaled); err != nil {
		return nil, err
	}
	if b.PCA, err = r.frame(framePCA); err != nil {
		return nil, err
	}
	if b.Labels, err = r.labels(); err != nil {
		return nil, err
	}
	if b.Profile, err = r.profile(); err != nil {
		return nil, err
	}
	if b.FeatureColumns, err = r.features(); err != nil {
		return nil, err
	}
	if b.Scores, err = r.scores(); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *SQLiteReader) columns(frame string) ([]string, error) {
	rows, err := r.db.Query(`SELECT name FROM columns WHERE frame = ? ORDER BY position`, frame)
	if err != nil {
		return nil, fmt.Errorf("reading %s columns: %w", frame, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("reading %s columns: %w", frame, err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// rowCount returns max(row_idx)+1 for a long-format table.
func (r *SQLiteReader) rowCount(table string) (int, error) {
	var n sql.NullInt64
	if err := r.db.QueryRow(`SELECT MAX(row_idx) FROM ` + table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s rows: %w", table, err)
	}
	if !n.Valid {
		return 0, nil
	}
	return int(n.Int64) + 1, nil
}

func (r *SQLiteReader) stringCells(table string, cols []string) ([][]string, error) {
	n, err := r.rowCount(table)
	if err != nil {
		return nil, err
	}
	index := columnIndex(cols)
	out := make([][]string, n)
	for i := range out {
		out[i] = make([]string, len(cols))
	}

	rows, err := r.db.Query(`SELECT row_idx, column_name, value FROM ` + table)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idx   int
			col   string
			value sql.NullString
		)
		if err := rows.Scan(&idx, &col, &value); err != nil {
			return nil, fmt.Errorf("reading %s: %w", table, err)
		}
		c, ok := index[col]
		if !ok {
			return nil, fmt.Errorf("%s row %d: unknown column %q", table, idx, col)
		}
		if idx < 0 {
			return nil, fmt.Errorf("%s: negative row_idx %d", table, idx)
		}
		if value.Valid {
			out[idx][c] = value.String
		}
	}
	return out, rows.Err()
}

func (r *SQLiteReader) frame(table string) (model.Frame, error) {
	cols, err := r.columns(table)
	if err != nil {
		return model.Frame{}, err
	}
	n, err := r.rowCount(table)
	if err != nil {
		return model.Frame{}, err
	}
	index := columnIndex(cols)
	f := model.Frame{Columns: cols, Rows: make([][]float64, n)}
	for i := range f.Rows {
		f.Rows[i] = make([]float64, len(cols))
	}

	rows, err := r.db.Query(`SELECT row_idx, column_name, value FROM ` + table)
	if err != nil {
		return model.Frame{}, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idx   int
			col   string
			value float64
		)
		if err := rows.Scan(&idx, &col, &value); err != nil {
			return model.Frame{}, fmt.Errorf("reading %s: %w", table, err)
		}
		c, ok := index[col]
		if !ok {
			return model.Frame{}, fmt.Errorf("%s row %d: unknown column %q", table, idx, col)
		}
		if idx < 0 {
			return model.Frame{}, fmt.Errorf("%s: negative row_idx %d", table, idx)
		}
		f.Rows[idx][c] = value
	}
	return f, rows.Err()
}

func (r *SQLiteReader) labels() ([]int, error) {
	rows, err := r.db.Query(`SELECT row_idx, cluster FROM labels ORDER BY row_idx`)
	if err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}
	defer rows.Close()

	var labels []int
	for rows.Next() {
		var idx, cluster int
		if err := rows.Scan(&idx, &cluster); err != nil {
			return nil, fmt.Errorf("reading labels: %w", err)
		}
		if idx != len(labels) {
			return nil, fmt.Errorf("labels: row_idx %d out of sequence", idx)
		}
		labels = append(labels, cluster)
	}
	return labels, rows.Err()
}

func (r *SQLiteReader) profile() (model.ClusterProfile, error) {
	cols, err := r.columns(frameProfile)
	if err != nil {
		return model.ClusterProfile{}, err
	}
	index := columnIndex(cols)

	rows, err := r.db.Query(`SELECT cluster, column_name, value FROM cluster_profile`)
	if err != nil {
		return model.ClusterProfile{}, fmt.Errorf("reading cluster_profile: %w", err)
	}
	defer rows.Close()

	byCluster := make(map[int][]float64)
	for rows.Next() {
		var (
			cluster int
			col     string
			value   float64
		)
		if err := rows.Scan(&cluster, &col, &value); err != nil {
			return model.ClusterProfile{}, fmt.Errorf("reading cluster_profile: %w", err)
		}
		c, ok := index[col]
		if !ok {
			return model.ClusterProfile{}, fmt.Errorf("cluster_profile: unknown column %q", col)
		}
		row, ok := byCluster[cluster]
		if !ok {
			row = make([]float64, len(cols))
			byCluster[cluster] = row
		}
		row[c] = value
	}
	if err := rows.Err(); err != nil {
		return model.ClusterProfile{}, err
	}

	p := model.ClusterProfile{Features: cols}
	for cluster := range byCluster {
		p.Clusters = append(p.Clusters, cluster)
	}
	sort.Ints(p.Clusters)
	for _, cluster := range p.Clusters {
		p.Means = append(p.Means, byCluster[cluster])
	}
	return p, nil
}

func (r *SQLiteReader) features() ([]string, error) {
	rows, err := r.db.Query(`SELECT name FROM features ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("reading features: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("reading features: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *SQLiteReader) scores() (model.QualityScores, error) {
	rows, err := r.db.Query(`SELECT key, value FROM meta WHERE key IN (?, ?)`, MetaSilhouette, MetaDaviesBouldin)
	if err != nil {
		return model.QualityScores{}, fmt.Errorf("reading meta: %w", err)
	}
	defer rows.Close()

	var s model.QualityScores
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.QualityScores{}, fmt.Errorf("reading meta: %w", err)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return model.QualityScores{}, fmt.Errorf("meta %s: %w", key, err)
		}
		switch key {
		case MetaSilhouette:
			s.Silhouette = &f
		case MetaDaviesBouldin:
			s.DaviesBouldin = &f
		}
	}
	return s, rows.Err()
}

func columnIndex(cols []string) map[string]int {
	m := make(map[string]int, len(cols))
	for i, c := range cols {
		m[c] = i
	}
	return m
}
