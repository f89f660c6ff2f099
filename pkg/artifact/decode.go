package artifact

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// Bundle keys written by the upstream pipeline.
const (
	KeyReference     = "df_reference"
	KeyScaled        = "df_standard_scaled"
	KeyPCA           = "df_pca"
	KeyLabels        = "kmeans_labels"
	KeyProfile       = "cluster_profile"
	KeyFeatures      = "feature_columns"
	KeySilhouette    = "sil_score"
	KeyDaviesBouldin = "db_index"
)

// RequiredKeys must be present in every JSON bundle.
var RequiredKeys = []string{KeyReference, KeyScaled, KeyPCA, KeyLabels, KeyProfile, KeyFeatures}

var optionalKeys = []string{KeySilhouette, KeyDaviesBouldin}

// DecodeOptions configures Decode.
type DecodeOptions struct {
	// WarningHandler is called for recoverable oddities (unknown keys,
	// an upstream Cluster column that will be replaced). If nil, warnings
	// are printed to os.Stderr.
	WarningHandler func(string)
}

func (o DecodeOptions) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if o.WarningHandler != nil {
		o.WarningHandler(msg)
		return
	}
	fmt.Fprintln(os.Stderr, "Warning:", msg)
}

// rawFrame is the split-orient encoding of a table.
type rawFrame struct {
	Columns []string          `json:"columns"`
	Index   []int             `json:"index,omitempty"`
	Data    []json.RawMessage `json:"data"`
}

// Decode parses a JSON bundle. The result is not validated and has no
// Cluster column yet; Load does both.
func Decode(r io.Reader, opts DecodeOptions) (*model.Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading: %w", ErrMalformedArtifact, err)
	}
	return decodeBytes(stripBOM(data), opts)
}

func decodeBytes(data []byte, opts DecodeOptions) (*model.Bundle, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedArtifact, err)
	}
	for _, key := range RequiredKeys {
		if _, ok := top[key]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrMalformedArtifact, key)
		}
	}
	for key := range top {
		if !isKnownKey(key) {
			opts.warn("ignoring unknown bundle key %q", key)
		}
	}

	b := &model.Bundle{}
	var err error

	if err := unmarshalKey(top, KeyFeatures, &b.FeatureColumns); err != nil {
		return nil, err
	}
	if err := unmarshalKey(top, KeyLabels, &b.Labels); err != nil {
		return nil, err
	}
	if b.Reference, err = decodeReference(top[KeyReference]); err != nil {
		return nil, err
	}
	if b.Reference.ColumnIndex(model.ColumnCluster) >= 0 {
		opts.warn("%s carries a %s column; it is replaced by %s", KeyReference, model.ColumnCluster, KeyLabels)
	}
	if b.Scaled, err = decodeFrame(KeyScaled, top[KeyScaled], b.FeatureColumns, ""); err != nil {
		return nil, err
	}
	if b.PCA, err = decodeFrame(KeyPCA, top[KeyPCA], nil, "PC"); err != nil {
		return nil, err
	}
	if b.Profile, err = decodeProfile(top[KeyProfile]); err != nil {
		return nil, err
	}
	if b.Scores.Silhouette, err = decodeScore(top, KeySilhouette); err != nil {
		return nil, err
	}
	if b.Scores.DaviesBouldin, err = decodeScore(top, KeyDaviesBouldin); err != nil {
		return nil, err
	}
	return b, nil
}

func isKnownKey(key string) bool {
	for _, k := range RequiredKeys {
		if k == key {
			return true
		}
	}
	for _, k := range optionalKeys {
		if k == key {
			return true
		}
	}
	return false
}

func unmarshalKey(top map[string]json.RawMessage, key string, v any) error {
	if err := json.Unmarshal(top[key], v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedArtifact, key, err)
	}
	return nil
}

// decodeScore returns nil for an absent or null score.
func decodeScore(top map[string]json.RawMessage, key string) (*float64, error) {
	raw, ok := top[key]
	if !ok {
		return nil, nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedArtifact, key, err)
	}
	return v, nil
}

func decodeReference(raw json.RawMessage) (model.ReferenceTable, error) {
	var f rawFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return model.ReferenceTable{}, fmt.Errorf("%w: %s: %w", ErrMalformedArtifact, KeyReference, err)
	}

	t := model.ReferenceTable{Columns: f.Columns, Rows: make([][]string, 0, len(f.Data))}
	for i, rowRaw := range f.Data {
		dec := json.NewDecoder(bytes.NewReader(rowRaw))
		dec.UseNumber()
		var cells []any
		if err := dec.Decode(&cells); err != nil {
			return model.ReferenceTable{}, fmt.Errorf("%w: %s row %d: %w", ErrMalformedArtifact, KeyReference, i, err)
		}
		row := make([]string, len(cells))
		for c, cell := range cells {
			row[c] = cellString(cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// cellString renders a JSON scalar the way it appears in the CSV export.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := x.Float64(); err == nil {
			return pyFloat(f)
		}
		return x.String()
	default:
		out, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(out)
	}
}

// pyFloat formats f as Python's repr does, which is how pandas writes a
// float column: 35.0 stays "35.0", 1e20 becomes "1e+20".
func pyFloat(f float64) string {
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}
	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}

// decodeFrame accepts either the split-orient object or a bare 2-D array.
// Bare arrays take their column names from fallback, or from prefix+N.
func decodeFrame(key string, raw json.RawMessage, fallback []string, prefix string) (model.Frame, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var data []json.RawMessage
		if err := json.Unmarshal(trimmed, &data); err != nil {
			return model.Frame{}, fmt.Errorf("%w: %s: %w", ErrMalformedArtifact, key, err)
		}
		rows, err := floatRows(key, data)
		if err != nil {
			return model.Frame{}, err
		}
		width := 0
		if len(rows) > 0 {
			width = len(rows[0])
		}
		cols := fallback
		if len(cols) != width || prefix != "" {
			cols = make([]string, width)
			for i := range cols {
				cols[i] = prefix + strconv.Itoa(i+1)
			}
		}
		return model.Frame{Columns: cols, Rows: rows}, nil
	}

	var f rawFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return model.Frame{}, fmt.Errorf("%w: %s: %w", ErrMalformedArtifact, key, err)
	}
	rows, err := floatRows(key, f.Data)
	if err != nil {
		return model.Frame{}, err
	}
	return model.Frame{Columns: f.Columns, Rows: rows}, nil
}

func decodeProfile(raw json.RawMessage) (model.ClusterProfile, error) {
	var f rawFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return model.ClusterProfile{}, fmt.Errorf("%w: %s: %w", ErrMalformedArtifact, KeyProfile, err)
	}
	rows, err := floatRows(KeyProfile, f.Data)
	if err != nil {
		return model.ClusterProfile{}, err
	}
	clusters := f.Index
	if clusters == nil {
		clusters = make([]int, len(rows))
		for i := range clusters {
			clusters[i] = i
		}
	}
	return model.ClusterProfile{Clusters: clusters, Features: f.Columns, Means: rows}, nil
}

// floatRows decodes numeric rows. A null cell (pandas' NaN) is rejected
// rather than read as 0.
func floatRows(key string, data []json.RawMessage) ([][]float64, error) {
	rows := make([][]float64, 0, len(data))
	for i, rowRaw := range data {
		var cells []*float64
		if err := json.Unmarshal(rowRaw, &cells); err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %w", ErrMalformedArtifact, key, i, err)
		}
		row := make([]float64, len(cells))
		for j, c := range cells {
			if c == nil {
				return nil, fmt.Errorf("%w: %s row %d column %d is null (NaN)", ErrMalformedArtifact, key, i, j)
			}
			row[j] = *c
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
