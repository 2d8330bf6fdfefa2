package timeseries

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Persisted series are a file pair: <base>.csv holds the rows (timestamp
// ascending, location tie-break) and <base>.json holds the metadata,
// including the column name to UUID mapping needed to reconstruct column
// identities on reload.

const columnIDsKey = "column_ids"

// SaveToFiles writes the series as a CSV/JSON pair under dir and returns the
// two paths. Rows are sorted before writing.
func (t *TimeSeries) SaveToFiles(dir, base string) (csvPath, jsonPath string, err error) {
	if base == "" {
		base = t.Name
	}
	if base == "" {
		return "", "", fmt.Errorf("no base name for output files and series has no name")
	}

	t.SortRows()

	csvPath = filepath.Join(dir, base+".csv")
	jsonPath = filepath.Join(dir, base+".json")

	f, err := os.Create(csvPath)
	if err != nil {
		return "", "", fmt.Errorf("creating %s: %w", csvPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	// The timestamp column is headed by the series UUID so a data file can
	// be tied back to its metadata file even if one is renamed.
	header := []string{t.ID.String(), LocationColumn}
	for _, col := range t.columns {
		header = append(header, col.Name)
	}
	if err := w.Write(header); err != nil {
		return "", "", fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range t.rows {
		record[0] = row.Timestamp.UTC().Format(time.RFC3339Nano)
		record[1] = row.Location
		for i := range t.columns {
			if v, ok := row.Value(i); ok {
				record[i+2] = strconv.FormatFloat(v, 'g', -1, 64)
			} else {
				record[i+2] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return "", "", fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", "", fmt.Errorf("flushing %s: %w", csvPath, err)
	}

	colIDs := make(map[string]string, len(t.columns))
	for _, col := range t.columns {
		colIDs[col.Name] = col.ID.String()
	}
	meta := t.MetadataMap()
	meta["uuid"] = t.ID.String()
	if t.Name != "" {
		meta["name"] = t.Name
	}
	meta[columnIDsKey] = colIDs

	encoded, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return "", "", fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(jsonPath, encoded, 0o644); err != nil {
		return "", "", fmt.Errorf("writing %s: %w", jsonPath, err)
	}

	return csvPath, jsonPath, nil
}

// LoadFromFiles reconstructs a series from a CSV/JSON pair produced by
// SaveToFiles. Column identities, row values and metadata all round-trip.
func LoadFromFiles(csvPath, jsonPath string) (*TimeSeries, error) {
	rawMeta, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", jsonPath, err)
	}
	var meta map[string]any
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", jsonPath, err)
	}

	ts := New("")
	if name, ok := meta["name"].(string); ok {
		ts.Name = name
	}
	if idStr, ok := meta["uuid"].(string); ok {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("metadata uuid: %w", err)
		}
		ts.ID = id
	}

	colIDs := make(map[string]uuid.UUID)
	if raw, ok := meta[columnIDsKey].(map[string]any); ok {
		for name, v := range raw {
			s, ok := v.(string)
			if !ok {
				continue
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("column %q id: %w", name, err)
			}
			colIDs[name] = id
		}
	}

	for k, v := range meta {
		if k == columnIDsKey {
			continue
		}
		ts.metadata[k] = v
	}
	ts.metadata["uuid"] = ts.ID.String()

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", csvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", csvPath, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty data file", csvPath)
	}

	header := records[0]
	if len(header) < 2 || header[1] != LocationColumn {
		return nil, fmt.Errorf("%s: malformed header", csvPath)
	}
	for _, name := range header[2:] {
		id, ok := colIDs[name]
		if !ok {
			id = uuid.New()
		}
		if err := ts.restoreColumn(name, id); err != nil {
			return nil, fmt.Errorf("restoring column %q: %w", name, err)
		}
	}

	for n, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("%s: row %d has %d fields, want %d", csvPath, n+1, len(record), len(header))
		}
		stamp, err := time.Parse(time.RFC3339Nano, record[0])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d timestamp: %w", csvPath, n+1, err)
		}
		values := make(map[string]float64)
		for i, field := range record[2:] {
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %q: %w", csvPath, n+1, header[i+2], err)
			}
			values[header[i+2]] = v
		}
		if err := ts.AddData(stamp, record[1], values); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", csvPath, n+1, err)
		}
	}

	return ts, nil
}
