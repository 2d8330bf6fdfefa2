// Package timeseries implements the columnar time series container used by
// all derivation stages. A series holds rows keyed by (timestamp, location),
// an ordered set of named value columns with stable UUID identities, and an
// open metadata map that carries provenance forward through derivations.
package timeseries

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Reserved column names present on every series.
const (
	TimestampColumn = "timestamp"
	LocationColumn  = "location"
)

// Column is a named value column. The ID is independent of the column's
// position, so columns can be renamed or reordered without breaking
// cross-references from metadata or other series.
type Column struct {
	ID   uuid.UUID
	Name string
}

// Row is one observation: a timestamp, a location identifier, and one value
// slot per declared column. Missing values are stored as NaN and must be
// read through Value.
type Row struct {
	Timestamp time.Time
	Location  string
	values    []float64
}

// Value returns the value for the data column at index i (0 = first declared
// column) and whether it is present.
func (r Row) Value(i int) (float64, bool) {
	if i < 0 || i >= len(r.values) {
		return 0, false
	}
	v := r.values[i]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

type rowKey struct {
	unixNano int64
	location string
}

// TimeSeries is a typed columnar store keyed by timestamp and location.
type TimeSeries struct {
	// Name is a provenance label, typically the base name the series is
	// persisted under.
	Name string
	// ID uniquely identifies this series across renames and reloads.
	ID uuid.UUID

	columns  []Column
	colIndex map[string]int
	rows     []Row
	rowIndex map[rowKey]int
	metadata map[string]any
}

// New creates an empty series with a fresh UUID recorded in its metadata.
func New(name string) *TimeSeries {
	id := uuid.New()
	ts := &TimeSeries{
		Name:     name,
		ID:       id,
		colIndex: make(map[string]int),
		rowIndex: make(map[rowKey]int),
		metadata: make(map[string]any),
	}
	ts.metadata["uuid"] = id.String()
	if name != "" {
		ts.metadata["name"] = name
	}
	return ts
}

// AddColumn declares a new value column and returns its generated identity.
// Existing rows get a missing value in the new column.
func (t *TimeSeries) AddColumn(name string) (uuid.UUID, error) {
	if name == TimestampColumn || name == LocationColumn {
		return uuid.Nil, &DuplicateColumnError{Column: name}
	}
	if _, ok := t.colIndex[name]; ok {
		return uuid.Nil, &DuplicateColumnError{Column: name}
	}
	col := Column{ID: uuid.New(), Name: name}
	t.colIndex[name] = len(t.columns)
	t.columns = append(t.columns, col)
	for i := range t.rows {
		t.rows[i].values = append(t.rows[i].values, math.NaN())
	}
	return col.ID, nil
}

// restoreColumn re-declares a column with a known identity, used when
// loading a persisted series.
func (t *TimeSeries) restoreColumn(name string, id uuid.UUID) error {
	if _, ok := t.colIndex[name]; ok {
		return &DuplicateColumnError{Column: name}
	}
	t.colIndex[name] = len(t.columns)
	t.columns = append(t.columns, Column{ID: id, Name: name})
	for i := range t.rows {
		t.rows[i].values = append(t.rows[i].values, math.NaN())
	}
	return nil
}

// AddData appends or upserts the row identified by (timestamp, location).
// Columns absent from values keep their previous value (or stay missing on a
// fresh row). Referencing an undeclared column fails the whole call before
// any mutation.
func (t *TimeSeries) AddData(timestamp time.Time, location string, values map[string]float64) error {
	for name := range values {
		if _, ok := t.colIndex[name]; !ok {
			return &SchemaMismatchError{Column: name}
		}
	}

	key := rowKey{unixNano: timestamp.UnixNano(), location: location}
	idx, ok := t.rowIndex[key]
	if !ok {
		row := Row{Timestamp: timestamp, Location: location, values: make([]float64, len(t.columns))}
		for i := range row.values {
			row.values[i] = math.NaN()
		}
		idx = len(t.rows)
		t.rows = append(t.rows, row)
		t.rowIndex[key] = idx
	}
	for name, v := range values {
		t.rows[idx].values[t.colIndex[name]] = v
	}
	return nil
}

// ColumnIndex returns the table position of the named column. The timestamp
// column is position 0 and location is position 1; declared value columns
// follow in declaration order.
func (t *TimeSeries) ColumnIndex(name string) (int, error) {
	switch name {
	case TimestampColumn:
		return 0, nil
	case LocationColumn:
		return 1, nil
	}
	i, ok := t.colIndex[name]
	if !ok {
		return 0, &UnknownColumnError{Column: name}
	}
	return i + 2, nil
}

// HasColumn reports whether a value column with the given name is declared.
func (t *TimeSeries) HasColumn(name string) bool {
	_, ok := t.colIndex[name]
	return ok
}

// RequireColumns validates that every named value column is declared,
// returning a ValidationError for the first one that is not.
func (t *TimeSeries) RequireColumns(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return &ValidationError{Series: t.Name, Column: name}
		}
	}
	return nil
}

// Columns returns a copy of the declared value columns in order.
func (t *TimeSeries) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *TimeSeries) Len() int {
	return len(t.rows)
}

// RowAt returns the row at index i.
func (t *TimeSeries) RowAt(i int) Row {
	return t.rows[i]
}

// Value returns the value of the named column in row i and whether it is
// present. An undeclared column reads as missing.
func (t *TimeSeries) Value(i int, column string) (float64, bool) {
	ci, ok := t.colIndex[column]
	if !ok || i < 0 || i >= len(t.rows) {
		return 0, false
	}
	return t.rows[i].Value(ci)
}

// ValueIn reads the named column out of a row obtained from this series
// (for example via SortedRows), returning the value and whether it is
// present.
func (t *TimeSeries) ValueIn(row Row, column string) (float64, bool) {
	ci, ok := t.colIndex[column]
	if !ok {
		return 0, false
	}
	return row.Value(ci)
}

// AddMetadata upserts a metadata key. Last write wins.
func (t *TimeSeries) AddMetadata(key string, value any) {
	t.metadata[key] = value
}

// Metadata returns the value for a metadata key.
func (t *TimeSeries) Metadata(key string) (any, bool) {
	v, ok := t.metadata[key]
	return v, ok
}

// MetadataMap returns a copy of all metadata entries.
func (t *TimeSeries) MetadataMap() map[string]any {
	out := make(map[string]any, len(t.metadata))
	for k, v := range t.metadata {
		out[k] = v
	}
	return out
}

// InheritMetadata copies every metadata entry from src except its uuid and
// name, then records src's identity under source_uuid/source_name so the
// provenance chain stays intact across derivations.
func (t *TimeSeries) InheritMetadata(src *TimeSeries) {
	for k, v := range src.metadata {
		if k == "uuid" || k == "name" {
			continue
		}
		t.metadata[k] = v
	}
	t.metadata["source_uuid"] = src.ID.String()
	if src.Name != "" {
		t.metadata["source_name"] = src.Name
	}
}

// SortRows orders rows ascending by timestamp with a stable tie-break on
// location. Persisted output always has this ordering.
func (t *TimeSeries) SortRows() {
	sort.SliceStable(t.rows, func(i, j int) bool {
		if !t.rows[i].Timestamp.Equal(t.rows[j].Timestamp) {
			return t.rows[i].Timestamp.Before(t.rows[j].Timestamp)
		}
		return t.rows[i].Location < t.rows[j].Location
	})
	for i, row := range t.rows {
		t.rowIndex[rowKey{unixNano: row.Timestamp.UnixNano(), location: row.Location}] = i
	}
}

// SortedRows returns a copy of the rows ordered ascending by timestamp with
// a stable tie-break on location, leaving the series itself untouched.
// Stages iterate this copy so their inputs stay immutable.
func (t *TimeSeries) SortedRows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Location < out[j].Location
	})
	return out
}

// ByLocation returns the rows recorded for the given location, in current
// row order.
func (t *TimeSeries) ByLocation(location string) []Row {
	var out []Row
	for _, row := range t.rows {
		if row.Location == location {
			out = append(out, row)
		}
	}
	return out
}

// ByTimeRange returns the rows whose timestamps fall within [start, end]
// inclusive, in current row order.
func (t *TimeSeries) ByTimeRange(start, end time.Time) []Row {
	var out []Row
	for _, row := range t.rows {
		if !row.Timestamp.Before(start) && !row.Timestamp.After(end) {
			out = append(out, row)
		}
	}
	return out
}

// Locations returns the distinct location identifiers present in the series,
// sorted.
func (t *TimeSeries) Locations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range t.rows {
		if !seen[row.Location] {
			seen[row.Location] = true
			out = append(out, row.Location)
		}
	}
	sort.Strings(out)
	return out
}
