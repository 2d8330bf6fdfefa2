package timeseries

import (
	"fmt"
	"sort"
	"time"
)

// MergePolicy selects which (timestamp, location) keys survive a merge.
type MergePolicy int

const (
	// MergeUnion keeps every key present in either input series.
	MergeUnion MergePolicy = iota
	// MergeIntersection keeps only keys present in both input series.
	MergeIntersection
)

// Merge combines two series into a new one. The row backbone is the union or
// intersection of (timestamp, location) keys per the policy; value columns
// from both inputs are carried over, with b winning where both series
// populate the same cell. Metadata from both inputs is merged and the source
// UUIDs are recorded so the result's provenance chain covers both parents.
func Merge(a, b *TimeSeries, policy MergePolicy, name string) (*TimeSeries, error) {
	merged := New(name)

	merged.AddMetadata("source_uuid_1", a.ID.String())
	merged.AddMetadata("source_uuid_2", b.ID.String())
	for k, v := range a.metadata {
		if k == "uuid" || k == "name" {
			continue
		}
		merged.metadata[k] = v
	}
	for k, v := range b.metadata {
		if k == "uuid" || k == "name" {
			continue
		}
		merged.metadata[k] = v
	}

	for _, col := range a.columns {
		if _, err := merged.AddColumn(col.Name); err != nil {
			return nil, fmt.Errorf("merging columns of %q: %w", a.Name, err)
		}
	}
	for _, col := range b.columns {
		if merged.HasColumn(col.Name) {
			continue
		}
		if _, err := merged.AddColumn(col.Name); err != nil {
			return nil, fmt.Errorf("merging columns of %q: %w", b.Name, err)
		}
	}

	inA := make(map[rowKey]int, len(a.rows))
	for i, row := range a.rows {
		inA[rowKey{unixNano: row.Timestamp.UnixNano(), location: row.Location}] = i
	}
	inB := make(map[rowKey]int, len(b.rows))
	for i, row := range b.rows {
		inB[rowKey{unixNano: row.Timestamp.UnixNano(), location: row.Location}] = i
	}

	keys := make(map[rowKey]bool)
	switch policy {
	case MergeUnion:
		for k := range inA {
			keys[k] = true
		}
		for k := range inB {
			keys[k] = true
		}
	case MergeIntersection:
		for k := range inA {
			if _, ok := inB[k]; ok {
				keys[k] = true
			}
		}
	default:
		return nil, fmt.Errorf("unknown merge policy %d", policy)
	}

	ordered := make([]rowKey, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].unixNano != ordered[j].unixNano {
			return ordered[i].unixNano < ordered[j].unixNano
		}
		return ordered[i].location < ordered[j].location
	})

	for _, key := range ordered {
		values := make(map[string]float64)
		if i, ok := inA[key]; ok {
			for ci, col := range a.columns {
				if v, present := a.rows[i].Value(ci); present {
					values[col.Name] = v
				}
			}
		}
		if i, ok := inB[key]; ok {
			for ci, col := range b.columns {
				if v, present := b.rows[i].Value(ci); present {
					values[col.Name] = v
				}
			}
		}
		ts := time.Unix(0, key.unixNano).UTC()
		if err := merged.AddData(ts, key.location, values); err != nil {
			return nil, fmt.Errorf("merging row at %s/%s: %w", ts, key.location, err)
		}
	}

	return merged, nil
}
