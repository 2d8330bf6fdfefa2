package timeseries

import "fmt"

// ValidationError indicates that a required column is missing from an input series.
type ValidationError struct {
	Series string
	Column string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("series %q: required column %q not present", e.Series, e.Column)
}

// SchemaMismatchError indicates that a data row references a column that was
// never declared on the series.
type SchemaMismatchError struct {
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("row references undeclared column %q", e.Column)
}

// DuplicateColumnError indicates an attempt to declare a column name twice.
type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("column %q already declared", e.Column)
}

// UnknownColumnError indicates a lookup of a column name that does not exist.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}
