package timeseries

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the present values of one column.
type Stats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
}

// Summary computes summary statistics over the named column, ignoring
// missing cells. An undeclared column is an UnknownColumnError.
func (t *TimeSeries) Summary(column string) (Stats, error) {
	ci, ok := t.colIndex[column]
	if !ok {
		return Stats{}, &UnknownColumnError{Column: column}
	}

	var values []float64
	for _, row := range t.rows {
		if v, present := row.Value(ci); present {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Stats{}, nil
	}

	sort.Float64s(values)
	s := Stats{
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Min:    values[0],
		Max:    values[len(values)-1],
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
	}
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s, nil
}
