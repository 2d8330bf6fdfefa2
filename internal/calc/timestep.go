// Package calc implements the physics derivation stages: rain/snow
// partitioning with degree-day snowmelt, clear-sky solar radiation,
// Jensen-Haise potential evapotranspiration, and first-order soil heat
// diffusion. Each stage is a pure function from an input series (plus
// explicit scalar parameters) to a freshly built output series; stages never
// mutate their inputs, perform no file I/O, and hold no package state, so
// independent derivations can run concurrently.
package calc

import (
	"strconv"
	"time"

	"github.com/rcalderwood/catchsim/internal/timeseries"
)

// Standard column names shared across stages.
const (
	ColAirTemperature = "air_temperature"
	ColPrecipitation  = "precipitation"
	ColRainfallDepth  = "rainfall_depth"
	ColSnowfallDepth  = "snowfall_depth"
	ColSnowpackDepth  = "snowpack_depth"
	ColSnowmeltDepth  = "snowmelt_depth"
	ColSolarRadiation = "solar_radiation"
	ColPET            = "pet_depth"
	ColSoilTemp       = "soil_temperature"
)

// timestepMetadataKey is where a series records its recording interval.
const timestepMetadataKey = "timestep_seconds"

// Timestep describes the recording interval of a series.
type Timestep struct {
	d time.Duration
}

// Daily and Hourly are the common model timesteps.
var (
	Daily  = Timestep{d: 24 * time.Hour}
	Hourly = Timestep{d: time.Hour}
)

// CustomTimestep wraps an arbitrary positive interval.
func CustomTimestep(d time.Duration) Timestep {
	return Timestep{d: d}
}

// Duration returns the interval length.
func (t Timestep) Duration() time.Duration {
	return t.d
}

// Seconds returns the interval length in seconds.
func (t Timestep) Seconds() float64 {
	return t.d.Seconds()
}

// ScaleFactor converts per-day rates to per-interval amounts
// (1.0 for daily, 1/24 for hourly).
func (t Timestep) ScaleFactor() float64 {
	return t.Seconds() / 86400.0
}

// TimestepFromMetadata reads a series' declared timestep. Accepts a numeric
// or string-encoded second count; series without a declared timestep default
// to daily, matching how raw observation files are recorded.
func TimestepFromMetadata(ts *timeseries.TimeSeries) Timestep {
	v, ok := ts.Metadata(timestepMetadataKey)
	if !ok {
		return Daily
	}
	switch s := v.(type) {
	case float64:
		if s > 0 {
			return Timestep{d: time.Duration(s * float64(time.Second))}
		}
	case int:
		if s > 0 {
			return Timestep{d: time.Duration(s) * time.Second}
		}
	case string:
		if secs, err := strconv.ParseFloat(s, 64); err == nil && secs > 0 {
			return Timestep{d: time.Duration(secs * float64(time.Second))}
		}
	}
	return Daily
}
