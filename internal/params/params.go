// Package params holds the read-only hierarchical parameter set for a
// catchment model (catchment → HRU → subcatchment/reach → land-cover type →
// bucket) and the providers that load it. Calculation stages consume these
// values but never mutate them.
package params

import "fmt"

// ParameterBoundsError indicates a parameter value outside its documented
// min/max range. Out-of-range values are rejected before a stage runs, never
// silently clamped.
type ParameterBoundsError struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

func (e *ParameterBoundsError) Error() string {
	return fmt.Sprintf("parameter %q value %g outside bounds [%g, %g]", e.Name, e.Value, e.Min, e.Max)
}

// Parameter is a named scalar with documented bounds and a default.
type Parameter struct {
	Name    string  `yaml:"name"`
	Value   float64 `yaml:"value"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Default float64 `yaml:"default"`
}

// Validate rejects a value outside the documented bounds.
func (p Parameter) Validate() error {
	if p.Value < p.Min || p.Value > p.Max {
		return &ParameterBoundsError{Name: p.Name, Value: p.Value, Min: p.Min, Max: p.Max}
	}
	return nil
}

// CheckBounds validates an ad-hoc scalar against a documented range.
func CheckBounds(name string, value, min, max float64) error {
	return Parameter{Name: name, Value: value, Min: min, Max: max}.Validate()
}

// PrecipitationAdjustments holds subcatchment-level corrections applied
// before the land-cover multipliers.
type PrecipitationAdjustments struct {
	SnowOffset         float64 `yaml:"snowOffset"`
	RainfallMultiplier float64 `yaml:"rainfallMultiplier"`
	SnowfallMultiplier float64 `yaml:"snowfallMultiplier"`
}

// Snowpack holds the land-cover snow hydrology parameters.
type Snowpack struct {
	InitialDepth      float64 `yaml:"depth"`
	MeltTemperature   float64 `yaml:"meltTemperature"`
	DegreeDayMeltRate float64 `yaml:"degreeDayMeltRate"`
}

// Evaporation holds the land-cover PET parameters.
type Evaporation struct {
	SolarRadiationScalingFactor float64 `yaml:"solarRadiationScalingFactor"`
	GrowingDegreeOffset         float64 `yaml:"growingDegreeOffset"`
}

// SoilThermal holds the land-cover soil temperature parameters.
type SoilThermal struct {
	ThermalConductivity    float64 `yaml:"thermalConductivity"`
	SpecificHeatFreezeThaw float64 `yaml:"specificHeatFreezeThaw"`
	SnowDepthFactor        float64 `yaml:"snowDepthFactor"`
}

// Bucket is a water storage compartment within a land-cover type.
type Bucket struct {
	Name                   string  `yaml:"name"`
	EffectiveDepth         float64 `yaml:"effectiveDepth"`
	InitialSoilTemperature float64 `yaml:"initialSoilTemperature"`
	InfiltrationThreshold  float64 `yaml:"infiltrationThreshold"`
}

// LandCoverType parameterizes one land-cover class within a subcatchment.
type LandCoverType struct {
	Name               string      `yaml:"name"`
	RainfallMultiplier float64     `yaml:"rainfallMultiplier"`
	SnowfallMultiplier float64     `yaml:"snowfallMultiplier"`
	Snowpack           Snowpack    `yaml:"snowpack"`
	Evaporation        Evaporation `yaml:"evaporation"`
	SoilThermal        SoilThermal `yaml:"soilTemperature"`
	Buckets            []Bucket    `yaml:"buckets"`
}

// Reach describes the stream reach of an HRU. Routing and hydraulics are out
// of scope; the reach carries identity and geometry only.
type Reach struct {
	Name   string  `yaml:"name"`
	Length float64 `yaml:"length"`
}

// Subcatchment groups the land-cover types draining to one reach.
type Subcatchment struct {
	Name                     string                   `yaml:"name"`
	Area                     float64                  `yaml:"area"`
	PrecipitationAdjustments PrecipitationAdjustments `yaml:"precipitationAdjustments"`
	LandCoverTypes           []LandCoverType          `yaml:"landCoverTypes"`
}

// HRU is a hydrological response unit: one subcatchment paired with its
// reach.
type HRU struct {
	Name         string       `yaml:"name"`
	Latitude     float64      `yaml:"latitude"`
	Longitude    float64      `yaml:"longitude"`
	Subcatchment Subcatchment `yaml:"subcatchment"`
	Reach        Reach        `yaml:"reach"`
}

// Catchment is the root of the parameter hierarchy.
type Catchment struct {
	Name           string  `yaml:"name"`
	TimezoneOffset float64 `yaml:"timezoneOffset"`
	HRUs           []HRU   `yaml:"hrus"`
}

// HRUByName returns the named HRU or nil.
func (c *Catchment) HRUByName(name string) *HRU {
	for i := range c.HRUs {
		if c.HRUs[i].Name == name {
			return &c.HRUs[i]
		}
	}
	return nil
}
