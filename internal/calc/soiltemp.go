package calc

import (
	"math"
	"time"

	"github.com/rcalderwood/catchsim/internal/params"
	"github.com/rcalderwood/catchsim/internal/timeseries"
)

// InsulationFunc maps snow depth to a heat-exchange attenuation factor in
// (0, 1]. The functional form is deliberately pluggable: available material
// only pins down the bounding parameter, so the curve is configuration, not
// physics.
type InsulationFunc func(snowDepth float64) float64

// ExpInsulation returns the exponential attenuation exp(factor * depth)
// bounded below by floor and above by 1. factor is expected to be negative
// (deeper snow insulates more).
func ExpInsulation(factor, floor float64) InsulationFunc {
	return func(snowDepth float64) float64 {
		s := math.Exp(factor * snowDepth)
		if s > 1 {
			s = 1
		}
		if s < floor {
			s = floor
		}
		return s
	}
}

// DefaultInsulation derives the attenuation from the land-cover
// snowDepthFactor alone, with the floor set at the factor's value for a
// two-unit-deep pack.
func DefaultInsulation(snowDepthFactor float64) InsulationFunc {
	return ExpInsulation(snowDepthFactor, math.Exp(2*snowDepthFactor))
}

// SoilTempParams parameterizes the soil temperature stage. Thermal values
// come from the land-cover soilTemperature group; depth and the initial
// state come from the bucket.
type SoilTempParams struct {
	// ThermalConductivity Kt of the soil (W/m/°C).
	ThermalConductivity float64

	// SpecificHeatFreezeThaw Cs of the soil (MJ/m³/°C), including the
	// latent component across freeze/thaw.
	SpecificHeatFreezeThaw float64

	// SnowDepthFactor parameterizes the snow insulation curve; negative.
	SnowDepthFactor float64

	// EffectiveDepth Zs of the bucket (m).
	EffectiveDepth float64

	// InitialSoilTemperature seeds the carried state (°C).
	InitialSoilTemperature float64

	// Insulation overrides the attenuation curve. Nil selects
	// DefaultInsulation(SnowDepthFactor).
	Insulation InsulationFunc

	// OutputName labels the derived series. Empty derives one from the
	// input name.
	OutputName string
}

// DefaultSoilTempParams returns the conventional land-cover and bucket
// defaults.
func DefaultSoilTempParams() SoilTempParams {
	return SoilTempParams{
		ThermalConductivity:    0.63,
		SpecificHeatFreezeThaw: 1.3,
		SnowDepthFactor:        -3.3,
		EffectiveDepth:         0.5,
		InitialSoilTemperature: 5.0,
	}
}

func (p SoilTempParams) validate() error {
	checks := []struct {
		name     string
		value    float64
		min, max float64
	}{
		{"thermalConductivity", p.ThermalConductivity, 0.01, 10},
		{"specificHeatFreezeThaw", p.SpecificHeatFreezeThaw, 0.01, 100},
		{"snowDepthFactor", p.SnowDepthFactor, -20, 0},
		{"effectiveDepth", p.EffectiveDepth, 0.01, 10},
		{"initialSoilTemperature", p.InitialSoilTemperature, -30, 50},
	}
	for _, c := range checks {
		if err := params.CheckBounds(c.name, c.value, c.min, c.max); err != nil {
			return err
		}
	}
	return nil
}

// SoilTemperature propagates a first-order heat-diffusion update per row:
//
//	δT = (dt/86400) * S(z) * (Kt / (1e6 * Cs * Zs²)) * (Tair − Tsoil)
//
// with S(z) the snow insulation factor. Soil heat must evolve continuously,
// so unlike the rain/snow stage the state advances across every row: a row
// with no air temperature holds the previous soil temperature and still
// emits it, and a missing snow depth reads as bare ground.
func SoilTemperature(input *timeseries.TimeSeries, p SoilTempParams) (*timeseries.TimeSeries, error) {
	if err := input.RequireColumns(ColAirTemperature); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	insulation := p.Insulation
	if insulation == nil {
		insulation = DefaultInsulation(p.SnowDepthFactor)
	}

	scale := TimestepFromMetadata(input).ScaleFactor()
	// Diffusion coefficient is constant across rows
	diffusion := p.ThermalConductivity / (1.0e6 * p.SpecificHeatFreezeThaw * p.EffectiveDepth * p.EffectiveDepth)

	name := p.OutputName
	if name == "" {
		name = input.Name + "_soil_temperature"
	}
	out := timeseries.New(name)
	out.InheritMetadata(input)
	out.AddMetadata("calculation", "soil_temperature")
	out.AddMetadata("generation_time", time.Now().UTC().Format(time.RFC3339))
	out.AddMetadata("thermal_conductivity", p.ThermalConductivity)
	out.AddMetadata("specific_heat_freeze_thaw", p.SpecificHeatFreezeThaw)
	out.AddMetadata("snow_depth_factor", p.SnowDepthFactor)
	out.AddMetadata("effective_depth", p.EffectiveDepth)
	out.AddMetadata("initial_soil_temperature", p.InitialSoilTemperature)
	out.AddMetadata("formula", "deltaT = (dt/86400) * S(z) * (Kt/(1e6*Cs*Zs^2)) * (T - Ts0)")

	if _, err := out.AddColumn(ColSoilTemp); err != nil {
		return nil, err
	}

	hasSnow := input.HasColumn(ColSnowpackDepth)

	soil := make(map[string]float64)

	for _, row := range input.SortedRows() {
		prev, seen := soil[row.Location]
		if !seen {
			prev = p.InitialSoilTemperature
		}

		next := prev
		if air, ok := input.ValueIn(row, ColAirTemperature); ok {
			z := 0.0
			if hasSnow {
				if depth, ok := input.ValueIn(row, ColSnowpackDepth); ok {
					z = depth
				}
			}
			next = prev + scale*insulation(z)*diffusion*(air-prev)
		}
		soil[row.Location] = next

		err := out.AddData(row.Timestamp, row.Location, map[string]float64{ColSoilTemp: next})
		if err != nil {
			return nil, err
		}
	}

	out.SortRows()
	return out, nil
}
