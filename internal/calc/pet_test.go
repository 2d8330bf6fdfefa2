package calc

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rcalderwood/catchsim/internal/params"
	"github.com/rcalderwood/catchsim/internal/timeseries"
)

func petInput(t *testing.T, rows []struct {
	day       int
	temp      float64
	radiation float64
}) *timeseries.TimeSeries {
	t.Helper()
	ts := timeseries.New("forcing")
	ts.AddColumn(ColAirTemperature)
	ts.AddColumn(ColSolarRadiation)
	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range rows {
		err := ts.AddData(base.AddDate(0, 0, r.day), "hru-1", map[string]float64{
			ColAirTemperature: r.temp,
			ColSolarRadiation: r.radiation,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return ts
}

func TestPETJensenHaise(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		rs       float64
		scaling  float64
		offset   float64
		expected float64
	}{
		{"reference case", 10, 120, 60, 0, 20}, // 120/60*10
		{"zero at freezing", 0, 120, 60, 0, 0},
		{"zero below freezing", -4, 200, 60, 0, 0},
		{"offset lifts cold temperature", -1, 120, 60, 3, 4}, // 120/60*2
		{"offset floor exactly at zero", -3, 500, 60, 3, 0},
		{"negative radiation floors at zero", 10, -50, 60, 0, 0},
		{"larger scaling reduces PET", 10, 120, 120, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := petInput(t, []struct {
				day       int
				temp      float64
				radiation float64
			}{{0, tt.temp, tt.rs}})

			out, err := PotentialEvapotranspiration(input, PETParams{
				SolarRadiationScalingFactor: tt.scaling,
				GrowingDegreeOffset:         tt.offset,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			pet, ok := out.Value(0, ColPET)
			if !ok {
				t.Fatal("expected a PET value")
			}
			if math.Abs(pet-tt.expected) > 1e-12 {
				t.Errorf("expected PET %v, got %v", tt.expected, pet)
			}
		})
	}
}

func TestPETFloorIsExact(t *testing.T) {
	// Whenever T + offset <= 0 the output must be exactly zero, whatever
	// the radiation value says.
	for _, rs := range []float64{-1000, 0, 50, 1e6} {
		input := petInput(t, []struct {
			day       int
			temp      float64
			radiation float64
		}{{0, -2, rs}})

		out, err := PotentialEvapotranspiration(input, DefaultPETParams())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pet, _ := out.Value(0, ColPET); pet != 0 {
			t.Errorf("radiation %v: expected PET exactly 0, got %v", rs, pet)
		}
	}
}

func TestPETTimestepScaling(t *testing.T) {
	input := petInput(t, []struct {
		day       int
		temp      float64
		radiation float64
	}{{0, 10, 120}})
	input.AddMetadata("timestep_seconds", 3600.0)

	out, err := PotentialEvapotranspiration(input, DefaultPETParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 20 mm/day over an hourly interval
	if pet, _ := out.Value(0, ColPET); math.Abs(pet-20.0/24.0) > 1e-12 {
		t.Errorf("expected hourly-scaled PET %v, got %v", 20.0/24.0, pet)
	}
	if v, _ := out.Metadata("timestep_scale"); math.Abs(v.(float64)-1.0/24.0) > 1e-15 {
		t.Errorf("expected timestep_scale 1/24 recorded, got %v", v)
	}
}

func TestPETMissingInputsEmitMissing(t *testing.T) {
	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	input := timeseries.New("forcing")
	input.AddColumn(ColAirTemperature)
	input.AddColumn(ColSolarRadiation)
	input.AddData(base, "hru-1", map[string]float64{ColAirTemperature: 10, ColSolarRadiation: 120})
	input.AddData(base.AddDate(0, 0, 1), "hru-1", map[string]float64{ColAirTemperature: 10})

	out, err := PotentialEvapotranspiration(input, DefaultPETParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.Len())
	}
	if _, ok := out.Value(0, ColPET); !ok {
		t.Error("expected PET on the complete row")
	}
	if _, ok := out.Value(1, ColPET); ok {
		t.Error("expected missing PET on the incomplete row")
	}
}

func TestPETValidationAndBounds(t *testing.T) {
	missing := timeseries.New("forcing")
	missing.AddColumn(ColAirTemperature)

	_, err := PotentialEvapotranspiration(missing, DefaultPETParams())
	var v *timeseries.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	input := petInput(t, []struct {
		day       int
		temp      float64
		radiation float64
	}{{0, 10, 120}})

	p := DefaultPETParams()
	p.SolarRadiationScalingFactor = 0 // would divide by zero
	_, err = PotentialEvapotranspiration(input, p)
	var bounds *params.ParameterBoundsError
	if !errors.As(err, &bounds) {
		t.Fatalf("expected ParameterBoundsError, got %v", err)
	}
}

func TestPETIdempotent(t *testing.T) {
	input := petInput(t, []struct {
		day       int
		temp      float64
		radiation float64
	}{
		{0, 10, 120}, {1, -2, 80}, {2, 18, 300},
	})

	p := DefaultPETParams()
	first, _ := PotentialEvapotranspiration(input, p)
	second, _ := PotentialEvapotranspiration(input, p)

	for i := 0; i < first.Len(); i++ {
		a, aok := first.Value(i, ColPET)
		b, bok := second.Value(i, ColPET)
		if aok != bok || a != b {
			t.Errorf("row %d: %v vs %v", i, a, b)
		}
	}
}
