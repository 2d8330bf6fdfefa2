package calc

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rcalderwood/catchsim/internal/params"
	"github.com/rcalderwood/catchsim/internal/timeseries"
)

// responsiveSoilParams makes the diffusion term large enough that single
// steps move the state visibly: Kt/(1e6*Cs*Zs²) = 1/(1e6*0.1*0.01) = 1e-3.
func responsiveSoilParams() SoilTempParams {
	return SoilTempParams{
		ThermalConductivity:    1.0,
		SpecificHeatFreezeThaw: 0.1,
		SnowDepthFactor:        -3.3,
		EffectiveDepth:         0.1,
		InitialSoilTemperature: 5.0,
	}
}

func soilInput(t *testing.T, rows []struct {
	day  int
	temp float64
	snow float64
}) *timeseries.TimeSeries {
	t.Helper()
	ts := timeseries.New("rain_snow")
	ts.AddColumn(ColAirTemperature)
	ts.AddColumn(ColSnowpackDepth)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range rows {
		err := ts.AddData(base.AddDate(0, 0, r.day), "hru-1", map[string]float64{
			ColAirTemperature: r.temp,
			ColSnowpackDepth:  r.snow,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return ts
}

func TestSoilTemperatureDiffusionStep(t *testing.T) {
	input := soilInput(t, []struct {
		day  int
		temp float64
		snow float64
	}{
		{0, 15, 0},
		{1, 15, 0},
	})

	out, err := SoilTemperature(input, responsiveSoilParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Day 0: 5 + 1e-3 * (15-5) = 5.01; day 1: 5.01 + 1e-3 * (15-5.01)
	if v, _ := out.Value(0, ColSoilTemp); math.Abs(v-5.01) > 1e-9 {
		t.Errorf("day 0: expected 5.01, got %v", v)
	}
	if v, _ := out.Value(1, ColSoilTemp); math.Abs(v-5.01999) > 1e-9 {
		t.Errorf("day 1: expected 5.01999, got %v", v)
	}
}

func TestSoilTemperatureApproachesAir(t *testing.T) {
	rows := make([]struct {
		day  int
		temp float64
		snow float64
	}, 200)
	for i := range rows {
		rows[i] = struct {
			day  int
			temp float64
			snow float64
		}{i, -10, 0}
	}
	input := soilInput(t, rows)

	out, err := SoilTemperature(input, responsiveSoilParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _ := out.Value(0, ColSoilTemp)
	last, _ := out.Value(out.Len()-1, ColSoilTemp)
	if !(last < first && last > -10) {
		t.Errorf("expected monotone cooling toward air temperature, got first=%v last=%v", first, last)
	}
	// Never overshoots the driving temperature
	for i := 0; i < out.Len(); i++ {
		if v, _ := out.Value(i, ColSoilTemp); v < -10 {
			t.Errorf("row %d: soil temperature %v overshot air temperature", i, v)
		}
	}
}

func TestSoilTemperatureSnowInsulation(t *testing.T) {
	bare := soilInput(t, []struct {
		day  int
		temp float64
		snow float64
	}{{0, -15, 0}})
	buried := soilInput(t, []struct {
		day  int
		temp float64
		snow float64
	}{{0, -15, 1.0}})

	p := responsiveSoilParams()
	outBare, err := SoilTemperature(bare, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outBuried, err := SoilTemperature(buried, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vBare, _ := outBare.Value(0, ColSoilTemp)
	vBuried, _ := outBuried.Value(0, ColSoilTemp)

	// Both cool from 5°C, but the snow-covered soil cools less
	if !(vBare < 5.0 && vBuried < 5.0) {
		t.Fatalf("expected both to cool, got bare=%v buried=%v", vBare, vBuried)
	}
	if vBuried <= vBare {
		t.Errorf("expected snow cover to slow cooling: bare=%v buried=%v", vBare, vBuried)
	}

	// exp(-3.3 * 1.0) attenuation on the same 20-degree gradient
	expected := 5.0 + 1e-3*math.Exp(-3.3)*(-20.0)
	if math.Abs(vBuried-expected) > 1e-9 {
		t.Errorf("expected %v under snow, got %v", expected, vBuried)
	}
}

func TestSoilTemperatureContinuityAcrossMissing(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	input := timeseries.New("rain_snow")
	input.AddColumn(ColAirTemperature)
	input.AddColumn(ColSnowpackDepth)
	input.AddData(base, "hru-1", map[string]float64{ColAirTemperature: 15, ColSnowpackDepth: 0})
	// Day 1 has no air temperature at all
	input.AddData(base.AddDate(0, 0, 1), "hru-1", map[string]float64{ColSnowpackDepth: 0})
	input.AddData(base.AddDate(0, 0, 2), "hru-1", map[string]float64{ColAirTemperature: 15, ColSnowpackDepth: 0})

	out, err := SoilTemperature(input, responsiveSoilParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Unlike the rain/snow stage, every row is emitted and the state is
	// carried through the gap, not reset.
	if out.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", out.Len())
	}
	day0, _ := out.Value(0, ColSoilTemp)
	day1, _ := out.Value(1, ColSoilTemp)
	day2, _ := out.Value(2, ColSoilTemp)

	if day1 != day0 {
		t.Errorf("expected held state across missing air temperature, got %v -> %v", day0, day1)
	}
	if !(day2 > day1) {
		t.Errorf("expected warming to resume from held state, got %v -> %v", day1, day2)
	}
	if math.Abs(day0-5.01) > 1e-9 {
		t.Errorf("expected day0 5.01, got %v", day0)
	}
}

func TestSoilTemperatureWithoutSnowColumn(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	input := timeseries.New("temperature_only")
	input.AddColumn(ColAirTemperature)
	input.AddData(base, "hru-1", map[string]float64{ColAirTemperature: 15})

	out, err := SoilTemperature(input, responsiveSoilParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No snow column means bare-ground exchange
	if v, _ := out.Value(0, ColSoilTemp); math.Abs(v-5.01) > 1e-9 {
		t.Errorf("expected bare-ground step to 5.01, got %v", v)
	}
}

func TestExpInsulationBounds(t *testing.T) {
	f := ExpInsulation(-3.3, 0.01)

	if v := f(0); v != 1.0 {
		t.Errorf("expected no attenuation at zero depth, got %v", v)
	}
	if v := f(0.5); v >= 1.0 || v <= 0.01 {
		t.Errorf("expected interior value, got %v", v)
	}
	// Deep snow hits the floor instead of underflowing
	if v := f(100); v != 0.01 {
		t.Errorf("expected floor 0.01, got %v", v)
	}

	// The default derives its floor from the factor itself
	d := DefaultInsulation(-3.3)
	if v := d(100); math.Abs(v-math.Exp(-6.6)) > 1e-15 {
		t.Errorf("expected default floor exp(-6.6), got %v", v)
	}
}

func TestSoilTemperatureValidationAndBounds(t *testing.T) {
	missing := timeseries.New("empty")
	missing.AddColumn(ColSnowpackDepth)

	_, err := SoilTemperature(missing, DefaultSoilTempParams())
	var v *timeseries.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	input := soilInput(t, []struct {
		day  int
		temp float64
		snow float64
	}{{0, 1, 0}})

	p := DefaultSoilTempParams()
	p.EffectiveDepth = 0 // would divide by zero
	_, err = SoilTemperature(input, p)
	var bounds *params.ParameterBoundsError
	if !errors.As(err, &bounds) {
		t.Fatalf("expected ParameterBoundsError, got %v", err)
	}
	if bounds.Name != "effectiveDepth" {
		t.Errorf("unexpected parameter %q", bounds.Name)
	}
}

func TestSoilTemperatureIdempotent(t *testing.T) {
	input := soilInput(t, []struct {
		day  int
		temp float64
		snow float64
	}{
		{0, -3, 2}, {1, 2, 1}, {2, 6, 0},
	})

	p := responsiveSoilParams()
	first, _ := SoilTemperature(input, p)
	second, _ := SoilTemperature(input, p)

	for i := 0; i < first.Len(); i++ {
		a, _ := first.Value(i, ColSoilTemp)
		b, _ := second.Value(i, ColSoilTemp)
		if a != b {
			t.Errorf("row %d: %v vs %v", i, a, b)
		}
	}
}
