// catchsim derives the physically based forcing series for a catchment:
// rain/snow partition with degree-day snowmelt, clear-sky solar radiation,
// Jensen-Haise potential evapotranspiration, and bucket soil temperature.
// All file I/O lives here; the calculation stages are pure.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rcalderwood/catchsim/internal/calc"
	"github.com/rcalderwood/catchsim/internal/log"
	"github.com/rcalderwood/catchsim/internal/params"
	"github.com/rcalderwood/catchsim/internal/timeseries"
)

func main() {
	var (
		mode          = flag.String("mode", "derive", "Operation mode: derive or info")
		paramsPath    = flag.String("params", "", "Catchment parameter file (.yaml or .db)")
		temperature   = flag.String("temperature", "", "Base path of the temperature series file pair (no extension)")
		precipitation = flag.String("precipitation", "", "Base path of the precipitation series file pair (no extension)")
		series        = flag.String("series", "", "Base path of a series file pair to inspect (info mode)")
		outputDir     = flag.String("output", ".", "Directory for derived series file pairs")
		hruName       = flag.String("hru", "", "Derive for a single HRU (default: all)")
		debug         = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	switch *mode {
	case "info":
		if *series == "" {
			log.Fatal("info mode requires -series")
		}
		if err := runInfo(*series); err != nil {
			log.Fatalf("info failed: %v", err)
		}
	case "derive":
		if *paramsPath == "" || *temperature == "" || *precipitation == "" {
			log.Fatal("derive mode requires -params, -temperature and -precipitation")
		}
		if err := runDerive(*paramsPath, *temperature, *precipitation, *outputDir, *hruName); err != nil {
			log.Fatalf("derive failed: %v", err)
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func runInfo(base string) error {
	ts, err := timeseries.LoadFromFiles(base+".csv", base+".json")
	if err != nil {
		return err
	}

	fmt.Printf("Series:    %s\n", ts.Name)
	fmt.Printf("UUID:      %s\n", ts.ID)
	fmt.Printf("Rows:      %d\n", ts.Len())
	fmt.Printf("Locations: %s\n", strings.Join(ts.Locations(), ", "))
	for _, col := range ts.Columns() {
		s, err := ts.Summary(col.Name)
		if err != nil {
			return err
		}
		fmt.Printf("  %-20s n=%-6d mean=%-10.3f std=%-10.3f min=%-10.3f max=%-10.3f\n",
			col.Name, s.Count, s.Mean, s.StdDev, s.Min, s.Max)
	}
	return nil
}

func openProvider(path string) (params.Provider, error) {
	switch filepath.Ext(path) {
	case ".db", ".sqlite":
		return params.NewSQLiteProvider(path)
	default:
		return params.NewYAMLProvider(path), nil
	}
}

func runDerive(paramsPath, tempBase, precipBase, outputDir, only string) error {
	provider, err := openProvider(paramsPath)
	if err != nil {
		return err
	}
	defer provider.Close()

	catchment, err := provider.Load()
	if err != nil {
		return err
	}
	log.Infof("Loaded catchment %q with %d HRUs", catchment.Name, len(catchment.HRUs))

	tempTS, err := timeseries.LoadFromFiles(tempBase+".csv", tempBase+".json")
	if err != nil {
		return fmt.Errorf("loading temperature series: %w", err)
	}
	precipTS, err := timeseries.LoadFromFiles(precipBase+".csv", precipBase+".json")
	if err != nil {
		return fmt.Errorf("loading precipitation series: %w", err)
	}

	forcing, err := timeseries.Merge(tempTS, precipTS, timeseries.MergeIntersection, "forcing")
	if err != nil {
		return fmt.Errorf("aligning temperature and precipitation: %w", err)
	}
	log.Infof("Aligned forcing series has %d rows", forcing.Len())

	hrus := catchment.HRUs
	if only != "" {
		hru := catchment.HRUByName(only)
		if hru == nil {
			return fmt.Errorf("HRU %q not found in catchment %q", only, catchment.Name)
		}
		hrus = []params.HRU{*hru}
	}

	// HRUs are independent derivations over immutable inputs, so each one
	// runs in its own goroutine.
	var wg sync.WaitGroup
	errs := make(chan error, len(hrus))
	for i := range hrus {
		wg.Add(1)
		go func(hru *params.HRU) {
			defer wg.Done()
			if err := deriveHRU(catchment, hru, forcing, outputDir); err != nil {
				errs <- fmt.Errorf("HRU %s: %w", hru.Name, err)
			}
		}(&hrus[i])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		return err
	}
	log.Infof("Derivation complete for %d HRUs", len(hrus))
	return nil
}

func deriveHRU(catchment *params.Catchment, hru *params.HRU, forcing *timeseries.TimeSeries, outputDir string) error {
	started := time.Now()

	step := calc.TimestepFromMetadata(forcing)

	// One solar series per HRU site; timestamps come from the forcing rows.
	rows := forcing.SortedRows()
	stamps := make([]time.Time, 0, len(rows))
	seen := make(map[int64]bool)
	for _, row := range rows {
		if ns := row.Timestamp.UnixNano(); !seen[ns] {
			seen[ns] = true
			stamps = append(stamps, row.Timestamp)
		}
	}

	solarParams := calc.DefaultSolarParams(hru.Latitude, hru.Longitude, catchment.TimezoneOffset)
	solarParams.Location = hru.Name
	solarParams.OutputName = hru.Name + "_solar"
	solar, err := calc.SolarRadiation(stamps, step, solarParams)
	if err != nil {
		return fmt.Errorf("solar radiation: %w", err)
	}
	if err := save(solar, outputDir); err != nil {
		return err
	}

	adj := hru.Subcatchment.PrecipitationAdjustments
	for _, lc := range hru.Subcatchment.LandCoverTypes {
		prefix := hru.Name + "_" + lc.Name

		rs, err := calc.RainSnow(forcing, calc.RainSnowParams{
			InitialSnowDepth:    lc.Snowpack.InitialDepth,
			MeltTemperature:     lc.Snowpack.MeltTemperature,
			RainfallTemperature: adj.SnowOffset,
			SnowfallMultiplier:  lc.SnowfallMultiplier * adj.SnowfallMultiplier,
			RainfallMultiplier:  lc.RainfallMultiplier * adj.RainfallMultiplier,
			DegreeDayMeltRate:   lc.Snowpack.DegreeDayMeltRate,
			OutputName:          prefix + "_rain_snow",
		})
		if err != nil {
			return fmt.Errorf("rain/snow for %s: %w", lc.Name, err)
		}
		if err := save(rs, outputDir); err != nil {
			return err
		}

		// PET needs temperature and radiation on one backbone. Radiation is
		// a site property, so the per-HRU solar value at each timestamp is
		// joined onto every gauge location of the rain/snow output.
		petInput, err := joinRadiation(rs, solar, prefix+"_pet_input")
		if err != nil {
			return fmt.Errorf("aligning PET inputs for %s: %w", lc.Name, err)
		}
		petInput.AddMetadata("timestep_seconds", step.Seconds())

		pet, err := calc.PotentialEvapotranspiration(petInput, calc.PETParams{
			SolarRadiationScalingFactor: lc.Evaporation.SolarRadiationScalingFactor,
			GrowingDegreeOffset:         lc.Evaporation.GrowingDegreeOffset,
			OutputName:                  prefix + "_pet",
		})
		if err != nil {
			return fmt.Errorf("PET for %s: %w", lc.Name, err)
		}
		if err := save(pet, outputDir); err != nil {
			return err
		}

		for _, bucket := range lc.Buckets {
			soil, err := calc.SoilTemperature(rs, calc.SoilTempParams{
				ThermalConductivity:    lc.SoilThermal.ThermalConductivity,
				SpecificHeatFreezeThaw: lc.SoilThermal.SpecificHeatFreezeThaw,
				SnowDepthFactor:        lc.SoilThermal.SnowDepthFactor,
				EffectiveDepth:         bucket.EffectiveDepth,
				InitialSoilTemperature: bucket.InitialSoilTemperature,
				OutputName:             prefix + "_" + bucket.Name + "_soil_temperature",
			})
			if err != nil {
				return fmt.Errorf("soil temperature for %s/%s: %w", lc.Name, bucket.Name, err)
			}
			if err := save(soil, outputDir); err != nil {
				return err
			}
		}
	}

	log.Infof("HRU %s derived in %s", hru.Name, time.Since(started).Round(time.Millisecond))
	return nil
}

// joinRadiation builds the PET input: air temperature rows from the
// rain/snow output with the HRU's radiation value for the same timestamp
// attached, whatever location label the radiation series carries.
func joinRadiation(rs, solar *timeseries.TimeSeries, name string) (*timeseries.TimeSeries, error) {
	radiation := make(map[int64]float64)
	for _, row := range solar.SortedRows() {
		if v, ok := solar.ValueIn(row, calc.ColSolarRadiation); ok {
			radiation[row.Timestamp.UnixNano()] = v
		}
	}

	out := timeseries.New(name)
	out.InheritMetadata(rs)
	for _, col := range []string{calc.ColAirTemperature, calc.ColSolarRadiation} {
		if _, err := out.AddColumn(col); err != nil {
			return nil, err
		}
	}

	for _, row := range rs.SortedRows() {
		values := make(map[string]float64)
		if temp, ok := rs.ValueIn(row, calc.ColAirTemperature); ok {
			values[calc.ColAirTemperature] = temp
		}
		if rad, ok := radiation[row.Timestamp.UnixNano()]; ok {
			values[calc.ColSolarRadiation] = rad
		}
		if err := out.AddData(row.Timestamp, row.Location, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func save(ts *timeseries.TimeSeries, dir string) error {
	csvPath, jsonPath, err := ts.SaveToFiles(dir, "")
	if err != nil {
		return fmt.Errorf("saving %s: %w", ts.Name, err)
	}
	log.Debugf("Wrote %s and %s", csvPath, jsonPath)
	return nil
}
