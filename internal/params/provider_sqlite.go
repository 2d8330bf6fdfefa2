package params

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements Provider for parameter sets kept in a SQLite
// database. The schema mirrors the hierarchy: one catchment row, hrus keyed
// by name, landcover rows keyed by (hru, name), buckets keyed by
// (hru, landcover, name).
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens a parameter database.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{db: db, dbPath: dbPath}, nil
}

// Load reads the complete catchment hierarchy from the database.
func (s *SQLiteProvider) Load() (*Catchment, error) {
	c := &Catchment{}

	row := s.db.QueryRow(`SELECT name, timezone_offset FROM catchment LIMIT 1`)
	if err := row.Scan(&c.Name, &c.TimezoneOffset); err != nil {
		return nil, fmt.Errorf("failed to load catchment: %w", err)
	}

	hrus, err := s.loadHRUs()
	if err != nil {
		return nil, err
	}
	c.HRUs = hrus

	return c, nil
}

func (s *SQLiteProvider) loadHRUs() ([]HRU, error) {
	rows, err := s.db.Query(`
		SELECT name, latitude, longitude, reach_name, reach_length,
		       subcatchment_name, area,
		       snow_offset, rainfall_multiplier, snowfall_multiplier
		FROM hrus ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load hrus: %w", err)
	}
	defer rows.Close()

	var hrus []HRU
	for rows.Next() {
		var h HRU
		err := rows.Scan(&h.Name, &h.Latitude, &h.Longitude,
			&h.Reach.Name, &h.Reach.Length,
			&h.Subcatchment.Name, &h.Subcatchment.Area,
			&h.Subcatchment.PrecipitationAdjustments.SnowOffset,
			&h.Subcatchment.PrecipitationAdjustments.RainfallMultiplier,
			&h.Subcatchment.PrecipitationAdjustments.SnowfallMultiplier)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hru: %w", err)
		}
		hrus = append(hrus, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hrus: %w", err)
	}

	for i := range hrus {
		lcts, err := s.loadLandCover(hrus[i].Name)
		if err != nil {
			return nil, err
		}
		hrus[i].Subcatchment.LandCoverTypes = lcts
	}
	return hrus, nil
}

func (s *SQLiteProvider) loadLandCover(hru string) ([]LandCoverType, error) {
	rows, err := s.db.Query(`
		SELECT name, rainfall_multiplier, snowfall_multiplier,
		       snow_depth, melt_temperature, degree_day_melt_rate,
		       solar_scaling_factor, growing_degree_offset,
		       thermal_conductivity, specific_heat_freeze_thaw, snow_depth_factor
		FROM landcover WHERE hru_name = ? ORDER BY name`, hru)
	if err != nil {
		return nil, fmt.Errorf("failed to load landcover for %s: %w", hru, err)
	}
	defer rows.Close()

	var lcts []LandCoverType
	for rows.Next() {
		var lc LandCoverType
		err := rows.Scan(&lc.Name, &lc.RainfallMultiplier, &lc.SnowfallMultiplier,
			&lc.Snowpack.InitialDepth, &lc.Snowpack.MeltTemperature, &lc.Snowpack.DegreeDayMeltRate,
			&lc.Evaporation.SolarRadiationScalingFactor, &lc.Evaporation.GrowingDegreeOffset,
			&lc.SoilThermal.ThermalConductivity, &lc.SoilThermal.SpecificHeatFreezeThaw,
			&lc.SoilThermal.SnowDepthFactor)
		if err != nil {
			return nil, fmt.Errorf("failed to scan landcover: %w", err)
		}
		lcts = append(lcts, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating landcover: %w", err)
	}

	for i := range lcts {
		buckets, err := s.loadBuckets(hru, lcts[i].Name)
		if err != nil {
			return nil, err
		}
		lcts[i].Buckets = buckets
	}
	return lcts, nil
}

func (s *SQLiteProvider) loadBuckets(hru, landcover string) ([]Bucket, error) {
	rows, err := s.db.Query(`
		SELECT name, effective_depth, initial_soil_temperature, infiltration_threshold
		FROM buckets WHERE hru_name = ? AND landcover_name = ? ORDER BY name`, hru, landcover)
	if err != nil {
		return nil, fmt.Errorf("failed to load buckets for %s/%s: %w", hru, landcover, err)
	}
	defer rows.Close()

	var buckets []Bucket
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Name, &b.EffectiveDepth, &b.InitialSoilTemperature, &b.InfiltrationThreshold); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating buckets: %w", err)
	}
	return buckets, nil
}

// IsReadOnly returns true: the core never writes parameters.
func (s *SQLiteProvider) IsReadOnly() bool {
	return true
}

// Close closes the database connection.
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
