package params

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// seedParameterDB builds a minimal parameter database matching the provider
// schema, with the same values as the YAML fixture.
func seedParameterDB(t *testing.T, path string) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE catchment (
			name TEXT NOT NULL,
			timezone_offset REAL NOT NULL
		)`,
		`CREATE TABLE hrus (
			name TEXT PRIMARY KEY,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			reach_name TEXT NOT NULL,
			reach_length REAL NOT NULL,
			subcatchment_name TEXT NOT NULL,
			area REAL NOT NULL,
			snow_offset REAL NOT NULL,
			rainfall_multiplier REAL NOT NULL,
			snowfall_multiplier REAL NOT NULL
		)`,
		`CREATE TABLE landcover (
			hru_name TEXT NOT NULL,
			name TEXT NOT NULL,
			rainfall_multiplier REAL NOT NULL,
			snowfall_multiplier REAL NOT NULL,
			snow_depth REAL NOT NULL,
			melt_temperature REAL NOT NULL,
			degree_day_melt_rate REAL NOT NULL,
			solar_scaling_factor REAL NOT NULL,
			growing_degree_offset REAL NOT NULL,
			thermal_conductivity REAL NOT NULL,
			specific_heat_freeze_thaw REAL NOT NULL,
			snow_depth_factor REAL NOT NULL,
			PRIMARY KEY (hru_name, name)
		)`,
		`CREATE TABLE buckets (
			hru_name TEXT NOT NULL,
			landcover_name TEXT NOT NULL,
			name TEXT NOT NULL,
			effective_depth REAL NOT NULL,
			initial_soil_temperature REAL NOT NULL,
			infiltration_threshold REAL NOT NULL,
			PRIMARY KEY (hru_name, landcover_name, name)
		)`,
		`INSERT INTO catchment VALUES ('upper-dale', 1.0)`,
		`INSERT INTO hrus VALUES ('hru-1', 54.5, -2.1, 'reach-1', 1200, 'sub-1', 3.4, 0.0, 1.0, 1.1)`,
		`INSERT INTO landcover VALUES ('hru-1', 'forest', 1.0, 1.0, 0.0, 0.0, 3.0, 60.0, 0.0, 0.63, 6.6, -3.3)`,
		`INSERT INTO buckets VALUES ('hru-1', 'forest', 'soilwater', 0.35, 5.0, 0.1)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed statement failed: %v\n%s", err, stmt)
		}
	}
}
