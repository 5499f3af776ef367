package db

import "context"

// Schema evolution is a sequence of idempotent, additive statements: the base
// table, then ADD COLUMN IF NOT EXISTS for every column introduced after the
// first deployment, then the indexes. Statements never drop or reorder
// existing columns, so EnsureSchema is safe to run on every startup against
// a populated table.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,

	`CREATE TABLE IF NOT EXISTS water_levels (
		id SERIAL PRIMARY KEY,
		sensor_id VARCHAR(50) NOT NULL,
		water_level_cm NUMERIC(5, 2) NOT NULL,
		latitude NUMERIC(10, 6),
		longitude NUMERIC(10, 6),
		location GEOMETRY(POINT, 4326),
		recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	// Geolocation columns, added after the initial sensor-only deployment.
	`ALTER TABLE water_levels ADD COLUMN IF NOT EXISTS latitude NUMERIC(10, 6)`,
	`ALTER TABLE water_levels ADD COLUMN IF NOT EXISTS longitude NUMERIC(10, 6)`,
	`ALTER TABLE water_levels ADD COLUMN IF NOT EXISTS location GEOMETRY(POINT, 4326)`,

	// Power and alert-classification columns, added with the BAMBI escalation
	// revision of the firmware.
	`ALTER TABLE water_levels ADD COLUMN IF NOT EXISTS power_consumption_watts NUMERIC(8, 2) DEFAULT 0.0`,
	`ALTER TABLE water_levels ADD COLUMN IF NOT EXISTS is_simulated BOOLEAN DEFAULT FALSE`,
	`ALTER TABLE water_levels ADD COLUMN IF NOT EXISTS alert_status BOOLEAN DEFAULT FALSE`,
	`ALTER TABLE water_levels ADD COLUMN IF NOT EXISTS alert_type VARCHAR(40) DEFAULT 'normal_reading'`,
	`ALTER TABLE water_levels ADD COLUMN IF NOT EXISTS capacity_percentage NUMERIC(6, 2)`,

	`CREATE INDEX IF NOT EXISTS idx_location ON water_levels USING GIST(location)`,
	`CREATE INDEX IF NOT EXISTS idx_recorded_at ON water_levels(recorded_at DESC)`,
}

// EnsureSchema creates or evolves the water_levels table, the PostGIS
// extension, and the indexes. Safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return persistence("ensure schema", err)
		}
	}
	return nil
}
