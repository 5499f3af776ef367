package db

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/readings"
)

// Store wraps database access helpers for the water_levels table.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PersistenceError wraps a storage failure with the operation that caused it.
// Callers match it with errors.As and treat it as fatal to the request, not
// to the process.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "db: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

const insertWithLocationSQL = `
	INSERT INTO water_levels
	(sensor_id, water_level_cm, latitude, longitude, location,
	 power_consumption_watts, is_simulated, alert_status, alert_type,
	 capacity_percentage, recorded_at)
	VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326),
	        $7, $8, $9, $10, $11, $12)
	RETURNING id
`

const insertWithoutLocationSQL = `
	INSERT INTO water_levels
	(sensor_id, water_level_cm,
	 power_consumption_watts, is_simulated, alert_status, alert_type,
	 capacity_percentage, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id
`

// Insert persists a classified reading and returns the assigned surrogate id.
// The geometry column is populated only when the reading carries a usable
// coordinate pair; the point is built (longitude, latitude) with SRID 4326.
func (s *Store) Insert(ctx context.Context, r readings.Reading) (int64, error) {
	var id int64
	var err error
	if r.HasLocation() {
		err = s.pool.QueryRow(ctx, insertWithLocationSQL,
			r.SensorID, r.WaterLevelCM, *r.Latitude, *r.Longitude,
			*r.Longitude, *r.Latitude,
			r.PowerConsumptionWatts, r.IsSimulated, r.AlertStatus, r.AlertType,
			r.CapacityPercentage, r.RecordedAt.Time(),
		).Scan(&id)
	} else {
		err = s.pool.QueryRow(ctx, insertWithoutLocationSQL,
			r.SensorID, r.WaterLevelCM,
			r.PowerConsumptionWatts, r.IsSimulated, r.AlertStatus, r.AlertType,
			r.CapacityPercentage, r.RecordedAt.Time(),
		).Scan(&id)
	}
	if err != nil {
		return 0, persistence("insert reading", err)
	}
	return id, nil
}

// Source filter values for LatestQuery.
const (
	SourceAll       = "all"
	SourceReal      = "real"
	SourceSimulated = "simulated"
)

// Limit bounds for read queries. Out-of-range limits are clamped, not
// rejected.
const (
	MinLimit = 10
	MaxLimit = 1000
)

// ClampLimit forces a requested row limit into [MinLimit, MaxLimit].
func ClampLimit(limit int) int {
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LatestQuery holds filters for retrieving recent readings.
type LatestQuery struct {
	Limit      int
	Source     string // all, real, simulated
	AlertsOnly bool
}

// latestWhere builds the filter clause for Latest. AlertsOnly shadows the
// source filter entirely rather than AND-ing with it.
func latestWhere(q LatestQuery) string {
	if q.AlertsOnly {
		return " WHERE alert_status = TRUE"
	}
	switch q.Source {
	case SourceReal:
		return " WHERE is_simulated = FALSE"
	case SourceSimulated:
		return " WHERE is_simulated = TRUE"
	default:
		return ""
	}
}

const latestBaseSQL = `
	SELECT id, sensor_id, water_level_cm, latitude, longitude,
	       power_consumption_watts, is_simulated, alert_status, alert_type,
	       capacity_percentage, recorded_at
	FROM water_levels
`

// Latest returns the most recent readings, newest first. Ordering is by
// recorded_at descending with id descending as a stable tiebreak, because
// device timestamps can collide. When AlertsOnly is set the source filter is
// ignored; the dashboard has depended on that precedence since the alert
// history view shipped.
func (s *Store) Latest(ctx context.Context, q LatestQuery) ([]readings.Reading, error) {
	args := []any{ClampLimit(q.Limit)}
	sql := latestBaseSQL + latestWhere(q) +
		" ORDER BY recorded_at DESC, id DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, persistence("query latest readings", err)
	}
	defer rows.Close()

	out, err := scanReadings(rows)
	if err != nil {
		return nil, persistence("scan latest readings", err)
	}
	return out, nil
}

const geolocatedSQL = `
	SELECT id, sensor_id, water_level_cm, latitude, longitude,
	       power_consumption_watts, is_simulated, alert_status, alert_type,
	       capacity_percentage, recorded_at
	FROM water_levels
	WHERE latitude IS NOT NULL AND longitude IS NOT NULL
	ORDER BY recorded_at DESC, id DESC
	LIMIT $1
`

// Geolocated returns the most recent readings that carry coordinates, for
// GeoJSON export. An empty table yields an empty slice, not an error.
func (s *Store) Geolocated(ctx context.Context, limit int) ([]readings.Reading, error) {
	rows, err := s.pool.Query(ctx, geolocatedSQL, ClampLimit(limit))
	if err != nil {
		return nil, persistence("query geolocated readings", err)
	}
	defer rows.Close()

	out, err := scanReadings(rows)
	if err != nil {
		return nil, persistence("scan geolocated readings", err)
	}
	return out, nil
}

// scanReadings drains a result set into domain readings. The alert and power
// columns were added after the table first shipped, so rows from before those
// migrations scan as NULL and get their documented defaults here; a NULL
// capacity is recomputed from the stored level and the basin height.
func scanReadings(rows pgx.Rows) ([]readings.Reading, error) {
	out := make([]readings.Reading, 0)
	for rows.Next() {
		var r readings.Reading
		var power *float64
		var simulated, alertStatus *bool
		var alertType *string
		var capacity *float64
		var recordedAt time.Time

		if err := rows.Scan(
			&r.ID,
			&r.SensorID,
			&r.WaterLevelCM,
			&r.Latitude,
			&r.Longitude,
			&power,
			&simulated,
			&alertStatus,
			&alertType,
			&capacity,
			&recordedAt,
		); err != nil {
			return nil, err
		}

		if power != nil {
			r.PowerConsumptionWatts = *power
		}
		if simulated != nil {
			r.IsSimulated = *simulated
		}
		if alertStatus != nil {
			r.AlertStatus = *alertStatus
		}
		if alertType != nil {
			r.AlertType = readings.CanonicalAlertType(*alertType)
		} else {
			r.AlertType = readings.AlertNormalReading
		}
		if capacity != nil {
			r.CapacityPercentage = *capacity
		} else {
			r.CapacityPercentage = r.WaterLevelCM / readings.BasinHeightCM * 100
		}
		r.RecordedAt = readings.Timestamp(recordedAt)

		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats summarizes table contents for the operational CLI.
type Stats struct {
	TotalReadings      int64
	GeolocatedReadings int64
	AlertReadings      int64
}

const statsSQL = `
	SELECT COUNT(*),
	       COUNT(*) FILTER (WHERE latitude IS NOT NULL AND longitude IS NOT NULL),
	       COUNT(*) FILTER (WHERE alert_status = TRUE)
	FROM water_levels
`

// ReadStats returns row counts for the water_levels table.
func (s *Store) ReadStats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.pool.QueryRow(ctx, statsSQL).Scan(
		&st.TotalReadings, &st.GeolocatedReadings, &st.AlertReadings,
	); err != nil {
		return Stats{}, persistence("read stats", err)
	}
	return st, nil
}

// Reset truncates the water_levels table and restarts the id sequence. This
// is an administrative action used before a fresh hardware deployment; there
// is no per-record delete path.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE TABLE water_levels RESTART IDENTITY"); err != nil {
		return persistence("reset table", err)
	}
	return nil
}
