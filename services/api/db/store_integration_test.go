//go:build integration

package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/db"
	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/readings"
)

// startPostgis spins up a PostGIS container, applies the schema, and returns a
// ready Store. The container and pool are torn down with the test.
func startPostgis(ctx context.Context, t *testing.T) *db.Store {
	t.Helper()

	container, err := postgres.Run(ctx, "postgis/postgis:16-3.4",
		postgres.WithDatabase("water_levels_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgis container")
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := db.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func storedReading(sensor string, level float64, recordedAt time.Time) readings.Reading {
	return readings.Reading{
		SensorID:           sensor,
		WaterLevelCM:       level,
		AlertType:          readings.AlertNormalReading,
		CapacityPercentage: level / readings.BasinHeightCM * 100,
		RecordedAt:         readings.Timestamp(recordedAt),
	}
}

func TestStorePostgis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := startPostgis(ctx, t)
	base := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	t.Run("schema setup is repeat safe", func(t *testing.T) {
		// A second pass over the CREATE and ALTER statements must be a no-op,
		// matching how the API and the dbadmin CLI both run it at startup.
		require.NoError(t, store.EnsureSchema(ctx))
		require.NoError(t, store.EnsureSchema(ctx))
	})

	t.Run("geolocated insert round-trips coordinates", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx))

		lat, lon := 8.7465, 127.3851
		r := storedReading("Ternate_Sensor_02", 23.75, base)
		r.Latitude, r.Longitude = &lat, &lon

		id, err := store.Insert(ctx, r)
		require.NoError(t, err)
		assert.Positive(t, id)

		got, err := store.Geolocated(ctx, db.MinLimit)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID)
		assert.Equal(t, "Ternate_Sensor_02", got[0].SensorID)
		require.NotNil(t, got[0].Latitude)
		require.NotNil(t, got[0].Longitude)
		assert.InDelta(t, lat, *got[0].Latitude, 1e-6)
		assert.InDelta(t, lon, *got[0].Longitude, 1e-6)
		assert.InDelta(t, 50.0, got[0].CapacityPercentage, 1e-6)
	})

	t.Run("readings without coordinates store NULL columns", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx))

		id, err := store.Insert(ctx, storedReading("S_NoGPS", 10, base))
		require.NoError(t, err)

		// Excluded from the export query.
		geo, err := store.Geolocated(ctx, db.MinLimit)
		require.NoError(t, err)
		assert.Empty(t, geo)

		// Still visible in the latest feed, with absent coordinates.
		latest, err := store.Latest(ctx, db.LatestQuery{Limit: db.MinLimit, Source: db.SourceAll})
		require.NoError(t, err)
		require.Len(t, latest, 1)
		assert.Equal(t, id, latest[0].ID)
		assert.Nil(t, latest[0].Latitude)
		assert.Nil(t, latest[0].Longitude)
	})

	t.Run("latest orders by recorded_at then id descending", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx))

		// Three rows on one device timestamp and one older row. The colliding
		// rows must come back in reverse insertion order.
		var collided []int64
		for i := 0; i < 3; i++ {
			id, err := store.Insert(ctx, storedReading(fmt.Sprintf("S%d", i), 12, base))
			require.NoError(t, err)
			collided = append(collided, id)
		}
		oldID, err := store.Insert(ctx, storedReading("S_old", 12, base.Add(-time.Hour)))
		require.NoError(t, err)

		got, err := store.Latest(ctx, db.LatestQuery{Limit: db.MinLimit, Source: db.SourceAll})
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, collided[2], got[0].ID)
		assert.Equal(t, collided[1], got[1].ID)
		assert.Equal(t, collided[0], got[2].ID)
		assert.Equal(t, oldID, got[3].ID)
	})

	t.Run("alerts_only overrides the source filter", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx))

		alert := storedReading("S_alert", 40, base)
		alert.IsSimulated = true
		alert.AlertStatus = true
		alert.AlertType = readings.AlertBlockageEscalated
		alertID, err := store.Insert(ctx, alert)
		require.NoError(t, err)

		_, err = store.Insert(ctx, storedReading("S_quiet", 5, base))
		require.NoError(t, err)

		got, err := store.Latest(ctx, db.LatestQuery{
			Limit:      db.MinLimit,
			Source:     db.SourceReal,
			AlertsOnly: true,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, alertID, got[0].ID)
		assert.True(t, got[0].IsSimulated)
	})

	t.Run("reset empties the table and restarts ids", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx))

		_, err := store.Insert(ctx, storedReading("S1", 10, base))
		require.NoError(t, err)
		require.NoError(t, store.Reset(ctx))

		st, err := store.ReadStats(ctx)
		require.NoError(t, err)
		assert.Zero(t, st.TotalReadings)

		id, err := store.Insert(ctx, storedReading("S1", 10, base))
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})
}
