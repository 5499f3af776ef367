package readings

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geoReading(id int64, lat, lon float64) Reading {
	return Reading{
		ID:           id,
		SensorID:     "S1",
		WaterLevelCM: 23.75,
		Latitude:     &lat,
		Longitude:    &lon,
		RecordedAt:   Timestamp(time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)),
	}
}

func TestNewFeatureCollection(t *testing.T) {
	t.Run("skips readings without coordinates", func(t *testing.T) {
		rs := []Reading{
			geoReading(3, 8.7465, 127.3851),
			{ID: 2, SensorID: "S2", WaterLevelCM: 5},
			geoReading(1, 8.7470, 127.3860),
		}

		fc := NewFeatureCollection(rs)

		assert.Equal(t, "FeatureCollection", fc.Type)
		require.Len(t, fc.Features, 2)
		assert.Equal(t, int64(3), fc.Features[0].Properties.ID)
		assert.Equal(t, int64(1), fc.Features[1].Properties.ID)
	})

	t.Run("coordinates are longitude first", func(t *testing.T) {
		fc := NewFeatureCollection([]Reading{geoReading(1, 8.7465, 127.3851)})

		require.Len(t, fc.Features, 1)
		geom := fc.Features[0].Geometry
		assert.Equal(t, "Point", geom.Type)
		assert.Equal(t, [2]float64{127.3851, 8.7465}, geom.Coordinates)
	})

	t.Run("empty input marshals to empty features array", func(t *testing.T) {
		fc := NewFeatureCollection(nil)

		data, err := json.Marshal(fc)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
	})

	t.Run("properties carry the export fields", func(t *testing.T) {
		fc := NewFeatureCollection([]Reading{geoReading(7, 8.7465, 127.3851)})

		data, err := json.Marshal(fc.Features[0].Properties)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"id": 7,
			"sensor_id": "S1",
			"water_level_cm": 23.75,
			"recorded_at": "2025-06-15 09:00:00"
		}`, string(data))
	})
}
