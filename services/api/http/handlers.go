package http

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/db"
	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/readings"
)

// handleIngest receives a water-level reading from the MCU firmware or the
// simulator, classifies it, and persists it.
// POST /api/water-level
func (s *Server) handleIngest(c *gin.Context) {
	var payload readings.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.metrics.ValidationRejections.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	reading, err := readings.Classify(payload)
	if err != nil {
		var vErr *readings.ValidationError
		if errors.As(err, &vErr) {
			s.metrics.ValidationRejections.Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	id, err := s.store.Insert(ctx, reading)
	if err != nil {
		s.metrics.InsertFailures.Inc()
		s.log.Errorw("failed to store reading", "sensor_id", reading.SensorID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store reading"})
		return
	}

	source := db.SourceReal
	if reading.IsSimulated {
		source = db.SourceSimulated
	}
	s.metrics.ReadingsIngested.WithLabelValues(source).Inc()

	if reading.AlertStatus {
		s.metrics.AlertsRecorded.WithLabelValues(reading.AlertType).Inc()
		s.log.Warnw("alert reading recorded",
			"id", id,
			"sensor_id", reading.SensorID,
			"alert_type", reading.AlertType,
			"capacity_percentage", reading.CapacityPercentage,
		)
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":              "success",
		"message":             "Data saved!",
		"id":                  id,
		"capacity_percentage": reading.CapacityPercentage,
		"alert_type":          reading.AlertType,
	})
}

// handleLatest returns the most recent readings, newest first.
// GET /api/water-level?limit=&source=&alerts_only=
func (s *Server) handleLatest(c *gin.Context) {
	limit := s.cfg.DefaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		// Non-numeric limits fall back to the default; out-of-range numeric
		// limits are clamped by the store.
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	source := db.SourceAll
	if sourceStr := c.Query("source"); sourceStr != "" {
		switch sourceStr {
		case db.SourceAll, db.SourceReal, db.SourceSimulated:
			source = sourceStr
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source, expected all, real or simulated"})
			return
		}
	}

	alertsOnly := false
	if alertsStr := c.Query("alerts_only"); alertsStr != "" {
		parsed, err := strconv.ParseBool(alertsStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alerts_only"})
			return
		}
		alertsOnly = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	data, err := s.store.Latest(ctx, db.LatestQuery{
		Limit:      limit,
		Source:     source,
		AlertsOnly: alertsOnly,
	})
	if err != nil {
		s.log.Errorw("failed to query readings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query readings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"count":  len(data),
		"data":   data,
	})
}

// handleExportGeoJSON materializes geolocated readings as an RFC 7946
// FeatureCollection for QGIS import. An empty table is reported as 404, the
// behavior the QGIS export script expects; the query layer itself
// distinguishes "no geo data" from a failed query.
// GET /api/export/geojson?limit=
func (s *Server) handleExportGeoJSON(c *gin.Context) {
	limit := s.cfg.GeoJSONLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	rows, err := s.store.Geolocated(ctx, limit)
	if err != nil {
		s.log.Errorw("geojson export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "GeoJSON export error"})
		return
	}

	collection := readings.NewFeatureCollection(rows)
	if len(collection.Features) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No geospatial data available. Ensure sensors have latitude/longitude."})
		return
	}

	s.metrics.GeoJSONExports.Inc()
	c.JSON(http.StatusOK, collection)
}

var csvHeader = []string{
	"id", "sensor_id", "water_level_cm", "latitude", "longitude",
	"power_consumption_watts", "is_simulated", "alert_status", "alert_type",
	"capacity_percentage", "recorded_at",
}

// handleExportCSV streams the latest readings as CSV for spreadsheet use.
// GET /api/export/csv?limit=
func (s *Server) handleExportCSV(c *gin.Context) {
	limit := db.MaxLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	data, err := s.store.Latest(ctx, db.LatestQuery{Limit: limit, Source: db.SourceAll})
	if err != nil {
		s.log.Errorw("csv export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "CSV export error"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="water_levels.csv"`)
	c.Status(http.StatusOK)

	if err := writeCSV(c.Writer, data); err != nil {
		// Headers are already sent, so all we can do is log the broken stream.
		s.log.Errorw("csv export write failed", "error", err)
	}
}

func writeCSV(w io.Writer, data []readings.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range data {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.SensorID,
			strconv.FormatFloat(r.WaterLevelCM, 'f', -1, 64),
			formatCoord(r.Latitude),
			formatCoord(r.Longitude),
			strconv.FormatFloat(r.PowerConsumptionWatts, 'f', -1, 64),
			strconv.FormatBool(r.IsSimulated),
			strconv.FormatBool(r.AlertStatus),
			r.AlertType,
			strconv.FormatFloat(r.CapacityPercentage, 'f', -1, 64),
			r.RecordedAt.Time().Format(readings.TimeLayout),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
