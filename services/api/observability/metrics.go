package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the ingestion and export paths.
type Metrics struct {
	ReadingsIngested     *prometheus.CounterVec // labels: source={real,simulated}
	ValidationRejections prometheus.Counter
	InsertFailures       prometheus.Counter
	AlertsRecorded       *prometheus.CounterVec // labels: alert_type
	GeoJSONExports       prometheus.Counter
}

// NewMetrics creates the counters and registers them with the given
// registerer. Tests pass a fresh registry per server instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReadingsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ahhh",
			Name:      "readings_ingested_total",
			Help:      "Readings accepted and persisted, by source.",
		}, []string{"source"}),
		ValidationRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ahhh",
			Name:      "validation_rejections_total",
			Help:      "Ingestion payloads rejected for missing or invalid fields.",
		}),
		InsertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ahhh",
			Name:      "insert_failures_total",
			Help:      "Readings that failed to persist due to a storage error.",
		}),
		AlertsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ahhh",
			Name:      "alerts_recorded_total",
			Help:      "Readings stored with an active alert status, by alert type.",
		}, []string{"alert_type"}),
		GeoJSONExports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ahhh",
			Name:      "geojson_exports_total",
			Help:      "GeoJSON export requests served.",
		}),
	}

	reg.MustRegister(
		m.ReadingsIngested,
		m.ValidationRejections,
		m.InsertFailures,
		m.AlertsRecorded,
		m.GeoJSONExports,
	)
	return m
}
