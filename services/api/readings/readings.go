package readings

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// BasinHeightCM is the physical depth of the monitored catch basin. Capacity
// percentages are normalized against this height at write time.
const BasinHeightCM = 47.5

// Escalation thresholds as percentage of basin capacity.
const (
	WarnPct   = 25.0
	AlertPct  = 50.0
	DangerPct = 75.0
)

// Tier is the display classification of a reading's capacity percentage.
type Tier string

const (
	TierNormal Tier = "NORMAL"
	TierWarn   Tier = "WARN"
	TierAlert  Tier = "ALERT"
	TierDanger Tier = "DANGER"
)

// TierFor maps a capacity percentage onto an escalation tier. Thresholds are
// inclusive: exactly 25.0% is WARN, exactly 75.0% is DANGER.
func TierFor(capacityPct float64) Tier {
	switch {
	case capacityPct >= DangerPct:
		return TierDanger
	case capacityPct >= AlertPct:
		return TierAlert
	case capacityPct >= WarnPct:
		return TierWarn
	default:
		return TierNormal
	}
}

// Recognized alert_type values. The set is the union of every value the
// firmware has emitted across revisions.
const (
	AlertNormalReading             = "normal_reading"
	AlertBlockageDetected          = "blockage_detected"
	AlertBlockageCleared           = "blockage_cleared"
	AlertBlockageEscalated         = "blockage_escalated"
	AlertBlockageEscalatedCritical = "blockage_escalated_critical"
)

// CanonicalAlertType coerces unrecognized alert_type values to normal_reading
// rather than rejecting the whole reading.
func CanonicalAlertType(value string) string {
	switch value {
	case AlertNormalReading, AlertBlockageDetected, AlertBlockageCleared,
		AlertBlockageEscalated, AlertBlockageEscalatedCritical:
		return value
	default:
		return AlertNormalReading
	}
}

// TimeLayout is the wire format for recorded_at in query responses and
// GeoJSON properties.
const TimeLayout = "2006-01-02 15:04:05"

// Timestamp marshals as "YYYY-MM-DD HH:MM:SS" instead of RFC 3339, matching
// the format the dashboard and QGIS consumers expect.
type Timestamp time.Time

func (t Timestamp) Time() time.Time { return time.Time(t) }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(TimeLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid timestamp %s", s)
	}
	parsed, err := time.Parse(TimeLayout, s[1:len(s)-1])
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Reading is a classified, persisted water-level reading. Readings are
// immutable once inserted.
type Reading struct {
	ID                    int64     `json:"id"`
	SensorID              string    `json:"sensor_id"`
	WaterLevelCM          float64   `json:"water_level_cm"`
	Latitude              *float64  `json:"latitude"`
	Longitude             *float64  `json:"longitude"`
	PowerConsumptionWatts float64   `json:"power_consumption_watts"`
	IsSimulated           bool      `json:"is_simulated"`
	AlertStatus           bool      `json:"alert_status"`
	AlertType             string    `json:"alert_type"`
	CapacityPercentage    float64   `json:"capacity_percentage"`
	RecordedAt            Timestamp `json:"recorded_at"`
}

// HasLocation reports whether the reading carries a usable coordinate pair.
// A coordinate of exactly 0.0 counts as absent; older firmware sent zeroes
// for "no GPS fix" and stored data depends on that behavior.
func (r Reading) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil && *r.Latitude != 0 && *r.Longitude != 0
}

// Tier returns the display tier for the reading's stored capacity percentage.
func (r Reading) Tier() Tier {
	return TierFor(r.CapacityPercentage)
}

// Payload is the deserialized ingestion input as sent by the MCU firmware or
// the simulator.
type Payload struct {
	SensorID              string   `json:"sensor_id"`
	WaterLevelCM          *float64 `json:"water_level_cm"`
	Latitude              *float64 `json:"latitude"`
	Longitude             *float64 `json:"longitude"`
	PowerConsumptionWatts *float64 `json:"power_consumption_watts"`
	MCUTimestamp          string   `json:"mcu_timestamp"`
	IsSimulated           bool     `json:"is_simulated"`
	AlertStatus           bool     `json:"alert_status"`
	AlertType             string   `json:"alert_type"`
}

// ValidationError reports a rejected ingestion payload. It is client-caused
// and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Field)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "missing required field"}
}

// mcuTimestampLayouts are accepted device-reported time formats, most
// specific first.
var mcuTimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	TimeLayout,
}

// clock is the package time source; tests freeze it via SetClock for
// deterministic recorded_at defaulting.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Classify validates a raw payload and derives the stored reading: capacity
// percentage, alert classification, and recorded_at defaulting. It performs
// no I/O.
func Classify(p Payload) (Reading, error) {
	if p.SensorID == "" {
		return Reading{}, missingField("sensor_id")
	}
	if p.WaterLevelCM == nil {
		return Reading{}, missingField("water_level_cm")
	}
	if *p.WaterLevelCM < 0 {
		return Reading{}, &ValidationError{Field: "water_level_cm", Reason: "must be non-negative"}
	}

	r := Reading{
		SensorID:           p.SensorID,
		WaterLevelCM:       *p.WaterLevelCM,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		IsSimulated:        p.IsSimulated,
		CapacityPercentage: *p.WaterLevelCM / BasinHeightCM * 100,
	}

	if p.PowerConsumptionWatts != nil {
		if *p.PowerConsumptionWatts < 0 {
			return Reading{}, &ValidationError{Field: "power_consumption_watts", Reason: "must be non-negative"}
		}
		r.PowerConsumptionWatts = *p.PowerConsumptionWatts
	}

	if p.AlertType != "" {
		// Hardware-triggered alert: trust the caller's status, canonicalize
		// the type.
		r.AlertType = CanonicalAlertType(p.AlertType)
		r.AlertStatus = p.AlertStatus
	} else {
		r.AlertType, r.AlertStatus = classifyByCapacity(r.CapacityPercentage)
	}

	recordedAt := clock.Now().UTC()
	if p.MCUTimestamp != "" {
		parsed, err := parseMCUTimestamp(p.MCUTimestamp)
		if err != nil {
			return Reading{}, &ValidationError{Field: "mcu_timestamp", Reason: "unparseable timestamp"}
		}
		recordedAt = parsed
	}
	r.RecordedAt = Timestamp(recordedAt)

	return r, nil
}

// classifyByCapacity derives alert_type and alert_status from the escalation
// tier when the firmware did not report an explicit alert.
func classifyByCapacity(capacityPct float64) (string, bool) {
	switch TierFor(capacityPct) {
	case TierDanger:
		return AlertBlockageEscalatedCritical, true
	case TierAlert:
		return AlertBlockageEscalated, true
	case TierWarn:
		return AlertBlockageDetected, true
	default:
		return AlertNormalReading, false
	}
}

func parseMCUTimestamp(value string) (time.Time, error) {
	var firstErr error
	for _, layout := range mcuTimestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
