package readings

// GeoJSON materialization of geolocated readings (RFC 7946). Coordinates are
// [longitude, latitude] per the GeoJSON axis order.

type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type FeatureProperties struct {
	ID           int64     `json:"id"`
	SensorID     string    `json:"sensor_id"`
	WaterLevelCM float64   `json:"water_level_cm"`
	RecordedAt   Timestamp `json:"recorded_at"`
}

type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection builds a FeatureCollection from readings, preserving
// their order. Readings without both coordinates are skipped. An empty input
// yields `"features": []`, never null, so consumers can tell "no geo data"
// apart from a failed query.
func NewFeatureCollection(rs []Reading) FeatureCollection {
	features := make([]Feature, 0, len(rs))
	for _, r := range rs {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: [2]float64{*r.Longitude, *r.Latitude},
			},
			Properties: FeatureProperties{
				ID:           r.ID,
				SensorID:     r.SensorID,
				WaterLevelCM: r.WaterLevelCM,
				RecordedAt:   r.RecordedAt,
			},
		})
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
