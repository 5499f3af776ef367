package sensor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"

	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/readings"
)

// Synthetic water-level range in cm. Spans the full escalation band so the
// dashboard exercises every tier: 20 cm is ~42% capacity, 60 cm overtops the
// 47.5 cm basin.
const (
	minLevelCM = 20.0
	maxLevelCM = 60.0
)

// Idle power draw range for the simulated MCU, in watts.
const (
	minPowerW = 0.35
	maxPowerW = 1.20
)

// NewPayload generates one synthetic reading. alert_type is left empty so
// the backend classifies the reading from its capacity percentage, the same
// path a bare hardware payload takes.
func NewPayload(rng *rand.Rand, sensorID string, lat, lon float64) readings.Payload {
	level := round1(minLevelCM + rng.Float64()*(maxLevelCM-minLevelCM))
	power := round2(minPowerW + rng.Float64()*(maxPowerW-minPowerW))

	return readings.Payload{
		SensorID:              sensorID,
		WaterLevelCM:          &level,
		Latitude:              &lat,
		Longitude:             &lon,
		PowerConsumptionWatts: &power,
		IsSimulated:           true,
	}
}

// IngestResponse is the success envelope returned by the ingestion endpoint.
type IngestResponse struct {
	Status             string  `json:"status"`
	Message            string  `json:"message"`
	ID                 int64   `json:"id"`
	CapacityPercentage float64 `json:"capacity_percentage"`
	AlertType          string  `json:"alert_type"`
}

// Post submits a reading to the ingestion endpoint and decodes the envelope.
func Post(ctx context.Context, client *http.Client, url string, payload readings.Payload) (IngestResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return IngestResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return IngestResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return IngestResponse{}, fmt.Errorf("post reading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return IngestResponse{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var envelope IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return IngestResponse{}, fmt.Errorf("decode response: %w", err)
	}

	return envelope, nil
}

func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
