package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL         = "http://127.0.0.1:8080/api/water-level"
	defaultSensorID       = "Ternate_Sensor_02"
	defaultInterval       = 10 * time.Second
	defaultRequestTimeout = 5 * time.Second

	// Deployment site at Ternate; matches the coordinates baked into the
	// MCU firmware.
	defaultLatitude  = 8.7465
	defaultLongitude = 127.3851
)

// Config holds runtime configuration for the simulator service.
type Config struct {
	APIURL         string
	SensorID       string
	Interval       time.Duration
	RequestTimeout time.Duration
	Count          int
	Latitude       float64
	Longitude      float64
	DryRun         bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		APIURL:         defaultAPIURL,
		SensorID:       defaultSensorID,
		Interval:       defaultInterval,
		RequestTimeout: defaultRequestTimeout,
		Count:          1,
		Latitude:       defaultLatitude,
		Longitude:      defaultLongitude,
	}

	if v := strings.TrimSpace(os.Getenv("API_URL")); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SIM_SENSOR_ID")); v != "" {
		cfg.SensorID = v
	}

	if v := strings.TrimSpace(os.Getenv("SIM_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid SIM_INTERVAL: %w", err)
		}
		cfg.Interval = d
	}

	if v := strings.TrimSpace(os.Getenv("SIM_REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid SIM_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("SIM_COUNT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, errors.New("invalid SIM_COUNT")
		}
		cfg.Count = n
	}

	if v := strings.TrimSpace(os.Getenv("SIM_LATITUDE")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid SIM_LATITUDE: %w", err)
		}
		cfg.Latitude = f
	}

	if v := strings.TrimSpace(os.Getenv("SIM_LONGITUDE")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid SIM_LONGITUDE: %w", err)
		}
		cfg.Longitude = f
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	return cfg, nil
}
