package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/simulator/internal/config"
	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/simulator/internal/sensor"
)

func main() {
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	var zapLogger *zap.Logger
	var err error
	if *debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	if err := run(log); err != nil {
		log.Fatalf("simulator failed: %v", err)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := &http.Client{Timeout: cfg.RequestTimeout}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	log.Infow("simulator starting",
		"api_url", cfg.APIURL,
		"sensor_id", cfg.SensorID,
		"count", cfg.Count,
		"interval", cfg.Interval,
	)

	// Count of 0 means run until interrupted.
	for sent := 0; cfg.Count == 0 || sent < cfg.Count; sent++ {
		if sent > 0 {
			select {
			case <-ctx.Done():
				log.Infow("simulator stopped", "sent", sent)
				return nil
			case <-time.After(cfg.Interval):
			}
		}

		payload := sensor.NewPayload(rng, cfg.SensorID, cfg.Latitude, cfg.Longitude)

		if cfg.DryRun {
			log.Infow("dry-run: would post reading",
				"sensor_id", payload.SensorID,
				"water_level_cm", *payload.WaterLevelCM,
			)
			continue
		}

		envelope, err := sensor.Post(ctx, client, cfg.APIURL, payload)
		if err != nil {
			if ctx.Err() != nil {
				log.Infow("simulator stopped", "sent", sent)
				return nil
			}
			// A failed post is reported and skipped; the next tick retries
			// with a fresh reading.
			log.Errorw("post failed", "error", err)
			continue
		}

		log.Infow("reading posted",
			"id", envelope.ID,
			"water_level_cm", *payload.WaterLevelCM,
			"capacity_percentage", envelope.CapacityPercentage,
			"alert_type", envelope.AlertType,
		)
	}

	return nil
}
