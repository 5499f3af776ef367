package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/db"
)

// dbadmin performs one-off operational tasks against the water_levels table:
//
//	dbadmin -init    create/evolve the schema, extension, and indexes
//	dbadmin -reset   truncate the table and restart the id sequence
//	dbadmin -stats   print row counts and the most recent readings
func main() {
	initSchema := flag.Bool("init", false, "Initialize or evolve the water_levels schema")
	reset := flag.Bool("reset", false, "Truncate water_levels for a fresh hardware test")
	stats := flag.Bool("stats", false, "Print table statistics and recent readings")
	flag.Parse()

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	if !*initSchema && !*reset && !*stats {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(log, *initSchema, *reset, *stats); err != nil {
		log.Fatalf("dbadmin failed: %v", err)
	}
}

func run(log *zap.SugaredLogger, initSchema, reset, stats bool) error {
	_ = godotenv.Load(".env")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := db.New(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if initSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		log.Infow("water_levels table with geospatial support is ready")
	}

	if reset {
		if err := store.Reset(ctx); err != nil {
			return err
		}
		log.Infow("water_levels reset; table is empty and the id sequence restarted")
	}

	if stats {
		st, err := store.ReadStats(ctx)
		if err != nil {
			return err
		}
		log.Infow("table statistics",
			"total_readings", st.TotalReadings,
			"geolocated_readings", st.GeolocatedReadings,
			"alert_readings", st.AlertReadings,
		)

		recent, err := store.Latest(ctx, db.LatestQuery{Limit: db.MinLimit, Source: db.SourceAll})
		if err != nil {
			return err
		}
		for _, r := range recent {
			log.Infow("reading",
				"id", r.ID,
				"sensor_id", r.SensorID,
				"water_level_cm", r.WaterLevelCM,
				"capacity_percentage", r.CapacityPercentage,
				"alert_type", r.AlertType,
				"recorded_at", r.RecordedAt.Time().Format("2006-01-02 15:04:05"),
			)
		}
	}

	return nil
}
