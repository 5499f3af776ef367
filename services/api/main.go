package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/config"
	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/db"
	httpserver "github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/http"
	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/observability"
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

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection error: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema setup error: %v", err)
	}
	log.Infow("water_levels table ready")

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	srv := httpserver.New(cfg, store, log, metrics)
	log.Infof("REST API listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
