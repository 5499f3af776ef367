package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/config"
	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/db"
	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/observability"
	"github.com/carmelaidan/AHHH-Blockage-Detection-System/services/api/readings"
)

// Datastore is the storage surface the handlers need. *db.Store satisfies it;
// tests substitute a fake.
type Datastore interface {
	Insert(ctx context.Context, r readings.Reading) (int64, error)
	Latest(ctx context.Context, q db.LatestQuery) ([]readings.Reading, error)
	Geolocated(ctx context.Context, limit int) ([]readings.Reading, error)
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg     config.Config
	store   Datastore
	engine  *gin.Engine
	log     *zap.SugaredLogger
	metrics *observability.Metrics
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, store Datastore, logger *zap.SugaredLogger, metrics *observability.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, store: store, engine: engine, log: logger, metrics: metrics}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine.POST("/api/water-level", s.handleIngest)
	s.engine.GET("/api/water-level", s.handleLatest)
	s.engine.GET("/api/export/geojson", s.handleExportGeoJSON)
	s.engine.GET("/api/export/csv", s.handleExportCSV)

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
