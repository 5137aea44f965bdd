package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ingest/config"
	"example.com/backstage/services/ingest/internal/metrics"
	"example.com/backstage/services/ingest/internal/service"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	records    *service.RecordService
	metrics    *metrics.Collector
	nrApp      *newrelic.Application
	startTime  time.Time
}

// NewServer creates a new HTTP server. nrApp may be nil.
func NewServer(cfg *config.Config, records *service.RecordService, collector *metrics.Collector, nrApp *newrelic.Application) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	// Keep integers beyond 2^53 exact in ingested payloads
	binding.EnableDecoderUseNumber = true

	server := &Server{
		config:    cfg,
		records:   records,
		metrics:   collector,
		nrApp:     nrApp,
		startTime: time.Now(),
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     server.router,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	return server
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()

	// Trailing-slash variants get the 404 envelope instead of a bare redirect
	router.RedirectTrailingSlash = false

	router.Use(RequestIDMiddleware())
	if s.nrApp != nil {
		router.Use(nrgin.Middleware(s.nrApp))
	}
	router.Use(LoggingMiddleware())
	router.Use(MetricsMiddleware(s.metrics))
	// Inside logging and metrics so a recovered panic is still logged and counted
	router.Use(RecoveryMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(s.config.CORS.Origins))
	router.Use(BodyLimitMiddleware(s.config.Server.MaxBodyBytes))
	router.Use(ErrorHandler())

	base := router.Group(s.config.API.BasePath())
	{
		health := NewHealthHandler(s.config.Service.Version, s.startTime)
		base.GET("/health", health.Health)
		base.GET("/ready", health.Ready)

		metricsHandler := NewMetricsHandler(s.metrics, s.records)
		base.GET("/metrics", metricsHandler.HandleGetMetrics)

		NewDataHandler(s.records).RegisterRoutes(base)
	}

	router.NoRoute(NotFoundHandler)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().
		Str("address", s.httpServer.Addr).
		Str("base_path", s.config.API.BasePath()).
		Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
