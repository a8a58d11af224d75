package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/stayhub/services/reservation/config"
	"example.com/stayhub/services/reservation/metrics"
	"example.com/stayhub/services/reservation/service"
	"example.com/stayhub/services/reservation/tracing"
)

// Server is the HTTP server for the API
type Server struct {
	cfg        config.Config
	router     *gin.Engine
	httpServer *http.Server
	db         *gorm.DB
	svc        *service.Service
	metrics    *metrics.Metrics
}

// NewServer creates a new API server
func NewServer(cfg config.Config, db *gorm.DB, svc *service.Service, m *metrics.Metrics, tracer tracing.Tracer) *Server {
	server := &Server{
		cfg:     cfg,
		router:  gin.New(),
		db:      db,
		svc:     svc,
		metrics: m,
	}

	server.setupMiddleware(tracer)
	server.setupRoutes()

	return server
}

// setupMiddleware adds middleware to the router
func (s *Server) setupMiddleware(tracer tracing.Tracer) {
	s.router.Use(RequestIDMiddleware())
	s.router.Use(gin.Recovery())
	s.router.Use(LoggingMiddleware())

	if app := tracer.Application(); app != nil {
		s.router.Use(nrgin.Middleware(app))
	}
}

// setupRoutes defines the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.health)
	s.router.GET("/metrics", s.getMetrics)

	v1 := s.router.Group("/api/v1")

	reservationRoutes := v1.Group("/reservations")
	{
		reservationRoutes.POST("", s.createReservation)
		reservationRoutes.GET("", s.listReservations)
		reservationRoutes.GET("/:id", s.getReservation)
		reservationRoutes.PUT("/:id", s.updateReservationDetails)
		reservationRoutes.POST("/:id/confirm", s.confirmReservation)
		reservationRoutes.POST("/:id/cancel", s.cancelReservation)
		reservationRoutes.GET("/:id/events", s.getReservationEvents)
	}

	accountRoutes := v1.Group("/guest-accounts")
	{
		accountRoutes.POST("", s.createGuestAccount)
		accountRoutes.GET("/:id", s.getGuestAccount)
		accountRoutes.POST("/:id/deactivate", s.deactivateGuestAccount)
		accountRoutes.GET("/:id/events", s.getGuestAccountEvents)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPServerAddress,
		Handler: s.router,
	}

	log.Info().Msgf("HTTP server starting on %s", s.cfg.HTTPServerAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		s.metrics.SetHealth("database", false)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
		return
	}

	s.metrics.SetHealth("database", true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetAllMetrics())
}
