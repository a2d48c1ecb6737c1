package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/gamenight/internal/common/uuid"
	sessionService "github.com/KirkDiggler/gamenight/internal/services/session"
)

// Config holds configuration for the HTTP server
type Config struct {
	// Addr is the listen address, e.g. ":3000"
	Addr string

	// Service dependencies
	SessionService sessionService.Service

	// AllowedOrigins for CORS. Empty or containing "*" allows every origin.
	AllowedOrigins []string

	Logger *zerolog.Logger

	// UUIDGenerator assigns request IDs. Defaults to random UUIDs.
	UUIDGenerator uuid.UUID
}

// Server serves the session REST API
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	handler    *sessionHandler
	log        zerolog.Logger
}

// New creates a new HTTP server
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.SessionService == nil {
		return nil, errors.New("session service cannot be nil")
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	log = log.With().Str("component", "http").Logger()

	ids := cfg.UUIDGenerator
	if ids == nil {
		ids = uuid.New()
	}

	s := &Server{
		engine: gin.New(),
		handler: &sessionHandler{
			service: cfg.SessionService,
			log:     log,
		},
		log: log,
	}

	s.engine.Use(
		requestID(ids),
		requestLogger(log),
		requestMetrics(),
		recovery(log),
		cors.New(corsConfig(cfg.AllowedOrigins)),
	)
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader, upsertOutcomeHeader}

	allowAll := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cfg
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Backend is running"})
	})
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api/sessions")
	api.GET("", s.handler.listSessions)
	api.POST("", s.handler.createSession)
	api.PUT("/:id", s.handler.upsertSession)
	api.DELETE("/:id", s.handler.deleteSession)
	api.DELETE("/:id/games/:index", s.handler.deleteGame)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens and serves until Stop is called
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// Stop drains in-flight requests until ctx is done
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info().Msg("server shutting down")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	return nil
}
