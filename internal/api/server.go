package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulselabs/pulse/internal/config"
	"github.com/pulselabs/pulse/internal/logger"
)

const defaultIdleTimeout = 120 * time.Second

// Server wraps the gin engine and its http.Server
type Server struct {
	engine *gin.Engine
	srv    *http.Server
	logger logger.Logger
}

// NewServer builds the router and registers all routes. Timeouts and
// allowed CORS origins come from the server configuration.
func NewServer(cfg config.ServerConfig, handlers *Handlers, debug bool, log logger.Logger) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(cfg.CORSOrigins))
	engine.Use(requestLogger(log))

	registerRoutes(engine, handlers)

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:         cfg.Address,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout(),
			WriteTimeout: cfg.WriteTimeout(),
			IdleTimeout:  defaultIdleTimeout,
		},
		logger: log,
	}
}

func registerRoutes(engine *gin.Engine, h *Handlers) {
	engine.GET("/health", h.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/jobs", h.CreateJob)
		v1.GET("/jobs", h.ListJobs)
		v1.GET("/jobs/:id", h.GetJob)
		v1.GET("/jobs/:id/posts", h.GetJobPosts)
		v1.GET("/variants/stats", h.GetVariantStats)
	}
}

// Engine exposes the router for tests
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("API server listening", logger.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
