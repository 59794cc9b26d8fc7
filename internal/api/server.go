package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	handlerapi "github.com/newthinker/stocksage/internal/api/handler/api"
	"github.com/newthinker/stocksage/internal/api/middleware"
	"github.com/newthinker/stocksage/internal/api/response"
	"github.com/newthinker/stocksage/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for stocksage
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string // empty disables the metrics endpoint
}

// Dependencies are the engines the routes are served by. Reports and
// Metrics are optional.
type Dependencies struct {
	Indicators handlerapi.IndicatorComputer
	Portfolio  handlerapi.Analyzer
	Reports    handlerapi.ReportBuilder
	Metrics    *metrics.Registry
	Provider   string
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Indicators == nil || deps.Portfolio == nil {
		return nil, fmt.Errorf("indicator and portfolio engines are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes(cfg, deps)

	var h http.Handler = s.mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	s.handler = metrics.LoggingMiddleware(logger)(h)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	indicators := handlerapi.NewIndicatorHandler(deps.Indicators)
	portfolios := handlerapi.NewPortfolioHandler(deps.Portfolio, deps.Reports, s.logger)

	v1 := http.NewServeMux()
	v1.HandleFunc("GET /api/v1/indicators", indicators.Get)
	v1.HandleFunc("POST /api/v1/portfolio/analyze", portfolios.Analyze)
	v1.HandleFunc("GET /api/v1/reports/{id}", portfolios.Report)
	s.mux.Handle("/api/v1/", middleware.APIKeyAuth(cfg.APIKey)(v1))

	s.mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"provider": deps.Provider,
		})
	})

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
