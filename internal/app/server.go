package app

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/takutakahashi/orderkuota-proxy/internal/interfaces/controllers"
	"github.com/takutakahashi/orderkuota-proxy/pkg/config"
	"github.com/takutakahashi/orderkuota-proxy/pkg/metrics"
	"github.com/takutakahashi/orderkuota-proxy/pkg/orderkuota"
	"github.com/takutakahashi/orderkuota-proxy/pkg/upstream"
)

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	echo     *echo.Echo
	logger   *zap.Logger
	service  controllers.OrderKuotaService
	recorder *metrics.Recorder
}

// NewServer wires the provider client, the operations and the HTTP routes
// from configuration. Extra upstream options are applied last.
func NewServer(cfg *config.Config, logger *zap.Logger, opts ...upstream.Option) *Server {
	recorder := metrics.NewRecorder()

	clientOpts := append([]upstream.Option{
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithLogger(logger.Named("upstream")),
		upstream.WithObserver(recorder),
	}, opts...)
	client := upstream.NewClient(clientOpts...)

	service := orderkuota.NewService(client, cfg.Identity)
	return NewServerWithService(cfg, logger, service, recorder)
}

// NewServerWithService creates a server around an existing service
func NewServerWithService(cfg *config.Config, logger *zap.Logger, service controllers.OrderKuotaService, recorder *metrics.Recorder) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Disable Echo's default logger, requests are logged through zap
	e.Logger.SetOutput(io.Discard)

	e.Validator = controllers.NewRequestValidator()
	e.HTTPErrorHandler = controllers.NewErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(controllers.RequestLogger(logger.Named("http"), !cfg.Verbose))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: allowOrigin(cfg.AllowedOrigins),
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
		MaxAge:          86400,
	}))

	s := &Server{
		config:   cfg,
		echo:     e,
		logger:   logger,
		service:  service,
		recorder: recorder,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	controllers.NewHealthController().RegisterRoutes(s.echo)
	controllers.NewQrisController(s.service).RegisterRoutes(s.echo)

	if s.recorder != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.recorder.Handler()))
	}
}

// Start listens on the configured port and blocks until the server stops
func (s *Server) Start() error {
	s.logger.Info("starting orderkuota-proxy", zap.String("port", s.config.Port))
	return s.echo.Start(":" + s.config.Port)
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// GetEcho returns the Echo instance for external access
func (s *Server) GetEcho() *echo.Echo {
	return s.echo
}

// GetConfig returns the server configuration
func (s *Server) GetConfig() *config.Config {
	return s.config
}

// allowOrigin permits the configured origins, or localhost when none are set
func allowOrigin(allowed []string) func(origin string) (bool, error) {
	return func(origin string) (bool, error) {
		if len(allowed) == 0 {
			return strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "https://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0.1") ||
				strings.HasPrefix(origin, "https://127.0.0.1"), nil
		}
		for _, a := range allowed {
			a = strings.TrimSpace(a)
			if a == "*" || a == origin {
				return true, nil
			}
		}
		return false, nil
	}
}
