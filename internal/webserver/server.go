package webserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/talkincode/toughledger/config"
	_ "github.com/talkincode/toughledger/internal/webserver/docs"
	"go.uber.org/zap"
)

// Server owns the echo instance and the API route group.
type Server struct {
	root   *echo.Echo
	api    *echo.Group
	config *config.AppConfig
	logger *zap.Logger
}

// NewServer builds the echo instance with the shared middleware chain.
// validator may be nil.
func NewServer(cfg *config.AppConfig, logger *zap.Logger, validator echo.Validator) (*Server, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}

	s := &Server{
		root:   echo.New(),
		config: cfg,
		logger: logger.Named("webserver"),
	}
	e := s.root
	e.HideBanner = true
	e.HidePort = true
	e.Debug = !cfg.IsProduction()
	e.Validator = validator
	e.HTTPErrorHandler = s.handleError

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	if cfg.Web.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Web.BodyLimit))
	}
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return node.Generate().String()
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID))
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Web.CorsOrigins,
		AllowHeaders: []string{echo.HeaderAccept, echo.HeaderContentType, echo.HeaderAuthorization},
		MaxAge:       cfg.Web.CorsMaxAge,
	}))

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	s.api = e.Group(cfg.Web.BasePath)
	return s, nil
}

// Handler exposes the server for httptest.
func (s *Server) Handler() http.Handler {
	return s.root
}

func (s *Server) ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.GET(path, h, m...)
}

func (s *Server) ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.POST(path, h, m...)
}

func (s *Server) ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.PUT(path, h, m...)
}

func (s *Server) ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.DELETE(path, h, m...)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", zap.String("addr", s.config.Addr()))
		errc <- s.root.Start(s.config.Addr())
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("web server shutting down")
		return s.root.Shutdown(shutdownCtx)
	}
}
