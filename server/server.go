// Package server exposes ingestion and question answering over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/poiesic/newsdesk/agent"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
	"github.com/poiesic/newsdesk/storage"
)

// DefaultListLimit is used by GET /articles when no limit is given.
const DefaultListLimit = 20

// Service is what the HTTP surface needs from a running desk.
type Service interface {
	Ingest(ctx context.Context, title string, source core.Source) (*ingestion.Ack, error)
	Ask(ctx context.Context, question string) *agent.Trace
	Article(ctx context.Context, id core.ID) (*core.Article, error)
	Articles(ctx context.Context, limit int) ([]*core.Article, error)
	Ping(ctx context.Context) error
}

// Recorder receives one observation per HTTP request.
type Recorder interface {
	ObserveHTTP(method, route string, code int, elapsed time.Duration)
	Handler() http.Handler
}

// Server wraps an echo instance serving a Service.
type Server struct {
	echo     *echo.Echo
	service  Service
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithRecorder records request metrics and serves them on /metrics.
func WithRecorder(recorder Recorder) Option {
	return func(s *Server) error {
		s.recorder = recorder
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a server with every route registered.
func New(service Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}

	s := &Server{
		echo:    echo.New(),
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "http")

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	if s.recorder != nil {
		e.Use(s.observe)
		e.GET("/metrics", echo.WrapHandler(s.recorder.Handler()))
	}
	e.Use(middleware.Recover())

	e.GET("/healthz", s.healthz)
	e.POST("/analyze_url/", s.analyze)
	e.POST("/ask", s.ask)
	e.GET("/articles", s.listArticles)
	e.GET("/articles/:id", s.getArticle)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on address until Shutdown is called.
func (s *Server) Start(address string) error {
	s.logger.Info("listening", "address", address)
	err := s.echo.Start(address)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Configure applies server timeouts before Start.
func (s *Server) Configure(readTimeout, writeTimeout time.Duration) {
	s.echo.Server.ReadTimeout = readTimeout
	s.echo.Server.WriteTimeout = writeTimeout
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// let the error handler commit the status before it is recorded
			c.Error(err)
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.recorder.ObserveHTTP(c.Request().Method, route, c.Response().Status, time.Since(start))
		return nil
	}
}

// handleError maps domain errors to status codes and writes {"detail": msg}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, msg := classify(err)
	req := c.Request()
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "status", code, "err", err)
	} else {
		s.logger.Warn("request rejected", "method", req.Method, "path", req.URL.Path, "status", code, "err", err)
	}

	if req.Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorResponse{Detail: msg})
	}
	if err != nil {
		s.logger.Error("failed to write error response", "err", err)
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, core.ErrInvalidArticle),
		errors.Is(err, core.ErrInvalidSource),
		errors.Is(err, ErrEmptyQuestion),
		errors.Is(err, ErrInvalidLimit):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrFetch):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
