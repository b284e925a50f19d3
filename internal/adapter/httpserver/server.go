package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/nlsentiment/internal/adapter/metrics"
	"github.com/pscheid92/nlsentiment/internal/app"
	"github.com/pscheid92/nlsentiment/internal/domain"
	"github.com/pscheid92/nlsentiment/internal/platform/config"
	"github.com/pscheid92/nlsentiment/web"
)

type appService interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	GetSettingsForm(ctx context.Context) (*app.SettingsForm, error)
	SaveSettings(ctx context.Context, req app.SaveSettingsRequest) (*app.ReconcileReport, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app       appService
	debouncer domain.SubmissionDebouncer

	templates *template.Template

	healthChecks   []HealthCheck
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	startTime      time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithDebouncer enables double-submit protection on the settings form.
func WithDebouncer(d domain.SubmissionDebouncer) Option {
	return func(s *Server) { s.debouncer = d }
}

// WithMetrics records request metrics and exposes h on /metrics.
func WithMetrics(m *metrics.HTTPMetrics, h http.Handler) Option {
	return func(s *Server) {
		s.httpMetrics = m
		s.metricsHandler = h
	}
}

// WithHealthChecks sets the checks run by the startup and readiness probes.
func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) { s.healthChecks = checks }
}

func NewServer(cfg *config.Config, app appService, opts ...Option) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       app,
		templates: templates,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv, nil
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"contains": slices.Contains[[]string],
	}
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
