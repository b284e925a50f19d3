package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/nlsentiment/internal/platform/errors"
)

func (s *Server) registerAPIRoutes(auth, limiter echo.MiddlewareFunc) {
	api := s.echo.Group("/api", auth, limiter)
	api.GET("/settings", s.handleGetSettings)
}

// handleGetSettings returns the effective settings as read by consumers,
// i.e. through the settings cache.
func (s *Server) handleGetSettings(c echo.Context) error {
	settings, err := s.app.GetSettings(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to load settings", err)
	}

	if err := c.JSON(http.StatusOK, settings); err != nil {
		return fmt.Errorf("failed to send settings response: %w", err)
	}
	return nil
}
