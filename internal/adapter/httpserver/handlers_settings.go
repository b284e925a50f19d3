package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/nlsentiment/internal/app"
	"github.com/pscheid92/nlsentiment/internal/domain"
	apperrors "github.com/pscheid92/nlsentiment/internal/platform/errors"
)

const (
	formKeyThreshold = "sentiment_magnitude_threshold"
	formSuffixEnable = "_enabled"
	formSuffixFields = "_fields"
)

type settingsPageData struct {
	Form          *app.SettingsForm
	CSRFToken     string
	Saved         bool
	ThresholdStep float64
}

func (s *Server) registerSettingsRoutes(auth, limiter, csrf echo.MiddlewareFunc) {
	admin := s.echo.Group(settingsPath, auth, limiter, csrf)
	admin.GET("", s.handleSettingsForm)
	admin.POST("", s.handleSaveSettings)
}

func (s *Server) handleSettingsForm(c echo.Context) error {
	ctx := c.Request().Context()

	form, err := s.app.GetSettingsForm(ctx)
	if err != nil {
		return apperrors.InternalError("failed to load settings form", err)
	}

	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)

	return s.renderTemplate(c, "settings.html", settingsPageData{
		Form:          form,
		CSRFToken:     csrfToken,
		Saved:         c.QueryParam("saved") == "1",
		ThresholdStep: app.ThresholdStep,
	})
}

func (s *Server) handleSaveSettings(c echo.Context) error {
	ctx := c.Request().Context()

	values, err := c.FormParams()
	if err != nil {
		return apperrors.ValidationError("invalid form data")
	}

	req, err := parseSettingsForm(values)
	if err != nil {
		return err
	}

	// Rejected input must not start a debounce interval.
	if err := app.ValidateThreshold(req.MagnitudeThreshold); err != nil {
		return saveSettingsError(err)
	}

	username, _ := c.Get(contextKeyUser).(string)
	if s.debouncer != nil {
		debounced, err := s.debouncer.IsDebounced(ctx, username)
		if err != nil {
			// Redis trouble must not lock the administrator out.
			slog.WarnContext(ctx, "Submission debounce check failed", "username", username, "error", err)
		} else if debounced {
			return apperrors.RateLimitedError("settings were just submitted, please wait a moment")
		}
	}

	report, err := s.app.SaveSettings(ctx, req)
	if err != nil {
		var valErr *app.ValidationError
		if s.debouncer != nil && errors.As(err, &valErr) {
			s.releaseDebounce(ctx, username)
		}
		return saveSettingsError(err)
	}

	slog.InfoContext(ctx, "Sentiment settings saved",
		"username", username,
		"threshold", report.Settings.MagnitudeThreshold,
		"created", report.Created,
		"deleted", report.Deleted,
		"duration", report.Duration,
	)

	if c.Request().Header.Get(echo.HeaderXRequestedWith) == "XMLHttpRequest" {
		if err := c.NoContent(http.StatusNoContent); err != nil {
			return fmt.Errorf("failed to send response: %w", err)
		}
		return nil
	}

	if err := c.Redirect(http.StatusSeeOther, settingsPath+"?saved=1"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

// parseSettingsForm reads "<type>_enabled" checkboxes, "<type>_fields"
// multi-selects and the threshold into a save request.
func parseSettingsForm(values url.Values) (app.SaveSettingsRequest, error) {
	raw := strings.TrimSpace(values.Get(formKeyThreshold))
	if raw == "" {
		return app.SaveSettingsRequest{}, apperrors.ValidationError("magnitude threshold is required").
			WithField("field", formKeyThreshold)
	}
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return app.SaveSettingsRequest{}, apperrors.ValidationError("magnitude threshold must be a number").
			WithField("field", formKeyThreshold)
	}

	selections := make(map[string]domain.ContentTypeSelection)
	for key, vals := range values {
		switch {
		case strings.HasSuffix(key, formSuffixEnable):
			id := strings.TrimSuffix(key, formSuffixEnable)
			sel := selections[id]
			sel.Enabled = isChecked(vals)
			selections[id] = sel
		case strings.HasSuffix(key, formSuffixFields):
			id := strings.TrimSuffix(key, formSuffixFields)
			sel := selections[id]
			sel.Fields = append(sel.Fields, vals...)
			selections[id] = sel
		}
	}

	return app.SaveSettingsRequest{
		MagnitudeThreshold: threshold,
		Selections:         selections,
	}, nil
}

func isChecked(vals []string) bool {
	for _, v := range vals {
		switch strings.ToLower(v) {
		case "1", "on", "true":
			return true
		}
	}
	return false
}

func (s *Server) releaseDebounce(ctx context.Context, username string) {
	if err := s.debouncer.Release(ctx, username); err != nil {
		slog.WarnContext(ctx, "Failed to release submission debounce", "username", username, "error", err)
	}
}

func saveSettingsError(err error) error {
	var valErr *app.ValidationError
	if errors.As(err, &valErr) {
		return apperrors.ValidationError(valErr.Message).WithField("field", valErr.Field)
	}

	// Checked before ReconcileError: both may be joined into one result.
	var saveErr *app.SaveError
	if errors.As(err, &saveErr) {
		return apperrors.InternalError("failed to save settings", err)
	}

	var recErr *app.ReconcileError
	if errors.As(err, &recErr) {
		return apperrors.InternalError("settings saved, but the sentiment field could not be updated", err).
			WithField("content_type", recErr.ContentType).
			WithField("operation", string(recErr.Op))
	}

	return apperrors.InternalError("failed to save settings", err)
}
