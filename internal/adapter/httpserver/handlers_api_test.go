package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pscheid92/nlsentiment/internal/adapter/metrics"
	"github.com/pscheid92/nlsentiment/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestHandleGetSettings(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		getSettingsFn: func(_ context.Context) (domain.Settings, error) {
			return domain.Settings{
				MagnitudeThreshold: 2,
				ContentTypes:       map[string][]string{"article": {"body"}},
			}, nil
		},
	})

	rec := serve(srv, withAdminAuth(httptest.NewRequest(http.MethodGet, "/api/settings", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sentiment_magnitude_threshold":2,"content_types":{"article":["body"]}}`, rec.Body.String())
}

func TestHandleGetSettings_Error(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		getSettingsFn: func(_ context.Context) (domain.Settings, error) {
			return domain.Settings{}, errors.New("cache and database down")
		},
	})

	rec := serve(srv, withAdminAuth(httptest.NewRequest(http.MethodGet, "/api/settings", nil)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to load settings")
}

func TestHandleGetSettings_RequiresAuth(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCorrelationHeaderOnResponses(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Correlation-ID", "deadbeef")
	rec := serve(srv, req)

	assert.Equal(t, "deadbeef", rec.Header().Get("X-Correlation-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := newTestServer(t, &mockAppService{},
		WithMetrics(metrics.NewHTTPMetrics(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)

	rec := serve(srv, withAdminAuth(httptest.NewRequest(http.MethodGet, "/api/settings", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nlsentiment_http_requests_total{method="GET",route="/api/settings",status_code="200"} 1`)
}
