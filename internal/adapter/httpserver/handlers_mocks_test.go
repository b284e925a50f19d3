package httpserver

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/nlsentiment/internal/app"
	"github.com/pscheid92/nlsentiment/internal/domain"
	"github.com/pscheid92/nlsentiment/internal/platform/config"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "correct-horse-battery"
)

// --- Mock implementations ---

type mockAppService struct {
	getSettingsFn     func(ctx context.Context) (domain.Settings, error)
	getSettingsFormFn func(ctx context.Context) (*app.SettingsForm, error)
	saveSettingsFn    func(ctx context.Context, req app.SaveSettingsRequest) (*app.ReconcileReport, error)
}

func (m *mockAppService) GetSettings(ctx context.Context) (domain.Settings, error) {
	if m.getSettingsFn != nil {
		return m.getSettingsFn(ctx)
	}
	return domain.DefaultSettings(), nil
}

func (m *mockAppService) GetSettingsForm(ctx context.Context) (*app.SettingsForm, error) {
	if m.getSettingsFormFn != nil {
		return m.getSettingsFormFn(ctx)
	}
	return &app.SettingsForm{
		MagnitudeThreshold: domain.DefaultMagnitudeThreshold,
		ContentTypes: []app.ContentTypeForm{
			{ID: "article", Label: "Article", Options: []app.FieldOption{{Name: "body", Label: "Body"}}},
		},
	}, nil
}

func (m *mockAppService) SaveSettings(ctx context.Context, req app.SaveSettingsRequest) (*app.ReconcileReport, error) {
	if m.saveSettingsFn != nil {
		return m.saveSettingsFn(ctx, req)
	}
	return &app.ReconcileReport{}, nil
}

type mockDebouncer struct {
	isDebouncedFn func(ctx context.Context, username string) (bool, error)
	releaseFn     func(ctx context.Context, username string) error
}

func (m *mockDebouncer) IsDebounced(ctx context.Context, username string) (bool, error) {
	if m.isDebouncedFn != nil {
		return m.isDebouncedFn(ctx, username)
	}
	return false, nil
}

func (m *mockDebouncer) Release(ctx context.Context, username string) error {
	if m.releaseFn != nil {
		return m.releaseFn(ctx, username)
	}
	return nil
}

// memoryDebouncer holds an interval per user until released, like SET NX
// without expiry.
type memoryDebouncer struct {
	held     map[string]bool
	releases int
}

func newMemoryDebouncer() *memoryDebouncer {
	return &memoryDebouncer{held: make(map[string]bool)}
}

func (m *memoryDebouncer) IsDebounced(_ context.Context, username string) (bool, error) {
	if m.held[username] {
		return true, nil
	}
	m.held[username] = true
	return false, nil
}

func (m *memoryDebouncer) Release(_ context.Context, username string) error {
	delete(m.held, username)
	m.releases++
	return nil
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...Option) *Server {
	t.Helper()

	tmpl := template.Must(template.New("settings.html").Funcs(templateFuncs()).Parse(
		`Settings{{if .Saved}} saved{{end}} threshold={{.Form.MagnitudeThreshold}} step={{.ThresholdStep}}` +
			`{{range .Form.ContentTypes}}{{$ct := .}} {{.ID}}:{{.Enabled}}{{range .Options}}` +
			` {{.Name}}={{contains $ct.Selected .Name}}{{end}}{{end}}`))

	srv := &Server{
		echo: echo.New(),
		config: &config.Config{
			AdminUsername:      testAdminUser,
			AdminPassword:      testAdminPassword,
			RateLimitPerSecond: 100,
			RateLimitBurst:     100,
		},
		app:       app,
		templates: tmpl,
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

// serve sends a request through the full middleware stack.
func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func withAdminAuth(req *http.Request) *http.Request {
	req.SetBasicAuth(testAdminUser, testAdminPassword)
	return req
}
