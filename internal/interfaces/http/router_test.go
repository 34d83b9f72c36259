package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/DisruptMetrics/internal/interfaces/http/handlers"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

type staticPanelStore struct{}

func (staticPanelStore) QueryPanel(ctx context.Context, f repositories.PanelFilter) ([]metrics.FirmYearRecord, error) {
	return []metrics.FirmYearRecord{{Company: "acme", Year: 2010}}, nil
}

func (staticPanelStore) CompanyPanel(ctx context.Context, company string) ([]metrics.FirmYearRecord, error) {
	return []metrics.FirmYearRecord{{Company: company, Year: 2010}}, nil
}

func (staticPanelStore) Companies(ctx context.Context) ([]string, error) {
	return []string{"acme"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		PanelHandler:     handlers.NewPanelHandler(staticPanelStore{}, nil, logging.NewNopLogger()),
		HealthHandler:    handlers.NewHealthHandler("test"),
		Logger:           logging.NewNopLogger(),
		Metrics:          prometheus.NewAppMetrics(collector),
		MetricsCollector: collector,
		Mode:             "test",
	})
}

func TestRouterServesPanel(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/panel", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"acme"`)
}

func TestRouterServesHealth(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterServesMetrics(t *testing.T) {
	router := newTestRouter(t)

	// Drive one request through so the counters exist before scraping.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "route not found")
}

func TestRouterWithoutRunHandlerSkipsRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
