package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePanelStore struct {
	queryPanelFn   func(ctx context.Context, f repositories.PanelFilter) ([]metrics.FirmYearRecord, error)
	companyPanelFn func(ctx context.Context, company string) ([]metrics.FirmYearRecord, error)
	companiesFn    func(ctx context.Context) ([]string, error)
}

func (s *fakePanelStore) QueryPanel(ctx context.Context, f repositories.PanelFilter) ([]metrics.FirmYearRecord, error) {
	return s.queryPanelFn(ctx, f)
}

func (s *fakePanelStore) CompanyPanel(ctx context.Context, company string) ([]metrics.FirmYearRecord, error) {
	return s.companyPanelFn(ctx, company)
}

func (s *fakePanelStore) Companies(ctx context.Context) ([]string, error) {
	return s.companiesFn(ctx)
}

type fakeCache struct {
	calls int
	data  map[string][]byte
}

func (c *fakeCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	c.calls++
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	if raw, ok := c.data[key]; ok {
		return json.Unmarshal(raw, dest)
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return json.Unmarshal(raw, dest)
}

func panelRequest(t *testing.T, h *PanelHandler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.GET("/panel", h.List)
	r.GET("/companies", h.Companies)
	r.GET("/companies/:name/scores", h.CompanyScores)

	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPanelListParsesFilter(t *testing.T) {
	t.Parallel()

	var got repositories.PanelFilter
	store := &fakePanelStore{
		queryPanelFn: func(ctx context.Context, f repositories.PanelFilter) ([]metrics.FirmYearRecord, error) {
			got = f
			return []metrics.FirmYearRecord{{Company: "acme", Year: 2010}}, nil
		},
	}
	h := NewPanelHandler(store, nil, logging.NewNopLogger())

	w := panelRequest(t, h, http.MethodGet, "/panel?company=acme&from_year=2005&to_year=2015&limit=50&offset=10")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, repositories.PanelFilter{
		Company:  "acme",
		FromYear: 2005,
		ToYear:   2015,
		Limit:    50,
		Offset:   10,
	}, got)

	var resp PanelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "acme", resp.Rows[0].Company)
}

func TestPanelListCachesResults(t *testing.T) {
	t.Parallel()

	loads := 0
	store := &fakePanelStore{
		queryPanelFn: func(ctx context.Context, f repositories.PanelFilter) ([]metrics.FirmYearRecord, error) {
			loads++
			return []metrics.FirmYearRecord{{Company: "acme", Year: 2010, CDMean: -0.25}}, nil
		},
	}
	cache := &fakeCache{}
	h := NewPanelHandler(store, cache, logging.NewNopLogger())

	for i := 0; i < 3; i++ {
		w := panelRequest(t, h, http.MethodGet, "/panel?company=acme")
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 1, loads)
	assert.Equal(t, 3, cache.calls)
}

func TestPanelCompanyScoresNotFound(t *testing.T) {
	t.Parallel()

	store := &fakePanelStore{
		companyPanelFn: func(ctx context.Context, company string) ([]metrics.FirmYearRecord, error) {
			return nil, appErrors.New(appErrors.ErrCodeCompanyNotFound, "company not found: "+company)
		},
	}
	h := NewPanelHandler(store, nil, logging.NewNopLogger())

	w := panelRequest(t, h, http.MethodGet, "/companies/ghost/scores")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(appErrors.ErrCodeCompanyNotFound), resp.Code)
}

func TestPanelCompaniesList(t *testing.T) {
	t.Parallel()

	store := &fakePanelStore{
		companiesFn: func(ctx context.Context) ([]string, error) {
			return []string{"acme", "globex"}, nil
		},
	}
	h := NewPanelHandler(store, nil, logging.NewNopLogger())

	w := panelRequest(t, h, http.MethodGet, "/companies")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"globex"`)
}

func TestPanelInternalErrorIsMasked(t *testing.T) {
	t.Parallel()

	store := &fakePanelStore{
		queryPanelFn: func(ctx context.Context, f repositories.PanelFilter) ([]metrics.FirmYearRecord, error) {
			return nil, appErrors.New(appErrors.ErrCodeDatabaseError, "connection refused to 10.0.0.5")
		},
	}
	h := NewPanelHandler(store, nil, logging.NewNopLogger())

	w := panelRequest(t, h, http.MethodGet, "/panel")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}
