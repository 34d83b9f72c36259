package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// PanelStore is the slice of the panel repository the handlers read from.
type PanelStore interface {
	QueryPanel(ctx context.Context, f repositories.PanelFilter) ([]metrics.FirmYearRecord, error)
	CompanyPanel(ctx context.Context, company string) ([]metrics.FirmYearRecord, error)
	Companies(ctx context.Context) ([]string, error)
}

// PanelCache is the read-through cache in front of the panel store.
type PanelCache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
}

// PanelHandler serves the assembled firm-year panel.
type PanelHandler struct {
	store  PanelStore
	cache  PanelCache
	logger logging.Logger
	ttl    time.Duration
}

// NewPanelHandler creates a PanelHandler.  cache may be nil, reads then go
// straight to the store.
func NewPanelHandler(store PanelStore, cache PanelCache, logger logging.Logger) *PanelHandler {
	return &PanelHandler{
		store:  store,
		cache:  cache,
		logger: logger.Named("panel-handler"),
		ttl:    10 * time.Minute,
	}
}

// PanelResponse is the body of a panel query.
type PanelResponse struct {
	Rows  []metrics.FirmYearRecord `json:"rows"`
	Count int                      `json:"count"`
}

// List handles GET /api/v1/panel.  Supported query parameters: company,
// from_year, to_year, limit, offset.
func (h *PanelHandler) List(c *gin.Context) {
	filter := repositories.PanelFilter{
		Company:  c.Query("company"),
		FromYear: queryInt(c, "from_year", 0),
		ToYear:   queryInt(c, "to_year", 0),
		Limit:    queryInt(c, "limit", 0),
		Offset:   queryInt(c, "offset", 0),
	}

	var rows []metrics.FirmYearRecord
	load := func(ctx context.Context) (interface{}, error) {
		return h.store.QueryPanel(ctx, filter)
	}

	var err error
	if h.cache != nil {
		key := panelCacheKey(filter)
		err = h.cache.GetOrSet(c.Request.Context(), key, &rows, h.ttl, load)
	} else {
		rows, err = h.store.QueryPanel(c.Request.Context(), filter)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PanelResponse{Rows: rows, Count: len(rows)})
}

// Companies handles GET /api/v1/companies.
func (h *PanelHandler) Companies(c *gin.Context) {
	var names []string
	load := func(ctx context.Context) (interface{}, error) {
		return h.store.Companies(ctx)
	}

	var err error
	if h.cache != nil {
		err = h.cache.GetOrSet(c.Request.Context(), "companies", &names, h.ttl, load)
	} else {
		names, err = h.store.Companies(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"companies": names, "count": len(names)})
}

// CompanyScores handles GET /api/v1/companies/:name/scores.
func (h *PanelHandler) CompanyScores(c *gin.Context) {
	company := c.Param("name")

	var rows []metrics.FirmYearRecord
	load := func(ctx context.Context) (interface{}, error) {
		return h.store.CompanyPanel(ctx, company)
	}

	var err error
	if h.cache != nil {
		err = h.cache.GetOrSet(c.Request.Context(), "scores:"+company, &rows, h.ttl, load)
	} else {
		rows, err = h.store.CompanyPanel(c.Request.Context(), company)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PanelResponse{Rows: rows, Count: len(rows)})
}

// panelCacheKey encodes the filter so distinct queries never collide.
func panelCacheKey(f repositories.PanelFilter) string {
	return fmt.Sprintf("panel:%s:%d:%d:%d:%d", f.Company, f.FromYear, f.ToYear, f.Limit, f.Offset)
}
