package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// BatchRunStore reads persisted batch run summaries.
type BatchRunStore interface {
	LatestBatchRun(ctx context.Context) (*metrics.BatchSummary, error)
}

// TaskPublisher enqueues per-company scoring tasks.
type TaskPublisher interface {
	PublishTask(ctx context.Context, task kafka.TaskEnvelope) error
}

// RunHandler serves batch run status and accepts recompute requests.
type RunHandler struct {
	store  BatchRunStore
	queue  TaskPublisher
	logger logging.Logger
}

func NewRunHandler(store BatchRunStore, queue TaskPublisher, logger logging.Logger) *RunHandler {
	return &RunHandler{
		store:  store,
		queue:  queue,
		logger: logger.Named("run-handler"),
	}
}

// Latest handles GET /api/v1/runs/latest.
func (h *RunHandler) Latest(c *gin.Context) {
	summary, err := h.store.LatestBatchRun(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RecomputeRequest is the body of a recompute submission.
type RecomputeRequest struct {
	RunID string `json:"run_id"`
}

// RecomputeResponse echoes the enqueued task.
type RecomputeResponse struct {
	TaskID  string `json:"task_id"`
	RunID   string `json:"run_id"`
	Company string `json:"company"`
}

// Recompute handles POST /api/v1/companies/:name/recompute.  The company is
// enqueued for the workers, the response is returned before any scoring
// happens.
func (h *RunHandler) Recompute(c *gin.Context) {
	if h.queue == nil {
		respondError(c, appErrors.New(appErrors.ErrCodeServiceUnavailable, "task queue not configured"))
		return
	}

	company := c.Param("name")
	if company == "" {
		respondError(c, appErrors.New(appErrors.ErrCodeValidation, "company name is required"))
		return
	}

	var req RecomputeRequest
	_ = c.ShouldBindJSON(&req)
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	task := kafka.NewTaskEnvelope(req.RunID, company)
	if err := h.queue.PublishTask(c.Request.Context(), task); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("recompute enqueued",
		logging.String("company", company),
		logging.String("task_id", task.TaskID),
	)
	c.JSON(http.StatusAccepted, RecomputeResponse{
		TaskID:  task.TaskID,
		RunID:   task.RunID,
		Company: task.Company,
	})
}
