package prometheus

import (
	"time"

	"github.com/turtacn/DisruptMetrics/internal/application/pipeline"
)

// PipelineObserver reports pipeline timing events into AppMetrics.  The
// company name is deliberately not a label, rosters can carry thousands of
// companies and per-company series would blow up the scrape.
type PipelineObserver struct {
	metrics *AppMetrics
}

var _ pipeline.Observer = (*PipelineObserver)(nil)

func NewPipelineObserver(metrics *AppMetrics) *PipelineObserver {
	return &PipelineObserver{metrics: metrics}
}

func (o *PipelineObserver) StageCompleted(company, stage string, d time.Duration) {
	o.metrics.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (o *PipelineObserver) CompanyProcessed(company, status string, d time.Duration) {
	o.metrics.CompaniesProcessedTotal.WithLabelValues(status).Inc()
	o.metrics.CompanyDuration.WithLabelValues().Observe(d.Seconds())
}

func (o *PipelineObserver) PanelAssembled(rows int) {
	o.metrics.PanelAssembliesTotal.WithLabelValues().Inc()
	o.metrics.PanelRows.WithLabelValues().Set(float64(rows))
}
