// Package pipeline orchestrates the per-company stage sequence (roster,
// network, citation slices, scores, firm years) and the batch run over all
// companies, persisting every stage's output as a read-only artifact.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	domainPatent "github.com/turtacn/DisruptMetrics/internal/domain/patent"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
)

// RunContext travels through one company's stage sequence, carrying the run
// identity and accumulating row-level diagnostics.  There is no global run
// state: each company gets its own context and logger.
type RunContext struct {
	RunID   string
	Company string
	Window  citation.Window
	Alpha   float64

	logger logging.Logger
	diags  []domainPatent.Diagnostic
}

// NewRunContext derives a company-scoped context from the batch run id.
func NewRunContext(runID, company string, window citation.Window, alpha float64, logger logging.Logger) *RunContext {
	return &RunContext{
		RunID:   runID,
		Company: company,
		Window:  window,
		Alpha:   alpha,
		logger: logger.With(
			logging.String("run_id", runID),
			logging.String("company", company),
		),
	}
}

// NewRunID returns a fresh batch run identifier.
func NewRunID() string { return uuid.NewString() }

// CompanyRun derives a RunContext for a single company using the pipeline's
// configured window and decay constant.  Used by workers that process
// companies one task at a time instead of through RunBatch.
func (p *Pipeline) CompanyRun(runID, company string) *RunContext {
	return NewRunContext(runID, company, p.window(), p.alpha(), p.logger)
}

// Logger returns the company-scoped logger.
func (rc *RunContext) Logger() logging.Logger { return rc.logger }

// AddDiagnostics appends row-level parse diagnostics to the run record.
func (rc *RunContext) AddDiagnostics(diags ...domainPatent.Diagnostic) {
	rc.diags = append(rc.diags, diags...)
}

// Diagnostics returns everything accumulated so far.
func (rc *RunContext) Diagnostics() []domainPatent.Diagnostic { return rc.diags }
