package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/DisruptMetrics/internal/domain/disruption"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// RunBatch processes every company with a bounded worker pool, assembles the
// cross-company panel, and persists both the panel and the batch summary.
// A failed company never aborts the batch: it is recorded in the summary's
// failure list and the remaining companies proceed.
func (p *Pipeline) RunBatch(ctx context.Context, companies []string) (metrics.BatchSummary, error) {
	runID := NewRunID()
	start := time.Now()
	logger := p.logger.With(logging.String("run_id", runID))
	logger.Info("batch started",
		logging.Int("companies", len(companies)),
		logging.Int("workers", p.workers()))

	type companyOutput struct {
		result    metrics.CompanyResult
		firmYears []metrics.FirmYearRecord
	}

	jobs := make(chan string)
	outputs := make(chan companyOutput)

	var wg sync.WaitGroup
	for i := 0; i < p.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for company := range jobs {
				rc := NewRunContext(runID, company, p.window(), p.alpha(), p.logger)
				result, firmYears := p.RunCompany(ctx, rc)
				outputs <- companyOutput{result: result, firmYears: firmYears}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, company := range companies {
			select {
			case jobs <- company:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outputs)
	}()

	summary := metrics.BatchSummary{RunID: runID, StartedAt: start.UTC()}
	perCompany := make(map[string][]metrics.FirmYearRecord)
	for out := range outputs {
		if out.result.Succeeded {
			summary.Succeeded = append(summary.Succeeded, out.result.Company)
			perCompany[out.result.Company] = out.firmYears
		} else {
			summary.Failed = append(summary.Failed, out.result)
		}
	}
	sort.Strings(summary.Succeeded)
	sort.Slice(summary.Failed, func(i, j int) bool {
		return summary.Failed[i].Company < summary.Failed[j].Company
	})

	panel := disruption.AssemblePanel(orderedValues(perCompany)...)
	summary.PanelRows = len(panel)
	summary.Duration = time.Since(start)
	p.observer.PanelAssembled(len(panel))

	if err := p.store.Write(ctx, BatchArtifact(ArtifactPanel), panel); err != nil {
		return summary, appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist panel")
	}
	if err := p.store.Write(ctx, BatchArtifact(ArtifactPanelSummary), disruption.SummarizePanel(panel)); err != nil {
		return summary, appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist panel summary")
	}
	if err := p.store.Write(ctx, BatchArtifact(ArtifactBatchSummary), summary); err != nil {
		return summary, appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist batch summary")
	}

	logger.Info("batch finished",
		logging.Int("succeeded", len(summary.Succeeded)),
		logging.Int("failed", len(summary.Failed)),
		logging.Int("panel_rows", summary.PanelRows),
		logging.Duration("elapsed", summary.Duration))
	return summary, nil
}

func (p *Pipeline) workers() int {
	if p.cfg.Workers > 0 {
		return p.cfg.Workers
	}
	return 1
}

func orderedValues(perCompany map[string][]metrics.FirmYearRecord) [][]metrics.FirmYearRecord {
	names := make([]string, 0, len(perCompany))
	for name := range perCompany {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([][]metrics.FirmYearRecord, 0, len(names))
	for _, name := range names {
		out = append(out, perCompany[name])
	}
	return out
}

// AssemblePanelFromArtifacts re-runs only the panel stage: it reads every
// company's persisted firm-year table and rebuilds the sorted panel.  Used
// when firm-year outputs already exist and only the merge must be redone.
func (p *Pipeline) AssemblePanelFromArtifacts(ctx context.Context, companies []string) ([]metrics.FirmYearRecord, error) {
	sorted := append([]string(nil), companies...)
	sort.Strings(sorted)

	var perCompany [][]metrics.FirmYearRecord
	for _, company := range sorted {
		key := CompanyArtifact(company, ArtifactFirmYearMetrics)
		ok, err := p.store.Exists(ctx, key)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeArtifactReadFailed, "check firm-year artifact")
		}
		if !ok {
			return nil, appErrors.Newf(appErrors.ErrCodeArtifactNotFound, "no firm-year metrics for company %q", company)
		}
		var firmYears []metrics.FirmYearRecord
		if err := p.store.Read(ctx, key, &firmYears); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeArtifactReadFailed, "read firm-year metrics")
		}
		perCompany = append(perCompany, firmYears)
	}

	panel := disruption.AssemblePanel(perCompany...)
	if len(panel) == 0 {
		return nil, appErrors.New(appErrors.ErrCodePanelEmpty, "assembled panel has no rows")
	}
	if err := p.store.Write(ctx, BatchArtifact(ArtifactPanel), panel); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist panel")
	}
	if err := p.store.Write(ctx, BatchArtifact(ArtifactPanelSummary), disruption.SummarizePanel(panel)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist panel summary")
	}
	return panel, nil
}

// LoadDI1 reads the optional external disruption-flag file: a JSON object
// mapping patent id to flag value.  A missing file simply yields no flags.
func LoadDI1(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeMissingInput, "read DI1 flag file")
	}
	flags := make(map[string]float64)
	if err := json.Unmarshal(data, &flags); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeMalformedRow, "decode DI1 flag file")
	}
	return flags, nil
}
