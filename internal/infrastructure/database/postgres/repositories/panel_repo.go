// Package repositories provides the PostgreSQL-backed persistence layer for
// assembled firm-year panels and batch run summaries.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// ─────────────────────────────────────────────────────────────────────────────
// PanelRepository
// ─────────────────────────────────────────────────────────────────────────────

// PanelRepository persists firm-year records and batch run summaries.
// Every method accepts a context for cancellation and uses parameterised
// queries exclusively.
type PanelRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPanelRepository constructs a ready-to-use PanelRepository.
func NewPanelRepository(pool *pgxpool.Pool, logger logging.Logger) *PanelRepository {
	return &PanelRepository{pool: pool, logger: logger}
}

const firmYearColumns = `company, year,
	cd_mean, mcd_scale, cd_total_neg, cd_total_pos,
	n_patents, n_citations, n_neg_patents, n_pos_patents,
	destabilizing_ratio, consolidating_ratio,
	disruption_index, pure_f_score, quality_factor, impact_factor,
	mdi, accumulated_mdi,
	cumulative_citations, cumulative_patents`

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// ReplaceCompany swaps out one company's firm-year rows inside a single
// transaction. A re-run of a company therefore never leaves stale years
// behind.
func (r *PanelRepository) ReplaceCompany(ctx context.Context, runID, company string, records []metrics.FirmYearRecord) error {
	r.logger.Debug("PanelRepository.ReplaceCompany",
		logging.String("company", company),
		logging.Int("records", len(records)),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM firm_year_metrics WHERE company = $1`, company); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to clear company rows")
	}
	if err := r.copyFirmYears(ctx, tx, runID, records); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	return nil
}

// ReplacePanel replaces the entire assembled panel with the given rows.
func (r *PanelRepository) ReplacePanel(ctx context.Context, runID string, records []metrics.FirmYearRecord) error {
	r.logger.Debug("PanelRepository.ReplacePanel",
		logging.String("run_id", runID),
		logging.Int("records", len(records)),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM firm_year_metrics`); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to clear panel")
	}
	if err := r.copyFirmYears(ctx, tx, runID, records); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	return nil
}

func (r *PanelRepository) copyFirmYears(ctx context.Context, tx pgx.Tx, runID string, records []metrics.FirmYearRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []interface{}{
			rec.Company, rec.Year,
			rec.CDMean, rec.MCDScale, rec.CDTotalNeg, rec.CDTotalPos,
			rec.NPatents, rec.NCitations, rec.NNegPatents, rec.NPosPatents,
			rec.DestabilizingRatio, rec.ConsolidatingRatio,
			rec.DisruptionIndex, rec.PureFScore, rec.QualityFactor, rec.ImpactFactor,
			rec.MDI, rec.AccumulatedMDI,
			rec.CumulativeCitations, rec.CumulativePatents,
			runID, now,
		})
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"firm_year_metrics"},
		[]string{
			"company", "year",
			"cd_mean", "mcd_scale", "cd_total_neg", "cd_total_pos",
			"n_patents", "n_citations", "n_neg_patents", "n_pos_patents",
			"destabilizing_ratio", "consolidating_ratio",
			"disruption_index", "pure_f_score", "quality_factor", "impact_factor",
			"mdi", "accumulated_mdi",
			"cumulative_citations", "cumulative_patents",
			"run_id", "updated_at",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		r.logger.Error("PanelRepository.copyFirmYears", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to copy firm-year rows")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// PanelFilter narrows a panel query. Zero values mean "no constraint";
// a zero Limit returns all matching rows.
type PanelFilter struct {
	Company  string
	FromYear int
	ToYear   int
	Limit    int
	Offset   int
}

// buildPanelQuery assembles the filtered SELECT and its ordered argument
// list. Kept free of pool access so the SQL assembly is testable on its own.
func buildPanelQuery(f PanelFilter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("SELECT " + firmYearColumns + " FROM firm_year_metrics")

	var (
		conds []string
		args  []interface{}
	)
	if f.Company != "" {
		args = append(args, f.Company)
		conds = append(conds, fmt.Sprintf("company = $%d", len(args)))
	}
	if f.FromYear != 0 {
		args = append(args, f.FromYear)
		conds = append(conds, fmt.Sprintf("year >= $%d", len(args)))
	}
	if f.ToYear != 0 {
		args = append(args, f.ToYear)
		conds = append(conds, fmt.Sprintf("year <= $%d", len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	sb.WriteString(" ORDER BY company, year")

	if f.Limit > 0 {
		args = append(args, f.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	return sb.String(), args
}

// QueryPanel returns the firm-year rows matching the filter, ordered by
// company then year.
func (r *PanelRepository) QueryPanel(ctx context.Context, f PanelFilter) ([]metrics.FirmYearRecord, error) {
	query, args := buildPanelQuery(f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("PanelRepository.QueryPanel", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to query panel")
	}
	defer rows.Close()

	var records []metrics.FirmYearRecord
	for rows.Next() {
		rec, err := scanFirmYear(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to iterate panel rows")
	}
	return records, nil
}

// CompanyPanel returns every firm-year row for one company, ordered by year.
// It returns CompanyNotFound when the company has no rows at all.
func (r *PanelRepository) CompanyPanel(ctx context.Context, company string) ([]metrics.FirmYearRecord, error) {
	records, err := r.QueryPanel(ctx, PanelFilter{Company: company})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, appErrors.Newf(appErrors.ErrCodeCompanyNotFound, "no panel rows for company %q", company)
	}
	return records, nil
}

// Companies returns the distinct company names present in the panel.
func (r *PanelRepository) Companies(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT company FROM firm_year_metrics ORDER BY company`)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list companies")
	}
	defer rows.Close()

	var companies []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan company name")
		}
		companies = append(companies, name)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to iterate companies")
	}
	return companies, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFirmYear(row scanner) (metrics.FirmYearRecord, error) {
	var rec metrics.FirmYearRecord
	err := row.Scan(
		&rec.Company, &rec.Year,
		&rec.CDMean, &rec.MCDScale, &rec.CDTotalNeg, &rec.CDTotalPos,
		&rec.NPatents, &rec.NCitations, &rec.NNegPatents, &rec.NPosPatents,
		&rec.DestabilizingRatio, &rec.ConsolidatingRatio,
		&rec.DisruptionIndex, &rec.PureFScore, &rec.QualityFactor, &rec.ImpactFactor,
		&rec.MDI, &rec.AccumulatedMDI,
		&rec.CumulativeCitations, &rec.CumulativePatents,
	)
	if err != nil {
		return metrics.FirmYearRecord{}, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan firm-year row")
	}
	return rec, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Batch runs
// ─────────────────────────────────────────────────────────────────────────────

// SaveBatchRun records the outcome of one batch execution.
func (r *PanelRepository) SaveBatchRun(ctx context.Context, s metrics.BatchSummary) error {
	failedJSON, err := json.Marshal(s.Failed)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to encode failed companies")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO batch_runs (run_id, started_at, duration_ms, succeeded, failed, panel_rows)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (run_id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			duration_ms = EXCLUDED.duration_ms,
			succeeded = EXCLUDED.succeeded,
			failed = EXCLUDED.failed,
			panel_rows = EXCLUDED.panel_rows`,
		s.RunID, s.StartedAt, s.Duration.Milliseconds(), s.Succeeded, failedJSON, s.PanelRows,
	)
	if err != nil {
		r.logger.Error("PanelRepository.SaveBatchRun", logging.Err(err), logging.String("run_id", s.RunID))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to save batch run")
	}
	return nil
}

// LatestBatchRun returns the most recently started batch summary, or
// NotFound when no batch has run yet.
func (r *PanelRepository) LatestBatchRun(ctx context.Context) (*metrics.BatchSummary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT run_id, started_at, duration_ms, succeeded, failed, panel_rows
		FROM batch_runs ORDER BY started_at DESC LIMIT 1`)

	var (
		s          metrics.BatchSummary
		durationMS int64
		failedJSON []byte
	)
	err := row.Scan(&s.RunID, &s.StartedAt, &durationMS, &s.Succeeded, &failedJSON, &s.PanelRows)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, appErrors.New(appErrors.ErrCodeNotFound, "no batch runs recorded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to load latest batch run")
	}
	s.Duration = time.Duration(durationMS) * time.Millisecond

	if len(failedJSON) > 0 {
		if err := json.Unmarshal(failedJSON, &s.Failed); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to decode failed companies")
		}
	}
	return &s, nil
}
