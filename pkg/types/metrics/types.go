// Package metrics defines the cross-layer data transfer types of the
// DisruptMetrics pipeline: the vocabulary shared between the domain core,
// the persistence adapters, and the HTTP/CLI interfaces.
package metrics

import (
	"fmt"
	"time"
)

// PatentID is a string alias for a patent identifier.
type PatentID string

// Direction tags a citation edge as backward or forward relative to the
// focal patent.
type Direction string

const (
	// DirectionBackward marks a citation from a focal patent to an earlier
	// (predecessor) patent.
	DirectionBackward Direction = "backward"
	// DirectionForward marks a citation from a later (successor) patent to a
	// focal patent.
	DirectionForward Direction = "forward"
)

// IsValid checks if the Direction is one of the two supported tags.
func (d Direction) IsValid() bool {
	return d == DirectionBackward || d == DirectionForward
}

// MatchQuality buckets a per-year citation match rate.
type MatchQuality string

const (
	QualityHigh   MatchQuality = "high"
	QualityMedium MatchQuality = "medium"
	QualityLow    MatchQuality = "low"
	QualityPoor   MatchQuality = "poor"
)

// QualityWeight returns the fixed weight assigned to a quality bucket when
// computing the composite disruption index.
func QualityWeight(q MatchQuality) float64 {
	switch q {
	case QualityHigh:
		return 1.0
	case QualityMedium:
		return 0.7
	case QualityLow:
		return 0.4
	case QualityPoor:
		return 0.1
	default:
		return 0
	}
}

// ClassifyMatchRate maps a match rate in [0, 100] to its quality bucket.
// Cut points: (75, 100] high, (50, 75] medium, (25, 50] low, [0, 25] poor.
func ClassifyMatchRate(rate float64) MatchQuality {
	switch {
	case rate > 75:
		return QualityHigh
	case rate > 50:
		return QualityMedium
	case rate > 25:
		return QualityLow
	default:
		return QualityPoor
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Stage output DTOs
// ─────────────────────────────────────────────────────────────────────────────

// EdgeRow is the serialized form of one citation edge.
type EdgeRow struct {
	CitingID  string    `json:"citing_id"`
	CitedID   string    `json:"cited_id"`
	Date      time.Time `json:"date"`
	Direction Direction `json:"direction"`
	// Weight is zero for backward edges; forward edges carry the temporal
	// decay weight computed against the company's forward-citation cohort.
	Weight float64 `json:"weight,omitempty"`
}

// NetworkStats summarizes one company's constructed citation network.
type NetworkStats struct {
	Company            string  `json:"company"`
	FocalPatents       int     `json:"n_focal_patents"`
	CitationEdges      int     `json:"n_citation_edges"`
	BackwardCitations  int     `json:"n_backward_citations"`
	ForwardCitations   int     `json:"n_forward_citations"`
	PredecessorPatents int     `json:"n_predecessor_patents"`
	CitingPatents      int     `json:"n_citing_patents"`
	CitationsPerPatent float64 `json:"citations_per_patent"`
	NetworkDensity     float64 `json:"network_density"`
}

// PatentScore carries one focal patent's disruption score.
type PatentScore struct {
	PatentID  string  `json:"patent_id"`
	CDt       float64 `json:"cdt"`
	NForward  int     `json:"n_forward_citations"`
	NBackward int     `json:"n_backward_citations"`
}

// CDtSummary is a company-level digest of the per-patent score distribution.
type CDtSummary struct {
	Company        string  `json:"company"`
	NPatentsWithCD int     `json:"n_patents_with_cdt"`
	Mean           float64 `json:"cdt_mean"`
	Median         float64 `json:"cdt_median"`
	Std            float64 `json:"cdt_std"`
	Min            float64 `json:"cdt_min"`
	Max            float64 `json:"cdt_max"`
}

// FirmYearRecord is the terminal output unit of the aggregation stage:
// one row per observed (company, year) pair with nonzero citation activity.
type FirmYearRecord struct {
	Company string `json:"company"`
	Year    int    `json:"year"`

	// CDt family.
	CDMean             float64 `json:"cdmean"`
	MCDScale           float64 `json:"mcdscale"`
	CDTotalNeg         int     `json:"cdtotal_neg"`
	CDTotalPos         int     `json:"cdtotal_pos"`
	NPatents           int     `json:"n_patents"`
	NCitations         int     `json:"n_citations"`
	NNegPatents        int     `json:"n_neg_patents"`
	NPosPatents        int     `json:"n_pos_patents"`
	DestabilizingRatio float64 `json:"destabilizing_ratio"`
	ConsolidatingRatio float64 `json:"consolidating_ratio"`

	// Count family.
	DisruptionIndex float64 `json:"disruption_index"`
	PureFScore      float64 `json:"pure_f_score"`
	QualityFactor   float64 `json:"quality_factor"`
	ImpactFactor    float64 `json:"impact_factor"`
	MDI             float64 `json:"mdi"`
	AccumulatedMDI  float64 `json:"accumulated_mdi"`

	// Running sums, populated by the panel assembler.
	CumulativeCitations int `json:"cumulative_citations"`
	CumulativePatents   int `json:"cumulative_patents"`

	// Per-patent matching digest for the year.
	MatchSummary MatchSummary `json:"match_summary"`
}

// MatchSummary digests how well a year's forward citations could be matched
// against the citers' recorded prior art.  Rates are fractions in [0, 1] and
// only patents that received at least one citation that year are counted.
type MatchSummary struct {
	TotalPatents        int     `json:"total_patents"`
	TotalForward        int     `json:"total_forward_citations"`
	MatchedCitations    int     `json:"matched_citations"`
	AverageMatchRate    float64 `json:"average_match_rate"`
	PerfectMatchPatents int     `json:"patents_with_perfect_match"`
	NoMatchPatents      int     `json:"patents_with_no_match"`
}

// Key returns the (company, year) identity of the record.
func (r FirmYearRecord) Key() string {
	return fmt.Sprintf("%s:%d", r.Company, r.Year)
}

// CompanyResult reports the outcome of one company's pipeline run.
type CompanyResult struct {
	Company   string        `json:"company"`
	Succeeded bool          `json:"succeeded"`
	Error     string        `json:"error,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
	Duration  time.Duration `json:"duration"`
	FirmYears int           `json:"firm_years"`
}

// BatchSummary is the batch-level observable result: every processed company
// appears exactly once, failures are never silently dropped.
type BatchSummary struct {
	RunID     string          `json:"run_id"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Succeeded []string        `json:"succeeded"`
	Failed    []CompanyResult `json:"failed"`
	PanelRows int             `json:"panel_rows"`
}

// FailedCompanies returns the names of all failed companies.
func (s BatchSummary) FailedCompanies() []string {
	names := make([]string, 0, len(s.Failed))
	for _, f := range s.Failed {
		names = append(names, f.Company)
	}
	return names
}
