package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Artifact names, one per persisted stage output.
const (
	ArtifactFocalPatents    = "focal_patents"
	ArtifactCitationEdges   = "citation_edges"
	ArtifactNetworkStats    = "network_stats"
	ArtifactBackwardCites   = "backward_citations"
	ArtifactForwardCites    = "forward_citations"
	ArtifactPatentScores    = "patent_scores"
	ArtifactCDtSummary      = "cdt_summary"
	ArtifactFirmYearMetrics = "firm_year_metrics"
	ArtifactRunDiagnostics  = "diagnostics"
	ArtifactPanel           = "panel"
	ArtifactPanelSummary    = "panel_summary"
	ArtifactBatchSummary    = "batch_summary"
)

// ArtifactStore persists stage outputs as JSON documents keyed by path.
// Stages only ever write their own output and read upstream output, so the
// store needs no locking or versioning.
type ArtifactStore interface {
	Write(ctx context.Context, key string, v interface{}) error
	Read(ctx context.Context, key string, v interface{}) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CompanyArtifact builds the store key for one company's stage output.
func CompanyArtifact(company, name string) string {
	return fmt.Sprintf("companies/%s/%s.json", company, name)
}

// BatchArtifact builds the store key for a cross-company output.
func BatchArtifact(name string) string {
	return fmt.Sprintf("%s.json", name)
}

// focalRow is the persisted form of one V1 member.
type focalRow struct {
	PatentID      string    `json:"patent_id"`
	Company       string    `json:"company"`
	ReferenceDate time.Time `json:"reference_date"`
}
