package pipeline

import (
	"context"
	"time"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// BuildNetworkOnly re-runs just the network stage for one company and
// returns its statistics.  Later stages are untouched.
func (p *Pipeline) BuildNetworkOnly(ctx context.Context, company string) (metrics.NetworkStats, error) {
	rc := NewRunContext(NewRunID(), company, p.window(), p.alpha(), p.logger)
	network, err := p.buildNetwork(ctx, rc)
	if err != nil {
		return metrics.NetworkStats{}, err
	}
	return network.Stats(), nil
}

// ComputeScoresFromArtifacts re-runs the weight and score stages from the
// persisted network tables, without re-reading the roster.  This is the
// stage-checkpoint path: the network artifact is the input of record.
func (p *Pipeline) ComputeScoresFromArtifacts(ctx context.Context, company string) ([]metrics.PatentScore, error) {
	rc := NewRunContext(NewRunID(), company, p.window(), p.alpha(), p.logger)

	network, err := p.loadNetwork(ctx, company)
	if err != nil {
		return nil, err
	}
	weighted, err := p.processCitations(ctx, rc, network)
	if err != nil {
		return nil, err
	}
	return p.computeScores(ctx, rc, network, weighted)
}

// loadNetwork rebuilds a company's network from its persisted artifacts.
func (p *Pipeline) loadNetwork(ctx context.Context, company string) (*citation.TripartiteNetwork, error) {
	focalKey := CompanyArtifact(company, ArtifactFocalPatents)
	ok, err := p.store.Exists(ctx, focalKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeArtifactReadFailed, "check focal artifact")
	}
	if !ok {
		return nil, appErrors.Newf(appErrors.ErrCodeNetworkNotBuilt, "no network artifacts for company %q, run the network stage first", company)
	}

	var focal []focalRow
	if err := p.store.Read(ctx, focalKey, &focal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeArtifactReadFailed, "read focal patents")
	}
	var edges []metrics.EdgeRow
	if err := p.store.Read(ctx, CompanyArtifact(company, ArtifactCitationEdges), &edges); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeArtifactReadFailed, "read citation edges")
	}

	dates := make(map[string]time.Time, len(focal))
	for _, f := range focal {
		dates[f.PatentID] = f.ReferenceDate
	}
	domainEdges := make([]citation.CitationEdge, 0, len(edges))
	for _, e := range edges {
		domainEdges = append(domainEdges, citation.CitationEdge{
			CitingID:  e.CitingID,
			CitedID:   e.CitedID,
			Date:      e.Date,
			Direction: e.Direction,
		})
	}
	return citation.RebuildNetwork(company, p.window(), dates, domainEdges), nil
}
