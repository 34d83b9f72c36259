package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/turtacn/DisruptMetrics/internal/config"
	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	"github.com/turtacn/DisruptMetrics/internal/domain/disruption"
	domainPatent "github.com/turtacn/DisruptMetrics/internal/domain/patent"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// Observer receives stage and company timing events.  Implementations must
// be safe for concurrent use; the prometheus adapter is the production one.
type Observer interface {
	StageCompleted(company, stage string, d time.Duration)
	CompanyProcessed(company, status string, d time.Duration)
	PanelAssembled(rows int)
}

type nopObserver struct{}

func (nopObserver) StageCompleted(string, string, time.Duration)   {}
func (nopObserver) CompanyProcessed(string, string, time.Duration) {}
func (nopObserver) PanelAssembled(int)                             {}

// Pipeline runs the stage sequence for companies and batches.  The graph
// mirror is optional: a nil repository disables mirroring, and mirror
// failures are logged, never fatal.
type Pipeline struct {
	cfg      config.PipelineConfig
	store    ArtifactStore
	graph    citation.GraphRepository
	observer Observer
	logger   logging.Logger
	di1      map[string]float64
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithGraphMirror enables mirroring built networks into a graph store.
func WithGraphMirror(repo citation.GraphRepository) Option {
	return func(p *Pipeline) { p.graph = repo }
}

// WithObserver installs a metrics observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithDI1 supplies the external per-patent disruption flags.
func WithDI1(flags map[string]float64) Option {
	return func(p *Pipeline) { p.di1 = flags }
}

// New wires a pipeline over an artifact store.
func New(cfg config.PipelineConfig, store ArtifactStore, logger logging.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		store:    store,
		observer: nopObserver{},
		logger:   logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) window() citation.Window {
	w := citation.Window{MinYear: p.cfg.Window.MinYear, MaxYear: p.cfg.Window.MaxYear}
	if w.Validate() != nil {
		return citation.DefaultWindow()
	}
	return w
}

func (p *Pipeline) alpha() float64 {
	if p.cfg.Alpha > 0 {
		return p.cfg.Alpha
	}
	return disruption.DefaultAlpha
}

func (p *Pipeline) rosterPath(company string) string {
	return filepath.Join(p.cfg.InputDir, company+".csv")
}

func (p *Pipeline) timeStage(rc *RunContext, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	p.observer.StageCompleted(rc.Company, stage, d)
	if err != nil {
		rc.Logger().Error("stage failed",
			logging.String("stage", stage),
			logging.Duration("elapsed", d),
			logging.Err(err))
		return err
	}
	rc.Logger().Debug("stage completed",
		logging.String("stage", stage),
		logging.Duration("elapsed", d))
	return nil
}

// RunCompany executes the full stage sequence for one company.  The
// returned result records success or failure; errors are folded into the
// result so the batch can continue.
func (p *Pipeline) RunCompany(ctx context.Context, rc *RunContext) (metrics.CompanyResult, []metrics.FirmYearRecord) {
	start := time.Now()
	result := metrics.CompanyResult{Company: rc.Company}

	var network *citation.TripartiteNetwork
	var weighted []disruption.WeightedCitation
	var scores []metrics.PatentScore
	var firmYears []metrics.FirmYearRecord

	err := func() error {
		var err error
		if network, err = p.buildNetwork(ctx, rc); err != nil {
			return err
		}
		if weighted, err = p.processCitations(ctx, rc, network); err != nil {
			return err
		}
		if scores, err = p.computeScores(ctx, rc, network, weighted); err != nil {
			return err
		}
		firmYears, err = p.aggregate(ctx, rc, network, scores, weighted)
		return err
	}()

	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		result.ErrorCode = string(appErrors.GetCode(err))
		p.observer.CompanyProcessed(rc.Company, "failed", result.Duration)
		return result, nil
	}

	result.Succeeded = true
	result.FirmYears = len(firmYears)
	p.observer.CompanyProcessed(rc.Company, "succeeded", result.Duration)
	rc.Logger().Info("company processed",
		logging.Int("firm_years", len(firmYears)),
		logging.Int("diagnostics", len(rc.Diagnostics())),
		logging.Duration("elapsed", result.Duration))
	return result, firmYears
}

// buildNetwork loads the roster, assembles the network, and persists the
// focal set and edge table.  A built network is also mirrored into the
// graph store when one is configured.
func (p *Pipeline) buildNetwork(ctx context.Context, rc *RunContext) (*citation.TripartiteNetwork, error) {
	var network *citation.TripartiteNetwork
	err := p.timeStage(rc, "network", func() error {
		roster, err := domainPatent.LoadRoster(rc.Company, p.rosterPath(rc.Company))
		if err != nil {
			return err
		}
		rc.AddDiagnostics(roster.Diagnostics...)

		builder := citation.NewNetworkBuilder(rc.Company, rc.Window)
		for _, row := range roster.Rows {
			builder.AddFocal(row.Node, row.Backward, row.Forward)
		}
		network = builder.Build()

		rc.Logger().Info("network built",
			logging.Int("focal", network.FocalCount()),
			logging.Int("edges", network.EdgeCount()),
			logging.Int("rejected_focal", network.BuildStats().FocalRejected),
			logging.Int("dropped_edges", network.BuildStats().EdgesDropped))

		if err := p.persistNetwork(ctx, rc, network); err != nil {
			return err
		}
		p.mirrorNetwork(ctx, rc, network)
		return nil
	})
	return network, err
}

func (p *Pipeline) persistNetwork(ctx context.Context, rc *RunContext, network *citation.TripartiteNetwork) error {
	focal := make([]focalRow, 0, network.FocalCount())
	for id := range network.FocalSet() {
		ref, _ := network.DateOf(id)
		focal = append(focal, focalRow{PatentID: id, Company: rc.Company, ReferenceDate: ref})
	}
	if err := p.store.Write(ctx, CompanyArtifact(rc.Company, ArtifactFocalPatents), focal); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist focal patents")
	}

	edges := edgeRows(network.Edges(), nil)
	if err := p.store.Write(ctx, CompanyArtifact(rc.Company, ArtifactCitationEdges), edges); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist citation edges")
	}
	return nil
}

func (p *Pipeline) mirrorNetwork(ctx context.Context, rc *RunContext, network *citation.TripartiteNetwork) {
	if p.graph == nil {
		return
	}
	if err := p.graph.MirrorNetwork(ctx, network); err != nil {
		rc.Logger().Warn("graph mirror failed, continuing without it", logging.Err(err))
	}
}

// processCitations partitions the edge set, weighs the forward slice, and
// persists both directional tables plus the completed network statistics.
func (p *Pipeline) processCitations(ctx context.Context, rc *RunContext, network *citation.TripartiteNetwork) ([]disruption.WeightedCitation, error) {
	var weighted []disruption.WeightedCitation
	err := p.timeStage(rc, "citations", func() error {
		backward := disruption.ProcessBackward(network)
		forward := disruption.ProcessForward(network)
		weighted = disruption.WeighForward(forward.Edges, rc.Alpha)

		if err := p.store.Write(ctx, CompanyArtifact(rc.Company, ArtifactBackwardCites), edgeRows(backward.Edges, nil)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist backward citations")
		}
		if err := p.store.Write(ctx, CompanyArtifact(rc.Company, ArtifactForwardCites), edgeRows(forward.Edges, weighted)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist forward citations")
		}
		stats := disruption.NetworkStatsWithDensity(network, forward)
		if err := p.store.Write(ctx, CompanyArtifact(rc.Company, ArtifactNetworkStats), stats); err != nil {
			return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist network stats")
		}

		rc.Logger().Debug("citations processed",
			logging.Int("backward", len(backward.Edges)),
			logging.Int("forward", len(forward.Edges)),
			logging.Float64("weighted_cpp", disruption.WeightedCitationsPerPatent(weighted)))
		return nil
	})
	return weighted, err
}

func (p *Pipeline) computeScores(ctx context.Context, rc *RunContext, network *citation.TripartiteNetwork, weighted []disruption.WeightedCitation) ([]metrics.PatentScore, error) {
	var scores []metrics.PatentScore
	err := p.timeStage(rc, "scores", func() error {
		scores = disruption.ComputeCDtScores(network, weighted)
		if err := p.store.Write(ctx, CompanyArtifact(rc.Company, ArtifactPatentScores), scores); err != nil {
			return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist patent scores")
		}
		summary := disruption.SummarizeCDt(rc.Company, scores)
		if err := p.store.Write(ctx, CompanyArtifact(rc.Company, ArtifactCDtSummary), summary); err != nil {
			return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist score summary")
		}
		rc.Logger().Debug("scores computed", logging.Int("scored", len(scores)))
		return nil
	})
	return scores, err
}

func (p *Pipeline) aggregate(ctx context.Context, rc *RunContext, network *citation.TripartiteNetwork, scores []metrics.PatentScore, weighted []disruption.WeightedCitation) ([]metrics.FirmYearRecord, error) {
	var firmYears []metrics.FirmYearRecord
	err := p.timeStage(rc, "aggregate", func() error {
		agg := disruption.NewAggregator(network, scores, weighted, disruption.AggregatorConfig{
			ScoreWindowYears: p.cfg.ScoreWindowYears,
			DI1:              p.di1,
		})
		firmYears = agg.FirmYears()

		if err := p.store.Write(ctx, CompanyArtifact(rc.Company, ArtifactFirmYearMetrics), firmYears); err != nil {
			return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist firm-year metrics")
		}
		if err := p.store.Write(ctx, CompanyArtifact(rc.Company, ArtifactRunDiagnostics), rc.Diagnostics()); err != nil {
			return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "persist diagnostics")
		}
		return nil
	})
	return firmYears, err
}

func edgeRows(edges []citation.CitationEdge, weighted []disruption.WeightedCitation) []metrics.EdgeRow {
	weights := make(map[citation.CitationEdge]float64, len(weighted))
	for _, wc := range weighted {
		weights[wc.Edge] = wc.Weight
	}
	rows := make([]metrics.EdgeRow, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, metrics.EdgeRow{
			CitingID:  e.CitingID,
			CitedID:   e.CitedID,
			Date:      e.Date,
			Direction: e.Direction,
			Weight:    weights[e],
		})
	}
	return rows
}
