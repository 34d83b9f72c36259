package citation

import "context"

// GraphRepository mirrors a constructed network into an external graph
// store.  Mirroring is an orthogonal caching concern: pipeline results never
// depend on it, and a disabled or failing mirror must not abort a run.
type GraphRepository interface {
	// EnsureConstraints creates the uniqueness constraints and indexes the
	// mirror relies on.  Safe to call repeatedly.
	EnsureConstraints(ctx context.Context) error

	// MirrorNetwork upserts one company's vertices and citation edges.
	// Re-mirroring the same network is idempotent.
	MirrorNetwork(ctx context.Context, network *TripartiteNetwork) error

	// CitationCounts reads back the stored forward/backward counts for a
	// patent vertex.
	CitationCounts(ctx context.Context, patentID string) (*CitationStats, error)

	// DeleteCompany removes a company's mirrored subgraph.
	DeleteCompany(ctx context.Context, company string) error
}
