package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	driver "github.com/turtacn/DisruptMetrics/internal/infrastructure/database/neo4j"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type runCall struct {
	cypher string
	params map[string]any
}

// fakeResult replays canned records through the driver.Result surface.
type fakeResult struct {
	records []*neo4j.Record
	idx     int
	err     error
}

func (r *fakeResult) Next(_ context.Context) bool {
	if r.idx < len(r.records) {
		r.idx++
		return true
	}
	return false
}

func (r *fakeResult) Record() *neo4j.Record { return r.records[r.idx-1] }
func (r *fakeResult) Err() error            { return r.err }
func (r *fakeResult) Consume(_ context.Context) (neo4j.ResultSummary, error) {
	return nil, nil
}

// fakeTx records every Run call and hands back queued results.
type fakeTx struct {
	calls   []runCall
	results []driver.Result
	runErr  error
}

func (t *fakeTx) Run(_ context.Context, cypher string, params map[string]any) (driver.Result, error) {
	t.calls = append(t.calls, runCall{cypher: cypher, params: params})
	if t.runErr != nil {
		return nil, t.runErr
	}
	if len(t.results) > 0 {
		res := t.results[0]
		t.results = t.results[1:]
		return res, nil
	}
	return &fakeResult{}, nil
}

// fakeExec executes transaction work against a shared fakeTx.
type fakeExec struct {
	tx       *fakeTx
	writeErr error
	readErr  error
}

func (e *fakeExec) ExecuteWrite(_ context.Context, work driver.TransactionWork) (interface{}, error) {
	if e.writeErr != nil {
		return nil, e.writeErr
	}
	return work(e.tx)
}

func (e *fakeExec) ExecuteRead(_ context.Context, work driver.TransactionWork) (interface{}, error) {
	if e.readErr != nil {
		return nil, e.readErr
	}
	return work(e.tx)
}

func buildNetwork(t *testing.T) *citation.TripartiteNetwork {
	t.Helper()

	grant := time.Date(2010, 6, 15, 0, 0, 0, 0, time.UTC)
	b := citation.NewNetworkBuilder("acme", citation.Window{MinYear: 1976, MaxYear: 2025})
	ok := b.AddFocal(
		citation.PatentNode{ID: "A", Company: "acme", GrantDate: &grant},
		[]citation.Ref{{ID: "B", Date: grant.AddDate(-2, 0, 0)}},
		[]citation.Ref{{ID: "C", Date: grant.AddDate(2, 0, 0)}},
	)
	require.True(t, ok)
	return b.Build()
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestEnsureConstraintsRunsAllStatements(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	repo := NewGraphRepository(&fakeExec{tx: tx}, logging.NewNopLogger())

	require.NoError(t, repo.EnsureConstraints(context.Background()))
	require.Len(t, tx.calls, 2)
	assert.Contains(t, tx.calls[0].cypher, "CREATE CONSTRAINT")
	assert.Contains(t, tx.calls[1].cypher, "CREATE INDEX")
}

func TestMirrorNetworkUpsertsNodesAndEdges(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	repo := NewGraphRepository(&fakeExec{tx: tx}, logging.NewNopLogger())

	require.NoError(t, repo.MirrorNetwork(context.Background(), buildNetwork(t)))

	// One node batch, one edge batch.
	require.Len(t, tx.calls, 2)

	nodeBatch := tx.calls[0].params["batch"].([]map[string]interface{})
	roles := make(map[string]string)
	for _, row := range nodeBatch {
		roles[row["id"].(string)] = row["role"].(string)
	}
	assert.Equal(t, map[string]string{
		"A": "focal",
		"B": "predecessor",
		"C": "successor",
	}, roles)

	edgeBatch := tx.calls[1].params["batch"].([]map[string]interface{})
	require.Len(t, edgeBatch, 2)
	directions := make(map[string]bool)
	for _, row := range edgeBatch {
		directions[row["direction"].(string)] = true
		assert.Equal(t, "acme", row["company"])
	}
	assert.True(t, directions["backward"])
	assert.True(t, directions["forward"])
}

func TestMirrorNetworkWriteFailure(t *testing.T) {
	t.Parallel()

	repo := NewGraphRepository(&fakeExec{writeErr: errors.New("connection reset")}, logging.NewNopLogger())

	err := repo.MirrorNetwork(context.Background(), buildNetwork(t))
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeGraphWriteFailed))
}

func TestCitationCounts(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{results: []driver.Result{
		&fakeResult{records: []*neo4j.Record{
			{Values: []any{int64(3), int64(2)}},
		}},
	}}
	repo := NewGraphRepository(&fakeExec{tx: tx}, logging.NewNopLogger())

	stats, err := repo.CitationCounts(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.ForwardCount)
	assert.Equal(t, int64(2), stats.BackwardCount)
	assert.Equal(t, int64(5), stats.TotalCount)

	require.Len(t, tx.calls, 1)
	assert.Equal(t, "A", tx.calls[0].params["id"])
}

func TestCitationCountsNotFound(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{results: []driver.Result{&fakeResult{}}}
	repo := NewGraphRepository(&fakeExec{tx: tx}, logging.NewNopLogger())

	_, err := repo.CitationCounts(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeNotFound))
}

func TestDeleteCompany(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	repo := NewGraphRepository(&fakeExec{tx: tx}, logging.NewNopLogger())

	require.NoError(t, repo.DeleteCompany(context.Background(), "acme"))
	require.Len(t, tx.calls, 1)
	assert.Contains(t, tx.calls[0].cypher, "DETACH DELETE")
	assert.Equal(t, "acme", tx.calls[0].params["company"])
}
