// Package repositories implements the citation-graph mirror on neo4j.
package repositories

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	driver "github.com/turtacn/DisruptMetrics/internal/infrastructure/database/neo4j"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// mirrorBatchSize bounds the UNWIND payload of a single write transaction.
const mirrorBatchSize = 500

type graphRepo struct {
	exec driver.Executor
	log  logging.Logger
}

// NewGraphRepository returns the neo4j-backed citation.GraphRepository.
func NewGraphRepository(exec driver.Executor, log logging.Logger) citation.GraphRepository {
	return &graphRepo{exec: exec, log: log}
}

// EnsureConstraints creates the uniqueness constraint and company index the
// mirror queries rely on. Idempotent.
func (r *graphRepo) EnsureConstraints(ctx context.Context) error {
	statements := []string{
		`CREATE CONSTRAINT patent_id_unique IF NOT EXISTS FOR (p:Patent) REQUIRE p.id IS UNIQUE`,
		`CREATE INDEX patent_company IF NOT EXISTS FOR (p:Patent) ON (p.company)`,
	}
	for _, stmt := range statements {
		stmt := stmt
		_, err := r.exec.ExecuteWrite(ctx, func(tx driver.Transaction) (interface{}, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		})
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrCodeGraphWriteFailed, "failed to ensure graph constraints")
		}
	}
	return nil
}

type nodeRow struct {
	id      string
	company string
	role    string
	date    string // "" when the node has no known date
}

// MirrorNetwork upserts one company's vertices and citation edges in
// batched write transactions. Re-mirroring the same network is idempotent:
// nodes merge on id, edges merge on their full identity.
func (r *graphRepo) MirrorNetwork(ctx context.Context, network *citation.TripartiteNetwork) error {
	company := network.Company()

	nodes := collectNodes(network)
	for _, chunk := range chunkNodes(nodes, mirrorBatchSize) {
		if err := r.mergeNodes(ctx, chunk); err != nil {
			return err
		}
	}

	edges := network.Edges()
	for start := 0; start < len(edges); start += mirrorBatchSize {
		end := start + mirrorBatchSize
		if end > len(edges) {
			end = len(edges)
		}
		if err := r.mergeEdges(ctx, company, edges[start:end]); err != nil {
			return err
		}
	}

	r.log.Debug("mirrored citation network",
		logging.String("company", company),
		logging.Int("nodes", len(nodes)),
		logging.Int("edges", len(edges)),
	)
	return nil
}

func collectNodes(network *citation.TripartiteNetwork) []nodeRow {
	company := network.Company()
	seen := make(map[string]struct{})
	var nodes []nodeRow

	for id := range network.FocalSet() {
		row := nodeRow{id: id, company: company, role: "focal"}
		if d, ok := network.DateOf(id); ok {
			row.date = d.Format("2006-01-02")
		}
		nodes = append(nodes, row)
		seen[id] = struct{}{}
	}

	for _, e := range network.Edges() {
		var id, role string
		switch e.Direction {
		case metrics.DirectionBackward:
			id, role = e.CitedID, "predecessor"
		case metrics.DirectionForward:
			id, role = e.CitingID, "successor"
		default:
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		row := nodeRow{id: id, company: company, role: role}
		if d, ok := network.DateOf(id); ok {
			row.date = d.Format("2006-01-02")
		}
		nodes = append(nodes, row)
	}
	return nodes
}

func chunkNodes(nodes []nodeRow, size int) [][]nodeRow {
	var chunks [][]nodeRow
	for start := 0; start < len(nodes); start += size {
		end := start + size
		if end > len(nodes) {
			end = len(nodes)
		}
		chunks = append(chunks, nodes[start:end])
	}
	return chunks
}

func (r *graphRepo) mergeNodes(ctx context.Context, nodes []nodeRow) error {
	if len(nodes) == 0 {
		return nil
	}

	// Peripheral roles are set only on create so a patent that is focal for
	// one company is never demoted by appearing in another company's cohort.
	query := `
		UNWIND $batch AS row
		MERGE (p:Patent {id: row.id})
		ON CREATE SET p.role = row.role, p.company = row.company, p.created_at = datetime()
		SET p.date = CASE row.date WHEN '' THEN p.date ELSE date(row.date) END
		WITH p, row WHERE row.role = 'focal'
		SET p.role = 'focal', p.company = row.company
	`
	batch := make([]map[string]interface{}, 0, len(nodes))
	for _, n := range nodes {
		batch = append(batch, map[string]interface{}{
			"id":      n.id,
			"company": n.company,
			"role":    n.role,
			"date":    n.date,
		})
	}

	_, err := r.exec.ExecuteWrite(ctx, func(tx driver.Transaction) (interface{}, error) {
		_, err := tx.Run(ctx, query, map[string]interface{}{"batch": batch})
		return nil, err
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeGraphWriteFailed, "failed to mirror patent nodes")
	}
	return nil
}

func (r *graphRepo) mergeEdges(ctx context.Context, company string, edges []citation.CitationEdge) error {
	if len(edges) == 0 {
		return nil
	}

	query := `
		UNWIND $batch AS row
		MATCH (a:Patent {id: row.citing}), (b:Patent {id: row.cited})
		MERGE (a)-[r:CITES {direction: row.direction, date: date(row.date)}]->(b)
		ON CREATE SET r.company = row.company, r.created_at = datetime()
	`
	batch := make([]map[string]interface{}, 0, len(edges))
	for _, e := range edges {
		batch = append(batch, map[string]interface{}{
			"citing":    e.CitingID,
			"cited":     e.CitedID,
			"direction": string(e.Direction),
			"date":      e.Date.Format("2006-01-02"),
			"company":   company,
		})
	}

	_, err := r.exec.ExecuteWrite(ctx, func(tx driver.Transaction) (interface{}, error) {
		_, err := tx.Run(ctx, query, map[string]interface{}{"batch": batch})
		return nil, err
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeGraphWriteFailed, "failed to mirror citation edges")
	}
	return nil
}

// CitationCounts reads back the stored in/out degree of a patent vertex.
func (r *graphRepo) CitationCounts(ctx context.Context, patentID string) (*citation.CitationStats, error) {
	query := `
		MATCH (p:Patent {id: $id})
		RETURN size([(p)<-[:CITES]-() | 1]) AS forward,
		       size([(p)-[:CITES]->() | 1]) AS backward
	`
	out, err := r.exec.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, map[string]interface{}{"id": patentID})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, appErrors.Newf(appErrors.ErrCodeNotFound, "patent %q not in graph", patentID)
		}
		return statsFromRecord(result.Record())
	})
	if err != nil {
		return nil, err
	}
	stats, ok := out.(*citation.CitationStats)
	if !ok {
		return nil, appErrors.New(appErrors.ErrCodeInternal, "unexpected citation counts result shape")
	}
	return stats, nil
}

func statsFromRecord(rec *neo4j.Record) (*citation.CitationStats, error) {
	if len(rec.Values) < 2 {
		return nil, appErrors.New(appErrors.ErrCodeInternal, "citation counts record too short")
	}
	forward, fok := rec.Values[0].(int64)
	backward, bok := rec.Values[1].(int64)
	if !fok || !bok {
		return nil, appErrors.New(appErrors.ErrCodeInternal, "citation counts are not integers")
	}
	return &citation.CitationStats{
		ForwardCount:  forward,
		BackwardCount: backward,
		TotalCount:    forward + backward,
	}, nil
}

// DeleteCompany removes a company's mirrored subgraph.
func (r *graphRepo) DeleteCompany(ctx context.Context, company string) error {
	start := time.Now()
	query := `MATCH (p:Patent {company: $company}) DETACH DELETE p`

	_, err := r.exec.ExecuteWrite(ctx, func(tx driver.Transaction) (interface{}, error) {
		_, err := tx.Run(ctx, query, map[string]interface{}{"company": company})
		return nil, err
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeGraphWriteFailed, "failed to delete company subgraph")
	}

	r.log.Info("deleted mirrored subgraph",
		logging.String("company", company),
		logging.Duration("took", time.Since(start)),
	)
	return nil
}
