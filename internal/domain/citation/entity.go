// Package citation holds the citation-network domain model: patent nodes,
// directed citation edges, the temporal validation window, the deduplicating
// edge store, and the tripartite network built from a company's roster.
package citation

import (
	"time"

	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// PatentNode is a focal patent as it enters the network: identifier, the
// reference date used for temporal validation, and the owning company.
// Nodes are created when read from a company's raw roster and are immutable
// thereafter.
type PatentNode struct {
	ID              string     `json:"id"`
	Company         string     `json:"company"`
	GrantDate       *time.Time `json:"grant_date,omitempty"`
	ApplicationDate *time.Time `json:"application_date,omitempty"`
}

// ReferenceDate returns the date used for temporal validation and for
// defaulting missing citation dates: the grant date when present, otherwise
// the application date.  The second return is false when neither is set.
func (p PatentNode) ReferenceDate() (time.Time, bool) {
	if p.GrantDate != nil {
		return *p.GrantDate, true
	}
	if p.ApplicationDate != nil {
		return *p.ApplicationDate, true
	}
	return time.Time{}, false
}

// CitationEdge is an ordered pair (citing, cited) plus the citation date and
// a direction tag relative to the focal patent.
type CitationEdge struct {
	CitingID  string            `json:"citing_id"`
	CitedID   string            `json:"cited_id"`
	Date      time.Time         `json:"date"`
	Direction metrics.Direction `json:"direction"`
}

// key is the full-tuple deduplication identity of an edge.  Multiple
// identical citations collapse to one.
type edgeKey struct {
	citing    string
	cited     string
	date      int64
	direction metrics.Direction
}

func (e CitationEdge) key() edgeKey {
	return edgeKey{
		citing:    e.CitingID,
		cited:     e.CitedID,
		date:      e.Date.Unix(),
		direction: e.Direction,
	}
}

// CitationStats summarizes the in/out degree of a single patent.
type CitationStats struct {
	ForwardCount  int64 `json:"forward_count"`
	BackwardCount int64 `json:"backward_count"`
	TotalCount    int64 `json:"total_count"`
}
