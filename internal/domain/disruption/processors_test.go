package disruption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
)

func TestProcessBackwardAndForward(t *testing.T) {
	t.Parallel()

	n := buildNetwork(t, "acme", func(b *citation.NetworkBuilder) {
		b.AddFocal(
			citation.PatentNode{ID: "F1", GrantDate: ptr(date(2010, 1, 1))},
			[]citation.Ref{{ID: "B1", Date: date(2000, 1, 1)}, {ID: "B2", Date: date(2001, 1, 1)}},
			[]citation.Ref{{ID: "C1", Date: date(2015, 1, 1)}},
		)
		b.AddFocal(
			citation.PatentNode{ID: "F2", GrantDate: ptr(date(2012, 1, 1))},
			[]citation.Ref{{ID: "B1", Date: date(2002, 1, 1)}},
			[]citation.Ref{{ID: "C1", Date: date(2016, 1, 1)}, {ID: "C2", Date: date(2017, 1, 1)}},
		)
	})

	backward := ProcessBackward(n)
	require.Len(t, backward.Edges, 3)
	assert.Len(t, backward.Endpoints, 2, "B1 is shared, endpoints are distinct")
	assert.InDelta(t, 1.5, backward.CitationsPerPatent, 1e-12)
	// 3 / (2 focal * 2 predecessors)
	assert.InDelta(t, 0.75, backward.NetworkDensity, 1e-12)

	forward := ProcessForward(n)
	require.Len(t, forward.Edges, 3)
	assert.Len(t, forward.Endpoints, 2)
	assert.InDelta(t, 1.5, forward.CitationsPerPatent, 1e-12)
	assert.InDelta(t, 0.75, forward.NetworkDensity, 1e-12)
}

func TestProcessorsZeroGuards(t *testing.T) {
	t.Parallel()

	empty := buildNetwork(t, "acme", func(b *citation.NetworkBuilder) {})

	backward := ProcessBackward(empty)
	assert.Zero(t, backward.CitationsPerPatent, "empty V1 never divides")
	assert.Zero(t, backward.NetworkDensity)

	forward := ProcessForward(empty)
	assert.Zero(t, forward.CitationsPerPatent)
	assert.Zero(t, forward.NetworkDensity)
}

func TestWeightedCitationsPerPatent(t *testing.T) {
	t.Parallel()

	assert.Zero(t, WeightedCitationsPerPatent(nil))

	weighted := []WeightedCitation{
		{Edge: fwd("C1", "F1", date(2010, 1, 1)), Weight: 1.0},
		{Edge: fwd("C2", "F1", date(2011, 1, 1)), Weight: 0.5},
		{Edge: fwd("C3", "F2", date(2012, 1, 1)), Weight: 0.5},
	}
	// F1 accumulates 1.5, F2 accumulates 0.5: mean 1.0.
	assert.InDelta(t, 1.0, WeightedCitationsPerPatent(weighted), 1e-12)
}

func TestNetworkStatsWithDensity(t *testing.T) {
	t.Parallel()

	n := buildNetwork(t, "acme", func(b *citation.NetworkBuilder) {
		b.AddFocal(
			citation.PatentNode{ID: "F1", GrantDate: ptr(date(2010, 1, 1))},
			nil,
			[]citation.Ref{{ID: "C1", Date: date(2015, 1, 1)}},
		)
	})

	stats := NetworkStatsWithDensity(n, ProcessForward(n))
	assert.Equal(t, 1, stats.FocalPatents)
	assert.Equal(t, 1, stats.ForwardCitations)
	assert.InDelta(t, 1.0, stats.NetworkDensity, 1e-12)
}
