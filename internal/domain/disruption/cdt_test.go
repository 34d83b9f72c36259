package disruption

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

func ptr(t time.Time) *time.Time { return &t }

// buildNetwork assembles a test network from roster-style rows.
func buildNetwork(t *testing.T, company string, add func(b *citation.NetworkBuilder)) *citation.TripartiteNetwork {
	t.Helper()
	b := citation.NewNetworkBuilder(company, citation.DefaultWindow())
	add(b)
	return b.Build()
}

func TestComputeCDtScoresUndefinedWithoutForwardCitations(t *testing.T) {
	t.Parallel()

	n := buildNetwork(t, "acme", func(b *citation.NetworkBuilder) {
		b.AddFocal(
			citation.PatentNode{ID: "A", GrantDate: ptr(date(2010, 1, 1))},
			[]citation.Ref{{ID: "B", Date: date(2008, 1, 1)}},
			nil,
		)
	})

	scores := ComputeCDtScores(n, WeighForward(n.ForwardEdges(), DefaultAlpha))
	assert.Empty(t, scores, "no forward citations means no score, not a zero score")
}

func TestComputeCDtScoresSingleCitationNoOverlap(t *testing.T) {
	t.Parallel()

	// C has no backward citations; its single forward citer D overlaps
	// nothing, so bit=0 and CDt(C) = 1/w.
	n := buildNetwork(t, "acme", func(b *citation.NetworkBuilder) {
		b.AddFocal(
			citation.PatentNode{ID: "C", GrantDate: ptr(date(2011, 1, 1))},
			nil,
			[]citation.Ref{{ID: "D", Date: date(2012, 1, 1)}},
		)
	})

	weighted := WeighForward(n.ForwardEdges(), DefaultAlpha)
	require.Len(t, weighted, 1)
	w := weighted[0].Weight

	scores := ComputeCDtScores(n, weighted)
	require.Len(t, scores, 1)
	assert.Equal(t, "C", scores[0].PatentID)
	assert.InDelta(t, 1/w, scores[0].CDt, 1e-12)
	assert.Equal(t, 1, scores[0].NForward)
	assert.Zero(t, scores[0].NBackward)
}

func TestComputeCDtScoresAcmeScenario(t *testing.T) {
	t.Parallel()

	// Patent A (2010) backward-cites B; patent C (2011) is unrelated and
	// has one forward citation from D (2012), which itself backward-cites
	// B.  C's own backward set is empty, so D's co-citation of B is
	// irrelevant: bit=0 and CDt(C)=1/w.
	n := buildNetwork(t, "acme", func(b *citation.NetworkBuilder) {
		b.AddFocal(
			citation.PatentNode{ID: "A", GrantDate: ptr(date(2010, 1, 1))},
			[]citation.Ref{{ID: "B", Date: date(2008, 1, 1)}},
			nil,
		)
		b.AddFocal(
			citation.PatentNode{ID: "C", GrantDate: ptr(date(2011, 1, 1))},
			nil,
			[]citation.Ref{{ID: "D", Date: date(2012, 1, 1)}},
		)
	})

	assert.True(t, n.InFocal("A"))
	assert.True(t, n.InFocal("C"))
	assert.True(t, n.InPredecessors("B"))

	weighted := WeighForward(n.ForwardEdges(), DefaultAlpha)
	scores := ComputeCDtScores(n, weighted)
	require.Len(t, scores, 1, "only C has forward citations")
	assert.Equal(t, "C", scores[0].PatentID)
	assert.InDelta(t, 1/weighted[0].Weight, scores[0].CDt, 1e-12)
}

func TestComputeCDtScoresCoCitationFlipsSign(t *testing.T) {
	t.Parallel()

	// F backward-cites B; its only citer Q also cites B (Q appears in the
	// roster with its own backward list).  bit=1 for the single citation,
	// so CDt(F) = -1/w < 0.
	n := buildNetwork(t, "acme", func(b *citation.NetworkBuilder) {
		b.AddFocal(
			citation.PatentNode{ID: "F", GrantDate: ptr(date(2010, 1, 1))},
			[]citation.Ref{{ID: "B", Date: date(2005, 1, 1)}},
			[]citation.Ref{{ID: "Q", Date: date(2015, 1, 1)}},
		)
		b.AddFocal(
			citation.PatentNode{ID: "Q", GrantDate: ptr(date(2015, 1, 1))},
			[]citation.Ref{{ID: "B", Date: date(2005, 1, 1)}},
			nil,
		)
	})

	weighted := WeighForward(n.ForwardEdges(), DefaultAlpha)
	require.Len(t, weighted, 1)

	scores := ComputeCDtScores(n, weighted)
	require.Len(t, scores, 1)
	assert.Equal(t, "F", scores[0].PatentID)
	assert.InDelta(t, -1/weighted[0].Weight, scores[0].CDt, 1e-12)
}

func TestComputeCDtScoresOutsideCiterNeverConsolidates(t *testing.T) {
	t.Parallel()

	// P backward-cites fellow focal patent P2, and outside patent Q cites
	// both of them.  Q has no roster row, so the focal-keyed backward table
	// holds nothing for it: B(Q) is empty, bit=0, and Q's citation of P
	// counts as destabilizing (+1/w) despite the co-citation of P2.
	n := buildNetwork(t, "acme", func(b *citation.NetworkBuilder) {
		b.AddFocal(
			citation.PatentNode{ID: "P", GrantDate: ptr(date(2010, 1, 1))},
			[]citation.Ref{{ID: "P2", Date: date(2005, 1, 1)}},
			[]citation.Ref{{ID: "Q", Date: date(2015, 1, 1)}},
		)
		b.AddFocal(
			citation.PatentNode{ID: "P2", GrantDate: ptr(date(2005, 1, 1))},
			nil,
			[]citation.Ref{{ID: "Q", Date: date(2015, 1, 1)}},
		)
	})
	require.False(t, n.InFocal("Q"))

	weighted := WeighForward(n.ForwardEdges(), DefaultAlpha)
	scores := ComputeCDtScores(n, weighted)

	var pScore *metrics.PatentScore
	for i := range scores {
		if scores[i].PatentID == "P" {
			pScore = &scores[i]
		}
	}
	require.NotNil(t, pScore)
	assert.Greater(t, pScore.CDt, 0.0, "an outside citer cannot flip the score negative")
	assert.Equal(t, 1, pScore.NBackward)
}

func TestComputeCDtScoresMixedCitations(t *testing.T) {
	t.Parallel()

	// Two same-day forward citations (both weight 1): one co-cites F's
	// prior art, one does not.  CDt(F) = ((-1) + 1) / 2 = 0.
	n := buildNetwork(t, "acme", func(b *citation.NetworkBuilder) {
		b.AddFocal(
			citation.PatentNode{ID: "F", GrantDate: ptr(date(2010, 1, 1))},
			[]citation.Ref{{ID: "B", Date: date(2005, 1, 1)}},
			[]citation.Ref{
				{ID: "Q1", Date: date(2015, 1, 1)},
				{ID: "Q2", Date: date(2015, 1, 1)},
			},
		)
		b.AddFocal(
			citation.PatentNode{ID: "Q1", GrantDate: ptr(date(2015, 1, 1))},
			[]citation.Ref{{ID: "B", Date: date(2005, 1, 1)}},
			nil,
		)
	})

	weighted := WeighForward(n.ForwardEdges(), DefaultAlpha)
	scores := ComputeCDtScores(n, weighted)

	var fScore *metrics.PatentScore
	for i := range scores {
		if scores[i].PatentID == "F" {
			fScore = &scores[i]
		}
	}
	require.NotNil(t, fScore)
	assert.InDelta(t, 0.0, fScore.CDt, 1e-12)
	assert.Equal(t, 2, fScore.NForward)
}

func TestComputeCDtScoresTypicalRange(t *testing.T) {
	t.Parallel()

	n := buildNetwork(t, "acme", func(b *citation.NetworkBuilder) {
		b.AddFocal(
			citation.PatentNode{ID: "F", GrantDate: ptr(date(2000, 1, 1))},
			[]citation.Ref{{ID: "B1", Date: date(1995, 1, 1)}, {ID: "B2", Date: date(1996, 1, 1)}},
			[]citation.Ref{
				{ID: "Q1", Date: date(2001, 1, 1)},
				{ID: "Q2", Date: date(2003, 1, 1)},
				{ID: "Q3", Date: date(2006, 1, 1)},
			},
		)
	})

	scores := ComputeCDtScores(n, WeighForward(n.ForwardEdges(), DefaultAlpha))
	require.Len(t, scores, 1)
	// No citer overlaps, weights in (0,1], so the score sits above 1 but
	// bounded by 1/min(w).
	assert.Greater(t, scores[0].CDt, 0.0)
	assert.Less(t, scores[0].CDt, 2.0)
}

func TestSummarizeCDt(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		s := SummarizeCDt("acme", nil)
		assert.Equal(t, "acme", s.Company)
		assert.Zero(t, s.NPatentsWithCD)
		assert.Zero(t, s.Mean)
	})

	t.Run("distribution", func(t *testing.T) {
		t.Parallel()
		s := SummarizeCDt("acme", []metrics.PatentScore{
			{PatentID: "A", CDt: -1},
			{PatentID: "B", CDt: 0},
			{PatentID: "C", CDt: 1},
			{PatentID: "D", CDt: 2},
		})
		assert.Equal(t, 4, s.NPatentsWithCD)
		assert.InDelta(t, 0.5, s.Mean, 1e-12)
		assert.InDelta(t, 0.5, s.Median, 1e-12)
		assert.InDelta(t, -1.0, s.Min, 1e-12)
		assert.InDelta(t, 2.0, s.Max, 1e-12)
		assert.InDelta(t, 1.29099, s.Std, 1e-4)
	})
}
