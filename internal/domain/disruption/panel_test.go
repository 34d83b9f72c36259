package disruption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

func TestAssemblePanelEmpty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, AssemblePanel())
	assert.Nil(t, AssemblePanel(nil, nil))
}

func TestAssemblePanelSortsAndAccumulates(t *testing.T) {
	t.Parallel()

	zeta := []metrics.FirmYearRecord{
		{Company: "zeta", Year: 2011, NCitations: 5, NPatents: 1},
		{Company: "zeta", Year: 2010, NCitations: 3, NPatents: 2},
	}
	acme := []metrics.FirmYearRecord{
		{Company: "acme", Year: 2012, NCitations: 7, NPatents: 1},
		{Company: "acme", Year: 2010, NCitations: 2, NPatents: 1},
	}

	panel := AssemblePanel(zeta, acme)
	require.Len(t, panel, 4)

	// Sorted by (company, year).
	assert.Equal(t, "acme", panel[0].Company)
	assert.Equal(t, 2010, panel[0].Year)
	assert.Equal(t, "acme", panel[1].Company)
	assert.Equal(t, 2012, panel[1].Year)
	assert.Equal(t, "zeta", panel[2].Company)
	assert.Equal(t, 2010, panel[2].Year)
	assert.Equal(t, 2011, panel[3].Year)

	// Running sums restart per company.
	assert.Equal(t, 2, panel[0].CumulativeCitations)
	assert.Equal(t, 9, panel[1].CumulativeCitations)
	assert.Equal(t, 3, panel[2].CumulativeCitations)
	assert.Equal(t, 8, panel[3].CumulativeCitations)

	assert.Equal(t, 1, panel[0].CumulativePatents)
	assert.Equal(t, 2, panel[1].CumulativePatents)
	assert.Equal(t, 2, panel[2].CumulativePatents)
	assert.Equal(t, 3, panel[3].CumulativePatents)

	// Inputs are left untouched.
	assert.Zero(t, zeta[0].CumulativeCitations)
}

func TestAssemblePanelStableOnTies(t *testing.T) {
	t.Parallel()

	first := metrics.FirmYearRecord{Company: "acme", Year: 2010, NCitations: 1}
	second := metrics.FirmYearRecord{Company: "acme", Year: 2010, NCitations: 2}

	panel := AssemblePanel([]metrics.FirmYearRecord{first, second})
	require.Len(t, panel, 2)
	assert.Equal(t, 1, panel[0].NCitations, "ties keep original order")
	assert.Equal(t, 2, panel[1].NCitations)
	assert.Equal(t, 3, panel[1].CumulativeCitations)
}

func TestSummarizePanel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PanelSummary{}, SummarizePanel(nil))

	panel := AssemblePanel(
		[]metrics.FirmYearRecord{
			{Company: "zeta", Year: 2015, NPatents: 3, NCitations: 9, DisruptionIndex: 0.4, PureFScore: 0.6},
			{Company: "zeta", Year: 2011, NPatents: 1, NCitations: 3, DisruptionIndex: 0.2, PureFScore: 0.4},
		},
		[]metrics.FirmYearRecord{{Company: "acme", Year: 2010}},
	)
	s := SummarizePanel(panel)
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, []string{"acme", "zeta"}, s.Companies)
	assert.Equal(t, 2010, s.MinYear)
	assert.Equal(t, 2015, s.MaxYear)

	require.Len(t, s.PerCompany, 2)
	acme, zeta := s.PerCompany[0], s.PerCompany[1]

	assert.Equal(t, "acme", acme.Company)
	assert.Equal(t, 1, acme.Years)
	assert.Zero(t, acme.TotalPatents)
	assert.Zero(t, acme.CitationsPerPatent, "no patents means no per-patent rate")

	assert.Equal(t, "zeta", zeta.Company)
	assert.Equal(t, 2, zeta.Years)
	assert.Equal(t, 4, zeta.TotalPatents)
	assert.Equal(t, 12, zeta.TotalCitations)
	assert.InDelta(t, 3.0, zeta.CitationsPerPatent, 1e-12)
	assert.InDelta(t, 0.3, zeta.MeanDisruptionIndex, 1e-12)
	assert.InDelta(t, 0.5, zeta.MeanPureFScore, 1e-12)
}
