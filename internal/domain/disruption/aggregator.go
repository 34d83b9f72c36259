package disruption

import (
	"sort"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// AggregatorConfig tunes the firm-year roll-up.
type AggregatorConfig struct {
	// ScoreWindowYears bounds how long after grant a forward citation still
	// counts toward a patent's impact figures.  Non-positive means no bound.
	ScoreWindowYears int
	// DI1 is the externally supplied per-patent disruption flag.  Patents
	// absent from the map default to 1 so the mDI family degrades to the
	// pure citation ratio when no flag file is provided.
	DI1 map[string]float64
}

// Aggregator rolls per-patent scores and weighted forward citations into
// yearly firm-level records.  All inputs are read-only; the aggregator owns
// only its derived indices.
type Aggregator struct {
	network  *citation.TripartiteNetwork
	scores   map[string]metrics.PatentScore
	weighted []WeightedCitation
	cfg      AggregatorConfig
	idx      citedIndex
}

// NewAggregator wires an aggregator over one company's computed stages.
func NewAggregator(network *citation.TripartiteNetwork, scores []metrics.PatentScore, weighted []WeightedCitation, cfg AggregatorConfig) *Aggregator {
	byID := make(map[string]metrics.PatentScore, len(scores))
	for _, s := range scores {
		byID[s.PatentID] = s
	}
	return &Aggregator{
		network:  network,
		scores:   byID,
		weighted: weighted,
		cfg:      cfg,
		idx:      buildCitedIndex(network),
	}
}

func (a *Aggregator) di1(patentID string) float64 {
	if a.cfg.DI1 == nil {
		return 1
	}
	if v, ok := a.cfg.DI1[patentID]; ok {
		return v
	}
	return 1
}

// inScoreWindow reports whether a citation dated citeYear still counts for
// a patent granted grantYear.
func (a *Aggregator) inScoreWindow(grantYear, citeYear int) bool {
	if a.cfg.ScoreWindowYears <= 0 {
		return true
	}
	return citeYear >= grantYear && citeYear < grantYear+a.cfg.ScoreWindowYears
}

// yearCounts carries the per-(patent, year) citation accounting feeding the
// count-DI family.
type yearCounts struct {
	received int // forward citations the patent received that year
	matched  int // received citations whose citer co-cites the patent's prior art
	tfcc     int // citations landing that year on patents this one backward-cites
}

// FirmYears produces the sorted yearly records for the company.  Years with
// no granted patents and no citation activity are omitted; cumulative mDI
// accounting still runs over the full zero-filled span so accumulated values
// are correct at every emitted year.
func (a *Aggregator) FirmYears() []metrics.FirmYearRecord {
	focalYears := a.focalGrantYears()
	if len(focalYears) == 0 && len(a.weighted) == 0 {
		return nil
	}

	counts := a.collectYearCounts(focalYears)
	years := a.observedYears(focalYears, counts)
	if len(years) == 0 {
		return nil
	}

	mdiByYear, accMDIByYear := a.mdiSeries(focalYears, counts, years)

	patentsByYear := make(map[int][]string)
	for id, y := range focalYears {
		patentsByYear[y] = append(patentsByYear[y], id)
	}

	records := make([]metrics.FirmYearRecord, 0, len(years))
	for _, year := range years {
		rec := metrics.FirmYearRecord{
			Company: a.network.Company(),
			Year:    year,
		}
		a.fillCDtFamily(&rec, patentsByYear[year], focalYears, year)
		a.fillCountFamily(&rec, counts, focalYears, year)
		rec.MDI = mdiByYear[year]
		rec.AccumulatedMDI = accMDIByYear[year]

		if rec.NPatents == 0 && rec.NCitations == 0 {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (a *Aggregator) focalGrantYears() map[string]int {
	years := make(map[string]int)
	for id := range a.network.FocalSet() {
		if t, ok := a.network.DateOf(id); ok {
			years[id] = t.Year()
		}
	}
	return years
}

// collectYearCounts walks the weighted forward citations once, filling the
// received/matched tallies, then derives tfcc from the full edge set.
func (a *Aggregator) collectYearCounts(focalYears map[string]int) map[string]map[int]*yearCounts {
	counts := make(map[string]map[int]*yearCounts)
	at := func(id string, year int) *yearCounts {
		byYear, ok := counts[id]
		if !ok {
			byYear = make(map[int]*yearCounts)
			counts[id] = byYear
		}
		c, ok := byYear[year]
		if !ok {
			c = &yearCounts{}
			byYear[year] = c
		}
		return c
	}

	for _, wc := range a.weighted {
		focalID := wc.Edge.CitedID
		if _, ok := focalYears[focalID]; !ok {
			continue
		}
		c := at(focalID, wc.Edge.Date.Year())
		c.received++
		if intersects(a.idx[focalID], a.idx[wc.Edge.CitingID]) {
			c.matched++
		}
	}

	// Citations landing on any patent, per year, for the tfcc denominator.
	landed := make(map[string]map[int]int)
	for _, e := range a.network.Edges() {
		byYear, ok := landed[e.CitedID]
		if !ok {
			byYear = make(map[int]int)
			landed[e.CitedID] = byYear
		}
		byYear[e.Date.Year()]++
	}
	for focalID := range focalYears {
		for cited := range a.idx[focalID] {
			for year, n := range landed[cited] {
				at(focalID, year).tfcc += n
			}
		}
	}
	return counts
}

// observedYears returns the sorted union of grant years and citation years.
func (a *Aggregator) observedYears(focalYears map[string]int, counts map[string]map[int]*yearCounts) []int {
	seen := make(map[int]struct{})
	for _, y := range focalYears {
		seen[y] = struct{}{}
	}
	for _, byYear := range counts {
		for y := range byYear {
			seen[y] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func (a *Aggregator) fillCDtFamily(rec *metrics.FirmYearRecord, patents []string, focalYears map[string]int, year int) {
	rec.NPatents = len(patents)

	var cdtSum float64
	scored := 0
	for _, id := range patents {
		s, ok := a.scores[id]
		if !ok {
			continue
		}
		scored++
		cdtSum += s.CDt
		switch {
		case s.CDt > 0:
			rec.NPosPatents++
		case s.CDt < 0:
			rec.NNegPatents++
		}
	}
	if scored > 0 {
		rec.CDMean = cdtSum / float64(scored)
		rec.DestabilizingRatio = float64(rec.NPosPatents) / float64(scored)
		rec.ConsolidatingRatio = float64(rec.NNegPatents) / float64(scored)
	}

	// Windowed impact: forward citations accruing to this year's cohort
	// within the score window, split by the sign of the landing patent's
	// score.  Zero-scored patents feed neither total.
	totalImpact := 0
	for _, wc := range a.weighted {
		focalID := wc.Edge.CitedID
		grantYear, ok := focalYears[focalID]
		if !ok || grantYear != year {
			continue
		}
		if !a.inScoreWindow(grantYear, wc.Edge.Date.Year()) {
			continue
		}
		totalImpact++
		if s, ok := a.scores[focalID]; ok {
			switch {
			case s.CDt < 0:
				rec.CDTotalNeg++
			case s.CDt > 0:
				rec.CDTotalPos++
			}
		}
	}
	rec.MCDScale = rec.CDMean * float64(totalImpact)
}

func (a *Aggregator) fillCountFamily(rec *metrics.FirmYearRecord, counts map[string]map[int]*yearCounts, focalYears map[string]int, year int) {
	totalReceived := 0
	totalMatched := 0
	var rateSum float64
	summary := metrics.MatchSummary{}
	dist := make(map[metrics.MatchQuality]float64)
	for focalID := range focalYears {
		c, ok := counts[focalID][year]
		if !ok || c.received == 0 {
			continue
		}
		totalReceived += c.received
		totalMatched += c.matched
		rate := float64(c.matched) / float64(c.received)
		rateSum += rate
		summary.TotalPatents++
		switch rate {
		case 1:
			summary.PerfectMatchPatents++
		case 0:
			summary.NoMatchPatents++
		}
		dist[metrics.ClassifyMatchRate(rate*100)] += float64(c.matched)
	}
	summary.TotalForward = totalReceived
	summary.MatchedCitations = totalMatched
	if summary.TotalPatents > 0 {
		summary.AverageMatchRate = rateSum / float64(summary.TotalPatents)
	}
	rec.MatchSummary = summary

	rec.NCitations = totalReceived
	rec.PureFScore = PureFScore(totalMatched, totalReceived)
	rec.QualityFactor = QualityFactor(dist)

	var cpp float64
	if n := a.network.FocalCount(); n > 0 {
		cpp = float64(totalReceived) / float64(n)
	}
	rec.ImpactFactor = ImpactFactor(cpp)
	rec.DisruptionIndex = rec.PureFScore * rec.QualityFactor * rec.ImpactFactor
}

// mdiSeries runs the zero-filled (patent, year) grid over the full observed
// span, producing per-year firm means of mDI and of the accumulated variant
// computed from running count sums.
func (a *Aggregator) mdiSeries(focalYears map[string]int, counts map[string]map[int]*yearCounts, years []int) (map[int]float64, map[int]float64) {
	mdiByYear := make(map[int]float64, len(years))
	accByYear := make(map[int]float64, len(years))
	if len(focalYears) == 0 {
		return mdiByYear, accByYear
	}

	ids := make([]string, 0, len(focalYears))
	for id := range focalYears {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cumReceived := make(map[string]float64, len(ids))
	cumTFCC := make(map[string]float64, len(ids))

	span := fullSpan(years)
	for _, year := range span {
		var mdiSum, accSum float64
		for _, id := range ids {
			var received, tfcc float64
			if c, ok := counts[id][year]; ok {
				received = float64(c.received)
				tfcc = float64(c.tfcc)
			}
			cumReceived[id] += received
			cumTFCC[id] += tfcc

			flag := a.di1(id)
			mdiSum += MDIRatio(received, tfcc, flag)
			accSum += MDIRatio(cumReceived[id], cumTFCC[id], flag)
		}
		mdiByYear[year] = mdiSum / float64(len(ids))
		accByYear[year] = accSum / float64(len(ids))
	}
	return mdiByYear, accByYear
}

// fullSpan expands a sorted year list to the contiguous range it covers.
func fullSpan(sorted []int) []int {
	if len(sorted) == 0 {
		return nil
	}
	span := make([]int, 0, sorted[len(sorted)-1]-sorted[0]+1)
	for y := sorted[0]; y <= sorted[len(sorted)-1]; y++ {
		span = append(span, y)
	}
	return span
}
