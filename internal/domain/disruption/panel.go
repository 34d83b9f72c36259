package disruption

import (
	"sort"

	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// AssemblePanel concatenates every company's firm-year records into one
// table sorted by (company, year), then fills the running citation and
// patent sums per company in year order.  The sort is stable so ties keep
// their original relative order.  Input slices are not mutated.
func AssemblePanel(perCompany ...[]metrics.FirmYearRecord) []metrics.FirmYearRecord {
	var total int
	for _, recs := range perCompany {
		total += len(recs)
	}
	if total == 0 {
		return nil
	}

	panel := make([]metrics.FirmYearRecord, 0, total)
	for _, recs := range perCompany {
		panel = append(panel, recs...)
	}

	sort.SliceStable(panel, func(i, j int) bool {
		if panel[i].Company != panel[j].Company {
			return panel[i].Company < panel[j].Company
		}
		return panel[i].Year < panel[j].Year
	})

	var company string
	var cumCitations, cumPatents int
	for i := range panel {
		if panel[i].Company != company {
			company = panel[i].Company
			cumCitations, cumPatents = 0, 0
		}
		cumCitations += panel[i].NCitations
		cumPatents += panel[i].NPatents
		panel[i].CumulativeCitations = cumCitations
		panel[i].CumulativePatents = cumPatents
	}
	return panel
}

// PanelSummary reports shape facts and per-company aggregates for an
// assembled panel.
type PanelSummary struct {
	Rows       int                   `json:"rows"`
	Companies  []string              `json:"companies"`
	MinYear    int                   `json:"min_year,omitempty"`
	MaxYear    int                   `json:"max_year,omitempty"`
	PerCompany []CompanyPanelSummary `json:"per_company,omitempty"`
}

// CompanyPanelSummary rolls one company's rows up across all years: citation
// and patent totals plus cross-year means of the index components.
type CompanyPanelSummary struct {
	Company             string  `json:"company"`
	Years               int     `json:"years"`
	TotalPatents        int     `json:"total_patents"`
	TotalCitations      int     `json:"total_citations"`
	CitationsPerPatent  float64 `json:"citations_per_patent"`
	MeanDisruptionIndex float64 `json:"mean_disruption_index"`
	MeanPureFScore      float64 `json:"mean_pure_f_score"`
}

// SummarizePanel digests an assembled panel for logging and reporting.
func SummarizePanel(panel []metrics.FirmYearRecord) PanelSummary {
	s := PanelSummary{Rows: len(panel)}
	if len(panel) == 0 {
		return s
	}
	type companyAcc struct {
		years     int
		patents   int
		citations int
		diSum     float64
		pureFSum  float64
	}
	acc := make(map[string]*companyAcc)
	s.MinYear = panel[0].Year
	s.MaxYear = panel[0].Year
	for _, r := range panel {
		a, ok := acc[r.Company]
		if !ok {
			a = &companyAcc{}
			acc[r.Company] = a
			s.Companies = append(s.Companies, r.Company)
		}
		a.years++
		a.patents += r.NPatents
		a.citations += r.NCitations
		a.diSum += r.DisruptionIndex
		a.pureFSum += r.PureFScore
		if r.Year < s.MinYear {
			s.MinYear = r.Year
		}
		if r.Year > s.MaxYear {
			s.MaxYear = r.Year
		}
	}
	sort.Strings(s.Companies)

	s.PerCompany = make([]CompanyPanelSummary, 0, len(s.Companies))
	for _, company := range s.Companies {
		a := acc[company]
		cs := CompanyPanelSummary{
			Company:             company,
			Years:               a.years,
			TotalPatents:        a.patents,
			TotalCitations:      a.citations,
			MeanDisruptionIndex: a.diSum / float64(a.years),
			MeanPureFScore:      a.pureFSum / float64(a.years),
		}
		if a.patents > 0 {
			cs.CitationsPerPatent = float64(a.citations) / float64(a.patents)
		}
		s.PerCompany = append(s.PerCompany, cs)
	}
	return s
}
