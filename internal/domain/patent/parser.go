package patent

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// Column aliases accepted in roster headers, normalized to lower case.
var (
	focalIDColumns   = []string{"focal_id", "patent_id", "patent_number", "id"}
	grantDateColumns = []string{"grant_date", "grantdate", "issue_date"}
	applDateColumns  = []string{"application_date", "filing_date", "app_date"}
	backNumsColumns  = []string{"backward_cited_numbers", "backward_citations", "backward_cites"}
	backDatesColumns = []string{"backward_cited_dates", "backward_citation_dates"}
	fwdNumsColumns   = []string{"forward_cited_numbers", "forward_citations", "forward_cites"}
	fwdDatesColumns  = []string{"forward_cited_dates", "forward_citation_dates"}
)

// columnIndex holds resolved header positions; -1 means absent.
type columnIndex struct {
	focalID   int
	grantDate int
	applDate  int
	backNums  int
	backDates int
	fwdNums   int
	fwdDates  int
}

func resolveColumn(header []string, aliases []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, a := range aliases {
			if h == a {
				return i
			}
		}
	}
	return -1
}

func resolveColumns(header []string) (columnIndex, error) {
	idx := columnIndex{
		focalID:   resolveColumn(header, focalIDColumns),
		grantDate: resolveColumn(header, grantDateColumns),
		applDate:  resolveColumn(header, applDateColumns),
		backNums:  resolveColumn(header, backNumsColumns),
		backDates: resolveColumn(header, backDatesColumns),
		fwdNums:   resolveColumn(header, fwdNumsColumns),
		fwdDates:  resolveColumn(header, fwdDatesColumns),
	}
	if idx.focalID < 0 {
		return idx, appErrors.SchemaViolation("roster is missing a focal patent id column")
	}
	if idx.grantDate < 0 && idx.applDate < 0 {
		return idx, appErrors.SchemaViolation("roster has neither a grant date nor an application date column")
	}
	return idx, nil
}

// LoadRoster opens and parses one company's roster file.  A missing file is
// reported as a MissingInput error so the batch runner can record the company
// as failed and continue.
func LoadRoster(company, path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.MissingInput(fmt.Sprintf("roster file not found: %s", path))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeMissingInput, "open roster file")
	}
	defer f.Close()
	return ParseRoster(company, f)
}

// ParseRoster reads a delimited roster.  The field delimiter is inferred
// from the header line.  Row-level problems never abort the parse: they are
// collected as diagnostics and the remaining rows are processed.  Only a
// schema violation (required column absent) or an empty input fails the
// whole roster.
func ParseRoster(company string, r io.Reader) (*Roster, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeMissingInput, "read roster")
	}
	text := strings.TrimLeft(string(data), "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, appErrors.New(appErrors.ErrCodeEmptyRoster, fmt.Sprintf("roster for %q is empty", company))
	}

	headerLine := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		headerLine = text[:i]
	}
	delim := InferDelimiter(headerLine)

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeMalformedRow, "read roster header")
	}
	idx, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	roster := &Roster{Company: company}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			roster.Diagnostics = append(roster.Diagnostics, Diagnostic{
				Line:   line,
				Reason: fmt.Sprintf("unreadable row: %v", err),
			})
			roster.SkippedRows++
			continue
		}
		row, diags, ok := parseRow(company, record, idx, line)
		roster.Diagnostics = append(roster.Diagnostics, diags...)
		if !ok {
			roster.SkippedRows++
			continue
		}
		roster.Rows = append(roster.Rows, row)
	}
	return roster, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseRow converts one record into a Row.  Returns ok=false when the row
// yields no focal patent (missing id or no usable reference date).
func parseRow(company string, record []string, idx columnIndex, line int) (Row, []Diagnostic, bool) {
	var diags []Diagnostic

	focalID := field(record, idx.focalID)
	if focalID == "" {
		diags = append(diags, Diagnostic{Line: line, Field: "focal_id", Reason: "empty focal patent id"})
		return Row{}, diags, false
	}

	node := citation.PatentNode{ID: focalID, Company: company}
	if t, ok := ParseDate(field(record, idx.grantDate)); ok {
		node.GrantDate = &t
	}
	if t, ok := ParseDate(field(record, idx.applDate)); ok {
		node.ApplicationDate = &t
	}
	ref, ok := node.ReferenceDate()
	if !ok {
		diags = append(diags, Diagnostic{Line: line, Field: "grant_date", Reason: "no parseable reference date, row skipped"})
		return Row{}, diags, false
	}

	var backDiags, fwdDiags []Diagnostic
	row := Row{Node: node, Line: line}
	row.Backward, backDiags = parseRefs(
		field(record, idx.backNums), field(record, idx.backDates),
		ref.AddDate(-1, 0, 0), line, "backward_cited_dates")
	row.Forward, fwdDiags = parseRefs(
		field(record, idx.fwdNums), field(record, idx.fwdDates),
		ref.AddDate(1, 0, 0), line, "forward_cited_dates")
	diags = append(diags, backDiags...)
	diags = append(diags, fwdDiags...)
	return row, diags, true
}

// parseRefs pairs a citation list with its parallel date list by position.
// Empty citation tokens are dropped.  A missing or unparseable date falls
// back to the supplied default; only a non-empty unparseable date is worth a
// diagnostic.
func parseRefs(numsField, datesField string, defaultDate time.Time, line int, dateField string) ([]citation.Ref, []Diagnostic) {
	nums := splitList(numsField)
	if len(nums) == 0 {
		return nil, nil
	}
	dates := splitList(datesField)

	var refs []citation.Ref
	var diags []Diagnostic
	for i, id := range nums {
		if id == "" {
			continue
		}
		date := defaultDate
		if i < len(dates) && dates[i] != "" {
			if t, ok := ParseDate(dates[i]); ok {
				date = t
			} else {
				diags = append(diags, Diagnostic{
					Line:   line,
					Field:  dateField,
					Reason: fmt.Sprintf("unparseable date %q at position %d, default applied", dates[i], i),
				})
			}
		}
		refs = append(refs, citation.Ref{ID: id, Date: date})
	}
	return refs, diags
}
