// Package patent turns a company's raw roster file into validated rows the
// network builder can consume: one focal patent per row with its positionally
// matched backward and forward citation lists.
package patent

import (
	"fmt"

	"github.com/turtacn/DisruptMetrics/internal/domain/citation"
)

// Row is one parsed roster row: the focal patent plus its citation lists.
type Row struct {
	Node     citation.PatentNode
	Backward []citation.Ref
	Forward  []citation.Ref
	// Line is the 1-based source line the row came from.
	Line int
}

// Diagnostic records one non-fatal parse decision: a skipped row, a dropped
// token, or a defaulted date.
type Diagnostic struct {
	Line   int    `json:"line"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	if d.Field == "" {
		return fmt.Sprintf("line %d: %s", d.Line, d.Reason)
	}
	return fmt.Sprintf("line %d [%s]: %s", d.Line, d.Field, d.Reason)
}

// Roster is the parsed form of one company's input file.
type Roster struct {
	Company     string
	Rows        []Row
	Diagnostics []Diagnostic
	// SkippedRows counts rows dropped for want of a reference date.
	SkippedRows int
}
