package citation

import (
	"fmt"
	"time"
)

// Window is the temporal validation window applied to every citation edge and
// focal-patent reference date.  A date is acceptable iff its year falls in
// [MinYear, MaxYear].
type Window struct {
	MinYear int
	MaxYear int
}

// DefaultWindow covers the full sample period of the patent data.
func DefaultWindow() Window {
	return Window{MinYear: 1976, MaxYear: 2025}
}

// Validate reports whether the window itself is well-formed.
func (w Window) Validate() error {
	if w.MinYear > w.MaxYear {
		return fmt.Errorf("window: min_year %d exceeds max_year %d", w.MinYear, w.MaxYear)
	}
	return nil
}

// Contains reports whether t's year falls inside the window.  The zero time
// is never contained, so unparseable dates (represented as zero values) are
// invalid rather than aborting the run.
func (w Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	y := t.Year()
	return y >= w.MinYear && y <= w.MaxYear
}

// ContainsYear reports whether a bare year falls inside the window.
func (w Window) ContainsYear(year int) bool {
	return year >= w.MinYear && year <= w.MaxYear
}
