package patent

import (
	"strings"
	"time"
)

// dateLayouts is the fixed trial order.  Day-first beats month-first for
// slash-separated dates, matching the upstream data sources.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
}

// ParseDate attempts each supported layout in order and reports whether any
// matched.  A failed parse is a normal outcome, not an error: callers fall
// back to a default offset or drop the value.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
