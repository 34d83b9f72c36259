package patent

import "strings"

// delimiterCandidates is the fixed inference order.  Ties on field count go
// to the earlier candidate.
var delimiterCandidates = []rune{';', ',', '\t'}

// InferDelimiter picks the field delimiter for a roster file by splitting the
// header line with each candidate and keeping the one that yields the most
// fields.
func InferDelimiter(header string) rune {
	best := delimiterCandidates[0]
	bestFields := 0
	for _, cand := range delimiterCandidates {
		n := len(strings.Split(header, string(cand)))
		if n > bestFields {
			best = cand
			bestFields = n
		}
	}
	return best
}

// splitList breaks a delimiter-joined list field into trimmed tokens.  Empty
// tokens are preserved so list positions stay aligned with the parallel date
// list; callers decide what an empty token means.  Fields using semicolons
// as the inner separator take precedence over comma-joined lists.
func splitList(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	sep := ","
	if strings.Contains(field, ";") {
		sep = ";"
	}
	parts := strings.Split(field, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
