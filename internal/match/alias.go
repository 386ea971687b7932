package match

import "strings"

// Aliases maps a canonical normalized token to its known alternate tokens.
// The table is loaded from configuration at startup and read-only at
// runtime; it is injected rather than held in a package global so matchers
// can be tested with their own tables.
type Aliases map[string][]string

// Linked reports whether a and b appear together in the table, checking
// both directions.
func (al Aliases) Linked(a, b string) bool {
	for _, alt := range al[a] {
		if alt == b {
			return true
		}
	}
	for _, alt := range al[b] {
		if alt == a {
			return true
		}
	}
	return false
}

// NamesMatch is the name-match gate: two normalized tokens match when they
// are equal, when they are linked in the alias table, or when either is a
// substring of the other with more than 4 characters (the length floor
// keeps "st" from matching half the league).
func (al Aliases) NamesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if al.Linked(a, b) {
		return true
	}
	if len(a) > 4 && strings.Contains(b, a) {
		return true
	}
	if len(b) > 4 && strings.Contains(a, b) {
		return true
	}
	return false
}
