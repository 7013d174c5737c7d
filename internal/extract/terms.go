package extract

import (
	"sort"
	"strings"
)

// ParseTermList turns a comma-separated model response into a clean term
// slice: lowercased, deduplicated, filtered against the common-word list,
// sorted.
func ParseTermList(raw string) []string {
	seen := make(map[string]bool)
	for _, field := range strings.Split(raw, ",") {
		term := strings.ToLower(strings.TrimSpace(field))
		if len(term) <= 2 {
			continue
		}
		if commonWords[term] {
			continue
		}
		seen[term] = true
	}

	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
