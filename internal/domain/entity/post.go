package entity

import "time"

// Post is a single feed entry. (Link, BlogID) is the logical dedup key used
// while merging; ID is opaque and, once assigned, never recomputed.
type Post struct {
	ID          string
	BlogID      string
	Title       string
	Link        string
	Author      string
	Created     time.Time // author-declared publish time, UTC; never zero
	Added       time.Time // first-observed time, UTC
	Categories  []string  // feed order preserved, exact duplicates dropped
	Description string    // body, post full-text enrichment
	RawXML      string    // pre-enrichment serialization of the entry element
}

// DedupCategories returns cats with exact-match duplicates removed, keeping
// the first occurrence, preserving feed order.
func DedupCategories(cats []string) []string {
	seen := make(map[string]struct{}, len(cats))
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
