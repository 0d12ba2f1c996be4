// Package reconstruct implements the entry merger and the per-URL and
// bulk orchestration flows built on top of it.
package reconstruct

import (
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/feed"
)

// MergeResult is the outcome of merging snapshot, live, and database entry
// sets: the full merged map keyed by link, plus the subset of links that are
// new relative to the database (and therefore candidates for full-text
// enrichment).
type MergeResult struct {
	Merged map[string]feed.Entry
	New    []string
}

// Merge combines snapshot entries (s), live-feed entries (l), and
// previously persisted entries (d) per the precedence rules: S is the
// base, L overlays it (or is not added at all when ignoreLive is set, so
// links only in l are absent and links also in s keep their s value),
// and D overlays last, always winning. Links present only in d never
// appear as new, since new is defined as merged-minus-d.
func Merge(s, l, d map[string]feed.Entry, ignoreLive bool) MergeResult {
	merged := make(map[string]feed.Entry, len(s)+len(l)+len(d))
	for link, e := range s {
		merged[link] = e
	}

	if !ignoreLive {
		for link, e := range l {
			merged[link] = e
		}
	}

	for link, e := range d {
		merged[link] = e
	}

	newLinks := make([]string, 0)
	for link := range merged {
		if _, inDB := d[link]; !inDB {
			newLinks = append(newLinks, link)
		}
	}

	return MergeResult{Merged: merged, New: newLinks}
}

// FilterByWindow keeps only entries whose Created date falls within
// [earliest, latest] inclusive, treating a nil bound as open. Matching
// links from new are dropped from the returned slice as well, so novelty
// classification stays consistent with what will actually be persisted.
func FilterByWindow(entries map[string]feed.Entry, newLinks []string, earliest, latest *time.Time) (map[string]feed.Entry, []string) {
	kept := make(map[string]feed.Entry, len(entries))
	for link, e := range entries {
		if inWindow(e.Created, earliest, latest) {
			kept[link] = e
		}
	}

	keptNew := make([]string, 0, len(newLinks))
	for _, link := range newLinks {
		if _, ok := kept[link]; ok {
			keptNew = append(keptNew, link)
		}
	}

	return kept, keptNew
}

func inWindow(created time.Time, earliest, latest *time.Time) bool {
	day := created.Truncate(24 * time.Hour)
	if earliest != nil && day.Before(earliest.Truncate(24*time.Hour)) {
		return false
	}
	if latest != nil && day.After(latest.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

// MergeSnapshotBatches folds successive snapshot batches into one map,
// later batches overwriting earlier ones under the same link so that the
// last batch given wins. Callers feed batches in ascending
// capture-timestamp order so that the freshest archive view of a post wins.
func MergeSnapshotBatches(batches ...map[string]feed.Entry) map[string]feed.Entry {
	out := make(map[string]feed.Entry)
	for _, batch := range batches {
		for link, e := range batch {
			out[link] = e
		}
	}
	return out
}
