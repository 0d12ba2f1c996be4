package entity

import "time"

// Kind of syndication format a Feed was detected as.
type FeedKind string

const (
	FeedKindRSS  FeedKind = "rss"
	FeedKindAtom FeedKind = "atom"
)

// Feed is the configuration of a single reconstruction target. Identity is
// opaque and immutable once assigned; URL is unique across Feeds.
type Feed struct {
	ID                    string
	Kind                  FeedKind
	URL                   string
	Created               time.Time
	LastRun               time.Time
	Retries               int
	SleepSeconds          float64
	EarliestEntry         *string // ISO date (YYYY-MM-DD), nil = open bound
	LatestEntry           *string
	IgnoreLiveFeedEntries bool
	Pretty                bool
}

// Settings bundles the reconstruction flags an operator supplies or that were
// previously stored, independent of the Feed's assigned identity.
type Settings struct {
	Retries               int
	SleepSeconds          float64
	EarliestEntry         *string
	LatestEntry           *string
	IgnoreLiveFeedEntries bool
	Pretty                bool
}

// ListRow is the joined Feed+Blog projection used by the --list command
// surface, grounded on DBHelper.get_feed_list in the original tool.
type ListRow struct {
	FeedID                string
	FeedKind              FeedKind
	FeedURL               string
	LastRun               time.Time
	EarliestPost          *time.Time
	LatestPost            *time.Time
	IgnoreLiveFeedEntries bool
	EarliestEntry         *string
	LatestEntry           *string
	FullRSS               string
}
