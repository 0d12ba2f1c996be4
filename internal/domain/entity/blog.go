package entity

import "time"

// Blog is the rendered view of a Feed: its channel metadata plus the
// serialized output document. Identity equals the owning Feed's identity.
type Blog struct {
	ID           string
	Title        string
	Description  string
	URL          string
	EarliestPost *time.Time
	LatestPost   *time.Time
	FullRSS      string
}
