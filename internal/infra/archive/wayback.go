// Package archive implements the archive snapshot discoverer: querying the
// Wayback Machine's public CDX capture index and building per-capture
// fetch URLs.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
	"github.com/mohamedmoataz-oacc/history4feed/internal/resilience/retry"
)

// cdxEndpoint is the archive service's public capture-index API.
const cdxEndpoint = "http://web.archive.org/cdx/search/cdx"

// archiveHost is the host captures are fetched from.
const archiveHost = "https://web.archive.org"

// Fetcher is the subset of httpfetch.Fetcher the discoverer needs, narrowed
// to ease testing with a fake.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Snapshot is a single unique capture within the requested window.
type Snapshot struct {
	Timestamp string // YYYYMMDDhhmmss
	FetchURL  string // as-captured, unmodified payload URL
}

// Discover enumerates unique captures of targetURL within [from, to]
// (YYYYMMDD), ordered by capture timestamp ascending. Uniqueness is
// delegated to the index's own digest-collapse; capture HTTP status is not
// filtered, so a 404 or redirect snapshot is still returned for the caller
// to retrieve and judge.
func Discover(ctx context.Context, f Fetcher, targetURL, from, to string) ([]Snapshot, error) {
	q := url.Values{}
	q.Set("url", targetURL)
	q.Set("output", "json")
	q.Set("collapse", "digest")
	q.Set("fl", "timestamp,original")
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}

	indexURL := cdxEndpoint + "?" + q.Encode()

	var body []byte
	err := retry.WithBackoff(ctx, retry.ArchiveIndexConfig(), func() error {
		var fetchErr error
		body, fetchErr = f.Fetch(ctx, indexURL)
		return fetchErr
	})
	if err != nil {
		return nil, entity.NewError(entity.KindFetchTransport, "Discover", targetURL, err)
	}
	if len(body) == 0 {
		return nil, nil
	}

	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, entity.NewError(entity.KindFetchTransport, "Discover", targetURL,
			fmt.Errorf("decoding cdx response: %w", err))
	}
	if len(rows) <= 1 {
		return nil, nil // header row only, or empty
	}

	snapshots := make([]Snapshot, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		timestamp, original := row[0], row[1]
		snapshots = append(snapshots, Snapshot{
			Timestamp: timestamp,
			FetchURL:  fmt.Sprintf("%s/web/%sid_/%s", archiveHost, timestamp, original),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Timestamp < snapshots[j].Timestamp })
	return snapshots, nil
}
