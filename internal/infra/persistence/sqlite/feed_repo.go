// Package sqlite implements the persistence interfaces against the
// embedded sqlite store opened by internal/infra/db.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
	"github.com/mohamedmoataz-oacc/history4feed/internal/repository"
)

const isoLayout = time.RFC3339

type FeedRepo struct{ db *sql.DB }

func NewFeedRepo(db *sql.DB) repository.FeedRepository {
	return &FeedRepo{db: db}
}

func (repo *FeedRepo) ByURL(ctx context.Context, url string) (*entity.Feed, error) {
	const query = `
SELECT id, type, url, created, last_run, retries, sleep_seconds,
       earliest_entry, latest_entry, ignore_live_feed_entries, pretty
FROM Feed
WHERE url = ?
LIMIT 1`

	var f entity.Feed
	var created, lastRun string
	err := repo.db.QueryRowContext(ctx, query, url).Scan(
		&f.ID, &f.Kind, &f.URL, &created, &lastRun, &f.Retries, &f.SleepSeconds,
		&f.EarliestEntry, &f.LatestEntry, &f.IgnoreLiveFeedEntries, &f.Pretty,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ByURL: QueryRowContext: %w", err)
	}

	if f.Created, err = time.Parse(isoLayout, created); err != nil {
		return nil, fmt.Errorf("ByURL: parsing created: %w", err)
	}
	if f.LastRun, err = time.Parse(isoLayout, lastRun); err != nil {
		return nil, fmt.Errorf("ByURL: parsing last_run: %w", err)
	}
	return &f, nil
}

func (repo *FeedRepo) Create(ctx context.Context, f *entity.Feed) error {
	const query = `
INSERT INTO Feed
(id, type, url, created, last_run, retries, sleep_seconds,
 earliest_entry, latest_entry, ignore_live_feed_entries, pretty)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := repo.db.ExecContext(ctx, query,
		f.ID, f.Kind, f.URL, f.Created.UTC().Format(isoLayout), f.LastRun.UTC().Format(isoLayout),
		f.Retries, f.SleepSeconds, f.EarliestEntry, f.LatestEntry, f.IgnoreLiveFeedEntries, f.Pretty,
	)
	if err != nil {
		return fmt.Errorf("Create: ExecContext: %w", err)
	}
	return nil
}

func (repo *FeedRepo) List(ctx context.Context) ([]entity.ListRow, error) {
	const query = `
SELECT
    f.id, f.type, f.url, f.last_run, f.ignore_live_feed_entries,
    f.earliest_entry, f.latest_entry,
    b.earliest_post, b.latest_post, b.full_rss
FROM Feed f
LEFT JOIN Blog b ON b.id = f.id
ORDER BY f.created ASC`

	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]entity.ListRow, 0, 32)
	for rows.Next() {
		var r entity.ListRow
		var lastRun string
		var earliestPost, latestPost sql.NullString
		var fullRSS sql.NullString

		if err := rows.Scan(&r.FeedID, &r.FeedKind, &r.FeedURL, &lastRun, &r.IgnoreLiveFeedEntries,
			&r.EarliestEntry, &r.LatestEntry, &earliestPost, &latestPost, &fullRSS); err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}

		if r.LastRun, err = time.Parse(isoLayout, lastRun); err != nil {
			return nil, fmt.Errorf("List: parsing last_run: %w", err)
		}
		if earliestPost.Valid {
			t, err := time.Parse(isoLayout, earliestPost.String)
			if err != nil {
				return nil, fmt.Errorf("List: parsing earliest_post: %w", err)
			}
			r.EarliestPost = &t
		}
		if latestPost.Valid {
			t, err := time.Parse(isoLayout, latestPost.String)
			if err != nil {
				return nil, fmt.Errorf("List: parsing latest_post: %w", err)
			}
			r.LatestPost = &t
		}
		r.FullRSS = fullRSS.String

		out = append(out, r)
	}
	return out, rows.Err()
}

func (repo *FeedRepo) DeleteByURL(ctx context.Context, url string) error {
	const query = `DELETE FROM Feed WHERE url = ?`
	_, err := repo.db.ExecContext(ctx, query, url)
	if err != nil {
		return fmt.Errorf("DeleteByURL: ExecContext: %w", err)
	}
	return nil
}
