package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
	"github.com/mohamedmoataz-oacc/history4feed/internal/repository"
)

type BlogRepo struct{ db *sql.DB }

func NewBlogRepo(db *sql.DB) repository.BlogRepository {
	return &BlogRepo{db: db}
}

// Upsert inserts or replaces the Blog row and, on success, bumps the owning
// Feed's last_run, matching add_blog's combined behavior in the original
// tool.
func (repo *BlogRepo) Upsert(ctx context.Context, b *entity.Blog) error {
	const query = `
INSERT OR REPLACE INTO Blog
(id, title, description, url, latest_post, earliest_post, full_rss)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	var earliest, latest sql.NullString
	if b.EarliestPost != nil {
		earliest = sql.NullString{String: b.EarliestPost.UTC().Format(isoLayout), Valid: true}
	}
	if b.LatestPost != nil {
		latest = sql.NullString{String: b.LatestPost.UTC().Format(isoLayout), Valid: true}
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Upsert: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query, b.ID, b.Title, b.Description, b.URL, latest, earliest, b.FullRSS); err != nil {
		return fmt.Errorf("Upsert: ExecContext: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE Feed SET last_run = ? WHERE id = ?`,
		time.Now().UTC().Format(isoLayout), b.ID); err != nil {
		return fmt.Errorf("Upsert: touching last_run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Upsert: Commit: %w", err)
	}
	return nil
}

func (repo *BlogRepo) Get(ctx context.Context, id string) (*entity.Blog, error) {
	const query = `
SELECT id, title, description, url, latest_post, earliest_post, full_rss
FROM Blog
WHERE id = ?
LIMIT 1`

	var b entity.Blog
	var earliest, latest sql.NullString
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.Title, &b.Description, &b.URL, &latest, &earliest, &b.FullRSS,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: QueryRowContext: %w", err)
	}

	if earliest.Valid {
		t, err := time.Parse(isoLayout, earliest.String)
		if err != nil {
			return nil, fmt.Errorf("Get: parsing earliest_post: %w", err)
		}
		b.EarliestPost = &t
	}
	if latest.Valid {
		t, err := time.Parse(isoLayout, latest.String)
		if err != nil {
			return nil, fmt.Errorf("Get: parsing latest_post: %w", err)
		}
		b.LatestPost = &t
	}
	return &b, nil
}
