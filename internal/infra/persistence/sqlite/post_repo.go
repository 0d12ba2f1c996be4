package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
	"github.com/mohamedmoataz-oacc/history4feed/internal/repository"
)

type PostRepo struct{ db *sql.DB }

func NewPostRepo(db *sql.DB) repository.PostRepository {
	return &PostRepo{db: db}
}

func (repo *PostRepo) UpsertBatch(ctx context.Context, posts []*entity.Post) error {
	if len(posts) == 0 {
		return nil
	}

	const query = `
INSERT OR REPLACE INTO Post
(id, blog_id, title, link, author, created, added, categories, description, raw_xml)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("UpsertBatch: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("UpsertBatch: PrepareContext: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range posts {
		categories, err := json.Marshal(entity.DedupCategories(p.Categories))
		if err != nil {
			return fmt.Errorf("UpsertBatch: marshaling categories: %w", err)
		}
		_, err = stmt.ExecContext(ctx, p.ID, p.BlogID, p.Title, p.Link, p.Author,
			p.Created.UTC().Format(isoLayout), p.Added.UTC().Format(isoLayout),
			string(categories), p.Description, p.RawXML)
		if err != nil {
			return fmt.Errorf("UpsertBatch: ExecContext: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("UpsertBatch: Commit: %w", err)
	}
	return nil
}

func (repo *PostRepo) ByBlogID(ctx context.Context, blogID string) ([]*entity.Post, error) {
	const query = `
SELECT id, blog_id, title, link, author, created, added, categories, description, raw_xml
FROM Post
WHERE blog_id = ?
ORDER BY created ASC`

	rows, err := repo.db.QueryContext(ctx, query, blogID)
	if err != nil {
		return nil, fmt.Errorf("ByBlogID: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := make([]*entity.Post, 0, 64)
	for rows.Next() {
		var p entity.Post
		var created, added, categories string
		if err := rows.Scan(&p.ID, &p.BlogID, &p.Title, &p.Link, &p.Author,
			&created, &added, &categories, &p.Description, &p.RawXML); err != nil {
			return nil, fmt.Errorf("ByBlogID: Scan: %w", err)
		}

		if p.Created, err = time.Parse(isoLayout, created); err != nil {
			return nil, fmt.Errorf("ByBlogID: parsing created: %w", err)
		}
		if p.Added, err = time.Parse(isoLayout, added); err != nil {
			return nil, fmt.Errorf("ByBlogID: parsing added: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
			return nil, fmt.Errorf("ByBlogID: unmarshaling categories: %w", err)
		}

		posts = append(posts, &p)
	}
	return posts, rows.Err()
}
