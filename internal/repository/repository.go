// Package repository declares the storage-facing interfaces the use-case
// layer depends on. Concrete implementations live under
// internal/infra/persistence.
package repository

import (
	"context"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
)

// FeedRepository persists Feed rows.
type FeedRepository interface {
	// ByURL returns the Feed with the given URL, or (nil, nil) if absent.
	ByURL(ctx context.Context, url string) (*entity.Feed, error)
	// Create inserts a new Feed row.
	Create(ctx context.Context, feed *entity.Feed) error
	// List returns the joined Feed+Blog projection for every feed.
	List(ctx context.Context) ([]entity.ListRow, error)
	// DeleteByURL removes the Feed row and, via cascade, its Blog and Posts.
	DeleteByURL(ctx context.Context, url string) error
}

// BlogRepository persists Blog rows.
type BlogRepository interface {
	// Upsert inserts or replaces the Blog row for blog.ID.
	Upsert(ctx context.Context, blog *entity.Blog) error
	// Get returns the Blog for id, or (nil, nil) if absent.
	Get(ctx context.Context, id string) (*entity.Blog, error)
}

// PostRepository persists Post rows.
type PostRepository interface {
	// UpsertBatch inserts or replaces every post by identity.
	UpsertBatch(ctx context.Context, posts []*entity.Post) error
	// ByBlogID returns every post belonging to blogID.
	ByBlogID(ctx context.Context, blogID string) ([]*entity.Post, error)
}
