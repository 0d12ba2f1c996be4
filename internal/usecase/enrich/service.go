// Package enrich implements the full-text enricher: replacing a new post's
// feed-supplied body with the Readability-distilled content of its article
// page.
package enrich

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/mohamedmoataz-oacc/history4feed/internal/feed"
)

// Extractor is the subset of extractor.Extractor the enricher needs.
type Extractor interface {
	Extract(ctx context.Context, articleURL string) (string, error)
}

// Service paces article fetches to at most one per sleepSeconds, to stay a
// polite neighbor of whatever origin site hosts the article.
type Service struct {
	extractor Extractor
	limiter   *rate.Limiter
}

// New builds a Service that waits sleepSeconds between successive article
// fetches. A non-positive sleepSeconds disables pacing (burst of 1, limit
// effectively unbounded).
func New(extractor Extractor, sleepSeconds float64) *Service {
	var limiter *rate.Limiter
	if sleepSeconds > 0 {
		limiter = rate.NewLimiter(rate.Limit(1/sleepSeconds), 1)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Service{extractor: extractor, limiter: limiter}
}

// EnrichNew mutates, in place, the Description of every entry in merged
// whose link is in newLinks, replacing it with the extracted article body
// when extraction succeeds. A failed extraction is logged and the entry's
// existing body is left untouched; it never aborts the batch.
func (s *Service) EnrichNew(ctx context.Context, merged map[string]feed.Entry, newLinks []string) {
	for _, link := range newLinks {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		entry := merged[link]
		content, err := s.extractor.Extract(ctx, entry.Link)
		if err != nil {
			slog.Warn("article extraction failed, keeping existing body",
				slog.String("link", entry.Link), slog.Any("error", err))
			continue
		}

		entry.Description = content
		merged[link] = entry
	}
}
