package reconstruct

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
	"github.com/mohamedmoataz-oacc/history4feed/internal/feed"
	"github.com/mohamedmoataz-oacc/history4feed/internal/infra/archive"
	"github.com/mohamedmoataz-oacc/history4feed/internal/repository"
	"github.com/mohamedmoataz-oacc/history4feed/internal/usecase/enrich"
)

const dateLayout = "2006-01-02"

// snapshotFetchParallelism bounds how many archived captures are fetched at
// once; the archive service tolerates modest concurrency but this keeps a
// single reconstruction from hammering it with hundreds of captures at once.
const snapshotFetchParallelism = 4

// Fetcher is the subset of httpfetch.Fetcher the orchestrator needs for the
// live feed and archive captures.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Enricher is the subset of enrich.Service the orchestrator needs.
type Enricher interface {
	EnrichNew(ctx context.Context, merged map[string]feed.Entry, newLinks []string)
}

// Service is the orchestrator: per-URL reconstruction and bulk update.
type Service struct {
	fetcher  Fetcher
	enricher Enricher
	feeds    repository.FeedRepository
	blogs    repository.BlogRepository
	posts    repository.PostRepository
	now      func() time.Time
}

func New(fetcher Fetcher, enricher Enricher, feeds repository.FeedRepository, blogs repository.BlogRepository, posts repository.PostRepository) *Service {
	return &Service{fetcher: fetcher, enricher: enricher, feeds: feeds, blogs: blogs, posts: posts, now: time.Now}
}

// ensure enrich.Service satisfies Enricher without importing it at the
// exported-API surface.
var _ Enricher = (*enrich.Service)(nil)

// Request describes a single reconstruction invocation.
type Request struct {
	URL           string
	FromDate      string // YYYYMMDD, used on first run
	ToDate        string // YYYYMMDD
	Settings      entity.Settings
	IsUpdate      bool
}

// ReconstructURL fetches the live feed, discovers and merges archived
// snapshots with it and any prior persisted state, enriches new entries,
// and synthesizes and persists the resulting feed for a single URL.
func (s *Service) ReconstructURL(ctx context.Context, req Request) error {
	liveBytes, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return entity.NewError(entity.KindFetchTransport, "ReconstructURL", req.URL, err)
	}
	liveDoc, err := feed.ParseDocument(liveBytes, req.URL)
	if err != nil {
		return entity.NewError(entity.KindUnknownFeedType, "ReconstructURL", req.URL, err)
	}

	existing, err := s.feeds.ByURL(ctx, req.URL)
	if err != nil {
		return fmt.Errorf("ReconstructURL: looking up feed: %w", err)
	}

	newlyCreated := existing == nil
	if !newlyCreated && !req.IsUpdate {
		return entity.NewError(entity.KindConflict, "ReconstructURL", req.URL,
			fmt.Errorf("feed already exists; use --url with an update, or --delete first"))
	}

	var f entity.Feed
	settings := req.Settings
	if newlyCreated {
		f = entity.Feed{
			ID:      uuid.NewString(),
			Kind:    liveDoc.Kind,
			URL:     req.URL,
			Created: s.now().UTC(),
			LastRun: s.now().UTC(),
		}
	} else {
		f = *existing
		settings = entity.Settings{
			Retries:               existing.Retries,
			SleepSeconds:          existing.SleepSeconds,
			EarliestEntry:         existing.EarliestEntry,
			LatestEntry:           existing.LatestEntry,
			IgnoreLiveFeedEntries: existing.IgnoreLiveFeedEntries,
			Pretty:                existing.Pretty,
		}
	}
	f.Retries = settings.Retries
	f.SleepSeconds = settings.SleepSeconds
	f.EarliestEntry = settings.EarliestEntry
	f.LatestEntry = settings.LatestEntry
	f.IgnoreLiveFeedEntries = settings.IgnoreLiveFeedEntries
	f.Pretty = settings.Pretty

	fromDate, toDate := req.FromDate, req.ToDate
	var dbEntries map[string]feed.Entry
	var existingBlog *entity.Blog
	existingIDByLink := make(map[string]string)

	if req.IsUpdate && !newlyCreated {
		existingBlog, err = s.blogs.Get(ctx, f.ID)
		if err != nil {
			return fmt.Errorf("ReconstructURL: loading blog: %w", err)
		}
		var latestEntry time.Time
		if existingBlog != nil && existingBlog.LatestPost != nil && existingBlog.FullRSS != "" {
			latestEntry = *existingBlog.LatestPost
			dbDoc, err := feed.ParseDocument([]byte(existingBlog.FullRSS), fmt.Sprintf("db:blog_id=%s", f.ID))
			if err == nil {
				dbEntries = dbDoc.ExtractEntries(s.now())
			}
			existingPosts, err := s.posts.ByBlogID(ctx, f.ID)
			if err != nil {
				return fmt.Errorf("ReconstructURL: loading existing posts: %w", err)
			}
			for _, p := range existingPosts {
				existingIDByLink[p.Link] = p.ID
			}
		} else if f.EarliestEntry != nil {
			if t, perr := time.Parse(dateLayout, *f.EarliestEntry); perr == nil {
				latestEntry = t
			}
		}
		fromDate = latestEntry.Format("20060102")
		toDate = s.now().UTC().Format("20060102")
	}

	snapshots, err := archive.Discover(ctx, s.fetcher, req.URL, fromDate, toDate)
	if err != nil {
		return err
	}

	snapshotEntries := MergeSnapshotBatches(s.fetchSnapshotBatches(ctx, snapshots)...)

	if f.IgnoreLiveFeedEntries && len(snapshotEntries) == 0 {
		return entity.NewError(entity.KindFetchTransport, "ReconstructURL", req.URL,
			fmt.Errorf("no archive exists for this feed; cannot honor ignore_live_feed_entries"))
	}

	liveEntries := liveDoc.ExtractEntries(s.now())

	merged := Merge(snapshotEntries, liveEntries, dbEntries, f.IgnoreLiveFeedEntries)

	earliest, latest := windowBounds(fromDate, toDate, f.EarliestEntry, f.LatestEntry, req.IsUpdate)
	kept, newLinks := FilterByWindow(merged.Merged, merged.New, earliest, latest)

	rawXMLByLink := make(map[string]string, len(kept))
	for link, e := range kept {
		rawXML, err := e.RawXML()
		if err != nil {
			slog.Warn("failed to serialize entry raw xml", slog.String("link", link), slog.Any("error", err))
		}
		rawXMLByLink[link] = rawXML
	}

	if s.enricher != nil && len(newLinks) > 0 {
		s.enricher.EnrichNew(ctx, kept, newLinks)
	}

	blog := &entity.Blog{
		ID:          f.ID,
		Title:       liveDoc.Meta.Title,
		Description: liveDoc.Meta.Description,
		URL:         liveDoc.Meta.URL,
	}

	var newPosts []*entity.Post
	if len(kept) > 0 {
		allPosts := make([]*entity.Post, 0, len(kept))
		for link, e := range kept {
			rawXML := rawXMLByLink[link]
			p := &entity.Post{
				ID:          postIdentity(link, existingIDByLink),
				BlogID:      f.ID,
				Title:       e.Title,
				Link:        e.Link,
				Author:      e.Author,
				Created:     e.Created,
				Added:       e.Added,
				Categories:  entity.DedupCategories(e.Categories),
				Description: e.Description,
				RawXML:      rawXML,
			}
			allPosts = append(allPosts, p)
			for _, nl := range newLinks {
				if nl == link {
					newPosts = append(newPosts, p)
				}
			}
		}

		doc, err := feed.Synthesize(liveDoc.Meta, allPosts, f.Pretty, s.now().UTC())
		if err != nil {
			return fmt.Errorf("ReconstructURL: synthesizing feed: %w", err)
		}
		blog.FullRSS = doc

		var earliestPost, latestPost time.Time
		for i, p := range allPosts {
			if i == 0 || p.Created.Before(earliestPost) {
				earliestPost = p.Created
			}
			if i == 0 || p.Created.After(latestPost) {
				latestPost = p.Created
			}
		}
		blog.EarliestPost = &earliestPost
		blog.LatestPost = &latestPost
	}

	if newlyCreated {
		if err := s.feeds.Create(ctx, &f); err != nil {
			return fmt.Errorf("ReconstructURL: creating feed: %w", err)
		}
	}
	if err := s.blogs.Upsert(ctx, blog); err != nil {
		return fmt.Errorf("ReconstructURL: upserting blog: %w", err)
	}
	if len(newPosts) > 0 {
		if err := s.posts.UpsertBatch(ctx, newPosts); err != nil {
			return fmt.Errorf("ReconstructURL: upserting posts: %w", err)
		}
	}

	return nil
}

// fetchSnapshotBatches retrieves and parses every snapshot concurrently,
// bounded by snapshotFetchParallelism, preserving snapshots' ascending
// timestamp order in the returned slice so MergeSnapshotBatches still folds
// later captures over earlier ones. A capture that fails to fetch or parse
// is logged and simply omitted, never aborting the batch.
func (s *Service) fetchSnapshotBatches(ctx context.Context, snapshots []archive.Snapshot) []map[string]feed.Entry {
	batches := make([]map[string]feed.Entry, len(snapshots))
	sem := make(chan struct{}, snapshotFetchParallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for i, snap := range snapshots {
		i, snap := i, snap
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			body, err := s.fetcher.Fetch(egCtx, snap.FetchURL)
			if err != nil {
				slog.Warn("failed to retrieve archived capture", slog.String("url", snap.FetchURL), slog.Any("error", err))
				return nil
			}
			doc, err := feed.ParseDocument(body, snap.Timestamp)
			if err != nil {
				slog.Warn("failed to parse archived capture", slog.String("url", snap.FetchURL), slog.Any("error", err))
				return nil
			}
			batches[i] = doc.ExtractEntries(s.now())
			return nil
		})
	}
	_ = eg.Wait() // per-capture errors are already logged and swallowed above

	out := make([]map[string]feed.Entry, 0, len(batches))
	for _, b := range batches {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// UpdateAll re-reconstructs every feed whose latest_entry is unset (no
// user-imposed upper bound); a failure for one feed is logged and does not
// abort the batch.
func (s *Service) UpdateAll(ctx context.Context) {
	rows, err := s.feeds.List(ctx)
	if err != nil {
		slog.Error("listing feeds for bulk update failed", slog.Any("error", err))
		return
	}

	for _, row := range rows {
		if row.LatestEntry != nil {
			slog.Info("skipping windowed feed", slog.String("url", row.FeedURL))
			continue
		}
		req := Request{
			URL:      row.FeedURL,
			IsUpdate: true,
			Settings: entity.Settings{
				IgnoreLiveFeedEntries: row.IgnoreLiveFeedEntries,
				EarliestEntry:         row.EarliestEntry,
				LatestEntry:           row.LatestEntry,
			},
		}
		if err := s.ReconstructURL(ctx, req); err != nil {
			slog.Error("bulk update failed for feed", slog.String("url", row.FeedURL), slog.Any("error", err))
		}
	}
}

func windowBounds(fromDate, toDate string, earliestEntry, latestEntry *string, isUpdate bool) (*time.Time, *time.Time) {
	var earliest, latest *time.Time
	if isUpdate {
		if t, err := time.Parse("20060102", fromDate); err == nil {
			earliest = &t
		}
		if t, err := time.Parse("20060102", toDate); err == nil {
			latest = &t
		}
		return earliest, latest
	}
	if earliestEntry != nil {
		if t, err := time.Parse(dateLayout, *earliestEntry); err == nil {
			earliest = &t
		}
	}
	if latestEntry != nil {
		if t, err := time.Parse(dateLayout, *latestEntry); err == nil {
			latest = &t
		}
	}
	return earliest, latest
}

// postIdentity reuses the existing post's identity for link if one was
// already persisted, else assigns a fresh opaque one; identity, once
// assigned, is never recomputed.
func postIdentity(link string, existingIDByLink map[string]string) string {
	if id, ok := existingIDByLink[link]; ok {
		return id
	}
	return uuid.NewString()
}
