package reconstruct

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
	"github.com/mohamedmoataz-oacc/history4feed/internal/feed"
)

const liveFeedFixture = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <description>desc</description>
    <link>https://example.com</link>
    <item>
      <title>Post One</title>
      <link>https://example.com/post-1</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 +0000</pubDate>
      <description>Body one</description>
    </item>
  </channel>
</rss>`

type fakeFetcher struct {
	responses map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if body, ok := f.responses[url]; ok {
		return body, nil
	}
	return nil, nil // archive CDX queries default to "no captures"
}

type fakeFeeds struct {
	byURL   map[string]*entity.Feed
	created []*entity.Feed
}

func (f *fakeFeeds) ByURL(ctx context.Context, url string) (*entity.Feed, error) {
	return f.byURL[url], nil
}
func (f *fakeFeeds) Create(ctx context.Context, feed *entity.Feed) error {
	f.created = append(f.created, feed)
	if f.byURL == nil {
		f.byURL = make(map[string]*entity.Feed)
	}
	f.byURL[feed.URL] = feed
	return nil
}
func (f *fakeFeeds) List(ctx context.Context) ([]entity.ListRow, error) { return nil, nil }
func (f *fakeFeeds) DeleteByURL(ctx context.Context, url string) error  { return nil }

type fakeBlogs struct {
	upserted *entity.Blog
	getErr   error
	existing *entity.Blog
}

func (b *fakeBlogs) Upsert(ctx context.Context, blog *entity.Blog) error {
	b.upserted = blog
	return nil
}
func (b *fakeBlogs) Get(ctx context.Context, id string) (*entity.Blog, error) {
	return b.existing, b.getErr
}

type fakePosts struct {
	batches      [][]*entity.Post
	byBlogID     map[string][]*entity.Post
	byBlogIDHits int
}

func (p *fakePosts) UpsertBatch(ctx context.Context, posts []*entity.Post) error {
	p.batches = append(p.batches, posts)
	return nil
}
func (p *fakePosts) ByBlogID(ctx context.Context, blogID string) ([]*entity.Post, error) {
	p.byBlogIDHits++
	return p.byBlogID[blogID], nil
}

func TestReconstructURL_FirstRunCreatesFeedBlogAndPosts(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string][]byte{
		"https://example.com/feed": []byte(liveFeedFixture),
	}}
	feeds := &fakeFeeds{}
	blogs := &fakeBlogs{}
	posts := &fakePosts{}

	svc := New(fetcher, nil, feeds, blogs, posts)

	err := svc.ReconstructURL(context.Background(), Request{URL: "https://example.com/feed"})
	if err != nil {
		t.Fatalf("ReconstructURL: %v", err)
	}

	if len(feeds.created) != 1 {
		t.Fatalf("expected one Feed to be created, got %d", len(feeds.created))
	}
	if blogs.upserted == nil || blogs.upserted.Title != "Example Blog" {
		t.Fatalf("expected the blog to be upserted with the parsed title, got %+v", blogs.upserted)
	}
	if len(posts.batches) != 1 || len(posts.batches[0]) != 1 {
		t.Fatalf("expected a single batch of one new post, got %+v", posts.batches)
	}
	if posts.batches[0][0].Link != "https://example.com/post-1" {
		t.Fatalf("unexpected post: %+v", posts.batches[0][0])
	}
}

func TestReconstructURL_ExistingFeedWithoutUpdateIsConflict(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string][]byte{
		"https://example.com/feed": []byte(liveFeedFixture),
	}}
	feeds := &fakeFeeds{byURL: map[string]*entity.Feed{
		"https://example.com/feed": {ID: "existing-id", URL: "https://example.com/feed"},
	}}
	blogs := &fakeBlogs{}
	posts := &fakePosts{}

	svc := New(fetcher, nil, feeds, blogs, posts)
	err := svc.ReconstructURL(context.Background(), Request{URL: "https://example.com/feed"})
	if !entity.IsKind(err, entity.KindConflict) {
		t.Fatalf("expected KindConflict, got %v", err)
	}
}

func TestReconstructURL_UpdateWithUnchangedWorldUpsertsNoNewPosts(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string][]byte{
		"https://example.com/feed": []byte(liveFeedFixture),
	}}
	feedID := "feed-1"
	feeds := &fakeFeeds{byURL: map[string]*entity.Feed{
		"https://example.com/feed": {ID: feedID, URL: "https://example.com/feed"},
	}}
	latestPost := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	blogs := &fakeBlogs{existing: &entity.Blog{ID: feedID, LatestPost: &latestPost, FullRSS: liveFeedFixture}}
	posts := &fakePosts{byBlogID: map[string][]*entity.Post{
		feedID: {{ID: "stable-post-id", BlogID: feedID, Link: "https://example.com/post-1"}},
	}}

	svc := New(fetcher, nil, feeds, blogs, posts)
	err := svc.ReconstructURL(context.Background(), Request{URL: "https://example.com/feed", IsUpdate: true})
	if err != nil {
		t.Fatalf("ReconstructURL: %v", err)
	}

	if posts.byBlogIDHits != 1 {
		t.Fatalf("expected the orchestrator to load existing posts once for identity lookup, got %d calls", posts.byBlogIDHits)
	}
	if len(posts.batches) != 0 {
		t.Fatalf("unchanged world should upsert no new posts, got %+v", posts.batches)
	}
}

type fakeEnricher struct{ replacement string }

func (e *fakeEnricher) EnrichNew(ctx context.Context, merged map[string]feed.Entry, newLinks []string) {
	for _, link := range newLinks {
		entry := merged[link]
		entry.Description = e.replacement
		merged[link] = entry
	}
}

func TestReconstructURL_StoredRawXMLPredatesEnrichment(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string][]byte{
		"https://example.com/feed": []byte(liveFeedFixture),
	}}
	feeds := &fakeFeeds{}
	blogs := &fakeBlogs{}
	posts := &fakePosts{}
	enricher := &fakeEnricher{replacement: "Enriched full-text body"}

	svc := New(fetcher, enricher, feeds, blogs, posts)

	err := svc.ReconstructURL(context.Background(), Request{URL: "https://example.com/feed"})
	if err != nil {
		t.Fatalf("ReconstructURL: %v", err)
	}

	if len(posts.batches) != 1 || len(posts.batches[0]) != 1 {
		t.Fatalf("expected a single batch of one new post, got %+v", posts.batches)
	}
	p := posts.batches[0][0]
	if p.Description != "Enriched full-text body" {
		t.Fatalf("expected the post's Description to reflect enrichment, got %q", p.Description)
	}
	if strings.Contains(p.RawXML, "Enriched full-text body") {
		t.Fatalf("RawXML should hold the pre-enrichment body, got %q", p.RawXML)
	}
	if !strings.Contains(p.RawXML, "Body one") {
		t.Fatalf("RawXML should still hold the original entry body, got %q", p.RawXML)
	}
}

func TestPostIdentity_AssignsFreshUUIDForUnknownLink(t *testing.T) {
	id := postIdentity("https://example.com/new", map[string]string{})
	if id == "" {
		t.Fatal("expected a non-empty identity for an unseen link")
	}
}
