package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
)

type fakeFetcher struct {
	body []byte
	err  error
}

func (f fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.body, f.err
}

func TestDiscover_ParsesRowsAndSkipsHeader(t *testing.T) {
	body := []byte(`[["timestamp","original"],["20200101000000","https://example.com/feed"],["20190101000000","https://example.com/feed"]]`)
	f := fakeFetcher{body: body}

	snapshots, err := Discover(context.Background(), f, "https://example.com/feed", "", "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snapshots))
	}
	if snapshots[0].Timestamp != "20190101000000" || snapshots[1].Timestamp != "20200101000000" {
		t.Fatalf("snapshots not sorted ascending by timestamp: %+v", snapshots)
	}
}

func TestDiscover_BuildsIdFlaggedFetchURL(t *testing.T) {
	body := []byte(`[["timestamp","original"],["20200101000000","https://example.com/feed"]]`)
	f := fakeFetcher{body: body}

	snapshots, err := Discover(context.Background(), f, "https://example.com/feed", "", "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := "https://web.archive.org/web/20200101000000id_/https://example.com/feed"
	if snapshots[0].FetchURL != want {
		t.Fatalf("FetchURL = %q, want %q", snapshots[0].FetchURL, want)
	}
}

func TestDiscover_EmptyBodyReturnsNoSnapshotsNoError(t *testing.T) {
	f := fakeFetcher{body: nil}
	snapshots, err := Discover(context.Background(), f, "https://example.com/feed", "", "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if snapshots != nil {
		t.Fatalf("expected nil snapshots for an empty body, got %+v", snapshots)
	}
}

func TestDiscover_HeaderRowOnlyReturnsNoSnapshots(t *testing.T) {
	f := fakeFetcher{body: []byte(`[["timestamp","original"]]`)}
	snapshots, err := Discover(context.Background(), f, "https://example.com/feed", "", "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(snapshots) != 0 {
		t.Fatalf("expected no snapshots for a header-only response, got %+v", snapshots)
	}
}

func TestDiscover_FetchFailurePropagatesAsFetchTransportError(t *testing.T) {
	f := fakeFetcher{err: errors.New("network down")}
	_, err := Discover(context.Background(), f, "https://example.com/feed", "", "")
	if !entity.IsKind(err, entity.KindFetchTransport) {
		t.Fatalf("expected KindFetchTransport, got %v", err)
	}
}

func TestDiscover_MalformedJSONIsFetchTransportError(t *testing.T) {
	f := fakeFetcher{body: []byte("not json")}
	_, err := Discover(context.Background(), f, "https://example.com/feed", "", "")
	if !entity.IsKind(err, entity.KindFetchTransport) {
		t.Fatalf("expected KindFetchTransport for malformed cdx json, got %v", err)
	}
}
