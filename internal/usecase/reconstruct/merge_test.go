package reconstruct

import (
	"testing"
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/feed"
)

func entry(link, title string) feed.Entry {
	return feed.Entry{Link: link, Title: title, Created: time.Now()}
}

func TestMerge_SourcePrecedence(t *testing.T) {
	s := map[string]feed.Entry{"a": entry("a", "from-s"), "b": entry("b", "from-s")}
	l := map[string]feed.Entry{"b": entry("b", "from-l"), "c": entry("c", "from-l")}
	d := map[string]feed.Entry{"c": entry("c", "from-d")}

	result := Merge(s, l, d, false)

	if result.Merged["a"].Title != "from-s" {
		t.Errorf("a: want from-s, got %s", result.Merged["a"].Title)
	}
	if result.Merged["b"].Title != "from-l" {
		t.Errorf("b: L should win over S, got %s", result.Merged["b"].Title)
	}
	if result.Merged["c"].Title != "from-d" {
		t.Errorf("c: D should win over L, got %s", result.Merged["c"].Title)
	}
}

func TestMerge_NewIsMergedMinusDB(t *testing.T) {
	s := map[string]feed.Entry{"a": entry("a", "s")}
	l := map[string]feed.Entry{"b": entry("b", "l")}
	d := map[string]feed.Entry{"b": entry("b", "d")}

	result := Merge(s, l, d, false)

	if len(result.New) != 1 || result.New[0] != "a" {
		t.Fatalf("New = %v, want [a] (b is already in D)", result.New)
	}
}

func TestMerge_IgnoreLiveFeedEntries_RemovesLiveOnlyLinks(t *testing.T) {
	s := map[string]feed.Entry{"a": entry("a", "s")}
	l := map[string]feed.Entry{"a": entry("a", "l"), "b": entry("b", "l-only")}
	d := map[string]feed.Entry{}

	result := Merge(s, l, d, true)

	if _, ok := result.Merged["b"]; ok {
		t.Fatal("link present only in L must be removed when ignore_live_feed_entries is set")
	}
	if result.Merged["a"].Title != "s" {
		t.Fatalf("a should keep its S value since only L is ignored, got %s", result.Merged["a"].Title)
	}
}

func TestFilterByWindow(t *testing.T) {
	mkTime := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	entries := map[string]feed.Entry{
		"early": {Link: "early", Created: mkTime(2020, 1, 1)},
		"mid":   {Link: "mid", Created: mkTime(2022, 6, 1)},
		"late":  {Link: "late", Created: mkTime(2030, 1, 1)},
	}
	earliest := mkTime(2021, 1, 1)
	latest := mkTime(2025, 1, 1)

	kept, newLinks := FilterByWindow(entries, []string{"early", "mid", "late"}, &earliest, &latest)

	if len(kept) != 1 {
		t.Fatalf("kept = %v, want only \"mid\"", kept)
	}
	if _, ok := kept["mid"]; !ok {
		t.Fatalf("expected mid to survive the window filter, got %v", kept)
	}
	if len(newLinks) != 1 || newLinks[0] != "mid" {
		t.Fatalf("newLinks = %v, want [mid]", newLinks)
	}
}

func TestFilterByWindow_NilBoundsAreOpen(t *testing.T) {
	entries := map[string]feed.Entry{"x": {Link: "x", Created: time.Now()}}
	kept, _ := FilterByWindow(entries, []string{"x"}, nil, nil)
	if len(kept) != 1 {
		t.Fatalf("expected nil bounds to keep everything, got %v", kept)
	}
}

func TestMergeSnapshotBatches_LaterBatchWins(t *testing.T) {
	batch1 := map[string]feed.Entry{"a": entry("a", "older-capture")}
	batch2 := map[string]feed.Entry{"a": entry("a", "newer-capture")}

	merged := MergeSnapshotBatches(batch1, batch2)

	if merged["a"].Title != "newer-capture" {
		t.Fatalf("expected the later batch to win, got %s", merged["a"].Title)
	}
}
