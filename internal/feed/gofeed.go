package feed

import (
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
)

// sniff uses gofeed's lenient parser as a fallback feed-kind check when the
// strict xml.Unmarshal in ParseDocument fails outright (malformed entities,
// BOM quirks, non-well-formed XML that real-world feeds still ship). gofeed
// tolerates much of this but discards each item's raw XML subtree, so it is
// used only to decide whether data is "really" not a feed at all, not for
// entry extraction.
func sniff(data []byte) (FeedKind, bool) {
	fp := gofeed.NewParser()
	parsed, err := fp.ParseString(string(data))
	if err != nil || parsed == nil {
		return "", false
	}
	switch parsed.FeedType {
	case "rss", "rdf":
		return KindRSS, true
	case "atom":
		return KindAtom, true
	default:
		return "", false
	}
}

// parseViaGofeed builds a Document from gofeed's own channel/item view for
// feeds that fail strict XML parsing. Entries built this way lose the
// literal source element (gofeed flattens it) but still carry every field
// the merger and synthesizer need; RawXML is reconstructed the same way it
// is for strictly-parsed entries.
func parseViaGofeed(data []byte, sourceURL string) (*Document, error) {
	fp := gofeed.NewParser()
	parsed, err := fp.ParseString(string(data))
	if err != nil || parsed == nil {
		return nil, entity.NewError(entity.KindUnknownFeedType, "ParseDocument", sourceURL, err)
	}

	kind := KindRSS
	if parsed.FeedType == "atom" {
		kind = KindAtom
	}

	now := time.Now().UTC()
	entries := map[string]Entry{}
	for _, item := range parsed.Items {
		if item.Link == "" || item.PublishedParsed == nil {
			continue
		}
		desc := item.Content
		if desc == "" {
			desc = item.Description
		}
		var cats []string
		cats = append(cats, item.Categories...)
		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}
		entries[item.Link] = Entry{
			Kind:        kind,
			Link:        item.Link,
			Title:       item.Title,
			Author:      author,
			Categories:  entity.DedupCategories(cats),
			Created:     *item.PublishedParsed,
			Added:       now,
			Description: desc,
		}
	}

	meta := ChannelMeta{Title: parsed.Title, Description: parsed.Description}
	if parsed.Link != "" {
		meta.URL = parsed.Link
	} else {
		meta.URL = sourceURL
	}

	return &Document{Kind: kind, Meta: meta, fallbackEntries: entries}, nil
}
