package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
)

// ChannelMeta is the channel-level metadata extracted during detection:
// title, description, canonical link, and any namespace prefixes declared
// on the root element (carried for completeness; the synthesizer always
// emits a generic RSS 2.0 document and does not re-declare them).
type ChannelMeta struct {
	Title       string
	Description string
	URL         string
	Namespaces  map[string]string
}

// Document is a parsed feed: its kind, channel metadata, and the raw node
// tree, which ExtractEntries walks to pull out individual entries.
type Document struct {
	Kind FeedKind
	Meta ChannelMeta
	root Node

	// fallbackEntries is set only when this Document was produced by the
	// gofeed recovery path; ExtractEntries returns it directly instead of
	// walking root, which is empty in that case.
	fallbackEntries map[string]Entry
}

// FeedKind mirrors entity.FeedKind to avoid importing entity into every
// caller that only needs parsing.
type FeedKind = entity.FeedKind

const (
	KindRSS  = entity.FeedKindRSS
	KindAtom = entity.FeedKindAtom
)

// ParseDocument detects whether data is RSS or Atom and extracts channel
// metadata. It returns an *entity.Error of KindUnknownFeedType if data is
// neither.
func ParseDocument(data []byte, sourceURL string) (*Document, error) {
	var root Node
	if err := xml.Unmarshal(data, &root); err != nil {
		if !looksLikeXML(data) {
			return nil, entity.NewError(entity.KindUnknownFeedType, "ParseDocument", sourceURL, err)
		}
		if _, ok := sniff(data); !ok {
			return nil, entity.NewError(entity.KindUnknownFeedType, "ParseDocument", sourceURL, err)
		}
		// gofeed recovered a feed from XML our strict decoder rejected; fall
		// back to its own (lossy, but non-empty) channel/entry view so a
		// malformed-but-real feed isn't treated as unknown.
		return parseViaGofeed(data, sourceURL)
	}

	switch {
	case root.XMLName.Local == "rss":
		channel := root.FirstChild("channel")
		if channel == nil {
			return nil, entity.NewError(entity.KindUnknownFeedType, "ParseDocument", sourceURL,
				fmt.Errorf("rss document has no channel element"))
		}
		return &Document{
			Kind: KindRSS,
			Meta: ChannelMeta{
				Title:       channel.FirstChild("title").Text(),
				Description: channel.FirstChild("description").Text(),
				URL:         channel.FirstChild("link").Text(),
				Namespaces:  root.Namespaces(),
			},
			root: root,
		}, nil
	case root.XMLName.Local == "feed":
		return &Document{
			Kind: KindAtom,
			Meta: ChannelMeta{
				Title:       root.FirstChild("title").Text(),
				Description: root.FirstChild("subtitle").Text(),
				URL:         atomLink(&root, "alternate"),
				Namespaces:  root.Namespaces(),
			},
			root: root,
		}, nil
	default:
		return nil, entity.NewError(entity.KindUnknownFeedType, "ParseDocument", sourceURL,
			fmt.Errorf("root element %q is neither rss nor feed", root.XMLName.Local))
	}
}

// ExtractEntries walks the document and returns every entry keyed by link,
// matching the keying convention entry maps use throughout merging. Entries
// whose publish date can't be parsed are silently dropped (their link never
// appears in the returned map), matching §4.2's reject-unparseable-dates
// rule; now is used as each entry's Added timestamp.
func (d *Document) ExtractEntries(now time.Time) map[string]Entry {
	if d.fallbackEntries != nil {
		return d.fallbackEntries
	}
	entries := map[string]Entry{}
	var items []*Node
	if d.Kind == KindAtom {
		items = d.root.Children("entry")
	} else {
		if channel := d.root.FirstChild("channel"); channel != nil {
			items = channel.Children("item")
		}
	}

	for _, item := range items {
		var link string
		if d.Kind == KindAtom {
			link = atomLink(item, "alternate")
		} else {
			link = item.FirstChild("link").Text()
		}
		if link == "" {
			continue
		}

		created, err := extractPublishDate(item)
		if err != nil {
			continue
		}

		desc := item.FirstChild("description")
		if d.Kind == KindAtom {
			if c := item.FirstChild("content"); c != nil {
				desc = c
			} else {
				desc = item.FirstChild("summary")
			}
		}

		entries[link] = Entry{
			Kind:        d.Kind,
			Link:        link,
			Title:       item.FirstChild("title").Text(),
			Author:      author(item),
			Categories:  entity.DedupCategories(categories(item)),
			Created:     created,
			Added:       now,
			Description: desc.Text(),
		}
	}
	return entries
}

// extractPublishDate reads the published element if present, else pubDate,
// and parses it permissively.
func extractPublishDate(item *Node) (time.Time, error) {
	published := item.FirstChild("published")
	if published == nil {
		published = item.FirstChild("pubDate")
	}
	if published == nil {
		return time.Time{}, fmt.Errorf("no publish date element")
	}
	return parseDate(published.Text())
}

// looksLikeXML is a cheap guard used before attempting to parse bytes that
// might be an HTML error page rather than a feed.
func looksLikeXML(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return bytes.HasPrefix(trimmed, []byte("<"))
}
