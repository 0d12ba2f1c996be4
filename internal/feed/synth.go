package feed

import (
	"encoding/xml"
	"sort"
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
)

// generatorName identifies this system in the generator element of every
// synthesized feed, in place of the upstream tool's own self-link.
const generatorName = "history4feed (Go)"

type outRSS struct {
	XMLName xml.Name  `xml:"rss"`
	Version string    `xml:"version,attr"`
	Channel outChannel `xml:"channel"`
}

type outChannel struct {
	Title         string    `xml:"title"`
	Description   string    `xml:"description"`
	Link          string    `xml:"link"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Generator     string    `xml:"generator"`
	Items         []outItem `xml:"item"`
}

type outItem struct {
	Title       string      `xml:"title"`
	Link        outItemLink `xml:"link"`
	PubDate     string      `xml:"pubDate"`
	Description string      `xml:"description"`
	Category    []string    `xml:"category,omitempty"`
	Author      *outAuthor  `xml:"author,omitempty"`
}

type outItemLink struct {
	Href  string `xml:"href,attr"`
	Value string `xml:",chardata"`
}

type outAuthor struct {
	Name string `xml:"name"`
}

// Synthesize builds the canonical RSS 2.0 output document from the merged,
// date-filtered set of posts. pretty controls whether the XML is indented.
func Synthesize(meta ChannelMeta, posts []*entity.Post, pretty bool, now time.Time) (string, error) {
	sorted := append([]*entity.Post(nil), posts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Created.After(sorted[j].Created) })

	channel := outChannel{
		Title:         meta.Title,
		Description:   meta.Description,
		Link:          meta.URL,
		LastBuildDate: now.UTC().Format(time.RFC1123Z),
		Generator:     generatorName,
	}
	for _, p := range sorted {
		item := outItem{
			Title:       p.Title,
			Link:        outItemLink{Href: p.Link, Value: p.Link},
			PubDate:     p.Created.UTC().Format(time.RFC1123Z),
			Description: p.Description,
			Category:    p.Categories,
		}
		if p.Author != "" {
			item.Author = &outAuthor{Name: p.Author}
		}
		channel.Items = append(channel.Items, item)
	}

	doc := outRSS{Version: "2.0", Channel: channel}

	var out []byte
	var err error
	if pretty {
		out, err = xml.MarshalIndent(doc, "", "  ")
	} else {
		out, err = xml.Marshal(doc)
	}
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}
