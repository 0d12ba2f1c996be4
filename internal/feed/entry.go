package feed

import (
	"encoding/xml"
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/domain/entity"
)

// Entry is the transient "entry bundle": a single feed item pulled from a
// document, before it is merged across sources and persisted as a Post.
type Entry struct {
	Kind        entity.FeedKind
	Link        string
	Title       string
	Author      string
	Categories  []string
	Created     time.Time
	Added       time.Time
	Description string
}

// rawItem mirrors an RSS <item>, used only to re-serialize one for storage
// as a Post's pre-enrichment raw XML snapshot (see design note on XML
// element reparenting: rebuilding the subtree from extracted fields is an
// explicitly sanctioned alternative to mutating the parsed tree in place).
type rawItem struct {
	XMLName     xml.Name     `xml:"item"`
	Title       string       `xml:"title"`
	Link        rawItemLink  `xml:"link"`
	PubDate     string       `xml:"pubDate"`
	Description string       `xml:"description"`
	Category    []string     `xml:"category,omitempty"`
	Author      *rawAuthorEl `xml:"author,omitempty"`
}

type rawItemLink struct {
	Href  string `xml:"href,attr"`
	Value string `xml:",chardata"`
}

type rawAuthorEl struct {
	Name string `xml:"name"`
}

type rawEntry struct {
	XMLName   xml.Name      `xml:"entry"`
	Title     string        `xml:"title"`
	Link      rawAtomLink   `xml:"link"`
	Published string        `xml:"published"`
	Content   rawAtomBody   `xml:"content"`
	Category  []rawCategory `xml:"category,omitempty"`
	Author    *rawAuthorEl  `xml:"author,omitempty"`
}

type rawAtomLink struct {
	Rel  string `xml:"rel,attr,omitempty"`
	Href string `xml:"href,attr"`
}

type rawAtomBody struct {
	Type  string `xml:"type,attr,omitempty"`
	Value string `xml:",cdata"`
}

type rawCategory struct {
	Term  string `xml:"term,attr,omitempty"`
	Value string `xml:",chardata"`
}

// RawXML reconstructs the entry's source element as XML text, in the shape
// appropriate to e.Kind. It is computed once, before full-text enrichment,
// and stored verbatim on the persisted Post.
func (e *Entry) RawXML() (string, error) {
	var v interface{}
	switch e.Kind {
	case entity.FeedKindAtom:
		ae := &rawEntry{
			Title:     e.Title,
			Link:      rawAtomLink{Rel: "alternate", Href: e.Link},
			Published: e.Created.UTC().Format(time.RFC3339),
			Content:   rawAtomBody{Type: "html", Value: e.Description},
		}
		for _, c := range e.Categories {
			ae.Category = append(ae.Category, rawCategory{Term: c})
		}
		if e.Author != "" {
			ae.Author = &rawAuthorEl{Name: e.Author}
		}
		v = ae
	default:
		ri := &rawItem{
			Title:       e.Title,
			Link:        rawItemLink{Href: e.Link, Value: e.Link},
			PubDate:     e.Created.UTC().Format(time.RFC1123Z),
			Description: e.Description,
			Category:    append([]string(nil), e.Categories...),
		}
		if e.Author != "" {
			ri.Author = &rawAuthorEl{Name: e.Author}
		}
		v = ri
	}
	out, err := xml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
