package podcast

import (
	"errors"
	"fmt"
	"io"
	"strings"

	xpp "github.com/mmcdole/goxpp"
)

// ErrUnsupportedFormat is returned when the document's root element is not
// <rss>. Callers may retry with a general-purpose feed parser.
var ErrUnsupportedFormat = errors.New("podcast: document is not an RSS feed")

// Conventional prefixes for the namespaces the binding table cares about.
// Feeds that declare these namespaces dispatch identically to feeds that
// use the bare prefixes without declaring them; unknown prefixes pass
// through as literals. The decoder expands the predeclared xml prefix to
// its namespace URI, so it is mapped back for xml:base attribute lookup.
var canonicalPrefixes = map[string]string{
	"http://www.itunes.com/dtds/podcast-1.0.dtd": "itunes",
	"http://www.w3.org/2005/atom":                "atom",
	"http://www.w3.org/xml/1998/namespace":       "xml",
}

// Parser converts podcast RSS documents into normalized Podcast values. It
// holds no per-parse state, so one Parser may serve concurrent Run calls.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Run consumes the XML document from r and returns the finalized podcast.
// feedURL is the feed's own address, used to resolve enclosure URLs (the
// document's xml:base, when present, applies to guids only). maxEpisodes
// caps the episode list after sorting; 0 means unlimited.
//
// Malformed XML aborts the parse with an error and no partial result.
// Unknown elements and unparseable attribute values never do: the former
// are skipped, the latter degrade to their documented defaults. The
// decoder runs in non-strict mode, so some technically ill-formed input
// (undeclared namespace prefixes, unknown entities) is tolerated rather
// than rejected.
func (p *Parser) Run(feedURL string, r io.Reader, maxEpisodes int) (*Podcast, error) {
	xp := xpp.NewXMLPullParser(r, false, newReaderLabel)

	st := &parseState{
		feedURL:     feedURL,
		maxEpisodes: maxEpisodes,
		podcast:     &Podcast{Episodes: []Episode{}},
	}

	for {
		event, err := xp.Next()
		if err != nil {
			return nil, fmt.Errorf("podcast: malformed document: %w", err)
		}

		switch event {
		case xpp.StartTag:
			name := elementName(xp)
			if len(st.path) == 0 && name != "rss" {
				return nil, ErrUnsupportedFormat
			}
			st.startElement(name, elementAttrs(xp))
		case xpp.Text:
			st.characters(xp.Text)
		case xpp.EndTag:
			st.endElement()
		case xpp.EndDocument:
			return st.podcast, nil
		}
	}
}

// parseState is the per-invocation parser state: the element path, the
// handler resolved for each open element, the optional text accumulator and
// the document under construction. Nothing is shared between invocations.
type parseState struct {
	feedURL     string
	maxEpisodes int
	podcast     *Podcast

	path    []string
	targets []target
	base    string
	text    *strings.Builder
}

func (st *parseState) startElement(name string, attrs map[string]string) {
	st.path = append(st.path, name)

	// The handler resolved here is pushed alongside the path so the end
	// hook reuses the same resolution without re-joining the path.
	tgt := bindings[strings.Join(st.path, "/")]
	st.targets = append(st.targets, tgt)
	if tgt == nil {
		return
	}

	tgt.start(st, attrs)
	if tgt.wantsText() {
		st.text = &strings.Builder{}
	}
}

func (st *parseState) characters(chunk string) {
	if st.text != nil {
		st.text.WriteString(chunk)
	}
}

func (st *parseState) endElement() {
	if len(st.path) == 0 {
		return
	}

	// Only a bound element consumes the accumulator: an unknown element
	// closing inside a text-collecting one must leave the text intact.
	if tgt := st.targets[len(st.targets)-1]; tgt != nil {
		var text string
		if st.text != nil {
			text = st.text.String()
		}
		tgt.end(st, text)
		st.text = nil
	}

	st.path = st.path[:len(st.path)-1]
	st.targets = st.targets[:len(st.targets)-1]
}

func (st *parseState) currentEpisode() *Episode {
	eps := st.podcast.Episodes
	if len(eps) == 0 {
		return nil
	}
	return &eps[len(eps)-1]
}

func elementName(xp *xpp.XMLPullParser) string {
	if xp.Space == "" {
		return xp.Name
	}
	return prefixFor(xp.Space) + ":" + xp.Name
}

func elementAttrs(xp *xpp.XMLPullParser) map[string]string {
	if len(xp.Attrs) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(xp.Attrs))
	for _, a := range xp.Attrs {
		key := a.Name.Local
		if a.Name.Space != "" {
			key = prefixFor(a.Name.Space) + ":" + a.Name.Local
		}
		attrs[key] = a.Value
	}
	return attrs
}

func prefixFor(space string) string {
	if p, ok := canonicalPrefixes[strings.ToLower(space)]; ok {
		return p
	}
	return space
}
