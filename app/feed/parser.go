package feed

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/podsieve/podsieve/app/podcast"
	"github.com/podsieve/podsieve/app/timeutil"
	"github.com/podsieve/podsieve/app/urlutil"
	"github.com/podsieve/podsieve/app/videolink"
)

// FallbackParser handles the feed dialects the streaming parser rejects
// (Atom, RDF/RSS 1.0). It normalizes gofeed's output to the same Podcast
// shape: one enclosure per episode, guid/title fallbacks applied, episodes
// without playable media dropped, newest first.
type FallbackParser struct {
	gofeedParser *gofeed.Parser
}

func NewFallbackParser() *FallbackParser {
	return &FallbackParser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *FallbackParser) Run(feedURL string, r io.Reader, maxEpisodes int) (*podcast.Podcast, error) {
	feed, err := p.gofeedParser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	pod := &podcast.Podcast{
		Title:       strings.TrimSpace(feed.Title),
		Link:        strings.TrimSpace(feed.Link),
		Description: strings.TrimSpace(feed.Description),
		Episodes:    []podcast.Episode{},
	}

	if feed.Image != nil {
		pod.CoverURL = feed.Image.URL
	}

	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		ep, ok := p.normalizeItem(feedURL, item)
		if ok {
			pod.Episodes = append(pod.Episodes, ep)
		}
	}

	sort.SliceStable(pod.Episodes, func(i, j int) bool {
		return pod.Episodes[i].Published > pod.Episodes[j].Published
	})
	if maxEpisodes > 0 && len(pod.Episodes) > maxEpisodes {
		pod.Episodes = pod.Episodes[:maxEpisodes]
	}

	return pod, nil
}

func (p *FallbackParser) normalizeItem(feedURL string, item *gofeed.Item) (podcast.Episode, bool) {
	ep := podcast.Episode{
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(item.Description),
		Link:        strings.TrimSpace(item.Link),
		GUID:        strings.TrimSpace(item.GUID),
		FileSize:    podcast.UnknownFileSize,
		MimeType:    podcast.DefaultMimeType,
	}

	if item.PublishedParsed != nil {
		ep.Published = item.PublishedParsed.Unix()
	}

	if item.ITunesExt != nil {
		ep.TotalTime = timeutil.ParseDuration(item.ITunesExt.Duration)
	}

	// First enclosure wins; episodes without one fall back to a recognized
	// video page link or are dropped entirely.
	var enc *gofeed.Enclosure
	for _, e := range item.Enclosures {
		if e != nil && e.URL != "" {
			enc = e
			break
		}
	}

	switch {
	case enc != nil:
		ep.URL = urlutil.NormalizeFeedURL(urlutil.Join(feedURL, enc.URL))
		ep.FileSize = parseEnclosureLength(enc.Length)
		ep.MimeType = parseEnclosureType(enc.Type)
	case videolink.IsYouTube(ep.Link) || videolink.IsVimeo(ep.Link):
		ep.URL = ep.Link
		ep.MimeType = "video/mp4"
	default:
		return podcast.Episode{}, false
	}

	if ep.GUID == "" {
		ep.GUID = ep.URL
	}
	if ep.Title == "" {
		ep.Title = ep.URL
	}

	return ep, true
}

func parseEnclosureLength(text string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || n <= 0 {
		return podcast.UnknownFileSize
	}
	return n
}

func parseEnclosureType(text string) string {
	if text == "" || !strings.Contains(text, "/") {
		return podcast.DefaultMimeType
	}
	return text
}
