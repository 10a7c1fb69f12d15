package podcast

import (
	"sort"
	"strings"

	"github.com/podsieve/podsieve/app/timeutil"
	"github.com/podsieve/podsieve/app/urlutil"
	"github.com/podsieve/podsieve/app/videolink"
)

// target is one handler bound to an element path. start runs on the opening
// tag with its attributes, end on the closing tag with the accumulated text
// (always empty unless wantsText reports true).
type target interface {
	start(st *parseState, attrs map[string]string)
	end(st *parseState, text string)
	wantsText() bool
}

type baseTarget struct{}

func (baseTarget) start(*parseState, map[string]string) {}
func (baseTarget) end(*parseState, string)              {}
func (baseTarget) wantsText() bool                      { return false }

// rssRoot captures the optional xml:base of the document root, used later to
// resolve relative guids.
type rssRoot struct{ baseTarget }

func (rssRoot) start(st *parseState, attrs map[string]string) {
	st.base = attrs["xml:base"]
}

// channelClose finalizes the document: newest episodes first, truncated to
// the configured maximum. Ties keep document order.
type channelClose struct{ baseTarget }

func (channelClose) end(st *parseState, _ string) {
	eps := st.podcast.Episodes
	sort.SliceStable(eps, func(i, j int) bool {
		return eps[i].Published > eps[j].Published
	})
	if st.maxEpisodes > 0 && len(eps) > st.maxEpisodes {
		eps = eps[:st.maxEpisodes]
	}
	st.podcast.Episodes = eps
}

// podcastAttr stores element text on the podcast record.
type podcastAttr struct {
	baseTarget
	set func(p *Podcast, text string)
}

func (podcastAttr) wantsText() bool { return true }

func (t podcastAttr) end(st *parseState, text string) {
	t.set(st.podcast, text)
}

// podcastAttrFromHref stores the element's href attribute on the podcast
// record. Missing href is a no-op.
type podcastAttrFromHref struct {
	baseTarget
	set func(p *Podcast, href string)
}

func (t podcastAttrFromHref) start(st *parseState, attrs map[string]string) {
	if href := attrs["href"]; href != "" {
		t.set(st.podcast, href)
	}
}

// podcastPaymentHref is podcastAttrFromHref gated on rel="payment". The
// comparison is deliberately case-sensitive.
type podcastPaymentHref struct {
	podcastAttrFromHref
}

func (t podcastPaymentHref) start(st *parseState, attrs map[string]string) {
	if attrs["rel"] == "payment" {
		t.podcastAttrFromHref.start(st, attrs)
	}
}

// episodeItem opens a fresh episode on entry and finalizes it on exit.
// Finalization picks the winning enclosure (or synthesizes one from a
// recognized video page link), applies the guid/title/link fallbacks, and
// drops episodes with nothing playable.
type episodeItem struct{ baseTarget }

func (episodeItem) start(st *parseState, _ map[string]string) {
	st.podcast.Episodes = append(st.podcast.Episodes, Episode{
		FileSize: UnknownFileSize,
		MimeType: DefaultMimeType,
	})
}

func (episodeItem) end(st *parseState, _ string) {
	ep := st.currentEpisode()
	if ep == nil {
		return
	}

	if len(ep.enclosures) == 0 {
		if videolink.IsYouTube(ep.Link) || videolink.IsVimeo(ep.Link) {
			ep.enclosures = append(ep.enclosures, Enclosure{
				URL:      ep.Link,
				FileSize: UnknownFileSize,
				MimeType: "video/mp4",
			})
		} else {
			st.podcast.Episodes = st.podcast.Episodes[:len(st.podcast.Episodes)-1]
			return
		}
	}

	// First declared enclosure wins; alternates are discarded.
	enc := ep.enclosures[0]
	ep.URL = enc.URL
	ep.FileSize = enc.FileSize
	ep.MimeType = enc.MimeType
	ep.enclosures = nil

	if !ep.guidSet {
		ep.GUID = ep.URL
	}
	if !ep.titleSet {
		ep.Title = ep.URL
	}
	if ep.Link == "" && ep.guidIsPermalink {
		ep.Link = ep.GUID
	}
	ep.guidIsPermalink = false
}

// episodeAttr stores element text on the episode being parsed.
type episodeAttr struct {
	baseTarget
	set func(e *Episode, text string)
}

func (episodeAttr) wantsText() bool { return true }

func (t episodeAttr) end(st *parseState, text string) {
	if ep := st.currentEpisode(); ep != nil {
		t.set(ep, text)
	}
}

// episodeGUID records the guid and whether the feed declared it usable as a
// permalink. An absent isPermaLink attribute counts as "true". Relative
// guids resolve against the document's xml:base.
type episodeGUID struct{ baseTarget }

func (episodeGUID) wantsText() bool { return true }

func (episodeGUID) start(st *parseState, attrs map[string]string) {
	ep := st.currentEpisode()
	if ep == nil {
		return
	}
	permalink, ok := attrs["isPermaLink"]
	if !ok {
		permalink = "true"
	}
	ep.guidIsPermalink = strings.EqualFold(permalink, "true")
}

func (episodeGUID) end(st *parseState, text string) {
	ep := st.currentEpisode()
	if ep == nil {
		return
	}
	guid := strings.TrimSpace(text)
	if st.base != "" {
		guid = urlutil.Join(st.base, guid)
	}
	ep.GUID = guid
	ep.guidSet = true
}

// episodePaymentHref stores an atom payment link on the episode. Same
// case-sensitive rel gate as the podcast-level variant.
type episodePaymentHref struct {
	baseTarget
	set func(e *Episode, href string)
}

func (t episodePaymentHref) start(st *parseState, attrs map[string]string) {
	if attrs["rel"] != "payment" {
		return
	}
	href := attrs["href"]
	if href == "" {
		return
	}
	if ep := st.currentEpisode(); ep != nil {
		t.set(ep, href)
	}
}

// enclosureTarget collects declared media references. The url attribute is
// required; it resolves against the feed's own URL, not xml:base.
type enclosureTarget struct{ baseTarget }

func (enclosureTarget) start(st *parseState, attrs map[string]string) {
	url, ok := attrs["url"]
	if !ok {
		return
	}
	ep := st.currentEpisode()
	if ep == nil {
		return
	}
	ep.enclosures = append(ep.enclosures, Enclosure{
		URL:      urlutil.NormalizeFeedURL(urlutil.Join(st.feedURL, url)),
		FileSize: parseLength(attrs["length"]),
		MimeType: parseType(attrs["type"]),
	})
}

// bindings maps slash-joined element paths from the document root to their
// handlers. Fixed at init, never mutated at runtime. Paths not listed here
// are ignored.
var bindings = map[string]target{
	"rss":         rssRoot{},
	"rss/channel": channelClose{},

	"rss/channel/title":        podcastAttr{set: func(p *Podcast, t string) { p.Title = squashWhitespace(t) }},
	"rss/channel/link":         podcastAttr{set: func(p *Podcast, t string) { p.Link = strings.TrimSpace(t) }},
	"rss/channel/description":  podcastAttr{set: func(p *Podcast, t string) { p.Description = squashWhitespace(t) }},
	"rss/channel/image/url":    podcastAttr{set: func(p *Podcast, t string) { p.CoverURL = strings.TrimSpace(t) }},
	"rss/channel/itunes:image": podcastAttrFromHref{set: func(p *Podcast, href string) { p.CoverURL = href }},
	"rss/channel/atom:link":    podcastPaymentHref{podcastAttrFromHref{set: func(p *Podcast, href string) { p.PaymentURL = href }}},

	"rss/channel/item":      episodeItem{},
	"rss/channel/item/guid": episodeGUID{},
	"rss/channel/item/title": episodeAttr{set: func(e *Episode, t string) {
		e.Title = squashWhitespace(t)
		e.titleSet = true
	}},
	"rss/channel/item/link":        episodeAttr{set: func(e *Episode, t string) { e.Link = strings.TrimSpace(t) }},
	"rss/channel/item/description": episodeAttr{set: func(e *Episode, t string) { e.Description = squashWhitespace(t) }},
	"rss/channel/item/itunes:duration": episodeAttr{set: func(e *Episode, t string) {
		e.TotalTime = timeutil.ParseDuration(t)
	}},
	"rss/channel/item/pubDate": episodeAttr{set: func(e *Episode, t string) {
		e.Published = timeutil.ParseDate(t)
	}},
	"rss/channel/item/atom:link": episodePaymentHref{set: func(e *Episode, href string) { e.PaymentURL = href }},
	"rss/channel/item/enclosure": enclosureTarget{},
}
