package podcast

// Sentinels for enclosure fields a feed did not declare.
const (
	UnknownFileSize = -1
	DefaultMimeType = "application/octet-stream"
)

// Podcast is the normalized result of one parse: channel metadata plus the
// surviving episodes, newest first.
type Podcast struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	CoverURL    string    `json:"cover_url"`
	PaymentURL  string    `json:"payment_url,omitempty"`
	Episodes    []Episode `json:"episodes"`
}

// Episode is one playable entry. URL, FileSize and MimeType come from the
// episode's winning enclosure; GUID and Title fall back to URL when the feed
// omits them, so neither is ever empty in a finalized episode.
type Episode struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Published   int64  `json:"published"`
	Link        string `json:"link"`
	GUID        string `json:"guid"`
	FileSize    int64  `json:"file_size"`
	MimeType    string `json:"mime_type"`
	TotalTime   int    `json:"total_time"`
	PaymentURL  string `json:"payment_url,omitempty"`

	// Transient parse state, resolved and discarded by finalization.
	enclosures      []Enclosure
	guidIsPermalink bool
	guidSet         bool
	titleSet        bool
}

// Enclosure is a media reference as declared by the feed. Episodes collect
// every declared enclosure during parsing; finalization keeps the first.
type Enclosure struct {
	URL      string
	FileSize int64
	MimeType string
}
