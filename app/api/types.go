package api

import (
	"github.com/podsieve/podsieve/app/database"
	"github.com/podsieve/podsieve/app/feed"
	"github.com/podsieve/podsieve/app/tasks"
)

type Handler struct {
	podcastRepo database.PodcastRepository
	episodeRepo database.EpisodeRepository
	configCache *feed.ConfigCache
	filterer    *feed.Filterer
	scheduler   tasks.TaskSchedulerInterface
}

// PodcastResponse is the JSON shape served for a subscribed podcast.
type PodcastResponse struct {
	Name        string            `json:"name"`
	Title       string            `json:"title"`
	Link        string            `json:"link,omitempty"`
	Description string            `json:"description,omitempty"`
	CoverURL    string            `json:"cover_url,omitempty"`
	PaymentURL  string            `json:"payment_url,omitempty"`
	Episodes    []EpisodeResponse `json:"episodes"`
}

type EpisodeResponse struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
	URL         string `json:"url"`
	FileSize    int64  `json:"file_size"`
	MimeType    string `json:"mime_type"`
	TotalTime   int    `json:"total_time,omitempty"`
	PaymentURL  string `json:"payment_url,omitempty"`
	Published   int64  `json:"published"`
	Shownotes   string `json:"shownotes,omitempty"`
}
