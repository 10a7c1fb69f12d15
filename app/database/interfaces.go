package database

import (
	"time"
)

// EpisodeInput carries one parsed and filtered episode into the store.
type EpisodeInput struct {
	GUID         string
	Title        string
	Description  string
	Link         string
	EnclosureURL string
	FileSize     int64
	MimeType     string
	TotalTime    int
	PaymentURL   string
	PublishedAt  int64
	IsFiltered   bool
	FilterReason string
}

type PodcastRepository interface {
	GetPodcastByName(name string) (*Podcast, error)
	GetPodcastCount() (int, error)
	GetEnabledPodcastCount() (int, error)

	UpsertPodcast(name, feedURL string) (int64, bool, error)
	UpdatePodcastMetadata(podcastID int64, title, link, description, coverURL, paymentURL string) error
	UpdateNextFetch(podcastID int64, nextFetch time.Time) error
	SetPodcastEnabled(podcastID int64, enabled bool) error
}

// EpisodeForShownotes identifies an episode whose web page still needs
// shownotes extraction.
type EpisodeForShownotes struct {
	ID   int64
	Link string
}

type EpisodeRepository interface {
	GetVisibleEpisodes(podcastID int64, limit int) ([]Episode, error)
	GetAllEpisodes(podcastID int64) ([]Episode, error)
	GetEpisodeCount(podcastID int64) (int, error)
	GetEpisodeStats(podcastID int64) (int, int, int, error)

	UpsertEpisode(podcastID int64, ep EpisodeInput) error
	UpdateEpisodeFilterStatus(episodeID int64, isFiltered bool, reason string) error

	GetEpisodesForShownotes(podcastID int64, limit int) ([]EpisodeForShownotes, error)
	UpdateShownotes(episodeID int64, content, status string, extractedAt *time.Time, errorMsg string) error
}
