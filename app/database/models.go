package database

import (
	"time"
)

// Podcast represents a podcast record in the database
type Podcast struct {
	ID            int64
	Name          string // Subscription identifier derived from config filename
	FeedURL       string
	Title         string
	Link          string
	Description   string
	CoverURL      string
	PaymentURL    string
	Enabled       bool
	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Episode represents an episode record in the database
type Episode struct {
	ID                   int64
	PodcastID            int64
	GUID                 string
	Title                string
	Description          string
	Link                 string
	EnclosureURL         string
	FileSize             int64
	MimeType             string
	TotalTime            int
	PaymentURL           string
	PublishedAt          int64 // Unix epoch seconds
	IsFiltered           bool
	FilterReason         string
	Shownotes            string
	ShownotesStatus      string // pending, success, failed, skipped
	ShownotesError       string
	ShownotesExtractedAt *time.Time
	CreatedAt            time.Time
}
