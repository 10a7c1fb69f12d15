package database

import (
	"database/sql"
	"fmt"
	"time"
)

// PodcastRepo handles database operations for podcasts
type PodcastRepo struct {
	db *DB
}

func NewPodcastRepository(db *DB) *PodcastRepo {
	return &PodcastRepo{db: db}
}

// UpsertPodcast inserts or updates a podcast subscription. The second
// return value reports whether an existing subscription changed its feed
// URL, which means stored episodes belong to a different feed.
func (r *PodcastRepo) UpsertPodcast(name, feedURL string) (int64, bool, error) {
	existing, err := r.GetPodcastByName(name)
	if err != nil {
		return 0, false, fmt.Errorf("failed to check existing podcast: %w", err)
	}

	if existing != nil {
		urlChanged := existing.FeedURL != feedURL

		_, err = r.db.Exec(`
			UPDATE podcasts
			SET feed_url = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, feedURL, existing.ID)
		if err != nil {
			return 0, false, fmt.Errorf("failed to update podcast: %w", err)
		}

		return existing.ID, urlChanged, nil
	}

	result, err := r.db.Exec(`
		INSERT INTO podcasts (name, feed_url)
		VALUES (?, ?)
	`, name, feedURL)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert podcast: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get podcast id: %w", err)
	}

	return id, false, nil
}

// UpdatePodcastMetadata stores the channel-level fields after a successful parse
func (r *PodcastRepo) UpdatePodcastMetadata(podcastID int64, title, link, description, coverURL, paymentURL string) error {
	_, err := r.db.Exec(`
		UPDATE podcasts
		SET title = ?, link = ?, description = ?, cover_url = ?, payment_url = ?,
		    last_fetched_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, title, link, description, coverURL, paymentURL, podcastID)

	if err != nil {
		return fmt.Errorf("failed to update podcast metadata: %w", err)
	}

	return nil
}

// UpdateNextFetch updates the next fetch time for a podcast
func (r *PodcastRepo) UpdateNextFetch(podcastID int64, nextFetch time.Time) error {
	_, err := r.db.Exec(`
		UPDATE podcasts
		SET next_fetch_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, nextFetch.UTC(), podcastID)

	if err != nil {
		return fmt.Errorf("failed to update next fetch time: %w", err)
	}

	return nil
}

// GetPodcastByName retrieves a podcast by its subscription name
func (r *PodcastRepo) GetPodcastByName(name string) (*Podcast, error) {
	var p Podcast
	err := r.db.QueryRow(`
		SELECT id, name, feed_url, title, link, description, cover_url, payment_url,
		       enabled, last_fetched_at, next_fetch_at, created_at, updated_at
		FROM podcasts
		WHERE name = ?
	`, name).Scan(
		&p.ID, &p.Name, &p.FeedURL, &p.Title, &p.Link, &p.Description, &p.CoverURL, &p.PaymentURL,
		&p.Enabled, &p.LastFetchedAt, &p.NextFetchAt, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get podcast by name: %w", err)
	}

	return &p, nil
}

// SetPodcastEnabled sets the enabled status of a podcast
func (r *PodcastRepo) SetPodcastEnabled(podcastID int64, enabled bool) error {
	_, err := r.db.Exec(`
		UPDATE podcasts
		SET enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, enabled, podcastID)

	if err != nil {
		return fmt.Errorf("failed to set podcast enabled status: %w", err)
	}

	return nil
}

// GetPodcastCount returns the total number of podcasts
func (r *PodcastRepo) GetPodcastCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM podcasts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get podcast count: %w", err)
	}
	return count, nil
}

// GetEnabledPodcastCount returns the count of enabled podcasts
func (r *PodcastRepo) GetEnabledPodcastCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM podcasts WHERE enabled = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get enabled podcast count: %w", err)
	}
	return count, nil
}
