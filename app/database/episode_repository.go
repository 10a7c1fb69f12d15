package database

import (
	"fmt"
	"time"
)

// EpisodeRepo handles database operations for episodes
type EpisodeRepo struct {
	db *DB
}

func NewEpisodeRepository(db *DB) *EpisodeRepo {
	return &EpisodeRepo{db: db}
}

const episodeColumns = `id, podcast_id, guid, title, description, link, enclosure_url,
       file_size, mime_type, total_time, payment_url, published_at,
       is_filtered, filter_reason, shownotes, shownotes_status, shownotes_error,
       shownotes_extracted_at, created_at`

// UpsertEpisode inserts an episode or refreshes the fields feeds are
// allowed to change. The (podcast_id, guid) pair identifies an episode
// across fetches; shownotes columns survive the update untouched.
func (r *EpisodeRepo) UpsertEpisode(podcastID int64, ep EpisodeInput) error {
	_, err := r.db.Exec(`
		INSERT INTO episodes (podcast_id, guid, title, description, link, enclosure_url,
		                      file_size, mime_type, total_time, payment_url, published_at,
		                      is_filtered, filter_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (podcast_id, guid) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			link = excluded.link,
			enclosure_url = excluded.enclosure_url,
			file_size = excluded.file_size,
			mime_type = excluded.mime_type,
			total_time = excluded.total_time,
			payment_url = excluded.payment_url,
			published_at = excluded.published_at,
			is_filtered = excluded.is_filtered,
			filter_reason = excluded.filter_reason
	`, podcastID, ep.GUID, ep.Title, ep.Description, ep.Link, ep.EnclosureURL,
		ep.FileSize, ep.MimeType, ep.TotalTime, ep.PaymentURL, ep.PublishedAt,
		ep.IsFiltered, ep.FilterReason)

	if err != nil {
		return fmt.Errorf("failed to upsert episode: %w", err)
	}

	return nil
}

// UpdateEpisodeFilterStatus updates the filter verdict of a stored episode
func (r *EpisodeRepo) UpdateEpisodeFilterStatus(episodeID int64, isFiltered bool, reason string) error {
	_, err := r.db.Exec(`
		UPDATE episodes
		SET is_filtered = ?, filter_reason = ?
		WHERE id = ?
	`, isFiltered, reason, episodeID)

	if err != nil {
		return fmt.Errorf("failed to update episode filter status: %w", err)
	}

	return nil
}

// GetVisibleEpisodes returns unfiltered episodes, newest first
func (r *EpisodeRepo) GetVisibleEpisodes(podcastID int64, limit int) ([]Episode, error) {
	rows, err := r.db.Query(`
		SELECT `+episodeColumns+`
		FROM episodes
		WHERE podcast_id = ? AND is_filtered = 0
		ORDER BY published_at DESC, id
		LIMIT ?
	`, podcastID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get visible episodes: %w", err)
	}
	defer rows.Close()

	return scanEpisodes(rows)
}

// GetAllEpisodes returns every stored episode including filtered ones, newest first
func (r *EpisodeRepo) GetAllEpisodes(podcastID int64) ([]Episode, error) {
	rows, err := r.db.Query(`
		SELECT `+episodeColumns+`
		FROM episodes
		WHERE podcast_id = ?
		ORDER BY published_at DESC, id
	`, podcastID)
	if err != nil {
		return nil, fmt.Errorf("failed to get all episodes: %w", err)
	}
	defer rows.Close()

	return scanEpisodes(rows)
}

// GetEpisodeCount returns the total number of stored episodes for a podcast
func (r *EpisodeRepo) GetEpisodeCount(podcastID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM episodes WHERE podcast_id = ?", podcastID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get episode count: %w", err)
	}
	return count, nil
}

// GetEpisodeStats returns total, visible and filtered episode counts
func (r *EpisodeRepo) GetEpisodeStats(podcastID int64) (int, int, int, error) {
	var total, visible, filtered int
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_filtered = 0),
		       COUNT(*) FILTER (WHERE is_filtered = 1)
		FROM episodes
		WHERE podcast_id = ?
	`, podcastID).Scan(&total, &visible, &filtered)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get episode stats: %w", err)
	}
	return total, visible, filtered, nil
}

// GetEpisodesForShownotes returns visible episodes with a web page whose
// shownotes have not been fetched yet
func (r *EpisodeRepo) GetEpisodesForShownotes(podcastID int64, limit int) ([]EpisodeForShownotes, error) {
	rows, err := r.db.Query(`
		SELECT id, link
		FROM episodes
		WHERE podcast_id = ?
		  AND is_filtered = 0
		  AND link != ''
		  AND shownotes_status = 'pending'
		ORDER BY published_at DESC
		LIMIT ?
	`, podcastID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get episodes for shownotes: %w", err)
	}
	defer rows.Close()

	var episodes []EpisodeForShownotes
	for rows.Next() {
		var ep EpisodeForShownotes
		if err := rows.Scan(&ep.ID, &ep.Link); err != nil {
			return nil, fmt.Errorf("failed to scan episode row: %w", err)
		}
		episodes = append(episodes, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating episode rows: %w", err)
	}

	return episodes, nil
}

// UpdateShownotes stores the extraction result for an episode
func (r *EpisodeRepo) UpdateShownotes(episodeID int64, content, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE episodes
		SET shownotes = ?, shownotes_status = ?, shownotes_extracted_at = ?, shownotes_error = ?
		WHERE id = ?
	`, content, status, extractedAt, errorMsg, episodeID)

	if err != nil {
		return fmt.Errorf("failed to update shownotes: %w", err)
	}

	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEpisodes(rows rowScanner) ([]Episode, error) {
	var episodes []Episode
	for rows.Next() {
		var ep Episode
		err := rows.Scan(
			&ep.ID, &ep.PodcastID, &ep.GUID, &ep.Title, &ep.Description, &ep.Link, &ep.EnclosureURL,
			&ep.FileSize, &ep.MimeType, &ep.TotalTime, &ep.PaymentURL, &ep.PublishedAt,
			&ep.IsFiltered, &ep.FilterReason, &ep.Shownotes, &ep.ShownotesStatus, &ep.ShownotesError,
			&ep.ShownotesExtractedAt, &ep.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode row: %w", err)
		}
		episodes = append(episodes, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating episode rows: %w", err)
	}

	return episodes, nil
}
