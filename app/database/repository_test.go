package database

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestUpsertPodcast(t *testing.T) {
	db := newTestDB(t)
	repo := NewPodcastRepository(db)

	id, urlChanged, err := repo.UpsertPodcast("daily-news", "http://example.com/feed.xml")
	if err != nil {
		t.Fatalf("Failed to insert podcast: %v", err)
	}
	if id == 0 {
		t.Error("Expected non-zero podcast ID")
	}
	if urlChanged {
		t.Error("Expected urlChanged to be false on insert")
	}

	// Same URL again should not report a change
	id2, urlChanged, err := repo.UpsertPodcast("daily-news", "http://example.com/feed.xml")
	if err != nil {
		t.Fatalf("Failed to upsert podcast: %v", err)
	}
	if id2 != id {
		t.Errorf("Expected same podcast ID %d, got %d", id, id2)
	}
	if urlChanged {
		t.Error("Expected urlChanged to be false for unchanged URL")
	}

	// Changing the URL should be reported
	_, urlChanged, err = repo.UpsertPodcast("daily-news", "http://example.com/new-feed.xml")
	if err != nil {
		t.Fatalf("Failed to upsert podcast with new URL: %v", err)
	}
	if !urlChanged {
		t.Error("Expected urlChanged to be true for new URL")
	}

	stored, err := repo.GetPodcastByName("daily-news")
	if err != nil {
		t.Fatalf("Failed to get podcast: %v", err)
	}
	if stored == nil {
		t.Fatal("Expected podcast to exist")
	}
	if stored.FeedURL != "http://example.com/new-feed.xml" {
		t.Errorf("Expected updated feed URL, got '%s'", stored.FeedURL)
	}
}

func TestGetPodcastByNameNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewPodcastRepository(db)

	stored, err := repo.GetPodcastByName("nonexistent")
	if err != nil {
		t.Fatalf("Expected no error for missing podcast, got: %v", err)
	}
	if stored != nil {
		t.Error("Expected nil for missing podcast")
	}
}

func TestUpdatePodcastMetadata(t *testing.T) {
	db := newTestDB(t)
	repo := NewPodcastRepository(db)

	id, _, err := repo.UpsertPodcast("tech-talk", "http://example.com/feed.xml")
	if err != nil {
		t.Fatalf("Failed to insert podcast: %v", err)
	}

	err = repo.UpdatePodcastMetadata(id, "Tech Talk", "http://example.com",
		"A show about technology", "http://example.com/cover.jpg", "http://example.com/donate")
	if err != nil {
		t.Fatalf("Failed to update metadata: %v", err)
	}

	stored, err := repo.GetPodcastByName("tech-talk")
	if err != nil {
		t.Fatalf("Failed to get podcast: %v", err)
	}
	if stored.Title != "Tech Talk" {
		t.Errorf("Expected title 'Tech Talk', got '%s'", stored.Title)
	}
	if stored.CoverURL != "http://example.com/cover.jpg" {
		t.Errorf("Expected cover URL to be set, got '%s'", stored.CoverURL)
	}
	if stored.PaymentURL != "http://example.com/donate" {
		t.Errorf("Expected payment URL to be set, got '%s'", stored.PaymentURL)
	}
	if stored.LastFetchedAt == nil {
		t.Error("Expected last fetched time to be set")
	}
}

func TestSetPodcastEnabled(t *testing.T) {
	db := newTestDB(t)
	repo := NewPodcastRepository(db)

	id, _, err := repo.UpsertPodcast("tech-talk", "http://example.com/feed.xml")
	if err != nil {
		t.Fatalf("Failed to insert podcast: %v", err)
	}

	if err := repo.SetPodcastEnabled(id, true); err != nil {
		t.Fatalf("Failed to enable podcast: %v", err)
	}

	enabled, err := repo.GetEnabledPodcastCount()
	if err != nil {
		t.Fatalf("Failed to count enabled podcasts: %v", err)
	}
	if enabled != 1 {
		t.Errorf("Expected 1 enabled podcast, got %d", enabled)
	}

	if err := repo.SetPodcastEnabled(id, false); err != nil {
		t.Fatalf("Failed to disable podcast: %v", err)
	}

	enabled, err = repo.GetEnabledPodcastCount()
	if err != nil {
		t.Fatalf("Failed to count enabled podcasts: %v", err)
	}
	if enabled != 0 {
		t.Errorf("Expected 0 enabled podcasts, got %d", enabled)
	}
}

func TestUpsertEpisode(t *testing.T) {
	db := newTestDB(t)
	podcastRepo := NewPodcastRepository(db)
	episodeRepo := NewEpisodeRepository(db)

	podcastID, _, err := podcastRepo.UpsertPodcast("tech-talk", "http://example.com/feed.xml")
	if err != nil {
		t.Fatalf("Failed to insert podcast: %v", err)
	}

	input := EpisodeInput{
		GUID:         "episode-1",
		Title:        "Episode 1",
		Description:  "First episode",
		Link:         "http://example.com/ep1",
		EnclosureURL: "http://example.com/ep1.mp3",
		FileSize:     1000,
		MimeType:     "audio/mpeg",
		TotalTime:    1800,
		PublishedAt:  1688378400,
	}

	if err := episodeRepo.UpsertEpisode(podcastID, input); err != nil {
		t.Fatalf("Failed to insert episode: %v", err)
	}

	episodes, err := episodeRepo.GetVisibleEpisodes(podcastID, 100)
	if err != nil {
		t.Fatalf("Failed to get episodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("Expected 1 episode, got %d", len(episodes))
	}

	ep := episodes[0]
	if ep.GUID != "episode-1" {
		t.Errorf("Expected GUID 'episode-1', got '%s'", ep.GUID)
	}
	if ep.FileSize != 1000 {
		t.Errorf("Expected file size 1000, got %d", ep.FileSize)
	}
	if ep.ShownotesStatus != "pending" {
		t.Errorf("Expected shownotes status 'pending', got '%s'", ep.ShownotesStatus)
	}

	// Re-upsert with updated title, same guid
	input.Title = "Episode 1 (updated)"
	if err := episodeRepo.UpsertEpisode(podcastID, input); err != nil {
		t.Fatalf("Failed to re-upsert episode: %v", err)
	}

	episodes, err = episodeRepo.GetVisibleEpisodes(podcastID, 100)
	if err != nil {
		t.Fatalf("Failed to get episodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("Expected 1 episode after re-upsert, got %d", len(episodes))
	}
	if episodes[0].Title != "Episode 1 (updated)" {
		t.Errorf("Expected updated title, got '%s'", episodes[0].Title)
	}
}

func TestUpsertEpisodePreservesShownotes(t *testing.T) {
	db := newTestDB(t)
	podcastRepo := NewPodcastRepository(db)
	episodeRepo := NewEpisodeRepository(db)

	podcastID, _, err := podcastRepo.UpsertPodcast("tech-talk", "http://example.com/feed.xml")
	if err != nil {
		t.Fatalf("Failed to insert podcast: %v", err)
	}

	input := EpisodeInput{
		GUID:         "episode-1",
		Title:        "Episode 1",
		Link:         "http://example.com/ep1",
		EnclosureURL: "http://example.com/ep1.mp3",
		FileSize:     -1,
		MimeType:     "audio/mpeg",
		PublishedAt:  1688378400,
	}

	if err := episodeRepo.UpsertEpisode(podcastID, input); err != nil {
		t.Fatalf("Failed to insert episode: %v", err)
	}

	episodes, err := episodeRepo.GetVisibleEpisodes(podcastID, 100)
	if err != nil {
		t.Fatalf("Failed to get episodes: %v", err)
	}

	now := time.Now().UTC()
	err = episodeRepo.UpdateShownotes(episodes[0].ID, "<p>Extracted notes</p>", "success", &now, "")
	if err != nil {
		t.Fatalf("Failed to update shownotes: %v", err)
	}

	// Refresh the feed entry, shownotes should survive
	if err := episodeRepo.UpsertEpisode(podcastID, input); err != nil {
		t.Fatalf("Failed to re-upsert episode: %v", err)
	}

	episodes, err = episodeRepo.GetVisibleEpisodes(podcastID, 100)
	if err != nil {
		t.Fatalf("Failed to get episodes: %v", err)
	}
	if episodes[0].Shownotes != "<p>Extracted notes</p>" {
		t.Errorf("Expected shownotes to survive upsert, got '%s'", episodes[0].Shownotes)
	}
	if episodes[0].ShownotesStatus != "success" {
		t.Errorf("Expected shownotes status 'success', got '%s'", episodes[0].ShownotesStatus)
	}
}

func TestEpisodeFilterStatusAndStats(t *testing.T) {
	db := newTestDB(t)
	podcastRepo := NewPodcastRepository(db)
	episodeRepo := NewEpisodeRepository(db)

	podcastID, _, err := podcastRepo.UpsertPodcast("tech-talk", "http://example.com/feed.xml")
	if err != nil {
		t.Fatalf("Failed to insert podcast: %v", err)
	}

	for i, guid := range []string{"ep-1", "ep-2", "ep-3"} {
		input := EpisodeInput{
			GUID:         guid,
			Title:        guid,
			EnclosureURL: "http://example.com/" + guid + ".mp3",
			FileSize:     -1,
			MimeType:     "audio/mpeg",
			PublishedAt:  int64(1688378400 + i),
		}
		if guid == "ep-3" {
			input.IsFiltered = true
			input.FilterReason = "Excluded by title filter: contains 'ep-3'"
		}
		if err := episodeRepo.UpsertEpisode(podcastID, input); err != nil {
			t.Fatalf("Failed to insert episode %s: %v", guid, err)
		}
	}

	total, visible, filtered, err := episodeRepo.GetEpisodeStats(podcastID)
	if err != nil {
		t.Fatalf("Failed to get episode stats: %v", err)
	}
	if total != 3 || visible != 2 || filtered != 1 {
		t.Errorf("Expected stats 3/2/1, got %d/%d/%d", total, visible, filtered)
	}

	// Flip ep-3 back to visible
	all, err := episodeRepo.GetAllEpisodes(podcastID)
	if err != nil {
		t.Fatalf("Failed to get all episodes: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 episodes, got %d", len(all))
	}
	for _, ep := range all {
		if ep.GUID == "ep-3" {
			if err := episodeRepo.UpdateEpisodeFilterStatus(ep.ID, false, ""); err != nil {
				t.Fatalf("Failed to update filter status: %v", err)
			}
		}
	}

	_, visible, filtered, err = episodeRepo.GetEpisodeStats(podcastID)
	if err != nil {
		t.Fatalf("Failed to get episode stats: %v", err)
	}
	if visible != 3 || filtered != 0 {
		t.Errorf("Expected 3 visible and 0 filtered after update, got %d/%d", visible, filtered)
	}
}

func TestGetVisibleEpisodesOrdering(t *testing.T) {
	db := newTestDB(t)
	podcastRepo := NewPodcastRepository(db)
	episodeRepo := NewEpisodeRepository(db)

	podcastID, _, err := podcastRepo.UpsertPodcast("tech-talk", "http://example.com/feed.xml")
	if err != nil {
		t.Fatalf("Failed to insert podcast: %v", err)
	}

	published := []int64{1688378400, 1688464800, 1688292000}
	for i, ts := range published {
		input := EpisodeInput{
			GUID:         []string{"middle", "newest", "oldest"}[i],
			Title:        "Episode",
			EnclosureURL: "http://example.com/ep.mp3",
			FileSize:     -1,
			MimeType:     "audio/mpeg",
			PublishedAt:  ts,
		}
		if err := episodeRepo.UpsertEpisode(podcastID, input); err != nil {
			t.Fatalf("Failed to insert episode: %v", err)
		}
	}

	episodes, err := episodeRepo.GetVisibleEpisodes(podcastID, 100)
	if err != nil {
		t.Fatalf("Failed to get episodes: %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("Expected 3 episodes, got %d", len(episodes))
	}
	if episodes[0].GUID != "newest" || episodes[2].GUID != "oldest" {
		t.Errorf("Expected newest-first ordering, got %s, %s, %s",
			episodes[0].GUID, episodes[1].GUID, episodes[2].GUID)
	}

	limited, err := episodeRepo.GetVisibleEpisodes(podcastID, 2)
	if err != nil {
		t.Fatalf("Failed to get limited episodes: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected limit of 2 episodes, got %d", len(limited))
	}
}

func TestGetEpisodesForShownotes(t *testing.T) {
	db := newTestDB(t)
	podcastRepo := NewPodcastRepository(db)
	episodeRepo := NewEpisodeRepository(db)

	podcastID, _, err := podcastRepo.UpsertPodcast("tech-talk", "http://example.com/feed.xml")
	if err != nil {
		t.Fatalf("Failed to insert podcast: %v", err)
	}

	inputs := []EpisodeInput{
		{GUID: "with-link", Link: "http://example.com/ep1", EnclosureURL: "http://example.com/1.mp3", FileSize: -1, MimeType: "audio/mpeg"},
		{GUID: "no-link", EnclosureURL: "http://example.com/2.mp3", FileSize: -1, MimeType: "audio/mpeg"},
		{GUID: "filtered", Link: "http://example.com/ep3", EnclosureURL: "http://example.com/3.mp3", FileSize: -1, MimeType: "audio/mpeg", IsFiltered: true},
	}
	for _, input := range inputs {
		if err := episodeRepo.UpsertEpisode(podcastID, input); err != nil {
			t.Fatalf("Failed to insert episode %s: %v", input.GUID, err)
		}
	}

	pending, err := episodeRepo.GetEpisodesForShownotes(podcastID, 100)
	if err != nil {
		t.Fatalf("Failed to get episodes for shownotes: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending episode, got %d", len(pending))
	}
	if pending[0].Link != "http://example.com/ep1" {
		t.Errorf("Expected episode with link, got '%s'", pending[0].Link)
	}

	now := time.Now().UTC()
	if err := episodeRepo.UpdateShownotes(pending[0].ID, "content", "success", &now, ""); err != nil {
		t.Fatalf("Failed to update shownotes: %v", err)
	}

	pending, err = episodeRepo.GetEpisodesForShownotes(podcastID, 100)
	if err != nil {
		t.Fatalf("Failed to get episodes for shownotes: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending episodes after extraction, got %d", len(pending))
	}
}
