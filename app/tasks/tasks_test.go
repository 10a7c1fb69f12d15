package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/podsieve/podsieve/app/database"
	"github.com/podsieve/podsieve/app/feed"
)

// MockPodcastRepository implements a simple mock for testing
type MockPodcastRepository struct {
	podcasts       map[string]*database.Podcast
	upsertedURLs   map[string]string
	enabledCalls   map[int64]bool
	nextID         int64
	metadataCalled bool
}

var _ database.PodcastRepository = (*MockPodcastRepository)(nil)

func NewMockPodcastRepository() *MockPodcastRepository {
	return &MockPodcastRepository{
		podcasts:     make(map[string]*database.Podcast),
		upsertedURLs: make(map[string]string),
		enabledCalls: make(map[int64]bool),
	}
}

func (m *MockPodcastRepository) GetPodcastByName(name string) (*database.Podcast, error) {
	return m.podcasts[name], nil
}

func (m *MockPodcastRepository) GetPodcastCount() (int, error) {
	return len(m.podcasts), nil
}

func (m *MockPodcastRepository) GetEnabledPodcastCount() (int, error) {
	count := 0
	for _, p := range m.podcasts {
		if p.Enabled {
			count++
		}
	}
	return count, nil
}

func (m *MockPodcastRepository) UpsertPodcast(name, feedURL string) (int64, bool, error) {
	if existing, ok := m.podcasts[name]; ok {
		urlChanged := existing.FeedURL != feedURL
		existing.FeedURL = feedURL
		m.upsertedURLs[name] = feedURL
		return existing.ID, urlChanged, nil
	}
	m.nextID++
	m.podcasts[name] = &database.Podcast{ID: m.nextID, Name: name, FeedURL: feedURL}
	m.upsertedURLs[name] = feedURL
	return m.nextID, false, nil
}

func (m *MockPodcastRepository) UpdatePodcastMetadata(podcastID int64, title, link, description, coverURL, paymentURL string) error {
	m.metadataCalled = true
	return nil
}

func (m *MockPodcastRepository) UpdateNextFetch(podcastID int64, nextFetch time.Time) error {
	return nil
}

func (m *MockPodcastRepository) SetPodcastEnabled(podcastID int64, enabled bool) error {
	m.enabledCalls[podcastID] = enabled
	return nil
}

// MockEpisodeRepository implements a simple mock for testing
type MockEpisodeRepository struct {
	episodes      []database.Episode
	filterUpdates map[int64]bool
}

var _ database.EpisodeRepository = (*MockEpisodeRepository)(nil)

func NewMockEpisodeRepository() *MockEpisodeRepository {
	return &MockEpisodeRepository{
		filterUpdates: make(map[int64]bool),
	}
}

func (m *MockEpisodeRepository) GetVisibleEpisodes(podcastID int64, limit int) ([]database.Episode, error) {
	return m.episodes, nil
}

func (m *MockEpisodeRepository) GetAllEpisodes(podcastID int64) ([]database.Episode, error) {
	return m.episodes, nil
}

func (m *MockEpisodeRepository) GetEpisodeCount(podcastID int64) (int, error) {
	return len(m.episodes), nil
}

func (m *MockEpisodeRepository) GetEpisodeStats(podcastID int64) (int, int, int, error) {
	return len(m.episodes), len(m.episodes), 0, nil
}

func (m *MockEpisodeRepository) UpsertEpisode(podcastID int64, ep database.EpisodeInput) error {
	return nil
}

func (m *MockEpisodeRepository) UpdateEpisodeFilterStatus(episodeID int64, isFiltered bool, reason string) error {
	m.filterUpdates[episodeID] = isFiltered
	return nil
}

func (m *MockEpisodeRepository) GetEpisodesForShownotes(podcastID int64, limit int) ([]database.EpisodeForShownotes, error) {
	return nil, nil
}

func (m *MockEpisodeRepository) UpdateShownotes(episodeID int64, content, status string, extractedAt *time.Time, errorMsg string) error {
	return nil
}

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypeProcessPodcast, "daily-news")

	if task.ID == "" {
		t.Error("Expected task ID to be set")
	}
	if task.Type != TaskTypeProcessPodcast {
		t.Errorf("Expected type '%s', got '%s'", TaskTypeProcessPodcast, task.Type)
	}
	if task.GetPodcastName() != "daily-news" {
		t.Errorf("Expected podcast name 'daily-news', got '%s'", task.GetPodcastName())
	}
	if task.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("Expected max retries %d, got %d", DefaultMaxRetries, task.GetMaxRetries())
	}
}

func TestTaskRetryAccounting(t *testing.T) {
	task := NewTask(TaskTypeProcessPodcast, "daily-news")

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected task to be retryable at retry count %d", task.GetRetryCount())
		}
		task.IncrementRetryCount()
	}

	if task.CanRetry() {
		t.Errorf("Expected task to be exhausted after %d retries", DefaultMaxRetries)
	}
}

func TestTaskDuration(t *testing.T) {
	task := NewTask(TaskTypeProcessPodcast, "daily-news")

	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before Start")
	}

	task.Start()
	time.Sleep(10 * time.Millisecond)

	if task.GetDuration() <= 0 {
		t.Error("Expected positive duration after Start")
	}
}

func TestSyncPodcastConfigTask(t *testing.T) {
	podcastRepo := NewMockPodcastRepository()
	config := &feed.Config{
		Name: "daily-news",
		URL:  "HTTP://Example.COM/feed.xml",
		Settings: feed.ConfigSettings{
			Enabled: true,
		},
	}

	task := NewSyncPodcastConfigTask("daily-news", config, podcastRepo)

	if task.GetType() != TaskTypeSyncPodcastConfig {
		t.Errorf("Expected type '%s', got '%s'", TaskTypeSyncPodcastConfig, task.GetType())
	}

	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Feed URL should be stored in normalized form
	if got := podcastRepo.upsertedURLs["daily-news"]; got != "http://example.com/feed.xml" {
		t.Errorf("Expected normalized URL, got '%s'", got)
	}

	stored := podcastRepo.podcasts["daily-news"]
	if stored == nil {
		t.Fatal("Expected podcast to be registered")
	}
	if enabled, ok := podcastRepo.enabledCalls[stored.ID]; !ok || !enabled {
		t.Error("Expected podcast to be enabled")
	}
}

func TestSyncPodcastConfigTaskRejectsUnusableURL(t *testing.T) {
	podcastRepo := NewMockPodcastRepository()
	config := &feed.Config{
		Name: "broken",
		URL:  "javascript:alert(1)",
	}

	task := NewSyncPodcastConfigTask("broken", config, podcastRepo)

	task.Start()
	if err := task.Execute(context.Background()); err == nil {
		t.Error("Expected error for unusable feed URL")
	}
	if len(podcastRepo.podcasts) != 0 {
		t.Error("Expected no podcast to be registered")
	}
}

func TestRefilterPodcastTask(t *testing.T) {
	podcastRepo := NewMockPodcastRepository()
	podcastRepo.UpsertPodcast("daily-news", "http://example.com/feed.xml")

	episodeRepo := NewMockEpisodeRepository()
	episodeRepo.episodes = []database.Episode{
		{ID: 1, GUID: "ep-1", Title: "Regular episode", IsFiltered: false},
		{ID: 2, GUID: "ep-2", Title: "Sponsored content", IsFiltered: false},
		{ID: 3, GUID: "ep-3", Title: "Another sponsored show", IsFiltered: true, FilterReason: "Excluded by title filter: contains 'sponsored'"},
	}

	config := &feed.Config{
		Name: "daily-news",
		URL:  "http://example.com/feed.xml",
		Filters: []feed.ConfigFilter{
			{Field: "title", Excludes: []string{"sponsored"}},
		},
	}

	task := NewRefilterPodcastTask("daily-news", config, feed.NewFilterer(), podcastRepo, episodeRepo)

	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Episode 2 changed from visible to filtered; episodes 1 and 3 kept
	// their verdicts and should not be touched.
	if len(episodeRepo.filterUpdates) != 1 {
		t.Fatalf("Expected 1 filter update, got %d", len(episodeRepo.filterUpdates))
	}
	if filtered, ok := episodeRepo.filterUpdates[2]; !ok || !filtered {
		t.Error("Expected episode 2 to become filtered")
	}
}

func TestRefilterPodcastTaskUnknownPodcast(t *testing.T) {
	podcastRepo := NewMockPodcastRepository()
	episodeRepo := NewMockEpisodeRepository()

	config := &feed.Config{Name: "ghost", URL: "http://example.com/feed.xml"}
	task := NewRefilterPodcastTask("ghost", config, feed.NewFilterer(), podcastRepo, episodeRepo)

	task.Start()
	if err := task.Execute(context.Background()); err == nil {
		t.Error("Expected error for unregistered podcast")
	}
}

func TestTaskExecuteRespectsCancelledContext(t *testing.T) {
	podcastRepo := NewMockPodcastRepository()
	config := &feed.Config{Name: "daily-news", URL: "http://example.com/feed.xml"}

	task := NewSyncPodcastConfigTask("daily-news", config, podcastRepo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := task.Execute(ctx); err == nil {
		t.Error("Expected error for cancelled context")
	}
	if len(podcastRepo.podcasts) != 0 {
		t.Error("Expected no work after cancelled context")
	}
}
