package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/podsieve/podsieve/app/database"
	"github.com/podsieve/podsieve/app/feed"
	"github.com/podsieve/podsieve/app/urlutil"
)

type SyncPodcastConfigTask struct {
	Task
	Config      *feed.Config
	podcastRepo database.PodcastRepository
}

func NewSyncPodcastConfigTask(podcastName string, config *feed.Config, podcastRepo database.PodcastRepository) *SyncPodcastConfigTask {
	return &SyncPodcastConfigTask{
		Task:        NewTask(TaskTypeSyncPodcastConfig, podcastName),
		Config:      config,
		podcastRepo: podcastRepo,
	}
}

func (t *SyncPodcastConfigTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	feedURL := urlutil.NormalizeFeedURL(t.Config.URL)
	if feedURL == "" {
		return fmt.Errorf("subscription %q has an unusable feed URL: %q", t.PodcastName, t.Config.URL)
	}

	podcastID, urlChanged, err := t.podcastRepo.UpsertPodcast(t.Config.Name, feedURL)
	if err != nil {
		slog.Error("Task failed", "type", "SyncPodcastConfig", "podcast", t.PodcastName, "error", err)
		return fmt.Errorf("failed to sync podcast config to database: %w", err)
	}

	if urlChanged {
		slog.Warn("Feed URL changed, stored episodes belong to the previous feed", "podcast", t.PodcastName, "url", feedURL)
	}

	err = t.podcastRepo.SetPodcastEnabled(podcastID, t.Config.Settings.Enabled)
	if err != nil {
		return fmt.Errorf("failed to update podcast enabled status: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncPodcastConfig",
		"podcast", t.PodcastName,
		"duration", t.GetDuration())

	return nil
}
