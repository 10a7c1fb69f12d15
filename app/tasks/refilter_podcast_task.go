package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/podsieve/podsieve/app/database"
	"github.com/podsieve/podsieve/app/feed"
	"github.com/podsieve/podsieve/app/podcast"
)

// RefilterPodcastTask re-applies the subscription's filter rules to
// episodes already in the database, for when the rules change between
// fetches.
type RefilterPodcastTask struct {
	Task
	Config      *feed.Config
	filterer    *feed.Filterer
	podcastRepo database.PodcastRepository
	episodeRepo database.EpisodeRepository
}

func NewRefilterPodcastTask(podcastName string, config *feed.Config, filterer *feed.Filterer,
	podcastRepo database.PodcastRepository, episodeRepo database.EpisodeRepository) *RefilterPodcastTask {
	return &RefilterPodcastTask{
		Task:        NewTask(TaskTypeRefilterPodcast, podcastName),
		Config:      config,
		filterer:    filterer,
		podcastRepo: podcastRepo,
		episodeRepo: episodeRepo,
	}
}

func (t *RefilterPodcastTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	stored, err := t.podcastRepo.GetPodcastByName(t.PodcastName)
	if err != nil {
		return fmt.Errorf("failed to look up podcast: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("podcast %q is not registered in the database", t.PodcastName)
	}

	episodes, err := t.episodeRepo.GetAllEpisodes(stored.ID)
	if err != nil {
		return fmt.Errorf("failed to get episodes: %w", err)
	}

	candidates := make([]podcast.Episode, len(episodes))
	for i, ep := range episodes {
		candidates[i] = podcast.Episode{
			GUID:        ep.GUID,
			Title:       ep.Title,
			Description: ep.Description,
			Link:        ep.Link,
			URL:         ep.EnclosureURL,
			FileSize:    ep.FileSize,
			MimeType:    ep.MimeType,
			TotalTime:   ep.TotalTime,
			PaymentURL:  ep.PaymentURL,
			Published:   ep.PublishedAt,
		}
	}

	results := t.filterer.Run(candidates, t.Config)

	updatedCount := 0
	errorCount := 0

	for i, result := range results {
		original := episodes[i]

		if original.IsFiltered != result.IsFiltered || original.FilterReason != result.FilterReason {
			err := t.episodeRepo.UpdateEpisodeFilterStatus(original.ID, result.IsFiltered, result.FilterReason)
			if err != nil {
				slog.Error("Failed to update episode filter status", "episode_id", original.ID, "error", err)
				errorCount++
			} else {
				updatedCount++
			}
		}
	}

	slog.Info("Task completed",
		"type", "RefilterPodcast",
		"podcast", t.PodcastName,
		"duration", t.GetDuration(),
		"success", updatedCount,
		"errors", errorCount)

	return nil
}
