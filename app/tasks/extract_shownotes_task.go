package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/podsieve/podsieve/app/database"
	"github.com/podsieve/podsieve/app/feed"
)

type ExtractShownotesTask struct {
	Task
	Config             *feed.Config
	httpClient         *http.Client
	shownotesExtractor *feed.ShownotesExtractor
	podcastRepo        database.PodcastRepository
	episodeRepo        database.EpisodeRepository
	userAgent          string
}

func NewExtractShownotesTask(podcastName string, config *feed.Config, httpClient *http.Client,
	shownotesExtractor *feed.ShownotesExtractor, podcastRepo database.PodcastRepository,
	episodeRepo database.EpisodeRepository, userAgent string) *ExtractShownotesTask {
	return &ExtractShownotesTask{
		Task:               NewTask(TaskTypeExtractShownotes, podcastName),
		Config:             config,
		httpClient:         httpClient,
		shownotesExtractor: shownotesExtractor,
		podcastRepo:        podcastRepo,
		episodeRepo:        episodeRepo,
		userAgent:          userAgent,
	}
}

func (t *ExtractShownotesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Config.Settings.ExtractShownotes {
		slog.Debug("Shownotes extraction disabled for podcast", "podcast", t.PodcastName)
		return nil
	}

	stored, err := t.podcastRepo.GetPodcastByName(t.PodcastName)
	if err != nil {
		return fmt.Errorf("failed to look up podcast: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("podcast %q is not registered in the database", t.PodcastName)
	}

	episodes, err := t.episodeRepo.GetEpisodesForShownotes(stored.ID, t.Config.Settings.MaxEpisodes)
	if err != nil {
		return fmt.Errorf("failed to get episodes for shownotes extraction: %w", err)
	}

	if len(episodes) == 0 {
		slog.Debug("No episodes need shownotes extraction", "podcast", t.PodcastName)
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, ep := range episodes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		extractCtx, cancel := context.WithTimeout(ctx, time.Duration(t.Config.Settings.Timeout)*time.Second)

		err := t.extractShownotesForEpisode(extractCtx, ep)
		cancel()

		if err != nil {
			slog.Error("Failed to extract shownotes for episode", "episode_id", ep.ID, "url", ep.Link, "error", err)
			errorCount++

			now := time.Now().UTC()
			err = t.episodeRepo.UpdateShownotes(ep.ID, "", "failed", &now, err.Error())
			if err != nil {
				slog.Error("Failed to update shownotes status", "episode_id", ep.ID, "error", err)
			}
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"podcast", t.PodcastName,
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractShownotesTask) extractShownotesForEpisode(ctx context.Context, ep database.EpisodeForShownotes) error {
	if ep.Link == "" {
		return fmt.Errorf("episode has no link")
	}

	data, err := t.fetchEpisodePage(ctx, ep.Link)
	if err != nil {
		return fmt.Errorf("failed to fetch episode page: %w", err)
	}

	shownotes, err := t.shownotesExtractor.Run(data)
	if err != nil {
		return fmt.Errorf("failed to extract shownotes: %w", err)
	}

	now := time.Now().UTC()
	err = t.episodeRepo.UpdateShownotes(ep.ID, shownotes, "success", &now, "")
	if err != nil {
		return fmt.Errorf("failed to update shownotes: %w", err)
	}

	slog.Debug("Shownotes extracted successfully", "episode_id", ep.ID, "url", ep.Link, "content_length", len(shownotes))
	return nil
}

func (t *ExtractShownotesTask) fetchEpisodePage(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.Config.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
