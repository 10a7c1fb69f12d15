package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/podsieve/podsieve/app/database"
	"github.com/podsieve/podsieve/app/feed"
	"github.com/podsieve/podsieve/app/podcast"
)

type ProcessPodcastTask struct {
	Task
	Config         *feed.Config
	httpClient     *http.Client
	parser         *podcast.Parser
	fallbackParser *feed.FallbackParser
	filterer       *feed.Filterer
	podcastRepo    database.PodcastRepository
	episodeRepo    database.EpisodeRepository
	userAgent      string
}

func NewProcessPodcastTask(podcastName string, config *feed.Config, httpClient *http.Client,
	parser *podcast.Parser, fallbackParser *feed.FallbackParser, filterer *feed.Filterer,
	podcastRepo database.PodcastRepository, episodeRepo database.EpisodeRepository, userAgent string) *ProcessPodcastTask {
	return &ProcessPodcastTask{
		Task:           NewTask(TaskTypeProcessPodcast, podcastName),
		Config:         config,
		httpClient:     httpClient,
		parser:         parser,
		fallbackParser: fallbackParser,
		filterer:       filterer,
		podcastRepo:    podcastRepo,
		episodeRepo:    episodeRepo,
		userAgent:      userAgent,
	}
}

func (t *ProcessPodcastTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Config.Settings.Enabled {
		slog.Debug("Podcast disabled, skipping", "podcast", t.PodcastName)
		return nil
	}

	stored, err := t.podcastRepo.GetPodcastByName(t.PodcastName)
	if err != nil {
		return fmt.Errorf("failed to look up podcast: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("podcast %q is not registered in the database", t.PodcastName)
	}

	data, err := t.fetchFeed(ctx, t.Config.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	pod, err := t.parseFeed(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	err = t.storePodcastMetadata(stored.ID, pod)
	if err != nil {
		return fmt.Errorf("failed to store podcast metadata: %w", err)
	}

	filteredCount := 0
	visibleCount := 0

	results := t.filterer.Run(pod.Episodes, t.Config)
	for _, result := range results {
		if result.IsFiltered {
			filteredCount++
		} else {
			visibleCount++
		}

		err = t.episodeRepo.UpsertEpisode(stored.ID, episodeInput(result))
		if err != nil {
			return fmt.Errorf("failed to store episode: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", "ProcessPodcast",
		"podcast", t.PodcastName,
		"duration", t.GetDuration(),
		"total", len(pod.Episodes),
		"filtered", filteredCount,
		"visible", visibleCount)

	return nil
}

// parseFeed runs the streaming RSS parser and falls back to the
// general-purpose parser for other feed dialects.
func (t *ProcessPodcastTask) parseFeed(data []byte) (*podcast.Podcast, error) {
	pod, err := t.parser.Run(t.Config.URL, bytes.NewReader(data), t.Config.Settings.MaxEpisodes)
	if err == nil {
		return pod, nil
	}
	if !errors.Is(err, podcast.ErrUnsupportedFormat) {
		return nil, err
	}

	slog.Debug("Document is not RSS, using fallback parser", "podcast", t.PodcastName)
	return t.fallbackParser.Run(t.Config.URL, bytes.NewReader(data), t.Config.Settings.MaxEpisodes)
}

func (t *ProcessPodcastTask) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.Config.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (t *ProcessPodcastTask) storePodcastMetadata(podcastID int64, pod *podcast.Podcast) error {
	err := t.podcastRepo.UpdatePodcastMetadata(podcastID, pod.Title, pod.Link, pod.Description, pod.CoverURL, pod.PaymentURL)
	if err != nil {
		return fmt.Errorf("failed to update podcast metadata: %w", err)
	}

	now := time.Now().UTC()
	nextFetch := now.Add(time.Duration(t.Config.Settings.RefreshInterval) * time.Second)
	err = t.podcastRepo.UpdateNextFetch(podcastID, nextFetch)
	if err != nil {
		return fmt.Errorf("failed to update next fetch time: %w", err)
	}

	return nil
}

func episodeInput(result feed.FilterResult) database.EpisodeInput {
	ep := result.Episode
	return database.EpisodeInput{
		GUID:         ep.GUID,
		Title:        ep.Title,
		Description:  ep.Description,
		Link:         ep.Link,
		EnclosureURL: ep.URL,
		FileSize:     ep.FileSize,
		MimeType:     ep.MimeType,
		TotalTime:    ep.TotalTime,
		PaymentURL:   ep.PaymentURL,
		PublishedAt:  ep.Published,
		IsFiltered:   result.IsFiltered,
		FilterReason: result.FilterReason,
	}
}
