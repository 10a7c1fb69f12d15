package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/podsieve/podsieve/app/cfg"
	"github.com/podsieve/podsieve/app/database"
	"github.com/podsieve/podsieve/app/feed"
	"github.com/podsieve/podsieve/app/podcast"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	podcastRepo        database.PodcastRepository
	episodeRepo        database.EpisodeRepository
	configCache        *feed.ConfigCache
	httpClient         *http.Client
	parser             *podcast.Parser
	fallbackParser     *feed.FallbackParser
	filterer           *feed.Filterer
	shownotesExtractor *feed.ShownotesExtractor
	userAgent          string
	interval           time.Duration
	workerCount        int
	ctx                context.Context
	cancel             context.CancelFunc
	wg                 sync.WaitGroup
	taskQueue          chan TaskInterface
}

func NewScheduler(configCache *feed.ConfigCache, podcastRepo database.PodcastRepository,
	episodeRepo database.EpisodeRepository, httpClient *http.Client, parser *podcast.Parser,
	fallbackParser *feed.FallbackParser, filterer *feed.Filterer,
	shownotesExtractor *feed.ShownotesExtractor) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		podcastRepo:        podcastRepo,
		episodeRepo:        episodeRepo,
		configCache:        configCache,
		httpClient:         httpClient,
		parser:             parser,
		fallbackParser:     fallbackParser,
		filterer:           filterer,
		shownotesExtractor: shownotesExtractor,
		userAgent:          cfg.UserAgent,
		interval:           time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:        cfg.WorkerCount,
		ctx:                ctx,
		cancel:             cancel,
		taskQueue:          make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	configs := s.configCache.GetConfigs()
	if len(configs) == 0 {
		slog.Debug("No podcast subscriptions found")
		return
	}

	slog.Debug("Processing podcast subscriptions", "count", len(configs))

	for _, config := range configs {
		syncTask := NewSyncPodcastConfigTask(config.Name, config, s.podcastRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncPodcastConfigTask", "podcast", config.Name, "error", err)
			continue
		}

		if !config.Settings.Enabled {
			slog.Debug("Podcast disabled, skipping ProcessPodcastTask", "podcast", config.Name)
			continue
		}

		processTask := NewProcessPodcastTask(config.Name, config, s.httpClient, s.parser, s.fallbackParser, s.filterer, s.podcastRepo, s.episodeRepo, s.userAgent)
		if err := s.EnqueueTask(processTask); err != nil {
			slog.Warn("Failed to enqueue ProcessPodcastTask", "podcast", config.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	configs := s.configCache.GetEnabledConfigs()
	if len(configs) == 0 {
		slog.Debug("No enabled podcast subscriptions found")
		return
	}

	slog.Debug("Processing enabled podcast subscriptions for task scheduling", "count", len(configs))

	for _, config := range configs {
		stored, err := s.podcastRepo.GetPodcastByName(config.Name)
		if err != nil {
			slog.Warn("Failed to get podcast from database, skipping", "podcast", config.Name, "error", err)
			continue
		}
		if stored == nil {
			slog.Warn("Podcast not found in database, skipping", "podcast", config.Name)
			continue
		}

		now := time.Now().UTC()
		if stored.NextFetchAt != nil && stored.NextFetchAt.After(now) {
			slog.Debug("Podcast not due for refresh yet", "podcast", config.Name, "next_fetch_at", stored.NextFetchAt)
		} else {
			processTask := NewProcessPodcastTask(config.Name, config, s.httpClient, s.parser, s.fallbackParser, s.filterer, s.podcastRepo, s.episodeRepo, s.userAgent)
			if err := s.EnqueueTask(processTask); err != nil {
				slog.Warn("Failed to enqueue ProcessPodcastTask", "podcast", config.Name, "error", err)
			}
		}

		if config.Settings.ExtractShownotes {
			extractTask := NewExtractShownotesTask(config.Name, config, s.httpClient, s.shownotesExtractor, s.podcastRepo, s.episodeRepo, s.userAgent)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractShownotesTask", "podcast", config.Name, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "podcast", task.GetPodcastName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
