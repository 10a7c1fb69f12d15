package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/podsieve/podsieve/app/database"
	"github.com/podsieve/podsieve/app/feed"
	"github.com/podsieve/podsieve/app/tasks"
)

func NewHandler(configCache *feed.ConfigCache, podcastRepo database.PodcastRepository,
	episodeRepo database.EpisodeRepository, filterer *feed.Filterer,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		podcastRepo: podcastRepo,
		episodeRepo: episodeRepo,
		configCache: configCache,
		filterer:    filterer,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetPodcast(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	config, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Podcast subscription not found", "podcast", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	stored, err := h.podcastRepo.GetPodcastByName(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_podcast", "podcast", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if stored == nil {
		slog.Error("Podcast not found in database", "podcast", name)
		c.Status(http.StatusNotFound)
		return
	}

	episodes, err := h.episodeRepo.GetVisibleEpisodes(stored.ID, config.Settings.MaxEpisodes)
	if err != nil {
		slog.Error("Database error", "operation", "get_episodes", "podcast", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := PodcastResponse{
		Name:        stored.Name,
		Title:       stored.Title,
		Link:        stored.Link,
		Description: stored.Description,
		CoverURL:    stored.CoverURL,
		PaymentURL:  stored.PaymentURL,
		Episodes:    make([]EpisodeResponse, 0, len(episodes)),
	}

	for _, ep := range episodes {
		response.Episodes = append(response.Episodes, EpisodeResponse{
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
			Shownotes:   ep.Shownotes,
		})
	}

	c.Header("X-Podcast-Episodes", strconv.Itoa(len(episodes)))
	c.Header("X-Podcast-Name", name)
	c.Header("X-Last-Updated", stored.UpdatedAt.Format(time.RFC3339))

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if podcastCount, err := h.podcastRepo.GetPodcastCount(); err == nil {
		health["podcasts"] = podcastCount
	}

	health["loaded_subscriptions"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"loaded_subscriptions": h.configCache.GetConfigCount(),
	}

	if podcastCount, err := h.podcastRepo.GetPodcastCount(); err == nil {
		stats["podcasts"] = podcastCount
	}
	if enabledCount, err := h.podcastRepo.GetEnabledPodcastCount(); err == nil {
		stats["enabled_podcasts"] = enabledCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListPodcasts(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	podcasts := make([]map[string]interface{}, 0, len(configs))

	for _, config := range configs {
		info := map[string]interface{}{
			"name":             config.Name,
			"url":              config.URL,
			"title":            "",
			"enabled":          config.Settings.Enabled,
			"max_episodes":     config.Settings.MaxEpisodes,
			"refresh_interval": (time.Duration(config.Settings.RefreshInterval) * time.Second).String(),
			"filters":          len(config.Filters),
		}

		stored, err := h.podcastRepo.GetPodcastByName(config.Name)
		if err == nil && stored != nil {
			info["title"] = stored.Title
			info["last_fetched_at"] = stored.LastFetchedAt
			info["next_fetch_at"] = stored.NextFetchAt
			info["updated_at"] = stored.UpdatedAt

			if episodeCount, err := h.episodeRepo.GetEpisodeCount(stored.ID); err == nil {
				info["episode_count"] = episodeCount
			}
		}

		podcasts = append(podcasts, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"podcasts": podcasts,
		"total":    len(podcasts),
	})
}

func (h *Handler) APIGetPodcastDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing podcast name parameter"})
		return
	}

	config, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Podcast subscription not found", "podcast", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast subscription not found"})
		return
	}

	stored, err := h.podcastRepo.GetPodcastByName(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_podcast", "podcast", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if stored == nil {
		slog.Error("Podcast not found in database", "podcast", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":              name,
		"url":               config.URL,
		"title":             stored.Title,
		"enabled":           config.Settings.Enabled,
		"max_episodes":      config.Settings.MaxEpisodes,
		"refresh_interval":  (time.Duration(config.Settings.RefreshInterval) * time.Second).String(),
		"timeout":           (time.Duration(config.Settings.Timeout) * time.Second).String(),
		"extract_shownotes": config.Settings.ExtractShownotes,
		"filters":           config.Filters,
	}

	details["database"] = map[string]interface{}{
		"id":              stored.ID,
		"name":            stored.Name,
		"last_fetched_at": stored.LastFetchedAt,
		"next_fetch_at":   stored.NextFetchAt,
		"created_at":      stored.CreatedAt,
		"updated_at":      stored.UpdatedAt,
	}

	if total, visible, filtered, err := h.episodeRepo.GetEpisodeStats(stored.ID); err == nil {
		details["episodes"] = map[string]interface{}{
			"total":    total,
			"visible":  visible,
			"filtered": filtered,
		}
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIReloadPodcast(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing podcast name parameter"})
		return
	}

	_, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Podcast subscription not found", "podcast", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast subscription not found"})
		return
	}

	stored, err := h.podcastRepo.GetPodcastByName(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_podcast", "podcast", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if stored == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast not found in database"})
		return
	}

	config, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading subscription", "podcast", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload subscription",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncPodcastConfigTask(name, config, h.podcastRepo)
	err = h.scheduler.EnqueueTask(syncTask)
	if err != nil {
		slog.Error("Error enqueueing sync task", "podcast", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	refilterTask := tasks.NewRefilterPodcastTask(name, config, h.filterer, h.podcastRepo, h.episodeRepo)
	err = h.scheduler.EnqueueTask(refilterTask)
	if err != nil {
		slog.Error("Error enqueueing refilter task", "podcast", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue refilter task",
			"details": err.Error(),
		})
		return
	}

	response := gin.H{
		"success": true,
		"message": "Subscription reloaded and tasks enqueued successfully",
		"podcast": gin.H{
			"name":  name,
			"title": stored.Title,
			"url":   config.URL,
		},
		"tasks": []gin.H{
			{
				"id":   syncTask.ID,
				"type": syncTask.Type,
			},
			{
				"id":   refilterTask.ID,
				"type": refilterTask.Type,
			},
		},
	}

	c.JSON(http.StatusOK, response)
}
