package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mapcomb/mapcomb/app/search"
	"github.com/mapcomb/mapcomb/app/sources"
)

func NewHandler(searcher SearcherInterface, version string) *Handler {
	return &Handler{
		searcher: searcher,
		version:  version,
	}
}

func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter 'q'"})
		return
	}

	opts := search.Options{
		GameVersion: strings.TrimSpace(c.Query("game_version")),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		opts.Limit = limit
	}

	if raw := c.Query("sources"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Sources = append(opts.Sources, name)
			}
		}
	}

	if raw := c.Query("include_optional"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid include_optional parameter"})
			return
		}
		opts.IncludeOptional = include
	}

	outcome := h.searcher.Run(c.Request.Context(), query, opts)

	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) GetHealth(c *gin.Context) {
	statuses := h.searcher.Health(c.Request.Context())

	status := "ok"
	for _, s := range statuses {
		if !s.Status.Accessible && !s.Optional {
			status = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"sources":   statuses,
	})
}

func (h *Handler) GetCategories(c *gin.Context) {
	categories := sources.Categories()

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}

func (h *Handler) APIGetCacheStats(c *gin.Context) {
	stats := h.searcher.CacheStats()

	var entries int
	var bytes int64
	for _, s := range stats {
		entries += s.Entries
		bytes += s.Bytes
	}

	c.JSON(http.StatusOK, gin.H{
		"sources":       stats,
		"total_entries": entries,
		"total_bytes":   bytes,
	})
}

func (h *Handler) APIClearCache(c *gin.Context) {
	h.searcher.ClearCaches()

	slog.Info("Caches cleared via API", "client", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "All source caches cleared",
	})
}
