// Package report serves the computed statistics bundle as a read-only JSON
// API for dashboards.
package report

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshdurbin/strava-season-stats/internal/stats"
)

// Handler computes bundles on demand from a stats.Source
type Handler struct {
	src stats.Source
	now func() time.Time
}

// NewHandler creates a Handler reading from src
func NewHandler(src stats.Source) *Handler {
	return &Handler{src: src, now: time.Now}
}

// WithClock fixes the time bundles are computed as of (for testing)
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// NewRouter wires the report routes
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(), gin.Recovery())

	r.GET("/health", h.health)

	api := r.Group("/api/v1")
	{
		api.GET("/stats", h.getStats)
		api.GET("/stats/:section", h.getSection)
		api.GET("/sections", h.listSections)
		api.GET("/comparisons/:kind/:sport", h.getComparison)
	}

	r.NoRoute(func(c *gin.Context) {
		notFound(c, "no such route")
	})
	return r
}

func (h *Handler) bundle(c *gin.Context) (stats.Bundle, bool) {
	b, err := stats.Build(c.Request.Context(), h.src, h.now())
	if err != nil {
		internalError(c, err)
		return stats.Bundle{}, false
	}
	return b, true
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getStats handles GET /api/v1/stats
func (h *Handler) getStats(c *gin.Context) {
	b, ok := h.bundle(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b)
}

// getSection handles GET /api/v1/stats/:section
func (h *Handler) getSection(c *gin.Context) {
	name := c.Param("section")
	if _, known := (stats.Bundle{}).Section(name); !known {
		notFound(c, "unknown section "+strconv.Quote(name))
		return
	}

	b, ok := h.bundle(c)
	if !ok {
		return
	}
	section, _ := b.Section(name)
	c.JSON(http.StatusOK, gin.H{
		"generated_at": b.GeneratedAt,
		"section":      name,
		"data":         section,
	})
}

func (h *Handler) listSections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sections": stats.Sections()})
}

// getComparison handles GET /api/v1/comparisons/:kind/:sport?day=N
func (h *Handler) getComparison(c *gin.Context) {
	kind, sport := c.Param("kind"), c.Param("sport")

	day, err := strconv.Atoi(c.Query("day"))
	if err != nil || day < 0 {
		badRequest(c, "day must be a non-negative integer")
		return
	}

	b, ok := h.bundle(c)
	if !ok {
		return
	}

	samples, err := b.CompareProgress(kind, sport, day)
	switch {
	case errors.Is(err, stats.ErrUnknownComparison):
		badRequest(c, err.Error())
		return
	case errors.Is(err, stats.ErrUnknownSport):
		notFound(c, err.Error())
		return
	case err != nil:
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":    kind,
		"sport":   sport,
		"day":     day,
		"samples": samples,
	})
}
