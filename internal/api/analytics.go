package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"memberhub/internal/analytics"
	"memberhub/internal/store"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	store  *store.Store
	engine *analytics.Engine
	log    *slog.Logger
}

func NewAnalyticsHandler(st *store.Store, engine *analytics.Engine, log *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{store: st, engine: engine, log: log}
}

func (h *AnalyticsHandler) GetStats(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.engine.Stats(list))
}

// GetAnalytics returns the dashboard bundle.
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.engine.Dashboard(list))
}

func (h *AnalyticsHandler) GetBirthdays(c *gin.Context) {
	days := analytics.BirthdayWindowDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 366 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 0 and 366"})
			return
		}
		days = n
	}

	list, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.engine.UpcomingBirthdays(list, days))
}
