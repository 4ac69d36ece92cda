package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"memberhub/internal/store"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	store *store.Store
	log   *slog.Logger
}

func NewSyncHandler(st *store.Store, log *slog.Logger) *SyncHandler {
	return &SyncHandler{store: st, log: log}
}

func (h *SyncHandler) GetLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.store.SyncLogs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
