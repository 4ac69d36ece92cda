package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"memberhub/internal/config"
	"memberhub/internal/members"
	dto "memberhub/pkg/models"

	"github.com/gin-gonic/gin"
)

// SettingsHandler exposes the session-only endpoint overrides. Nothing here
// is persisted; a restart restores the configured endpoints.
type SettingsHandler struct {
	runtime *config.Runtime
	svc     *members.Service
	log     *slog.Logger
}

func NewSettingsHandler(rt *config.Runtime, svc *members.Service, log *slog.Logger) *SettingsHandler {
	return &SettingsHandler{runtime: rt, svc: svc, log: log}
}

func (h *SettingsHandler) view() dto.Settings {
	webhookURL, imageURL := h.runtime.WebhookURL(), h.runtime.ImageURL()
	return dto.Settings{
		WebhookURL:        config.Mask(webhookURL),
		ImageURL:          config.Mask(imageURL),
		WebhookConfigured: webhookURL != "",
		ImageConfigured:   imageURL != "",
		Overridden:        h.runtime.Overridden(),
	}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.view())
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req dto.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, u := range []*string{req.WebhookURL, req.ImageURL} {
		if u == nil || *u == "" {
			continue
		}
		*u = strings.TrimSpace(*u)
		if parsed, err := url.Parse(*u); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid URL: " + *u})
			return
		}
	}

	h.runtime.Override(req.WebhookURL, req.ImageURL)
	h.log.Info("session endpoint override set", slog.Bool("webhook", req.WebhookURL != nil), slog.Bool("image", req.ImageURL != nil))
	c.JSON(http.StatusOK, h.view())
}

// ResetSettings drops the overrides.
func (h *SettingsHandler) ResetSettings(c *gin.Context) {
	h.runtime.Reset()
	c.JSON(http.StatusOK, h.view())
}

// TestConnection pings the current webhook.
func (h *SettingsHandler) TestConnection(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
