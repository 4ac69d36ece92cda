package api

import (
	"log/slog"
	"net/http"

	"memberhub/internal/lib/logger/sl"
	"memberhub/internal/webhook"

	"github.com/gin-gonic/gin"
)

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="128" height="128" viewBox="0 0 128 128">` +
	`<rect width="128" height="128" fill="#e5e7eb"/>` +
	`<circle cx="64" cy="50" r="22" fill="#9ca3af"/>` +
	`<path d="M24 112c4-22 20-34 40-34s36 12 40 34z" fill="#9ca3af"/></svg>`

type ImageHandler struct {
	client *webhook.Client
	log    *slog.Logger
}

func NewImageHandler(client *webhook.Client, log *slog.Logger) *ImageHandler {
	return &ImageHandler{client: client, log: log}
}

// GetImage proxies a member photo. Any failure yields the placeholder.
func (h *ImageHandler) GetImage(c *gin.Context) {
	ref := c.Query("file")
	data, contentType, err := h.client.FetchImage(c.Request.Context(), ref)
	if err != nil {
		h.log.Debug("serving placeholder image", slog.String("file", ref), sl.Err(err))
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "image/svg+xml", []byte(placeholderSVG))
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, contentType, data)
}
