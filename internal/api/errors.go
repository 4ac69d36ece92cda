package api

import (
	"errors"
	"log/slog"
	"net/http"

	"memberhub/internal/importer"
	"memberhub/internal/lib/logger/sl"
	"memberhub/internal/store"

	"github.com/gin-gonic/gin"
)

var (
	errBadRequest = errors.New("invalid request")
	errReportBusy = errors.New("a report is already being generated")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrBusy), errors.Is(err, errReportBusy):
		return http.StatusConflict
	case errors.Is(err, errBadRequest), errors.Is(err, importer.ErrUnsupportedFormat), errors.Is(err, importer.ErrEmpty),
		errors.Is(err, importer.ErrTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", slog.String("path", c.FullPath()), sl.Err(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
