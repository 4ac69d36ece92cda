package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"memberhub/internal/importer"
	"memberhub/internal/mapper"

	"github.com/gin-gonic/gin"
)

const maxUpload = 20 << 20

type ImportHandler struct {
	importer     *importer.Importer
	fetcher      *importer.Fetcher
	defaultBatch bool
	log          *slog.Logger
}

func NewImportHandler(im *importer.Importer, fetcher *importer.Fetcher, defaultBatch bool, log *slog.Logger) *ImportHandler {
	return &ImportHandler{importer: im, fetcher: fetcher, defaultBatch: defaultBatch, log: log}
}

// readUpload decodes the multipart "file" field.
func (h *ImportHandler) readUpload(c *gin.Context) ([]mapper.Row, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: missing file field", errBadRequest)
	}
	if header.Size > maxUpload {
		return nil, fmt.Errorf("%w: file larger than %d bytes", errBadRequest, maxUpload)
	}

	format, err := importer.DetectFormat(header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := importer.Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return rows, nil
}

// ValidateImport maps an uploaded file without importing it.
func (h *ImportHandler) ValidateImport(c *gin.Context) {
	rows, err := h.readUpload(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.importer.Validate(rows))
}

func (h *ImportHandler) ImportFile(c *gin.Context) {
	rows, err := h.readUpload(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	batch := h.defaultBatch
	if raw := c.PostForm("batch"); raw != "" {
		if batch, err = strconv.ParseBool(raw); err != nil {
			respondError(c, h.log, fmt.Errorf("%w: batch must be true or false", errBadRequest))
			return
		}
	}
	h.run(c, rows, batch)
}

type importURLRequest struct {
	URL   string `json:"url" binding:"required"`
	Batch *bool  `json:"batch"`
}

func (h *ImportHandler) ImportURL(c *gin.Context) {
	var req importURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, h.log, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	batch := h.defaultBatch
	if req.Batch != nil {
		batch = *req.Batch
	}
	h.run(c, rows, batch)
}

func (h *ImportHandler) GetProgress(c *gin.Context) {
	c.JSON(http.StatusOK, h.importer.Progress())
}

func (h *ImportHandler) run(c *gin.Context, rows []mapper.Row, batch bool) {
	report, err := h.importer.Run(c.Request.Context(), rows, batch)
	switch {
	case errors.Is(err, importer.ErrInvalidRows):
		c.JSON(http.StatusUnprocessableEntity, report)
	case err != nil:
		respondError(c, h.log, err)
	default:
		c.JSON(http.StatusOK, report)
	}
}
