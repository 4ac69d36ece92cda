package api

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"memberhub/internal/members"
	"memberhub/internal/models"
	"memberhub/internal/report"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	svc       *members.Service
	assembler *report.Assembler
	running   atomic.Bool
	log       *slog.Logger
}

func NewReportHandler(svc *members.Service, assembler *report.Assembler, log *slog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, assembler: assembler, log: log}
}

// DownloadReport streams the report archive. charts is a comma-separated
// list of chart targets (all when absent, none when empty); refresh=true
// loads detailed records from the webhook first.
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	if !h.running.CompareAndSwap(false, true) {
		respondError(c, h.log, errReportBusy)
		return
	}
	defer h.running.Store(false)

	ctx := c.Request.Context()
	var (
		list    []models.Member
		warning string
		err     error
	)
	if c.Query("refresh") == "true" {
		var outcome members.Outcome
		list, outcome, err = h.svc.FetchAllDetailed(ctx)
		warning = outcome.Warning
	} else {
		list, err = h.svc.List(ctx, "")
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	archive, err := h.assembler.Generate(ctx, list, report.Options{Charts: chartList(c)})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if warning != "" {
		c.Header("X-Report-Warning", warning)
	}
	c.Header("X-Report-Charts", strings.Join(archive.Charts, ","))
	c.Header("Content-Disposition", `attachment; filename="`+archive.Name+`"`)
	c.Data(http.StatusOK, "application/zip", archive.Data)
}

func chartList(c *gin.Context) []string {
	raw, ok := c.GetQuery("charts")
	if !ok {
		return report.ChartNames()
	}
	var names []string
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
