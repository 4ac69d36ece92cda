package api

import (
	"log/slog"
	"net/http"

	"memberhub/internal/members"
	"memberhub/internal/models"
	"memberhub/internal/report"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	svc *members.Service
	log *slog.Logger
}

func NewMemberHandler(svc *members.Service, log *slog.Logger) *MemberHandler {
	return &MemberHandler{svc: svc, log: log}
}

func (h *MemberHandler) GetMembers(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MemberHandler) GetMember(c *gin.Context) {
	m, outcome, err := h.svc.Details(c.Request.Context(), models.ID(c.Param("id")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": m, "path": outcome.Path, "warning": outcome.Warning})
}

func (h *MemberHandler) CreateMember(c *gin.Context) {
	var form models.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, outcome, err := h.svc.Create(c.Request.Context(), form)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"member": m, "path": outcome.Path, "warning": outcome.Warning})
}

func (h *MemberHandler) UpdateMember(c *gin.Context) {
	var form models.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, outcome, err := h.svc.Update(c.Request.Context(), models.ID(c.Param("id")), form)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": m, "path": outcome.Path, "warning": outcome.Warning})
}

func (h *MemberHandler) DeleteMember(c *gin.Context) {
	outcome, err := h.svc.Delete(c.Request.Context(), models.ID(c.Param("id")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Member deleted", "path": outcome.Path, "warning": outcome.Warning})
}

// RefreshMembers reloads the collection from the webhook.
func (h *MemberHandler) RefreshMembers(c *gin.Context) {
	list, outcome, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": list, "path": outcome.Path, "warning": outcome.Warning})
}

func (h *MemberHandler) ExportMembers(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	data, err := report.MembersCSV(list)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=members.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
