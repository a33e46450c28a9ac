package handlers

import (
	"net/http"

	"urldash/internal/models"
	"urldash/internal/repository"

	"github.com/gin-gonic/gin"
)

// auditServerRef is the part of a server an audit entry may reveal. The
// server's API key must never leave through the audit log.
type auditServerRef struct {
	PublicID string `json:"publicId"`
	Name     string `json:"name"`
}

type auditLogView struct {
	models.AuditLog
	Server *auditServerRef `json:"server,omitempty"`
	Client string          `json:"client"`
}

func (h *Handler) ListAuditLogs(c *gin.Context) {
	opts, page, perPage, err := parseListOptions(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	logs, total, err := h.auditService.List(c.Request.Context(), repository.AuditLogListOptions{
		ListOptions: opts,
		Action:      c.Query("action"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]auditLogView, 0, len(logs))
	for _, l := range logs {
		view := auditLogView{AuditLog: l, Client: l.ClientSummary()}
		if l.Server != nil {
			view.Server = &auditServerRef{PublicID: l.Server.PublicID, Name: l.Server.Name}
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, paged(views, page, perPage, total))
}
