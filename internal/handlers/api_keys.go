package handlers

import (
	"net/http"
	"time"

	"urldash/internal/repository"
	"urldash/internal/services"

	"github.com/gin-gonic/gin"
)

type RegisterApiKeyRequest struct {
	Name      string     `json:"name" binding:"required"`
	Key       string     `json:"key" binding:"required"`
	Service   string     `json:"service"`
	Tags      []string   `json:"tags"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (h *Handler) ListApiKeys(c *gin.Context) {
	keys, err := h.repos.ApiKeys.ListApiKeys(c.Request.Context(), currentUser(c).PublicID, c.Param("serverId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if keys == nil {
		notFound(c, "Server")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": keys})
}

func (h *Handler) RegisterApiKey(c *gin.Context) {
	var req RegisterApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := currentUser(c)
	key, err := h.repos.ApiKeys.RegisterApiKey(c.Request.Context(), user.PublicID, c.Param("serverId"), repository.ApiKeyData{
		Name:      req.Name,
		Key:       req.Key,
		Service:   req.Service,
		Tags:      req.Tags,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if key == nil {
		notFound(c, "Server")
		return
	}

	h.auditService.LogAction(services.AuditEntry{
		UserID:       &user.ID,
		ServerID:     &key.ServerID,
		Action:       services.ActionApiKeyAdded,
		ResourceType: "api_key",
		ResourceID:   key.PublicID,
		Details:      map[string]string{"name": key.Name, "hint": key.KeyHint},
		Client:       clientInfo(c),
	})
	c.JSON(http.StatusCreated, key)
}

func (h *Handler) RecordApiKeyUsage(c *gin.Context) {
	key, err := h.repos.ApiKeys.RecordApiKeyUsage(c.Request.Context(), currentUser(c).PublicID, c.Param("serverId"), c.Param("keyId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if key == nil {
		notFound(c, "API key")
		return
	}
	c.JSON(http.StatusOK, key)
}

func (h *Handler) DeleteApiKey(c *gin.Context) {
	user := currentUser(c)
	keyID := c.Param("keyId")
	deleted, err := h.repos.ApiKeys.DeleteApiKey(c.Request.Context(), user.PublicID, c.Param("serverId"), keyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !deleted {
		notFound(c, "API key")
		return
	}

	h.auditService.LogAction(services.AuditEntry{
		UserID:       &user.ID,
		Action:       services.ActionApiKeyDeleted,
		ResourceType: "api_key",
		ResourceID:   keyID,
		Client:       clientInfo(c),
	})
	c.Status(http.StatusNoContent)
}
