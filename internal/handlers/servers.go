package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"urldash/internal/repository"
	"urldash/internal/services"

	"github.com/gin-gonic/gin"
)

type CreateServerRequest struct {
	Name    string `json:"name" binding:"required"`
	BaseURL string `json:"baseUrl" binding:"required"`
	APIKey  string `json:"apiKey" binding:"required"`
}

type UpdateServerRequest struct {
	Name    *string `json:"name"`
	BaseURL *string `json:"baseUrl"`
	APIKey  *string `json:"apiKey"`
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("baseUrl must be an absolute http(s) URL")
	}
	return nil
}

func (h *Handler) ListServers(c *gin.Context) {
	opts, _, _, err := parseListOptions(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	servers, err := h.repos.Servers.FindByUserID(c.Request.Context(), currentUser(c).PublicID, repository.ServerListOptions{
		ListOptions:   opts,
		PopulateUsers: c.Query("populateUsers") == "true",
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": servers})
}

func (h *Handler) CreateServer(c *gin.Context) {
	var req CreateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.BaseURL = strings.TrimRight(strings.TrimSpace(req.BaseURL), "/")
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := validateBaseURL(req.BaseURL); err != nil {
		badRequest(c, err)
		return
	}

	user := currentUser(c)
	server, err := h.repos.Servers.CreateServer(c.Request.Context(), user.PublicID, repository.CreateServerData{
		Name:    req.Name,
		BaseURL: req.BaseURL,
		APIKey:  req.APIKey,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.auditService.LogAction(services.AuditEntry{
		UserID:       &user.ID,
		ServerID:     &server.ID,
		Action:       services.ActionServerCreated,
		ResourceType: "server",
		ResourceID:   server.PublicID,
		Details:      map[string]string{"name": server.Name},
		Client:       clientInfo(c),
	})
	c.JSON(http.StatusCreated, server)
}

func (h *Handler) GetServer(c *gin.Context) {
	server, err := h.repos.Servers.FindByPublicIDAndUserID(c.Request.Context(), c.Param("serverId"), currentUser(c).PublicID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if server == nil {
		notFound(c, "Server")
		return
	}
	c.JSON(http.StatusOK, server)
}

func (h *Handler) UpdateServer(c *gin.Context) {
	var req UpdateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		req.Name = &name
	}
	if req.BaseURL != nil {
		base := strings.TrimRight(strings.TrimSpace(*req.BaseURL), "/")
		if err := validateBaseURL(base); err != nil {
			badRequest(c, err)
			return
		}
		req.BaseURL = &base
	}
	if req.APIKey != nil && *req.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "apiKey cannot be empty"})
		return
	}

	user := currentUser(c)
	server, err := h.repos.Servers.UpdateServer(c.Request.Context(), c.Param("serverId"), user.PublicID, repository.ServerPatch{
		Name:    req.Name,
		BaseURL: req.BaseURL,
		APIKey:  req.APIKey,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if server == nil {
		notFound(c, "Server")
		return
	}

	h.auditService.LogAction(services.AuditEntry{
		UserID:       &user.ID,
		ServerID:     &server.ID,
		Action:       services.ActionServerUpdated,
		ResourceType: "server",
		ResourceID:   server.PublicID,
		Client:       clientInfo(c),
	})
	c.JSON(http.StatusOK, server)
}

func (h *Handler) DeleteServer(c *gin.Context) {
	user := currentUser(c)
	serverID := c.Param("serverId")
	deleted, err := h.repos.Servers.DeleteServer(c.Request.Context(), serverID, user.PublicID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !deleted {
		notFound(c, "Server")
		return
	}

	h.auditService.LogAction(services.AuditEntry{
		UserID:       &user.ID,
		Action:       services.ActionServerDeleted,
		ResourceType: "server",
		ResourceID:   serverID,
		Client:       clientInfo(c),
	})
	c.Status(http.StatusNoContent)
}
