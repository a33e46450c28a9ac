package handlers

import (
	"net/http"

	"urldash/internal/services"

	"github.com/gin-gonic/gin"
)

type FolderRequest struct {
	Name string `json:"name" binding:"required"`
}

type FolderItemRequest struct {
	ShortURLID string `json:"shortUrlId" binding:"required"`
}

func (h *Handler) logFolderAction(c *gin.Context, action, folderID string) {
	h.auditService.LogAction(services.AuditEntry{
		UserID:       &currentUser(c).ID,
		Action:       action,
		ResourceType: "folder",
		ResourceID:   folderID,
		Client:       clientInfo(c),
	})
}

func (h *Handler) ListFolders(c *gin.Context) {
	folders, err := h.repos.Folders.ListFolders(c.Request.Context(), currentUser(c).PublicID, c.Param("serverId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if folders == nil {
		notFound(c, "Server")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": folders})
}

func (h *Handler) CreateFolder(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	folder, err := h.repos.Folders.CreateFolder(c.Request.Context(), currentUser(c).PublicID, c.Param("serverId"), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if folder == nil {
		notFound(c, "Server")
		return
	}

	h.logFolderAction(c, services.ActionFolderCreated, folder.PublicID)
	c.JSON(http.StatusCreated, folder)
}

func (h *Handler) RenameFolder(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	folder, err := h.repos.Folders.RenameFolder(c.Request.Context(), currentUser(c).PublicID, c.Param("serverId"), c.Param("folderId"), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if folder == nil {
		notFound(c, "Folder")
		return
	}

	h.logFolderAction(c, services.ActionFolderUpdated, folder.PublicID)
	c.JSON(http.StatusOK, folder)
}

func (h *Handler) DeleteFolder(c *gin.Context) {
	folderID := c.Param("folderId")
	deleted, err := h.repos.Folders.DeleteFolder(c.Request.Context(), currentUser(c).PublicID, c.Param("serverId"), folderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !deleted {
		notFound(c, "Folder")
		return
	}

	h.logFolderAction(c, services.ActionFolderDeleted, folderID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddFolderItem(c *gin.Context) {
	var req FolderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.repos.Folders.AddFolderItem(c.Request.Context(), currentUser(c).PublicID, c.Param("serverId"), c.Param("folderId"), req.ShortURLID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if item == nil {
		notFound(c, "Folder")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) RemoveFolderItem(c *gin.Context) {
	removed, err := h.repos.Folders.RemoveFolderItem(c.Request.Context(), currentUser(c).PublicID, c.Param("serverId"), c.Param("folderId"), c.Param("shortUrlId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !removed {
		notFound(c, "Folder item")
		return
	}
	c.Status(http.StatusNoContent)
}
