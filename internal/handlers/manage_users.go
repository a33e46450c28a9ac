package handlers

import (
	"net/http"

	"urldash/internal/models"
	"urldash/internal/services"

	"github.com/gin-gonic/gin"
)

type CreateUserRequest struct {
	Username    string  `json:"username" binding:"required"`
	DisplayName *string `json:"displayName"`
	Role        string  `json:"role" binding:"required"`
}

type EditUserRequest struct {
	DisplayName *string `json:"displayName"`
	Role        *string `json:"role"`
}

type SetServersRequest struct {
	ServerIDs []string `json:"serverIds" binding:"required"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	opts, page, perPage, err := parseListOptions(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	users, total, err := h.userService.ListUsers(c.Request.Context(), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(users, page, perPage, total))
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, password, err := h.userService.CreateUser(c.Request.Context(), currentUser(c), services.CreateUserInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Role:        models.Role(req.Role),
	}, clientInfo(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "temporaryPassword": password})
}

func (h *Handler) EditUser(c *gin.Context) {
	var req EditUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in := services.EditUserInput{DisplayName: req.DisplayName}
	if req.Role != nil {
		role := models.Role(*req.Role)
		in.Role = &role
	}

	user, err := h.userService.EditUser(c.Request.Context(), currentUser(c), c.Param("userId"), in, clientInfo(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), currentUser(c), c.Param("userId"), clientInfo(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ResetUserPassword(c *gin.Context) {
	password, err := h.userService.ResetPassword(c.Request.Context(), currentUser(c), c.Param("userId"), clientInfo(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"temporaryPassword": password})
}

func (h *Handler) SetUserServers(c *gin.Context) {
	var req SetServersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.userService.SetServers(c.Request.Context(), currentUser(c), c.Param("userId"), req.ServerIDs, clientInfo(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
