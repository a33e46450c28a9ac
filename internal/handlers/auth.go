package handlers

import (
	"errors"
	"net/http"

	"urldash/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionStateKey = "oidc_state"

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	if !h.cfg.LocalAuthEnabled() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Local login is disabled"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password, clientInfo(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserKey, user.PublicID)
	if err := session.Save(); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if userID, ok := session.Get(sessionUserKey).(string); ok && userID != "" {
		if user, err := h.repos.Users.FindByPublicID(c.Request.Context(), userID); err == nil && user != nil {
			h.auditService.LogAction(services.AuditEntry{
				UserID:       &user.ID,
				Action:       services.ActionLogout,
				ResourceType: "user",
				ResourceID:   user.PublicID,
				Client:       clientInfo(c),
			})
		}
	}

	session.Clear()
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) OIDCLogin(c *gin.Context) {
	if !h.cfg.OIDCEnabled() || h.oidc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "OIDC login is not enabled"})
		return
	}

	state := uuid.NewString()
	session := sessions.Default(c)
	session.Set(sessionStateKey, state)
	if err := session.Save(); err != nil {
		h.respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.oidc.AuthCodeURL(state))
}

func (h *Handler) OIDCCallback(c *gin.Context) {
	if !h.cfg.OIDCEnabled() || h.oidc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "OIDC login is not enabled"})
		return
	}

	session := sessions.Default(c)
	expected, _ := session.Get(sessionStateKey).(string)
	session.Delete(sessionStateKey)
	if expected == "" || c.Query("state") != expected {
		_ = session.Save()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OIDC state"})
		return
	}
	code := c.Query("code")
	if code == "" {
		_ = session.Save()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	identity, err := h.oidc.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("OIDC exchange failed", "error", err)
		_ = session.Save()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "OIDC login failed"})
		return
	}

	user, err := h.authService.ResolveOidcUser(c.Request.Context(), *identity, clientInfo(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Start from an empty session so nothing set before login survives it.
	session.Clear()
	session.Set(sessionUserKey, user.PublicID)
	if err := session.Save(); err != nil {
		h.respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) GetMe(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"user": user,
		"capabilities": gin.H{
			"manageUsers":    user.Role.CanManageUsers() && h.cfg.UserManagementEnabled(),
			"readAuditLog":   user.Role.CanManageUsers(),
			"changePassword": !user.IsOidc(),
		},
	})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := currentUser(c)
	updated, err := h.authService.ChangePassword(c.Request.Context(), user.PublicID, req.CurrentPassword, req.NewPassword, clientInfo(c))
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated})
}
