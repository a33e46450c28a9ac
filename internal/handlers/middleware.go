package handlers

import (
	"net/http"
	"strings"

	"urldash/internal/models"
	"urldash/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionUserKey = "user_id"
	contextUserKey = "current_user"
)

// AuthRequired loads the session user into the request context.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get(sessionUserKey).(string)
		if userID == "" {
			h.unauthorized(c)
			return
		}

		user, err := h.repos.Users.FindByPublicID(c.Request.Context(), userID)
		if err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}
		if user == nil {
			// Account was deleted while the session was alive.
			session.Clear()
			_ = session.Save()
			h.unauthorized(c)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func (h *Handler) unauthorized(c *gin.Context) {
	if c.Request.Method == http.MethodGet && !strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.Redirect(http.StatusFound, "/login")
	} else {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	c.Abort()
}

// PasswordChangeRequired keeps users holding a temporary password away from
// everything but their own account endpoints.
func (h *Handler) PasswordChangeRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.TempPassword {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		if path == "/api/me" || strings.HasPrefix(path, "/api/me/") {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Password change required",
			"code":  "TEMP_PASSWORD",
		})
	}
}

func (h *Handler) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.Role.CanManageUsers() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// UserManagementEnabled sends everyone home when accounts are provisioned by
// the identity provider alone.
func (h *Handler) UserManagementEnabled() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.cfg.UserManagementEnabled() {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) RateLimitMiddleware(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func clientInfo(c *gin.Context) services.ClientInfo {
	return services.ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
