package handlers

import (
	"net/http"

	"urldash/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "urldash_session"

func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter) *gin.Engine {
	r := gin.Default()

	// Middleware
	if rateLimiter != nil {
		r.Use(h.RateLimitMiddleware(rateLimiter))
	}

	store := cookie.NewStore([]byte(h.cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   h.cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Public Routes
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/auth/oidc/login", h.OIDCLogin)
	r.GET("/auth/oidc/callback", h.OIDCCallback)

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(h.AuthRequired(), h.PasswordChangeRequired())
	{
		authorized.GET("/api/me", h.GetMe)
		authorized.POST("/api/me/password", h.ChangePassword)

		api := authorized.Group("/api/servers")
		api.GET("", h.ListServers)
		api.POST("", h.CreateServer)
		api.GET("/:serverId", h.GetServer)
		api.PATCH("/:serverId", h.UpdateServer)
		api.DELETE("/:serverId", h.DeleteServer)

		api.GET("/:serverId/favorites", h.ListFavorites)
		api.POST("/:serverId/favorites", h.AddFavorite)
		api.DELETE("/:serverId/favorites/:shortUrlId", h.RemoveFavorite)
		api.GET("/:serverId/favorites/:shortUrlId/qr", h.FavoriteQRCode)

		api.GET("/:serverId/folders", h.ListFolders)
		api.POST("/:serverId/folders", h.CreateFolder)
		api.PATCH("/:serverId/folders/:folderId", h.RenameFolder)
		api.DELETE("/:serverId/folders/:folderId", h.DeleteFolder)
		api.POST("/:serverId/folders/:folderId/items", h.AddFolderItem)
		api.DELETE("/:serverId/folders/:folderId/items/:shortUrlId", h.RemoveFolderItem)

		api.GET("/:serverId/api-keys", h.ListApiKeys)
		api.POST("/:serverId/api-keys", h.RegisterApiKey)
		api.POST("/:serverId/api-keys/:keyId/usage", h.RecordApiKeyUsage)
		api.DELETE("/:serverId/api-keys/:keyId", h.DeleteApiKey)

		authorized.GET("/api/audit-logs", h.AdminRequired(), h.ListAuditLogs)
	}

	manage := r.Group("/manage-users")
	manage.Use(h.UserManagementEnabled(), h.AuthRequired(), h.PasswordChangeRequired(), h.AdminRequired())
	{
		manage.GET("", h.ListUsers)
		manage.POST("", h.CreateUser)
		manage.PATCH("/:userId", h.EditUser)
		manage.DELETE("/:userId", h.DeleteUser)
		manage.POST("/:userId/reset-password", h.ResetUserPassword)
		manage.PUT("/:userId/servers", h.SetUserServers)
	}

	return r
}
