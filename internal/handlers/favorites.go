package handlers

import (
	"net/http"
	"strconv"

	"urldash/internal/repository"
	"urldash/internal/services"

	"github.com/gin-gonic/gin"
)

type AddFavoriteRequest struct {
	ShortURLID string  `json:"shortUrlId" binding:"required"`
	ShortURL   string  `json:"shortUrl" binding:"required"`
	LongURL    string  `json:"longUrl"`
	Title      *string `json:"title"`
}

func (h *Handler) ListFavorites(c *gin.Context) {
	favorites, err := h.repos.Favorites.ListFavorites(c.Request.Context(), currentUser(c).PublicID, c.Param("serverId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if favorites == nil {
		notFound(c, "Server")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": favorites})
}

func (h *Handler) AddFavorite(c *gin.Context) {
	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := currentUser(c)
	favorite, err := h.repos.Favorites.AddFavorite(c.Request.Context(), user.PublicID, c.Param("serverId"), repository.FavoriteData{
		ShortURLID: req.ShortURLID,
		ShortURL:   req.ShortURL,
		LongURL:    req.LongURL,
		Title:      req.Title,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if favorite == nil {
		notFound(c, "Server")
		return
	}

	h.auditService.LogAction(services.AuditEntry{
		UserID:       &user.ID,
		ServerID:     &favorite.ServerID,
		Action:       services.ActionFavoriteAdded,
		ResourceType: "short_url",
		ResourceID:   favorite.ShortURLID,
		Client:       clientInfo(c),
	})
	c.JSON(http.StatusCreated, favorite)
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	user := currentUser(c)
	shortURLID := c.Param("shortUrlId")
	removed, err := h.repos.Favorites.RemoveFavorite(c.Request.Context(), user.PublicID, c.Param("serverId"), shortURLID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !removed {
		notFound(c, "Favorite")
		return
	}

	h.auditService.LogAction(services.AuditEntry{
		UserID:       &user.ID,
		Action:       services.ActionFavoriteRemoved,
		ResourceType: "short_url",
		ResourceID:   shortURLID,
		Client:       clientInfo(c),
	})
	c.Status(http.StatusNoContent)
}

// FavoriteQRCode renders the favorite's short URL as a PNG, or as SVG with
// format=svg.
func (h *Handler) FavoriteQRCode(c *gin.Context) {
	favorite, err := h.repos.Favorites.FindFavorite(c.Request.Context(), currentUser(c).PublicID, c.Param("serverId"), c.Param("shortUrlId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if favorite == nil {
		notFound(c, "Favorite")
		return
	}

	size, _ := strconv.Atoi(c.Query("size"))
	opts := services.QROptions{
		Content: favorite.ShortURL,
		Size:    size,
		FgColor: c.Query("fg"),
		BgColor: c.Query("bg"),
	}

	if c.Query("format") == "svg" {
		svg, err := h.qrService.GenerateQRCodeSVG(opts)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
		return
	}

	png, err := h.qrService.GenerateQRCode(opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
