package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"urldash/internal/repository"
	"urldash/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultItemsPerPage = 10
	maxItemsPerPage     = 100
)

type pagination struct {
	Page         int   `json:"page"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalItems   int64 `json:"totalItems"`
	PagesCount   int64 `json:"pagesCount"`
}

type pagedResponse struct {
	Data       any        `json:"data"`
	Pagination pagination `json:"pagination"`
}

// respondError maps domain errors onto status codes. Unexpected errors are
// logged and hidden from the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed login attempts. Please try again later."})
	default:
		h.logger.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

// parseListOptions reads page, itemsPerPage, searchTerm and orderBy.
func parseListOptions(c *gin.Context) (repository.ListOptions, int, int, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return repository.ListOptions{}, 0, 0, err
	}
	perPage, err := queryInt(c, "itemsPerPage", defaultItemsPerPage)
	if err != nil {
		return repository.ListOptions{}, 0, 0, err
	}
	if perPage > maxItemsPerPage {
		perPage = maxItemsPerPage
	}
	orderBy, err := repository.ParseOrderBy(c.Query("orderBy"))
	if err != nil {
		return repository.ListOptions{}, 0, 0, err
	}
	return repository.ListOptions{
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
		SearchTerm: c.Query("searchTerm"),
		OrderBy:    orderBy,
	}, page, perPage, nil
}

func paged(data any, page, perPage int, total int64) pagedResponse {
	pages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		pages++
	}
	return pagedResponse{
		Data: data,
		Pagination: pagination{
			Page:         page,
			ItemsPerPage: perPage,
			TotalItems:   total,
			PagesCount:   pages,
		},
	}
}
