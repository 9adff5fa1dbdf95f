package handlers

import (
	"github.com/gin-gonic/gin"

	"inkwell/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parsePagination reads page/limit query params, clamped to sane bounds.
// Unbounded result sets are never served.
func parsePagination(c *gin.Context) (page, limit int) {
	page = utils.StringToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	limit = utils.StringToInt(c.DefaultQuery("limit", "0"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
