package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParsePagination reads page and page_size from the query string.
// Missing or unparsable values fall back to page 1 / DefaultPageSize;
// page_size is capped at MaxPageSize.
func ParsePagination(c *gin.Context) (page, pageSize int) {
	page = ParseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}

	pageSize = ParseInt(c.Query("page_size"), DefaultPageSize)
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
