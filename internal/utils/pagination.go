package utils

import (
	"strconv" // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
)

// MaxPageSize caps every paginated listing
const MaxPageSize = 100

// Page is a parsed page request
type Page struct {
	Page     int
	PageSize int
}

// Offset returns the row offset of the page
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns the page count for total rows
func (p Page) TotalPages(total int64) int {
	return (int(total) + p.PageSize - 1) / p.PageSize
}

// ParsePage reads page and sizeKey from the query string
func ParsePage(c *gin.Context, sizeKey string, defaultSize int) Page {
	p := Page{Page: 1, PageSize: defaultSize}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v // Set page if valid
	}
	// Page size stays within limits
	if v, err := strconv.Atoi(c.Query(sizeKey)); err == nil && v > 0 && v <= MaxPageSize {
		p.PageSize = v
	}
	return p
}

// QueryLimit reads a bounded limit parameter
func QueryLimit(c *gin.Context, def, max int) int {
	v, err := strconv.Atoi(c.Query("limit"))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
