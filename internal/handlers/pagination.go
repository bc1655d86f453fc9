package handlers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaginatedResponse wraps a page of rows with the counters the list pages
// need to draw a pager.
type PaginatedResponse struct {
	Data        interface{} `json:"data"`
	TotalRows   int64       `json:"totalRows"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	PageSize    int         `json:"pageSize"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Paginate is a GORM scope reading "page" and "pageSize" from the request.
// Out-of-range values fall back to the defaults rather than erroring.
func Paginate(c *gin.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		page, size := pageParams(c)
		return db.Offset((page - 1) * size).Limit(size)
	}
}

// CreatePaginatedResponse assembles the list envelope for rows counted
// before the Paginate scope was applied.
func CreatePaginatedResponse(c *gin.Context, data interface{}, totalRows int64) PaginatedResponse {
	page, size := pageParams(c)

	totalPages := 0
	if totalRows > 0 {
		totalPages = int(math.Ceil(float64(totalRows) / float64(size)))
	}

	return PaginatedResponse{
		Data:        data,
		TotalRows:   totalRows,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    size,
	}
}

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(c.Query("pageSize"))
	switch {
	case size > MaxPageSize:
		size = MaxPageSize
	case size <= 0:
		size = DefaultPageSize
	}
	return page, size
}
