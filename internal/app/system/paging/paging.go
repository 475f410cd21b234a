// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows in paged lists.
const PageSize = 50

// MaxPageSize caps the "limit" query parameter.
const MaxPageSize = 200

// ParsePage extracts the 1-based "page" query parameter.
// Returns 1 if not present or invalid.
func ParsePage(r *http.Request) int {
	n, err := strconv.Atoi(query.Get(r, "page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseLimit extracts the "limit" query parameter, clamped to
// 1..MaxPageSize. Returns PageSize if not present or invalid.
func ParseLimit(r *http.Request) int {
	n, err := strconv.Atoi(query.Get(r, "limit"))
	if err != nil || n < 1 {
		return PageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// Offset is the number of rows before page.
func Offset(page, size int) int64 {
	if page < 1 {
		page = 1
	}
	return int64((page - 1) * size)
}

// Info describes one page of an offset-paged list.
type Info struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

// NewInfo computes page indicators. An empty list has one (empty) page.
func NewInfo(page, size int, total int64) Info {
	pages := 1
	if size > 0 && total > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Info{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: pages,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
}
