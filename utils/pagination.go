package utils

import (
	"net/url"
	"strconv"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Pagination carries the parsed page parameters and the derived skip.
type Pagination struct {
	Page  int
	Limit int
	Skip  int
}

// GetPaginationParams parses ?page= and ?limit= with sane bounds.
func GetPaginationParams(q url.Values) Pagination {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = defaultPage
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Page: page, Limit: limit, Skip: (page - 1) * limit}
}

// PaginatedResponse wraps a result page with its counts under the given
// field name.
func PaginatedResponse(field string, items any, total int64, p Pagination) M {
	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	return M{
		"success": true,
		field:     items,
		"pagination": M{
			"page":       p.Page,
			"limit":      p.Limit,
			"total":      total,
			"totalPages": pages,
		},
	}
}
