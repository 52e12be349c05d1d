package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := defaultLimit
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Limit: limit, Offset: offset}
}

// Page is one window of a list plus the size of the whole list.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Apply cuts the window p describes out of all. A limit of zero keeps
// everything after the offset.
func Apply[T any](all []T, p Pagination) Page[T] {
	start := min(p.Offset, len(all))
	end := len(all)
	if p.Limit > 0 {
		end = min(start+p.Limit, len(all))
	}
	items := all[start:end]
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: len(all), Limit: p.Limit, Offset: p.Offset}
}
