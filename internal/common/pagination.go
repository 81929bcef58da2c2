package common

import (
	"net/http"
	"strconv"
	"strings"
)

// MaxPerPage caps the page size accepted from clients.
const MaxPerPage = 100

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination extracts page and per-page parameters from query values.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	query := r.URL.Query()
	page = AtoiDefault(query.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	perPage = AtoiDefault(query.Get("limit"), defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return
}

// Bounds returns the half-open slice range of the requested page within total items.
func (p Pagination) Bounds() (start, end int) {
	if p.Page < 1 || p.PerPage < 1 {
		return 0, 0
	}
	total := max(p.TotalItems, 0)
	// compare page indexes first so huge page numbers cannot overflow start
	if p.Page-1 > total/p.PerPage {
		return total, total
	}
	start = min((p.Page-1)*p.PerPage, total)
	end = start + min(p.PerPage, total-start)
	return start, end
}

// AtoiDefault parses value as a base-10 integer, returning def when it is
// blank or malformed.
func AtoiDefault(value string, def int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}
