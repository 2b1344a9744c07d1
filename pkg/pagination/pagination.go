package pagination

import (
	"strconv"
	"strings"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100

	// MaxPage keeps Offset far from integer overflow.
	MaxPage = 100000
)

// Meta is returned next to a page of results.
type Meta struct {
	CurrentPage  int  `json:"currentPage"`
	PageLimit    int  `json:"pageLimit"`
	Total        int  `json:"total"`
	TotalPages   int  `json:"totalPages"`
	NextPage     *int `json:"nextPage,omitempty"`
	PreviousPage *int `json:"previousPage,omitempty"`
}

// Request is a parsed page/perPage pair. Offset is the number of rows to skip.
type Request struct {
	Page    int
	PerPage int
}

func (r Request) Offset() int {
	return r.PerPage * (r.Page - 1)
}

// Parse reads the page and perPage query values. Missing, malformed or
// non-positive values fall back to the defaults; both values are capped.
func Parse(page, perPage string) Request {
	req := Request{
		Page:    parsePositive(page, DefaultPage),
		PerPage: parsePositive(perPage, DefaultPerPage),
	}
	if req.Page > MaxPage {
		req.Page = MaxPage
	}
	if req.PerPage > MaxPerPage {
		req.PerPage = MaxPerPage
	}
	return req
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Paginate builds the meta block for total matching rows.
func Paginate(req Request, total int) Meta {
	totalPages := 0
	if req.PerPage > 0 {
		totalPages = (total + req.PerPage - 1) / req.PerPage
	}

	meta := Meta{
		CurrentPage: req.Page,
		PageLimit:   req.PerPage,
		Total:       total,
		TotalPages:  totalPages,
	}

	if prev := req.Page - 1; prev > 0 {
		meta.PreviousPage = &prev
	}
	if req.PerPage*req.Page < total {
		next := req.Page + 1
		meta.NextPage = &next
	}

	return meta
}
