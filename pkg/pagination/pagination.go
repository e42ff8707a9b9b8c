package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromContext extracts pagination parameters from the echo context.
// Pages are 1-based.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the SQL offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// HasNext reports whether there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset()+p.Limit < total
}

// TotalPages returns the page count for the given total.
func (p Params) TotalPages(total int) int {
	if total == 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Response wraps a paginated API response in the envelope the portal expects.
type Response struct {
	Results      interface{} `json:"results"`
	TotalResults int         `json:"totalResults"`
	TotalPages   int         `json:"totalPages"`
	Page         int         `json:"page"`
	Limit        int         `json:"limit"`
}

func NewResponse(results interface{}, total int, p Params) *Response {
	return &Response{
		Results:      results,
		TotalResults: total,
		TotalPages:   p.TotalPages(total),
		Page:         p.Page,
		Limit:        p.Limit,
	}
}
