package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-tracker-api/internal/constants"
)

// PaginationParams is a 1-based page request. A zero Limit means unbounded.
type PaginationParams struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip for the requested page.
func (p PaginationParams) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// PaginationResponse is the "pagination" block of list responses.
type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// NewPaginationResponse describes the page p out of total matching rows.
func NewPaginationResponse(p PaginationParams, total int64) PaginationResponse {
	resp := PaginationResponse{Page: p.Page, Limit: p.Limit, Total: total}
	if p.Limit > 0 {
		resp.TotalPages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return resp
}

// GetPaginationParams reads "page" and "limit" from the query string.
// Unparseable or non-positive values fall back to defaults and limits above
// the maximum are capped.
func GetPaginationParams(c *gin.Context) PaginationParams {
	params := PaginationParams{Page: 1, Limit: constants.DefaultPageSize}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page >= constants.MinPageSize {
		params.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit >= constants.MinPageSize {
		params.Limit = min(limit, constants.MaxPageSize)
	}
	return params
}
