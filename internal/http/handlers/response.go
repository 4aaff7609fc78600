// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint: the error
// envelope, success writers, pagination metadata, weak ETags for conditional
// GETs, and the idempotent replay/store pair used by create endpoints.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "team_not_found",
//	  "message": "team not found"
//	}
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/http/middleware"
	"github.com/tbourn/aura-backend/internal/utils"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"team not found"`
}

// fail aborts with the error envelope. 5xx responses are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code)
		if len(c.Errors) > 0 {
			ev = ev.Str("cause", c.Errors.Last().Error())
		}
		ev.Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// Link is a navigation link relative to the API host.
type Link struct {
	Href   string `json:"href"   example:"/api/v1/teams?page=2&page_size=10"`
	Rel    string `json:"rel"    example:"next"`
	Method string `json:"method" example:"GET"`
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
	Links      []Link     `json:"links"`
}

func listResponse[T any](c *gin.Context, items []T, page, pageSize int, total int64) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	p := newPagination(page, pageSize, total)
	return ListResponse[T]{Items: items, Pagination: p, Links: pageLinks(c.Request.URL.Path, p)}
}

// pageLinks returns self, plus first/previous past page 1 and next/last
// before the final page. Other query parameters are not carried over.
func pageLinks(path string, p Pagination) []Link {
	href := func(page int) string {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(p.PageSize))
		return path + "?" + q.Encode()
	}
	links := []Link{{Href: href(p.Page), Rel: "self", Method: http.MethodGet}}
	if p.Page > 1 {
		links = append(links,
			Link{Href: href(1), Rel: "first", Method: http.MethodGet},
			Link{Href: href(p.Page - 1), Rel: "previous", Method: http.MethodGet},
		)
	}
	if p.Page < p.TotalPages {
		links = append(links,
			Link{Href: href(p.Page + 1), Rel: "next", Method: http.MethodGet},
			Link{Href: href(p.TotalPages), Rel: "last", Method: http.MethodGet},
		)
	}
	return links
}

// clampPagination parses page and page_size, defaulting to 1 and 10 and
// capping page_size at 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 10
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pathID parses a positive numeric path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, strconv.IntSize)
	if err != nil || n == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return uint(n), true
}

// bindJSON decodes the body into dst, failing with 400 on malformed JSON.
// Field rules are enforced by the service layer.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// notModified sets a weak ETag built from (prefix, count, latest) and
// reports whether If-None-Match already matches it, in which case 304 has
// been written.
func notModified(c *gin.Context, prefix string, count int64, latest *time.Time) bool {
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d"`, prefix, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// IdempotencyStore persists and replays create responses.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID uint, scope, key string) (*domain.Idempotency, error)
	Remember(ctx context.Context, userID uint, scope, key string, status int, body []byte) error
}

const jsonContentType = "application/json; charset=utf-8"

// replay serves the stored response for this request's Idempotency-Key, if
// any, and reports whether it did.
func (h *Handlers) replay(c *gin.Context) bool {
	key, found := middleware.GetIdempotencyKey(c)
	if !found || h.idem == nil {
		return false
	}
	rec, err := h.idem.Lookup(c.Request.Context(), middleware.UserID(c), c.FullPath(), key)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		return false
	}
	if rec == nil {
		return false
	}
	c.Header(middleware.HeaderIdempotencyReplayed, "true")
	c.Data(rec.Status, jsonContentType, rec.Body)
	return true
}

// created writes body with status and, when the request carries an
// Idempotency-Key, stores it for replay. Storage failures are logged only.
func (h *Handlers) created(c *gin.Context, status int, body any) {
	buf, err := json.Marshal(body)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	if key, found := middleware.GetIdempotencyKey(c); found && h.idem != nil {
		if err := h.idem.Remember(c.Request.Context(), middleware.UserID(c), c.FullPath(), key, status, buf); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency store failed")
		}
	}
	c.Data(status, jsonContentType, buf)
}
