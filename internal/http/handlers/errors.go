// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Generic codes mirror HTTP status semantics. Service errors carry their own
// stable code (e.g. "daily_limit", "not_manager") which is passed through to
// the client unchanged; the generic code is used only when a service error
// has none.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "monthly_limit",
//	  "message": "this receiver was already recognized by you this month"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aura-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// kindStatus maps a service error kind to its HTTP status and generic code.
func kindStatus(k services.ErrorKind) (int, string) {
	switch k {
	case services.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case services.KindConflict:
		return http.StatusConflict, ErrCodeConflict
	case services.KindForbidden:
		return http.StatusForbidden, ErrCodeForbidden
	case services.KindInvalid:
		return http.StatusBadRequest, ErrCodeBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	}
	return http.StatusInternalServerError, ErrCodeInternal
}

// serviceError translates err into the error envelope. Internal errors never
// leak their message to the client.
func serviceError(c *gin.Context, err error) {
	status, code := kindStatus(services.Kind(err))
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		fail(c, status, code, "internal server error")
		return
	}
	if specific := services.Code(err); specific != "" {
		code = specific
	}
	fail(c, status, code, err.Error())
}
