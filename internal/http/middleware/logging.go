// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, the structured access logger,
// and the panic recovery handler.
//
//   - RequestID() reuses or generates the correlation id (X-Request-ID).
//   - Logger() attaches a request-scoped zerolog.Logger to both the Gin
//     context and the request's context.Context, so services logging through
//     log.Ctx(ctx) inherit request_id and user_id. It emits one access line
//     per request at a level chosen by outcome.
//   - Recovery() converts panics into the JSON 500 envelope.
//   - LoggerFrom() returns the request-scoped logger for handlers.
//
// Recommended order: RequestID, Logger (or RedactingLogger), Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key of the request-scoped *zerolog.Logger.
	loggerKey = "logger"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
// An incoming X-Request-ID is reused; otherwise a UUIDv4 is generated. The
// id is echoed on the response and stored under "requestID".
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation id stored by RequestID.
func RequestIDFrom(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// attachLogger stores l in the Gin context and in the request context.
func attachLogger(c *gin.Context, l zerolog.Logger) {
	c.Set(loggerKey, &l)
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
}

// withUserLogger re-scopes the request logger with the authenticated user.
func withUserLogger(c *gin.Context, userID uint) {
	l := LoggerFrom(c).With().Uint("user_id", userID).Logger()
	attachLogger(c, l)
}

// Logger writes a structured access log for each request.
//
// Log level: error for 5xx or when Gin collected errors, warn for 4xx,
// info otherwise. The user id is added once Authenticate has run.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", routePath(c)).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			// ContentLength can be -1 if unknown.
			Int64("bytes_in", c.Request.ContentLength).
			Logger()
		attachLogger(c, l)

		c.Next()

		ev := LoggerFrom(c).With().
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			ev.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// Recovery intercepts panics, logs a stack trace, and returns the JSON 500
// envelope when nothing has been written yet.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid := RequestIDFrom(c)
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", rid).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.Header(requestIDHeader, rid)
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": rid,
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// Logger() is not installed. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// routePath is the registered route template, or "unmatched" when no route
// matched. Raw URLs never become log or metric labels.
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case uint:
		return strconv.FormatUint(uint64(s), 10)
	}
	return ""
}

// truncate cuts s to limit bytes plus an ellipsis; limit <= 0 disables it.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
