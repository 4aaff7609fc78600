// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. A request is authenticated by an
// HS256 bearer token; in development the X-User-ID header may be accepted as
// a fallback. The resolved numeric id is stored under the "userID" Gin
// context key and read back with UserID.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ctxKeyUserID holds the authenticated user id (uint).
	ctxKeyUserID = "userID"
	// HeaderUserID is the development identity header.
	HeaderUserID = "X-User-ID"
)

// TokenVerifier validates a bearer token and returns the user id it carries.
type TokenVerifier interface {
	Parse(token string) (uint, error)
}

// AuthOptions configures Authenticate.
type AuthOptions struct {
	Verifier TokenVerifier
	// AllowHeader accepts X-User-ID when no bearer token is presented.
	// Never enable it in production.
	AllowHeader bool
}

// UserID returns the authenticated user id, or 0 when the request carries
// no identity.
func UserID(c *gin.Context) uint {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}

// Authenticate rejects requests without a valid identity with 401 and the
// standard error envelope.
func Authenticate(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resolveIdentity(c, opts)
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="aura"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "missing or invalid credentials",
			})
			return
		}
		c.Set(ctxKeyUserID, id)
		withUserLogger(c, id)
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, opts AuthOptions) (uint, bool) {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, tok, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || opts.Verifier == nil {
			return 0, false
		}
		id, err := opts.Verifier.Parse(strings.TrimSpace(tok))
		if err != nil {
			return 0, false
		}
		return id, true
	}
	if opts.AllowHeader {
		n, err := strconv.ParseUint(strings.TrimSpace(c.GetHeader(HeaderUserID)), 10, strconv.IntSize)
		if err == nil && n > 0 {
			return uint(n), true
		}
	}
	return 0, false
}
