package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// serveSecured runs one GET through SecurityHeaders. pre runs before the
// middleware so tests can stage headers a real upstream would have set.
func serveSecured(opt SecurityOptions, pre gin.HandlerFunc, mutate func(*http.Request)) http.Header {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/teams", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Options(t *testing.T) {
	cases := []struct {
		name   string
		opt    SecurityOptions
		mutate func(*http.Request)
		want   map[string]string
	}{
		{
			name: "baseline only",
			opt:  SecurityOptions{},
			want: map[string]string{
				"X-Content-Type-Options":            "nosniff",
				"X-Frame-Options":                   "DENY",
				"Referrer-Policy":                   "no-referrer",
				"Permissions-Policy":                "",
				"X-Permitted-Cross-Domain-Policies": "",
				"Cache-Control":                     "",
				"Strict-Transport-Security":         "",
			},
		},
		{
			name: "policy and no-store",
			opt:  SecurityOptions{EnablePolicy: true, NoStore: true},
			want: map[string]string{
				"X-Permitted-Cross-Domain-Policies": "none",
				"Cache-Control":                     "no-store",
				"Pragma":                            "no-cache",
				"Expires":                           "0",
			},
		},
		{
			name: "hsts skipped on plain http",
			opt:  SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour},
			want: map[string]string{"Strict-Transport-Security": ""},
		},
		{
			name:   "hsts over tls",
			opt:    SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour},
			mutate: func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
			want:   map[string]string{"Strict-Transport-Security": "max-age=86400; includeSubDomains; preload"},
		},
		{
			name:   "hsts behind proxy with default max-age",
			opt:    SecurityOptions{EnableHSTS: true},
			mutate: func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") },
			want:   map[string]string{"Strict-Transport-Security": "max-age=15552000; includeSubDomains; preload"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := serveSecured(tc.opt, nil, tc.mutate)
			for k, v := range tc.want {
				if got := h.Get(k); got != v {
					t.Errorf("%s = %q; want %q", k, got, v)
				}
			}
			if got := h.Get("Permissions-Policy"); tc.opt.EnablePolicy && got == "" {
				t.Errorf("Permissions-Policy missing")
			}
		})
	}
}

func TestSecurityHeaders_ExposeHeaders(t *testing.T) {
	withHeaders := func(kv ...string) gin.HandlerFunc {
		return func(c *gin.Context) {
			for i := 0; i+1 < len(kv); i += 2 {
				c.Header(kv[i], kv[i+1])
			}
			c.Next()
		}
	}
	cases := []struct {
		name string
		pre  gin.HandlerFunc
		want string
	}{
		{"no request id", nil, "Idempotency-Replayed, ETag"},
		{"request id present", withHeaders("X-Request-ID", "rid-1"), "X-Request-ID, Idempotency-Replayed, ETag"},
		{
			"appends to existing list",
			withHeaders("X-Request-ID", "rid-2", "Access-Control-Expose-Headers", "Content-Length"),
			"Content-Length, X-Request-ID, Idempotency-Replayed, ETag",
		},
		{
			"keeps entries unique",
			withHeaders("X-Request-ID", "rid-3", "Access-Control-Expose-Headers", "etag, X-Request-ID"),
			"etag, X-Request-ID, Idempotency-Replayed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := serveSecured(SecurityOptions{}, tc.pre, nil).Get("Access-Control-Expose-Headers")
			if got != tc.want {
				t.Fatalf("expose = %q; want %q", got, tc.want)
			}
		})
	}
}

func Test_isHTTPS(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*http.Request)
		want   bool
	}{
		{"plain", func(*http.Request) {}, false},
		{"tls", func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, true},
		{"forwarded https", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "https") }, true},
		{"forwarded http", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "http") }, false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		tc.mutate(req)
		if got := isHTTPS(req); got != tc.want {
			t.Errorf("%s: isHTTPS = %v; want %v", tc.name, got, tc.want)
		}
	}
}
