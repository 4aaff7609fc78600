package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func keyFor(remote string, uid uint) string {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = remote
	if uid != 0 {
		c.Set(ctxKeyUserID, uid)
	}
	return KeyByUserOrIP()(c)
}

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		remote string
		uid    uint
		want   string
	}{
		{"203.0.113.9:12345", 0, "ip:203.0.113.9"},
		{"203.0.113.9:12345", 42, "user:42"},
		{"198.51.100.2:1", 7, "user:7"},
	}
	for _, tc := range cases {
		if got := keyFor(tc.remote, tc.uid); got != tc.want {
			t.Errorf("key(%s, %d) = %q; want %q", tc.remote, tc.uid, got, tc.want)
		}
	}
}

func TestRateLimiter_VisitorLifecycle(t *testing.T) {
	rl := NewRateLimiter(2, -3, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d; want 1", rl.burst)
	}
	a := rl.getVisitor("user:1")
	if rl.getVisitor("user:1") != a {
		t.Fatalf("bucket for user:1 was not reused")
	}
	if rl.getVisitor("user:2") == a {
		t.Fatalf("user:2 shares user:1's bucket")
	}

	// The sweep runs on the 5000th lookup and drops idle buckets.
	rl.mu.Lock()
	rl.visitors["ip:idle"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.cleanupN = 4999
	rl.mu.Unlock()

	_ = rl.getVisitor("user:3")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["ip:idle"]; ok {
		t.Fatalf("idle bucket survived the sweep")
	}
	if _, ok := rl.visitors["user:1"]; !ok {
		t.Fatalf("fresh bucket was swept")
	}
	if rl.cleanupN != 0 {
		t.Fatalf("cleanup counter = %d; want reset", rl.cleanupN)
	}
}

func TestIsRateBypass(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	for _, tc := range []struct {
		val  any
		want bool
	}{
		{nil, false},
		{true, true},
		{false, false},
		{"true", false},
	} {
		if tc.val != nil {
			c.Set(ctxKeyRateBypass, tc.val)
		}
		if got := IsRateBypass(c); got != tc.want {
			t.Errorf("IsRateBypass with %v = %v; want %v", tc.val, got, tc.want)
		}
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, 1, KeyByUserOrIP())

	// caller is chosen per request through headers so one engine covers
	// every bucket.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-rl")
		if c.GetHeader("X-Test-User") == "9" {
			c.Set(ctxKeyUserID, uint(9))
		}
		if c.GetHeader("X-Test-Replay") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	})
	r.Use(rl.Handler())
	r.POST("/recognitions", func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(headers ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/recognitions", nil)
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusCreated {
		t.Fatalf("first anonymous request: %d", w.Code)
	}

	denied := send()
	if denied.Code != http.StatusTooManyRequests {
		t.Fatalf("second anonymous request: %d; want 429", denied.Code)
	}
	if got := denied.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q; want 1", got)
	}
	var env map[string]any
	if err := json.Unmarshal(denied.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if env["code"] != "rate_limited" || env["request_id"] != "rid-rl" {
		t.Fatalf("unexpected envelope: %v", env)
	}

	if w := send("X-Test-User", "9"); w.Code != http.StatusCreated {
		t.Fatalf("user 9 should have a fresh bucket, got %d", w.Code)
	}
	if w := send("X-Test-Replay", "1"); w.Code != http.StatusCreated {
		t.Fatalf("replays skip the limiter, got %d", w.Code)
	}
}
