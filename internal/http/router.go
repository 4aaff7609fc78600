// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/aura-backend/internal/auth"
	"github.com/tbourn/aura-backend/internal/config"
	"github.com/tbourn/aura-backend/internal/engagement"
	"github.com/tbourn/aura-backend/internal/http/handlers"
	"github.com/tbourn/aura-backend/internal/http/middleware"
	"github.com/tbourn/aura-backend/internal/services"
)

// Options carries the collaborators that are built outside the router.
type Options struct {
	// Scorer enables engagement scoring in reports; nil disables it.
	Scorer engagement.Scorer
	// Clock fixes "now" and the calendar location for every service.
	Clock services.Clock
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine, then mounts the public API under cfg.APIBasePath and the batch
// endpoint under cfg.APIV2BasePath.
//
// Global middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip
//  8. CORS and Security headers
//
// Protected groups then run Authenticate, the idempotency validator (before
// the rate limiter so replays bypass it) and the rate limiter.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, opts Options) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderUserID},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(limitBody(maxBody))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db/config
	issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	idem := &services.IdempotencyService{DB: db, TTL: cfg.IdempotencyTTL, Clock: opts.Clock}
	h := handlers.New(handlers.Deps{
		Users:      &services.UserService{DB: db, Issuer: issuer, BcryptCost: cfg.Auth.BcryptCost},
		Teams:      &services.MembershipService{DB: db, Clock: opts.Clock},
		Sentiments: &services.SentimentService{DB: db, Clock: opts.Clock},
		Recognitions: &services.RecognitionService{
			DB:              db,
			Clock:           opts.Clock,
			BatchDailyLimit: cfg.Recognition.BatchDailyLimit,
			BatchMax:        cfg.Recognition.BatchMax,
		},
		Reports: &services.ReportService{
			DB:     db,
			Clock:  opts.Clock,
			Scorer: opts.Scorer,
			Window: cfg.Report.Window,
		},
		Idempotency: idem,
	})

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	protected := []gin.HandlerFunc{
		middleware.Authenticate(middleware.AuthOptions{
			Verifier:    issuer,
			AllowHeader: cfg.Auth.AllowHeader,
		}),
		middleware.IdempotencyValidator(
			middleware.IdempotencyOptions{MaxLen: 200},
			func(ctx context.Context, userID uint, scope, key string) (bool, error) {
				rec, err := idem.Lookup(ctx, userID, scope, key)
				return rec != nil, err
			},
		),
		rl.Handler(),
	}

	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"

	// Accounts
	pub := api.Group("/auth", rl.Handler())
	{
		pub.POST("/register", h.Register)
		pub.POST("/login", h.Login)
	}
	me := api.Group("/auth", protected...)
	{
		me.GET("/me", h.Me)
		me.PUT("/me", h.UpdateMe)
		me.DELETE("/me", h.DeactivateMe)
	}

	v1 := api.Group("", protected...)
	{
		// Teams
		v1.POST("/teams", h.CreateTeam)
		v1.GET("/teams", h.ListTeams)
		v1.POST("/teams/leave", h.LeaveTeam)
		v1.POST("/teams/members", h.AddMember)
		v1.DELETE("/teams/members/:memberId", h.RemoveMember)
		v1.GET("/teams/:id", h.GetTeam)
		v1.PUT("/teams/:id", h.UpdateTeam)
		v1.DELETE("/teams/:id", h.DeleteTeam)
		v1.POST("/teams/:id/join", h.JoinTeam)

		// Recognitions
		v1.POST("/recognitions", h.CreateRecognition)
		v1.GET("/recognitions/sent", h.ListSentRecognitions)
		v1.GET("/recognitions/received", h.ListReceivedRecognitions)
		v1.GET("/recognitions/:id", h.GetRecognition)
		v1.DELETE("/recognitions/:id", h.DeleteRecognition)

		// Sentiments
		v1.POST("/sentiments", h.CreateSentiment)
		v1.GET("/sentiments", h.ListSentiments)
		v1.GET("/sentiments/:id", h.GetSentiment)
		v1.DELETE("/sentiments/:id", h.DeleteSentiment)

		// Reports
		v1.POST("/reports/personal", h.GeneratePersonalReport)
		v1.GET("/reports/personal", h.ListPersonalReports)
		v1.GET("/reports/personal/:id", h.GetPersonalReport)
		v1.GET("/reports/teams/entries/:id", h.GetTeamReport)
		v1.POST("/reports/teams/:id", h.GenerateTeamReport)
		v1.GET("/reports/teams/:id", h.ListTeamReports)
	}

	v2 := groupWithPrefix(r, cfg.APIV2BasePath).Group("", protected...) // e.g. "/api/v2"
	{
		v2.POST("/recognitions/batch", h.CreateRecognitionBatch)
	}
}

var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsHeaders = []string{
		"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
		middleware.HeaderUserID, middleware.HeaderIdempotencyKey,
	}
	corsExposed = []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}
)

// corsMiddleware allows every origin when none are configured, otherwise
// echoes allowlisted origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     corsMethods,
				AllowHeaders:     corsHeaders,
				ExposeHeaders:    corsExposed,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExposed,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
