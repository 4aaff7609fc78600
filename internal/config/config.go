// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database selection, authentication,
// recognition policy, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	// Zone database for TZ on minimal images.
	_ "time/tzdata"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "aura-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and tunes the relational store.
type DBConfig struct {
	Driver       string // sqlite|postgres
	Path         string // SQLite file path
	URL          string // Postgres DSN
	MaxOpenConns int
}

// AuthConfig controls token issuance and identity extraction.
type AuthConfig struct {
	Secret      string
	Issuer      string
	TokenTTL    time.Duration
	AllowHeader bool // accept X-User-ID without a token (dev/test only)
	BcryptCost  int
}

// RecognitionConfig holds the recognition policy knobs.
type RecognitionConfig struct {
	// BatchDailyLimit applies the one-per-day rule to batch items too.
	BatchDailyLimit bool
	BatchMax        int
}

// ReportConfig holds report aggregation settings.
type ReportConfig struct {
	Window            time.Duration
	EngagementEnabled bool
	ModelPath         string // optional override of the embedded artifact
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain window
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel      string // debug|info|warn|error|fatal|panic
	LogPretty     bool   // pretty console logs in dev
	APIBasePath   string // base path for API routes
	APIV2BasePath string // base path for v2 routes (batch recognition)
	TimeZone      string // IANA zone for calendar-day/month boundaries

	// Store
	DB DBConfig

	// Domain
	Auth        AuthConfig
	Recognition RecognitionConfig
	Report      ReportConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:      strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:     getbool("LOG_PRETTY", false),
		APIBasePath:   normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
		APIV2BasePath: normalizeBasePath(getenv("API_V2_BASE_PATH", "/api/v2")),
		TimeZone:      strings.TrimSpace(getenv("TZ", "")),

		// Store
		DB: DBConfig{
			Driver:       strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:         getenv("DB_PATH", "aura.db"),
			URL:          getenv("DATABASE_URL", ""),
			MaxOpenConns: getint("DB_MAX_OPEN_CONNS", 10),
		},

		// Domain
		Auth: AuthConfig{
			Secret:      getenv("JWT_SECRET", ""),
			Issuer:      getenv("JWT_ISSUER", "aura-backend"),
			TokenTTL:    getdur("JWT_TTL", 8*time.Hour),
			AllowHeader: getbool("AUTH_ALLOW_HEADER", false),
			BcryptCost:  getint("BCRYPT_COST", 12),
		},
		Recognition: RecognitionConfig{
			BatchDailyLimit: getbool("RECOGNITION_BATCH_DAILY_LIMIT", false),
			BatchMax:        getint("RECOGNITION_BATCH_MAX", 10),
		},
		Report: ReportConfig{
			Window:            getdur("REPORT_WINDOW", 30*24*time.Hour),
			EngagementEnabled: getbool("ENGAGEMENT_ENABLED", true),
			ModelPath:         getenv("ENGAGEMENT_MODEL_PATH", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "aura-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" || cfg.DB.Driver == "pg" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("SHUTDOWN_TIMEOUT must be > 0")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if cfg.TimeZone != "" {
		if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
			return cfg, errors.New("TZ must be a valid IANA time zone")
		}
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL must be set when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.DB.MaxOpenConns < 1 {
		return cfg, errors.New("DB_MAX_OPEN_CONNS must be >= 1")
	}
	if !cfg.Auth.AllowHeader && len(cfg.Auth.Secret) < 16 {
		return cfg, errors.New("JWT_SECRET must be at least 16 bytes")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return cfg, errors.New("JWT_TTL must be > 0")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return cfg, errors.New("BCRYPT_COST must be between 4 and 31")
	}
	if cfg.Recognition.BatchMax < 1 {
		return cfg, errors.New("RECOGNITION_BATCH_MAX must be >= 1")
	}
	if cfg.Report.Window <= 0 {
		return cfg, errors.New("REPORT_WINDOW must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
