// Command server runs the aura HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/aura-backend/internal/config"
	"github.com/tbourn/aura-backend/internal/engagement"
	httpapi "github.com/tbourn/aura-backend/internal/http"
	"github.com/tbourn/aura-backend/internal/observability"
	"github.com/tbourn/aura-backend/internal/repo"
	"github.com/tbourn/aura-backend/internal/services"
	"github.com/tbourn/aura-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	loc := sysutil.Location(cfg.TimeZone)
	clock := services.Clock{Location: loc}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(cfg.DB, cfg.OTEL.Enabled)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	var scorer engagement.Scorer
	if cfg.Report.EngagementEnabled {
		m, err := engagement.Load(cfg.Report.ModelPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Report.ModelPath).Msg("engagement model load failed")
		}
		scorer = m
	}

	janitor := &services.IdempotencyService{DB: db, TTL: cfg.IdempotencyTTL, Clock: clock}
	go janitor.RunJanitor(ctx, time.Hour)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, httpapi.Options{Scorer: scorer, Clock: clock})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", appVersion).
			Str("db", cfg.DB.Driver).
			Str("tz", loc.String()).
			Bool("engagement", scorer != nil).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownOTel(drainCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
