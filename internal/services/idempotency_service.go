package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/repo"
)

// DefaultIdempotencyTTL is used when IdempotencyService.TTL is zero.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyService stores and replays POST results keyed by
// (user, scope, Idempotency-Key).
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration
	Clock
}

func (s *IdempotencyService) tracer() trace.Tracer {
	return otel.Tracer("services/IdempotencyService")
}

func (s *IdempotencyService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultIdempotencyTTL
}

func userKey(userID uint) string { return strconv.FormatUint(uint64(userID), 10) }

// Lookup returns a live stored result, or nil when none exists.
func (s *IdempotencyService) Lookup(ctx context.Context, userID uint, scope, key string) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userKey(userID), scope, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Remember stores a result. A concurrent duplicate is not an error: the
// first stored result wins.
func (s *IdempotencyService) Remember(ctx context.Context, userID uint, scope, key string, status int, body []byte) error {
	ctx, span := s.tracer().Start(ctx, "Remember",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.String("scope", scope),
		),
	)
	defer span.End()

	_, err := repo.CreateIdempotency(ctx, s.DB, userKey(userID), scope, key, status, body, s.ttl())
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Purge deletes expired records and returns how many were removed.
func (s *IdempotencyService) Purge(ctx context.Context) (int64, error) {
	n, err := repo.PurgeExpiredIdempotency(ctx, s.DB, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Ctx(ctx).Debug().Int64("purged", n).Msg("idempotency records expired")
	}
	return n, nil
}

// RunJanitor calls Purge every interval until ctx is done.
func (s *IdempotencyService) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Purge(ctx); err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("idempotency purge failed")
			}
		}
	}
}
