// Package services – RecognitionService
//
// This file implements the recognition rule engine. A recognition is accepted
// only when giver and receiver are active teammates, the giver has not yet
// recognized anyone today, and has not yet recognized this receiver in the
// current calendar month. Calendar boundaries are computed in the service's
// Clock location.
//
// The rules are checked before the insert to produce precise errors, and are
// backed by unique indexes so concurrent duplicates also surface as conflicts.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/observability"
	"github.com/tbourn/aura-backend/internal/repo"
)

// RecognitionInput is a single recognition request.
type RecognitionInput struct {
	ReceiverID  uint    `json:"receiver_id" validate:"required"`
	Title       string  `json:"title"       validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// Batch item outcomes.
const (
	BatchSuccess = "success"
	BatchFailure = "failure"
)

// BatchDetail is the outcome of one batch item.
type BatchDetail struct {
	ReceiverID uint   `json:"receiverId"`
	Status     string `json:"status"`
	ID         *uint  `json:"id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BatchResult summarizes a batch; Details preserve input order.
type BatchResult struct {
	Successes int           `json:"successes"`
	Failures  int           `json:"failures"`
	Details   []BatchDetail `json:"details"`
}

// RecognitionService records and lists peer recognitions.
type RecognitionService struct {
	DB *gorm.DB
	Clock

	// BatchDailyLimit applies the one-per-day rule to batch items too.
	BatchDailyLimit bool
	// BatchMax caps the number of items in one batch (default 10).
	BatchMax int
}

func (s *RecognitionService) tracer() trace.Tracer {
	return otel.Tracer("services/RecognitionService")
}

// loadGiver validates the giver and returns it.
func (s *RecognitionService) loadGiver(ctx context.Context, giverID uint) (*domain.User, error) {
	g, err := loadUser(ctx, s.DB, giverID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if !g.Active {
		return nil, rejected(ErrGiverInactive)
	}
	if g.TeamID == nil {
		return nil, rejected(ErrGiverNoTeam)
	}
	return g, nil
}

// checkReceiver applies the receiver, teammate and self rules.
func (s *RecognitionService) checkReceiver(ctx context.Context, giver *domain.User, receiverID uint) error {
	r, err := loadUser(ctx, s.DB, receiverID, ErrReceiverNotFound)
	if err != nil {
		return err
	}
	if !r.Active {
		return rejected(ErrReceiverInactive)
	}
	if !r.InTeam(*giver.TeamID) {
		return rejected(ErrReceiverNotTeammate)
	}
	if r.ID == giver.ID {
		return rejected(ErrSelfRecognition)
	}
	return nil
}

func (s *RecognitionService) checkDaily(ctx context.Context, giverID uint, now time.Time) error {
	from, to := domain.DayBounds(now)
	n, err := repo.CountGivenBetween(ctx, s.DB, giverID, from, to)
	if err != nil {
		return err
	}
	if n > 0 {
		return rejected(ErrDailyLimit)
	}
	return nil
}

func (s *RecognitionService) checkMonthly(ctx context.Context, giverID, receiverID uint, now time.Time) error {
	from, to := domain.MonthBounds(now)
	n, err := repo.CountPairBetween(ctx, s.DB, giverID, receiverID, from, to)
	if err != nil {
		return err
	}
	if n > 0 {
		return rejected(ErrMonthlyLimit)
	}
	return nil
}

// insert persists a recognition. claimDaily stores the day key in the daily
// slot so the daily unique index applies to this row.
func (s *RecognitionService) insert(ctx context.Context, giverID uint, in RecognitionInput, now time.Time, claimDaily bool) (*domain.Recognition, error) {
	rec := &domain.Recognition{
		Title:       in.Title,
		Description: in.Description,
		GivenAt:     now,
		GiverID:     giverID,
		ReceiverID:  in.ReceiverID,
		MonthKey:    domain.MonthKey(now),
	}
	if claimDaily {
		day := domain.DayKey(now)
		rec.DailySlot = &day
	}
	if err := repo.CreateRecognition(ctx, s.DB, rec); err != nil {
		if isDuplicate(err) {
			return nil, rejected(duplicateRecognition(err))
		}
		return nil, err
	}
	return rec, nil
}

func normalizeRecognition(in RecognitionInput) RecognitionInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = trimPtr(in.Description)
	return in
}

// Create records one recognition from giverID, applying every rule in order.
func (s *RecognitionService) Create(ctx context.Context, giverID uint, in RecognitionInput) (*domain.Recognition, error) {
	ctx, span := s.tracer().Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int64("giver.id", int64(giverID)),
			attribute.Int64("receiver.id", int64(in.ReceiverID)),
		),
	)
	defer span.End()

	in = normalizeRecognition(in)
	if err := validate(in); err != nil {
		return nil, err
	}

	giver, err := s.loadGiver(ctx, giverID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReceiver(ctx, giver, in.ReceiverID); err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.checkDaily(ctx, giverID, now); err != nil {
		return nil, err
	}
	if err := s.checkMonthly(ctx, giverID, in.ReceiverID, now); err != nil {
		return nil, err
	}

	rec, err := s.insert(ctx, giverID, in, now, true)
	if err != nil {
		return nil, err
	}
	observability.RecognitionsCreated.WithLabelValues("single").Inc()
	return rec, nil
}

// CreateBatch records several recognitions from one giver. The giver is
// validated once; items are then processed sequentially and independently,
// and an item failure never aborts the batch. The daily rule applies to items
// only when BatchDailyLimit is set.
func (s *RecognitionService) CreateBatch(ctx context.Context, giverID uint, items []RecognitionInput) (*BatchResult, error) {
	ctx, span := s.tracer().Start(ctx, "CreateBatch",
		trace.WithAttributes(
			attribute.Int64("giver.id", int64(giverID)),
			attribute.Int("batch.size", len(items)),
		),
	)
	defer span.End()

	limit := s.BatchMax
	if limit <= 0 {
		limit = 10
	}
	switch {
	case len(items) == 0:
		return nil, ErrBatchEmpty
	case len(items) > limit:
		return nil, ErrBatchTooLarge
	}

	giver, err := s.loadGiver(ctx, giverID)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{Details: make([]BatchDetail, 0, len(items))}
	for _, raw := range items {
		in := normalizeRecognition(raw)
		d := BatchDetail{ReceiverID: in.ReceiverID}

		rec, err := s.createItem(ctx, giver, in)
		if err != nil {
			d.Status = BatchFailure
			d.Error = itemError(err)
			res.Failures++
		} else {
			id := rec.ID
			d.Status = BatchSuccess
			d.ID = &id
			res.Successes++
		}
		res.Details = append(res.Details, d)
	}

	if res.Successes > 0 {
		observability.RecognitionsCreated.WithLabelValues("batch").Add(float64(res.Successes))
	}
	log.Ctx(ctx).Info().
		Uint("giver_id", giverID).
		Int("successes", res.Successes).
		Int("failures", res.Failures).
		Msg("recognition batch processed")
	return res, nil
}

func (s *RecognitionService) createItem(ctx context.Context, giver *domain.User, in RecognitionInput) (*domain.Recognition, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if err := s.checkReceiver(ctx, giver, in.ReceiverID); err != nil {
		return nil, err
	}
	now := s.now()
	if s.BatchDailyLimit {
		if err := s.checkDaily(ctx, giver.ID, now); err != nil {
			return nil, err
		}
	}
	if err := s.checkMonthly(ctx, giver.ID, in.ReceiverID, now); err != nil {
		return nil, err
	}
	return s.insert(ctx, giver.ID, in, now, s.BatchDailyLimit)
}

// itemError hides store failures behind a generic message.
func itemError(err error) string {
	if Kind(err) == KindInternal {
		return "internal error"
	}
	return err.Error()
}

// Get returns a recognition with both parties.
func (s *RecognitionService) Get(ctx context.Context, id uint) (*domain.Recognition, error) {
	ctx, span := s.tracer().Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("recognition.id", int64(id))),
	)
	defer span.End()

	r, err := repo.GetRecognition(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRecognitionNotFound
		}
		return nil, err
	}
	return r, nil
}

// Delete removes a recognition; only its giver may.
func (s *RecognitionService) Delete(ctx context.Context, id, requesterID uint) error {
	ctx, span := s.tracer().Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int64("recognition.id", int64(id))),
	)
	defer span.End()

	r, err := repo.GetRecognition(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return ErrRecognitionNotFound
		}
		return err
	}
	if r.GiverID != requesterID {
		return rejected(ErrNotGiver)
	}
	if err := repo.DeleteRecognition(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrRecognitionNotFound
		}
		return err
	}
	return nil
}

// ListSent returns a page of recognitions given by userID, newest first.
func (s *RecognitionService) ListSent(ctx context.Context, userID uint, p, size int) ([]domain.Recognition, int64, error) {
	return s.list(ctx, "ListSent", repo.ColumnGiver, userID, p, size)
}

// ListReceived returns a page of recognitions received by userID, newest first.
func (s *RecognitionService) ListReceived(ctx context.Context, userID uint, p, size int) ([]domain.Recognition, int64, error) {
	return s.list(ctx, "ListReceived", repo.ColumnReceiver, userID, p, size)
}

func (s *RecognitionService) list(ctx context.Context, op, column string, userID uint, p, size int) ([]domain.Recognition, int64, error) {
	ctx, span := s.tracer().Start(ctx, op,
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int("page", p),
			attribute.Int("page_size", size),
		),
	)
	defer span.End()

	_, size, offset := page(p, size)
	total, err := repo.CountRecognitions(ctx, s.DB, column, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Recognition{}, 0, nil
	}
	items, err := repo.ListRecognitionsPage(ctx, s.DB, column, userID, offset, size)
	return items, total, err
}
