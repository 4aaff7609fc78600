package services

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/observability"
	"github.com/tbourn/aura-backend/internal/repo"
)

// SentimentInput is a daily mood entry.
type SentimentInput struct {
	Label       string   `json:"label"       validate:"required,max=50"`
	Score       *float64 `json:"score"       validate:"omitempty,min=0,max=10"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
}

// SentimentService records daily sentiment entries.
type SentimentService struct {
	DB *gorm.DB
	Clock
}

func (s *SentimentService) tracer() trace.Tracer { return otel.Tracer("services/SentimentService") }

var labelCaser = cases.Title(language.Und)

// normalizeLabel collapses internal whitespace and title-cases the label.
func normalizeLabel(label string) string {
	return labelCaser.String(strings.Join(strings.Fields(label), " "))
}

// Create records today's entry for userID. Input is validated before any
// membership or calendar rule.
func (s *SentimentService) Create(ctx context.Context, userID uint, in SentimentInput) (*domain.SentimentEntry, error) {
	ctx, span := s.tracer().Start(ctx, "Create",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	in.Label = normalizeLabel(in.Label)
	in.Description = trimPtr(in.Description)
	if err := validate(in); err != nil {
		return nil, err
	}

	u, err := loadUser(ctx, s.DB, userID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, rejected(ErrUserInactive)
	}
	if u.TeamID == nil {
		return nil, rejected(ErrNotInTeam)
	}

	now := s.now()
	day := domain.DayKey(now)
	exists, err := repo.SentimentExistsForDay(ctx, s.DB, userID, day)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, rejected(ErrSentimentExists)
	}

	e := &domain.SentimentEntry{
		Label:       in.Label,
		Score:       in.Score,
		Description: in.Description,
		RecordedAt:  now,
		DayKey:      day,
		UserID:      userID,
	}
	if err := repo.CreateSentiment(ctx, s.DB, e); err != nil {
		if isDuplicate(err) {
			return nil, rejected(ErrSentimentExists)
		}
		return nil, err
	}
	observability.SentimentsCreated.Inc()
	return e, nil
}

// Get returns one entry; only its owner may read it.
func (s *SentimentService) Get(ctx context.Context, id, requesterID uint) (*domain.SentimentEntry, error) {
	ctx, span := s.tracer().Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("sentiment.id", int64(id))),
	)
	defer span.End()

	e, err := repo.GetSentiment(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSentimentNotFound
		}
		return nil, err
	}
	if e.UserID != requesterID {
		return nil, ErrNotOwner
	}
	return e, nil
}

// Delete removes an entry owned by requesterID.
func (s *SentimentService) Delete(ctx context.Context, id, requesterID uint) error {
	ctx, span := s.tracer().Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int64("sentiment.id", int64(id))),
	)
	defer span.End()

	if _, err := s.Get(ctx, id, requesterID); err != nil {
		return err
	}
	if err := repo.DeleteSentiment(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrSentimentNotFound
		}
		return err
	}
	return nil
}

// List returns a page of userID's entries, newest first.
func (s *SentimentService) List(ctx context.Context, userID uint, p, size int) ([]domain.SentimentEntry, int64, error) {
	ctx, span := s.tracer().Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int("page", p),
			attribute.Int("page_size", size),
		),
	)
	defer span.End()

	_, size, offset := page(p, size)
	total, err := repo.CountSentiments(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.SentimentEntry{}, 0, nil
	}
	items, err := repo.ListSentimentsPage(ctx, s.DB, userID, offset, size)
	return items, total, err
}
