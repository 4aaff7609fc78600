// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind JSON, read the caller's identity
// and path parameters, call an application service, and translate the
// result into a response. Business rules live in the services package; the
// contracts below are what the handlers need from it.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// UserService manages accounts and sessions.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in services.LoginInput) (*services.Session, error)
	Get(ctx context.Context, id uint) (*services.Profile, error)
	Update(ctx context.Context, id uint, in services.UpdateUserInput) (*services.Profile, error)
	Deactivate(ctx context.Context, id uint) error
}

// TeamService applies the membership rules.
type TeamService interface {
	CreateTeam(ctx context.Context, userID uint, in services.CreateTeamInput) (*domain.Team, error)
	JoinTeam(ctx context.Context, userID, teamID uint, in services.JoinTeamInput) (*domain.Team, error)
	LeaveTeam(ctx context.Context, userID uint) error
	UpdateTeam(ctx context.Context, teamID, requesterID uint, in services.UpdateTeamInput) (*domain.Team, error)
	DeleteTeam(ctx context.Context, teamID, requesterID uint) error
	AddMember(ctx context.Context, managerID uint, in services.AddMemberInput) (*domain.Team, error)
	RemoveMember(ctx context.Context, managerID, memberID uint) error
	GetTeam(ctx context.Context, teamID uint) (*domain.Team, error)
	ListTeams(ctx context.Context, page, pageSize int) ([]domain.Team, int64, error)
	TeamsStats(ctx context.Context) (int64, *time.Time, error)
}

// RecognitionService applies the recognition rules.
type RecognitionService interface {
	Create(ctx context.Context, giverID uint, in services.RecognitionInput) (*domain.Recognition, error)
	CreateBatch(ctx context.Context, giverID uint, items []services.RecognitionInput) (*services.BatchResult, error)
	Get(ctx context.Context, id uint) (*domain.Recognition, error)
	Delete(ctx context.Context, id, requesterID uint) error
	ListSent(ctx context.Context, userID uint, page, pageSize int) ([]domain.Recognition, int64, error)
	ListReceived(ctx context.Context, userID uint, page, pageSize int) ([]domain.Recognition, int64, error)
}

// SentimentService records daily sentiment entries.
type SentimentService interface {
	Create(ctx context.Context, userID uint, in services.SentimentInput) (*domain.SentimentEntry, error)
	Get(ctx context.Context, id, requesterID uint) (*domain.SentimentEntry, error)
	Delete(ctx context.Context, id, requesterID uint) error
	List(ctx context.Context, userID uint, page, pageSize int) ([]domain.SentimentEntry, int64, error)
}

// ReportService generates and reads reports.
type ReportService interface {
	GeneratePersonal(ctx context.Context, userID uint) (*domain.PersonalReport, error)
	GenerateTeam(ctx context.Context, teamID uint) (*domain.TeamReport, error)
	GetPersonal(ctx context.Context, id, requesterID uint) (*domain.PersonalReport, error)
	GetTeam(ctx context.Context, id uint) (*domain.TeamReport, error)
	PersonalHistory(ctx context.Context, userID uint, page, pageSize int) ([]domain.PersonalReport, int64, error)
	TeamHistory(ctx context.Context, teamID uint, page, pageSize int) ([]domain.TeamReport, int64, error)
	TeamReportsStats(ctx context.Context, teamID uint) (int64, *time.Time, error)
}

//
// Handler wiring
//

// Deps are the services behind the handlers. Idempotency may be nil, in
// which case Idempotency-Key is accepted but nothing is replayed.
type Deps struct {
	Users        UserService
	Teams        TeamService
	Recognitions RecognitionService
	Sentiments   SentimentService
	Reports      ReportService
	Idempotency  IdempotencyStore
}

// Handlers groups every HTTP endpoint of the API.
type Handlers struct {
	users        UserService
	teams        TeamService
	recognitions RecognitionService
	sentiments   SentimentService
	reports      ReportService
	idem         IdempotencyStore
}

// New constructs Handlers bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		users:        d.Users,
		teams:        d.Teams,
		recognitions: d.Recognitions,
		sentiments:   d.Sentiments,
		reports:      d.Reports,
		idem:         d.Idempotency,
	}
}
