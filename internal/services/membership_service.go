// Package services – MembershipService
//
// This file implements the team membership rule engine: creating, joining,
// leaving, updating and deleting teams, and manager-driven member changes.
// Every transition runs in one transaction so the user row, the team row and
// the role change commit together.
//
// Invariants maintained here:
//   - a user belongs to at most one team;
//   - the team creator is its MANAGER and the only one;
//   - a vacated team with no active members left is deleted.
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
	"github.com/tbourn/aura-backend/internal/repo"
)

// CreateTeamInput carries the fields for a new team and its manager.
type CreateTeamInput struct {
	Name          string     `json:"name"           validate:"required,max=100"`
	Description   *string    `json:"description"    validate:"omitempty,max=255"`
	Title         string     `json:"title"          validate:"required,max=100"`
	AdmissionDate *time.Time `json:"admission_date"`
}

// JoinTeamInput carries the member's title and optional admission date.
type JoinTeamInput struct {
	Title         string     `json:"title"          validate:"required,max=100"`
	AdmissionDate *time.Time `json:"admission_date"`
}

// AddMemberInput identifies the user a manager adds to their team.
type AddMemberInput struct {
	MemberID      uint       `json:"member_id"      validate:"required"`
	Title         string     `json:"title"          validate:"required,max=100"`
	AdmissionDate *time.Time `json:"admission_date"`
}

// UpdateTeamInput holds optional team fields; nil or blank values are ignored.
type UpdateTeamInput struct {
	Name        *string `json:"name"        validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// MembershipService implements the team membership rules.
type MembershipService struct {
	DB *gorm.DB
	Clock
}

func (s *MembershipService) tracer() trace.Tracer { return otel.Tracer("services/MembershipService") }

// loadUser maps a missing row to notFound.
func loadUser(ctx context.Context, db *gorm.DB, id uint, notFound error) (*domain.User, error) {
	u, err := repo.GetUser(ctx, db, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound
		}
		return nil, err
	}
	return u, nil
}

func loadTeam(ctx context.Context, db *gorm.DB, id uint) (*domain.Team, error) {
	t, err := repo.GetTeam(ctx, db, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *MembershipService) admission(d *time.Time) *time.Time {
	if d != nil {
		return d
	}
	now := s.now()
	return &now
}

// CreateTeam creates a team and makes userID its manager.
func (s *MembershipService) CreateTeam(ctx context.Context, userID uint, in CreateTeamInput) (*domain.Team, error) {
	ctx, span := s.tracer().Start(ctx, "CreateTeam",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = trimPtr(in.Description)
	if err := validate(in); err != nil {
		return nil, err
	}

	var teamID uint
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := loadUser(ctx, tx, userID, ErrUserNotFound)
		if err != nil {
			return err
		}
		if !u.Active {
			return rejected(ErrUserInactive)
		}
		if u.TeamID != nil {
			return rejected(ErrAlreadyInTeam)
		}

		team := &domain.Team{Name: in.Name, Description: in.Description}
		if err := repo.CreateTeam(ctx, tx, team); err != nil {
			return err
		}
		teamID = team.ID
		return repo.SetMembership(ctx, tx, u.ID, repo.Membership{
			TeamID:        &team.ID,
			Role:          domain.RoleManager,
			Title:         &in.Title,
			AdmissionDate: s.admission(in.AdmissionDate),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Uint("team_id", teamID).Uint("user_id", userID).Msg("team created")
	return loadTeam(ctx, s.DB, teamID)
}

// JoinTeam adds userID to teamID as an employee.
func (s *MembershipService) JoinTeam(ctx context.Context, userID, teamID uint, in JoinTeamInput) (*domain.Team, error) {
	ctx, span := s.tracer().Start(ctx, "JoinTeam",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int64("team.id", int64(teamID)),
		),
	)
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	if err := validate(in); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := loadUser(ctx, tx, userID, ErrUserNotFound)
		if err != nil {
			return err
		}
		ok, err := repo.TeamExists(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTeamNotFound
		}
		if !u.Active {
			return rejected(ErrUserInactive)
		}
		if u.TeamID != nil {
			return rejected(ErrAlreadyInTeam)
		}
		return repo.SetMembership(ctx, tx, u.ID, repo.Membership{
			TeamID:        &teamID,
			Role:          domain.RoleEmployee,
			Title:         &in.Title,
			AdmissionDate: s.admission(in.AdmissionDate),
		})
	})
	if err != nil {
		return nil, err
	}
	return loadTeam(ctx, s.DB, teamID)
}

// LeaveTeam detaches userID from their team. A manager may only leave once no
// other active member remains; the emptied team is then deleted.
func (s *MembershipService) LeaveTeam(ctx context.Context, userID uint) error {
	ctx, span := s.tracer().Start(ctx, "LeaveTeam",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	var (
		teamID  uint
		deleted bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := loadUser(ctx, tx, userID, ErrUserNotFound)
		if err != nil {
			return err
		}
		if u.TeamID == nil {
			return rejected(ErrNotInTeam)
		}
		teamID = *u.TeamID

		if u.Role == domain.RoleManager {
			others, err := repo.CountActiveMembers(ctx, tx, teamID, u.ID)
			if err != nil {
				return err
			}
			if others > 0 {
				return rejected(ErrManagerHasMembers)
			}
		}

		if err := repo.ClearMembership(ctx, tx, u.ID); err != nil {
			return err
		}

		left, err := repo.CountActiveMembers(ctx, tx, teamID, 0)
		if err != nil {
			return err
		}
		if left == 0 {
			deleted = true
			return repo.DeleteTeam(ctx, tx, teamID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if deleted {
		log.Ctx(ctx).Info().Uint("team_id", teamID).Uint("user_id", userID).Msg("team deleted after last member left")
	}
	return nil
}

// requireManager returns the team when requesterID is its manager.
func requireManager(ctx context.Context, db *gorm.DB, teamID, requesterID uint) (*domain.Team, error) {
	team, err := loadTeam(ctx, db, teamID)
	if err != nil {
		return nil, err
	}
	u, err := repo.GetUser(ctx, db, requesterID)
	if err != nil {
		if isNotFound(err) {
			return nil, rejected(ErrNotManager)
		}
		return nil, err
	}
	if !u.InTeam(teamID) || u.Role != domain.RoleManager {
		return nil, rejected(ErrNotManager)
	}
	return team, nil
}

// UpdateTeam changes a team's name or description. Only its manager may.
func (s *MembershipService) UpdateTeam(ctx context.Context, teamID, requesterID uint, in UpdateTeamInput) (*domain.Team, error) {
	ctx, span := s.tracer().Start(ctx, "UpdateTeam",
		trace.WithAttributes(attribute.Int64("team.id", int64(teamID))),
	)
	defer span.End()

	in.Name = trimPtr(in.Name)
	in.Description = trimPtr(in.Description)
	if err := validate(in); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := requireManager(ctx, tx, teamID, requesterID); err != nil {
			return err
		}
		fields := map[string]any{}
		if in.Name != nil {
			fields["name"] = *in.Name
		}
		if in.Description != nil {
			fields["description"] = *in.Description
		}
		return repo.UpdateTeam(ctx, tx, teamID, fields)
	})
	if err != nil {
		return nil, err
	}
	return loadTeam(ctx, s.DB, teamID)
}

// DeleteTeam removes a team whose only active member is its manager.
func (s *MembershipService) DeleteTeam(ctx context.Context, teamID, requesterID uint) error {
	ctx, span := s.tracer().Start(ctx, "DeleteTeam",
		trace.WithAttributes(attribute.Int64("team.id", int64(teamID))),
	)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := requireManager(ctx, tx, teamID, requesterID); err != nil {
			return err
		}
		n, err := repo.CountActiveMembers(ctx, tx, teamID, 0)
		if err != nil {
			return err
		}
		if n > 1 {
			return rejected(ErrTeamHasMembers)
		}
		if err := repo.ClearMembership(ctx, tx, requesterID); err != nil {
			return err
		}
		return repo.DeleteTeam(ctx, tx, teamID)
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Uint("team_id", teamID).Uint("user_id", requesterID).Msg("team deleted")
	return nil
}

// managerTeam returns the caller's team id when they are an active manager.
func managerTeam(ctx context.Context, db *gorm.DB, managerID uint, requireActive bool) (uint, error) {
	m, err := repo.GetUser(ctx, db, managerID)
	if err != nil {
		if isNotFound(err) {
			return 0, rejected(ErrNotManager)
		}
		return 0, err
	}
	if m.Role != domain.RoleManager || m.TeamID == nil || (requireActive && !m.Active) {
		return 0, rejected(ErrNotManager)
	}
	return *m.TeamID, nil
}

// AddMember places a teamless active user on the manager's team.
func (s *MembershipService) AddMember(ctx context.Context, managerID uint, in AddMemberInput) (*domain.Team, error) {
	ctx, span := s.tracer().Start(ctx, "AddMember",
		trace.WithAttributes(
			attribute.Int64("manager.id", int64(managerID)),
			attribute.Int64("member.id", int64(in.MemberID)),
		),
	)
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	if err := validate(in); err != nil {
		return nil, err
	}

	var teamID uint
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		teamID, err = managerTeam(ctx, tx, managerID, true)
		if err != nil {
			return err
		}
		member, err := loadUser(ctx, tx, in.MemberID, ErrMemberNotFound)
		if err != nil {
			return err
		}
		if !member.Active {
			return rejected(ErrMemberInactive)
		}
		if member.TeamID != nil {
			return rejected(ErrMemberHasTeam)
		}
		return repo.SetMembership(ctx, tx, member.ID, repo.Membership{
			TeamID:        &teamID,
			Role:          domain.RoleEmployee,
			Title:         &in.Title,
			AdmissionDate: s.admission(in.AdmissionDate),
		})
	})
	if err != nil {
		return nil, err
	}
	return loadTeam(ctx, s.DB, teamID)
}

// RemoveMember detaches memberID from the manager's team.
func (s *MembershipService) RemoveMember(ctx context.Context, managerID, memberID uint) error {
	ctx, span := s.tracer().Start(ctx, "RemoveMember",
		trace.WithAttributes(
			attribute.Int64("manager.id", int64(managerID)),
			attribute.Int64("member.id", int64(memberID)),
		),
	)
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teamID, err := managerTeam(ctx, tx, managerID, false)
		if err != nil {
			return err
		}
		if memberID == managerID {
			return rejected(ErrRemoveSelf)
		}
		member, err := loadUser(ctx, tx, memberID, ErrMemberNotFound)
		if err != nil {
			return err
		}
		if !member.InTeam(teamID) {
			return rejected(ErrMemberNotInTeam)
		}
		return repo.ClearMembership(ctx, tx, member.ID)
	})
}

// GetTeam returns a team with its members.
func (s *MembershipService) GetTeam(ctx context.Context, teamID uint) (*domain.Team, error) {
	ctx, span := s.tracer().Start(ctx, "GetTeam",
		trace.WithAttributes(attribute.Int64("team.id", int64(teamID))),
	)
	defer span.End()
	return loadTeam(ctx, s.DB, teamID)
}

// ListTeams returns a page of teams ordered by name and the total count.
func (s *MembershipService) ListTeams(ctx context.Context, p, size int) ([]domain.Team, int64, error) {
	ctx, span := s.tracer().Start(ctx, "ListTeams",
		trace.WithAttributes(attribute.Int("page", p), attribute.Int("page_size", size)),
	)
	defer span.End()

	_, size, offset := page(p, size)
	total, err := repo.CountTeams(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Team{}, 0, nil
	}
	items, err := repo.ListTeamsPage(ctx, s.DB, offset, size)
	return items, total, err
}

// TeamsStats returns the team count and the latest change to the listing,
// for conditional GETs.
func (s *MembershipService) TeamsStats(ctx context.Context) (int64, *time.Time, error) {
	return repo.TeamsStats(ctx, s.DB)
}
