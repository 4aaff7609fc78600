package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/aura-backend/internal/auth"
	"github.com/tbourn/aura-backend/internal/domain"
	"github.com/tbourn/aura-backend/internal/repo"
)

// RegisterInput carries a new account.
type RegisterInput struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email,max=150"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginInput carries credentials.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserInput holds optional profile changes; nil fields are untouched.
type UpdateUserInput struct {
	Name          *string    `json:"name"           validate:"omitempty,min=1,max=100"`
	Email         *string    `json:"email"          validate:"omitempty,email,max=150"`
	Password      *string    `json:"password"       validate:"omitempty,min=6"`
	Title         *string    `json:"title"          validate:"omitempty,max=100"`
	AdmissionDate *time.Time `json:"admission_date"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// Profile is a user together with the name of their team, if any.
type Profile struct {
	User     *domain.User
	TeamName *string
}

// UserService manages accounts and credentials.
type UserService struct {
	DB     *gorm.DB
	Issuer *auth.Issuer
	// BcryptCost defaults to bcrypt.DefaultCost when zero.
	BcryptCost int
}

func (s *UserService) tracer() trace.Tracer { return otel.Tracer("services/UserService") }

func (s *UserService) hash(password string) (string, error) {
	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Register creates an active NEW_USER account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	ctx, span := s.tracer().Start(ctx, "Register")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate(in); err != nil {
		return nil, err
	}

	taken, err := repo.EmailTaken(ctx, s.DB, in.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, rejected(ErrEmailTaken)
	}

	h, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: h,
		Role:         domain.RoleNewUser,
		Active:       true,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if isDuplicate(err) {
			return nil, rejected(ErrEmailTaken)
		}
		return nil, err
	}
	log.Ctx(ctx).Info().Uint("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Login verifies credentials and issues a token. Unknown emails, inactive
// accounts and wrong passwords all yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	ctx, span := s.tracer().Start(ctx, "Login")
	defer span.End()

	if err := validate(in); err != nil {
		return nil, err
	}
	u, err := repo.GetUserByEmail(ctx, s.DB, in.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if s.Issuer == nil {
		return nil, errors.New("token issuer not configured")
	}
	tok, exp, err := s.Issuer.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, ExpiresAt: exp, User: u}, nil
}

// Get returns the user and their team name.
func (s *UserService) Get(ctx context.Context, id uint) (*Profile, error) {
	ctx, span := s.tracer().Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("user.id", int64(id))),
	)
	defer span.End()

	u, err := loadUser(ctx, s.DB, id, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: u}
	if u.TeamID != nil {
		t, err := repo.GetTeam(ctx, s.DB, *u.TeamID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		if t != nil {
			p.TeamName = &t.Name
		}
	}
	return p, nil
}

// Update applies the non-nil fields of in to an active user.
func (s *UserService) Update(ctx context.Context, id uint, in UpdateUserInput) (*Profile, error) {
	ctx, span := s.tracer().Start(ctx, "Update",
		trace.WithAttributes(attribute.Int64("user.id", int64(id))),
	)
	defer span.End()

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		in.Name = &v
	}
	if in.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &v
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	u, err := loadUser(ctx, s.DB, id, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, rejected(ErrUserInactive)
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Email != nil && *in.Email != u.Email {
		taken, err := repo.EmailTaken(ctx, s.DB, *in.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, rejected(ErrEmailTaken)
		}
		fields["email"] = *in.Email
	}
	if in.Password != nil {
		h, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = h
	}
	if in.Title != nil {
		fields["title"] = trimPtr(in.Title)
	}
	if in.AdmissionDate != nil {
		fields["admission_date"] = in.AdmissionDate.UTC()
	}

	if err := repo.UpdateUser(ctx, s.DB, id, fields); err != nil {
		if isDuplicate(err) {
			return nil, rejected(ErrEmailTaken)
		}
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Deactivate clears the active flag. Deactivating twice is a no-op.
func (s *UserService) Deactivate(ctx context.Context, id uint) error {
	ctx, span := s.tracer().Start(ctx, "Deactivate",
		trace.WithAttributes(attribute.Int64("user.id", int64(id))),
	)
	defer span.End()

	if _, err := loadUser(ctx, s.DB, id, ErrUserNotFound); err != nil {
		return err
	}
	if err := repo.UpdateUser(ctx, s.DB, id, map[string]any{"active": false}); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Uint("user_id", id).Msg("user deactivated")
	return nil
}
