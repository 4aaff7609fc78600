// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Functions follow the "thin repository" approach: no business logic, only
// persistence and query composition. Rule checks (active flag, role,
// membership) belong to the services package.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/aura-backend/internal/domain"
)

// CreateUser inserts u. Email is lowercased before the insert.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return db.WithContext(ctx).Create(u).Error
}

// GetUser fetches a user by id, active or not.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by case-insensitive email.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailTaken reports whether another user (id != exceptID) owns email.
func EmailTaken(ctx context.Context, db *gorm.DB, email string, exceptID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("email = ? AND id <> ?", strings.ToLower(strings.TrimSpace(email)), exceptID).
		Count(&n).Error
	return n > 0, err
}

// UpdateUser applies the given column values. A map is used so NULLs and
// zero values are written. Returns ErrNotFound if no row matched.
func UpdateUser(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Membership is the set of columns that change together on every team
// transition.
type Membership struct {
	TeamID        *uint
	Role          domain.Role
	Title         *string
	AdmissionDate *time.Time
}

// SetMembership writes a user's membership columns in one statement.
func SetMembership(ctx context.Context, db *gorm.DB, userID uint, m Membership) error {
	var adm any
	if m.AdmissionDate != nil {
		adm = m.AdmissionDate.UTC()
	}
	return UpdateUser(ctx, db, userID, map[string]any{
		"team_id":        m.TeamID,
		"role":           m.Role,
		"title":          m.Title,
		"admission_date": adm,
	})
}

// ClearMembership detaches a user from any team and resets the role.
func ClearMembership(ctx context.Context, db *gorm.DB, userID uint) error {
	return SetMembership(ctx, db, userID, Membership{Role: domain.RoleNewUser})
}

// CountActiveMembers counts active users in teamID, excluding exceptID
// (pass 0 to count everyone).
func CountActiveMembers(ctx context.Context, db *gorm.DB, teamID, exceptID uint) (int64, error) {
	var n int64
	q := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("team_id = ? AND active = ?", teamID, true)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n, err
}

// ActiveMemberIDs returns the ids of the active users in teamID.
func ActiveMemberIDs(ctx context.Context, db *gorm.DB, teamID uint) ([]uint, error) {
	var ids []uint
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("team_id = ? AND active = ?", teamID, true).
		Order("id asc").
		Pluck("id", &ids).Error
	return ids, err
}
