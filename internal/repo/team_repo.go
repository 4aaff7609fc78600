package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/aura-backend/internal/domain"
)

// CreateTeam inserts t.
func CreateTeam(ctx context.Context, db *gorm.DB, t *domain.Team) error {
	return db.WithContext(ctx).Create(t).Error
}

func withMembers(db *gorm.DB) *gorm.DB {
	return db.Preload("Members", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("name asc").Order("id asc")
	})
}

// GetTeam fetches a team by id with its members ordered by name.
func GetTeam(ctx context.Context, db *gorm.DB, id uint) (*domain.Team, error) {
	var t domain.Team
	if err := withMembers(db.WithContext(ctx)).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// TeamExists reports whether a team row with id exists.
func TeamExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Team{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// UpdateTeam applies the given column values. Returns ErrNotFound if no row
// matched.
func UpdateTeam(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := db.WithContext(ctx).Model(&domain.Team{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTeam hard-deletes a team. The store clears users.team_id and
// cascades to team_reports.
func DeleteTeam(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Team{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountTeams returns the total number of teams.
func CountTeams(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Team{}).Count(&n).Error
	return n, err
}

// ListTeamsPage returns teams ordered by name with members preloaded.
func ListTeamsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Team, error) {
	var out []domain.Team
	err := withMembers(db.WithContext(ctx)).
		Order("name asc").
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
