package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/aura-backend/internal/domain"
)

// CreatePersonalReport inserts an append-only personal snapshot.
func CreatePersonalReport(ctx context.Context, db *gorm.DB, r *domain.PersonalReport) error {
	r.GeneratedAt = r.GeneratedAt.UTC()
	return db.WithContext(ctx).Omit("User").Create(r).Error
}

// GetPersonalReport fetches a personal report by id.
func GetPersonalReport(ctx context.Context, db *gorm.DB, id uint) (*domain.PersonalReport, error) {
	var r domain.PersonalReport
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CountPersonalReports counts the reports of userID.
func CountPersonalReports(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.PersonalReport{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// ListPersonalReportsPage returns the reports of userID, newest first.
func ListPersonalReportsPage(ctx context.Context, db *gorm.DB, userID uint, offset, limit int) ([]domain.PersonalReport, error) {
	var out []domain.PersonalReport
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("generated_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CreateTeamReport inserts an append-only team snapshot.
func CreateTeamReport(ctx context.Context, db *gorm.DB, r *domain.TeamReport) error {
	r.GeneratedAt = r.GeneratedAt.UTC()
	return db.WithContext(ctx).Omit("Team").Create(r).Error
}

// GetTeamReport fetches a team report by id.
func GetTeamReport(ctx context.Context, db *gorm.DB, id uint) (*domain.TeamReport, error) {
	var r domain.TeamReport
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CountTeamReports counts the reports of teamID.
func CountTeamReports(ctx context.Context, db *gorm.DB, teamID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.TeamReport{}).Where("team_id = ?", teamID).Count(&n).Error
	return n, err
}

// ListTeamReportsPage returns the reports of teamID, newest first.
func ListTeamReportsPage(ctx context.Context, db *gorm.DB, teamID uint, offset, limit int) ([]domain.TeamReport, error) {
	var out []domain.TeamReport
	err := db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("generated_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
