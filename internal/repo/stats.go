// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/aura-backend/internal/domain"
)

// latest returns the greatest value of column among the rows of q, or nil
// when q matches nothing. Ordering plus LIMIT 1 is used instead of MAX()
// because SQLite returns MAX over a datetime column as TEXT.
func latest(q *gorm.DB, column string) (*time.Time, error) {
	var rows []time.Time
	if err := q.Order(column+" DESC").Limit(1).Pluck(column, &rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// TeamsStats returns the number of teams and the latest change in the team
// listing: the greatest UpdatedAt among teams and users, since membership
// lives on the user row. When there are no teams, maxUpdatedAt is nil.
func TeamsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = db.WithContext(ctx).Model(&domain.Team{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	teams, err := latest(db.WithContext(ctx).Model(&domain.Team{}), "updated_at")
	if err != nil {
		return 0, nil, err
	}
	users, err := latest(db.WithContext(ctx).Model(&domain.User{}), "updated_at")
	if err != nil {
		return 0, nil, err
	}
	maxUpdatedAt = teams
	if users != nil && (maxUpdatedAt == nil || users.After(*maxUpdatedAt)) {
		maxUpdatedAt = users
	}
	return count, maxUpdatedAt, nil
}

// TeamReportsStats returns the number of reports stored for teamID and the
// GeneratedAt of the newest one.
func TeamReportsStats(ctx context.Context, db *gorm.DB, teamID uint) (count int64, maxGeneratedAt *time.Time, err error) {
	scoped := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.TeamReport{}).Where("team_id = ?", teamID)
	}
	if err = scoped().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	maxGeneratedAt, err = latest(scoped(), "generated_at")
	if err != nil {
		return 0, nil, err
	}
	return count, maxGeneratedAt, nil
}
