package repo

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/aura-backend/internal/domain"
)

// CreateSentiment inserts e with RecordedAt in UTC. DayKey must already be
// set by the caller.
func CreateSentiment(ctx context.Context, db *gorm.DB, e *domain.SentimentEntry) error {
	e.RecordedAt = e.RecordedAt.UTC()
	return db.WithContext(ctx).Omit("User").Create(e).Error
}

// GetSentiment fetches an entry by id.
func GetSentiment(ctx context.Context, db *gorm.DB, id uint) (*domain.SentimentEntry, error) {
	var e domain.SentimentEntry
	if err := db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteSentiment hard-deletes an entry.
func DeleteSentiment(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.SentimentEntry{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SentimentExistsForDay reports whether userID already logged on dayKey.
func SentimentExistsForDay(ctx context.Context, db *gorm.DB, userID uint, dayKey string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.SentimentEntry{}).
		Where("user_id = ? AND day_key = ?", userID, dayKey).
		Count(&n).Error
	return n > 0, err
}

// CountSentiments counts all entries of userID.
func CountSentiments(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.SentimentEntry{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// ListSentimentsPage returns the entries of userID, newest first.
func ListSentimentsPage(ctx context.Context, db *gorm.DB, userID uint, offset, limit int) ([]domain.SentimentEntry, error) {
	var out []domain.SentimentEntry
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recorded_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func sentimentsIn(db *gorm.DB, userIDs []uint, from, to time.Time) *gorm.DB {
	return db.Model(&domain.SentimentEntry{}).
		Where("user_id IN ? AND recorded_at >= ? AND recorded_at < ?", userIDs, from.UTC(), to.UTC())
}

// AverageScore returns the mean of the non-null scores of userIDs with
// RecordedAt in [from, to), or nil when there are none.
func AverageScore(ctx context.Context, db *gorm.DB, userIDs []uint, from, to time.Time) (*float64, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var avg sql.NullFloat64
	err := sentimentsIn(db.WithContext(ctx), userIDs, from, to).
		Where("score IS NOT NULL").
		Select("AVG(score)").
		Row().
		Scan(&avg)
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	v := avg.Float64
	return &v, nil
}

// DistinctSentimentDays counts the distinct calendar days on which any of
// userIDs logged an entry in [from, to).
func DistinctSentimentDays(ctx context.Context, db *gorm.DB, userIDs []uint, from, to time.Time) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := sentimentsIn(db.WithContext(ctx), userIDs, from, to).
		Distinct("day_key").
		Count(&n).Error
	return n, err
}

// CountParticipants counts how many of userIDs logged at least one entry in
// [from, to).
func CountParticipants(ctx context.Context, db *gorm.DB, userIDs []uint, from, to time.Time) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := sentimentsIn(db.WithContext(ctx), userIDs, from, to).
		Distinct("user_id").
		Count(&n).Error
	return n, err
}
